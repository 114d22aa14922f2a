package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rtunnel/internal/models"
	"rtunnel/internal/proc"
	"rtunnel/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
)

type fakeFinder struct {
	pids []int
	err  error
}

func (f fakeFinder) FindBySignature(ctx context.Context, signature string) ([]int, error) {
	return f.pids, f.err
}

func setupRouter(finder proc.Finder) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := models.TunnelConfig{
		ServerUser:           "alice",
		ServerHost:           "example.com",
		ServerPort:           22,
		LocalPort:            22,
		RemotePort:           3333,
		MonitorPort:          20000,
		ServerAliveInterval:  60,
		ServerAliveCountMax:  3,
		ExitOnForwardFailure: true,
	}
	svc := services.NewStatusService(cfg)
	fs := afero.NewMemMapFs()
	fs.MkdirAll("/usr/local/etc/rc.d", 0755)
	svc.Fs = fs
	svc.Finder = finder
	svc.Watchdog = proc.NewWatchdog(finder, nil)
	svc.PortCheck = func(int) bool { return false }
	svc.Now = time.Now

	router := gin.New()
	NewAPIController(svc).RegisterRoutes(router)
	return router
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	router := setupRouter(fakeFinder{})
	w := serve(router, http.MethodGet, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d", w.Code)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "UP" {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestGetConfig(t *testing.T) {
	router := setupRouter(fakeFinder{})
	w := serve(router, http.MethodGet, "/rtunnel/api/v1/config")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d", w.Code)
	}
	var cfg models.TunnelConfig
	if err := json.Unmarshal(w.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.ServerHost != "example.com" || cfg.RemotePort != 3333 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestGetStatus(t *testing.T) {
	router := setupRouter(fakeFinder{pids: []int{55}})
	w := serve(router, http.MethodGet, "/rtunnel/api/v1/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d: %s", w.Code, w.Body.String())
	}
	var status models.TunnelStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.InitKind != models.InitBSD || !status.Running || len(status.Pids) != 1 || status.Pids[0] != 55 {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestGetStatusError(t *testing.T) {
	router := setupRouter(fakeFinder{err: errors.New("scan failed")})
	w := serve(router, http.MethodGet, "/rtunnel/api/v1/status")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status code = %d", w.Code)
	}
	var resp models.ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != "tunnel.status_failed" || !strings.Contains(resp.Error, "scan failed") {
		t.Errorf("unexpected error response: %+v", resp)
	}
}

func TestCheck(t *testing.T) {
	router := setupRouter(fakeFinder{pids: []int{55}})
	w := serve(router, http.MethodPost, "/rtunnel/api/v1/check")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d: %s", w.Code, w.Body.String())
	}
	var res models.CheckResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Running || res.Relaunched {
		t.Errorf("unexpected result: %+v", res)
	}

	if w := serve(router, http.MethodGet, "/rtunnel/api/v1/check"); w.Code != http.StatusNotFound {
		t.Errorf("GET on check should not be routed, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupRouter(fakeFinder{})
	serve(router, http.MethodGet, "/healthz")
	w := serve(router, http.MethodGet, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `rtunnel_http_requests_total{path="/healthz"}`) {
		t.Errorf("request counter missing from /metrics output")
	}
}

package controllers

import (
	"net/http"

	"rtunnel/internal/middleware"
	"rtunnel/internal/models"
	"rtunnel/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type APIController struct {
	svc *services.StatusService
}

/**
 * Create new API controller instance
 * @param {*services.StatusService} svc - Status service of the resolved tunnel
 * @returns {*APIController} New API controller instance
 * @example
 * svc := services.NewStatusService(cfg)
 * controller := controllers.NewAPIController(svc)
 */
func NewAPIController(svc *services.StatusService) *APIController {
	return &APIController{
		svc: svc,
	}
}

/**
 * Register all API routes to Gin engine
 * @param {*gin.Engine} r - Gin router instance
 * @description
 * - Installs the metrics middleware before any route
 * - /metrics exposes the default prometheus registry
 */
func (a *APIController) RegisterRoutes(r *gin.Engine) {
	r.Use(middleware.MetricsMiddleware())

	r.GET("/healthz", a.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/rtunnel/api/v1")
	api.GET("/config", a.GetConfig)
	api.GET("/status", a.GetStatus)
	api.POST("/check", a.Check)
}

// @Summary 业务就绪探针
// @Tags System
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /healthz [get]
func (a *APIController) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.GetHealthz())
}

// @Summary 查看生效的隧道配置
// @Tags Tunnel
// @Produce json
// @Success 200 {object} models.TunnelConfig
// @Router /rtunnel/api/v1/config [get]
func (a *APIController) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Config())
}

// @Summary 查看隧道状态
// @Tags Tunnel
// @Produce json
// @Success 200 {object} models.TunnelStatus
// @Failure 500 {object} models.ErrorResponse
// @Router /rtunnel/api/v1/status [get]
func (a *APIController) GetStatus(c *gin.Context) {
	status, err := a.svc.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:  "tunnel.status_failed",
			Error: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, status)
}

// @Summary 立即执行一次看门狗检查
// @Description 隧道进程不存在时重新拉起
// @Tags Tunnel
// @Produce json
// @Success 200 {object} models.CheckResult
// @Failure 500 {object} models.ErrorResponse
// @Router /rtunnel/api/v1/check [post]
func (a *APIController) Check(c *gin.Context) {
	res, err := a.svc.Check(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:  "tunnel.check_failed",
			Error: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, res)
}

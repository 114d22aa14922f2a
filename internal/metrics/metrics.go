package metrics

import (
	"sync/atomic"

	"rtunnel/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rtunnel"

var (
	requestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests served by the status API",
		},
		[]string{"path"},
	)

	requestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_request_errors_total",
			Help:      "HTTP requests answered with status >= 400",
		},
		[]string{"path"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	tunnelUp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tunnel_up",
		Help:      "1 when a process forwarding the tunnel signature is running",
	})

	tunnelProcesses = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tunnel_processes",
		Help:      "Number of ssh/autossh processes forwarding the tunnel signature",
	})

	localPortOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "local_port_open",
		Help:      "1 when something listens on the forwarded local port",
	})

	relaunchCount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tunnel_relaunch_total",
		Help:      "Tunnel relaunches performed by the watchdog",
	})

	tunnelInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tunnel_info",
			Help:      "Static tunnel configuration, value is always 1",
		},
		[]string{"signature", "destination", "init"},
	)
)

// 本地计数器，供 /healthz 使用
var (
	totalRequests atomic.Int64
	totalErrors   atomic.Int64
)

func init() {
	prometheus.MustRegister(requestCount)
	prometheus.MustRegister(requestErrors)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(tunnelUp)
	prometheus.MustRegister(tunnelProcesses)
	prometheus.MustRegister(localPortOpen)
	prometheus.MustRegister(relaunchCount)
	prometheus.MustRegister(tunnelInfo)
}

func IncrementRequestCount(path string) {
	requestCount.WithLabelValues(path).Inc()
	totalRequests.Add(1)
}

func IncrementErrorCount(path string) {
	requestErrors.WithLabelValues(path).Inc()
	totalErrors.Add(1)
}

func RecordRequestDuration(path string, seconds float64) {
	requestDuration.WithLabelValues(path).Observe(seconds)
}

func GetTotalRequestCount() int64 {
	return totalRequests.Load()
}

func GetTotalErrorCount() int64 {
	return totalErrors.Load()
}

/**
 * Publish the observed tunnel state
 * @param {models.TunnelConfig} cfg - Configuration the status was computed for
 * @param {models.TunnelStatus} status - Result of a status scan
 */
func ObserveStatus(cfg models.TunnelConfig, status models.TunnelStatus) {
	tunnelUp.Set(boolValue(status.Running))
	tunnelProcesses.Set(float64(len(status.Pids)))
	localPortOpen.Set(boolValue(status.LocalPortOpen))
	tunnelInfo.Reset()
	tunnelInfo.WithLabelValues(status.Signature, cfg.Destination(), string(status.InitKind)).Set(1)
}

// ObserveCheck records a watchdog pass.
func ObserveCheck(res models.CheckResult) {
	tunnelUp.Set(boolValue(res.Running))
	if res.Relaunched {
		relaunchCount.Inc()
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Package handlers provides the HTTP handlers of the dataset API.
package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/eda-panel/internal/ports"
)

// BuildInfo identifies the running binary. Version, Commit, and BuildTime
// are injected with ldflags.
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// NewBuildInfo stamps the Go runtime version onto the ldflags values.
func NewBuildInfo(service, version, commit, buildTime string) BuildInfo {
	return BuildInfo{
		Service:   service,
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// HealthHandler serves the probe endpoints under /-.
type HealthHandler struct {
	registry ports.HealthRegistry
	build    BuildInfo
	metrics  http.Handler
}

// NewHealthHandler creates a probe handler. Metrics come from the default
// Prometheus gatherer.
func NewHealthHandler(registry ports.HealthRegistry, build BuildInfo) *HealthHandler {
	return &HealthHandler{registry: registry, build: build, metrics: promhttp.Handler()}
}

type readiness struct {
	Status    ports.HealthStatus            `json:"status"`
	Checks    map[string]*ports.CheckResult `json:"checks,omitempty"`
	CheckedAt time.Time                     `json:"checked_at"`
}

// Live answers ok while the process can serve requests.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready runs the registered checks: the dataset store, plus the remote
// source and the inbox watcher when they are enabled. Any failure turns the
// answer into a 503.
func (h *HealthHandler) Ready(c *gin.Context) {
	res := h.registry.CheckAll(c.Request.Context())

	code := http.StatusOK
	if res.Status != ports.HealthStatusHealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, readiness{Status: res.Status, Checks: res.Checks, CheckedAt: res.Timestamp})
}

// Build answers with the build metadata.
func (h *HealthHandler) Build(c *gin.Context) {
	c.JSON(http.StatusOK, h.build)
}

// Mount registers live, ready, build, and metrics under /-.
func (h *HealthHandler) Mount(r gin.IRouter) {
	probes := r.Group("/-")
	probes.GET("/live", h.Live)
	probes.GET("/ready", h.Ready)
	probes.GET("/build", h.Build)
	probes.GET("/metrics", gin.WrapH(h.metrics))
}

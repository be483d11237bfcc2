package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/eda-panel/internal/adapters/http/handlers"
	"github.com/jsamuelsen/eda-panel/internal/adapters/loader"
	"github.com/jsamuelsen/eda-panel/internal/adapters/memstore"
	"github.com/jsamuelsen/eda-panel/internal/app"
	"github.com/jsamuelsen/eda-panel/internal/platform/config"
	"github.com/jsamuelsen/eda-panel/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serverConfig(host string, port int, maxSize int64) *config.ServerConfig {
	return &config.ServerConfig{
		Host:            host,
		Port:            port,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     30 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		MaxRequestSize:  maxSize,
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"localhost", 8080, "localhost:8080"},
		{"0.0.0.0", 3000, "0.0.0.0:3000"},
		{"::1", 8080, "[::1]:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, New(serverConfig(tt.host, tt.port, 1<<20), discard()).Addr())
		})
	}
}

func TestServer_ServeAndDrain(t *testing.T) {
	srv := New(serverConfig("127.0.0.1", 0, 1<<20), discard())
	srv.Engine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	var drained atomic.Bool

	srv.OnShutdown(func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		drained.Store(hasDeadline)

		return nil
	})
	srv.OnShutdown(func(context.Context) error { return errors.New("loads still running") })

	require.NoError(t, srv.Listen())
	require.NotEqual(t, "127.0.0.1:0", srv.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/ping")
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.True(t, drained.Load())
}

func TestServer_ShutdownBeforeServing(t *testing.T) {
	srv := New(serverConfig("127.0.0.1", 0, 1<<20), discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, srv.Serve(ctx))

	_, err := net.Dial("tcp", srv.Addr())
	assert.Error(t, err)
}

func TestServer_ListenError(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	port := taken.Addr().(*net.TCPAddr).Port

	err = New(serverConfig("127.0.0.1", port, 1<<20), discard()).Serve(context.Background())
	assert.ErrorContains(t, err, "listening on")
}

func TestMaxBodySize(t *testing.T) {
	srv := New(serverConfig("127.0.0.1", 0, 16), discard())
	srv.Engine().POST("/echo", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}

		c.String(http.StatusOK, "%d", len(body))
	})

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"under limit", "small", http.StatusOK},
		{"over limit", strings.Repeat("x", 64), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func newDatasetHandler() *handlers.DatasetHandler {
	store := memstore.New(memstore.Options{})
	datasets := app.NewDatasetService(app.DatasetServiceConfig{
		Repo:   store,
		Jobs:   store,
		Loader: loader.New(loader.DefaultOptions(), discard()),
		Logger: discard(),
	})

	return handlers.NewDatasetHandler(datasets,
		app.NewAnalysisService(app.AnalysisServiceConfig{Repo: store}),
		app.NewReportService(app.ReportServiceConfig{Repo: store}))
}

func TestSetupRouter(t *testing.T) {
	engine := gin.New()
	health := handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.NewBuildInfo("eda-panel", "1.0.0", "", ""))

	cfg := NewDefaultRouterConfig(discard(), "eda-panel", health, newDatasetHandler())
	cfg.MaxUploadSize = 1 << 20

	require.NotPanics(t, func() {
		SetupRouter(engine, cfg)
	})

	paths := map[string]bool{}
	for _, r := range engine.Routes() {
		paths[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /-/live",
		"GET /-/ready",
		"GET /-/metrics",
		"POST /api/v1/datasets",
		"POST /api/v1/datasets/import",
		"GET /api/v1/datasets/:id/charts/:kind",
		"GET /api/v1/datasets/:id/report",
		"GET /api/v1/jobs/:id",
	} {
		assert.True(t, paths[want], want)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/datasets", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
}

func TestSetupRouter_NilHandlers(t *testing.T) {
	require.NotPanics(t, func() {
		SetupRouter(gin.New(), RouterConfig{Logger: discard(), ServiceName: "eda-panel"})
	})

	require.NotPanics(t, func() {
		SetupMinimalRouter(gin.New(), discard(), nil)
	})
}

func TestAPITimeout_Exemptions(t *testing.T) {
	tests := []struct {
		method       string
		route        string
		target       string
		wantDeadline bool
	}{
		{http.MethodGet, "/api/v1/datasets", "/api/v1/datasets", true},
		{http.MethodPost, "/api/v1/datasets", "/api/v1/datasets", false},
		{http.MethodGet, "/api/v1/datasets/:id/report", "/api/v1/datasets/x/report", false},
		{http.MethodGet, "/api/v1/datasets/:id/summary", "/api/v1/datasets/x/summary", true},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.route, func(t *testing.T) {
			var hasDeadline bool

			engine := gin.New()
			engine.Use(apiTimeout(time.Second))
			engine.Handle(tt.method, tt.route, func(c *gin.Context) {
				_, hasDeadline = c.Request.Context().Deadline()
				c.Status(http.StatusOK)
			})

			engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.target, bytes.NewReader(nil)))

			assert.Equal(t, tt.wantDeadline, hasDeadline)
		})
	}
}

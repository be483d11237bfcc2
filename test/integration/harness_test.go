//go:build integration

package integration

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	apphttp "github.com/jsamuelsen/eda-panel/internal/adapters/http"
	"github.com/jsamuelsen/eda-panel/internal/adapters/http/handlers"
	"github.com/jsamuelsen/eda-panel/internal/platform/config"
	"github.com/jsamuelsen/eda-panel/internal/platform/telemetry"
	"github.com/jsamuelsen/eda-panel/internal/ports"
	"github.com/jsamuelsen/eda-panel/internal/wire"
)

// service is an in-process eda-panel API.
type service struct {
	server     *httptest.Server
	components *wire.Components
	metrics    *prometheus.Registry
}

// startService builds the full application from the configuration under
// dir and serves it until the returned cleanup runs.
func startService(dir string) (*service, func(), error) {
	cfg, err := config.LoadFrom(dir, "")
	if err != nil {
		return nil, nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()

	metrics, err := telemetry.NewAnalysisMetrics(reg)
	if err != nil {
		return nil, nil, err
	}

	components, err := wire.Build(cfg, logger, metrics)
	if err != nil {
		return nil, nil, err
	}

	health := ports.NewHealthRegistry()
	if err := components.RegisterHealth(health); err != nil {
		return nil, nil, err
	}

	gin.SetMode(gin.TestMode)
	engine := gin.New()

	routerCfg := apphttp.NewDefaultRouterConfig(
		logger,
		cfg.Telemetry.ServiceName,
		handlers.NewHealthHandler(health, handlers.NewBuildInfo(cfg.App.Name, "test", "none", "now")),
		handlers.NewDatasetHandler(components.Datasets, components.Analysis, components.Output),
	)
	routerCfg.Timeout = cfg.Server.RequestTimeout
	routerCfg.MaxUploadSize = cfg.Data.MaxFileSize + 1<<20
	apphttp.SetupRouter(engine, routerCfg)

	srv := httptest.NewServer(engine)

	return &service{server: srv, components: components, metrics: reg}, srv.Close, nil
}

// newService starts a service after applying env with t.Setenv.
func newService(t *testing.T, env map[string]string) *service {
	t.Helper()

	for k, v := range env {
		t.Setenv(k, v)
	}

	svc, cleanup, err := startService(t.TempDir())
	if err != nil {
		t.Fatalf("starting service: %v", err)
	}

	t.Cleanup(cleanup)

	return svc
}

// upload posts data as the multipart "file" field.
func (s *service) upload(name string, data []byte, query string) (*http.Response, error) {
	body, contentType, err := multipartBody(name, data)
	if err != nil {
		return nil, err
	}

	url := s.server.URL + "/api/v1/datasets"
	if query != "" {
		url += "?" + query
	}

	return http.Post(url, contentType, body)
}

func multipartBody(name string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}

	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

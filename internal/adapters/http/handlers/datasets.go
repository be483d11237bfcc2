package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/eda-panel/internal/adapters/http/dto"
	"github.com/jsamuelsen/eda-panel/internal/app"
	"github.com/jsamuelsen/eda-panel/internal/domain"
)

// DatasetHandler serves the dataset API.
type DatasetHandler struct {
	datasets *app.DatasetService
	analysis *app.AnalysisService
	reports  *app.ReportService
}

// NewDatasetHandler creates a DatasetHandler.
func NewDatasetHandler(datasets *app.DatasetService, analysis *app.AnalysisService, reports *app.ReportService) *DatasetHandler {
	return &DatasetHandler{datasets: datasets, analysis: analysis, reports: reports}
}

// RegisterRoutes registers the dataset and job routes on rg.
func (h *DatasetHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ds := rg.Group("/datasets")
	ds.POST("", h.Upload)
	ds.POST("/import", h.Import)
	ds.GET("", h.List)
	ds.GET("/:id", h.Get)
	ds.DELETE("/:id", h.Delete)
	ds.GET("/:id/columns", h.Columns)
	ds.GET("/:id/missing", h.Missing)
	ds.GET("/:id/quality", h.Quality)
	ds.GET("/:id/columns/:column/stats", h.ColumnStats)
	ds.GET("/:id/columns/:column/outliers", h.Outliers)
	ds.GET("/:id/charts/:kind", h.Chart)
	ds.GET("/:id/report", h.Report)
	ds.GET("/:id/summary", h.TextSummary)

	rg.GET("/jobs/:id", h.Job)
}

// Upload handles POST /datasets with a multipart "file" field.
func (h *DatasetHandler) Upload(c *gin.Context) {
	var q dto.UploadQuery
	if err := dto.BindQueryAndValidate(c, &q); err != nil {
		dto.RespondWithBindingError(c, err)
		return
	}

	file, err := readUpload(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			dto.RespondWithCode(c, dto.ErrorCodeTooLarge,
				fmt.Sprintf("request body exceeds %s", domain.FormatMemorySize(tooLarge.Limit)))

			return
		}

		dto.RespondWithCode(c, dto.ErrorCodeBadRequest, err.Error())

		return
	}

	ctx := c.Request.Context()
	req := app.LoadRequest{File: file}

	if q.Async {
		job, err := h.datasets.LoadAsync(ctx, req)
		if err != nil {
			dto.HandleError(c, err)
			return
		}

		location := "/api/v1/jobs/" + job.ID
		c.Header("Location", location)
		c.JSON(http.StatusAccepted, dto.JobResponse{LoadJob: job, Location: location})

		return
	}

	ds, err := h.datasets.Load(ctx, req)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	h.created(c, ds)
}

// Import handles POST /datasets/import.
func (h *DatasetHandler) Import(c *gin.Context) {
	var req dto.ImportRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindingError(c, err)
		return
	}

	ds, err := h.datasets.Import(c.Request.Context(), req.Path)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	h.created(c, ds)
}

// List handles GET /datasets. Items are ordered by load time, then ID.
func (h *DatasetHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if err := dto.BindQueryAndValidate(c, &q); err != nil {
		dto.RespondWithBindingError(c, err)
		return
	}

	after, err := q.Position()
	if err != nil && !errors.Is(err, dto.ErrNoCursor) {
		dto.RespondWithCode(c, dto.ErrorCodeBadRequest, "invalid cursor")
		return
	}

	first := err != nil

	all, err := h.datasets.List(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	size := q.Size()
	items := make([]dto.DatasetItem, 0, size+1)

	for _, ds := range all {
		if !first && !after.Follows(ds.LoadedAt, ds.ID) {
			continue
		}

		items = append(items, dto.NewDatasetItem(ds))
		if len(items) > size {
			break
		}
	}

	c.JSON(http.StatusOK, dto.NewPage(items, size, dto.DatasetCursor))
}

// Get handles GET /datasets/:id.
func (h *DatasetHandler) Get(c *gin.Context) {
	uri, ok := bindDataset(c)
	if !ok {
		return
	}

	ds, err := h.datasets.Get(c.Request.Context(), uri.ID)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	summary, err := h.datasets.Summary(c.Request.Context(), uri.ID)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewDatasetResponse(ds, summary))
}

// Delete handles DELETE /datasets/:id.
func (h *DatasetHandler) Delete(c *gin.Context) {
	uri, ok := bindDataset(c)
	if !ok {
		return
	}

	if err := h.datasets.Delete(c.Request.Context(), uri.ID); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Columns handles GET /datasets/:id/columns.
func (h *DatasetHandler) Columns(c *gin.Context) {
	uri, ok := bindDataset(c)
	if !ok {
		return
	}

	var q dto.ColumnsQuery
	if err := dto.BindQueryAndValidate(c, &q); err != nil {
		dto.RespondWithBindingError(c, err)
		return
	}

	cols, err := h.datasets.Columns(c.Request.Context(), uri.ID, app.ColumnFilter{Search: q.Search, Kind: q.Kind})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ColumnsResponse{Items: cols, Count: len(cols)})
}

// Missing handles GET /datasets/:id/missing.
func (h *DatasetHandler) Missing(c *gin.Context) {
	uri, ok := bindDataset(c)
	if !ok {
		return
	}

	report, err := h.analysis.Missing(c.Request.Context(), uri.ID)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// Quality handles GET /datasets/:id/quality.
func (h *DatasetHandler) Quality(c *gin.Context) {
	uri, ok := bindDataset(c)
	if !ok {
		return
	}

	quality, err := h.analysis.Quality(c.Request.Context(), uri.ID)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, quality)
}

// ColumnStats handles GET /datasets/:id/columns/:column/stats.
func (h *DatasetHandler) ColumnStats(c *gin.Context) {
	uri, ok := bindColumn(c)
	if !ok {
		return
	}

	res, err := h.analysis.ColumnAnalysis(c.Request.Context(), uri.ID, uri.Column)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Outliers handles GET /datasets/:id/columns/:column/outliers.
func (h *DatasetHandler) Outliers(c *gin.Context) {
	uri, ok := bindColumn(c)
	if !ok {
		return
	}

	var q dto.OutliersQuery
	if err := dto.BindQueryAndValidate(c, &q); err != nil {
		dto.RespondWithBindingError(c, err)
		return
	}

	res, err := h.analysis.Outliers(c.Request.Context(), uri.ID, uri.Column, app.OutlierParams{
		IQRMultiplier:   q.K,
		ZScoreThreshold: q.Threshold,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Chart handles GET /datasets/:id/charts/:kind. The image is buffered so a
// rendering failure still produces an error envelope.
func (h *DatasetHandler) Chart(c *gin.Context) {
	uri, ok := bindDataset(c)
	if !ok {
		return
	}

	kind, err := domain.ParseChartKind(c.Param("kind"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	var q dto.ChartQuery
	if err := dto.BindQueryAndValidate(c, &q); err != nil {
		dto.RespondWithBindingError(c, err)
		return
	}

	var buf bytes.Buffer

	format, err := h.reports.Chart(c.Request.Context(), &buf, uri.ID, kind, app.ChartOptions{
		Column:   q.Column,
		TimeAxis: q.TimeAxis,
		Style:    domain.ChartStyle(q.Style),
		Format:   domain.ImageFormat(q.Format),
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// Report handles GET /datasets/:id/report.
func (h *DatasetHandler) Report(c *gin.Context) {
	uri, ok := bindDataset(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.reports.PDF(c.Request.Context(), &buf, uri.ID); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="eda_report_%s.pdf"`, uri.ID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// TextSummary handles GET /datasets/:id/summary.
func (h *DatasetHandler) TextSummary(c *gin.Context) {
	uri, ok := bindDataset(c)
	if !ok {
		return
	}

	text, err := h.reports.TextSummary(c.Request.Context(), uri.ID)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.String(http.StatusOK, text)
}

// Job handles GET /jobs/:id.
func (h *DatasetHandler) Job(c *gin.Context) {
	uri, ok := bindDataset(c)
	if !ok {
		return
	}

	job, err := h.datasets.Job(c.Request.Context(), uri.ID)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *DatasetHandler) created(c *gin.Context, ds *domain.Dataset) {
	summary, err := h.datasets.Summary(c.Request.Context(), ds.ID)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/datasets/"+ds.ID)
	c.JSON(http.StatusCreated, dto.NewDatasetResponse(ds, summary))
}

func bindDataset(c *gin.Context) (dto.DatasetURI, bool) {
	var uri dto.DatasetURI
	if err := dto.BindURIAndValidate(c, &uri); err != nil {
		dto.RespondWithBindingError(c, err)
		return uri, false
	}

	return uri, true
}

func bindColumn(c *gin.Context) (dto.ColumnURI, bool) {
	var uri dto.ColumnURI
	if err := dto.BindURIAndValidate(c, &uri); err != nil {
		dto.RespondWithBindingError(c, err)
		return uri, false
	}

	return uri, true
}

func readUpload(c *gin.Context) (domain.RawFile, error) {
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.RawFile{}, err
		}

		return domain.RawFile{}, errors.New(`multipart field "file" is required`)
	}

	data, err := readPart(header)
	if err != nil {
		return domain.RawFile{}, err
	}

	return domain.RawFile{Name: header.Filename, Data: data}, nil
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	return data, nil
}

package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/groweasy/analytics/internal/domain"
	"github.com/groweasy/analytics/internal/usecase"
)

// Export file names offered to the browser
const (
	SegmentationExportName = "segmented_customers.csv"
	InsightsExportName     = "customer_insights.csv"
)

// DefaultDatasetMessage is shown when neither an upload nor the bundled file is available
const DefaultDatasetMessage = "Default dataset not found. Please upload a CSV file."

// Handler holds dependencies for HTTP handlers
type Handler struct {
	datasets        *usecase.DatasetService
	segmentation    *usecase.SegmentationService
	insights        *usecase.InsightsService
	recommendations *usecase.RecommendationService
	charts          domain.ChartRenderer
	writer          domain.DatasetWriter
}

// NewHandler creates a new HTTP handler
func NewHandler(
	datasets *usecase.DatasetService,
	segmentation *usecase.SegmentationService,
	insights *usecase.InsightsService,
	recommendations *usecase.RecommendationService,
	charts domain.ChartRenderer,
	writer domain.DatasetWriter,
) *Handler {
	return &Handler{
		datasets:        datasets,
		segmentation:    segmentation,
		insights:        insights,
		recommendations: recommendations,
		charts:          charts,
		writer:          writer,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "groweasy-analytics",
		"version": "1.0.0",
	})
}

// UploadDataset stores a multipart CSV upload and returns its session id
func (h *Handler) UploadDataset(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a CSV file is required in the 'file' form field"})
		return
	}

	f, err := header.Open()
	if err != nil {
		log.Printf("[HTTP] Failed to open upload %s: %v", header.Filename, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}

	summary, err := h.datasets.Upload(c.Request.Context(), data)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

// DeleteDataset drops an uploaded dataset
func (h *Handler) DeleteDataset(c *gin.Context) {
	if err := h.datasets.Discard(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSegmentation runs clustering and returns the overview
func (h *Handler) GetSegmentation(c *gin.Context) {
	report, ok := h.runSegmentation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

// SegmentationScatter renders the first two numeric columns coloured by cluster
func (h *Handler) SegmentationScatter(c *gin.Context) {
	report, ok := h.segmentedReport(c)
	if !ok {
		return
	}
	spec, err := h.segmentation.ScatterSpec(report)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.renderPNG(c, func(w io.Writer) error { return h.charts.Scatter(w, spec) })
}

// SegmentationDistribution renders the number of rows per cluster
func (h *Handler) SegmentationDistribution(c *gin.Context) {
	report, ok := h.segmentedReport(c)
	if !ok {
		return
	}
	spec, err := h.segmentation.DistributionSpec(report)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.renderPNG(c, func(w io.Writer) error { return h.charts.Bars(w, spec) })
}

// ExportSegmentation downloads the dataset with its Cluster column
func (h *Handler) ExportSegmentation(c *gin.Context) {
	report, ok := h.segmentedReport(c)
	if !ok {
		return
	}
	h.sendCSV(c, SegmentationExportName, report.Clustered)
}

// GetInsights returns KPIs, chart data and recommendations for the selection
func (h *Handler) GetInsights(c *gin.Context) {
	report, ok := h.runInsights(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

// InsightsSalesByCity renders total sales per city
func (h *Handler) InsightsSalesByCity(c *gin.Context) {
	report, ok := h.runInsights(c)
	if !ok {
		return
	}
	spec, err := h.insights.SalesByCitySpec(report)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.renderPNG(c, func(w io.Writer) error { return h.charts.Bars(w, spec) })
}

// InsightsClusters renders the number of customers per cluster name
func (h *Handler) InsightsClusters(c *gin.Context) {
	report, ok := h.runInsights(c)
	if !ok {
		return
	}
	spec, err := h.insights.ClusterSizesSpec(report)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.renderPNG(c, func(w io.Writer) error { return h.charts.Bars(w, spec) })
}

// ExportInsights downloads the filtered rows
func (h *Handler) ExportInsights(c *gin.Context) {
	report, ok := h.runInsights(c)
	if !ok {
		return
	}
	h.sendCSV(c, InsightsExportName, report.Filtered)
}

// GetRecommendations looks up marketing tips for a segment
func (h *Handler) GetRecommendations(c *gin.Context) {
	segment := c.Query("segment")
	c.JSON(http.StatusOK, gin.H{
		"segment":         segment,
		"recommendations": h.recommendations.Lookup(segment),
	})
}

func (h *Handler) runSegmentation(c *gin.Context) (*domain.SegmentationReport, bool) {
	var req domain.SegmentationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "k must be an integer"})
		return nil, false
	}
	report, err := h.segmentation.Run(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return report, true
}

// segmentedReport is runSegmentation for endpoints that need cluster labels
func (h *Handler) segmentedReport(c *gin.Context) (*domain.SegmentationReport, bool) {
	report, ok := h.runSegmentation(c)
	if !ok {
		return nil, false
	}
	if !report.Segmented() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": report.Warning})
		return nil, false
	}
	return report, true
}

func (h *Handler) runInsights(c *gin.Context) (*domain.InsightsReport, bool) {
	var filter domain.InsightsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
		return nil, false
	}
	report, err := h.insights.Run(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return report, true
}

func (h *Handler) renderPNG(c *gin.Context, draw func(io.Writer) error) {
	var buf bytes.Buffer
	if err := draw(&buf); err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (h *Handler) sendCSV(c *gin.Context, filename string, ds *domain.Dataset) {
	var buf bytes.Buffer
	if err := h.writer.Write(&buf, ds); err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// writeError maps domain errors to HTTP status codes
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrDefaultDatasetMissing):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": DefaultDatasetMessage})
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "upload session not found or expired"})
	case errors.Is(err, domain.ErrUploadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidDataset),
		errors.Is(err, domain.ErrMissingColumns),
		errors.Is(err, domain.ErrNoChartData),
		domain.IsWarning(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

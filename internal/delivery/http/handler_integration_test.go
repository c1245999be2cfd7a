package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/groweasy/analytics/config"
	"github.com/groweasy/analytics/internal/domain"
	"github.com/groweasy/analytics/internal/infrastructure/cache"
	"github.com/groweasy/analytics/internal/infrastructure/charts"
	"github.com/groweasy/analytics/internal/infrastructure/csvstore"
	"github.com/groweasy/analytics/internal/infrastructure/recommendations"
	"github.com/groweasy/analytics/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const insightsCSV = `Customer_ID,outlet_city,cluster_name,Total_sales,luxury_sales
1,Colombo,Elite Spenders,1000,300
2,Kandy,Value Seekers,200,20
3,Colombo,Value Seekers,150,10
4,Galle,Elite Spenders,1200,400
5,Kandy,Elite Spenders,900,250
5,Kandy,Elite Spenders,100,50
`

// priceQuantityCSV builds a 100-row dataset with price in 10..1000 and quantity in 1..50
func priceQuantityCSV() string {
	var b strings.Builder
	b.WriteString("price,quantity\n")
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&b, "%.2f,%d\n", 10+float64(i)*9.9, 1+(i*7)%50)
	}
	return b.String()
}

type testEnv struct {
	router           *gin.Engine
	segmentationPath string
	insightsPath     string
}

// setupTestRouter wires the real services against default files in a temp dir.
// Empty contents leave the corresponding default file absent.
func setupTestRouter(t *testing.T, segmentationCSV, insightsData string, perIP int) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		segmentationPath: filepath.Join(dir, "df_scaled.csv"),
		insightsPath:     filepath.Join(dir, "clustered_customers.csv"),
	}
	if segmentationCSV != "" {
		if err := os.WriteFile(env.segmentationPath, []byte(segmentationCSV), 0644); err != nil {
			t.Fatalf("write segmentation default: %v", err)
		}
	}
	if insightsData != "" {
		if err := os.WriteFile(env.insightsPath, []byte(insightsData), 0644); err != nil {
			t.Fatalf("write insights default: %v", err)
		}
	}

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
		},
		Data: config.DataConfig{
			SegmentationPath: env.segmentationPath,
			InsightsPath:     env.insightsPath,
			MaxUploadBytes:   1 << 20,
		},
		Cache:     config.CacheConfig{Type: "memory", TTL: time.Hour},
		RateLimit: config.RateLimitConfig{PerIP: perIP},
	}

	memCache := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { memCache.Close() })
	store := csvstore.NewStore()

	datasets := usecase.NewDatasetService(memCache, store, usecase.DatasetServiceConfig{
		SegmentationPath: cfg.Data.SegmentationPath,
		InsightsPath:     cfg.Data.InsightsPath,
		SessionTTL:       cfg.Cache.TTL,
		MaxUploadBytes:   cfg.Data.MaxUploadBytes,
	})
	segCfg := usecase.DefaultSegmentationConfig()
	segmentation := usecase.NewSegmentationService(datasets, usecase.NewSegmenter(segCfg, nil), segCfg)
	recs := usecase.NewRecommendationService(recommendations.MustDefault())
	insights := usecase.NewInsightsService(datasets, recs)

	handler := NewHandler(datasets, segmentation, insights, recs, charts.NewRenderer(), store)
	env.router = SetupRouter(cfg, handler)
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest("GET", path, nil))
}

func (e *testEnv) upload(t *testing.T, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "customers.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/datasets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.do(req)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to unmarshal response: %v (body %s)", err, w.Body.String())
	}
}

func csvLines(body string) []string {
	return strings.Split(strings.TrimRight(body, "\n"), "\n")
}

func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		env := setupTestRouter(t, "", "", 0)

		w := env.get("/health")
		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		decode(t, w, &response)
		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "groweasy-analytics" {
			t.Errorf("service = %v, want groweasy-analytics", response["service"])
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		env := setupTestRouter(t, "", "", 0)

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := env.do(httptest.NewRequest(method, "/health", nil))
			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

func TestSegmentationEndpoints(t *testing.T) {
	t.Run("clusters the default dataset with k=4", func(t *testing.T) {
		env := setupTestRouter(t, priceQuantityCSV(), "", 0)

		w := env.get("/api/v1/segmentation?k=4")
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
		}

		var report domain.SegmentationReport
		decode(t, w, &report)
		if report.Source != domain.SourceDefault {
			t.Errorf("Source = %s, want %s", report.Source, domain.SourceDefault)
		}
		if report.Rows != 100 {
			t.Errorf("Rows = %d, want 100", report.Rows)
		}
		if len(report.Preview.Rows) != domain.PreviewRows {
			t.Errorf("Preview rows = %d, want %d", len(report.Preview.Rows), domain.PreviewRows)
		}
		if report.Warning != "" {
			t.Errorf("Warning = %q, want none", report.Warning)
		}
		total := 0
		for _, c := range report.Distribution {
			if c.Cluster < 0 || c.Cluster >= 4 {
				t.Errorf("cluster label %d outside [0, 4)", c.Cluster)
			}
			total += c.Count
		}
		if total != 100 {
			t.Errorf("distribution total = %d, want 100", total)
		}
	})

	t.Run("uses four clusters when k is omitted", func(t *testing.T) {
		env := setupTestRouter(t, priceQuantityCSV(), "", 0)

		var report domain.SegmentationReport
		decode(t, env.get("/api/v1/segmentation"), &report)
		if report.K != domain.DefaultClusters {
			t.Errorf("K = %d, want %d", report.K, domain.DefaultClusters)
		}
	})

	t.Run("export yields header plus one line per row with Cluster last", func(t *testing.T) {
		env := setupTestRouter(t, priceQuantityCSV(), "", 0)

		w := env.get("/api/v1/segmentation/export?k=4")
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
			t.Errorf("Content-Type = %s, want text/csv", ct)
		}
		if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, SegmentationExportName) {
			t.Errorf("Content-Disposition = %s, want %s", cd, SegmentationExportName)
		}

		lines := csvLines(w.Body.String())
		if len(lines) != 101 {
			t.Fatalf("lines = %d, want 101", len(lines))
		}
		if lines[0] != "price,quantity,Cluster" {
			t.Errorf("header = %s, want price,quantity,Cluster", lines[0])
		}
		allowed := map[string]bool{"0": true, "1": true, "2": true, "3": true}
		for i, line := range lines[1:] {
			fields := strings.Split(line, ",")
			if !allowed[fields[len(fields)-1]] {
				t.Errorf("row %d: Cluster = %s, want one of 0..3", i, fields[len(fields)-1])
			}
		}
	})

	t.Run("same input and k give identical exports", func(t *testing.T) {
		env := setupTestRouter(t, priceQuantityCSV(), "", 0)

		first := env.get("/api/v1/segmentation/export?k=3").Body.String()
		second := env.get("/api/v1/segmentation/export?k=3").Body.String()
		if first != second {
			t.Error("exports differ between identical runs")
		}
	})

	t.Run("renders charts as PNG", func(t *testing.T) {
		env := setupTestRouter(t, priceQuantityCSV(), "", 0)

		for _, path := range []string{"/api/v1/segmentation/scatter.png", "/api/v1/segmentation/distribution.png"} {
			w := env.get(path)
			if w.Code != http.StatusOK {
				t.Errorf("%s: Status = %d, want %d", path, w.Code, http.StatusOK)
				continue
			}
			if w.Header().Get("Content-Type") != "image/png" {
				t.Errorf("%s: Content-Type = %s, want image/png", path, w.Header().Get("Content-Type"))
			}
			if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
				t.Errorf("%s: body is not a PNG", path)
			}
		}
	})

	t.Run("rejects k outside 2..10", func(t *testing.T) {
		env := setupTestRouter(t, priceQuantityCSV(), "", 0)

		for _, k := range []string{"1", "11", "abc"} {
			w := env.get("/api/v1/segmentation?k=" + k)
			if w.Code != http.StatusBadRequest {
				t.Errorf("k=%s: Status = %d, want %d", k, w.Code, http.StatusBadRequest)
			}
		}
	})

	t.Run("reports missing default dataset", func(t *testing.T) {
		env := setupTestRouter(t, "", "", 0)

		w := env.get("/api/v1/segmentation")
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
		var response map[string]string
		decode(t, w, &response)
		if response["error"] != DefaultDatasetMessage {
			t.Errorf("error = %q, want %q", response["error"], DefaultDatasetMessage)
		}
	})
}

func TestUploadRoundTrip(t *testing.T) {
	t.Run("segments an uploaded file when the default is missing", func(t *testing.T) {
		env := setupTestRouter(t, "", "", 0)

		w := env.upload(t, priceQuantityCSV())
		if w.Code != http.StatusCreated {
			t.Fatalf("upload Status = %d, want %d (body %s)", w.Code, http.StatusCreated, w.Body.String())
		}
		var summary usecase.UploadSummary
		decode(t, w, &summary)
		if summary.SessionID == "" {
			t.Fatal("sessionId is empty")
		}
		if summary.Source != domain.SourceUploaded {
			t.Errorf("Source = %s, want %s", summary.Source, domain.SourceUploaded)
		}
		if summary.Rows != 100 || len(summary.Columns) != 2 {
			t.Errorf("summary = %d rows, %d columns, want 100 rows, 2 columns", summary.Rows, len(summary.Columns))
		}

		w = env.get("/api/v1/segmentation?k=2&session=" + summary.SessionID)
		if w.Code != http.StatusOK {
			t.Fatalf("segmentation Status = %d, want %d", w.Code, http.StatusOK)
		}
		var report domain.SegmentationReport
		decode(t, w, &report)
		if report.Source != domain.SourceUploaded {
			t.Errorf("Source = %s, want %s", report.Source, domain.SourceUploaded)
		}

		w = env.do(httptest.NewRequest("DELETE", "/api/v1/datasets/"+summary.SessionID, nil))
		if w.Code != http.StatusNoContent {
			t.Errorf("delete Status = %d, want %d", w.Code, http.StatusNoContent)
		}
		w = env.get("/api/v1/segmentation?session=" + summary.SessionID)
		if w.Code != http.StatusNotFound {
			t.Errorf("after delete Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("warns instead of failing with one numeric column", func(t *testing.T) {
		env := setupTestRouter(t, "", "", 0)

		w := env.upload(t, "name,price\na,1\nb,2\nc,3\n")
		var summary usecase.UploadSummary
		decode(t, w, &summary)

		w = env.get("/api/v1/segmentation?k=2&session=" + summary.SessionID)
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		var report domain.SegmentationReport
		decode(t, w, &report)
		if !strings.Contains(report.Warning, "at least two numeric columns") {
			t.Errorf("Warning = %q, want numeric column warning", report.Warning)
		}
		if len(report.Preview.Rows) != 3 {
			t.Errorf("Preview rows = %d, want 3", len(report.Preview.Rows))
		}

		w = env.get("/api/v1/segmentation/scatter.png?k=2&session=" + summary.SessionID)
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("scatter Status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
		}
	})

	t.Run("requires a file field", func(t *testing.T) {
		env := setupTestRouter(t, "", "", 0)

		w := env.do(httptest.NewRequest("POST", "/api/v1/datasets", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("unknown session is not found", func(t *testing.T) {
		env := setupTestRouter(t, priceQuantityCSV(), "", 0)

		w := env.do(httptest.NewRequest("DELETE", "/api/v1/datasets/does-not-exist", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestInsightsEndpoints(t *testing.T) {
	t.Run("filters by cluster and sums exactly those rows", func(t *testing.T) {
		env := setupTestRouter(t, "", insightsCSV, 0)

		q := url.Values{"city": {"All"}, "cluster": {"Elite Spenders"}}
		w := env.get("/api/v1/insights?" + q.Encode())
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
		}

		var report domain.InsightsReport
		decode(t, w, &report)
		if report.Rows != 4 {
			t.Errorf("Rows = %d, want 4", report.Rows)
		}
		if report.KPIs.TotalSales != 3200 {
			t.Errorf("TotalSales = %v, want 3200", report.KPIs.TotalSales)
		}
		if report.KPIs.AvgLuxurySales != 250 {
			t.Errorf("AvgLuxurySales = %v, want 250", report.KPIs.AvgLuxurySales)
		}
		if report.KPIs.UniqueCustomers != 3 {
			t.Errorf("UniqueCustomers = %d, want 3", report.KPIs.UniqueCustomers)
		}
		if report.KPIs.TopSegment != "Elite Spenders" {
			t.Errorf("TopSegment = %s, want Elite Spenders", report.KPIs.TopSegment)
		}
		if len(report.Options.Cities) != 3 {
			t.Errorf("city options = %v, want 3 cities", report.Options.Cities)
		}
		if len(report.Recommendations) != 4 {
			t.Errorf("recommendations = %d segments, want all 4", len(report.Recommendations))
		}
	})

	t.Run("combines city and cluster filters", func(t *testing.T) {
		env := setupTestRouter(t, "", insightsCSV, 0)

		q := url.Values{"city": {"Kandy"}, "cluster": {"Elite Spenders"}, "segment": {"Elite Spenders"}}
		var report domain.InsightsReport
		decode(t, env.get("/api/v1/insights?"+q.Encode()), &report)

		if report.Rows != 2 {
			t.Errorf("Rows = %d, want 2", report.Rows)
		}
		if report.KPIs.TotalSales != 1000 {
			t.Errorf("TotalSales = %v, want 1000", report.KPIs.TotalSales)
		}
		if report.KPIs.UniqueCustomers != 1 {
			t.Errorf("UniqueCustomers = %d, want 1", report.KPIs.UniqueCustomers)
		}
		if len(report.Recommendations) != 1 || report.Recommendations[0].Segment != "Elite Spenders" {
			t.Errorf("recommendations = %+v, want Elite Spenders only", report.Recommendations)
		}
	})

	t.Run("empty selection reports zeros and N/A", func(t *testing.T) {
		env := setupTestRouter(t, "", insightsCSV, 0)

		var report domain.InsightsReport
		decode(t, env.get("/api/v1/insights?city=Jaffna"), &report)

		if report.Rows != 0 {
			t.Errorf("Rows = %d, want 0", report.Rows)
		}
		want := domain.KPIs{TopSegment: domain.NoTopSegment}
		if report.KPIs != want {
			t.Errorf("KPIs = %+v, want %+v", report.KPIs, want)
		}
	})

	t.Run("exports the filtered rows", func(t *testing.T) {
		env := setupTestRouter(t, "", insightsCSV, 0)

		w := env.get("/api/v1/insights/export?city=Colombo")
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, InsightsExportName) {
			t.Errorf("Content-Disposition = %s, want %s", cd, InsightsExportName)
		}
		lines := csvLines(w.Body.String())
		if len(lines) != 3 {
			t.Fatalf("lines = %d, want 3", len(lines))
		}
		if lines[1] != "1,Colombo,Elite Spenders,1000,300" {
			t.Errorf("first row = %s", lines[1])
		}
	})

	t.Run("renders charts as PNG", func(t *testing.T) {
		env := setupTestRouter(t, "", insightsCSV, 0)

		for _, path := range []string{"/api/v1/insights/sales-by-city.png", "/api/v1/insights/clusters.png"} {
			w := env.get(path)
			if w.Code != http.StatusOK {
				t.Errorf("%s: Status = %d, want %d", path, w.Code, http.StatusOK)
				continue
			}
			if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
				t.Errorf("%s: body is not a PNG", path)
			}
		}
	})

	t.Run("chart of an empty selection is unprocessable", func(t *testing.T) {
		env := setupTestRouter(t, "", insightsCSV, 0)

		w := env.get("/api/v1/insights/clusters.png?city=Jaffna")
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
		}
	})

	t.Run("rejects datasets without the required columns", func(t *testing.T) {
		env := setupTestRouter(t, "", "price,quantity\n1,2\n", 0)

		w := env.get("/api/v1/insights")
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
		}
	})

	t.Run("reports missing default dataset", func(t *testing.T) {
		env := setupTestRouter(t, "", "", 0)

		w := env.get("/api/v1/insights")
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
	})
}

func TestRecommendationsEndpoint(t *testing.T) {
	env := setupTestRouter(t, "", "", 0)

	tests := []struct {
		name      string
		segment   string
		wantCount int
		wantTips  int
	}{
		{name: "all segments", segment: "All", wantCount: 4, wantTips: 3},
		{name: "known segment", segment: "Value Seekers", wantCount: 1, wantTips: 3},
		{name: "unknown segment", segment: "Night Owls", wantCount: 1, wantTips: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.get("/api/v1/recommendations?" + url.Values{"segment": {tt.segment}}.Encode())
			if w.Code != http.StatusOK {
				t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
			}
			var response struct {
				Recommendations []domain.Recommendation `json:"recommendations"`
			}
			decode(t, w, &response)
			if len(response.Recommendations) != tt.wantCount {
				t.Fatalf("recommendations = %d, want %d", len(response.Recommendations), tt.wantCount)
			}
			if got := len(response.Recommendations[0].Tips); got != tt.wantTips {
				t.Errorf("tips = %d, want %d", got, tt.wantTips)
			}
		})
	}
}

func TestRateLimitIntegration(t *testing.T) {
	env := setupTestRouter(t, "", "", 2)

	for i := 0; i < 2; i++ {
		if w := env.get("/api/v1/recommendations"); w.Code != http.StatusOK {
			t.Fatalf("request %d: Status = %d, want %d", i+1, w.Code, http.StatusOK)
		}
	}
	if w := env.get("/api/v1/recommendations"); w.Code != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w := env.get("/health"); w.Code != http.StatusOK {
		t.Errorf("health Status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestCORSIntegration(t *testing.T) {
	env := setupTestRouter(t, "", "", 0)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := env.do(req)

	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %s, want http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/groweasy/analytics/internal/domain"
)

// App identifies which dashboard a dataset is resolved for
type App string

const (
	AppSegmentation App = "segmentation"
	AppInsights     App = "insights"
)

// DatasetServiceConfig holds configuration for dataset loading and uploads
type DatasetServiceConfig struct {
	SegmentationPath string
	InsightsPath     string
	SessionTTL       time.Duration
	MaxUploadBytes   int64
}

// ColumnInfo describes one column of an uploaded dataset
type ColumnInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// UploadSummary is returned after a dataset upload
type UploadSummary struct {
	SessionID string         `json:"sessionId"`
	Source    string         `json:"source"`
	Rows      int            `json:"rows"`
	Columns   []ColumnInfo   `json:"columns"`
	Preview   domain.Preview `json:"preview"`
}

// DatasetService resolves the dataset for each interaction: an uploaded file
// when the caller names a session, otherwise the bundled default file.
type DatasetService struct {
	cache  domain.CacheRepository
	parser domain.DatasetParser
	cfg    DatasetServiceConfig
	newID  func() string
}

// NewDatasetService creates a new dataset service with dependencies
func NewDatasetService(cache domain.CacheRepository, parser domain.DatasetParser, cfg DatasetServiceConfig) *DatasetService {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = time.Hour
	}
	return &DatasetService{
		cache:  cache,
		parser: parser,
		cfg:    cfg,
		newID:  uuid.NewString,
	}
}

func uploadKey(id string) string {
	return "upload:" + id
}

// Upload validates the CSV and stores it under a new session id
func (s *DatasetService) Upload(ctx context.Context, data []byte) (*UploadSummary, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", domain.ErrInvalidRequest)
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", domain.ErrUploadTooLarge, len(data), s.cfg.MaxUploadBytes)
	}

	ds, err := s.parser.Parse(bytes.NewReader(data), domain.SourceUploaded)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	if err := s.cache.Set(ctx, uploadKey(id), data, s.cfg.SessionTTL); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	log.Printf("[DATA] Stored upload %s (%d rows, %d columns)", id, ds.Rows(), len(ds.Columns))

	cols := make([]ColumnInfo, len(ds.Columns))
	for i, col := range ds.Columns {
		cols[i] = ColumnInfo{Name: col.Name, Kind: col.Kind.String()}
	}
	return &UploadSummary{
		SessionID: id,
		Source:    ds.Source,
		Rows:      ds.Rows(),
		Columns:   cols,
		Preview:   ds.Preview(),
	}, nil
}

// Discard removes an uploaded dataset
func (s *DatasetService) Discard(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrInvalidRequest
	}
	exists, err := s.cache.Exists(ctx, uploadKey(sessionID))
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrSessionNotFound
	}
	return s.cache.Delete(ctx, uploadKey(sessionID))
}

// Resolve loads the dataset for one interaction
func (s *DatasetService) Resolve(ctx context.Context, sessionID string, app App) (*domain.Dataset, error) {
	if sessionID != "" {
		data, err := s.cache.Get(ctx, uploadKey(sessionID))
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, domain.ErrSessionNotFound
		}
		if err != nil {
			return nil, err
		}
		return s.parser.Parse(bytes.NewReader(data), domain.SourceUploaded)
	}

	path := s.defaultPath(app)
	ds, err := s.parser.ParseFile(path, domain.SourceDefault)
	if err != nil {
		log.Printf("[DATA] Default dataset %s unavailable: %v", path, err)
		return nil, fmt.Errorf("%w: %s", domain.ErrDefaultDatasetMissing, path)
	}
	return ds, nil
}

func (s *DatasetService) defaultPath(app App) string {
	if app == AppInsights {
		return s.cfg.InsightsPath
	}
	return s.cfg.SegmentationPath
}

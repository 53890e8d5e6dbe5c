package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"platform-common/core/telemetry"

	"go.uber.org/zap"
)

// Config holds the vector-collection service settings.
type Config struct {
	// Enabled toggles the feature.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// BaseURL is the vector service endpoint, e.g. http://vector-svc:8000.
	BaseURL string `mapstructure:"base_url" default:""`
	// TimeoutSeconds bounds each request to the vector service.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// CreateCollectionOptions tunes collection creation. The zero value is
// completed with DefaultCreateOptions; ClusterID and OrgID route the request
// to a dedicated cluster when set.
type CreateCollectionOptions struct {
	ShardCount             int
	EmbeddingDimension     int
	DistanceMetric         string
	StrictMode             bool
	ReplicationFactor      int
	WriteConsistencyFactor int
	ClusterID              string
	OrgID                  string
}

// DefaultCreateOptions returns the creation parameters used when the caller
// leaves them zero.
func DefaultCreateOptions() CreateCollectionOptions {
	return CreateCollectionOptions{
		ShardCount:             6,
		EmbeddingDimension:     1024,
		DistanceMetric:         "COSINE",
		ReplicationFactor:      2,
		WriteConsistencyFactor: 2,
	}
}

// Service is an HTTP client for the vector-collection service, which fronts
// the actual vector database. All parameters travel as query strings, the
// way the service expects them.
type Service struct {
	baseURL  string
	http     *http.Client
	logger   *zap.Logger
	reporter telemetry.Reporter
}

// NewService creates a vector-service client from cfg.
func NewService(cfg Config, logger *zap.Logger, reporter telemetry.Reporter) *Service {
	if logger == nil {
		logger = zap.L()
	}
	if reporter == nil {
		reporter = telemetry.NopReporter{}
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Service{
		baseURL:  cfg.BaseURL,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
		reporter: reporter,
	}
}

// call issues a request against path with the given query parameters and
// decodes the JSON response. Non-2xx responses and transport failures are
// telemetry-reported and returned as errors.
func (s *Service) call(ctx context.Context, method, path string, query url.Values) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build vector service request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		s.reporter.CaptureException(err)
		s.logger.Error("Vector service request failed",
			zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("vector service request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("vector service returned %d for %s: %s", resp.StatusCode, path, string(body))
		s.reporter.CaptureException(err)
		s.logger.Error("Vector service returned error status",
			zap.String("path", path), zap.Int("status", resp.StatusCode))
		return nil, err
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		s.reporter.CaptureException(err)
		return nil, fmt.Errorf("failed to decode vector service response from %s: %w", path, err)
	}
	return result, nil
}

// CreateCollection provisions a vector collection. Zero-valued option fields
// fall back to the service defaults.
func (s *Service) CreateCollection(ctx context.Context, name string, opts CreateCollectionOptions) (map[string]any, error) {
	defaults := DefaultCreateOptions()
	if opts.ShardCount == 0 {
		opts.ShardCount = defaults.ShardCount
	}
	if opts.EmbeddingDimension == 0 {
		opts.EmbeddingDimension = defaults.EmbeddingDimension
	}
	if opts.DistanceMetric == "" {
		opts.DistanceMetric = defaults.DistanceMetric
	}
	if opts.ReplicationFactor == 0 {
		opts.ReplicationFactor = defaults.ReplicationFactor
	}
	if opts.WriteConsistencyFactor == 0 {
		opts.WriteConsistencyFactor = defaults.WriteConsistencyFactor
	}

	query := url.Values{}
	query.Set("collection_name", name)
	query.Set("shard_count", strconv.Itoa(opts.ShardCount))
	query.Set("embedding_dimension", strconv.Itoa(opts.EmbeddingDimension))
	query.Set("distance_metric", opts.DistanceMetric)
	query.Set("strict_mode_enabled", strconv.FormatBool(opts.StrictMode))
	query.Set("replication_factor", strconv.Itoa(opts.ReplicationFactor))
	query.Set("write_consistency_factor", strconv.Itoa(opts.WriteConsistencyFactor))
	if opts.ClusterID != "" {
		query.Set("platform_cluster_id", opts.ClusterID)
	}
	if opts.OrgID != "" {
		query.Set("orgid", opts.OrgID)
	}

	s.logger.Info("Creating vector collection", zap.String("collection", name))
	return s.call(ctx, http.MethodPost, "/create-collection", query)
}

// DeleteCollection drops a vector collection. ClusterID and orgID are
// optional dedicated-cluster routing hints.
func (s *Service) DeleteCollection(ctx context.Context, name, orgID, clusterID string) (map[string]any, error) {
	query := url.Values{}
	query.Set("collection_name", name)
	if clusterID != "" {
		query.Set("platform_cluster_id", clusterID)
	}
	if orgID != "" {
		query.Set("orgid", orgID)
	}

	s.logger.Info("Deleting vector collection", zap.String("collection", name))
	return s.call(ctx, http.MethodDelete, "/delete-collection", query)
}

// DeletePointsByExternalID removes every point carrying externalID from a
// collection.
func (s *Service) DeletePointsByExternalID(ctx context.Context, collection, externalID, orgID, clusterID string) (map[string]any, error) {
	query := url.Values{}
	query.Set("collection_name", collection)
	query.Set("external_id", externalID)
	if clusterID != "" {
		query.Set("platform_cluster_id", clusterID)
	}
	if orgID != "" {
		query.Set("orgid", orgID)
	}

	s.logger.Info("Deleting vector points",
		zap.String("collection", collection), zap.String("external_id", externalID))
	return s.call(ctx, http.MethodDelete, "/delete-by-external-id", query)
}

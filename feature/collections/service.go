package collections

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"platform-common/core/metrics"
	"platform-common/core/storage"
	"platform-common/core/telemetry"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/tags"
	"go.uber.org/zap"
)

// DefaultPresignExpiry is the lifetime of presigned URLs when the caller
// does not specify one.
const DefaultPresignExpiry = time.Hour

const fallbackContentType = "application/octet-stream"

// Service is the object-storage collection client. It owns a bucket-scoped
// session and exposes object CRUD, tag CRUD with a merge invariant, and
// collection lifecycle operations built atop plain object keys.
//
// The client holds no cached state about object existence between calls;
// every read re-queries the store. The upload progress counters are the only
// mutable state, so a Service instance is not safe for concurrent use.
type Service struct {
	client   storage.Client
	bucket   string
	logger   *zap.Logger
	reporter telemetry.Reporter

	// Content-type sniffing capability, resolved once at construction.
	sniffContent bool

	// Upload progress bookkeeping for the optional progress callback.
	total      int64
	uploaded   int64
	onProgress func(uploaded, total int64)
}

// Option customizes a Service at construction time.
type Option func(*Service)

// WithoutContentSniffing disables content-type detection from file contents.
// Uploads without an explicit content type then fall back to a generic one.
func WithoutContentSniffing() Option {
	return func(s *Service) { s.sniffContent = false }
}

// WithProgress installs a callback invoked as upload bytes are transferred.
func WithProgress(fn func(uploaded, total int64)) Option {
	return func(s *Service) { s.onProgress = fn }
}

// NewService creates a collection client scoped to the given bucket.
// No network call is made here; the first operation opens the connection.
func NewService(client storage.Client, bucket string, logger *zap.Logger, reporter telemetry.Reporter, opts ...Option) *Service {
	if logger == nil {
		logger = zap.L()
	}
	if reporter == nil {
		reporter = telemetry.NopReporter{}
	}

	s := &Service{
		client:       client,
		bucket:       bucket,
		logger:       logger,
		reporter:     reporter,
		sniffContent: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// storeErr reports a transport failure to telemetry (fire-and-forget) and
// wraps it for the caller. Every remote failure funnels through here.
func (s *Service) storeErr(op, key string, err error) error {
	s.reporter.CaptureException(err)
	return &StorageError{Op: op, Key: key, Err: err}
}

// Exists issues a metadata-only lookup for key. It returns ok=false exactly
// when the store reports not-found; any other transport error is returned.
func (s *Service) Exists(ctx context.Context, key string) (ObjectMeta, bool, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	metrics.RecordStorageOperation("stat", err)
	if err != nil {
		if storage.IsNotFound(err) {
			return ObjectMeta{}, false, nil
		}
		return ObjectMeta{}, false, s.storeErr("stat", key, err)
	}

	return ObjectMeta{
		Key:          key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
		Metadata:     info.UserMetadata,
	}, true, nil
}

// Upload streams the local file at filePath to key. When contentType is empty
// it is detected from the file contents if sniffing is available, otherwise a
// generic type is used. Metadata and tags are attached to the object.
func (s *Service) Upload(ctx context.Context, key, filePath, contentType string, metadata map[string]string, objectTags []Tag) error {
	if err := validateTagSet(objectTags); err != nil {
		return err
	}

	stat, err := os.Stat(filePath)
	if err != nil {
		return s.storeErr("upload", key, err)
	}
	s.total = stat.Size()
	s.uploaded = 0

	if contentType == "" {
		contentType = s.detectContentType(filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return s.storeErr("upload", key, err)
	}
	defer file.Close()

	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	}
	if len(objectTags) > 0 {
		opts.UserTags = tagsToMap(objectTags)
	}

	var reader io.Reader = file
	if s.onProgress != nil {
		reader = &countingReader{r: file, svc: s}
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, reader, stat.Size(), opts)
	metrics.RecordStorageOperation("put", err)
	if err != nil {
		return s.storeErr("upload", key, err)
	}

	s.logger.Info("Uploaded object",
		zap.String("key", key),
		zap.Int64("size", stat.Size()),
		zap.String("content_type", contentType))
	return nil
}

// detectContentType sniffs the file's content type, degrading to a generic
// type with a warning instead of failing the upload.
func (s *Service) detectContentType(filePath string) string {
	if !s.sniffContent {
		s.logger.Debug("Content sniffing disabled, using fallback content type",
			zap.String("file", filePath))
		return fallbackContentType
	}

	mime, err := mimetype.DetectFile(filePath)
	if err != nil {
		s.logger.Warn("Content-type detection failed, using fallback",
			zap.String("file", filePath), zap.Error(err))
		return fallbackContentType
	}
	return mime.String()
}

// Download fetches key into destDir, deriving the local filename from the
// last path segment. It returns NotFoundError without attempting the
// transfer when the object does not exist.
func (s *Service) Download(ctx context.Context, key, destDir string) (string, error) {
	_, ok, err := s.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &NotFoundError{Key: key}
	}

	localPath := filepath.Join(destDir, path.Base(key))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", s.storeErr("download", key, err)
	}

	err = s.client.FGetObject(ctx, s.bucket, key, localPath, minio.GetObjectOptions{})
	metrics.RecordStorageOperation("get", err)
	if err != nil {
		return "", s.storeErr("download", key, err)
	}

	s.logger.Info("Downloaded object", zap.String("key", key), zap.String("path", localPath))
	return localPath, nil
}

// Open returns a streaming reader for key together with its metadata.
// Like Download it refuses with NotFoundError before touching the payload.
func (s *Service) Open(ctx context.Context, key string) (io.ReadCloser, ObjectMeta, error) {
	meta, ok, err := s.Exists(ctx, key)
	if err != nil {
		return nil, ObjectMeta{}, err
	}
	if !ok {
		return nil, ObjectMeta{}, &NotFoundError{Key: key}
	}

	rc, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	metrics.RecordStorageOperation("get", err)
	if err != nil {
		return nil, ObjectMeta{}, s.storeErr("open", key, err)
	}
	return rc, meta, nil
}

// PresignedURL generates a time-limited read URL for key. When asDownload is
// set, the URL forces a "Save As" disposition in the browser. This operation
// is best-effort: failures are logged and an empty URL returned.
func (s *Service) PresignedURL(ctx context.Context, key string, expiry time.Duration, asDownload bool) string {
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}

	reqParams := make(url.Values)
	if asDownload {
		reqParams.Set("response-content-disposition", "attachment")
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, reqParams)
	metrics.RecordStorageOperation("presign", err)
	if err != nil {
		s.logger.Error("Failed to presign object URL", zap.String("key", key), zap.Error(err))
		return ""
	}
	return u.String()
}

// ListObjects lists every object under prefix, excluding collection markers.
// Each entry is enriched best-effort with content type, custom metadata and
// tags; enrichment failures substitute safe defaults rather than failing the
// listing.
func (s *Service) ListObjects(ctx context.Context, prefix string) ([]ObjectSummary, error) {
	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: true}

	summaries := make([]ObjectSummary, 0)
	for info := range s.client.ListObjects(ctx, s.bucket, opts) {
		if info.Err != nil {
			metrics.RecordStorageOperation("list", info.Err)
			return nil, s.storeErr("list", prefix, info.Err)
		}

		filename := path.Base(info.Key)
		if filename == MarkerFilename {
			continue
		}

		contentType := "unknown"
		metadata := map[string]string{}
		if head, err := s.client.StatObject(ctx, s.bucket, info.Key, minio.StatObjectOptions{}); err == nil {
			if head.ContentType != "" {
				contentType = head.ContentType
			}
			if head.UserMetadata != nil {
				metadata = head.UserMetadata
			}
		} else {
			s.logger.Warn("Failed to stat object during listing",
				zap.String("key", info.Key), zap.Error(err))
		}

		objTags := map[string]string{}
		if t, err := s.client.GetObjectTagging(ctx, s.bucket, info.Key, minio.GetObjectTaggingOptions{}); err == nil {
			objTags = t.ToMap()
		} else {
			s.logger.Warn("Failed to fetch tags for object",
				zap.String("key", info.Key), zap.Error(err))
		}

		summaries = append(summaries, ObjectSummary{
			Key:             info.Key,
			Filename:        filename,
			Size:            info.Size,
			SizeMB:          math.Round(float64(info.Size)/1024/1024*100) / 100,
			LastModified:    info.LastModified.Format(time.RFC3339),
			ContentType:     contentType,
			Metadata:        metadata,
			UploadTimestamp: lookupMetadata(metadata, "upload-timestamp"),
			StorageURI:      fmt.Sprintf("s3://%s/%s", s.bucket, info.Key),
			Tags:            objTags,
		})
	}
	metrics.RecordStorageOperation("list", nil)

	return summaries, nil
}

// DeleteObject removes a single object.
func (s *Service) DeleteObject(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	metrics.RecordStorageOperation("remove", err)
	if err != nil {
		s.logger.Error("Failed to delete object", zap.String("key", key), zap.Error(err))
		return s.storeErr("delete", key, err)
	}

	s.logger.Info("Deleted object", zap.String("key", key))
	return nil
}

// CollectionPrefix returns the storage prefix for a collection. The name is
// lower-cased, so collections are case-insensitive regardless of how callers
// spell them. Every operation that addresses a collection by name goes
// through this.
func CollectionPrefix(orgID, collection string) string {
	return fmt.Sprintf("%s/%s", orgID, strings.ToLower(collection))
}

// CreateCollection establishes the logical namespace {orgID}/{name} by
// writing a marker object with embedded provenance. Re-creating an existing
// collection overwrites its marker.
func (s *Service) CreateCollection(ctx context.Context, orgID, collection string) (string, error) {
	prefix := CollectionPrefix(orgID, collection)
	markerKey := prefix + "/" + MarkerFilename
	now := time.Now().UTC().Format(time.RFC3339)

	body := fmt.Sprintf("Collection: %s\nCreated: %s\nOrganization: %s", collection, now, orgID)
	opts := minio.PutObjectOptions{
		ContentType: "text/plain",
		UserMetadata: map[string]string{
			"collection-name":   collection,
			"organization-id":   orgID,
			"created-timestamp": now,
			"type":              "collection-info",
		},
	}

	_, err := s.client.PutObject(ctx, s.bucket, markerKey, strings.NewReader(body), int64(len(body)), opts)
	metrics.RecordStorageOperation("put", err)
	if err != nil {
		s.logger.Error("Failed to create collection",
			zap.String("org_id", orgID), zap.String("collection", collection), zap.Error(err))
		return "", s.storeErr("create collection", markerKey, err)
	}

	s.logger.Info("Created collection", zap.String("org_id", orgID), zap.String("prefix", prefix))
	return prefix, nil
}

// DeleteCollection removes every object under prefix, marker included, via
// bulk delete. A collection with zero objects deletes nothing and returns an
// empty result; the bulk-delete call is skipped entirely.
func (s *Service) DeleteCollection(ctx context.Context, prefix string) (DeleteCollectionResult, error) {
	result := DeleteCollectionResult{Prefix: prefix, DeletedKeys: []string{}}

	var listed []minio.ObjectInfo
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			metrics.RecordStorageOperation("list", info.Err)
			return result, s.storeErr("delete collection", prefix, info.Err)
		}
		listed = append(listed, info)
	}

	if len(listed) == 0 {
		s.logger.Info("Collection already empty", zap.String("prefix", prefix))
		return result, nil
	}

	objectsCh := make(chan minio.ObjectInfo, len(listed))
	for _, info := range listed {
		objectsCh <- info
	}
	close(objectsCh)

	failed := make(map[string]bool)
	for removeErr := range s.client.RemoveObjects(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		s.logger.Warn("Failed to delete object during collection removal",
			zap.String("key", removeErr.ObjectName), zap.Error(removeErr.Err))
		s.reporter.CaptureException(removeErr.Err)
		failed[removeErr.ObjectName] = true
	}
	metrics.RecordStorageOperation("remove_bulk", nil)

	for _, info := range listed {
		if !failed[info.Key] {
			result.DeletedKeys = append(result.DeletedKeys, info.Key)
		}
	}
	result.Count = len(result.DeletedKeys)

	s.logger.Info("Deleted collection",
		zap.String("prefix", prefix), zap.Int("deleted", result.Count))
	return result, nil
}

// ListCollections returns the names of the immediate child prefixes under
// {orgID}/ using delimiter grouping. Any first-level prefix counts as a
// collection; markers are not verified.
func (s *Service) ListCollections(ctx context.Context, orgID string) ([]string, error) {
	prefix := orgID + "/"
	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: false}

	names := make([]string, 0)
	for info := range s.client.ListObjects(ctx, s.bucket, opts) {
		if info.Err != nil {
			metrics.RecordStorageOperation("list", info.Err)
			return nil, s.storeErr("list collections", prefix, info.Err)
		}
		// Delimiter grouping surfaces child prefixes as keys with a
		// trailing slash; plain objects directly under the org are not
		// collections.
		if !strings.HasSuffix(info.Key, "/") {
			continue
		}
		names = append(names, path.Base(strings.TrimSuffix(info.Key, "/")))
	}
	metrics.RecordStorageOperation("list", nil)

	return names, nil
}

// GetTags fetches the object's tag set flattened to a key/value mapping.
// A missing key surfaces as a generic storage error, matching the store's
// own behavior for tagging reads.
func (s *Service) GetTags(ctx context.Context, key string) (map[string]string, error) {
	t, err := s.client.GetObjectTagging(ctx, s.bucket, key, minio.GetObjectTaggingOptions{})
	metrics.RecordStorageOperation("get_tags", err)
	if err != nil {
		s.logger.Error("Failed to get tags", zap.String("key", key), zap.Error(err))
		return nil, s.storeErr("get tags", key, err)
	}
	return t.ToMap(), nil
}

// PutTags replaces the object's entire tag set. The set is validated locally
// (unique keys, at most MaxTags entries) before any write is issued.
func (s *Service) PutTags(ctx context.Context, key string, objectTags []Tag) error {
	if err := validateTagSet(objectTags); err != nil {
		return err
	}

	t, err := tags.NewTags(tagsToMap(objectTags), true)
	if err != nil {
		return &ValidationError{Message: fmt.Sprintf("invalid tag set for %q: %v", key, err)}
	}

	err = s.client.PutObjectTagging(ctx, s.bucket, key, t, minio.PutObjectTaggingOptions{})
	metrics.RecordStorageOperation("put_tags", err)
	if err != nil {
		s.logger.Error("Failed to set tags", zap.String("key", key), zap.Error(err))
		return s.storeErr("put tags", key, err)
	}

	s.logger.Info("Set tags on object", zap.String("key", key), zap.Int("count", len(objectTags)))
	return nil
}

// AppendTags merges newTags into the object's existing tag set. Existing tags
// whose key appears in excludeKeys or in newTags are dropped first, so new
// values win and keys stay unique. The combined set is validated against
// MaxTags before any write; a fetch failure degrades to treating the existing
// set as empty rather than failing the call.
func (s *Service) AppendTags(ctx context.Context, key string, newTags []Tag, excludeKeys []string) error {
	if err := validateTagSet(newTags); err != nil {
		return err
	}

	var merged []Tag
	existing, err := s.client.GetObjectTagging(ctx, s.bucket, key, minio.GetObjectTaggingOptions{})
	metrics.RecordStorageOperation("get_tags", err)
	if err != nil {
		s.logger.Warn("Failed to fetch existing tags, using only new tags",
			zap.String("key", key), zap.Error(err))
		merged = newTags
	} else {
		excluded := make(map[string]bool, len(excludeKeys)+len(newTags))
		for _, k := range excludeKeys {
			excluded[k] = true
		}
		for _, t := range newTags {
			excluded[t.Key] = true
		}

		// Map iteration order is random; sort surviving keys so repeated
		// merges write the set deterministically.
		existingMap := existing.ToMap()
		keys := make([]string, 0, len(existingMap))
		for k := range existingMap {
			if !excluded[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		for _, k := range keys {
			merged = append(merged, Tag{Key: k, Value: existingMap[k]})
		}
		merged = append(merged, newTags...)
	}

	// The ceiling check runs on both the normal and the fallback path,
	// before any write reaches the store.
	if len(merged) > MaxTags {
		msg := fmt.Sprintf("total number of tags (%d) would exceed the limit of %d tags per object for %q",
			len(merged), MaxTags, key)
		s.logger.Error(msg)
		return &ValidationError{Message: msg}
	}

	if err := s.PutTags(ctx, key, merged); err != nil {
		return err
	}

	s.logger.Info("Appended tags to object", zap.String("key", key), zap.Int("total", len(merged)))
	return nil
}

// validateTagSet rejects duplicate keys or sets beyond the store's ceiling.
func validateTagSet(objectTags []Tag) error {
	if len(objectTags) > MaxTags {
		return &ValidationError{
			Message: fmt.Sprintf("tag set has %d entries, exceeding the limit of %d", len(objectTags), MaxTags),
		}
	}

	seen := make(map[string]bool, len(objectTags))
	for _, t := range objectTags {
		if seen[t.Key] {
			return &ValidationError{Message: fmt.Sprintf("duplicate tag key %q", t.Key)}
		}
		seen[t.Key] = true
	}
	return nil
}

func tagsToMap(objectTags []Tag) map[string]string {
	m := make(map[string]string, len(objectTags))
	for _, t := range objectTags {
		m[t.Key] = t.Value
	}
	return m
}

// lookupMetadata finds a metadata value regardless of the header-style key
// casing the store returns.
func lookupMetadata(metadata map[string]string, key string) string {
	for k, v := range metadata {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// countingReader forwards reads while tracking upload progress.
type countingReader struct {
	r   io.Reader
	svc *Service
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.svc.uploaded += int64(n)
		if c.svc.onProgress != nil && c.svc.total > 0 {
			c.svc.onProgress(c.svc.uploaded, c.svc.total)
		}
	}
	return n, err
}

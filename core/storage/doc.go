// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client to provide a simplified interface for common operations
// like metadata lookups, uploads, presigned URLs, and object tagging. This abstraction
// supports both AWS S3 and self-hosted MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (as seen in core/storage/mocks).
//
// # Operations
//
//   - BucketExists: Verifies access to the target bucket.
//   - StatObject: Metadata-only existence check (HEAD).
//   - PutObject: Uploads content from a reader.
//   - GetObject / FGetObject: Retrieves content as a stream or to a local file.
//   - PresignedGetObject: Generates time-limited read URLs.
//   - ListObjects: Lists objects (supports prefix and delimiter grouping).
//   - RemoveObject / RemoveObjects: Single and bulk deletion.
//   - GetObjectTagging / PutObjectTagging: Object tag set access.
//
// # Not-Found Detection
//
// IsNotFound distinguishes the service's not-found condition from other
// transport errors, so callers can treat absence as a value instead of a
// failure.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	info, err := client.StatObject(ctx, "collections", "org1/docs/report.pdf", minio.StatObjectOptions{})
package storage

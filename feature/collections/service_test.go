package collections_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"platform-common/core/storage/mocks"
	"platform-common/core/telemetry"
	"platform-common/feature/collections"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/tags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func notFoundErr() error {
	return minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}
}

func objChan(infos ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(infos))
	for _, info := range infos {
		ch <- info
	}
	close(ch)
	return ch
}

func removeErrChan(errs ...minio.RemoveObjectError) <-chan minio.RemoveObjectError {
	ch := make(chan minio.RemoveObjectError, len(errs))
	for _, e := range errs {
		ch <- e
	}
	close(ch)
	return ch
}

func mustTags(t *testing.T, m map[string]string) *tags.Tags {
	t.Helper()
	tg, err := tags.NewTags(m, true)
	assert.NoError(t, err)
	return tg
}

func TestExists(t *testing.T) {
	logger := zap.NewNop()

	t.Run("found", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("StatObject", mock.Anything, "collections", "org/docs/a.pdf", mock.Anything).
			Return(minio.ObjectInfo{Size: 42, ContentType: "application/pdf", ETag: "abc"}, nil)

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		meta, ok, err := svc.Exists(context.Background(), "org/docs/a.pdf")
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(42), meta.Size)
		assert.Equal(t, "application/pdf", meta.ContentType)
		assert.Equal(t, "org/docs/a.pdf", meta.Key)
	})

	t.Run("not found is not an error", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("StatObject", mock.Anything, "collections", "org/docs/missing", mock.Anything).
			Return(minio.ObjectInfo{}, notFoundErr())

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		_, ok, err := svc.Exists(context.Background(), "org/docs/missing")
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("transport error is reported and wrapped", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("StatObject", mock.Anything, "collections", "org/docs/a.pdf", mock.Anything).
			Return(minio.ObjectInfo{}, errors.New("connection refused"))

		reporter := &telemetry.RecordingReporter{}
		svc := collections.NewService(mockClient, "collections", logger, reporter)
		_, _, err := svc.Exists(context.Background(), "org/docs/a.pdf")

		var se *collections.StorageError
		assert.ErrorAs(t, err, &se)
		assert.Equal(t, "stat", se.Op)
		assert.Len(t, reporter.Errors, 1)
	})
}

func TestUpload(t *testing.T) {
	logger := zap.NewNop()

	writeTemp := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "upload.txt")
		assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("uploads with explicit content type", func(t *testing.T) {
		path := writeTemp(t, "hello world")

		mockClient := new(mocks.Client)
		mockClient.On("PutObject", mock.Anything, "collections", "org/docs/upload.txt",
			mock.Anything, int64(11), mock.MatchedBy(func(opts minio.PutObjectOptions) bool {
				return opts.ContentType == "text/csv" && opts.UserMetadata["owner"] == "tester"
			})).Return(minio.UploadInfo{}, nil)

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		err := svc.Upload(context.Background(), "org/docs/upload.txt", path, "text/csv",
			map[string]string{"owner": "tester"}, nil)
		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("sniffs content type when empty", func(t *testing.T) {
		path := writeTemp(t, "plain text content")

		mockClient := new(mocks.Client)
		mockClient.On("PutObject", mock.Anything, "collections", "org/docs/upload.txt",
			mock.Anything, mock.Anything, mock.MatchedBy(func(opts minio.PutObjectOptions) bool {
				return strings.HasPrefix(opts.ContentType, "text/plain")
			})).Return(minio.UploadInfo{}, nil)

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		err := svc.Upload(context.Background(), "org/docs/upload.txt", path, "", nil, nil)
		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("falls back when sniffing disabled", func(t *testing.T) {
		path := writeTemp(t, "plain text content")

		mockClient := new(mocks.Client)
		mockClient.On("PutObject", mock.Anything, "collections", "org/docs/upload.txt",
			mock.Anything, mock.Anything, mock.MatchedBy(func(opts minio.PutObjectOptions) bool {
				return opts.ContentType == "application/octet-stream"
			})).Return(minio.UploadInfo{}, nil)

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{},
			collections.WithoutContentSniffing())
		err := svc.Upload(context.Background(), "org/docs/upload.txt", path, "", nil, nil)
		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("rejects oversized tag set before any write", func(t *testing.T) {
		path := writeTemp(t, "hello")

		var tooMany []collections.Tag
		for i := 0; i < collections.MaxTags+1; i++ {
			tooMany = append(tooMany, collections.Tag{Key: "k" + string(rune('a'+i)), Value: "v"})
		}

		mockClient := new(mocks.Client)
		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		err := svc.Upload(context.Background(), "org/docs/upload.txt", path, "text/plain", nil, tooMany)
		assert.True(t, collections.IsValidation(err))
		mockClient.AssertNotCalled(t, "PutObject",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("reports progress", func(t *testing.T) {
		path := writeTemp(t, "hello world")

		mockClient := new(mocks.Client)
		mockClient.On("PutObject", mock.Anything, "collections", "org/docs/upload.txt",
			mock.Anything, int64(11), mock.Anything).
			Run(func(args mock.Arguments) {
				reader := args.Get(3).(io.Reader)
				buf := make([]byte, 64)
				for {
					if _, err := reader.Read(buf); err != nil {
						break
					}
				}
			}).Return(minio.UploadInfo{}, nil)

		var lastUploaded, lastTotal int64
		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{},
			collections.WithProgress(func(uploaded, total int64) {
				lastUploaded, lastTotal = uploaded, total
			}))
		err := svc.Upload(context.Background(), "org/docs/upload.txt", path, "text/plain", nil, nil)
		assert.NoError(t, err)
		assert.Equal(t, int64(11), lastUploaded)
		assert.Equal(t, int64(11), lastTotal)
	})
}

func TestDownload(t *testing.T) {
	logger := zap.NewNop()

	t.Run("missing object refuses before transfer", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("StatObject", mock.Anything, "collections", "org/docs/missing", mock.Anything).
			Return(minio.ObjectInfo{}, notFoundErr())

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		_, err := svc.Download(context.Background(), "org/docs/missing", t.TempDir())

		var nf *collections.NotFoundError
		assert.ErrorAs(t, err, &nf)
		assert.Equal(t, "org/docs/missing", nf.Key)
		mockClient.AssertNotCalled(t, "FGetObject",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("downloads to destination dir", func(t *testing.T) {
		destDir := t.TempDir()
		wantPath := filepath.Join(destDir, "a.pdf")

		mockClient := new(mocks.Client)
		mockClient.On("StatObject", mock.Anything, "collections", "org/docs/a.pdf", mock.Anything).
			Return(minio.ObjectInfo{Size: 42}, nil)
		mockClient.On("FGetObject", mock.Anything, "collections", "org/docs/a.pdf", wantPath, mock.Anything).
			Return(nil)

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		localPath, err := svc.Download(context.Background(), "org/docs/a.pdf", destDir)
		assert.NoError(t, err)
		assert.Equal(t, wantPath, localPath)
		mockClient.AssertExpectations(t)
	})
}

func TestPresignedURL(t *testing.T) {
	logger := zap.NewNop()

	t.Run("returns url with attachment disposition", func(t *testing.T) {
		signed, _ := url.Parse("https://store.example.com/collections/org/docs/a.pdf?X-Amz-Signature=abc")

		mockClient := new(mocks.Client)
		mockClient.On("PresignedGetObject", mock.Anything, "collections", "org/docs/a.pdf",
			collections.DefaultPresignExpiry, mock.MatchedBy(func(params url.Values) bool {
				return params.Get("response-content-disposition") == "attachment"
			})).Return(signed, nil)

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		got := svc.PresignedURL(context.Background(), "org/docs/a.pdf", 0, true)
		assert.Equal(t, signed.String(), got)
	})

	t.Run("failure yields empty url, not an error", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("PresignedGetObject", mock.Anything, "collections", "org/docs/a.pdf",
			time.Minute, mock.Anything).Return(nil, errors.New("signing failed"))

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		got := svc.PresignedURL(context.Background(), "org/docs/a.pdf", time.Minute, false)
		assert.Empty(t, got)
	})
}

func TestCollectionPrefix(t *testing.T) {
	assert.Equal(t, "org-1/reports", collections.CollectionPrefix("org-1", "Reports"))
	assert.Equal(t, "org-1/reports", collections.CollectionPrefix("org-1", "reports"))
	assert.Equal(t, "ORG-1/reports", collections.CollectionPrefix("ORG-1", "REPORTS"))
}

func TestCreateCollection(t *testing.T) {
	logger := zap.NewNop()

	mockClient := new(mocks.Client)
	mockClient.On("PutObject", mock.Anything, "collections", "org-1/reports/.collection_info",
		mock.Anything, mock.Anything, mock.MatchedBy(func(opts minio.PutObjectOptions) bool {
			return opts.ContentType == "text/plain" &&
				opts.UserMetadata["collection-name"] == "Reports" &&
				opts.UserMetadata["organization-id"] == "org-1" &&
				opts.UserMetadata["type"] == "collection-info"
		})).Return(minio.UploadInfo{}, nil)

	svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
	prefix, err := svc.CreateCollection(context.Background(), "org-1", "Reports")
	assert.NoError(t, err)
	assert.Equal(t, "org-1/reports", prefix, "collection names are lower-cased")
	mockClient.AssertExpectations(t)
}

func TestDeleteCollection(t *testing.T) {
	logger := zap.NewNop()

	t.Run("empty collection skips bulk delete", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("ListObjects", mock.Anything, "collections", mock.Anything).
			Return(objChan())

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		result, err := svc.DeleteCollection(context.Background(), "org-1/empty")
		assert.NoError(t, err)
		assert.Equal(t, 0, result.Count)
		assert.Empty(t, result.DeletedKeys)
		mockClient.AssertNotCalled(t, "RemoveObjects",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deletes marker and objects", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("ListObjects", mock.Anything, "collections", mock.Anything).
			Return(objChan(
				minio.ObjectInfo{Key: "org-1/docs/.collection_info"},
				minio.ObjectInfo{Key: "org-1/docs/a.pdf"},
				minio.ObjectInfo{Key: "org-1/docs/b.pdf"},
			))
		mockClient.On("RemoveObjects", mock.Anything, "collections", mock.Anything, mock.Anything).
			Return(removeErrChan())

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		result, err := svc.DeleteCollection(context.Background(), "org-1/docs")
		assert.NoError(t, err)
		assert.Equal(t, 3, result.Count)
		assert.Contains(t, result.DeletedKeys, "org-1/docs/.collection_info")
	})

	t.Run("partial failures drop keys from result", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("ListObjects", mock.Anything, "collections", mock.Anything).
			Return(objChan(
				minio.ObjectInfo{Key: "org-1/docs/a.pdf"},
				minio.ObjectInfo{Key: "org-1/docs/b.pdf"},
			))
		mockClient.On("RemoveObjects", mock.Anything, "collections", mock.Anything, mock.Anything).
			Return(removeErrChan(minio.RemoveObjectError{
				ObjectName: "org-1/docs/b.pdf",
				Err:        errors.New("access denied"),
			}))

		reporter := &telemetry.RecordingReporter{}
		svc := collections.NewService(mockClient, "collections", logger, reporter)
		result, err := svc.DeleteCollection(context.Background(), "org-1/docs")
		assert.NoError(t, err)
		assert.Equal(t, []string{"org-1/docs/a.pdf"}, result.DeletedKeys)
		assert.Len(t, reporter.Errors, 1)
	})
}

func TestListObjects(t *testing.T) {
	logger := zap.NewNop()

	t.Run("excludes markers and enriches entries", func(t *testing.T) {
		modified := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

		mockClient := new(mocks.Client)
		mockClient.On("ListObjects", mock.Anything, "collections", mock.Anything).
			Return(objChan(
				minio.ObjectInfo{Key: "org-1/docs/.collection_info", Size: 64},
				minio.ObjectInfo{Key: "org-1/docs/a.pdf", Size: 2 * 1024 * 1024, LastModified: modified},
			))
		mockClient.On("StatObject", mock.Anything, "collections", "org-1/docs/a.pdf", mock.Anything).
			Return(minio.ObjectInfo{
				ContentType:  "application/pdf",
				UserMetadata: map[string]string{"Upload-Timestamp": "2025-03-14T09:29:00Z"},
			}, nil)
		mockClient.On("GetObjectTagging", mock.Anything, "collections", "org-1/docs/a.pdf", mock.Anything).
			Return(mustTags(t, map[string]string{"source": "scanner"}), nil)

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		objects, err := svc.ListObjects(context.Background(), "org-1/docs/")
		assert.NoError(t, err)
		assert.Len(t, objects, 1)

		obj := objects[0]
		assert.Equal(t, "a.pdf", obj.Filename)
		assert.Equal(t, 2.0, obj.SizeMB)
		assert.Equal(t, "application/pdf", obj.ContentType)
		assert.Equal(t, "2025-03-14T09:30:00Z", obj.LastModified)
		assert.Equal(t, "2025-03-14T09:29:00Z", obj.UploadTimestamp)
		assert.Equal(t, "s3://collections/org-1/docs/a.pdf", obj.StorageURI)
		assert.Equal(t, map[string]string{"source": "scanner"}, obj.Tags)
	})

	t.Run("enrichment failures degrade to defaults", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("ListObjects", mock.Anything, "collections", mock.Anything).
			Return(objChan(minio.ObjectInfo{Key: "org-1/docs/a.pdf", Size: 10}))
		mockClient.On("StatObject", mock.Anything, "collections", "org-1/docs/a.pdf", mock.Anything).
			Return(minio.ObjectInfo{}, errors.New("stat failed"))
		mockClient.On("GetObjectTagging", mock.Anything, "collections", "org-1/docs/a.pdf", mock.Anything).
			Return(nil, errors.New("tagging unavailable"))

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		objects, err := svc.ListObjects(context.Background(), "org-1/docs/")
		assert.NoError(t, err)
		assert.Len(t, objects, 1)
		assert.Equal(t, "unknown", objects[0].ContentType)
		assert.Empty(t, objects[0].Tags)
		assert.Empty(t, objects[0].UploadTimestamp)
	})
}

func TestListCollections(t *testing.T) {
	logger := zap.NewNop()

	mockClient := new(mocks.Client)
	mockClient.On("ListObjects", mock.Anything, "collections",
		mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
			return opts.Prefix == "org-1/" && !opts.Recursive
		})).Return(objChan(
		minio.ObjectInfo{Key: "org-1/docs/"},
		minio.ObjectInfo{Key: "org-1/reports/"},
		minio.ObjectInfo{Key: "org-1/stray-object.txt"},
	))

	svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
	names, err := svc.ListCollections(context.Background(), "org-1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"docs", "reports"}, names)
}

func TestTagOperations(t *testing.T) {
	logger := zap.NewNop()

	t.Run("get tags flattens to map", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("GetObjectTagging", mock.Anything, "collections", "org/docs/a.pdf", mock.Anything).
			Return(mustTags(t, map[string]string{"source": "scanner", "year": "2025"}), nil)

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		got, err := svc.GetTags(context.Background(), "org/docs/a.pdf")
		assert.NoError(t, err)
		assert.Equal(t, map[string]string{"source": "scanner", "year": "2025"}, got)
	})

	t.Run("get tags wraps store errors", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("GetObjectTagging", mock.Anything, "collections", "org/docs/missing", mock.Anything).
			Return(nil, notFoundErr())

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		_, err := svc.GetTags(context.Background(), "org/docs/missing")

		var se *collections.StorageError
		assert.ErrorAs(t, err, &se)
	})

	t.Run("put tags rejects duplicates locally", func(t *testing.T) {
		mockClient := new(mocks.Client)
		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		err := svc.PutTags(context.Background(), "org/docs/a.pdf", []collections.Tag{
			{Key: "source", Value: "scanner"},
			{Key: "source", Value: "upload"},
		})
		assert.True(t, collections.IsValidation(err))
		mockClient.AssertNotCalled(t, "PutObjectTagging",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("put tags writes the set", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("PutObjectTagging", mock.Anything, "collections", "org/docs/a.pdf",
			mock.MatchedBy(func(tg *tags.Tags) bool {
				return tg.ToMap()["source"] == "scanner"
			}), mock.Anything).Return(nil)

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		err := svc.PutTags(context.Background(), "org/docs/a.pdf", []collections.Tag{
			{Key: "source", Value: "scanner"},
		})
		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})
}

func TestAppendTags(t *testing.T) {
	logger := zap.NewNop()

	t.Run("merges with new values winning", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("GetObjectTagging", mock.Anything, "collections", "org/docs/a.pdf", mock.Anything).
			Return(mustTags(t, map[string]string{"a": "1", "b": "2", "c": "3"}), nil)
		mockClient.On("PutObjectTagging", mock.Anything, "collections", "org/docs/a.pdf",
			mock.MatchedBy(func(tg *tags.Tags) bool {
				m := tg.ToMap()
				// "a" excluded, "b" overwritten, "c" carried, "d" added.
				return len(m) == 3 && m["b"] == "9" && m["c"] == "3" && m["d"] == "4"
			}), mock.Anything).Return(nil)

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		err := svc.AppendTags(context.Background(), "org/docs/a.pdf",
			[]collections.Tag{{Key: "b", Value: "9"}, {Key: "d", Value: "4"}},
			[]string{"a"})
		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("fetch failure degrades to new tags only", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("GetObjectTagging", mock.Anything, "collections", "org/docs/a.pdf", mock.Anything).
			Return(nil, errors.New("tagging unavailable"))
		mockClient.On("PutObjectTagging", mock.Anything, "collections", "org/docs/a.pdf",
			mock.MatchedBy(func(tg *tags.Tags) bool {
				m := tg.ToMap()
				return len(m) == 1 && m["source"] == "scanner"
			}), mock.Anything).Return(nil)

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		err := svc.AppendTags(context.Background(), "org/docs/a.pdf",
			[]collections.Tag{{Key: "source", Value: "scanner"}}, nil)
		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("merged set beyond the ceiling fails before writing", func(t *testing.T) {
		existing := map[string]string{}
		for _, k := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"} {
			existing[k] = "v"
		}

		mockClient := new(mocks.Client)
		mockClient.On("GetObjectTagging", mock.Anything, "collections", "org/docs/a.pdf", mock.Anything).
			Return(mustTags(t, existing), nil)

		svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
		err := svc.AppendTags(context.Background(), "org/docs/a.pdf",
			[]collections.Tag{{Key: "x", Value: "1"}, {Key: "y", Value: "2"}}, nil)
		assert.True(t, collections.IsValidation(err))
		mockClient.AssertNotCalled(t, "PutObjectTagging",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeleteObject(t *testing.T) {
	logger := zap.NewNop()

	mockClient := new(mocks.Client)
	mockClient.On("RemoveObject", mock.Anything, "collections", "org/docs/a.pdf", mock.Anything).
		Return(nil)

	svc := collections.NewService(mockClient, "collections", logger, telemetry.NopReporter{})
	assert.NoError(t, svc.DeleteObject(context.Background(), "org/docs/a.pdf"))
	mockClient.AssertExpectations(t)
}

package collections_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"platform-common/core/storage/mocks"
	"platform-common/core/telemetry"
	"platform-common/feature/collections"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func newTestApp(mockClient *mocks.Client) *fiber.App {
	svc := collections.NewService(mockClient, "collections", zap.NewNop(), telemetry.NopReporter{})
	h := collections.NewHandler(svc)

	app := fiber.New()
	h.RegisterRoutes(app)
	return app
}

func TestHandleListCollections(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("ListObjects", mock.Anything, "collections", mock.Anything).
		Return(objChan(
			minio.ObjectInfo{Key: "org-1/docs/"},
			minio.ObjectInfo{Key: "org-1/reports/"},
		))

	app := newTestApp(mockClient)
	resp, err := app.Test(httptest.NewRequest("GET", "/collections/org-1", nil), 2000)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body struct {
		Collections []string `json:"collections"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"docs", "reports"}, body.Collections)
}

func TestHandleCreateCollection(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("PutObject", mock.Anything, "collections", "org-1/reports/.collection_info",
		mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil)

	app := newTestApp(mockClient)
	resp, err := app.Test(httptest.NewRequest("POST", "/collections/org-1/Reports", nil), 2000)
	assert.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	var body map[string]string
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "org-1/reports", body["prefix"])
}

func TestHandleDeleteCollection(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("ListObjects", mock.Anything, "collections", mock.Anything).
		Return(objChan(
			minio.ObjectInfo{Key: "org-1/docs/.collection_info"},
			minio.ObjectInfo{Key: "org-1/docs/a.pdf"},
		))
	mockClient.On("RemoveObjects", mock.Anything, "collections", mock.Anything, mock.Anything).
		Return(removeErrChan())

	app := newTestApp(mockClient)
	resp, err := app.Test(httptest.NewRequest("DELETE", "/collections/org-1/docs", nil), 2000)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body collections.DeleteCollectionResult
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Count)
}

func TestCollectionMixedCaseRoundTrip(t *testing.T) {
	// Create, list and delete must all resolve "Reports" to the same
	// lower-cased prefix the marker was written under.
	mockClient := new(mocks.Client)
	mockClient.On("PutObject", mock.Anything, "collections", "org-1/reports/.collection_info",
		mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil)
	mockClient.On("ListObjects", mock.Anything, "collections",
		mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
			return opts.Prefix == "org-1/reports/"
		})).Return(objChan(minio.ObjectInfo{Key: "org-1/reports/a.pdf", Size: 10}))
	mockClient.On("StatObject", mock.Anything, "collections", "org-1/reports/a.pdf", mock.Anything).
		Return(minio.ObjectInfo{ContentType: "application/pdf"}, nil)
	mockClient.On("GetObjectTagging", mock.Anything, "collections", "org-1/reports/a.pdf", mock.Anything).
		Return(mustTags(t, nil), nil)
	mockClient.On("ListObjects", mock.Anything, "collections",
		mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
			return opts.Prefix == "org-1/reports"
		})).Return(objChan(
		minio.ObjectInfo{Key: "org-1/reports/.collection_info"},
		minio.ObjectInfo{Key: "org-1/reports/a.pdf"},
	))
	mockClient.On("RemoveObjects", mock.Anything, "collections", mock.Anything, mock.Anything).
		Return(removeErrChan())

	app := newTestApp(mockClient)

	resp, err := app.Test(httptest.NewRequest("POST", "/collections/org-1/Reports", nil), 2000)
	assert.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/collections/org-1/Reports/objects", nil), 2000)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var listing struct {
		Count int `json:"count"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	assert.Equal(t, 1, listing.Count)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/collections/org-1/Reports", nil), 2000)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result collections.DeleteCollectionResult
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "org-1/reports", result.Prefix)
	assert.Equal(t, 2, result.Count)
}

func TestHandleHeadObject(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("StatObject", mock.Anything, "collections", "org-1/docs/a.pdf", mock.Anything).
			Return(minio.ObjectInfo{Size: 42, ContentType: "application/pdf"}, nil)

		app := newTestApp(mockClient)
		resp, err := app.Test(httptest.NewRequest("GET", "/objects/meta/org-1/docs/a.pdf", nil), 2000)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("missing returns 404", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("StatObject", mock.Anything, "collections", "org-1/docs/missing", mock.Anything).
			Return(minio.ObjectInfo{}, notFoundErr())

		app := newTestApp(mockClient)
		resp, err := app.Test(httptest.NewRequest("GET", "/objects/meta/org-1/docs/missing", nil), 2000)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})
}

func TestHandlePresignedURL(t *testing.T) {
	signed, _ := url.Parse("https://store.example.com/a.pdf?X-Amz-Signature=abc")

	mockClient := new(mocks.Client)
	mockClient.On("PresignedGetObject", mock.Anything, "collections", "org-1/docs/a.pdf",
		mock.Anything, mock.Anything).Return(signed, nil)

	app := newTestApp(mockClient)
	req := httptest.NewRequest("GET", "/objects/url/org-1/docs/a.pdf?download=true", nil)
	resp, err := app.Test(req, 2000)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]string
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, signed.String(), body["url"])
}

func TestHandleGetContent(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("StatObject", mock.Anything, "collections", "org-1/docs/a.txt", mock.Anything).
		Return(minio.ObjectInfo{Size: 5, ContentType: "text/plain"}, nil)
	mockClient.On("GetObject", mock.Anything, "collections", "org-1/docs/a.txt", mock.Anything).
		Return(io.NopCloser(strings.NewReader("hello")), nil)

	app := newTestApp(mockClient)
	resp, err := app.Test(httptest.NewRequest("GET", "/objects/content/org-1/docs/a.txt", nil), 2000)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	payload, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(payload))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/plain")
}

func TestHandleAppendTags(t *testing.T) {
	t.Run("merges tags", func(t *testing.T) {
		existing := mustTags(t, map[string]string{"a": "1"})

		mockClient := new(mocks.Client)
		mockClient.On("GetObjectTagging", mock.Anything, "collections", "org-1/docs/a.pdf", mock.Anything).
			Return(existing, nil)
		mockClient.On("PutObjectTagging", mock.Anything, "collections", "org-1/docs/a.pdf",
			mock.Anything, mock.Anything).Return(nil)

		app := newTestApp(mockClient)
		req := httptest.NewRequest("PATCH", "/objects/tags/org-1/docs/a.pdf",
			strings.NewReader(`{"tags":[{"key":"b","value":"2"}]}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req, 2000)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("oversized merge returns 400", func(t *testing.T) {
		big := map[string]string{}
		for _, k := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
			big[k] = "v"
		}
		existing := mustTags(t, big)

		mockClient := new(mocks.Client)
		mockClient.On("GetObjectTagging", mock.Anything, "collections", "org-1/docs/a.pdf", mock.Anything).
			Return(existing, nil)

		app := newTestApp(mockClient)
		req := httptest.NewRequest("PATCH", "/objects/tags/org-1/docs/a.pdf",
			strings.NewReader(`{"tags":[{"key":"z","value":"1"}]}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req, 2000)
		assert.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		mockClient.AssertNotCalled(t, "PutObjectTagging",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		app := newTestApp(new(mocks.Client))
		req := httptest.NewRequest("PATCH", "/objects/tags/org-1/docs/a.pdf",
			strings.NewReader(`{not json`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req, 2000)
		assert.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestHandleDeleteObject(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("RemoveObject", mock.Anything, "collections", "org-1/docs/a.pdf", mock.Anything).
		Return(nil)

	app := newTestApp(mockClient)
	req := httptest.NewRequest("DELETE", "/objects/org-1/docs/a.pdf", nil)
	resp, err := app.Test(req, 2000)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestFeatureLoad(t *testing.T) {
	f := collections.NewFeature(new(mocks.Client), "collections", zap.NewNop(), telemetry.NopReporter{})
	assert.Equal(t, "collections", f.Name())
	assert.True(t, f.IsEnabled())

	app := fiber.New()
	assert.NoError(t, f.Load(app))

	// Route registration is visible through the app's route table.
	found := false
	for _, routes := range app.Stack() {
		for _, r := range routes {
			if r.Path == "/collections/:org" && r.Method == http.MethodGet {
				found = true
			}
		}
	}
	assert.True(t, found)
}

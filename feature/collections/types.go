package collections

import "time"

// MarkerFilename is the sentinel object recording a collection's provenance.
// It is excluded from object listings and deleted with the collection.
const MarkerFilename = ".collection_info"

// MaxTags is the tag-count ceiling imposed by the backing store. The store
// only enforces it at write time and would fail the whole operation, so the
// client validates before issuing a write.
const MaxTags = 10

// Tag is a single key/value entry of an object's tag set.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ObjectMeta is the metadata returned by an existence check.
type ObjectMeta struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type"`
	ETag         string            `json:"etag"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata"`
}

// ObjectSummary is one entry of an object listing, enriched best-effort with
// content type, custom metadata and tags.
type ObjectSummary struct {
	Key             string            `json:"key"`
	Filename        string            `json:"filename"`
	Size            int64             `json:"size"`
	SizeMB          float64           `json:"size_mb"`
	LastModified    string            `json:"last_modified"`
	ContentType     string            `json:"content_type"`
	Metadata        map[string]string `json:"metadata"`
	UploadTimestamp string            `json:"upload_timestamp,omitempty"`
	StorageURI      string            `json:"storage_uri"`
	Tags            map[string]string `json:"tags"`
}

// DeleteCollectionResult summarizes a bulk collection deletion.
type DeleteCollectionResult struct {
	Prefix      string   `json:"prefix"`
	DeletedKeys []string `json:"deleted_keys"`
	Count       int      `json:"count"`
}

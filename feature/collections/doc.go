// Package collections implements the object-storage collection feature.
//
// A collection is a logical grouping of objects under the key prefix
// {organization}/{name}/, marked by a `.collection_info` object carrying
// creation provenance. On top of the bucket-scoped storage client the
// package provides:
//
//  1. Object lifecycle: upload with content-type sniffing, download,
//     streaming reads, metadata lookups, presigned URLs and deletion.
//  2. Tagging: full replacement and additive merge of object tags, with
//     local validation against the store's 10-tags-per-object ceiling.
//  3. Collection lifecycle: create, list and bulk delete.
//
// # Components
//
//   - Service: Wraps the storage client with collection semantics, error
//     classification and telemetry reporting.
//   - Handler: Exposes HTTP endpoints for collections, objects and tags.
//   - Loader: Registers the feature with the application.
//
// # HTTP Endpoints
//
//   - GET    /collections/:org               : List an organization's collections.
//   - POST   /collections/:org/:name         : Create a collection.
//   - DELETE /collections/:org/:name         : Delete a collection and its objects.
//   - GET    /collections/:org/:name/objects : List a collection's objects.
//   - GET    /objects/meta/*                 : Object metadata.
//   - GET    /objects/url/*                  : Presigned download URL.
//   - GET    /objects/content/*              : Stream object content.
//   - DELETE /objects/*                      : Delete an object.
//   - GET    /objects/tags/*                 : Get object tags.
//   - PUT    /objects/tags/*                 : Replace object tags.
//   - PATCH  /objects/tags/*                 : Append object tags.
package collections

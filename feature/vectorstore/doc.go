// Package vectorstore is an HTTP client for the internal vector-collection
// service, which fronts the vector database cluster.
//
// The service's API takes every parameter as a query string; this client
// mirrors that. Collection creation defaults to 6 shards, 1024-dimensional
// embeddings, cosine distance and a replication factor of 2. Requests can be
// routed to a dedicated cluster via platform_cluster_id and orgid.
//
// # HTTP Endpoints
//
//   - POST   /vector-collections/:name                      : Create a collection.
//   - DELETE /vector-collections/:name                      : Delete a collection.
//   - DELETE /vector-collections/:name/points/:externalID   : Delete points by external ID.
package vectorstore

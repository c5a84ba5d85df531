// Package elasticsearch implements the search index port on an
// Elasticsearch cluster using the official go-elasticsearch client.
//
// Lookups use the multi-get API with refresh, writes use the bulk API, and
// the schema is read and extended through the mapping APIs. Requests are
// typeless, as accepted by Elasticsearch 7 and later.
package elasticsearch

// Package search talks to the remote wine search service.
//
// The service is consumed only for its top hits: Search returns a ranked list
// for one query and BatchSearch returns the best hit per query for a group of
// queries in one round trip. Callers own timeouts through the context.
package search

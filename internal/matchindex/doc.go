// Package matchindex holds the local cache of wine records and answers exact
// and fuzzy lookups against it.
//
// Records are keyed by id. Secondary maps link each record's normalized
// "producer name" forms to its id for exact lookup, and its producer, name,
// and region tokens to its id for fuzzy candidate selection. A single RWMutex
// lets lookups overlap each other but never a write.
//
// The index persists as a versioned JSON snapshot written atomically under a
// cross-process file lock. A snapshot with a different schema version, or one
// that cannot be parsed, is deleted on load and the index starts empty.
package matchindex

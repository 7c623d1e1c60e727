// Package config loads, normalizes, and validates winelens configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// WINELENS_SEARCH_API_KEY. The Config type centralizes every knob the
// matching pipeline, scan tracker, and CLI need.
//
// The matching and overlap thresholds are empirically fixed defaults; they are
// exposed here so they can be tuned against a labeled wine-list corpus without
// code changes.
package config

// Package wine defines the domain types shared by the recognition pipeline:
// canonical wine records, recognized-text fragments and the candidates grouped
// from them, match results with their tier, the per-detection Recognized
// union, and the cumulative scan Session.
package wine

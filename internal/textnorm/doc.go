// Package textnorm canonicalizes free wine-list text and scores how similar two
// strings are.
//
// Normalize lowercases, strips diacritics, drops punctuation, and expands a
// fixed dictionary of wine-list abbreviations ("ch." → "chateau", "rsv" →
// "reserve", "nv" → "non-vintage", grape shorthand). It is idempotent and safe
// for concurrent use.
//
// Similarity blends soft token-set overlap, normalized edit distance, and
// Soundex token overlap into a single score in [0,1]. It is reflexive and
// commutative, and it degrades smoothly with edit distance.
package textnorm

// Package segment turns recognized-text fragments into wine-entry candidates.
//
// Rows on a wine list sit further apart than the wrapped lines of one row, so
// fragments are grouped by vertical gap alone. A filtering pass then removes
// list boilerplate and keeps only groups that look like a wine. Dropping a wine
// is worse than a wasted match attempt, so the filter leans towards keeping.
package segment

// Package matching resolves candidate text to wine records.
//
// Tiers run in ascending cost and the first acceptable result wins:
//
//  1. Parse the vintage and list price out of the text.
//  2. Exact lookup in the local index.
//  3. Fuzzy lookup in the local index.
//  4. Single remote search.
//  5. Batched remote search for whatever is still unmatched.
//
// Remote hits are written through to the local index so the next sighting of
// the same wine resolves locally. No tier returns an error: failures degrade
// to "no match at this tier". Cancellations caused by a newer frame are
// recognized through services.IsSuperseded and never logged.
package matching

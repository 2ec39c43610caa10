// Package textutil provides text processing utilities for title cleaning,
// token-set similarity, and filename sanitization.
//
// The primary use cases are:
//   - Cleaning release noise (site tags, quality markers, format words) out of
//     folder and file names before metadata lookup
//   - Computing Jaccard word-overlap similarity between titles and names
//   - Rejecting strings that are not meaningful search queries
//   - Sanitizing metadata values for safe filesystem use
//
// Tokenization lowercases text, splits on non-alphanumeric characters, and
// drops a small stop-word set so that articles and series filler words never
// dominate a similarity score.
package textutil

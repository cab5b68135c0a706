// Package matcher locates the spans a rule operates on.
//
// A Spec is one of three variants:
//
//   - Exact: literal, case-sensitive substring occurrences
//   - Pattern: a regular expression with explicit flags (multiline, dotall,
//     ignorecase) on either the re2 engine (Go's regexp, linear time) or the
//     backtrack engine (regexp2, lookaround and backreferences, bounded by a
//     match timeout)
//   - Fallback: alternatives tried in declared order; the first one with at
//     least one match wins
//
// Compile validates a Spec up front, so a syntactically invalid pattern is
// reported before any document is touched. Spans from one call never overlap
// and are reported in byte offsets whatever the engine.
package matcher

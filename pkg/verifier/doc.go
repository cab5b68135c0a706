// Package verifier implements the structural post-conditions a rule can
// require of the document it produces.
//
// The pairs kind counts an open and a close token and compares the totals.
// It is deliberately a heuristic: interleaved mismatched pairs whose counts
// agree pass. The nesting kind walks tokens with a stack and the xml kind
// parses the text, for callers that need more than a count.
//
// Every kind looks at one scope: the whole document (the default), the lines
// between two markers, or only the text a rule inserted. A pairs verifier in
// preserve mode compares the scope's open/close difference before and after
// the rule instead of requiring it to be zero, so a rule is judged on its own
// pairs and not on an imbalance it found.
package verifier

// Package orchestrator runs an ordered rule list over one document.
//
// Prepare validates the whole list first, so an invalid pattern, template,
// verifier or id aborts the batch before any rule runs. Run then applies the
// rules strictly in order. Each rule sees the document produced by the last
// rule that applied; failed and skipped rules do not advance it.
//
// With HaltStop the first failure ends the run and the remaining rules are
// reported as skipped with reason "not-attempted". With HaltContinue every
// rule is attempted. Either way there is exactly one report per rule.
package orchestrator

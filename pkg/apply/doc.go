// Package apply applies a single compiled rule to a document.
//
// Apply finds the rule's spans, checks the count against the rule's policy,
// expands the replacement for each selected span and substitutes them right
// to left. When the rule has a verifier the candidate is checked before it is
// accepted; a rejected candidate is discarded and the input document is
// returned unchanged, byte for byte and at the same revision.
package apply

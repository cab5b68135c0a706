// Package rules defines patch rules, validates them before a run and loads
// them from TOML or YAML files.
//
// A rule names a matcher, a replacement and a policy, and may carry a
// verifier:
//
//	[[rules]]
//	id = "move-products"
//	policy = "first"
//	pattern = '(<ProductListHeader[^>]*/>\s*)</div>'
//	flags = ["dotall"]
//	replace = "${1}"
//	  [rules.verify]
//	  open = "<div"
//	  close = "</div>"
//
// Policies are exactly-one (the default), first, all and optional. A rule
// with several [[rules.match]] tables tries them in order and uses the first
// one that matches.
//
// Replacements of exact matchers are inserted verbatim. Replacements of
// pattern matchers are templates that may reference capture groups; set
// expand to override either default.
//
// CompileAll rejects empty or duplicate ids and any invalid pattern,
// template or verifier, so a broken rule list never touches a document.
package rules

package dopatch

import (
	_ "embed"
	"strings"
)

// Short messages
const (
	MsgRootShort       = "Apply ordered, verified text patches to a file"
	MsgApplyShort      = "Apply a rules file to a target file"
	MsgCheckShort      = "Run a structural verifier against a file"
	MsgValidateShort   = "Compile a rules file and report problems"
	MsgInitShort       = "Write a starter rules file"
	MsgConfigShort     = "Show the resolved configuration"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	MsgRulesValid       = "%d rule(s) valid in %s\n"
	MsgNoOverlaps       = "No overlapping matches in %s\n"
	MsgOverlapFormat    = "  %s (line %d) overlaps %s (line %d)\n"
	MsgOverlapsFound    = "%d overlapping pair(s) in %s; these rules depend on their order:\n"
	MsgCheckPassed      = "ok: %s\n"
	MsgStarterWritten   = "Wrote starter rules to %s\n"
	MsgVersionFormat    = "dopatch version %s\n  commit: %s\n  built:  %s\n"
	MsgDiffUnchanged    = "(no changes)\n"
	MsgRunNotAccepted   = "run %s: %d rule(s) failed"
	MsgErrNoCommand     = "no command specified"
	MsgErrFileExists    = "%s already exists (use --force to replace it)"
	MsgErrOverlaps      = "%d overlapping rule pair(s)"
	MsgErrNoPair        = "a verifier needs --open and --close, or at least one --pair"
	MsgErrPairFormat    = "invalid --pair %q: want OPEN:CLOSE"
	MsgErrMarkersPaired = "--start and --end must be given together"

	MsgFlagVerbose       = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig        = "Config file (default layers: defaults, user config, .dopatch.toml)"
	MsgFlagSet           = "Override a config value, e.g. --set store.backup=true (repeatable)"
	MsgFlagDryRun        = "Run every rule but write nothing"
	MsgFlagContinue      = "Skip failed rules instead of stopping (same as --halt continue)"
	MsgFlagHalt          = "Halt policy: stop or continue (overrides the rules file and config)"
	MsgFlagDiff          = "Print a unified diff of the changes"
	MsgFlagFormat        = "Report format: auto, term, text, json or yaml"
	MsgFlagBackup        = "Keep the previous content in <target><suffix> before writing"
	MsgFlagAcceptPartial = "Write the document even when some rules failed under --continue"
	MsgFlagOutput        = "Write the patched document here instead of TARGET (\"-\" for stdout)"
	MsgFlagTimeout       = "Upper bound for a single backtracking regex match"
	MsgFlagTarget        = "Also match the rules against this file and report overlaps"
	MsgFlagStrict        = "Fail when rules overlap on --target"
	MsgFlagKind          = "Verifier kind: pairs, nesting or xml"
	MsgFlagOpen          = "Open token"
	MsgFlagClose         = "Close token"
	MsgFlagPair          = "Additional OPEN:CLOSE pair for the nesting kind (repeatable)"
	MsgFlagStart         = "Start marker; checks the lines from here to --end"
	MsgFlagEnd           = "End marker"
	MsgFlagForce         = "Replace an existing file"
	MsgFlagDefaults      = "Print the commented defaults instead of the resolved values"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/apply-long.txt
	msgApplyLongRaw string
	MsgApplyLong    = strings.TrimSpace(msgApplyLongRaw)

	//go:embed msgs/apply-example.txt
	msgApplyExampleRaw string
	MsgApplyExample    = strings.TrimRight(msgApplyExampleRaw, "\n")

	//go:embed msgs/check-long.txt
	msgCheckLongRaw string
	MsgCheckLong    = strings.TrimSpace(msgCheckLongRaw)

	//go:embed msgs/check-example.txt
	msgCheckExampleRaw string
	MsgCheckExample    = strings.TrimRight(msgCheckExampleRaw, "\n")

	//go:embed msgs/validate-long.txt
	msgValidateLongRaw string
	MsgValidateLong    = strings.TrimSpace(msgValidateLongRaw)

	//go:embed msgs/init-long.txt
	msgInitLongRaw string
	MsgInitLong    = strings.TrimSpace(msgInitLongRaw)

	//go:embed msgs/config-long.txt
	msgConfigLongRaw string
	MsgConfigLong    = strings.TrimSpace(msgConfigLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)

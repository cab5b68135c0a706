package rules_test

import (
	"testing"

	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/matcher"
	"github.com/arthur-debert/dopatch/pkg/rules"
	"github.com/arthur-debert/dopatch/pkg/verifier"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tomlRules = `
halt = "continue"

[[rules]]
id = "add-promos-view"
description = "Insert the promos view"
find = "{view === 'dashboard' && ("
replace = "{view === 'promos' && (<Promos />)}\n{view === 'dashboard' && ("

[[rules]]
id = "move-products"
policy = "first"
pattern = '(<ProductListHeader[^>]*/>\s*)</div>'
flags = ["dotall"]
replace = "${1}"
  [rules.verify]
  open = "<div"
  close = "</div>"
  scope = "between-markers"
  start = "view === 'catalog'"
  end = "view === 'promos'"

[[rules]]
id = "events-tail"
policy = "optional"
replace = "</div>"
  [[rules.match]]
  find = "</div>\n</>"
  [[rules.match]]
  pattern = '</div>\s*</>'
  engine = "backtrack"
`

const yamlRules = `
rules:
  - id: rename
    policy: all
    pattern: 'onSave\((\w+)\)'
    flags: ignorecase
    replace: 'onPersist($1)'
    verify:
      kind: nesting
      open: "("
      close: ")"
      pairs:
        - open: "{"
          close: "}"
`

func TestParse_TOML(t *testing.T) {
	file, err := rules.Parse([]byte(tomlRules), rules.FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, "continue", file.Halt)
	require.Len(t, file.Rules, 3)

	list, err := file.ToRules(verifier.ScopeWholeDocument)
	require.NoError(t, err)

	assert.Equal(t, rules.RequireExactlyOne, list[0].Policy)
	assert.Equal(t, matcher.Exact{Literal: "{view === 'dashboard' && ("}, list[0].Match)
	assert.Contains(t, list[0].Replacement, "\n")

	assert.Equal(t, rules.ReplaceFirst, list[1].Policy)
	assert.Equal(t, matcher.Pattern{
		Expr:   `(<ProductListHeader[^>]*/>\s*)</div>`,
		Flags:  []matcher.Flag{matcher.FlagDotAll},
		Engine: matcher.EngineRE2,
	}, list[1].Match)
	require.NotNil(t, list[1].Verifier)
	assert.Equal(t, verifier.ScopeBetweenMarkers, list[1].Verifier.Scope)
	assert.Equal(t, "view === 'promos'", list[1].Verifier.End)

	fallback, ok := list[2].Match.(matcher.Fallback)
	require.True(t, ok)
	require.Len(t, fallback.Alternatives, 2)
	assert.Equal(t, matcher.KindExact, fallback.Alternatives[0].Kind())
	assert.Equal(t, matcher.EngineBacktrack, fallback.Alternatives[1].(matcher.Pattern).Engine)

	_, err = rules.CompileAll(list, matcher.Options{})
	assert.NoError(t, err)
}

func TestParse_YAML(t *testing.T) {
	file, err := rules.Parse([]byte(yamlRules), rules.FormatYAML)
	require.NoError(t, err)

	list, err := file.ToRules(verifier.ScopeReplacement)
	require.NoError(t, err)
	require.Len(t, list, 1)

	assert.Equal(t, rules.ReplaceAll, list[0].Policy)
	assert.Equal(t, []matcher.Flag{matcher.FlagIgnoreCase}, list[0].Match.(matcher.Pattern).Flags)
	require.NotNil(t, list[0].Verifier)
	assert.Equal(t, verifier.KindNesting, list[0].Verifier.Kind)
	assert.Equal(t, verifier.ScopeReplacement, list[0].Verifier.Scope, "configured default scope applies")
	assert.Equal(t, []verifier.Pair{{Open: "{", Close: "}"}}, list[0].Verifier.Pairs)

	_, err = rules.CompileAll(list, matcher.Options{})
	assert.NoError(t, err)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantCode errors.ErrorCode
	}{
		{"syntax", "[[rules]\nid = 1", errors.ErrRulesParse},
		{"no_rules", `halt = "stop"`, errors.ErrRulesParse},
		{"misspelled_key", "[[rules]]\nid = \"a\"\nfind = \"x\"\nreplacement = \"y\"", errors.ErrRulesParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rules.Parse([]byte(tt.data), rules.FormatTOML)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetErrorCode(err))
		})
	}
}

func TestToRules_Errors(t *testing.T) {
	tests := []struct {
		name     string
		def      rules.Definition
		wantCode errors.ErrorCode
	}{
		{"nothing_to_match", rules.Definition{ID: "a"}, errors.ErrRulesParse},
		{"shorthand_and_match", rules.Definition{ID: "a", Find: "x", Match: []rules.MatchDefinition{{Find: "y"}}}, errors.ErrRulesParse},
		{"find_and_pattern", rules.Definition{ID: "a", Find: "x", Pattern: "y"}, errors.ErrRulesParse},
		{"flags_on_find", rules.Definition{ID: "a", Find: "x", Flags: []string{"dotall"}}, errors.ErrRulesParse},
		{"unknown_flag", rules.Definition{ID: "a", Pattern: "x", Flags: []string{"extended"}}, errors.ErrPattern},
		{"unknown_policy", rules.Definition{ID: "a", Find: "x", Policy: "twice"}, errors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := &rules.File{Rules: []rules.Definition{tt.def}}
			_, err := file.ToRules(verifier.ScopeWholeDocument)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetErrorCode(err))
			assert.Equal(t, "a", errors.GetErrorDetails(err)["rule"])
		})
	}
}

func TestLoader(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/patch.toml", []byte(tomlRules), 0644))
	require.NoError(t, afero.WriteFile(fs, "/work/patch.yml", []byte(yamlRules), 0644))
	require.NoError(t, afero.WriteFile(fs, "/work/patch.json", []byte("{}"), 0644))

	loader := rules.NewLoader(fs)

	file, err := loader.Load("/work/patch.toml")
	require.NoError(t, err)
	assert.Len(t, file.Rules, 3)

	file, err = loader.Load("/work/patch.yml")
	require.NoError(t, err)
	assert.Len(t, file.Rules, 1)

	_, err = loader.Load("/work/patch.json")
	assert.True(t, errors.IsErrorCode(err, errors.ErrRulesLoad))

	_, err = loader.Load("/work/missing.toml")
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileNotFound))
	assert.Equal(t, "/work/missing.toml", errors.GetErrorDetails(err)["path"])
}

func TestStarterRoundTrip(t *testing.T) {
	data, err := rules.Encode(rules.Starter())
	require.NoError(t, err)

	file, err := rules.Parse(data, rules.FormatTOML)
	require.NoError(t, err)

	starter := rules.Starter()
	assert.Equal(t, starter.Halt, file.Halt)
	require.Len(t, file.Rules, len(starter.Rules))
	for i, want := range starter.Rules {
		got := file.Rules[i]
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Find, got.Find, "multiline strings survive encoding")
		assert.Equal(t, want.Pattern, got.Pattern)
		assert.Equal(t, want.Replace, got.Replace)
		assert.Len(t, got.Match, len(want.Match))
	}

	list, err := file.ToRules(verifier.ScopeWholeDocument)
	require.NoError(t, err)
	_, err = rules.CompileAll(list, matcher.Options{})
	assert.NoError(t, err)
}

package matcher_test

import (
	"testing"
	"time"

	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/matcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, spec matcher.Spec) matcher.Matcher {
	t.Helper()
	m, err := matcher.Compile(spec)
	require.NoError(t, err)
	return m
}

func starts(spans []matcher.Span) []int {
	out := make([]int, len(spans))
	for i, s := range spans {
		out[i] = s.Start
	}
	return out
}

func TestExact(t *testing.T) {
	tests := []struct {
		name       string
		literal    string
		text       string
		wantStarts []int
	}{
		{"single", "<div>", "<span><div></span>", []int{6}},
		{"multiple", "ab", "ab-ab-ab", []int{0, 3, 6}},
		{"non_overlapping", "aa", "aaaa", []int{0, 2}},
		{"non_overlapping_odd", "aa", "aaa", []int{0}},
		{"case_sensitive", "Div", "<div>", []int{}},
		{"absent", "x", "abc", []int{}},
		{"multibyte", "é", "café é", []int{3, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustCompile(t, matcher.Exact{Literal: tt.literal})
			spans, err := m.Find(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStarts, append([]int{}, starts(spans)...))
			for _, s := range spans {
				assert.Equal(t, tt.literal, tt.text[s.Start:s.End])
				assert.Equal(t, tt.literal, s.Text())
			}
		})
	}
}

func TestExact_EmptyLiteralIsPatternError(t *testing.T) {
	_, err := matcher.Compile(matcher.Exact{})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPattern))
}

func TestAll_IsRestartableAndStoppable(t *testing.T) {
	m := mustCompile(t, matcher.Exact{Literal: "x"})
	text := "x-x-x"

	var first []int
	for span, err := range m.All(text) {
		require.NoError(t, err)
		first = append(first, span.Start)
	}
	var second []int
	for span, err := range m.All(text) {
		require.NoError(t, err)
		second = append(second, span.Start)
	}
	assert.Equal(t, []int{0, 2, 4}, first)
	assert.Equal(t, first, second)

	count := 0
	for range m.All(text) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestAll_PatternIsRestartableAndStoppable(t *testing.T) {
	for _, engine := range []matcher.Engine{matcher.EngineRE2, matcher.EngineBacktrack} {
		t.Run(string(engine), func(t *testing.T) {
			m := mustCompile(t, matcher.Pattern{Expr: `^x`, Flags: []matcher.Flag{matcher.FlagMultiline}, Engine: engine})
			text := "x\nyx\nx"

			first, err := m.Find(text)
			require.NoError(t, err)
			second, err := m.Find(text)
			require.NoError(t, err)
			assert.Equal(t, []int{0, 5}, starts(first))
			assert.Equal(t, first, second)

			count := 0
			for range m.All(text) {
				count++
				break
			}
			assert.Equal(t, 1, count)
		})
	}
}

// Groups are the document's own bytes, even when they are not valid UTF-8
func TestPattern_InvalidUTF8GroupsMatchAcrossEngines(t *testing.T) {
	text := "a\xffb"
	for _, engine := range []matcher.Engine{matcher.EngineRE2, matcher.EngineBacktrack} {
		t.Run(string(engine), func(t *testing.T) {
			m := mustCompile(t, matcher.Pattern{Expr: `a(.)b`, Engine: engine})
			spans, err := m.Find(text)
			require.NoError(t, err)
			require.Len(t, spans, 1)

			span := spans[0]
			assert.Equal(t, 0, span.Start)
			assert.Equal(t, 3, span.End)
			assert.Equal(t, text[span.Start:span.End], span.Groups[0])
			assert.Equal(t, "\xff", span.Groups[1])
		})
	}
}

func TestPattern_Engines(t *testing.T) {
	for _, engine := range []matcher.Engine{matcher.EngineRE2, matcher.EngineBacktrack} {
		t.Run(string(engine), func(t *testing.T) {
			t.Run("captures", func(t *testing.T) {
				m := mustCompile(t, matcher.Pattern{Expr: `(\w+)=(\d+)?`, Engine: engine})
				spans, err := m.Find("a=1 b= c=3")
				require.NoError(t, err)
				require.Len(t, spans, 3)
				assert.Equal(t, []string{"a=1", "a", "1"}, spans[0].Groups)
				assert.Equal(t, []string{"b=", "b", ""}, spans[1].Groups)
				assert.Equal(t, 7, spans[2].Start)
				assert.Equal(t, 10, spans[2].End)
			})

			t.Run("dot_does_not_cross_lines_without_dotall", func(t *testing.T) {
				m := mustCompile(t, matcher.Pattern{Expr: `a.b`, Engine: engine})
				spans, err := m.Find("a\nb")
				require.NoError(t, err)
				assert.Empty(t, spans)
			})

			t.Run("dotall_flag", func(t *testing.T) {
				m := mustCompile(t, matcher.Pattern{Expr: `a.b`, Flags: []matcher.Flag{matcher.FlagDotAll}, Engine: engine})
				spans, err := m.Find("a\nb")
				require.NoError(t, err)
				assert.Len(t, spans, 1)
			})

			t.Run("multiline_flag", func(t *testing.T) {
				text := "one\ntwo\n"
				plain := mustCompile(t, matcher.Pattern{Expr: `^two$`, Engine: engine})
				spans, err := plain.Find(text)
				require.NoError(t, err)
				assert.Empty(t, spans)

				multi := mustCompile(t, matcher.Pattern{Expr: `^two$`, Flags: []matcher.Flag{matcher.FlagMultiline}, Engine: engine})
				spans, err = multi.Find(text)
				require.NoError(t, err)
				require.Len(t, spans, 1)
				assert.Equal(t, 4, spans[0].Start)
			})

			t.Run("ignorecase_flag", func(t *testing.T) {
				m := mustCompile(t, matcher.Pattern{Expr: `div`, Flags: []matcher.Flag{matcher.FlagIgnoreCase}, Engine: engine})
				spans, err := m.Find("<DIV>")
				require.NoError(t, err)
				assert.Len(t, spans, 1)
			})

			t.Run("named_groups", func(t *testing.T) {
				expr := `(?P<tag>div)`
				if engine == matcher.EngineBacktrack {
					expr = `(?<tag>div)`
				}
				m := mustCompile(t, matcher.Pattern{Expr: expr, Engine: engine})
				spans, err := m.Find("<div>")
				require.NoError(t, err)
				require.Len(t, spans, 1)
				assert.Equal(t, []string{"", "tag"}, spans[0].Names)
			})

			t.Run("byte_offsets_after_multibyte_text", func(t *testing.T) {
				m := mustCompile(t, matcher.Pattern{Expr: `<b>`, Engine: engine})
				text := "Catálogo ñ <b>"
				spans, err := m.Find(text)
				require.NoError(t, err)
				require.Len(t, spans, 1)
				assert.Equal(t, "<b>", text[spans[0].Start:spans[0].End])
			})
		})
	}
}

func TestPattern_BacktrackOnlyFeatures(t *testing.T) {
	m := mustCompile(t, matcher.Pattern{Expr: `<(\w+)>.*?</\1>`, Engine: matcher.EngineBacktrack})
	spans, err := m.Find("<a>x</b><b>y</b>")
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "<b>y</b>", spans[0].Text())

	_, err = matcher.Compile(matcher.Pattern{Expr: `<(\w+)>.*?</\1>`})
	require.Error(t, err, "re2 has no backreferences")
	assert.True(t, errors.IsErrorCode(err, errors.ErrPattern))
}

func TestPattern_InvalidSyntax(t *testing.T) {
	tests := []struct {
		name string
		spec matcher.Pattern
	}{
		{"re2_unbalanced", matcher.Pattern{Expr: `(abc`}},
		{"backtrack_unbalanced", matcher.Pattern{Expr: `(abc`, Engine: matcher.EngineBacktrack}},
		{"unknown_flag", matcher.Pattern{Expr: `abc`, Flags: []matcher.Flag{"verbose"}}},
		{"unknown_engine", matcher.Pattern{Expr: `abc`, Engine: "pcre2-jit"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := matcher.Compile(tt.spec)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrPattern))
		})
	}
}

func TestPattern_Timeout(t *testing.T) {
	m, err := matcher.CompileWithOptions(
		matcher.Pattern{Expr: `(a+)+$`, Engine: matcher.EngineBacktrack},
		matcher.Options{Timeout: 10 * time.Millisecond},
	)
	require.NoError(t, err)

	input := ""
	for i := 0; i < 40; i++ {
		input += "a"
	}
	input += "!"

	_, err = m.Find(input)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrMatchTimeout))
}

func TestFallback(t *testing.T) {
	spec := matcher.Fallback{Alternatives: []matcher.Spec{
		matcher.Exact{Literal: "</div>\n</>"},
		matcher.Pattern{Expr: `</div>\s*</>`},
	}}
	m := mustCompile(t, spec)

	t.Run("first_alternative_wins", func(t *testing.T) {
		spans, err := m.Find("</div>\n</> </div>  </>")
		require.NoError(t, err)
		require.Len(t, spans, 1, "exact alternative matched, pattern not consulted")
		assert.Equal(t, 0, spans[0].Start)
	})

	t.Run("falls_back_in_order", func(t *testing.T) {
		spans, err := m.Find("</div>   </>")
		require.NoError(t, err)
		require.Len(t, spans, 1)
		assert.Equal(t, "</div>   </>", spans[0].Text())
	})

	t.Run("none_match", func(t *testing.T) {
		spans, err := m.Find("nothing here")
		require.NoError(t, err)
		assert.Empty(t, spans)
	})

	t.Run("invalid_alternative_fails_compile", func(t *testing.T) {
		_, err := matcher.Compile(matcher.Fallback{Alternatives: []matcher.Spec{
			matcher.Exact{Literal: "a"},
			matcher.Pattern{Expr: `(`},
		}})
		assert.True(t, errors.IsErrorCode(err, errors.ErrPattern))
	})

	t.Run("empty_and_nested_are_invalid", func(t *testing.T) {
		_, err := matcher.Compile(matcher.Fallback{})
		assert.True(t, errors.IsErrorCode(err, errors.ErrPattern))

		_, err = matcher.Compile(matcher.Fallback{Alternatives: []matcher.Spec{spec}})
		assert.True(t, errors.IsErrorCode(err, errors.ErrPattern))
	})
}

func TestSpanOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b matcher.Span
		want bool
	}{
		{"disjoint", matcher.Span{Start: 0, End: 2}, matcher.Span{Start: 2, End: 4}, false},
		{"shared_byte", matcher.Span{Start: 0, End: 3}, matcher.Span{Start: 2, End: 4}, true},
		{"contained", matcher.Span{Start: 0, End: 10}, matcher.Span{Start: 2, End: 4}, true},
		{"empty_inside", matcher.Span{Start: 3, End: 3}, matcher.Span{Start: 2, End: 4}, true},
		{"empty_at_start", matcher.Span{Start: 2, End: 2}, matcher.Span{Start: 2, End: 4}, true},
		{"empty_at_end", matcher.Span{Start: 4, End: 4}, matcher.Span{Start: 2, End: 4}, true},
		{"empty_outside", matcher.Span{Start: 5, End: 5}, matcher.Span{Start: 2, End: 4}, false},
		{"empty_same_offset", matcher.Span{Start: 2, End: 2}, matcher.Span{Start: 2, End: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestSpecString(t *testing.T) {
	assert.Equal(t, `exact "<div>"`, matcher.Exact{Literal: "<div>"}.String())
	assert.Equal(t, "pattern /a.b/ [dotall]",
		matcher.Pattern{Expr: "a.b", Flags: []matcher.Flag{matcher.FlagDotAll}}.String())
	assert.Equal(t, "pattern /x/ (backtrack)",
		matcher.Pattern{Expr: "x", Engine: matcher.EngineBacktrack}.String())
}

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/orchestrator"
	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"
)

// Renderer writes a run summary
type Renderer interface {
	Render(s Summary) error
}

// NewRenderer returns the renderer for a concrete format. FormatAuto renders
// plain text; call Resolve first to honor the terminal.
func NewRenderer(format Format, w io.Writer) (Renderer, error) {
	switch format {
	case FormatTerminal:
		return &textRenderer{w: w, styled: true}, nil
	case FormatAuto, FormatText:
		return &textRenderer{w: w}, nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return &jsonRenderer{encoder: enc}, nil
	case FormatYAML:
		return &yamlRenderer{w: w}, nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "no renderer for format %s", format)
	}
}

type jsonRenderer struct {
	encoder *json.Encoder
}

func (r *jsonRenderer) Render(s Summary) error {
	return r.encoder.Encode(s)
}

type yamlRenderer struct {
	w io.Writer
}

func (r *yamlRenderer) Render(s Summary) error {
	enc := yaml.NewEncoder(r.w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

type textRenderer struct {
	w      io.Writer
	styled bool
}

func (r *textRenderer) style(fn func(...string) string, s string) string {
	if !r.styled {
		return s
	}
	return fn(s)
}

func (r *textRenderer) Render(s Summary) error {
	var b strings.Builder

	title := "dopatch"
	if s.Target != "" {
		title += " " + r.style(pathStyle.Render, s.Target)
	}
	var badge string
	if r.styled {
		badge = statusBadge(s.Status).Sprint(" " + strings.ToUpper(string(s.Status)) + " ")
	} else {
		badge = "[" + string(s.Status) + "]"
	}
	fmt.Fprintf(&b, "%s %s\n\n", r.style(titleStyle.Render, title), badge)

	if len(s.Rules) > 0 {
		table, err := r.table(s.Rules)
		if err != nil {
			return err
		}
		b.WriteString(table)
		b.WriteString("\n")
	}

	counts := fmt.Sprintf("%d applied, %d skipped, %d failed", s.Applied, s.Skipped, s.Failed)
	b.WriteString(counts)
	switch {
	case s.DryRun:
		b.WriteString(r.style(mutedStyle.Render, " (dry run, nothing written)"))
	case s.Written:
		b.WriteString(fmt.Sprintf(", written at revision %d", s.Revision))
		if s.Backup != "" {
			b.WriteString(r.style(mutedStyle.Render, ", backup in "+s.Backup))
		}
	case !s.Changed:
		b.WriteString(r.style(mutedStyle.Render, ", document unchanged"))
	default:
		b.WriteString(r.style(mutedStyle.Render, ", nothing written"))
	}
	b.WriteString("\n")

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *textRenderer) table(reports []orchestrator.RuleReport) (string, error) {
	data := pterm.TableData{{"RULE", "OUTCOME", "MATCHES", "REV", "DETAIL"}}
	for _, rep := range reports {
		outcome := string(rep.Outcome)
		if rep.Reason != "" {
			outcome += " (" + rep.Reason + ")"
		}
		if r.styled {
			outcome = outcomeStyle(string(rep.Outcome)).Render(outcome)
		}
		data = append(data, []string{
			rep.RuleID,
			outcome,
			strconv.Itoa(rep.MatchCount),
			strconv.Itoa(rep.Revision),
			detailText(rep),
		})
	}

	table := pterm.DefaultTable.WithHasHeader().WithData(data)
	if !r.styled {
		plain := pterm.NewStyle()
		table = table.WithStyle(plain).WithHeaderStyle(plain).WithSeparatorStyle(plain).WithSeparator("  ")
	}
	return table.Srender()
}

func detailText(rep orchestrator.RuleReport) string {
	detail := rep.Detail
	if line, ok := rep.Details["closest_line"]; ok {
		detail += fmt.Sprintf(" (closest: line %v)", line)
	}
	if detail == "" && rep.Description != "" {
		detail = rep.Description
	}
	return detail
}

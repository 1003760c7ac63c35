// Package report renders validation run results for the terminal and for
// file export.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"snowcheck/internal/runner"
	"snowcheck/internal/ui"
)

// Formatter renders run results.
type Formatter struct {
	useColor bool

	// MaxEntities caps how many failing entities render per rule; 0 means
	// all of them.
	MaxEntities int
}

// NewFormatter creates a formatter. Color is degraded automatically when
// stdout is not a terminal.
func NewFormatter(useColor bool) *Formatter {
	return &Formatter{useColor: useColor, MaxEntities: 10}
}

// Summary renders the per-rule outcome table.
func (f *Formatter) Summary(result *runner.RunResult) string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Suite: %s\n", result.Suite.Name)
	if result.Suite.Description != "" {
		fmt.Fprintf(&buf, "%s\n", result.Suite.Description)
	}
	fmt.Fprintf(&buf, "Rows: %d  Entities: %d  Elapsed: %s\n\n",
		result.RowCount, len(result.ValidatedEntities), ui.FormatDuration(result.Elapsed))

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Rule", "Kind", "Target", "Grain", "Failed", "%", "Status"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, o := range result.Outcomes {
		grain := o.GrainName
		if o.GrainDegraded {
			grain += " (degraded)"
		}
		table.Append([]string{
			o.RuleID,
			string(o.Kind),
			o.Target,
			grain,
			fmt.Sprintf("%d/%d", o.Failures, o.Total),
			fmt.Sprintf("%.2f", o.Percent),
			f.status(o.Success),
		})
	}
	table.Render()

	if len(result.Derived) > 0 {
		buf.WriteString("\nDerived statuses:\n")
		derived := tablewriter.NewWriter(&buf)
		derived.SetHeader([]string{"Status", "Members", "Failed", "%", "Status"})
		derived.SetBorder(false)
		derived.SetAutoWrapText(false)
		derived.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, d := range result.Derived {
			derived.Append([]string{
				d.Name,
				fmt.Sprintf("%d", len(d.MemberIDs)),
				fmt.Sprintf("%d/%d", d.Failures, d.Total),
				fmt.Sprintf("%.2f", d.Percent),
				f.status(d.Success),
			})
		}
		derived.Render()
	}

	return buf.String()
}

// Failures renders failing entity details for every failed rule.
func (f *Formatter) Failures(result *runner.RunResult) (string, error) {
	var buf strings.Builder

	for _, o := range result.FailedRules() {
		entities, err := o.FailingEntities()
		if err != nil {
			return "", err
		}

		fmt.Fprintf(&buf, "\n%s  %s on %s  (%d failing %s)\n",
			o.RuleID, o.Kind, o.Target, len(entities), pluralEntity(len(entities)))

		shown := entities
		if f.MaxEntities > 0 && len(shown) > f.MaxEntities {
			shown = shown[:f.MaxEntities]
		}
		for _, e := range shown {
			fmt.Fprintf(&buf, "  %s", formatKey(e.Key))
			if e.ActualValue != "" {
				fmt.Fprintf(&buf, "  value=%q", e.ActualValue)
			}
			buf.WriteString("\n")
		}
		if len(shown) < len(entities) {
			fmt.Fprintf(&buf, "  ... %d more\n", len(entities)-len(shown))
		}
	}

	for _, d := range result.Derived {
		if d.Success {
			continue
		}
		entities, err := d.FailingEntities()
		if err != nil {
			return "", err
		}

		fmt.Fprintf(&buf, "\n%s  (%d failing %s)\n", d.Name, len(entities), pluralEntity(len(entities)))
		shown := entities
		if f.MaxEntities > 0 && len(shown) > f.MaxEntities {
			shown = shown[:f.MaxEntities]
		}
		for _, e := range shown {
			fmt.Fprintf(&buf, "  %s  fired=%s\n", formatKey(e.Key), strings.Join(e.FiredRuleIDs, ","))
		}
		if len(shown) < len(entities) {
			fmt.Fprintf(&buf, "  ... %d more\n", len(entities)-len(shown))
		}
	}

	return buf.String(), nil
}

func (f *Formatter) status(success bool) string {
	if success {
		if f.useColor {
			return color.GreenString("PASS")
		}
		return "PASS"
	}
	if f.useColor {
		return color.RedString("FAIL")
	}
	return "FAIL"
}

func formatKey(key map[string]string) string {
	cols := make([]string, 0, len(key))
	for c := range key {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s=%s", c, key[c])
	}
	return strings.Join(parts, " ")
}

func pluralEntity(n int) string {
	if n == 1 {
		return "entity"
	}
	return "entities"
}

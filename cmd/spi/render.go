package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/buildmatrix"
	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/service"
	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/types"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
}

// writeStructured encodes v as indented JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported output format %q", format)
}

func referenceType(r types.Reference) string {
	if r.IsBranch() {
		return "branch"
	}
	return "tag"
}

func kindLabel(k types.Kind) string {
	if k == types.KindNone {
		return "-"
	}
	return string(k)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func writeVersions(w io.Writer, versions []types.Version) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tReference\tType\tCommit\tDate\tKind\n")
	for _, v := range versions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Reference, referenceType(v.Reference), shortHash(v.CommitHash),
			v.CommitDate.UTC().Format(time.RFC3339), kindLabel(v.Kind))
	}
	return tw.Flush()
}

func writeReport(w io.Writer, report service.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Change\tReference\tType\tCommit\tKind\n")
	rows := []struct {
		change   string
		versions []types.Version
	}{
		{"added", report.Added},
		{"deleted", report.Deleted},
		{"kept", report.Kept},
	}
	for _, row := range rows {
		for _, v := range row.versions {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				row.change, v.Reference, referenceType(v.Reference), shortHash(v.CommitHash), kindLabel(v.Kind))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	latest := []struct {
		label string
		v     *types.Version
	}{
		{"default branch", report.Latest.DefaultBranch},
		{"release", report.Latest.Release},
		{"pre-release", report.Latest.PreRelease},
	}
	for _, l := range latest {
		name := "-"
		if l.v != nil {
			name = l.v.Reference.String()
		}
		fmt.Fprintf(w, "latest %s: %s\n", l.label, name)
	}
	return nil
}

// matrixTable renders compatibility rows with padded, colored cells.
type matrixTable struct {
	headers []string
	rows    [][]string
	states  [][]buildmatrix.Compatibility
	noColor bool
}

func (t *matrixTable) addRow(label string, states []buildmatrix.Compatibility) {
	cells := make([]string, 0, len(states)+1)
	cells = append(cells, label)
	for _, s := range states {
		cells = append(cells, s.String())
	}
	t.rows = append(t.rows, cells)
	t.states = append(t.states, states)
}

func (t *matrixTable) render(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	bold := color.New(color.Bold)
	if t.noColor {
		bold.DisableColor()
	}
	for i, h := range t.headers {
		bold.Fprint(w, padRight(h, widths[i]))
		if i < len(t.headers)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)

	for r, row := range t.rows {
		for i, cell := range row {
			text := padRight(cell, widths[i])
			if i == 0 {
				fmt.Fprint(w, text)
			} else {
				c := stateColor(t.states[r][i-1])
				if t.noColor {
					c.DisableColor()
				}
				c.Fprint(w, text)
			}
			if i < len(row)-1 {
				fmt.Fprint(w, "  ")
			}
		}
		fmt.Fprintln(w)
	}
}

func stateColor(c buildmatrix.Compatibility) *color.Color {
	switch c {
	case buildmatrix.Compatible:
		return color.New(color.FgGreen)
	case buildmatrix.Incompatible:
		return color.New(color.FgRed)
	}
	return color.New(color.FgHiBlack)
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func groupLabel(refs []buildmatrix.GroupReference) string {
	parts := make([]string, 0, len(refs))
	for _, r := range refs {
		parts = append(parts, fmt.Sprintf("%s (%s)", r.Name, r.Kind))
	}
	return strings.Join(parts, ", ")
}

func writeMatrices(w io.Writer, m service.Matrices, noColor bool) {
	if len(m.Platforms) == 0 && len(m.SwiftVersions) == 0 {
		fmt.Fprintf(w, "no builds recorded for %s\n", m.Package)
		return
	}

	platforms := &matrixTable{headers: []string{"Platform"}, noColor: noColor}
	for _, p := range buildmatrix.Platforms {
		platforms.headers = append(platforms.headers, p.String())
	}
	for _, g := range m.Platforms {
		states := make([]buildmatrix.Compatibility, 0, len(buildmatrix.Platforms))
		for _, p := range buildmatrix.Platforms {
			states = append(states, g.Results.Get(p))
		}
		platforms.addRow(groupLabel(g.References), states)
	}
	platforms.render(w)

	fmt.Fprintln(w)

	swift := &matrixTable{headers: []string{"Swift"}, noColor: noColor}
	for _, v := range buildmatrix.SwiftVersions {
		swift.headers = append(swift.headers, v.String())
	}
	for _, g := range m.SwiftVersions {
		states := make([]buildmatrix.Compatibility, 0, len(buildmatrix.SwiftVersions))
		for _, v := range buildmatrix.SwiftVersions {
			states = append(states, g.Results.Get(v))
		}
		swift.addRow(groupLabel(g.References), states)
	}
	swift.render(w)
}

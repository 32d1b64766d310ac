package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mvp-joe/schemagraph/internal/diagram"
	"github.com/mvp-joe/schemagraph/internal/schema"
)

const (
	formatJSON    = "json"
	formatDOT     = "dot"
	formatSummary = "summary"
)

func validateFormat(format string) error {
	switch format {
	case formatJSON, formatDOT, formatSummary:
		return nil
	}
	return fmt.Errorf("unknown format %q (must be json, dot or summary)", format)
}

// render writes models in format. For json, payload is encoded instead of
// the bare models so callers can include scan or storage details.
func render(w io.Writer, format string, models []schema.Model, payload any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case formatDOT:
		return diagram.Build(models).DOT(w)
	case formatSummary:
		return writeSummary(w, models)
	}
	return validateFormat(format)
}

func writeSummary(w io.Writer, models []schema.Model) error {
	d := diagram.Build(models)

	var b strings.Builder
	for _, m := range models {
		fmt.Fprintf(&b, "%s (%s)\n", m.Name, m.FilePath)
		width := 0
		for _, f := range m.Fields {
			if len(f.Name) > width {
				width = len(f.Name)
			}
		}
		for _, f := range m.Fields {
			fmt.Fprintf(&b, "  %-*s  %s\n", width, f.Name, describeField(f))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%d models, %d relationships", len(d.Nodes), len(d.Edges))
	if len(d.Unresolved) > 0 {
		fmt.Fprintf(&b, ", %d unresolved refs", len(d.Unresolved))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func describeField(f schema.Field) string {
	t := string(f.Type)
	if f.IsArray {
		t = "[" + t + "]"
	}
	parts := []string{t}
	if f.Required {
		parts = append(parts, "required")
	}
	if f.DefaultValue != nil {
		parts = append(parts, "default="+*f.DefaultValue)
	}
	if len(f.EnumValues) > 0 {
		parts = append(parts, "enum="+strings.Join(f.EnumValues, "|"))
	}
	if f.HasRef() {
		parts = append(parts, "-> "+f.Ref)
	}
	return strings.Join(parts, "  ")
}

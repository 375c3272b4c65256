// Package output renders tool results and the tool catalog for the CLI.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates and normalizes a format string. Empty means def.
func ParseFormat(value string, def Format) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "":
		return def, nil
	case string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// ToolSummary is one row of the tool catalog.
type ToolSummary struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Required    []string `json:"required,omitempty" yaml:"required,omitempty"`
	Optional    []string `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Render formats an arbitrary JSON-encodable tool result.
func Render(format Format, value any) (string, error) {
	switch format {
	case FormatJSON:
		return renderJSON(value)
	case FormatYAML:
		return renderYAML(value)
	}

	doc, err := normalize(value)
	if err != nil {
		return "", err
	}
	sections := buildSections("", doc)
	if format == FormatMarkdown {
		return renderMarkdown(sections), nil
	}
	return renderTables(sections), nil
}

// RenderTools formats the tool catalog.
func RenderTools(format Format, summaries []ToolSummary) (string, error) {
	switch format {
	case FormatJSON:
		return renderJSON(summaries)
	case FormatYAML:
		return renderYAML(summaries)
	}

	sec := section{header: []string{"Tool", "Required", "Description"}}
	for _, s := range summaries {
		sec.rows = append(sec.rows, []string{s.Name, strings.Join(s.Required, ", "), firstLine(s.Description)})
	}
	if format == FormatMarkdown {
		return renderMarkdown([]section{sec}), nil
	}
	return renderTables([]section{sec}), nil
}

// normalize turns typed results into plain maps, slices and scalars.
// Integral numbers come back as int64 so large amounts are not printed in
// exponent form.
func normalize(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return convertNumbers(out), nil
}

func convertNumbers(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	case map[string]any:
		for k, item := range v {
			v[k] = convertNumbers(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = convertNumbers(item)
		}
		return v
	default:
		return v
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

package output

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// maxColumns bounds list tables; wider objects keep their first keys in
// sorted order.
const maxColumns = 8

// section is one rendered block: a key/value table for objects or a column
// table for lists of objects.
type section struct {
	title  string
	header []string
	rows   [][]string
}

// buildSections lays a normalized document out as tables. Scalars and
// nested objects of the top level become key/value rows; lists of objects
// get their own section.
func buildSections(title string, doc any) []section {
	switch v := doc.(type) {
	case map[string]any:
		return objectSections(title, v)
	case []any:
		if isObjectList(v) {
			return []section{listSection(title, v)}
		}
		sec := section{title: title, header: []string{"#", "Value"}}
		for i, item := range v {
			sec.rows = append(sec.rows, []string{strconv.Itoa(i), formatScalar(item)})
		}
		return []section{sec}
	default:
		return []section{{title: title, header: []string{"Value"}, rows: [][]string{{formatScalar(v)}}}}
	}
}

func objectSections(title string, obj map[string]any) []section {
	main := section{title: title, header: []string{"Field", "Value"}}
	var nested []section

	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for _, key := range sortedKeys(m) {
			name := key
			if prefix != "" {
				name = prefix + "." + key
			}
			switch v := m[key].(type) {
			case map[string]any:
				walk(name, v)
			case []any:
				if isObjectList(v) && len(v) > 0 {
					nested = append(nested, listSection(name, v))
					continue
				}
				main.rows = append(main.rows, []string{name, formatScalar(v)})
			default:
				main.rows = append(main.rows, []string{name, formatScalar(v)})
			}
		}
	}
	walk("", obj)

	out := make([]section, 0, len(nested)+1)
	if len(main.rows) > 0 {
		out = append(out, main)
	}
	return append(out, nested...)
}

func listSection(title string, items []any) section {
	seen := map[string]bool{}
	var columns []string
	for _, item := range items {
		obj, _ := item.(map[string]any)
		for key, value := range obj {
			if seen[key] || !isScalar(value) {
				continue
			}
			seen[key] = true
			columns = append(columns, key)
		}
	}
	sort.Strings(columns)
	if len(columns) > maxColumns {
		columns = columns[:maxColumns]
	}

	sec := section{title: title, header: columns}
	for _, item := range items {
		obj, _ := item.(map[string]any)
		row := make([]string, len(columns))
		for i, col := range columns {
			if value, ok := obj[col]; ok {
				row[i] = formatScalar(value)
			}
		}
		sec.rows = append(sec.rows, row)
	}
	return sec
}

func isObjectList(items []any) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if _, ok := item.(map[string]any); !ok {
			return false
		}
	}
	return true
}

func isScalar(value any) bool {
	switch value.(type) {
	case map[string]any, []any:
		return false
	default:
		return true
	}
}

func formatScalar(value any) string {
	switch v := value.(type) {
	case nil:
		return "-"
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if isScalar(item) {
				parts = append(parts, formatScalar(item))
			} else {
				parts = append(parts, "{…}")
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		return fmt.Sprintf("{%d fields}", len(v))
	default:
		return fmt.Sprint(v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

package debank

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Params holds query parameters for GET requests. Entries whose value is nil
// (including typed nil pointers) are never sent; zero values and empty strings are.
type Params map[string]any

// Encode renders the parameters as a query string with nil entries removed.
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}

	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, key := range keys {
		value, ok := formatParam(p[key])
		if !ok {
			continue
		}
		values.Set(key, value)
	}
	return values.Encode()
}

func formatParam(value any) (string, bool) {
	if value == nil {
		return "", false
	}
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "", false
	}

	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		return *v, true
	case bool:
		return strconv.FormatBool(v), true
	case *bool:
		return strconv.FormatBool(*v), true
	case int:
		return strconv.Itoa(v), true
	case *int:
		return strconv.Itoa(*v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case *int64:
		return strconv.FormatInt(*v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case *float64:
		return strconv.FormatFloat(*v, 'f', -1, 64), true
	case []string:
		return strings.Join(v, ","), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

package htmlbuild

import (
	"fmt"
	"strings"
)

// Attribute decorates emitted script tags. Value is a bool, a scalar, or a
// []any whose elements are used per occurrence.
type Attribute struct {
	Name  string
	Value any
}

// Attributes keeps declaration order.
type Attributes []Attribute

// Render returns the attribute text for the given script tag occurrence,
// including a leading space per attribute. true renders a bare attribute and
// false omits it; list values cycle by occurrence.
func (a Attributes) Render(occurrence int) string {
	var sb strings.Builder
	for _, attr := range a {
		renderValue(&sb, attr.Name, attr.Value, occurrence)
	}
	return sb.String()
}

func renderValue(sb *strings.Builder, name string, v any, occurrence int) {
	switch val := v.(type) {
	case nil:
		return
	case bool:
		if val {
			sb.WriteString(" " + name)
		}
	case []any:
		if len(val) == 0 {
			return
		}
		renderValue(sb, name, val[occurrence%len(val)], occurrence)
	case []string:
		if len(val) == 0 {
			return
		}
		renderValue(sb, name, val[occurrence%len(val)], occurrence)
	default:
		sb.WriteString(" " + name + `="` + quote(fmt.Sprint(val)) + `"`)
	}
}

func quote(s string) string {
	return strings.ReplaceAll(s, `"`, "&quot;")
}

package path

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/loomkit/weft/internal/markup"
)

// Predicate expressions evaluate to dynamically typed values: nil (no
// result), bool, float64, string, markup.Attrs, markup.Event or
// markup.QName. The coercions below define how those values convert
// between the XPath value spaces.

// asScalar unwraps a single-attribute Attrs value to the attribute's
// string value. Other values pass through.
func asScalar(v any) any {
	if attrs, ok := v.(markup.Attrs); ok {
		if len(attrs) == 0 {
			return nil
		}
		return attrs[0].Value
	}
	return v
}

// asString converts a value to its string form. A false boolean
// converts to the empty string.
func asString(v any) string {
	switch val := asScalar(v).(type) {
	case nil:
		return ""
	case bool:
		if val {
			return "true"
		}
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case markup.QName:
		return val.String()
	case markup.Event:
		return val.Text
	default:
		return fmt.Sprint(val)
	}
}

// asFloat converts a value to a number; unparseable values become NaN
// so comparisons against them are false.
func asFloat(v any) float64 {
	switch val := asScalar(v).(type) {
	case float64:
		return val
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// asBool converts a value to a truth value: empty strings, zero
// numbers, empty attribute sets and nil are false.
func asBool(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	case markup.Attrs:
		return len(val) > 0
	case markup.Event:
		return true
	case markup.QName:
		return !val.IsZero()
	default:
		return true
	}
}

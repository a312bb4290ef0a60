package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScope() Scope {
	return MapScope{
		"name":  "World",
		"count": 3,
		"ratio": 2.5,
		"ok":    true,
		"empty": "",
		"items": []any{"a", "b", "c"},
		"pair":  []any{1, 2},
		"user": map[string]any{
			"name": "Ada",
			"address": map[string]any{
				"city": "London",
			},
		},
		"shout": Callable(func(args []any, kwargs map[string]any) (any, error) {
			s := FormatValue(args[0])
			if suffix, ok := kwargs["suffix"]; ok {
				s += FormatValue(suffix)
			}
			return s + "!", nil
		}),
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   any
	}{
		{name: "int literal", source: "42", want: 42},
		{name: "float literal", source: "4.5", want: 4.5},
		{name: "leading dot float", source: ".5", want: 0.5},
		{name: "double quoted string", source: `"hi"`, want: "hi"},
		{name: "single quoted string", source: `'hi'`, want: "hi"},
		{name: "escaped quote", source: `"say \"hi\""`, want: `say "hi"`},
		{name: "true literal", source: "true", want: true},
		{name: "false literal", source: "False", want: false},
		{name: "nil literal", source: "nil", want: nil},

		{name: "variable", source: "name", want: "World"},
		{name: "field access", source: "user.name", want: "Ada"},
		{name: "nested field access", source: "user.address.city", want: "London"},
		{name: "missing field is nil", source: "user.missing", want: nil},
		{name: "index", source: "items[1]", want: "b"},
		{name: "negative index", source: "items[-1]", want: "c"},
		{name: "index out of range is nil", source: "items[9]", want: nil},
		{name: "string key index", source: `user["name"]`, want: "Ada"},

		{name: "integer addition", source: "count + 1", want: 4},
		{name: "mixed addition", source: "count + ratio", want: 5.5},
		{name: "string concatenation", source: `name + "!"`, want: "World!"},
		{name: "concatenation coerces", source: `"n=" + count`, want: "n=3"},
		{name: "subtraction", source: "count - 5", want: -2},
		{name: "multiplication", source: "count * count", want: 9},
		{name: "division is float", source: "7 / 2", want: 3.5},
		{name: "modulo", source: "7 % 3", want: 1},
		{name: "precedence", source: "1 + 2 * 3", want: 7},
		{name: "parentheses", source: "(1 + 2) * 3", want: 9},
		{name: "unary minus", source: "-count", want: -3},
		{name: "unary not", source: "!ok", want: false},
		{name: "keyword not", source: "not empty", want: true},

		{name: "less than", source: "count < 4", want: true},
		{name: "greater or equal", source: "ratio >= 2.5", want: true},
		{name: "string comparison", source: `"apple" < "banana"`, want: true},
		{name: "numeric equality across types", source: "count == 3.0", want: true},
		{name: "inequality", source: `name != "Mars"`, want: true},

		{name: "and yields operand", source: `ok && name`, want: "World"},
		{name: "or yields fallback", source: `empty || "anonymous"`, want: "anonymous"},
		{name: "keyword forms", source: `empty or name and count`, want: 3},

		{name: "call", source: `shout(name)`, want: "World!"},
		{name: "call with kwarg", source: `shout(name, suffix="?")`, want: "World?!"},
		{name: "call in expression", source: `shout("hi") + "!"`, want: "hi!!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Parse(tt.source)
			require.NoError(t, err)
			got, err := e.Evaluate(testScope())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateShortCircuit(t *testing.T) {
	// The right operand must not be evaluated when the left decides.
	e := MustParse(`empty && missing`)
	got, err := e.Evaluate(testScope())
	require.NoError(t, err)
	assert.Equal(t, "", got)

	e = MustParse(`ok || missing`)
	got, err = e.Evaluate(testScope())
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

func TestEvaluateUndefined(t *testing.T) {
	e := MustParse("missing + 1")
	_, err := e.Evaluate(testScope())
	require.Error(t, err)
	var undef *UndefinedError
	require.ErrorAs(t, err, &undef)
	assert.Equal(t, "missing", undef.Name)
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr string
	}{
		{name: "division by zero", source: "1 / 0", wantErr: "division by zero"},
		{name: "incomparable", source: `count < "x"`, wantErr: "cannot compare"},
		{name: "non-callable", source: "name()", wantErr: "not callable"},
		{name: "bad arithmetic", source: "items - 1", wantErr: `cannot apply "-"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Parse(tt.source)
			require.NoError(t, err)
			_, err = e.Evaluate(testScope())
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr string
	}{
		{name: "empty", source: "", wantErr: "unexpected end of expression"},
		{name: "trailing tokens", source: "name name2", wantErr: "unexpected trailing token"},
		{name: "unterminated string", source: `"abc`, wantErr: "unterminated string literal"},
		{name: "bad character", source: "a ? b", wantErr: "unexpected character"},
		{name: "dangling dot", source: "user.", wantErr: `expected identifier after "."`},
		{name: "unclosed paren", source: "(1 + 2", wantErr: `expected ")"`},
		{name: "unclosed index", source: "items[1", wantErr: `expected "]"`},
		{name: "positional after keyword", source: "shout(suffix=1, name)", wantErr: "positional argument after keyword"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.source)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
			var serr *SyntaxError
			assert.ErrorAs(t, err, &serr)
		})
	}
}

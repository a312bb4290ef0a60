package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attrsFixture() Attrs {
	return Attrs{
		{Name: Name("href"), Value: "#"},
		{Name: Name("title"), Value: "Foo"},
	}
}

func TestAttrs_GetPreservesOrder(t *testing.T) {
	attrs := attrsFixture()

	v, ok := attrs.Get(Name("href"))
	require.True(t, ok)
	assert.Equal(t, "#", v)

	_, ok = attrs.Get(Name("tabindex"))
	assert.False(t, ok)

	assert.Equal(t, []QName{Name("href"), Name("title")}, attrs.Names())
}

func TestAttrs_WithDoesNotMutateReceiver(t *testing.T) {
	attrs := attrsFixture()

	updated := attrs.With(Name("title"), "Bar")
	appended := attrs.With(Name("accesskey"), "k")

	v, _ := attrs.Get(Name("title"))
	assert.Equal(t, "Foo", v, "receiver must be unchanged")
	v, _ = updated.Get(Name("title"))
	assert.Equal(t, "Bar", v)
	assert.Equal(t, []QName{Name("href"), Name("title"), Name("accesskey")},
		appended.Names())
}

func TestAttrs_Union(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     Attrs
		expected Attrs
	}{
		{
			name: "override keeps original position",
			a: Attrs{
				{Name: Name("class"), Value: "one"},
				{Name: Name("id"), Value: "x"},
			},
			b: Attrs{
				{Name: Name("id"), Value: "y"},
			},
			expected: Attrs{
				{Name: Name("class"), Value: "one"},
				{Name: Name("id"), Value: "y"},
			},
		},
		{
			name: "new keys appended in other's order",
			a: Attrs{
				{Name: Name("a"), Value: "1"},
			},
			b: Attrs{
				{Name: Name("c"), Value: "3"},
				{Name: Name("b"), Value: "2"},
			},
			expected: Attrs{
				{Name: Name("a"), Value: "1"},
				{Name: Name("c"), Value: "3"},
				{Name: Name("b"), Value: "2"},
			},
		},
		{
			name:     "both empty",
			a:        Attrs{},
			b:        Attrs{},
			expected: Attrs{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.a.Union(tc.b))
		})
	}
}

func TestAttrs_UnionKeyProperties(t *testing.T) {
	a := Attrs{
		{Name: Name("href"), Value: "#"},
		{Name: Name("class"), Value: "nav"},
	}
	b := Attrs{
		{Name: Name("class"), Value: "active"},
		{Name: Name("id"), Value: "menu"},
	}

	union := a.Union(b)

	// keys(a.union(b)) == keys(a) ∪ keys(b)
	assert.ElementsMatch(t,
		[]QName{Name("href"), Name("class"), Name("id")},
		union.Names())

	// For keys not in b, the value from a survives.
	v, ok := union.Get(Name("href"))
	require.True(t, ok)
	assert.Equal(t, "#", v)

	// The receiver is untouched.
	v, _ = a.Get(Name("class"))
	assert.Equal(t, "nav", v)
}

func TestAttrs_Difference(t *testing.T) {
	a := Attrs{
		{Name: Name("a"), Value: "1"},
		{Name: Name("b"), Value: "2"},
		{Name: Name("c"), Value: "3"},
	}

	diff := a.Difference(Name("b"))

	assert.Equal(t, []QName{Name("a"), Name("c")}, diff.Names())
	assert.False(t, diff.Has(Name("b")))
	// Receiver unchanged.
	assert.True(t, a.Has(Name("b")))
}

func TestAttrs_DifferenceRemovesAllNamed(t *testing.T) {
	a := Attrs{
		{Name: Name("x"), Value: "1"},
		{Name: Name("y"), Value: "2"},
	}
	names := []QName{Name("x"), Name("y"), Name("missing")}

	diff := a.Difference(names...)

	for _, n := range names {
		assert.False(t, diff.Has(n))
	}
	assert.Empty(t, diff)
}

func TestAttrs_JoinedValues(t *testing.T) {
	a := Attrs{
		{Name: Name("a"), Value: "foo"},
		{Name: Name("b"), Value: "bar"},
	}
	assert.Equal(t, "foobar", a.JoinedValues())
}

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugToDisplay(t *testing.T) {
	assert.Equal(t, "Andheri East", SlugToDisplay("andheri-east"))
	assert.Equal(t, "Koramangala", SlugToDisplay("KORAMANGALA"))
	assert.Equal(t, "Sector 21", SlugToDisplay("sector-21"))
	assert.Equal(t, "", SlugToDisplay(""))
}

func TestMatchCategory(t *testing.T) {
	cases := []struct {
		slug string
		want string
	}{
		{"jobs", "Jobs"},
		{"Jobs", "Jobs"},
		{"real-estate", "Real Estate"},
		{"buy-sell", "Buy/Sell"},
		{"lost-found", "Lost & Found"},
	}
	for _, tc := range cases {
		got, ok := MatchCategory(tc.slug)
		assert.True(t, ok, "slug %q should match", tc.slug)
		assert.Equal(t, tc.want, got)
	}

	_, ok := MatchCategory("underwater-basket-weaving")
	assert.False(t, ok, "unknown category slugs must fail closed")
}

func TestCategoryOrDisplay(t *testing.T) {
	assert.Equal(t, "Jobs", CategoryOrDisplay("jobs"))
	assert.Equal(t, "Buy/Sell", CategoryOrDisplay("buy-sell"))
	// freeform routes fall back to the formatted display string
	assert.Equal(t, "Foo Bar", CategoryOrDisplay("foo-bar"))
}

func TestPhone(t *testing.T) {
	got, ok := Phone("+91 98765-43210")
	assert.True(t, ok)
	assert.Equal(t, "919876543210", got)

	got, ok = Phone("9876543210")
	assert.True(t, ok)
	assert.Equal(t, "9876543210", got)

	_, ok = Phone("12345")
	assert.False(t, ok, "too short")

	_, ok = Phone("12345678901234567890")
	assert.False(t, ok, "too long")

	_, ok = Phone("no digits here")
	assert.False(t, ok)
}

package suite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Match(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		matches map[string]bool
	}{
		{
			name: "empty selects everything",
			matches: map[string]bool{
				"footer/twitter": true,
				"login/fill-1":   true,
			},
		},
		{
			name:    "star stays inside a segment",
			include: []string{"footer/*"},
			matches: map[string]bool{
				"footer/twitter":      true,
				"footer-legacy/a":     false,
				"checkout/footer/any": false,
			},
		},
		{
			name:    "exclude wins over include",
			include: []string{"footer/*"},
			exclude: []string{"*/linkedin"},
			matches: map[string]bool{
				"footer/twitter":  true,
				"footer/linkedin": false,
			},
		},
		{
			name:    "alternatives",
			include: []string{"{login,footer}/*"},
			matches: map[string]bool{
				"login/submit":   true,
				"footer/twitter": true,
				"cart/open":      false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.include, tt.exclude)
			require.NoError(t, err)
			for name, want := range tt.matches {
				assert.Equal(t, want, f.Match(name), name)
			}
		})
	}
}

func TestFilter_Nil(t *testing.T) {
	var f *Filter
	assert.True(t, f.Match("anything/at-all"))
}

func TestFilter_InvalidExclude(t *testing.T) {
	_, err := NewFilter(nil, []string{"[unterminated"})
	assert.ErrorContains(t, err, "invalid exclude pattern")
}

package emoji

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "⭕", want: "⭕"},
		{name: "variation selector", in: "\u2764\ufe0f", want: "\u2764"},
		{name: "suggestion suffix", in: "🦀 ?", want: "🦀"},
		{name: "spaces", in: "  📷 ", want: "📷"},
		{name: "decomposed text", in: "e\u0301", want: "\u00e9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("\u2764\ufe0f", "\u2764"))
	assert.True(t, Equal("🦀 ?", "🦀"))
	assert.False(t, Equal("🦀", "📷"))
}

func TestSuggestion(t *testing.T) {
	assert.Equal(t, "🦀 ?", Suggestion("🦀\ufe0f"))
}

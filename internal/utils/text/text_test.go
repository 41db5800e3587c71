package text_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"pixienews/internal/utils/text"
)

func TestCountRunes(t *testing.T) {
	assert.Equal(t, 0, text.CountRunes(""))
	assert.Equal(t, 5, text.CountRunes("hello"))
	assert.Equal(t, 5, text.CountRunes("こんにちは"))
	assert.Equal(t, 6, text.CountRunes("Hello👋"))
	assert.Equal(t, 7, text.CountRunes("KI-News"))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"fits", "GPT-5 released", 20, "GPT-5 released"},
		{"cut with marker", "Large language models", 10, "Large l..."},
		{"trailing space trimmed", "open source weights", 8, "open..."},
		{"multibyte", "機械学習の最新ニュース", 6, "機械学..."},
		{"tiny max", "abcdef", 2, "ab"},
		{"zero", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := text.Truncate(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, text.CountRunes(got), max(tt.max, 0))
		})
	}
}

func TestTruncate_TelegramLimit(t *testing.T) {
	body := strings.Repeat("ü", 5000)
	got := text.Truncate(body, 4096)
	assert.Equal(t, 4096, text.CountRunes(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestClip(t *testing.T) {
	assert.Equal(t, "United Kingd", text.Clip("United Kingdom", 12))
	assert.Equal(t, "US", text.Clip("US", 20))
	assert.Equal(t, "", text.Clip("US", 0))
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "DeepMind & Google: new model", text.CleanTitle("  DeepMind &amp; Google:\n\tnew   model "))
	assert.Equal(t, `"Quoted"`, text.CleanTitle("&quot;Quoted&quot;"))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, text.ContainsFold("OpenAI ships GPT", "gpt"))
	assert.True(t, text.ContainsFold("anything", ""))
	assert.False(t, text.ContainsFold("Robotics", "llm"))
}

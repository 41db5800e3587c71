package scraper_test

import (
	"testing"

	"pixienews/internal/infra/scraper"
)

func TestIsAIRelated(t *testing.T) {
	tests := []struct {
		title   string
		summary string
		want    bool
	}{
		{"OpenAI announces GPT-5", "", true},
		{"New AI rules in the EU", "", true},
		{"Startup trains an LLM", "", true},
		{"Weather", "Researchers use machine learning for forecasts", true},
		{"Humanoid robot demo", "", true},
		{"He said the train was late", "", false},
		{"HTML tips for beginners", "", false},
		{"Local bakery wins award", "Bread news.", false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := scraper.IsAIRelated(tt.title, tt.summary); got != tt.want {
				t.Errorf("IsAIRelated(%q, %q) = %v, want %v", tt.title, tt.summary, got, tt.want)
			}
		})
	}
}

func TestStripHTML(t *testing.T) {
	tests := map[string]string{
		"<p>Hello <b>world</b></p>": "Hello world",
		"plain   text":              "plain text",
		"Fish &amp; chips":          "Fish & chips",
		"":                          "",
	}
	for in, want := range tests {
		if got := scraper.StripHTML(in); got != want {
			t.Errorf("StripHTML(%q) = %q, want %q", in, got, want)
		}
	}
}

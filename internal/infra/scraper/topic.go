package scraper

import (
	"regexp"
	"strings"
)

// aiKeywords are matched as substrings of the lower-cased title and summary.
var aiKeywords = []string{
	"artificial intelligence", "machine learning", "deep learning", "neural",
	"chatgpt", "claude", "gemini", "openai", "anthropic", "transformer",
	"computer vision", "generative", "diffusion", "midjourney", "dall-e",
	"copilot", "automation", "robot", "deepmind", "mistral", "hugging face",
	"large language model", "chatbot",
}

// shortKeywords only match as whole words ("ai" must not match "said").
var shortKeywords = regexp.MustCompile(`\b(ai|ml|nlp|gpt|llm|llms|agi|genai)\b`)

// IsAIRelated reports whether title or summary mention an AI/ML topic.
func IsAIRelated(title, summary string) bool {
	text := strings.ToLower(title + " " + summary)
	if shortKeywords.MatchString(text) {
		return true
	}
	for _, kw := range aiKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

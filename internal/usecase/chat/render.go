package chat

import (
	"fmt"
	"strings"

	"pixienews/internal/domain/entity"
	"pixienews/internal/utils/text"
)

const (
	summaryPreviewRunes = 150
	fallbackFlag        = "📰"
)

// commandHelp keeps /help in a fixed order.
var commandHelp = []struct{ cmd, desc string }{
	{"/start", "Start the bot and see welcome message"},
	{"/help", "Show available commands"},
	{"/countries", "List all available countries"},
	{"/set", "Set your preferred country (e.g., /set US)"},
	{"/news", "Get latest AI news for your country"},
	{"/global", "Get global AI news"},
	{"/search", "Search news (e.g., /search OpenAI GPT)"},
	{"/subscribe", "Subscribe to daily news updates"},
	{"/unsubscribe", "Unsubscribe from updates"},
}

const (
	msgGenericError  = "❌ Sorry, something went wrong. Please try again."
	msgSaveError     = "❌ Sorry, your preferences could not be saved. Please try again."
	msgSetUsage      = "⚠️ Please specify a country code.\n\nExample: /set US\n\nType /countries to see available codes."
	msgSearchUsage   = "⚠️ Please provide a search query.\n\nExample: /search OpenAI GPT-5"
	msgUnsubscribed  = "✅ You've unsubscribed from daily news updates."
	msgCountriesHint = "\n💡 _Reply with a country code to get news!_"
)

func renderWelcome() string {
	return "🤖 *Welcome to PixieNews!*\n\n" +
		"I deliver the latest AI news from around the world.\n\n" +
		"🌍 *Quick Start:*\n" +
		"1️⃣ Type a country code (US, UK, IN, etc.) to get news\n" +
		"2️⃣ Use /set US to set your default country\n" +
		"3️⃣ Type /news to get your personalized feed\n\n" +
		"📋 Type /help for all commands\n" +
		"🗺️ Type /countries to see all available regions"
}

func renderHelp() string {
	var b strings.Builder
	b.WriteString("📚 *PixieNews Commands:*\n")
	for _, c := range commandHelp {
		fmt.Fprintf(&b, "\n• *%s* - %s", c.cmd, c.desc)
	}
	b.WriteString("\n\n🌍 *Quick Access:*\nJust type a country code (US, UK, IN, DE, etc.) to get news!")
	b.WriteString("\n\n🔍 *Search:*\nType any keyword to search across all news sources.")
	return b.String()
}

func renderCountries(regions []entity.Region) string {
	var b strings.Builder
	b.WriteString("🗺️ *Available Countries:*\n")
	for _, r := range regions {
		fmt.Fprintf(&b, "\n%s *%s* - %s (%d sources)", r.Flag, r.Code, r.Name, len(r.Sources))
	}
	b.WriteString("\n" + msgCountriesHint)
	return b.String()
}

func renderUnknownCommand(cmd string) string {
	return fmt.Sprintf("❓ Unknown command: %s\n\nType /help for available commands.", cmd)
}

func renderUnknownRegion(code string) string {
	return fmt.Sprintf("❌ Unknown country: %s\n\nType /countries to see available codes.", code)
}

func renderRegionSet(r entity.Region) string {
	return fmt.Sprintf("✅ Your default country is now set to:\n\n%s *%s*\n\nType /news to get the latest AI news!", r.Flag, r.Name)
}

func renderSubscribed(r entity.Region) string {
	return fmt.Sprintf("✅ You're now subscribed to daily AI news!\n\n📬 You'll receive a daily digest for %s %s.\n\nUse /unsubscribe to stop notifications.", r.Flag, r.Name)
}

// RenderNews formats the latest items for a region.
func RenderNews(r entity.Region, items []entity.NewsItem) string {
	if len(items) == 0 {
		return fmt.Sprintf("📭 No recent AI news found for %s.\n\nTry /global for worldwide news.", r.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *AI News from %s*\n", r.Flag, r.Name)
	for i, it := range items {
		fmt.Fprintf(&b, "\n*%d. %s*\n", i+1, escapeMarkdown(it.Title))
		b.WriteString("📰 " + it.Source)
		if it.PublishedAt != nil {
			b.WriteString(" | 📅 " + it.PublishedAt.Format("Jan 02"))
		}
		b.WriteString("\n")
		if it.Summary != "" {
			fmt.Fprintf(&b, "_%s_\n", escapeMarkdown(text.Truncate(it.Summary, summaryPreviewRunes)))
		}
		b.WriteString("🔗 " + it.URL + "\n")
	}
	b.WriteString("\n💡 _Reply with another country code for more news!_")
	return b.String()
}

// RenderSearch formats search results. flags maps region codes to flags.
func RenderSearch(query string, items []entity.NewsItem, flags map[string]string) string {
	if len(items) == 0 {
		return fmt.Sprintf("🔍 No news found for: *%s*\n\nTry different keywords.", escapeMarkdown(query))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 *Search Results for:* %s\n", escapeMarkdown(query))
	for i, it := range items {
		flag, ok := flags[it.Region]
		if !ok {
			flag = fallbackFlag
		}
		fmt.Fprintf(&b, "\n%d. %s *%s*\n", i+1, flag, escapeMarkdown(it.Title))
		fmt.Fprintf(&b, "   📰 %s\n", it.Source)
		fmt.Fprintf(&b, "   🔗 %s\n", it.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Legacy Markdown has no escapes inside entities, so markers in headlines
// are swapped for look-alikes.
var markdownEscaper = strings.NewReplacer("*", "∗", "_", "＿", "`", "'", "[", "(", "]", ")")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// regionButtons returns one quick reply per region in catalog order.
func regionButtons(regions []entity.Region) []Button {
	buttons := make([]Button, 0, len(regions))
	for _, r := range regions {
		buttons = append(buttons, Button{
			ID:          "country_" + r.Code,
			Title:       r.Flag + " " + r.Code,
			Description: r.Name,
		})
	}
	return buttons
}

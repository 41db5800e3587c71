package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"pixienews/internal/domain/entity"
	"pixienews/internal/observability/logging"
	"pixienews/internal/observability/metrics"
	"pixienews/internal/repository"
)

const (
	// searchLimit is the number of results returned for a chat search.
	searchLimit = 5
	// minSearchRunes is the shortest free text treated as a search.
	minSearchRunes = 3
	// buttonPayloadPrefix marks region quick replies.
	buttonPayloadPrefix = "country_"
)

// NewsService is the query surface the router needs.
type NewsService interface {
	Latest(ctx context.Context, region string, limit int) ([]entity.NewsItem, error)
	Search(ctx context.Context, keyword string, limit int, regions ...string) ([]entity.NewsItem, error)
	Regions() []entity.Region
}

// Handler turns inbound messages into replies. It is safe for concurrent use.
type Handler struct {
	news    NewsService
	prefs   repository.PreferenceRepository
	regions []entity.Region
	byCode  map[string]entity.Region
	flags   map[string]string
}

// NewHandler snapshots the region catalog from news.
func NewHandler(news NewsService, prefs repository.PreferenceRepository) *Handler {
	regions := news.Regions()
	h := &Handler{
		news:    news,
		prefs:   prefs,
		regions: regions,
		byCode:  make(map[string]entity.Region, len(regions)),
		flags:   make(map[string]string, len(regions)),
	}
	for _, r := range regions {
		h.byCode[r.Code] = r
		h.flags[r.Code] = r.Flag
	}
	return h
}

// Handle routes msg. ok is false when the message needs no answer
// (empty content).
func (h *Handler) Handle(ctx context.Context, msg Message) (reply Reply, ok bool) {
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return Reply{}, false
	}

	ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With(
		slog.String("channel", msg.Channel),
		slog.String("chat_id", msg.ChatID),
	))

	command, reply := h.route(ctx, msg, content)
	metrics.RecordChatMessage(msg.Channel, command)
	return reply, true
}

// route returns the metrics label of the matched command with the reply.
func (h *Handler) route(ctx context.Context, msg Message, content string) (string, Reply) {
	if strings.HasPrefix(content, "/") {
		return h.command(ctx, msg, content)
	}

	if code, found := strings.CutPrefix(content, buttonPayloadPrefix); found {
		return "button", h.regionNews(ctx, msg, entity.NormalizeRegionCode(code))
	}

	if code := entity.NormalizeRegionCode(content); h.known(code) {
		return "region", h.regionNews(ctx, msg, code)
	}

	if utf8.RuneCountInString(content) >= minSearchRunes {
		return "search", h.search(ctx, content)
	}
	return "help", Reply{Text: renderHelp()}
}

func (h *Handler) command(ctx context.Context, msg Message, content string) (string, Reply) {
	name, args, _ := strings.Cut(content, " ")
	name = strings.ToLower(name)
	// Telegram appends the bot name in groups: /news@PixieNewsBot
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	args = strings.TrimSpace(args)

	switch name {
	case "/start":
		return "start", Reply{Text: renderWelcome(), Buttons: regionButtons(h.regions)}
	case "/help":
		return "help", Reply{Text: renderHelp()}
	case "/countries":
		return "countries", Reply{Text: renderCountries(h.regions), Buttons: regionButtons(h.regions)}
	case "/set":
		return "set", h.setRegion(ctx, msg, args)
	case "/news":
		code := entity.NormalizeRegionCode(args)
		if code == "" {
			code = h.loadPrefs(ctx, msg).PrimaryRegion()
		}
		return "news", h.regionNews(ctx, msg, code)
	case "/global":
		return "global", h.latest(ctx, entity.DefaultRegion, entity.DefaultNewsCount)
	case "/search":
		if args == "" {
			return "search", Reply{Text: msgSearchUsage}
		}
		return "search", h.search(ctx, args)
	case "/subscribe":
		return "subscribe", h.setNotify(ctx, msg, true)
	case "/unsubscribe":
		return "unsubscribe", h.setNotify(ctx, msg, false)
	default:
		return "unknown", Reply{Text: renderUnknownCommand(name)}
	}
}

func (h *Handler) known(code string) bool {
	_, ok := h.byCode[code]
	return ok
}

// loadPrefs never fails: storage errors degrade to defaults.
func (h *Handler) loadPrefs(ctx context.Context, msg Message) *entity.Preferences {
	key := msg.UserKey()
	p, err := h.prefs.Get(ctx, key)
	if err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "failed to load preferences, using defaults",
			slog.String("user", key),
			slog.Any("error", err))
	}
	if p == nil {
		return entity.DefaultPreferences(key)
	}
	return p
}

func (h *Handler) setRegion(ctx context.Context, msg Message, args string) Reply {
	if args == "" {
		return Reply{Text: msgSetUsage, Buttons: regionButtons(h.regions)}
	}
	code := entity.NormalizeRegionCode(args)
	region, ok := h.byCode[code]
	if !ok {
		return Reply{Text: renderUnknownRegion(code)}
	}

	p := h.loadPrefs(ctx, msg)
	p.Regions = []string{code}
	if err := h.prefs.Save(ctx, p); err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "failed to save preferences",
			slog.String("user", p.UserID),
			slog.Any("error", err))
		return Reply{Text: msgSaveError}
	}
	return Reply{Text: renderRegionSet(region)}
}

func (h *Handler) setNotify(ctx context.Context, msg Message, enabled bool) Reply {
	p := h.loadPrefs(ctx, msg)
	p.NotifyEnabled = enabled
	if err := h.prefs.Save(ctx, p); err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "failed to save preferences",
			slog.String("user", p.UserID),
			slog.Any("error", err))
		return Reply{Text: msgSaveError}
	}
	if !enabled {
		return Reply{Text: msgUnsubscribed}
	}
	code := p.PrimaryRegion()
	region, ok := h.byCode[code]
	if !ok {
		region = entity.Region{Code: code, Name: code, Flag: fallbackFlag}
	}
	return Reply{Text: renderSubscribed(region)}
}

func (h *Handler) regionNews(ctx context.Context, msg Message, code string) Reply {
	if !h.known(code) {
		return Reply{Text: renderUnknownRegion(code)}
	}
	return h.latest(ctx, code, h.loadPrefs(ctx, msg).NewsCount)
}

func (h *Handler) latest(ctx context.Context, code string, limit int) Reply {
	region, ok := h.byCode[code]
	if !ok {
		return Reply{Text: renderUnknownRegion(code)}
	}
	items, err := h.news.Latest(ctx, code, limit)
	if err != nil {
		return h.failure(ctx, "latest", err)
	}
	return Reply{Text: RenderNews(region, items)}
}

func (h *Handler) search(ctx context.Context, query string) Reply {
	items, err := h.news.Search(ctx, query, searchLimit)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidQuery) {
			return Reply{Text: msgSearchUsage}
		}
		return h.failure(ctx, "search", err)
	}
	return Reply{Text: RenderSearch(query, items, h.flags)}
}

func (h *Handler) failure(ctx context.Context, op string, err error) Reply {
	logging.FromContext(ctx).ErrorContext(ctx, "chat query failed",
		slog.String("operation", op),
		slog.Any("error", err))
	return Reply{Text: msgGenericError}
}

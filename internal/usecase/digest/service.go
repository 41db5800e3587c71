// Package digest delivers the daily news digest to subscribed chat users.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pixienews/internal/domain/entity"
	"pixienews/internal/observability/logging"
	"pixienews/internal/observability/metrics"
	"pixienews/internal/repository"
	"pixienews/internal/usecase/chat"
)

// Delivery outcomes.
const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Sender delivers a rendered reply to one chat on one channel.
type Sender interface {
	Send(ctx context.Context, chatID string, reply chat.Reply) error
}

// Config bounds a digest run.
type Config struct {
	Parallelism int
	SendTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{Parallelism: 8, SendTimeout: 30 * time.Second}
}

// Result summarizes one run.
type Result struct {
	Subscribers int
	Sent        int
	Skipped     int
	Failed      int
}

type Service struct {
	prefs   repository.PreferenceRepository
	news    chat.NewsService
	senders map[string]Sender
	cfg     Config
}

// NewService wires senders keyed by chat channel name
// (chat.ChannelTelegram, ...). Subscribers on channels without a sender are
// skipped.
func NewService(prefs repository.PreferenceRepository, news chat.NewsService, senders map[string]Sender, cfg Config) *Service {
	d := DefaultConfig()
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = d.Parallelism
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = d.SendTimeout
	}
	return &Service{prefs: prefs, news: news, senders: senders, cfg: cfg}
}

// Run sends one digest to every subscriber. Individual delivery failures
// are counted, not returned; the error is non-nil only when subscribers
// cannot be listed or ctx ends.
func (s *Service) Run(ctx context.Context) (Result, error) {
	logger := logging.FromContext(ctx)

	subs, err := s.prefs.ListSubscribers(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list subscribers: %w", err)
	}

	regions := make(map[string]entity.Region)
	for _, r := range s.news.Regions() {
		regions[r.Code] = r
	}

	var (
		mu  sync.Mutex
		res = Result{Subscribers: len(subs)}
	)
	record := func(channel, outcome string) {
		metrics.RecordDigestDelivery(channel, outcome)
		mu.Lock()
		defer mu.Unlock()
		switch outcome {
		case OutcomeSent:
			res.Sent++
		case OutcomeSkipped:
			res.Skipped++
		default:
			res.Failed++
		}
	}

	// 地域ごとの記事は1回の実行内で共有する
	var newsMu sync.Mutex
	newsByKey := make(map[string][]entity.NewsItem)
	latest := func(code string, limit int) ([]entity.NewsItem, error) {
		key := fmt.Sprintf("%s/%d", code, limit)
		newsMu.Lock()
		defer newsMu.Unlock()
		if items, ok := newsByKey[key]; ok {
			return items, nil
		}
		items, err := s.news.Latest(ctx, code, limit)
		if err != nil {
			return nil, err
		}
		newsByKey[key] = items
		return items, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for _, p := range subs {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(ctx, "panic in digest delivery",
						slog.String("user", p.UserID),
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())))
					record("unknown", OutcomeFailed)
				}
			}()
			s.deliver(gctx, logger, p, regions, latest, record)
			return nil
		})
	}
	_ = g.Wait()

	logger.InfoContext(ctx, "digest run finished",
		slog.Int("subscribers", res.Subscribers),
		slog.Int("sent", res.Sent),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed))

	return res, ctx.Err()
}

func (s *Service) deliver(
	ctx context.Context,
	logger *slog.Logger,
	p *entity.Preferences,
	regions map[string]entity.Region,
	latest func(string, int) ([]entity.NewsItem, error),
	record func(channel, outcome string),
) {
	channel, chatID, ok := chat.SplitUserKey(p.UserID)
	if !ok {
		record("unknown", OutcomeSkipped)
		return
	}
	sender, ok := s.senders[channel]
	if !ok {
		record(channel, OutcomeSkipped)
		return
	}
	region, ok := regions[p.PrimaryRegion()]
	if !ok {
		record(channel, OutcomeSkipped)
		return
	}

	items, err := latest(region.Code, p.NewsCount)
	if err != nil {
		logger.WarnContext(ctx, "digest query failed",
			slog.String("region", region.Code),
			slog.Any("error", err))
		record(channel, OutcomeFailed)
		return
	}
	if len(items) == 0 {
		record(channel, OutcomeSkipped)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancel()

	start := time.Now()
	if err := sender.Send(sendCtx, chatID, chat.Reply{Text: chat.RenderNews(region, items)}); err != nil {
		metrics.RecordChatSendError(channel)
		logger.WarnContext(ctx, "digest delivery failed",
			slog.String("channel", channel),
			slog.String("user", p.UserID),
			slog.Duration("send_duration", time.Since(start)),
			slog.Any("error", err))
		record(channel, OutcomeFailed)
		return
	}
	record(channel, OutcomeSent)
}

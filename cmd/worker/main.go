package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pixienews/internal/app"
	"pixienews/internal/config"
	"pixienews/internal/infra/bridge"
	"pixienews/internal/infra/chat/telegram"
	"pixienews/internal/infra/chat/whatsapp"
	workerPkg "pixienews/internal/infra/worker"
	"pixienews/internal/observability/logging"
	"pixienews/internal/observability/tracing"
	pkgconfig "pixienews/internal/pkg/config"
	"pixienews/internal/repository"
	"pixienews/internal/usecase/chat"
	"pixienews/internal/usecase/digest"
)

const (
	jobWarm   = "cache_warm"
	jobDigest = "digest"
)

func main() {
	logger := initLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("warm_schedule", workerConfig.WarmSchedule),
		slog.Bool("digest_enabled", workerConfig.DigestEnabled),
		slog.String("digest_schedule", workerConfig.DigestSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Int("health_port", workerConfig.HealthPort))

	shutdownTracing := tracing.Setup(tracing.Config{
		ServiceName: "pixienews-worker",
		Version:     os.Getenv("VERSION"),
	}, logger)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	engine := initEngine(logger)
	channels := config.LoadChannelsConfig()
	prefs, database := initPreferences(ctx, logger, channels)
	defer func() {
		if database == nil {
			return
		}
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	router := chat.NewHandler(engine.Query, prefs)
	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerConfig.HealthPort), logger)
	if database != nil {
		healthServer.AddCheck("database", func() error {
			pctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return database.PingContext(pctx)
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := healthServer.Start(gctx); err != nil && gctx.Err() == nil {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	senders := startChannels(gctx, g, logger, channels, router, healthServer)

	scheduler := workerPkg.NewScheduler(workerConfig.Location(), logger, workerMetrics)
	warm := warmJob(engine, workerConfig, workerMetrics, logger)
	if err := scheduler.Add(jobWarm, workerConfig.WarmSchedule, workerConfig.WarmTimeout, warm); err != nil {
		logger.Error("failed to schedule cache warm", slog.Any("error", err))
		os.Exit(1)
	}
	if workerConfig.DigestEnabled && len(senders) > 0 {
		svc := digest.NewService(prefs, engine.Query, senders, digest.DefaultConfig())
		if err := scheduler.Add(jobDigest, workerConfig.DigestSchedule, workerConfig.DigestTimeout, digestJob(svc, workerMetrics)); err != nil {
			logger.Error("failed to schedule digest", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		logger.Info("digest disabled", slog.Int("senders", len(senders)))
	}

	// 起動直後に一度温めてから ready にする
	g.Go(func() error {
		_ = scheduler.RunNow(gctx, jobWarm, workerConfig.WarmTimeout, warm)
		healthServer.SetReady(true)
		scheduler.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

// initLogger initializes the JSON logger and installs it as the default.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

func initEngine(logger *slog.Logger) *app.Engine {
	cfg, warnings := config.LoadEngineConfig(pkgconfig.NewConfigMetrics("engine"))
	for _, w := range warnings {
		logger.Warn("configuration fallback", slog.String("warning", w))
	}
	engine, err := app.NewEngine(cfg, app.Options{}, logger)
	if err != nil {
		logger.Error("failed to initialize engine", slog.Any("error", err))
		os.Exit(1)
	}
	return engine
}

func initPreferences(ctx context.Context, logger *slog.Logger, channels config.ChannelsConfig) (repository.PreferenceRepository, *sql.DB) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	prefs, database, err := app.OpenPreferences(ctx, channels.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to open preference store", slog.Any("error", err))
		os.Exit(1)
	}
	return prefs, database
}

// startChannels starts every configured chat front end on g and returns the
// senders available to the digest, keyed by channel name.
func startChannels(
	ctx context.Context,
	g *errgroup.Group,
	logger *slog.Logger,
	channels config.ChannelsConfig,
	router *chat.Handler,
	health *workerPkg.HealthServer,
) map[string]digest.Sender {
	senders := map[string]digest.Sender{}

	if channels.TelegramEnabled() {
		client := telegram.NewClient(channels.TelegramToken, telegram.WithPollTimeout(channels.TelegramPollTimeout))
		me, err := client.GetMe(ctx)
		if err != nil {
			logger.Error("telegram token rejected", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("telegram bot enabled", slog.String("username", me.Username))
		bot := telegram.NewBot(client, router, telegram.DefaultBotConfig(), logger)
		g.Go(func() error { return bot.Run(ctx) })
		senders[chat.ChannelTelegram] = client
	} else {
		logger.Info("telegram disabled")
	}

	if channels.WhatsAppBusinessEnabled() {
		// 受信は API の webhook、ここでは digest の送信のみ
		client, err := whatsapp.NewClient(whatsapp.Config{
			PhoneNumberID: channels.WhatsAppPhoneNumberID,
			AccessToken:   channels.WhatsAppAccessToken,
			BaseURL:       channels.WhatsAppAPIBaseURL,
		})
		if err != nil {
			logger.Error("failed to create WhatsApp client", slog.Any("error", err))
			os.Exit(1)
		}
		senders[chat.ChannelWhatsApp] = client
	}

	if channels.BridgeEnabled() {
		client := bridge.NewClient(bridge.DefaultConfig(channels.WhatsAppBridgeURL), router, logger)
		g.Go(func() error { return client.Run(ctx) })
		health.AddCheck("bridge", func() error {
			if s := client.State(); s == bridge.StateDisconnected {
				return fmt.Errorf("bridge %s", s)
			}
			return nil
		})
		senders[chat.ChannelBridge] = client
		logger.Info("whatsapp bridge enabled", slog.String("url", channels.WhatsAppBridgeURL))
	}

	return senders
}

func warmJob(engine *app.Engine, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, logger *slog.Logger) workerPkg.Job {
	warmer := workerPkg.NewWarmer(engine.Store, engine.Registry.SortedCodes(), cfg.WarmParallelism, logger)
	return func(ctx context.Context) error {
		res := warmer.Warm(ctx)
		metrics.RecordWarm(res)
		if res.Regions > 0 && res.Failed == res.Regions {
			return fmt.Errorf("all %d regions failed to refresh", res.Regions)
		}
		return nil
	}
}

func digestJob(svc *digest.Service, metrics *workerPkg.WorkerMetrics) workerPkg.Job {
	return func(ctx context.Context) error {
		res, err := svc.Run(ctx)
		metrics.RecordDigest(res.Sent, res.Skipped, res.Failed)
		return err
	}
}

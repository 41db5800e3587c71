package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pixienews/internal/app"
	"pixienews/internal/config"
	"pixienews/internal/infra/chat/whatsapp"
	"pixienews/internal/infra/worker"
	"pixienews/internal/observability/logging"
	"pixienews/internal/observability/tracing"
	pkgconfig "pixienews/internal/pkg/config"
	"pixienews/internal/repository"
	"pixienews/internal/usecase/chat"

	hhttp "pixienews/internal/handler/http"
	"pixienews/internal/handler/http/admin"
	"pixienews/internal/handler/http/auth"
	"pixienews/internal/handler/http/middleware"
	"pixienews/internal/handler/http/news"
	"pixienews/internal/handler/http/requestid"
	"pixienews/internal/handler/http/webhook"
)

func main() {
	logger := initLogger()
	version := getVersion()

	serverCfg := loadServerConfig(logger)
	channels := config.LoadChannelsConfig()
	validateJWTSecret(logger, channels)

	shutdownTracing := tracing.Setup(tracing.Config{
		ServiceName: "pixienews-api",
		Version:     version,
		SampleRatio: serverCfg.TraceSampleRatio,
		LogSpans:    serverCfg.TraceLogSpans,
	}, logger)

	engine := initEngine(logger)
	prefs, database := initPreferences(logger, channels)
	defer func() {
		if database == nil {
			return
		}
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	components := setupServer(logger, serverCfg, channels, engine, prefs, database, version)
	runServer(logger, serverCfg, components, engine, version)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("tracer shutdown failed", slog.Any("error", err))
	}
}

// initLogger initializes the JSON logger and installs it as the default.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

func loadServerConfig(logger *slog.Logger) config.ServerConfig {
	cfg, warnings := config.LoadServerConfig(pkgconfig.NewConfigMetrics("api"))
	for _, w := range warnings {
		logger.Warn("configuration fallback", slog.String("warning", w))
	}
	return cfg
}

// validateJWTSecret refuses to start with a weak admin secret. Without a
// secret the admin routes are simply not mounted.
func validateJWTSecret(logger *slog.Logger, channels config.ChannelsConfig) {
	if !channels.AdminEnabled() {
		logger.Warn("JWT_SECRET not set, admin endpoints disabled")
		return
	}
	if err := auth.ValidateSecret(channels.JWTSecret); err != nil {
		logger.Error("JWT_SECRET validation failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// initEngine builds the aggregation engine from the environment.
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

// initPreferences opens the preference store. database is nil when
// preferences are kept in memory.
func initPreferences(logger *slog.Logger, channels config.ChannelsConfig) (repository.PreferenceRepository, *sql.DB) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	prefs, database, err := app.OpenPreferences(ctx, channels.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to open preference store", slog.Any("error", err))
		os.Exit(1)
	}
	return prefs, database
}

// ServerComponents holds components needed for server operation and cleanup.
type ServerComponents struct {
	Handler     http.Handler
	Health      *hhttp.HealthHandler
	RateLimiter *middleware.RateLimiter
	Webhook     *webhook.WhatsApp
}

// setupServer configures and returns the HTTP handler with all routes and middleware.
func setupServer(
	logger *slog.Logger,
	cfg config.ServerConfig,
	channels config.ChannelsConfig,
	engine *app.Engine,
	prefs repository.PreferenceRepository,
	database *sql.DB,
	version string,
) *ServerComponents {
	var ipExtractor middleware.IPExtractor = middleware.RemoteAddrExtractor{}
	if cfg.TrustedProxies != "" {
		trusted, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
		if err != nil {
			logger.Error("failed to parse TRUSTED_PROXIES", slog.Any("error", err))
			os.Exit(1)
		}
		ipExtractor = middleware.NewTrustedProxyExtractor(trusted)
		logger.Info("rate limiting: trusted proxy mode enabled",
			slog.Int("trusted_proxies_count", len(trusted)))
	} else {
		logger.Info("rate limiting: using RemoteAddr (proxy headers ignored)")
	}
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:  cfg.RateLimit,
		Burst: cfg.RateBurst,
	}, ipExtractor)

	health := &hhttp.HealthHandler{
		DB:      database,
		Cache:   engine.Store,
		Regions: len(engine.Registry.Codes()),
		Version: version,
	}

	mux := http.NewServeMux()
	mux.Handle("GET /health", health)
	mux.HandleFunc("GET /ready", health.Ready)
	mux.HandleFunc("GET /live", health.Live)
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	// API 本体はタイムアウトとレート制限の内側
	api := http.NewServeMux()
	news.Register(api, engine.Query, engine.Store)

	var hook *webhook.WhatsApp
	if channels.WhatsAppBusinessEnabled() {
		client, err := whatsapp.NewClient(whatsapp.Config{
			PhoneNumberID: channels.WhatsAppPhoneNumberID,
			AccessToken:   channels.WhatsAppAccessToken,
			BaseURL:       channels.WhatsAppAPIBaseURL,
		})
		if err != nil {
			logger.Error("failed to create WhatsApp client", slog.Any("error", err))
			os.Exit(1)
		}
		if channels.WhatsAppWebhookSecret == "" {
			logger.Warn("WHATSAPP_WEBHOOK_SECRET not set, webhook signatures are not verified")
		}
		hook = webhook.NewWhatsApp(
			whatsapp.NewWebhook(channels.WhatsAppVerifyToken, channels.WhatsAppWebhookSecret),
			chat.NewHandler(engine.Query, prefs),
			client,
			logger,
			cfg.WebhookTimeout,
		)
		hook.Register(api)
		logger.Info("WhatsApp Business webhook enabled")
	}

	if channels.AdminEnabled() {
		admin.Register(api, admin.Handler{Cache: engine.Store, Regions: engine.Registry}, []byte(channels.JWTSecret))
		logger.Info("admin endpoints enabled")
	}

	mux.Handle("/", hhttp.Chain(api,
		limiter.Middleware,
		hhttp.Timeout(cfg.RequestTimeout),
	))

	return &ServerComponents{
		Handler:     applyMiddleware(logger, cfg, mux),
		Health:      health,
		RateLimiter: limiter,
		Webhook:     hook,
	}
}

// applyMiddleware wraps the handler with the outer middleware chain.
// Order: Request ID → Recovery → Logging → Body Limit → Tracing → Metrics
func applyMiddleware(logger *slog.Logger, cfg config.ServerConfig, handler http.Handler) http.Handler {
	return hhttp.Chain(handler,
		requestid.Middleware,
		hhttp.Recover(logger),
		hhttp.Logging(logger),
		hhttp.LimitRequestBody(cfg.MaxBodyBytes),
		tracing.Middleware,
		hhttp.MetricsMiddleware,
	)
}

// warmCache refreshes every region once and then marks the server ready.
func warmCache(ctx context.Context, logger *slog.Logger, engine *app.Engine, health *hhttp.HealthHandler) {
	warmer := worker.NewWarmer(engine.Store, engine.Registry.SortedCodes(), 4, logger)
	res := warmer.Warm(ctx)
	logger.Info("initial cache warm finished",
		slog.Int("refreshed", res.Refreshed),
		slog.Int("failed", res.Failed),
		slog.Duration("duration", res.Duration))
	health.SetReady(true)
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, cfg config.ServerConfig, components *ServerComponents, engine *app.Engine, version string) {
	// Create a context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go components.RateLimiter.RunCleanup(ctx, time.Minute)

	if cfg.WarmOnStart {
		go warmCache(ctx, logger, engine, components.Health)
	} else {
		components.Health.SetReady(true)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")
	components.Health.SetReady(false)

	// Cancel background goroutines (rate limit cleanup, warm-up)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	if components.Webhook != nil {
		components.Webhook.Wait()
	}
	logger.Info("server stopped")
}

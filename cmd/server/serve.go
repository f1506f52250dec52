package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/webdriver-mini/internal/api"
	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
	"github.com/shehryarbajwa/webdriver-mini/internal/backend/bridge"
	"github.com/shehryarbajwa/webdriver-mini/internal/backend/document"
	"github.com/shehryarbajwa/webdriver-mini/internal/browser"
	"github.com/shehryarbajwa/webdriver-mini/internal/config"
	"github.com/shehryarbajwa/webdriver-mini/internal/dispatch"
	"github.com/shehryarbajwa/webdriver-mini/internal/locator"
	"github.com/shehryarbajwa/webdriver-mini/internal/logging"
	"github.com/shehryarbajwa/webdriver-mini/internal/metrics"
	"github.com/shehryarbajwa/webdriver-mini/internal/ratelimit"
	"github.com/shehryarbajwa/webdriver-mini/internal/session"
	"github.com/shehryarbajwa/webdriver-mini/internal/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the WebDriver server",
	Long: `Start the WebDriver HTTP server.

Configuration is read from the --config YAML file, then .env, then WEBDRIVER_*
environment variables; flags given on the command line win.

Examples:
  webdriver-mini serve
  webdriver-mini serve --addr :9515 --policy single
  webdriver-mini serve --backend bridge --bridge-url ws://127.0.0.1:9000/agent`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("config", "", "Path to a YAML config file")
	serveCmd.Flags().String("addr", "", "Listen address")
	serveCmd.Flags().String("policy", "", "Session policy: single, multi")
	serveCmd.Flags().String("backend", "", "Backend: document, bridge")
	serveCmd.Flags().String("bridge-url", "", "Agent websocket URL for the bridge backend")
	serveCmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")
}

func runServe(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Setup(ctx, tracing.Config{Stdout: cfg.Tracing.Stdout, ServiceName: "webdriver-mini", Version: version})
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
	}

	provider, cleanup, err := newProvider(ctx, cfg, logger)
	if err != nil {
		return err
	}

	sessions := session.NewManager(session.Config{
		Policy:       cfg.Sessions.Policy,
		MaxSessions:  cfg.Sessions.Max,
		IdleTimeout:  cfg.Sessions.IdleTimeout,
		PollInterval: cfg.Timeouts.ImplicitPollInterval,
	}, provider, locator.NewEngine(), m, logger.Named("session"))

	handler := api.NewHandler(dispatch.New(sessions, m, logger.Named("dispatch")), logger.Named("http"))
	var rl api.RateLimit
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiter := ratelimit.NewLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
		rl = api.RateLimit{Limiter: limiter, RequestsPerMinute: cfg.RateLimit.RequestsPerMinute}
		go sweepLimiter(ctx, limiter)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler.SetupRoutes(rl, m),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Addr),
			zap.String("backend", cfg.Backend.Kind),
			zap.String("policy", cfg.Sessions.Policy))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := sessions.CloseAll(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("closing sessions: %w", err))
	}
	if err := cleanup(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	logger.Info("server stopped cleanly")
	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := map[string]*string{
		"addr":       &cfg.Server.Addr,
		"policy":     &cfg.Sessions.Policy,
		"backend":    &cfg.Backend.Kind,
		"bridge-url": &cfg.Backend.Bridge.URL,
		"log-level":  &cfg.Logging.Level,
	}
	for name, dst := range flags {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	return cfg.Validate()
}

// newProvider builds the configured backend provider and a cleanup function
// for whatever it owns beyond the sessions.
func newProvider(ctx context.Context, cfg config.Config, logger *zap.Logger) (backend.Provider, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	if cfg.Backend.Kind == config.BackendDocument {
		doc := cfg.Backend.Document
		return document.NewProvider(document.ProviderConfig{
			UserAgent:      doc.UserAgent,
			RequestTimeout: doc.RequestTimeout,
			MaxBodyBytes:   doc.MaxBodyBytes,
		}, logger.Named("document")), noop, nil
	}

	br := cfg.Backend.Bridge
	platform := br.PlatformName
	if platform == "" {
		platform = runtime.GOOS
	}
	pcfg := bridge.ProviderConfig{
		URL: br.URL,
		Support: backend.Support{
			BrowserName:    br.BrowserName,
			BrowserVersion: br.BrowserVersion,
			PlatformName:   platform,
		},
	}
	if br.Docker.Image == "" {
		return bridge.NewProvider(pcfg, nil, logger.Named("bridge")), noop, nil
	}

	pool, err := browser.NewPool(browser.PoolConfig{
		Image:        br.Docker.Image,
		ReadyTimeout: br.Docker.ReadyTimeout,
	}, logger.Named("pool"))
	if err != nil {
		return nil, nil, err
	}
	if br.Docker.Pull {
		pullCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		if err := pool.EnsureImage(pullCtx); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	cleanup := func(ctx context.Context) error {
		err := pool.StopAll(ctx)
		return errors.Join(err, pool.Close())
	}
	return bridge.NewProvider(pcfg, pool, logger.Named("bridge")), cleanup, nil
}

func sweepLimiter(ctx context.Context, limiter *ratelimit.Limiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep(10 * time.Minute)
		}
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"admission-gateway/internal/logging"
	"admission-gateway/middleware/admission"
	"admission-gateway/middleware/admission/application"
	"admission-gateway/middleware/admission/domain"
	"admission-gateway/middleware/admission/infra"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := readConfig()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.log)
	slog.SetDefault(logger)

	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		logger.Error("invalid UPSTREAM_URL", "error", err)
		os.Exit(1)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("proxy error", "error", err, "path", r.URL.Path)
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	bans := infra.NewMemoryBanStore(cfg.policy.StrikeRetention)
	windows := infra.NewMemoryWindowSet(cfg.policy.Tiers())
	violations := infra.NewMemoryViolationTracker(bans, cfg.policy)

	var statsStore domain.StatsStore
	if cfg.rateStatsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.rateStatsRedisAddr,
			Password: cfg.rateStatsRedisPassword,
			DB:       cfg.rateStatsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			logger.Error("redis stats ping error", "error", err)
			os.Exit(1)
		}

		statsStore = infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.rateStatsPrefix),
			infra.WithStatsTTL(cfg.rateStatsTTL),
			infra.WithStatsBucket(cfg.rateStatsBucket),
			infra.WithStatsTrackKeys(cfg.rateStatsTrackKeys),
		)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	infra.StartJanitor(ctx, cfg.sweepEvery, windows, violations, bans)

	h := http.Handler(proxy)
	h = admission.ConcurrencyMiddleware(admission.ConcurrencyOptions{
		Max:            cfg.concurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.concurrencyTimeout,
		AddHeaders:     cfg.addHeaders,
		Logger:         logger,
	})(h)
	if cfg.admissionEnabled {
		h = admission.Middleware(admission.Options{
			Pipeline: application.Pipeline{
				Bans:       bans,
				Limits:     windows,
				Violations: violations,
				Policy:     cfg.policy,
			},
			Dispatcher:          application.Dispatcher{NoticePath: cfg.noticePath},
			Stats:               statsStore,
			KeyHeader:           cfg.rateKeyHeader,
			TrustXForwardedFor:  cfg.trustXFF,
			Classify:            admission.PathClassifier(cfg.apiPrefixes, cfg.authPaths),
			AddRateLimitHeaders: cfg.addHeaders,
			Logger:              logger,
		})(h)
	}

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	p := cfg.policy
	logger.Info("gateway listening", "addr", cfg.listenAddr, "upstream", target.String())
	logger.Info("admission",
		"enabled", cfg.admissionEnabled,
		"burst", tierSummary(p.Burst), "sustained", tierSummary(p.Sustained),
		"api", tierSummary(p.API), "auth", tierSummary(p.Auth),
		"banThreshold", p.BanThreshold, "violationWindow", p.ViolationWindow, "banDuration", p.BanDuration,
		"apiPrefixes", cfg.apiPrefixes, "authPaths", cfg.authPaths,
		"keyHeader", cfg.rateKeyHeader, "trustXFF", cfg.trustXFF)
	logger.Info("admission stats", "enabled", cfg.rateStatsEnabled, "redisAddr", cfg.rateStatsRedisAddr, "bucket", cfg.rateStatsBucket, "ttl", cfg.rateStatsTTL, "trackKeys", cfg.rateStatsTrackKeys)
	logger.Info("concurrency", "max", cfg.concurrencyMax, "acquireTimeout", cfg.concurrencyTimeout)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func tierSummary(t domain.Tier) string {
	return strconv.Itoa(t.Max) + "/" + t.Window.String()
}

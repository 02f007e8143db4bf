package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
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

	"github.com/go-chi/chi/v5"
)

func main() {
	// Exemplo: injetando o middleware diretamente no seu webserver (sem proxy)
	logger := logging.New(os.Stdout, logging.Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	})
	slog.SetDefault(logger)

	policy := domain.DefaultPolicy()
	bans := infra.NewMemoryBanStore(policy.StrikeRetention)
	windows := infra.NewMemoryWindowSet(policy.Tiers())
	violations := infra.NewMemoryViolationTracker(bans, policy)
	stats := infra.NewMemoryStatsStore(infra.WithTrackKeys(true))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	infra.StartJanitor(ctx, time.Minute, windows, violations, bans)

	r := newRouter(stats)

	h := http.Handler(r)
	h = admission.ConcurrencyMiddleware(admission.ConcurrencyOptions{Max: 50})(h)
	h = admission.Middleware(admission.Options{
		Pipeline: application.Pipeline{
			Bans:       bans,
			Limits:     windows,
			Violations: violations,
			Policy:     policy,
		},
		Dispatcher:          application.Dispatcher{NoticePath: "/rate-limited"},
		Stats:               stats,
		TrustXForwardedFor:  true,
		AddRateLimitHeaders: true,
		Logger:              logger,
	})(h)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("example server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newRouter monta rotas de exemplo: páginas, API, login e a página de aviso.
// A página de aviso também passa pelo middleware; com o redirect o navegador
// continua consumindo os tiers globais.
func newRouter(stats *infra.MemoryStatsStore) chi.Router {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<h1>home</h1>\n"))
	})

	r.Get("/rate-limited", func(w http.ResponseWriter, r *http.Request) {
		when := "a moment"
		if reset, err := strconv.ParseInt(r.URL.Query().Get("reset"), 10, 64); err == nil {
			when = time.Unix(reset, 0).UTC().Format(time.RFC3339)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<h1>Too many requests</h1><p>Try again after " + when + ".</p>\n"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/posts", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []map[string]string{{"id": "1", "title": "hello"}})
		})

		r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				User     string `json:"user"`
				Password string `json:"password"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
				return
			}
			if body.User != "demo" || body.Password != "demo" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/admission/stats", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"total":   stats.Total(),
				"byRoute": stats.ByRoute(),
				"byTier":  stats.ByTier(),
				"byKey":   stats.ByKey(),
			})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

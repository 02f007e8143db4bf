package admission

import (
	"log/slog"
	"net/http"
	"time"

	"admission-gateway/middleware/admission/application"
	"admission-gateway/middleware/admission/domain"

	"golang.org/x/time/rate"
)

// Options configura o middleware de admissão. Só Pipeline é obrigatório.
type Options struct {
	Pipeline   application.Pipeline
	Dispatcher application.Dispatcher
	Stats      domain.StatsStore

	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool
	Classify           RouteClassifier

	// ForbiddenBody é o conteúdo fixo da resposta de ban.
	ForbiddenBody       string
	AddRateLimitHeaders bool

	Logger *slog.Logger
	// LogEvery espaça os logs de requisições limitadas (padrão 1s).
	LogEvery time.Duration
}

// Middleware admite cada requisição pelo pipeline e escreve a resposta de rejeição.
// A página de aviso (Dispatcher.Notice) passa direto: o redirecionamento não pode
// gerar novas violações.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.Classify == nil {
		opts.Classify = PathClassifier(DefaultAPIPrefixes, DefaultAuthPaths)
	}
	if opts.ForbiddenBody == "" {
		opts.ForbiddenBody = DefaultForbiddenBody
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.LogEvery <= 0 {
		opts.LogEvery = time.Second
	}

	// rejeições são esperadas: log em debug e amostrado para não inundar em flood
	limitedLog := &rate.Sometimes{First: 1, Interval: opts.LogEvery}
	pipeline, dispatcher, logger := opts.Pipeline, opts.Dispatcher, opts.Logger
	noticePath := normalizePath(dispatcher.Notice())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if normalizePath(r.URL.Path) == noticePath {
				next.ServeHTTP(w, r)
				return
			}

			key := domain.Key(opts.KeyFn(r))
			route := opts.Classify(r)

			v := pipeline.Admit(key, route)

			if opts.Stats != nil {
				err := opts.Stats.Record(r.Context(), domain.StatsEvent{
					Key:     key,
					Outcome: v.Outcome,
					Tier:    v.Tier,
					Method:  r.Method,
					Path:    r.URL.Path,
					At:      time.Now(),
				})
				if err != nil {
					logger.Warn("admission stats record failed", "error", err)
				}
			}

			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Key", string(key))
				if v.Outcome == domain.RateLimited {
					w.Header().Set("X-RateLimit-Tier", string(v.Tier))
					w.Header().Set("X-RateLimit-Reset", formatInt64(v.ResetAt.Unix()))
				}
			}

			if v.Escalated {
				logger.Info("identity banned", "key", key, "tier", v.Tier, "path", r.URL.Path)
			} else if v.Outcome == domain.RateLimited {
				limitedLog.Do(func() {
					logger.Debug("request rate limited", "key", key, "tier", v.Tier, "path", r.URL.Path)
				})
			}

			if writeResponse(w, r, dispatcher.Dispatch(v, route), opts.ForbiddenBody) {
				return
			}

			if v.Pending == nil {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			pipeline.Settle(v, rec.succeeded())
		})
	}
}

package admission

import (
	"log/slog"
	"net/http"
	"time"

	"admission-gateway/middleware/admission/application"
	"admission-gateway/middleware/admission/infra"
)

// ConcurrencyOptions limita requisições em voo antes da admissão por identidade.
type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	// AddHeaders expõe X-Concurrency-InFlight na resposta.
	AddHeaders bool
	Logger     *slog.Logger
}

func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	svc := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				logger.Debug("concurrency slot unavailable",
					"method", r.Method, "path", r.URL.Path, "in_flight", svc.InFlight())
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}
			defer release()

			if opts.AddHeaders {
				w.Header().Set("X-Concurrency-InFlight", formatInt(svc.InFlight()))
			}
			next.ServeHTTP(w, r)
		})
	}
}

package application

import (
	"net/url"
	"strconv"
	"time"

	"admission-gateway/middleware/admission/domain"
)

const (
	DefaultNoticePath       = "/rate-limited"
	DefaultRateLimitMessage = "Too many requests, please try again later."
)

// Dispatcher traduz um Verdict rejeitado na forma de resposta certa para a rota.
type Dispatcher struct {
	// NoticePath é para onde navegadores são redirecionados quando limitados.
	NoticePath string
	Message    string
	Now        func() time.Time
}

func (d Dispatcher) Dispatch(v domain.Verdict, route domain.Route) domain.Response {
	switch v.Outcome {
	case domain.Banned:
		return domain.Response{Kind: domain.ResponseForbidden}
	case domain.RateLimited:
		if route.Programmatic {
			return domain.Response{Kind: domain.ResponseTooManyRequests, Payload: d.payload(v)}
		}
		return domain.Response{Kind: domain.ResponseRedirect, Location: d.noticeURL(v)}
	default:
		return domain.Response{Kind: domain.ResponseNone}
	}
}

func (d Dispatcher) payload(v domain.Verdict) *domain.RateLimitPayload {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	msg := d.Message
	if msg == "" {
		msg = DefaultRateLimitMessage
	}
	return &domain.RateLimitPayload{
		Error:      msg,
		RetryAfter: RetryAfterSeconds(v.ResetAt, now()),
		ResetTime:  v.ResetAt.Unix(),
	}
}

// Notice retorna o caminho da página de aviso (DefaultNoticePath quando vazio).
func (d Dispatcher) Notice() string {
	if d.NoticePath == "" {
		return DefaultNoticePath
	}
	return d.NoticePath
}

func (d Dispatcher) noticeURL(v domain.Verdict) string {
	q := url.Values{}
	q.Set("reset", strconv.FormatInt(v.ResetAt.Unix(), 10))
	return d.Notice() + "?" + q.Encode()
}

// RetryAfterSeconds arredonda para cima e nunca fica negativo.
func RetryAfterSeconds(resetAt, now time.Time) int64 {
	d := resetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int64(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

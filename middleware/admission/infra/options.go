package infra

import (
	"time"

	"admission-gateway/middleware/admission/domain"

	"github.com/cespare/xxhash/v2"
)

// shardCount precisa ser potência de 2 para o mascaramento em shardIndex.
const shardCount = 64

// shardIndex distribui identidades entre shards. Todas as estruturas usam a
// mesma função, então uma identidade cai sempre no mesmo índice.
func shardIndex(key domain.Key) uint64 {
	return xxhash.Sum64String(string(key)) & (shardCount - 1)
}

type options struct {
	now func() time.Time
}

// Option configura as stores em memória.
type Option func(*options)

// WithClock troca o relógio usado nas contas de janela (útil em testes).
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

package infra

import (
	"sync"
	"time"

	"admission-gateway/middleware/admission/domain"
)

type violationShard struct {
	mu   sync.Mutex
	logs map[domain.Key][]time.Time
}

// MemoryViolationTracker mantém um log deslizante de violações por identidade
// e chama o BanStore quando o limiar é atingido dentro da janela.
type MemoryViolationTracker struct {
	bans        domain.BanStore
	window      time.Duration
	threshold   int
	banDuration time.Duration

	shards [shardCount]violationShard
	now    func() time.Time
}

var _ domain.ViolationRecorder = (*MemoryViolationTracker)(nil)

func NewMemoryViolationTracker(bans domain.BanStore, p domain.Policy, opts ...Option) *MemoryViolationTracker {
	o := buildOptions(opts)
	t := &MemoryViolationTracker{
		bans:        bans,
		window:      p.ViolationWindow,
		threshold:   p.BanThreshold,
		banDuration: p.BanDuration,
		now:         o.now,
	}
	for i := range t.shards {
		t.shards[i].logs = make(map[domain.Key][]time.Time)
	}
	return t
}

// RecordViolation registra a violação agora. Ao atingir o limiar, bane a
// identidade e descarta o log: as violações que causaram o ban não contam de novo.
//
// O lock do shard fica preso durante o Ban para que violações da mesma
// identidade sejam aplicadas na ordem de chegada.
func (t *MemoryViolationTracker) RecordViolation(key domain.Key) bool {
	now := t.now()
	sh := &t.shards[shardIndex(key)]

	sh.mu.Lock()
	defer sh.mu.Unlock()

	log := t.prune(append(sh.logs[key], now), now)
	if len(log) < t.threshold {
		sh.logs[key] = log
		return false
	}

	delete(sh.logs, key)
	if t.bans != nil {
		t.bans.Ban(key, t.banDuration)
	}
	return true
}

// prune mantém só as entradas com menos de window de idade. Reaproveita o slice.
func (t *MemoryViolationTracker) prune(log []time.Time, now time.Time) []time.Time {
	kept := log[:0]
	for _, at := range log {
		if now.Sub(at) < t.window {
			kept = append(kept, at)
		}
	}
	return kept
}

// Count retorna quantas violações da identidade ainda estão dentro da janela.
func (t *MemoryViolationTracker) Count(key domain.Key) int {
	now := t.now()
	sh := &t.shards[shardIndex(key)]

	sh.mu.Lock()
	defer sh.mu.Unlock()

	n := 0
	for _, at := range sh.logs[key] {
		if now.Sub(at) < t.window {
			n++
		}
	}
	return n
}

// Cleanup remove logs que já saíram inteiros da janela.
func (t *MemoryViolationTracker) Cleanup() {
	now := t.now()
	for i := range t.shards {
		sh := &t.shards[i]
		sh.mu.Lock()
		for k, log := range sh.logs {
			if len(log) == 0 || now.Sub(log[len(log)-1]) >= t.window {
				delete(sh.logs, k)
			}
		}
		sh.mu.Unlock()
	}
}

func (t *MemoryViolationTracker) Len() int {
	n := 0
	for i := range t.shards {
		sh := &t.shards[i]
		sh.mu.Lock()
		n += len(sh.logs)
		sh.mu.Unlock()
	}
	return n
}

func (t *MemoryViolationTracker) Reset() {
	for i := range t.shards {
		sh := &t.shards[i]
		sh.mu.Lock()
		sh.logs = make(map[domain.Key][]time.Time)
		sh.mu.Unlock()
	}
}

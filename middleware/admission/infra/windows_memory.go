package infra

import (
	"sync"
	"time"

	"admission-gateway/middleware/admission/domain"
)

type windowKey struct {
	tier domain.TierName
	key  domain.Key
}

type fixedWindow struct {
	count int
	start time.Time
}

type windowShard struct {
	mu      sync.Mutex
	windows map[windowKey]*fixedWindow
}

// MemoryWindowSet é a implementação em memória de domain.WindowLimiter:
// um contador de janela fixa por (identidade, tier).
//
// Janelas vencidas são recriadas na próxima requisição; Cleanup remove as que
// ninguém mais tocou, para a memória não crescer com identidades bem-comportadas.
type MemoryWindowSet struct {
	tiers  map[domain.TierName]domain.Tier
	shards [shardCount]windowShard
	now    func() time.Time
}

var _ domain.WindowLimiter = (*MemoryWindowSet)(nil)

func NewMemoryWindowSet(tiers []domain.Tier, opts ...Option) *MemoryWindowSet {
	o := buildOptions(opts)
	s := &MemoryWindowSet{
		tiers: make(map[domain.TierName]domain.Tier, len(tiers)),
		now:   o.now,
	}
	for _, t := range tiers {
		s.tiers[t.Name] = t
	}
	for i := range s.shards {
		s.shards[i].windows = make(map[windowKey]*fixedWindow)
	}
	return s
}

// Tier retorna a definição do tier.
func (s *MemoryWindowSet) Tier(name domain.TierName) (domain.Tier, bool) {
	t, ok := s.tiers[name]
	return t, ok
}

// CheckAndConsume consome uma unidade da janela atual do tier.
// Tier desconhecido sempre permite e não guarda estado.
func (s *MemoryWindowSet) CheckAndConsume(key domain.Key, name domain.TierName) domain.WindowResult {
	tier, ok := s.tiers[name]
	if !ok {
		return domain.WindowResult{Allowed: true}
	}

	now := s.now()
	wk := windowKey{tier: name, key: key}
	sh := &s.shards[shardIndex(key)]

	sh.mu.Lock()
	defer sh.mu.Unlock()

	w, ok := sh.windows[wk]
	if !ok || now.Sub(w.start) >= tier.Window {
		w = &fixedWindow{count: 1, start: now}
		sh.windows[wk] = w
		return domain.WindowResult{Allowed: true, ResetAt: now.Add(tier.Window), WindowStart: now}
	}

	res := domain.WindowResult{ResetAt: w.start.Add(tier.Window), WindowStart: w.start}
	if w.count < tier.Max {
		w.count++
		res.Allowed = true
	}
	return res
}

// Refund devolve uma unidade consumida. Se a janela já virou, não faz nada:
// o consumo pertencia a uma janela que não existe mais.
func (s *MemoryWindowSet) Refund(c domain.Consumption) {
	wk := windowKey{tier: c.Tier, key: c.Key}
	sh := &s.shards[shardIndex(c.Key)]

	sh.mu.Lock()
	defer sh.mu.Unlock()

	w, ok := sh.windows[wk]
	if !ok || !w.start.Equal(c.WindowStart) || w.count == 0 {
		return
	}
	w.count--
}

// Count retorna o contador da janela atual (0 se vencida ou inexistente).
func (s *MemoryWindowSet) Count(key domain.Key, name domain.TierName) int {
	tier, ok := s.tiers[name]
	if !ok {
		return 0
	}
	now := s.now()
	sh := &s.shards[shardIndex(key)]

	sh.mu.Lock()
	defer sh.mu.Unlock()

	w, ok := sh.windows[windowKey{tier: name, key: key}]
	if !ok || now.Sub(w.start) >= tier.Window {
		return 0
	}
	return w.count
}

// Cleanup remove janelas vencidas.
func (s *MemoryWindowSet) Cleanup() {
	now := s.now()
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for wk, w := range sh.windows {
			tier, ok := s.tiers[wk.tier]
			if !ok || now.Sub(w.start) >= tier.Window {
				delete(sh.windows, wk)
			}
		}
		sh.mu.Unlock()
	}
}

// Len retorna o número de janelas guardadas (todas as identidades e tiers).
func (s *MemoryWindowSet) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.windows)
		sh.mu.Unlock()
	}
	return n
}

func (s *MemoryWindowSet) Reset() {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		sh.windows = make(map[windowKey]*fixedWindow)
		sh.mu.Unlock()
	}
}

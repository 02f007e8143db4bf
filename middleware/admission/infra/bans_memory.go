package infra

import (
	"sync"
	"time"

	"admission-gateway/middleware/admission/domain"
)

// banEntry guarda o último ban de uma identidade.
// Depois que o ban expira a entrada fica inativa, mas o contador de violações
// continua até a identidade passar StrikeRetention sem novos bans.
type banEntry struct {
	until      time.Time
	violations int
	active     bool
}

type banShard struct {
	mu      sync.Mutex
	entries map[domain.Key]*banEntry
}

// MemoryBanStore é a implementação em memória de domain.BanStore.
// A expiração é descoberta na leitura (IsBanned); Cleanup só libera memória.
type MemoryBanStore struct {
	shards    [shardCount]banShard
	retention time.Duration
	now       func() time.Time
}

var _ domain.BanStore = (*MemoryBanStore)(nil)

func NewMemoryBanStore(strikeRetention time.Duration, opts ...Option) *MemoryBanStore {
	o := buildOptions(opts)
	s := &MemoryBanStore{retention: strikeRetention, now: o.now}
	for i := range s.shards {
		s.shards[i].entries = make(map[domain.Key]*banEntry)
	}
	return s
}

func (s *MemoryBanStore) shard(key domain.Key) *banShard {
	return &s.shards[shardIndex(key)]
}

func (s *MemoryBanStore) IsBanned(key domain.Key) bool {
	now := s.now()
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	ent, ok := sh.entries[key]
	if !ok || !ent.active {
		return false
	}
	if now.After(ent.until) {
		ent.active = false
		return false
	}
	return true
}

// Ban cria (ou sobrescreve) o ban da identidade e incrementa o contador.
func (s *MemoryBanStore) Ban(key domain.Key, d time.Duration) domain.BanRecord {
	if d < 0 {
		d = 0
	}
	now := s.now()
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	ent, ok := sh.entries[key]
	if !ok {
		ent = &banEntry{}
		sh.entries[key] = ent
	}
	if s.strikesForgotten(ent, now) {
		ent.violations = 0
	}
	ent.violations++
	ent.until = now.Add(d)
	ent.active = true

	return domain.BanRecord{BannedUntil: ent.until, Violations: ent.violations}
}

// Record retorna o ban ativo da identidade, se houver.
func (s *MemoryBanStore) Record(key domain.Key) (domain.BanRecord, bool) {
	now := s.now()
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	ent, ok := sh.entries[key]
	if !ok || !ent.active || now.After(ent.until) {
		return domain.BanRecord{}, false
	}
	return domain.BanRecord{BannedUntil: ent.until, Violations: ent.violations}, true
}

// Unban levanta o ban sem zerar o contador de violações.
func (s *MemoryBanStore) Unban(key domain.Key) {
	now := s.now()
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if ent, ok := sh.entries[key]; ok && ent.active {
		ent.active = false
		if ent.until.After(now) {
			ent.until = now
		}
	}
}

// Cleanup expira bans vencidos e esquece identidades sem ban há mais de
// StrikeRetention. Com retenção zero o contador nunca é esquecido.
func (s *MemoryBanStore) Cleanup() {
	now := s.now()
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for k, ent := range sh.entries {
			if ent.active && now.After(ent.until) {
				ent.active = false
			}
			if !ent.active && s.strikesForgotten(ent, now) {
				delete(sh.entries, k)
			}
		}
		sh.mu.Unlock()
	}
}

func (s *MemoryBanStore) strikesForgotten(ent *banEntry, now time.Time) bool {
	if s.retention <= 0 || ent.violations == 0 {
		return false
	}
	return now.Sub(ent.until) > s.retention
}

// Len retorna quantas identidades têm entrada (ban ativo ou contador retido).
func (s *MemoryBanStore) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

func (s *MemoryBanStore) Reset() {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		sh.entries = make(map[domain.Key]*banEntry)
		sh.mu.Unlock()
	}
}

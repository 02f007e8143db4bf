package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"admission-gateway/middleware/admission/domain"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturePipelines intercepta os pipelines antes da rede e guarda os comandos.
type capturePipelines struct {
	mu   sync.Mutex
	cmds []string
	err  error
}

func (h *capturePipelines) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *capturePipelines) ProcessHook(next redis.ProcessHook) redis.ProcessHook { return next }

func (h *capturePipelines) ProcessPipelineHook(redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(_ context.Context, cmds []redis.Cmder) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		for _, c := range cmds {
			parts := make([]string, 0, len(c.Args()))
			for _, a := range c.Args() {
				parts = append(parts, fmt.Sprint(a))
			}
			h.cmds = append(h.cmds, strings.Join(parts, " "))
		}
		return h.err
	}
}

func newCapturedClient(t *testing.T) (*redis.Client, *capturePipelines) {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = rdb.Close() })
	hook := &capturePipelines{}
	rdb.AddHook(hook)
	return rdb, hook
}

func TestRedisStatsStore_RecordRateLimited(t *testing.T) {
	rdb, hook := newCapturedClient(t)
	s := NewRedisStatsStore(rdb, WithStatsTTL(time.Hour), WithStatsTrackKeys(true))

	err := s.Record(context.Background(), domain.StatsEvent{
		Key:     "10.0.0.1",
		Outcome: domain.RateLimited,
		Tier:    domain.TierBurst,
		Method:  "GET",
		Path:    "/api/posts",
		At:      time.Unix(1_700_000_000, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"hincrby admission:stats:total rate_limited 1",
		"hincrby admission:stats:minute:202311142213 rate_limited 1",
		"expire admission:stats:minute:202311142213 3600",
		"hincrby admission:stats:tier burst 1",
		"hincrby admission:stats:route GET /api/posts:rate_limited 1",
		"hincrby admission:stats:key:10.0.0.1 rate_limited 1",
		"expire admission:stats:key:10.0.0.1 3600",
	}, hook.cmds)
}

func TestRedisStatsStore_AllowedWithoutBucket(t *testing.T) {
	rdb, hook := newCapturedClient(t)
	s := NewRedisStatsStore(rdb, WithStatsPrefix("gw:stats:"), WithStatsBucket(" None "))

	err := s.Record(context.Background(), domain.StatsEvent{
		Key:     "10.0.0.1",
		Outcome: domain.Allowed,
		Tier:    domain.TierAPI,
		Method:  "POST",
		Path:    "/login",
		At:      time.Unix(1_700_000_000, 0),
	})
	require.NoError(t, err)

	// tier só conta rejeições; sem trackKeys não há hash por identidade
	assert.Equal(t, []string{
		"hincrby gw:stats:total allowed 1",
		"hincrby gw:stats:route POST /login:allowed 1",
	}, hook.cmds)
}

func TestRedisStatsStore_ReturnsPipelineError(t *testing.T) {
	rdb, hook := newCapturedClient(t)
	hook.err = errors.New("redis down")
	s := NewRedisStatsStore(rdb)

	err := s.Record(context.Background(), domain.StatsEvent{Outcome: domain.Banned})
	assert.EqualError(t, err, "redis down")
	assert.Contains(t, hook.cmds, "hincrby admission:stats:total banned 1")
}

func TestRedisStatsStore_NilIsNoop(t *testing.T) {
	var s *RedisStatsStore
	assert.NoError(t, s.Record(context.Background(), domain.StatsEvent{Outcome: domain.Allowed}))
}

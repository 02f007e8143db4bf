package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"admission-gateway/internal/logging"
	"admission-gateway/middleware/admission"
	"admission-gateway/middleware/admission/domain"
	"admission-gateway/middleware/admission/infra"

	"github.com/joho/godotenv"
)

type config struct {
	listenAddr         string
	upstreamURL        string
	admissionEnabled   bool
	policy             domain.Policy
	apiPrefixes        []string
	authPaths          []string
	noticePath         string
	sweepEvery         time.Duration
	rateKeyHeader      string
	trustXFF           bool
	addHeaders         bool
	concurrencyMax     int
	concurrencyTimeout time.Duration

	rateStatsEnabled       bool
	rateStatsRedisAddr     string
	rateStatsRedisPassword string
	rateStatsRedisDB       int
	rateStatsPrefix        string
	rateStatsTTL           time.Duration
	rateStatsBucket        string
	rateStatsTrackKeys     bool

	log logging.Config
}

func readConfig() (config, error) {
	// .env é opcional; variáveis já exportadas têm precedência
	if err := godotenv.Load(getenvDefault("ENV_FILE", ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.upstreamURL = os.Getenv("UPSTREAM_URL")
	cfg.admissionEnabled = getenvBoolDefault("ADMISSION_ENABLED", true)
	cfg.apiPrefixes = getenvListDefault("ADMISSION_API_PREFIXES", admission.DefaultAPIPrefixes)
	cfg.authPaths = getenvListDefault("ADMISSION_AUTH_PATHS", admission.DefaultAuthPaths)
	cfg.noticePath = getenvDefault("ADMISSION_NOTICE_PATH", "/rate-limited")
	cfg.sweepEvery = getenvDurationDefault("ADMISSION_SWEEP_EVERY", time.Minute)
	cfg.rateKeyHeader = os.Getenv("RATE_KEY_HEADER")
	cfg.trustXFF = getenvBoolDefault("TRUST_XFF", false)
	cfg.addHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", false)
	cfg.concurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 100)
	cfg.concurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 0)

	cfg.rateStatsEnabled = getenvBoolDefault("RATE_STATS_ENABLED", false)
	cfg.rateStatsRedisAddr = getenvDefault("RATE_STATS_REDIS_ADDR", "")
	cfg.rateStatsRedisPassword = os.Getenv("RATE_STATS_REDIS_PASSWORD")
	cfg.rateStatsRedisDB = getenvIntDefault("RATE_STATS_REDIS_DB", 0)
	cfg.rateStatsPrefix = getenvDefault("RATE_STATS_PREFIX", "admission:stats")
	cfg.rateStatsTTL = getenvDurationDefault("RATE_STATS_TTL", 24*time.Hour)
	cfg.rateStatsBucket = getenvDefault("RATE_STATS_BUCKET", "minute")
	cfg.rateStatsTrackKeys = getenvBoolDefault("RATE_STATS_TRACK_KEYS", false)

	cfg.log = logging.Config{
		Level:  getenvDefault("LOG_LEVEL", "info"),
		Format: getenvDefault("LOG_FORMAT", "text"),
	}

	policy, err := readPolicy()
	if err != nil {
		return config{}, err
	}
	cfg.policy = policy

	if cfg.rateStatsEnabled && strings.TrimSpace(cfg.rateStatsRedisAddr) == "" {
		return config{}, errors.New("RATE_STATS_REDIS_ADDR is required when RATE_STATS_ENABLED=true")
	}
	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	if !strings.HasPrefix(cfg.noticePath, "/") {
		return config{}, errors.New("ADMISSION_NOTICE_PATH must start with /")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	return cfg, nil
}

// readPolicy: padrão -> arquivo YAML (opcional) -> variáveis de ambiente.
func readPolicy() (domain.Policy, error) {
	p := domain.DefaultPolicy()
	if path := os.Getenv("ADMISSION_POLICY_FILE"); path != "" {
		loaded, err := infra.LoadPolicyFile(path, p)
		if err != nil {
			return domain.Policy{}, fmt.Errorf("ADMISSION_POLICY_FILE: %w", err)
		}
		p = loaded
	}

	p.ViolationWindow = getenvDurationDefault("ADMISSION_VIOLATION_WINDOW", p.ViolationWindow)
	p.BanThreshold = getenvIntDefault("ADMISSION_BAN_THRESHOLD", p.BanThreshold)
	p.BanDuration = getenvDurationDefault("ADMISSION_BAN_DURATION", p.BanDuration)
	p.StrikeRetention = getenvDurationDefault("ADMISSION_STRIKE_RETENTION", p.StrikeRetention)

	if err := p.Validate(); err != nil {
		return domain.Policy{}, err
	}
	return p, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// getenvListDefault lê uma lista separada por vírgula.
func getenvListDefault(k string, def []string) []string {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

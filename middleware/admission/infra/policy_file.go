package infra

import (
	"fmt"
	"os"
	"time"

	"admission-gateway/middleware/admission/domain"

	"gopkg.in/yaml.v3"
)

// Formato do arquivo de política (todos os campos opcionais):
//
//	tiers:
//	  burst:     {window: 1s,  max: 50}
//	  sustained: {window: 1m,  max: 100}
//	  api:       {window: 15m, max: 200}
//	  auth:      {window: 1m,  max: 5, skip_successful: true}
//	violation_window: 5m
//	ban_threshold: 5
//	ban_duration: 15m
//	strike_retention: 0s # opcional: esquece o contador após esse tempo sem ban
type policyFile struct {
	Tiers struct {
		Burst     *tierFile `yaml:"burst"`
		Sustained *tierFile `yaml:"sustained"`
		API       *tierFile `yaml:"api"`
		Auth      *tierFile `yaml:"auth"`
	} `yaml:"tiers"`
	ViolationWindow *time.Duration `yaml:"violation_window"`
	BanThreshold    *int           `yaml:"ban_threshold"`
	BanDuration     *time.Duration `yaml:"ban_duration"`
	StrikeRetention *time.Duration `yaml:"strike_retention"`
}

type tierFile struct {
	Window         *time.Duration `yaml:"window"`
	Max            *int           `yaml:"max"`
	SkipSuccessful *bool          `yaml:"skip_successful"`
}

func (f *tierFile) apply(t *domain.Tier) {
	if f == nil {
		return
	}
	if f.Window != nil {
		t.Window = *f.Window
	}
	if f.Max != nil {
		t.Max = *f.Max
	}
	if f.SkipSuccessful != nil {
		t.SkipSuccessful = *f.SkipSuccessful
	}
}

// LoadPolicyFile lê um YAML de política por cima de base e valida o resultado.
func LoadPolicyFile(path string, base domain.Policy) (domain.Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicy(raw, base)
}

func ParsePolicy(raw []byte, base domain.Policy) (domain.Policy, error) {
	var f policyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return domain.Policy{}, fmt.Errorf("decode policy: %w", err)
	}

	p := base
	f.Tiers.Burst.apply(&p.Burst)
	f.Tiers.Sustained.apply(&p.Sustained)
	f.Tiers.API.apply(&p.API)
	f.Tiers.Auth.apply(&p.Auth)
	if f.ViolationWindow != nil {
		p.ViolationWindow = *f.ViolationWindow
	}
	if f.BanThreshold != nil {
		p.BanThreshold = *f.BanThreshold
	}
	if f.BanDuration != nil {
		p.BanDuration = *f.BanDuration
	}
	if f.StrikeRetention != nil {
		p.StrikeRetention = *f.StrikeRetention
	}

	if err := p.Validate(); err != nil {
		return domain.Policy{}, err
	}
	return p, nil
}

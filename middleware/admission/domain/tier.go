package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPolicy é retornado quando a política de admissão é inconsistente.
var ErrInvalidPolicy = errors.New("admission: invalid policy")

// TierName identifica um tier na tabela de limites.
type TierName string

const (
	TierBurst     TierName = "burst"
	TierSustained TierName = "sustained"
	TierAPI       TierName = "api"
	TierAuth      TierName = "auth"
)

// Tier é uma dimensão de limite de janela fixa.
type Tier struct {
	Name   TierName
	Window time.Duration
	Max    int
	// SkipSuccessful faz requisições bem-sucedidas não contarem na capacidade.
	SkipSuccessful bool
}

// Policy reúne os tiers e as regras de escalonamento para ban.
// É configuração imutável: construída no start e compartilhada por valor.
type Policy struct {
	Burst     Tier
	Sustained Tier
	API       Tier
	Auth      Tier

	ViolationWindow time.Duration
	BanThreshold    int
	BanDuration     time.Duration
	// StrikeRetention é quanto tempo sem bans até o contador de violações ser esquecido.
	// Zero (padrão) mantém o contador enquanto o processo viver.
	StrikeRetention time.Duration
}

// DefaultPolicy retorna os limites padrão: burst 1s/50, sustained 60s/100, api 15m/200 e auth 60s/5.
func DefaultPolicy() Policy {
	return Policy{
		Burst:           Tier{Name: TierBurst, Window: time.Second, Max: 50},
		Sustained:       Tier{Name: TierSustained, Window: time.Minute, Max: 100},
		API:             Tier{Name: TierAPI, Window: 15 * time.Minute, Max: 200},
		Auth:            Tier{Name: TierAuth, Window: time.Minute, Max: 5, SkipSuccessful: true},
		ViolationWindow: 5 * time.Minute,
		BanThreshold:    5,
		BanDuration:     15 * time.Minute,
	}
}

// Tiers retorna os quatro tiers na ordem fixa de avaliação.
func (p Policy) Tiers() []Tier {
	return []Tier{p.Burst, p.Sustained, p.API, p.Auth}
}

// Global retorna os tiers que valem para toda requisição.
func (p Policy) Global() []Tier {
	return []Tier{p.Burst, p.Sustained}
}

// Conditional retorna os tiers que dependem da rota, na ordem de avaliação.
func (p Policy) Conditional(route Route) []Tier {
	var out []Tier
	if route.Programmatic {
		out = append(out, p.API)
	}
	if route.Auth {
		out = append(out, p.Auth)
	}
	return out
}

// Validate rejeita políticas com janelas, limites ou durações não positivos e tiers repetidos.
func (p Policy) Validate() error {
	seen := make(map[TierName]bool, 4)
	for _, t := range p.Tiers() {
		if t.Name == "" {
			return fmt.Errorf("%w: tier without name", ErrInvalidPolicy)
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: duplicated tier %q", ErrInvalidPolicy, t.Name)
		}
		seen[t.Name] = true
		if t.Window <= 0 {
			return fmt.Errorf("%w: tier %q window must be > 0", ErrInvalidPolicy, t.Name)
		}
		if t.Max <= 0 {
			return fmt.Errorf("%w: tier %q max must be > 0", ErrInvalidPolicy, t.Name)
		}
	}
	if p.ViolationWindow <= 0 {
		return fmt.Errorf("%w: violation window must be > 0", ErrInvalidPolicy)
	}
	if p.BanThreshold <= 0 {
		return fmt.Errorf("%w: ban threshold must be > 0", ErrInvalidPolicy)
	}
	if p.BanDuration <= 0 {
		return fmt.Errorf("%w: ban duration must be > 0", ErrInvalidPolicy)
	}
	if p.StrikeRetention < 0 {
		return fmt.Errorf("%w: strike retention must be >= 0", ErrInvalidPolicy)
	}
	return nil
}

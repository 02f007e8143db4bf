package application

import (
	"admission-gateway/middleware/admission/domain"
)

// Pipeline concentra a regra de admissão por requisição:
// ban → tiers globais → tiers da rota → registro de violação → veredicto.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna um Verdict.
type Pipeline struct {
	Bans       domain.BanStore
	Limits     domain.WindowLimiter
	Violations domain.ViolationRecorder
	Policy     domain.Policy
}

func (p Pipeline) Admit(key domain.Key, route domain.Route) domain.Verdict {
	// ban primeiro: barato e corta todo o resto para quem já foi sancionado
	if p.Bans != nil && p.Bans.IsBanned(key) {
		return domain.Verdict{Outcome: domain.Banned}
	}
	if p.Limits == nil {
		return domain.Verdict{Outcome: domain.Allowed}
	}

	var (
		rejected domain.TierName
		res      domain.WindowResult
	)

	// burst e sustained sempre rodam, mesmo que o primeiro rejeite
	for _, t := range p.Policy.Global() {
		r := p.Limits.CheckAndConsume(key, t.Name)
		if !r.Allowed && rejected == "" {
			rejected, res = t.Name, r
		}
	}

	var pending *domain.Consumption
	if rejected == "" {
		for _, t := range p.Policy.Conditional(route) {
			r := p.Limits.CheckAndConsume(key, t.Name)
			if !r.Allowed {
				rejected, res = t.Name, r
				break
			}
			if t.SkipSuccessful {
				pending = &domain.Consumption{Key: key, Tier: t.Name, WindowStart: r.WindowStart}
			}
		}
	}

	if rejected != "" {
		v := domain.Verdict{Outcome: domain.RateLimited, Tier: rejected, ResetAt: res.ResetAt}
		if p.Violations != nil {
			v.Escalated = p.Violations.RecordViolation(key)
		}
		return v
	}
	return domain.Verdict{Outcome: domain.Allowed, Pending: pending}
}

// Settle liquida o consumo provisório de um tier skip-successful:
// se a requisição deu certo, o consumo é desfeito; senão ele fica valendo.
func (p Pipeline) Settle(v domain.Verdict, succeeded bool) {
	if v.Pending == nil || !succeeded || p.Limits == nil {
		return
	}
	p.Limits.Refund(*v.Pending)
}

package domain

// Camada de domínio do controle de admissão.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "time"

// Key é a identidade opaca do cliente (normalmente um IP).
// Nenhuma validação é feita: o valor recebido é tratado como autoritativo.
type Key string

// Route é a classificação da rota, resolvida uma única vez na entrada.
type Route struct {
	// Programmatic indica endpoint consumido por código (API, JSON).
	Programmatic bool
	// Auth indica o endpoint de autenticação.
	Auth bool
}

// BanRecord é o ban ativo de uma identidade.
type BanRecord struct {
	BannedUntil time.Time
	// Violations conta quantos bans a identidade já recebeu.
	// Hoje é apenas informativo: a duração do ban não cresce com ele.
	Violations int
}

// ActiveAt informa se o ban ainda vale em now. Em now == BannedUntil ainda vale.
func (b BanRecord) ActiveAt(now time.Time) bool {
	return !now.After(b.BannedUntil)
}

// BanStore guarda bans por identidade com expiração preguiçosa.
type BanStore interface {
	IsBanned(key Key) bool
	Ban(key Key, d time.Duration) BanRecord
}

// ViolationRecorder registra violações de limite e decide quando banir.
// Retorna true quando a violação registrada disparou um ban.
type ViolationRecorder interface {
	RecordViolation(key Key) bool
}

// WindowResult é o resultado de uma consulta a um tier.
type WindowResult struct {
	Allowed bool
	// ResetAt é quando a janela atual termina.
	ResetAt time.Time
	// WindowStart identifica a janela consumida (usado pelo Refund).
	WindowStart time.Time
}

// Consumption identifica uma unidade consumida numa janela específica.
type Consumption struct {
	Key         Key
	Tier        TierName
	WindowStart time.Time
}

// WindowLimiter é o conjunto de contadores de janela fixa por (identidade, tier).
type WindowLimiter interface {
	CheckAndConsume(key Key, tier TierName) WindowResult
	// Refund desfaz um consumo, se a janela consumida ainda for a atual.
	Refund(c Consumption)
}

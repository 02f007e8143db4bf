// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - MemoryBanStore: bans por identidade com expiração preguiçosa
//   - MemoryViolationTracker: log deslizante de violações que escala para ban
//   - MemoryWindowSet: contadores de janela fixa por (identidade, tier)
//   - StartJanitor: varredura periódica para manter a memória limitada
//   - MemoryStatsStore / RedisStatsStore: estatísticas de veredictos
//   - ChanPool: semáforo simples para limite de concorrência
//
// Todo estado é local ao processo e se perde no restart.
package infra

// Package admission fornece adapters HTTP (net/http) para o controle de admissão
// (rate limit em tiers + ban de reincidentes) e para o limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (pipeline de admissão, dispatcher de veredicto, acquire/timeout)
//   - infra: implementações concretas (bans, violações, janelas fixas, stats, semáforo)
//   - admission (este pacote): middlewares HTTP + extração de chave + classificação de
//     rota + tradução do veredicto para status/headers/corpo
//
// Fluxo no gateway:
//
//  1. Extrai a chave do cliente (IP/header/XFF) e classifica a rota (API? auth?)
//  2. Chama o Pipeline para obter o veredicto
//  3. Banido responde 403; limitado responde 429 JSON (API) ou redirect (navegador)
//  4. Se permitido, chama o próximo handler e, no endpoint de auth, devolve o
//     consumo quando a resposta foi bem-sucedida
//
// Variáveis de ambiente do binário gateway (cmd/gateway) controlam o comportamento,
// como ADMISSION_POLICY_FILE, ADMISSION_API_PREFIXES, CONCURRENCY_MAX e LOG_LEVEL.
package admission

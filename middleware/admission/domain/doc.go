// Package domain define contratos e tipos de domínio do controle de admissão:
// identidade do cliente, classificação de rota, tiers de limite, bans e veredictos.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar regras de negócio
// de detalhes de infraestrutura.
package domain

// Package application contém os casos de uso do controle de admissão
// e do limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Pipeline.Admit(key, route) retorna um Verdict (allowed/rate_limited/banned)
// e Dispatcher.Dispatch traduz o Verdict numa descrição de resposta.
package application

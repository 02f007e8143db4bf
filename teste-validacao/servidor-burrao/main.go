// servidor-burrao é um upstream burro para validar o gateway na mão:
// UPSTREAM_URL=http://localhost:8081 go run ./cmd/gateway
package main

import (
	"fmt"
	"log/slog"
	"net/http"
)

func main() {
	http.HandleFunc("/showTela", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<h1>Tela do Sistema</h1><p>Requisição recebida com sucesso!</p>")
		slog.Info("showTela accessed", "remote", r.RemoteAddr)
	})
	http.HandleFunc("/api/posts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":1,"title":"primeiro post"}]`)
	})
	// senha "certa" responde 200, qualquer outra 401: exercita o tier de auth
	http.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("senha") != "certa" {
			http.Error(w, "credenciais inválidas", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, "ok")
	})
	http.HandleFunc("/rate-limited", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<h1>Calma!</h1><p>Muitas requisições, tente de novo daqui a pouco.</p>")
	})

	slog.Info("upstream listening", "addr", "http://localhost:8081")
	if err := http.ListenAndServe(":8081", nil); err != nil {
		slog.Error("server error", "error", err)
	}
}

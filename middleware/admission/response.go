package admission

import (
	"encoding/json"
	"net/http"

	"admission-gateway/middleware/admission/domain"
)

const DefaultForbiddenBody = "Forbidden: this client has been temporarily banned for repeated rate limit violations.\n"

// writeResponse traduz a descrição do dispatcher para net/http.
// Retorna false quando não há resposta (a requisição deve seguir).
func writeResponse(w http.ResponseWriter, r *http.Request, resp domain.Response, forbiddenBody string) bool {
	switch resp.Kind {
	case domain.ResponseForbidden:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(forbiddenBody))
		return true

	case domain.ResponseTooManyRequests:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if resp.Payload != nil {
			w.Header().Set("Retry-After", formatInt64(resp.Payload.RetryAfter))
		}
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(resp.Payload)
		return true

	case domain.ResponseRedirect:
		http.Redirect(w, r, resp.Location, http.StatusFound)
		return true
	}
	return false
}

// statusRecorder guarda o status escrito pelo handler seguinte para decidir
// se a requisição de auth deu certo.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// Unwrap permite http.ResponseController alcançar o writer original.
func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// succeeded segue a regra usual de skip-successful: status < 400.
// Handler que não escreve nada conta como 200.
func (s *statusRecorder) succeeded() bool {
	return s.status == 0 || s.status < http.StatusBadRequest
}

package admission

import (
	"net/http"
	"strings"

	"admission-gateway/middleware/admission/domain"
)

// RouteClassifier resolve a classificação da rota uma única vez, na entrada.
type RouteClassifier func(r *http.Request) domain.Route

var (
	DefaultAPIPrefixes = []string{"/api/"}
	DefaultAuthPaths   = []string{"/api/auth/login", "/login"}
)

// PathClassifier classifica por caminho: prefixos de API marcam rota programática,
// caminhos de auth precisam bater exatamente (barra final ignorada).
func PathClassifier(apiPrefixes, authPaths []string) RouteClassifier {
	auth := make(map[string]bool, len(authPaths))
	for _, p := range authPaths {
		if p = normalizePath(p); p != "" {
			auth[p] = true
		}
	}
	prefixes := make([]string, 0, len(apiPrefixes))
	for _, p := range apiPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}

	return func(r *http.Request) domain.Route {
		path := r.URL.Path
		route := domain.Route{Auth: auth[normalizePath(path)]}
		for _, p := range prefixes {
			if strings.HasPrefix(path, p) || path == strings.TrimSuffix(p, "/") {
				route.Programmatic = true
				break
			}
		}
		return route
	}
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

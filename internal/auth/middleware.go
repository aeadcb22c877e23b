package auth

import (
	"net/http"
	"strings"

	"github.com/amanah-org/amanah/internal/platform/httpx"
	"github.com/amanah-org/amanah/internal/shared"
)

// Middleware verifies the bearer token on every request and attaches the
// actor to the context. Requests without a valid, unrevoked token are
// rejected before any handler runs.
func Middleware(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthenticated", "missing bearer token")
				return
			}
			actor, err := service.Verify(r.Context(), raw)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"peopleops.org/internal/auth"
	"peopleops.org/internal/policy"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/auth/register",
	"/auth/login",
	"/healthz",
	"/readyz",
	"/info",
	"/metrics",
	"/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := auth.ParseAndValidate(token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidToken):
				writeError(w, r, http.StatusUnauthorized, "invalid token")
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		principal := auth.Principal{
			UserID:     claims.Subject,
			EmployeeID: claims.EmployeeID,
			Role:       claims.Role,
			IsAdmin:    claims.IsAdmin,
		}
		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actorFrom converts the authenticated principal into the shape the policy
// evaluator works with. The bool mirrors PrincipalFromContext.
func actorFrom(r *http.Request) (policy.Actor, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return policy.Actor{}, false
	}
	role, err := policy.ParseRole(principal.Role)
	if err != nil {
		return policy.Actor{}, false
	}
	return policy.Actor{
		UserID:     principal.UserID,
		EmployeeID: principal.EmployeeID,
		Role:       role,
		IsAdmin:    principal.IsAdmin,
	}, true
}

// requireActor writes the 401 itself so handlers can bail with one line.
func (a *API) requireActor(w http.ResponseWriter, r *http.Request) (policy.Actor, bool) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
	}
	return actor, ok
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

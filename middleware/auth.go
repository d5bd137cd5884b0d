package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/paulIordache/Architecture-Web/core"
	"github.com/paulIordache/Architecture-Web/handlers/auth"
	"github.com/sirupsen/logrus"
)

type contextKey string

const ClaimsContextKey = contextKey("claims")

var (
	errMissingHeader = errors.New("Authorization header is required")
	errBadScheme     = errors.New("Authorization header format must be Bearer {token}")
	errInvalidToken  = errors.New("Invalid token")
)

// bearerToken extracts the credential from an Authorization header. The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", errBadScheme
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", errBadScheme
	}
	return token, nil
}

func unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	logrus.WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"request_id": r.Header.Get("X-Request-ID"),
	}).WithError(err).Debug("Request rejected")

	w.Header().Set("WWW-Authenticate", `Bearer realm="planner"`)
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]string{"error": err.Error()})
}

// AuthJWT admits requests carrying a valid token for a known user id and
// stores its claims in the request context.
func AuthJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r.Header.Get("Authorization"))
		if err != nil {
			unauthorized(w, r, err)
			return
		}

		claims, err := auth.ParseJWT(token)
		if err != nil || claims.UserID == core.NoID {
			unauthorized(w, r, errInvalidToken)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ClaimsContextKey, claims)))
	})
}

// Claims returns the claims stored by AuthJWT.
func Claims(ctx context.Context) (*auth.AppClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*auth.AppClaims)
	return claims, ok
}

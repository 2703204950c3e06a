package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

// Require rejects requests without a valid bearer token. onUnauthorized writes
// the rejection so callers control the response envelope.
func (i *Issuer) Require(onUnauthorized http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				onUnauthorized(w, r)
				return
			}
			claims, err := i.Parse(token)
			if err != nil {
				onUnauthorized(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), claims.Subject)))
		})
	}
}

// WithSubject stores the authenticated username on ctx.
func WithSubject(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, contextKey{}, username)
}

// Subject returns the authenticated username stored by Require.
func Subject(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(contextKey{}).(string)
	return username, ok && username != ""
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}

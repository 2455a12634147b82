package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-performance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/jwt"
)

type callerKey struct{}

// AuthRequired rejects requests without a verified access token and stores
// the caller in the request context. jwtauth.Verifier must run first.
func AuthRequired(jwtService jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			caller, err := jwtService.CallerFromContext(r.Context())
			if err != nil {
				response.HandleError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), callerKey{}, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}

// CallerFrom returns the caller stored by AuthRequired.
func CallerFrom(ctx context.Context) (user.Caller, error) {
	caller, ok := ctx.Value(callerKey{}).(user.Caller)
	if !ok {
		return user.Caller{}, auth.ErrInvalidToken
	}
	return caller, nil
}

// WithCaller is used by handlers under test that bypass token verification.
func WithCaller(ctx context.Context, caller user.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

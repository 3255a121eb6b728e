package middle

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pagewatch/internals/security"
	"pagewatch/pkg/apperror"
	"pagewatch/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
)

type Middleware func(http.Handler) http.Handler

type claimsCtxKeyType struct{}

var claimsCtxKey = claimsCtxKeyType{}

type TokenValidator interface {
	ValidateAccessToken(token string) (*security.RequestClaims, error)
}

type AuthMiddleware struct {
	tokens TokenValidator
}

func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
	}
}

// Handle rejects requests without a valid bearer token and stores the
// claims in the request context.
func (a *AuthMiddleware) Handle(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		reqID := middleware.GetReqID(ctx)

		token, err := extractBearerToken(r)
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, err.Error())
			return
		}

		claims, err := a.tokens.ValidateAccessToken(token)
		if err != nil {
			utils.FromAppError(w, reqID, err)
			return
		}

		if claims.Subject == "" {
			utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "operator is unauthorised")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, claimsCtxKey, claims)))
	}

	return http.HandlerFunc(fn)
}

func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")

	if authHeader == "" {
		return "", errors.New("missing Authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errors.New("invalid Authorization header")
	}

	return parts[1], nil
}

func ClaimsFromContext(ctx context.Context) (*security.RequestClaims, bool) {
	claims, ok := ctx.Value(claimsCtxKey).(*security.RequestClaims)
	return claims, ok
}

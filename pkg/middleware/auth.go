package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/parcelhub/pkg/auth"
	"github.com/shashiranjanraj/parcelhub/pkg/logger"
	"github.com/shashiranjanraj/parcelhub/pkg/response"
)

// Auth requires a bearer token verified by v. A missing or malformed
// Authorization header is 401, a token that fails verification is 403 and
// an unreachable identity provider is 503. Verified claims are stored in the
// request context (auth.FromCtx).
func Auth(v auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				response.Unauthorized(w, "unauthorized access")
				return
			}

			claims, err := v.Verify(r.Context(), token)
			if err != nil {
				log := logger.WithCtx(r.Context())
				if errors.Is(err, auth.ErrKeysUnavailable) {
					log.Error("token verification unavailable", "error", err)
					response.ErrorDetail(w, http.StatusServiceUnavailable, "token verification unavailable", err.Error())
					return
				}
				log.Info("token rejected", "error", err)
				response.Forbidden(w, "forbidden access")
				return
			}

			ctx := auth.WithClaims(r.Context(), claims)
			ctx = logger.InjectLogger(ctx, logger.WithCtx(ctx).With("caller", claims.Email))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

package middleware

import (
	"errors"
	"net/http"

	"dashworker/pkg/auth"
	"dashworker/pkg/common"

	"go.uber.org/zap"
)

// Authenticate gates requests on a bearer token and attaches the caller
// identity to the request context. With a JWT secret configured the token
// signature and expiry are checked locally; otherwise the token passes
// through and the backing store enforces row-level authorization. Either
// way, a missing or malformed header is rejected before any store call.
func Authenticate(validator *auth.Validator, limiter *auth.RateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.ExtractBearer(r.Header.Get("Authorization"))
			if !ok {
				respondUnauthorized(w, "Missing or malformed authorization header")
				return
			}

			fingerprint := auth.Fingerprint(token)
			if !limiter.Allow(fingerprint) {
				common.RespondError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			subject, err := validator.Validate(token)
			if err != nil {
				logger.Warn("Token rejected",
					zap.Error(err),
					zap.String("path", r.URL.Path),
				)
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					respondUnauthorized(w, "Token has expired")
				case errors.Is(err, auth.ErrInvalidSignature):
					respondUnauthorized(w, "Invalid token signature")
				default:
					respondUnauthorized(w, "Invalid token")
				}
				return
			}

			caller := &auth.Caller{
				Token:       token,
				Fingerprint: fingerprint,
				UserID:      subject,
			}
			next.ServeHTTP(w, r.WithContext(auth.WithCaller(r.Context(), caller)))
		})
	}
}

// respondUnauthorized sends an unauthorized response
func respondUnauthorized(w http.ResponseWriter, message string) {
	common.RespondError(w, http.StatusUnauthorized, message)
}

package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/upb/teach-portal/backend/auth"
	"github.com/upb/teach-portal/backend/services/audit"
	"github.com/upb/teach-portal/backend/utils"
	"go.uber.org/zap"
)

// TokenValidator verifies an access token and returns its claims
type TokenValidator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

func (m *AuthMiddleware) unauthorized(w http.ResponseWriter, message string) {
	if err := utils.WriteUnauthorized(w, message); err != nil {
		m.logger.Error("failed to write response", zap.Error(err))
	}
}

// accessTokenCookieName is checked when no Authorization header is sent
const accessTokenCookieName = "access_token"

// RequireAuth rejects requests without a valid bearer token. On success the
// claims and the teacher ID are stored in the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := TokenFromRequest(r)
		if token == "" {
			m.logger.Debug("missing token",
				zap.String("request_id", requestID))
			m.unauthorized(w, "Missing or invalid authorization")
			return
		}

		claims, err := m.validator.Authenticate(ctx, token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			m.unauthorized(w, "Invalid or expired token")
			return
		}

		accountID, err := claims.AccountID()
		if err != nil {
			m.logger.Warn("token subject rejected",
				zap.String("request_id", requestID),
				zap.Error(err))
			m.unauthorized(w, "Invalid or expired token")
			return
		}

		ctx = WithClaims(ctx, claims)
		ctx = WithAccountID(ctx, accountID)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("account_id", accountID.String()))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestInfo copies the request ID, client address and user agent into the
// context so audit events can carry them. Mount after chi's RequestID and
// RealIP.
func RequestInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		ctx = WithRequestID(ctx, requestID)
		ctx = audit.WithRequestInfo(ctx, audit.RequestInfo{
			RequestID: requestID,
			IPAddress: clientIP(r.RemoteAddr),
			UserAgent: r.UserAgent(),
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TokenFromRequest reads the Authorization header, falling back to the
// access_token cookie. The header wins when both are present.
func TokenFromRequest(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(accessTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// clientIP strips the port; chi's RealIP may already have left a bare IP
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/upb/teach-portal/backend/auth"
	"github.com/upb/teach-portal/backend/services"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ClaimsKey is the context key for verified token claims
	ClaimsKey contextKey = "claims"

	// AccountIDKey is the context key for the authenticated teacher ID
	AccountIDKey contextKey = "account_id"
)

// GetRequestIDFromContext retrieves the request ID from context, falling
// back to the one set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return chimw.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetClaimsFromContext retrieves verified claims from context
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds verified claims to the context
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetAccountIDFromContext retrieves the authenticated teacher ID, or uuid.Nil
func GetAccountIDFromContext(ctx context.Context) uuid.UUID {
	if val := ctx.Value(AccountIDKey); val != nil {
		if id, ok := val.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// WithAccountID adds the authenticated teacher ID to the context
func WithAccountID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, AccountIDKey, id)
}

// ActorFromContext builds the acting teacher from the verified claims.
// Without claims the actor has a nil ID, which services reject.
func ActorFromContext(ctx context.Context) services.Actor {
	actor := services.Actor{ID: GetAccountIDFromContext(ctx)}
	if claims := GetClaimsFromContext(ctx); claims != nil {
		actor.Username = claims.Name
		actor.FullName = fullName(claims.FirstName, claims.LastName)
	}
	return actor
}

func fullName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}

package auth

import (
	"context"
	"errors"
)

// Caller is the authenticated identity attached to a request context.
type Caller struct {
	// Token is the raw bearer token, forwarded to the backing store so it
	// can enforce row-level authorization.
	Token string
	// Fingerprint is a short digest of the token, used in cache keys and
	// log lines instead of the token itself.
	Fingerprint string
	// UserID is the subject claim, when the token carried a readable one.
	UserID string
}

type contextKey struct{}

var callerKey contextKey

// ErrNoCaller indicates the request context carries no authenticated
// caller.
var ErrNoCaller = errors.New("no caller in context")

// WithCaller attaches the caller to the context.
func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFrom extracts the caller set by the authentication middleware.
func CallerFrom(ctx context.Context) (*Caller, error) {
	caller, ok := ctx.Value(callerKey).(*Caller)
	if !ok || caller == nil {
		return nil, ErrNoCaller
	}
	return caller, nil
}

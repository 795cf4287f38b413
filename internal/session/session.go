// Package session carries the authenticated user's identity explicitly
// through context.Context instead of process-wide auth handles.
package session

import "context"

// Session is the identity of the caller as asserted by the auth provider.
type Session struct {
	UserID  string
	Email   string
	IDToken string
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}

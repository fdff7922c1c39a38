// Package principal carries the authenticated caller through a request context.
package principal

import "context"

// Principal is the caller resolved from a bearer token.
type Principal struct {
	UserID      int64
	Username    string
	IsStaff     bool
	IsSuperuser bool
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal, or false for anonymous requests.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

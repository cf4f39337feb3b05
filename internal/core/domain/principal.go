package domain

import (
	"context"
	"time"
)

// Token is a signed bearer credential as handed to the client.
type Token struct {
	Value     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Principal is the verified identity reference carried by a valid token.
type Principal struct {
	Subject string `json:"id"`
	Role    string `json:"role"`
}

type principalKey struct{}

// WithPrincipal returns a child context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal attached by the auth middleware, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.Subject == "" {
		return Principal{}, false
	}
	return p, true
}

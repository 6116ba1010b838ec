package shopping

import (
	"context"
	"strings"
)

type principalKey struct{}

// WithPrincipal binds the calling principal to ctx.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFromContext returns the bound principal. Blank principals are
// treated as absent.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	p, _ := ctx.Value(principalKey{}).(string)
	p = strings.TrimSpace(p)
	return p, p != ""
}

func requirePrincipal(ctx context.Context) (string, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}
	return p, nil
}

package common

import (
	"context"

	"github.com/teemow/courses/internal/shopping"
)

// GetPrincipal returns the principal bound to the tool call, or "" when
// there is none. Over HTTP it is set from the request; over stdio it is
// the configured default.
//
// Tools never take the principal as an argument.
func GetPrincipal(ctx context.Context) string {
	p, _ := shopping.PrincipalFromContext(ctx)
	return p
}

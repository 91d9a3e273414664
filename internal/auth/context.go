package auth

import (
	"context"

	"github.com/frahmantamala/leave-management/internal/core/user"
)

type ctxKey string

const ContextUserKey ctxKey = "principal"

// WithUser stores the authenticated principal in ctx.
func WithUser(ctx context.Context, p *user.Principal) context.Context {
	return context.WithValue(ctx, ContextUserKey, p)
}

// UserFromContext returns the principal placed by AuthMiddleware.
func UserFromContext(ctx context.Context) (*user.Principal, bool) {
	p, ok := ctx.Value(ContextUserKey).(*user.Principal)
	return p, ok && p != nil
}

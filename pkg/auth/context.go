package auth

import "context"

type ctxKey struct{}

// WithClaims stores verified claims in ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromCtx returns the verified claims, or nil for unauthenticated requests.
func FromCtx(ctx context.Context) *Claims {
	c, _ := ctx.Value(ctxKey{}).(*Claims)
	return c
}

// EmailFromCtx returns the verified caller email, or "".
func EmailFromCtx(ctx context.Context) string {
	if c := FromCtx(ctx); c != nil {
		return c.Email
	}
	return ""
}

package service

import "context"

type ctxKey string

const (
	ctxIdentityKey  ctxKey = "identity"
	ctxCartTokenKey ctxKey = "cartToken"
)

// Identity — личность из claims токена; аутентификация живёт во внешнем сервисе.
type Identity struct {
	UserID    uint
	Email     string
	FirstName string
	LastName  string
	IsStaff   bool
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(ctxIdentityKey).(Identity)
	return v, ok
}

// WithCartToken кладёт токен анонимной корзины из cookie.
func WithCartToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxCartTokenKey, token)
}

func CartTokenFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxCartTokenKey).(string)
	return v, ok && v != ""
}

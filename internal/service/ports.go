package service

import (
	"context"
	"time"
)

// Mailer — внешний сервис доставки писем; реализацию см. internal/mailer.
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// StateStore — временное состояние оформления и служебные флаги в Redis.
type StateStore interface {
	SetCheckoutState(ctx context.Context, owner string, state any, ttl time.Duration) error
	GetCheckoutState(ctx context.Context, owner string, state any) error
	DelCheckoutState(ctx context.Context, owner string) error

	SetRateLimit(ctx context.Context, key string, ttl time.Duration) error
	CheckRateLimit(ctx context.Context, key string) (bool, error)

	MarkConfirmationSeen(ctx context.Context, orderNumber string, ttl time.Duration) (bool, error)
}

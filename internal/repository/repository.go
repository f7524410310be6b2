package repository

import (
	"context"

	"gorm.io/gorm"
)

type Repository struct {
	DB              *gorm.DB
	Users           UserRepo
	Products        ProductRepo
	Carts           CartRepo
	Orders          OrderRepo
	OTPs            OTPRepo
	PaymentAccounts PaymentAccountRepo
	Reviews         ReviewRepo
}

func buildRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:              db,
		Users:           NewUserRepo(db),
		Products:        NewProductRepo(db),
		Carts:           NewCartRepo(db),
		Orders:          NewOrderRepo(db),
		OTPs:            NewOTPRepo(db),
		PaymentAccounts: NewPaymentAccountRepo(db),
		Reviews:         NewReviewRepo(db),
	}
}

func New(db *gorm.DB) *Repository { return buildRepository(db) }

// WithTx выполняет fn в одной транзакции; репозитории внутри fn
// привязаны к транзакционному соединению.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(buildRepository(tx))
	})
}

package repository

import (
	"context"
	"errors"

	"storefront/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentAccountRepo interface {
	// Upsert перезаписывает номер для пары (user, method).
	Upsert(ctx context.Context, a *models.PaymentAccount) error
	GetForUser(ctx context.Context, userID uint, method string) (*models.PaymentAccount, error)
	ListForUser(ctx context.Context, userID uint) ([]*models.PaymentAccount, error)
}

type paymentAccountRepo struct{ db *gorm.DB }

func NewPaymentAccountRepo(db *gorm.DB) PaymentAccountRepo {
	return &paymentAccountRepo{db: db}
}

func (r *paymentAccountRepo) Upsert(ctx context.Context, a *models.PaymentAccount) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "method"}},
		DoUpdates: clause.AssignmentColumns([]string{"account_number", "updated_at"}),
	}).Create(a).Error
}

func (r *paymentAccountRepo) GetForUser(ctx context.Context, userID uint, method string) (*models.PaymentAccount, error) {
	var a models.PaymentAccount
	err := r.db.WithContext(ctx).First(&a, "user_id = ? AND method = ?", userID, method).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *paymentAccountRepo) ListForUser(ctx context.Context, userID uint) ([]*models.PaymentAccount, error) {
	var list []*models.PaymentAccount
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("method").
		Find(&list).Error
	return list, err
}

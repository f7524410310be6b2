package repository

import (
	"context"
	"errors"

	"storefront/internal/models"

	"gorm.io/gorm"
)

type OTPRepo interface {
	// ReplaceForEmail удаляет прежний код и записывает новый: живой код
	// на email всегда ровно один.
	ReplaceForEmail(ctx context.Context, o *models.OTP) error
	LatestByEmail(ctx context.Context, email string) (*models.OTP, error)
	DeleteByEmail(ctx context.Context, email string) error
}

type otpRepo struct{ db *gorm.DB }

func NewOTPRepo(db *gorm.DB) OTPRepo { return &otpRepo{db: db} }

func (r *otpRepo) ReplaceForEmail(ctx context.Context, o *models.OTP) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", o.Email).Delete(&models.OTP{}).Error; err != nil {
			return err
		}
		return tx.Create(o).Error
	})
}

func (r *otpRepo) LatestByEmail(ctx context.Context, email string) (*models.OTP, error) {
	var o models.OTP
	err := r.db.WithContext(ctx).First(&o, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *otpRepo) DeleteByEmail(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Where("email = ?", email).Delete(&models.OTP{}).Error
}

package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/models"

	"gorm.io/gorm"
)

type ReviewRepo interface {
	GetByID(ctx context.Context, id uint) (*models.ReviewRating, error)
	GetByUserProduct(ctx context.Context, userID, productID uint) (*models.ReviewRating, error)
	Create(ctx context.Context, rv *models.ReviewRating) error
	Update(ctx context.Context, rv *models.ReviewRating) error

	// CountForUserSince считает только созданные после since — правки
	// существующего отзыва в дневной лимит не входят.
	CountForUserSince(ctx context.Context, userID uint, since time.Time) (int64, error)
	ListVisibleForProduct(ctx context.Context, productID uint) ([]*models.ReviewRating, error)
	ListByStatus(ctx context.Context, status models.ReviewStatus, limit, offset int) ([]*models.ReviewRating, int64, error)
	ListByIDs(ctx context.Context, ids []uint) ([]*models.ReviewRating, error)
	SetModeration(ctx context.Context, id uint, status models.ReviewStatus, reason string, adminID uint, at time.Time) error

	GetVote(ctx context.Context, reviewID, userID uint) (*models.ReviewHelpfulness, error)
	CreateVote(ctx context.Context, v *models.ReviewHelpfulness) error
	UpdateVote(ctx context.Context, v *models.ReviewHelpfulness) error
	DeleteVote(ctx context.Context, id uint) error
	// RecountVotes пересчитывает счётчики отзыва по таблице голосов.
	RecountVotes(ctx context.Context, reviewID uint) (helpful, total int, err error)

	CreateAudit(ctx context.Context, a *models.ReviewAudit) error
}

type reviewRepo struct{ db *gorm.DB }

func NewReviewRepo(db *gorm.DB) ReviewRepo { return &reviewRepo{db: db} }

func (r *reviewRepo) GetByID(ctx context.Context, id uint) (*models.ReviewRating, error) {
	var rv models.ReviewRating
	err := r.db.WithContext(ctx).First(&rv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepo) GetByUserProduct(ctx context.Context, userID, productID uint) (*models.ReviewRating, error) {
	var rv models.ReviewRating
	err := r.db.WithContext(ctx).First(&rv, "user_id = ? AND product_id = ?", userID, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepo) Create(ctx context.Context, rv *models.ReviewRating) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

func (r *reviewRepo) Update(ctx context.Context, rv *models.ReviewRating) error {
	return r.db.WithContext(ctx).Save(rv).Error
}

func (r *reviewRepo) CountForUserSince(ctx context.Context, userID uint, since time.Time) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&models.ReviewRating{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&cnt).Error
	return cnt, err
}

func (r *reviewRepo) ListVisibleForProduct(ctx context.Context, productID uint) ([]*models.ReviewRating, error) {
	var list []*models.ReviewRating
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND status = ?", productID, models.ReviewStatusVisible).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *reviewRepo) ListByStatus(ctx context.Context, status models.ReviewStatus, limit, offset int) ([]*models.ReviewRating, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.ReviewRating{}).Where("status = ?", status)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var list []*models.ReviewRating
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *reviewRepo) ListByIDs(ctx context.Context, ids []uint) ([]*models.ReviewRating, error) {
	var list []*models.ReviewRating
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error
	return list, err
}

func (r *reviewRepo) SetModeration(ctx context.Context, id uint, status models.ReviewStatus, reason string, adminID uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.ReviewRating{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            status,
			"moderation_reason": reason,
			"moderated_by":      adminID,
			"moderated_at":      at,
		}).Error
}

func (r *reviewRepo) GetVote(ctx context.Context, reviewID, userID uint) (*models.ReviewHelpfulness, error) {
	var v models.ReviewHelpfulness
	err := r.db.WithContext(ctx).First(&v, "review_id = ? AND user_id = ?", reviewID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *reviewRepo) CreateVote(ctx context.Context, v *models.ReviewHelpfulness) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *reviewRepo) UpdateVote(ctx context.Context, v *models.ReviewHelpfulness) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *reviewRepo) DeleteVote(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.ReviewHelpfulness{}, "id = ?", id).Error
}

func (r *reviewRepo) RecountVotes(ctx context.Context, reviewID uint) (int, int, error) {
	var total, helpful int64

	if err := r.db.WithContext(ctx).Model(&models.ReviewHelpfulness{}).
		Where("review_id = ?", reviewID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&models.ReviewHelpfulness{}).
		Where("review_id = ? AND is_helpful = ?", reviewID, true).
		Count(&helpful).Error; err != nil {
		return 0, 0, err
	}

	err := r.db.WithContext(ctx).Model(&models.ReviewRating{}).
		Where("id = ?", reviewID).
		Updates(map[string]any{
			"helpful_votes": helpful,
			"total_votes":   total,
		}).Error
	return int(helpful), int(total), err
}

func (r *reviewRepo) CreateAudit(ctx context.Context, a *models.ReviewAudit) error {
	return r.db.WithContext(ctx).Create(a).Error
}

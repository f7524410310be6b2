package repository

import (
	"context"
	"errors"

	"storefront/internal/models"

	"gorm.io/gorm"
)

type OrderRepo interface {
	Create(ctx context.Context, o *models.Order) error
	CreateItem(ctx context.Context, it *models.OrderItem) error
	SetOrderNumber(ctx context.Context, id uint, number string) error

	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	GetByNumberForUser(ctx context.Context, number string, userID uint) (*models.Order, error)
	ListForUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Order, int64, error)

	// UserPurchasedProduct — был ли товар в каком-либо оформленном заказе пользователя.
	UserPurchasedProduct(ctx context.Context, userID, productID uint) (bool, error)

	// MarkPaid атомарно переводит заказ в Processing/Paid и возвращает
	// число затронутых строк; ноль означает, что заказ уже был оплачен.
	MarkPaid(ctx context.Context, id uint, method string) (int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error
	AppendStatusUpdate(ctx context.Context, u *models.OrderStatusUpdate) error
	ListStatusUpdates(ctx context.Context, orderID uint) ([]*models.OrderStatusUpdate, error)
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) OrderRepo { return &orderRepo{db: db} }

func (r *orderRepo) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) CreateItem(ctx context.Context, it *models.OrderItem) error {
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *orderRepo) SetOrderNumber(ctx context.Context, id uint, number string) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("order_number", number).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Items.Product").Preload("Items.Variations").
		First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Items.Product").Preload("Items.Variations").
		First(&o, "order_number = ?", number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) GetByNumberForUser(ctx context.Context, number string, userID uint) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Items.Product").Preload("Items.Variations").
		First(&o, "order_number = ? AND user_id = ?", number, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

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

	var list []*models.Order
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).
		Preload("Items").Preload("Items.Product").
		Find(&list).Error
	return list, total, err
}

func (r *orderRepo) UserPurchasedProduct(ctx context.Context, userID, productID uint) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ? AND order_items.ordered = ?", userID, productID, true).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *orderRepo) MarkPaid(ctx context.Context, id uint, method string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", id, models.PaymentStatusPaid).
		Updates(map[string]any{
			"status":         models.OrderStatusProcessing,
			"payment_status": models.PaymentStatusPaid,
			"payment_method": method,
		})
	return res.RowsAffected, res.Error
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *orderRepo) AppendStatusUpdate(ctx context.Context, u *models.OrderStatusUpdate) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *orderRepo) ListStatusUpdates(ctx context.Context, orderID uint) ([]*models.OrderStatusUpdate, error) {
	var list []*models.OrderStatusUpdate
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

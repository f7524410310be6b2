package repository

import (
	"context"
	"errors"

	"storefront/internal/models"

	"gorm.io/gorm"
)

type CartRepo interface {
	GetByToken(ctx context.Context, token string) (*models.Cart, error)
	Create(ctx context.Context, c *models.Cart) error

	// ListItemsForCart и ListItemsForUser отдают активные позиции с товаром
	// и вариациями; пустая корзина — пустой срез, не ошибка.
	ListItemsForCart(ctx context.Context, cartID uint) ([]*models.CartItem, error)
	ListItemsForUser(ctx context.Context, userID uint) ([]*models.CartItem, error)
	ItemsForProductInCart(ctx context.Context, cartID, productID uint) ([]*models.CartItem, error)
	ItemsForProductForUser(ctx context.Context, userID, productID uint) ([]*models.CartItem, error)

	GetItem(ctx context.Context, id uint) (*models.CartItem, error)
	CreateItem(ctx context.Context, it *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, id uint, quantity int) error
	DeleteItem(ctx context.Context, id uint) error
	DeleteItemsForUser(ctx context.Context, userID uint) error
	AssignItemToUser(ctx context.Context, itemID, userID uint) error
}

type cartRepo struct{ db *gorm.DB }

func NewCartRepo(db *gorm.DB) CartRepo { return &cartRepo{db: db} }

func (r *cartRepo) GetByToken(ctx context.Context, token string) (*models.Cart, error) {
	var c models.Cart
	err := r.db.WithContext(ctx).First(&c, "cart_id = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cartRepo) Create(ctx context.Context, c *models.Cart) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cartRepo) ListItemsForCart(ctx context.Context, cartID uint) ([]*models.CartItem, error) {
	var list []*models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_ref_id = ? AND is_active = ?", cartID, true).
		Preload("Product").Preload("Product.Category").Preload("Variations").
		Order("created_at").
		Find(&list).Error
	return list, err
}

func (r *cartRepo) ListItemsForUser(ctx context.Context, userID uint) ([]*models.CartItem, error) {
	var list []*models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Preload("Product").Preload("Product.Category").Preload("Variations").
		Order("created_at").
		Find(&list).Error
	return list, err
}

func (r *cartRepo) ItemsForProductInCart(ctx context.Context, cartID, productID uint) ([]*models.CartItem, error) {
	var list []*models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_ref_id = ? AND product_id = ? AND is_active = ?", cartID, productID, true).
		Preload("Variations").
		Find(&list).Error
	return list, err
}

func (r *cartRepo) ItemsForProductForUser(ctx context.Context, userID, productID uint) ([]*models.CartItem, error) {
	var list []*models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND is_active = ?", userID, productID, true).
		Preload("Variations").
		Find(&list).Error
	return list, err
}

func (r *cartRepo) GetItem(ctx context.Context, id uint) (*models.CartItem, error) {
	var it models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").Preload("Variations").
		First(&it, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *cartRepo) CreateItem(ctx context.Context, it *models.CartItem) error {
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *cartRepo) UpdateItemQuantity(ctx context.Context, id uint, quantity int) error {
	return r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ?", id).
		Update("quantity", quantity).Error
}

func (r *cartRepo) DeleteItem(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select("Variations").Delete(&models.CartItem{ID: id}).Error
}

func (r *cartRepo) DeleteItemsForUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}

// AssignItemToUser переносит позицию анонимной корзины пользователю при входе.
func (r *cartRepo) AssignItemToUser(ctx context.Context, itemID, userID uint) error {
	return r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"user_id": userID, "cart_ref_id": nil}).Error
}

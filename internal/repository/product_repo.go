package repository

import (
	"context"
	"errors"

	"storefront/internal/models"

	"gorm.io/gorm"
)

type ProductListFilter struct {
	CategorySlug *string
	Query        *string
	Sizes        []string
	MinPrice     *int64
	MaxPrice     *int64
	Limit        int
	Offset       int
}

type ProductRepo interface {
	List(ctx context.Context, f ProductListFilter) ([]*models.Product, int64, error)
	GetBySlug(ctx context.Context, categorySlug, productSlug string) (*models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	GetCategory(ctx context.Context, slug string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	VariationsFor(ctx context.Context, productID uint) ([]models.Variation, error)
	AvailableSizes(ctx context.Context) ([]string, error)
	FindVariation(ctx context.Context, productID uint, category, value string) (*models.Variation, error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) ProductRepo { return &productRepo{db: db} }

func (r *productRepo) List(ctx context.Context, f ProductListFilter) ([]*models.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where("is_available = ?", true)

	if f.CategorySlug != nil {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", *f.CategorySlug)
	}
	if f.Query != nil && *f.Query != "" {
		like := "%" + *f.Query + "%"
		q = q.Where("products.name LIKE ? OR products.description LIKE ?", like, like)
	}
	if len(f.Sizes) > 0 {
		q = q.Where("products.id IN (?)", r.db.Model(&models.Variation{}).
			Select("product_id").
			Where("category = ? AND is_active = ? AND value IN ?", models.VariationSize, true, f.Sizes))
	}
	if f.MinPrice != nil {
		q = q.Where("products.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("products.price <= ?", *f.MaxPrice)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	// каталог листается по id, поиск отдаёт сначала новинки
	order := "products.id"
	if f.Query != nil && *f.Query != "" {
		order = "products.created_at DESC"
	}

	var list []*models.Product
	err := q.Order(order).
		Limit(f.Limit).Offset(f.Offset).
		Preload("Category").
		Find(&list).Error
	return list, total, err
}

func (r *productRepo) GetBySlug(ctx context.Context, categorySlug, productSlug string) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("categories.slug = ? AND products.slug = ?", categorySlug, productSlug).
		Preload("Category").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).Preload("Category").First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	err := r.db.WithContext(ctx).First(&c, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *productRepo) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var list []*models.Category
	err := r.db.WithContext(ctx).Order("name").Find(&list).Error
	return list, err
}

func (r *productRepo) VariationsFor(ctx context.Context, productID uint) ([]models.Variation, error) {
	var list []models.Variation
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_active = ?", productID, true).
		Order("category, value").
		Find(&list).Error
	return list, err
}

// AvailableSizes возвращает различные значения активных вариаций размера.
func (r *productRepo) AvailableSizes(ctx context.Context) ([]string, error) {
	var list []string
	err := r.db.WithContext(ctx).Model(&models.Variation{}).
		Distinct("value").
		Where("category = ? AND is_active = ?", models.VariationSize, true).
		Order("value").
		Pluck("value", &list).Error
	return list, err
}

// FindVariation ищет вариацию без учёта регистра категории и значения.
func (r *productRepo) FindVariation(ctx context.Context, productID uint, category, value string) (*models.Variation, error) {
	var v models.Variation
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_active = ? AND LOWER(category) = LOWER(?) AND LOWER(value) = LOWER(?)",
			productID, true, category, value).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

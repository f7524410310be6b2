package service

import (
	"context"
	"errors"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type ListProductsInput struct {
	CategorySlug *string
	Query        *string
	Sizes        []string
	MinPrice     *int64
	MaxPrice     *int64
	Limit        int
	Offset       int
}

type ProductPage struct {
	Products []*models.Product
	Total    int64
	// AvailableSizes — все активные размеры для панели фильтров.
	AvailableSizes []string
}

// ProductDetail — карточка товара: вариации по категориям и видимые отзывы.
type ProductDetail struct {
	Product       *models.Product
	Colors        []string
	Sizes         []string
	Reviews       []*models.ReviewRating
	ReviewCount   int
	AverageRating float64
	InCart        bool
	HasPurchased  bool
}

type CatalogService interface {
	ListProducts(ctx context.Context, in ListProductsInput) (*ProductPage, error)
	GetProduct(ctx context.Context, categorySlug, productSlug string) (*ProductDetail, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
}

type catalogService struct {
	repo *repository.Repository
}

func NewCatalogService(repo *repository.Repository) CatalogService {
	return &catalogService{repo: repo}
}

func (s *catalogService) ListProducts(ctx context.Context, in ListProductsInput) (*ProductPage, error) {
	if in.CategorySlug != nil {
		if _, err := s.repo.Products.GetCategory(ctx, *in.CategorySlug); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
	}

	// отрицательные границы цены игнорируются
	minPrice, maxPrice := in.MinPrice, in.MaxPrice
	if minPrice != nil && *minPrice < 0 {
		minPrice = nil
	}
	if maxPrice != nil && *maxPrice < 0 {
		maxPrice = nil
	}

	list, total, err := s.repo.Products.List(ctx, repository.ProductListFilter{
		CategorySlug: in.CategorySlug,
		Query:        in.Query,
		Sizes:        in.Sizes,
		MinPrice:     minPrice,
		MaxPrice:     maxPrice,
		Limit:        in.Limit,
		Offset:       in.Offset,
	})
	if err != nil {
		return nil, err
	}

	sizes, err := s.repo.Products.AvailableSizes(ctx)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Products: list, Total: total, AvailableSizes: sizes}, nil
}

func (s *catalogService) GetProduct(ctx context.Context, categorySlug, productSlug string) (*ProductDetail, error) {
	p, err := s.repo.Products.GetBySlug(ctx, categorySlug, productSlug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	vars, err := s.repo.Products.VariationsFor(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	reviews, err := s.repo.Reviews.ListVisibleForProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	d := &ProductDetail{
		Product:     p,
		Reviews:     reviews,
		ReviewCount: len(reviews),
	}
	for _, v := range vars {
		switch v.Category {
		case models.VariationColor:
			d.Colors = append(d.Colors, v.Value)
		case models.VariationSize:
			d.Sizes = append(d.Sizes, v.Value)
		}
	}
	if len(reviews) > 0 {
		var sum float64
		for _, rv := range reviews {
			sum += rv.Rating
		}
		d.AverageRating = sum / float64(len(reviews))
	}

	if id, ok := IdentityFromContext(ctx); ok {
		items, err := s.repo.Carts.ItemsForProductForUser(ctx, id.UserID, p.ID)
		if err != nil {
			return nil, err
		}
		d.InCart = len(items) > 0

		purchased, err := s.repo.Orders.UserPurchasedProduct(ctx, id.UserID, p.ID)
		if err != nil {
			return nil, err
		}
		d.HasPurchased = purchased
	} else if token, ok := CartTokenFromContext(ctx); ok {
		if cart, err := s.repo.Carts.GetByToken(ctx, token); err == nil {
			items, err := s.repo.Carts.ItemsForProductInCart(ctx, cart.ID, p.ID)
			if err != nil {
				return nil, err
			}
			d.InCart = len(items) > 0
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	return d, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return s.repo.Products.ListCategories(ctx)
}

package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"storefront/internal/models"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

// НДС-подобный сбор: два процента от суммы корзины.
const taxRatePercent = 2

type VariationSelection struct {
	Category string `json:"category"`
	Value    string `json:"value"`
}

type AddItemInput struct {
	ProductID  uint
	Quantity   int
	Variations []VariationSelection
}

type CartView struct {
	Items      []*models.CartItem `json:"items"`
	ItemCount  int                `json:"item_count"`
	Total      int64              `json:"total"`
	Tax        float64            `json:"tax"`
	GrandTotal float64            `json:"grand_total"`
}

type CartService interface {
	AddItem(ctx context.Context, in AddItemInput) (*CartView, error)
	DecrementItem(ctx context.Context, itemID uint) (*CartView, error)
	RemoveItem(ctx context.Context, itemID uint) (*CartView, error)
	View(ctx context.Context) (*CartView, error)
	// MergeOnLogin сливает анонимную корзину в корзину пользователя.
	MergeOnLogin(ctx context.Context, cartToken string) error
}

type cartService struct {
	repo *repository.Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewCartService(repo *repository.Repository, log *zap.Logger) CartService {
	return &cartService{repo: repo, log: log, now: time.Now}
}

// CartTotals считает сумму, сбор и итог по позициям корзины.
func CartTotals(items []*models.CartItem) (total int64, tax, grand float64) {
	for _, it := range items {
		total += it.SubTotal()
	}
	tax = float64(taxRatePercent*total) / 100
	grand = float64(total) + tax
	return total, tax, grand
}

func itemCount(items []*models.CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func buildView(items []*models.CartItem) *CartView {
	total, tax, grand := CartTotals(items)
	if items == nil {
		items = []*models.CartItem{}
	}
	return &CartView{
		Items:      items,
		ItemCount:  itemCount(items),
		Total:      total,
		Tax:        tax,
		GrandTotal: grand,
	}
}

// sameVariationSet — одинаковый набор вариаций без учёта порядка.
func sameVariationSet(a []models.Variation, b []models.Variation) bool {
	if len(a) != len(b) {
		return false
	}
	ida := make([]uint, 0, len(a))
	idb := make([]uint, 0, len(b))
	for _, v := range a {
		ida = append(ida, v.ID)
	}
	for _, v := range b {
		idb = append(idb, v.ID)
	}
	sort.Slice(ida, func(i, j int) bool { return ida[i] < ida[j] })
	sort.Slice(idb, func(i, j int) bool { return idb[i] < idb[j] })
	for i := range ida {
		if ida[i] != idb[i] {
			return false
		}
	}
	return true
}

func (s *cartService) listItems(ctx context.Context) ([]*models.CartItem, error) {
	if id, ok := IdentityFromContext(ctx); ok {
		return s.repo.Carts.ListItemsForUser(ctx, id.UserID)
	}
	token, ok := CartTokenFromContext(ctx)
	if !ok {
		return nil, nil
	}
	cart, err := s.repo.Carts.GetByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.repo.Carts.ListItemsForCart(ctx, cart.ID)
}

// ownsItem — позиция принадлежит текущему пользователю или его корзине.
func (s *cartService) ownsItem(ctx context.Context, it *models.CartItem) (bool, error) {
	if id, ok := IdentityFromContext(ctx); ok {
		return it.UserID != nil && *it.UserID == id.UserID, nil
	}
	token, ok := CartTokenFromContext(ctx)
	if !ok || it.CartRefID == nil {
		return false, nil
	}
	cart, err := s.repo.Carts.GetByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return *it.CartRefID == cart.ID, nil
}

func (s *cartService) resolveVariations(ctx context.Context, productID uint, sel []VariationSelection) []models.Variation {
	var out []models.Variation
	for _, v := range sel {
		found, err := s.repo.Products.FindVariation(ctx, productID, v.Category, v.Value)
		if err != nil {
			// неизвестная вариация просто пропускается
			continue
		}
		out = append(out, *found)
	}
	return out
}

func (s *cartService) AddItem(ctx context.Context, in AddItemInput) (*CartView, error) {
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 0 {
		return nil, ErrQuantityInvalid
	}

	product, err := s.repo.Products.GetByID(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !product.IsAvailable {
		return nil, ErrNotFound
	}

	variations := s.resolveVariations(ctx, product.ID, in.Variations)

	var existing []*models.CartItem
	item := &models.CartItem{
		ProductID:  product.ID,
		Quantity:   in.Quantity,
		IsActive:   true,
		Variations: variations,
	}

	if id, ok := IdentityFromContext(ctx); ok {
		item.UserID = &id.UserID
		existing, err = s.repo.Carts.ItemsForProductForUser(ctx, id.UserID, product.ID)
	} else {
		token, ok := CartTokenFromContext(ctx)
		if !ok {
			return nil, ErrUnauthorized
		}
		cart, cerr := s.repo.Carts.GetByToken(ctx, token)
		if errors.Is(cerr, repository.ErrNotFound) {
			cart = &models.Cart{CartID: token, CreatedAt: s.now()}
			if cerr = s.repo.Carts.Create(ctx, cart); cerr != nil {
				return nil, cerr
			}
		} else if cerr != nil {
			return nil, cerr
		}
		item.CartRefID = &cart.ID
		existing, err = s.repo.Carts.ItemsForProductInCart(ctx, cart.ID, product.ID)
	}
	if err != nil {
		return nil, err
	}

	merged := false
	for _, ex := range existing {
		if sameVariationSet(ex.Variations, variations) {
			if err := s.repo.Carts.UpdateItemQuantity(ctx, ex.ID, ex.Quantity+in.Quantity); err != nil {
				return nil, err
			}
			merged = true
			break
		}
	}
	if !merged {
		if err := s.repo.Carts.CreateItem(ctx, item); err != nil {
			return nil, err
		}
	}

	items, err := s.listItems(ctx)
	if err != nil {
		return nil, err
	}
	return buildView(items), nil
}

func (s *cartService) DecrementItem(ctx context.Context, itemID uint) (*CartView, error) {
	it, err := s.repo.Carts.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	owns, err := s.ownsItem(ctx, it)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, ErrNotFound
	}

	if it.Quantity > 1 {
		err = s.repo.Carts.UpdateItemQuantity(ctx, it.ID, it.Quantity-1)
	} else {
		err = s.repo.Carts.DeleteItem(ctx, it.ID)
	}
	if err != nil {
		return nil, err
	}

	items, err := s.listItems(ctx)
	if err != nil {
		return nil, err
	}
	return buildView(items), nil
}

func (s *cartService) RemoveItem(ctx context.Context, itemID uint) (*CartView, error) {
	it, err := s.repo.Carts.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	owns, err := s.ownsItem(ctx, it)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, ErrNotFound
	}

	if err := s.repo.Carts.DeleteItem(ctx, it.ID); err != nil {
		return nil, err
	}

	items, err := s.listItems(ctx)
	if err != nil {
		return nil, err
	}
	return buildView(items), nil
}

func (s *cartService) View(ctx context.Context) (*CartView, error) {
	items, err := s.listItems(ctx)
	if err != nil {
		return nil, err
	}
	return buildView(items), nil
}

func (s *cartService) MergeOnLogin(ctx context.Context, cartToken string) error {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if cartToken == "" {
		return nil
	}

	cart, err := s.repo.Carts.GetByToken(ctx, cartToken)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	anon, err := s.repo.Carts.ListItemsForCart(ctx, cart.ID)
	if err != nil {
		return err
	}

	for _, it := range anon {
		mine, err := s.repo.Carts.ItemsForProductForUser(ctx, id.UserID, it.ProductID)
		if err != nil {
			return err
		}
		merged := false
		for _, ex := range mine {
			if sameVariationSet(ex.Variations, it.Variations) {
				if err := s.repo.Carts.UpdateItemQuantity(ctx, ex.ID, ex.Quantity+it.Quantity); err != nil {
					return err
				}
				if err := s.repo.Carts.DeleteItem(ctx, it.ID); err != nil {
					return err
				}
				merged = true
				break
			}
		}
		if !merged {
			if err := s.repo.Carts.AssignItemToUser(ctx, it.ID, id.UserID); err != nil {
				return err
			}
		}
	}

	s.log.Info("Корзина объединена после входа", zap.Uint("user_id", id.UserID), zap.Int("items", len(anon)))
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/repository"

	"github.com/nanorand/nanorand"
	"go.uber.org/zap"
)

const (
	checkoutStepAwaitingOTP = "awaiting_otp"

	otpTTL = 10 * time.Minute
)

type ShippingInput struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
	OrderNote    string `json:"order_note"`
}

// CheckoutState живёт в Redis до подтверждения кода или истечения TTL.
type CheckoutState struct {
	Step      string        `json:"step"`
	Shipping  ShippingInput `json:"shipping"`
	StartedAt time.Time     `json:"started_at"`
}

type CheckoutService interface {
	// Start сохраняет адрес доставки и высылает код подтверждения на email.
	Start(ctx context.Context, in ShippingInput) (*CheckoutState, error)
	Current(ctx context.Context) (*CheckoutState, error)
	ResendCode(ctx context.Context) error
	// VerifyAndPlaceOrder принимает код и атомарно создаёт заказ из корзины.
	VerifyAndPlaceOrder(ctx context.Context, code, clientIP string) (*models.Order, error)
}

type checkoutService struct {
	repo     *repository.Repository
	store    StateStore
	mail     Mailer
	log      *zap.Logger
	stateTTL time.Duration
	cooldown time.Duration
	now      func() time.Time
}

func NewCheckoutService(repo *repository.Repository, store StateStore, mail Mailer, log *zap.Logger, stateTTL, cooldown time.Duration) CheckoutService {
	return &checkoutService{
		repo:     repo,
		store:    store,
		mail:     mail,
		log:      log,
		stateTTL: stateTTL,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// ownerKey — ключ состояния оформления; оформление доступно только
// авторизованному покупателю.
func ownerKey(ctx context.Context) (string, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return "", ErrUnauthorized
	}
	return fmt.Sprintf("u:%d", id.UserID), nil
}

func validateShipping(in ShippingInput) error {
	for _, f := range []string{in.FirstName, in.LastName, in.Email, in.Phone, in.AddressLine1, in.City, in.State, in.Country} {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("%w: missing required shipping field", ErrCheckoutWrongStep)
		}
	}
	if !strings.Contains(in.Email, "@") {
		return fmt.Errorf("%w: bad email", ErrCheckoutWrongStep)
	}
	return nil
}

func (s *checkoutService) issueCode(ctx context.Context, email string) error {
	code, err := nanorand.Gen(6)
	if err != nil {
		return err
	}

	otp := &models.OTP{
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().Add(otpTTL),
		CreatedAt: s.now(),
	}
	if err := s.repo.OTPs.ReplaceForEmail(ctx, otp); err != nil {
		return err
	}

	subject := "Your order verification code"
	text := fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code)
	html := fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>It expires in 10 minutes.</p>", code)
	if err := s.mail.Send(ctx, email, subject, html, text); err != nil {
		// доставка письма не валит оформление
		s.log.Warn("Не удалось отправить код подтверждения", zap.String("email", email), zap.Error(err))
	}
	return nil
}

func (s *checkoutService) cartItems(ctx context.Context) ([]*models.CartItem, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	return s.repo.Carts.ListItemsForUser(ctx, id.UserID)
}

func (s *checkoutService) Start(ctx context.Context, in ShippingInput) (*CheckoutState, error) {
	owner, err := ownerKey(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateShipping(in); err != nil {
		return nil, err
	}

	items, err := s.cartItems(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}

	state := &CheckoutState{
		Step:      checkoutStepAwaitingOTP,
		Shipping:  in,
		StartedAt: s.now(),
	}
	if err := s.store.SetCheckoutState(ctx, owner, state, s.stateTTL); err != nil {
		return nil, err
	}

	// повторная отправка формы перезаписывает состояние, но в пределах
	// кулдауна новый код не высылается — действует прежний
	limited, err := s.store.CheckRateLimit(ctx, "otp_resend:"+owner)
	if err != nil {
		return nil, err
	}
	if !limited {
		if err := s.issueCode(ctx, in.Email); err != nil {
			return nil, err
		}
		if err := s.store.SetRateLimit(ctx, "otp_resend:"+owner, s.cooldown); err != nil {
			return nil, err
		}
	}

	s.log.Info("Оформление начато", zap.String("owner", owner), zap.String("email", in.Email))
	return state, nil
}

func (s *checkoutService) Current(ctx context.Context) (*CheckoutState, error) {
	owner, err := ownerKey(ctx)
	if err != nil {
		return nil, err
	}
	var state CheckoutState
	err = s.store.GetCheckoutState(ctx, owner, &state)
	if errors.Is(err, cache.ErrNoState) {
		return nil, ErrNoCheckoutState
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *checkoutService) ResendCode(ctx context.Context) error {
	owner, err := ownerKey(ctx)
	if err != nil {
		return err
	}

	var state CheckoutState
	err = s.store.GetCheckoutState(ctx, owner, &state)
	if errors.Is(err, cache.ErrNoState) {
		return ErrNoCheckoutState
	}
	if err != nil {
		return err
	}
	if state.Step != checkoutStepAwaitingOTP {
		return ErrCheckoutWrongStep
	}

	limited, err := s.store.CheckRateLimit(ctx, "otp_resend:"+owner)
	if err != nil {
		return err
	}
	if limited {
		return ErrTooManyRequests
	}

	if err := s.issueCode(ctx, state.Shipping.Email); err != nil {
		return err
	}
	return s.store.SetRateLimit(ctx, "otp_resend:"+owner, s.cooldown)
}

func (s *checkoutService) VerifyAndPlaceOrder(ctx context.Context, code, clientIP string) (*models.Order, error) {
	owner, err := ownerKey(ctx)
	if err != nil {
		return nil, err
	}

	var state CheckoutState
	err = s.store.GetCheckoutState(ctx, owner, &state)
	if errors.Is(err, cache.ErrNoState) {
		return nil, ErrNoCheckoutState
	}
	if err != nil {
		return nil, err
	}
	if state.Step != checkoutStepAwaitingOTP {
		return nil, ErrCheckoutWrongStep
	}

	// принимается только последний выданный и не истёкший код
	otp, err := s.repo.OTPs.LatestByEmail(ctx, state.Shipping.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidOrExpiredCode
	}
	if err != nil {
		return nil, err
	}
	if otp.Code != code || otp.Expired(s.now()) {
		return nil, ErrInvalidOrExpiredCode
	}

	items, err := s.cartItems(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}

	total, tax, grand := CartTotals(items)

	now := s.now()
	sh := state.Shipping
	order := &models.Order{
		Email:         sh.Email,
		FirstName:     sh.FirstName,
		LastName:      sh.LastName,
		Phone:         sh.Phone,
		AddressLine1:  sh.AddressLine1,
		AddressLine2:  sh.AddressLine2,
		City:          sh.City,
		State:         sh.State,
		Country:       sh.Country,
		OrderNote:     sh.OrderNote,
		EmailVerified: true,
		OrderTotal:    grand,
		Tax:           tax,
		Status:        models.OrderStatusPlaced,
		PaymentStatus: models.PaymentStatusPending,
		IP:            clientIP,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	id, _ := IdentityFromContext(ctx)
	order.UserID = &id.UserID

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}

		// номер заказа зависит от id строки, отсюда второй апдейт в той же транзакции
		number := models.OrderNumberFor(order.CreatedAt, order.ID)
		if err := tx.Orders.SetOrderNumber(ctx, order.ID, number); err != nil {
			return err
		}
		order.OrderNumber = number

		for _, it := range items {
			oi := &models.OrderItem{
				OrderID:      order.ID,
				ProductID:    it.ProductID,
				Quantity:     it.Quantity,
				ProductPrice: it.Product.Price,
				Ordered:      true,
				Variations:   it.Variations,
				CreatedAt:    now,
			}
			if err := tx.Orders.CreateItem(ctx, oi); err != nil {
				return err
			}
			order.Items = append(order.Items, *oi)
		}

		upd := &models.OrderStatusUpdate{
			OrderID:   order.ID,
			Status:    models.OrderStatusPlaced,
			Notes:     "Order placed",
			UpdatedBy: order.UserID,
			CreatedAt: now,
		}
		if err := tx.Orders.AppendStatusUpdate(ctx, upd); err != nil {
			return err
		}

		for _, it := range items {
			if err := tx.Carts.DeleteItem(ctx, it.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.OTPs.DeleteByEmail(ctx, state.Shipping.Email); err != nil {
		s.log.Warn("Не удалось удалить использованный код", zap.Error(err))
	}
	if err := s.store.DelCheckoutState(ctx, owner); err != nil {
		s.log.Warn("Не удалось очистить состояние оформления", zap.Error(err))
	}

	s.log.Info("Заказ создан",
		zap.Uint("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("subtotal", total),
		zap.Float64("total", order.OrderTotal),
	)
	return order, nil
}

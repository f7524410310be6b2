package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/payments"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

type PayInput struct {
	Method        string
	AccountNumber string
	// UseSaved — платить сохранённым номером вместо нового.
	UseSaved bool
}

// MethodOption — способ оплаты для страницы выбора; Prefill — сохранённый
// номер с маской, если пользователь платил этим методом раньше.
type MethodOption struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	ImageKey    string `json:"image_key"`
	Hint        string `json:"hint"`
	Prefill     string `json:"prefill,omitempty"`
}

type PaymentService interface {
	ListMethods(ctx context.Context) ([]MethodOption, error)
	// Pay проводит оплату заказа; повторная оплата уже оплаченного заказа
	// ничего не меняет и не дублирует журнал.
	Pay(ctx context.Context, orderNumber string, in PayInput) (*models.Order, error)
	// Confirm подтверждает оплату без выбора метода (прямое подтверждение).
	Confirm(ctx context.Context, orderNumber string) (*models.Order, error)
}

type paymentService struct {
	repo *repository.Repository
	mail Mailer
	log  *zap.Logger
	now  func() time.Time
}

func NewPaymentService(repo *repository.Repository, mail Mailer, log *zap.Logger) PaymentService {
	return &paymentService{repo: repo, mail: mail, log: log, now: time.Now}
}

func (s *paymentService) ListMethods(ctx context.Context) ([]MethodOption, error) {
	var saved map[string]string
	if id, ok := IdentityFromContext(ctx); ok {
		accounts, err := s.repo.PaymentAccounts.ListForUser(ctx, id.UserID)
		if err != nil {
			return nil, err
		}
		saved = make(map[string]string, len(accounts))
		for _, a := range accounts {
			saved[a.Method] = a.Masked()
		}
	}

	out := make([]MethodOption, 0, len(payments.Methods))
	for _, key := range payments.Keys() {
		m := payments.Methods[key]
		out = append(out, MethodOption{
			Key:         m.Key,
			DisplayName: m.DisplayName,
			ImageKey:    m.ImageKey,
			Hint:        m.Hint,
			Prefill:     saved[m.Key],
		})
	}
	return out, nil
}

// ownOrder находит заказ текущего пользователя по номеру.
func (s *paymentService) ownOrder(ctx context.Context, orderNumber string) (*models.Order, uint, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, 0, ErrUnauthorized
	}
	o, err := s.repo.Orders.GetByNumberForUser(ctx, orderNumber, id.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	return o, id.UserID, nil
}

// settle — общий путь оплаты: CAS-переход в Processing/Paid и строка журнала
// в одной транзакции, затем письмо-подтверждение. При уже оплаченном заказе
// ничего не меняет.
func (s *paymentService) settle(ctx context.Context, order *models.Order, method, note string) (*models.Order, error) {
	var rows int64
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		var err error
		rows, err = tx.Orders.MarkPaid(ctx, order.ID, method)
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}
		upd := &models.OrderStatusUpdate{
			OrderID:   order.ID,
			Status:    models.OrderStatusProcessing,
			Notes:     note,
			UpdatedBy: order.UserID,
			CreatedAt: s.now(),
		}
		return tx.Orders.AppendStatusUpdate(ctx, upd)
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// заказ уже оплачен: идемпотентный успех без записи в журнал
		s.log.Info("Повторная оплата проигнорирована", zap.String("order_number", order.OrderNumber))
		return order, nil
	}
	order.Status = models.OrderStatusProcessing
	order.PaymentStatus = models.PaymentStatusPaid
	order.PaymentMethod = method

	subject := "Order Confirmation"
	text := confirmationText(order)
	html := fmt.Sprintf("<p>Thank you for your order!</p><p>Order Number: <strong>%s</strong></p><p>Total: %.2f</p>",
		order.OrderNumber, order.OrderTotal)
	if err := s.mail.Send(ctx, order.Email, subject, html, text); err != nil {
		// письмо-подтверждение не валит оплату
		s.log.Warn("Не удалось отправить подтверждение оплаты", zap.String("email", order.Email), zap.Error(err))
	}

	s.log.Info("Оплата проведена",
		zap.String("order_number", order.OrderNumber),
		zap.String("method", method),
	)
	return order, nil
}

func confirmationText(o *models.Order) string {
	var items strings.Builder
	for _, it := range o.Items {
		name := ""
		if it.Product != nil {
			name = it.Product.Name
		}
		fmt.Fprintf(&items, "%s - Quantity: %d - Price: %d\n", name, it.Quantity, it.ProductPrice)
	}
	return fmt.Sprintf(`Order Confirmation
Thank you for your order!
Order Number: %s

Status: %s

Total Amount: %.2f

Order Items:
%s
Shipping Address:
%s

%s
%s

%s, %s, %s

Phone: %s

Email: %s
`, o.OrderNumber, o.Status, o.OrderTotal, items.String(),
		o.FullName(), o.AddressLine1, o.AddressLine2, o.City, o.State, o.Country, o.Phone, o.Email)
}

func (s *paymentService) Pay(ctx context.Context, orderNumber string, in PayInput) (*models.Order, error) {
	m, err := payments.Lookup(in.Method)
	if err != nil {
		return nil, ErrUnknownMethod
	}

	order, userID, err := s.ownOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	if in.UseSaved {
		acc, err := s.repo.PaymentAccounts.GetForUser(ctx, userID, in.Method)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSavedAccount
		}
		if err != nil {
			return nil, err
		}
		in.AccountNumber = acc.AccountNumber
	} else {
		if err := payments.ValidateAccount(in.Method, in.AccountNumber); err != nil {
			return nil, ErrBadAccountNumber
		}
		// номер сохраняется для повторных оплат
		now := s.now()
		acc := &models.PaymentAccount{
			UserID:        userID,
			Method:        in.Method,
			AccountNumber: in.AccountNumber,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.PaymentAccounts.Upsert(ctx, acc); err != nil {
			s.log.Warn("Не удалось сохранить платёжный счёт", zap.Error(err))
		}
	}

	return s.settle(ctx, order, in.Method, fmt.Sprintf("Payment received via %s", m.DisplayName))
}

func (s *paymentService) Confirm(ctx context.Context, orderNumber string) (*models.Order, error) {
	order, _, err := s.ownOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, order, "", "Payment received")
}

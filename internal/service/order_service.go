package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

// Флаг первого показа страницы подтверждения живёт сутки.
const confirmationSeenTTL = 24 * time.Hour

type OrderPage struct {
	Orders []*models.Order
	Total  int64
}

type OrderDetail struct {
	Order         *models.Order
	StatusUpdates []*models.OrderStatusUpdate
}

type Confirmation struct {
	Order *models.Order
	// FirstView — страница подтверждения открыта впервые.
	FirstView bool
}

type ChangeStatusInput struct {
	Status models.OrderStatus
	Notes  string
}

type OrderService interface {
	History(ctx context.Context, limit, offset int) (*OrderPage, error)
	Detail(ctx context.Context, orderNumber string) (*OrderDetail, error)
	Confirmation(ctx context.Context, orderNumber string) (*Confirmation, error)
	// ChangeStatus — только для персонала; пишет строку в журнал и шлёт
	// покупателю письмо об изменении.
	ChangeStatus(ctx context.Context, orderNumber string, in ChangeStatusInput) (*models.Order, error)
}

type orderService struct {
	repo  *repository.Repository
	store StateStore
	mail  Mailer
	log   *zap.Logger
	now   func() time.Time
}

func NewOrderService(repo *repository.Repository, store StateStore, mail Mailer, log *zap.Logger) OrderService {
	return &orderService{repo: repo, store: store, mail: mail, log: log, now: time.Now}
}

func (s *orderService) History(ctx context.Context, limit, offset int) (*OrderPage, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	list, total, err := s.repo.Orders.ListForUser(ctx, id.UserID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &OrderPage{Orders: list, Total: total}, nil
}

func (s *orderService) ownedOrder(ctx context.Context, orderNumber string) (*models.Order, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	o, err := s.repo.Orders.GetByNumberForUser(ctx, orderNumber, id.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		// персонал видит любой заказ
		if id.IsStaff {
			o, err = s.repo.Orders.GetByNumber(ctx, orderNumber)
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			return o, err
		}
		return nil, ErrNotFound
	}
	return o, err
}

func (s *orderService) Detail(ctx context.Context, orderNumber string) (*OrderDetail, error) {
	o, err := s.ownedOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	updates, err := s.repo.Orders.ListStatusUpdates(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: o, StatusUpdates: updates}, nil
}

func (s *orderService) Confirmation(ctx context.Context, orderNumber string) (*Confirmation, error) {
	o, err := s.ownedOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus != models.PaymentStatusPaid {
		return nil, ErrOrderNotPaid
	}

	first, err := s.store.MarkConfirmationSeen(ctx, o.OrderNumber, confirmationSeenTTL)
	if err != nil {
		s.log.Warn("Не удалось отметить показ подтверждения", zap.Error(err))
		first = false
	}
	return &Confirmation{Order: o, FirstView: first}, nil
}

func (s *orderService) ChangeStatus(ctx context.Context, orderNumber string, in ChangeStatusInput) (*models.Order, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !id.IsStaff {
		return nil, ErrForbidden
	}
	if !in.Status.Valid() {
		return nil, ErrStatusInvalid
	}

	o, err := s.repo.Orders.GetByNumber(ctx, orderNumber)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// нельзя отметить доставку неоплаченного заказа
	if in.Status == models.OrderStatusDelivered && o.PaymentStatus != models.PaymentStatusPaid {
		return nil, ErrOrderNotPaid
	}

	if err := s.repo.Orders.UpdateStatus(ctx, o.ID, in.Status); err != nil {
		return nil, err
	}
	o.Status = in.Status

	upd := &models.OrderStatusUpdate{
		OrderID:   o.ID,
		Status:    in.Status,
		Notes:     in.Notes,
		UpdatedBy: &id.UserID,
		CreatedAt: s.now(),
	}
	if err := s.repo.Orders.AppendStatusUpdate(ctx, upd); err != nil {
		return nil, err
	}

	subject := fmt.Sprintf("Order %s is now %s", o.OrderNumber, in.Status)
	text := fmt.Sprintf("Hello %s, your order %s status changed to %s.", o.FullName(), o.OrderNumber, in.Status)
	html := fmt.Sprintf("<p>Hello %s,</p><p>Your order <strong>%s</strong> status changed to <strong>%s</strong>.</p>",
		o.FullName(), o.OrderNumber, in.Status)
	if err := s.mail.Send(ctx, o.Email, subject, html, text); err != nil {
		s.log.Warn("Не удалось отправить письмо о статусе", zap.String("email", o.Email), zap.Error(err))
	}

	s.log.Info("Статус заказа изменён",
		zap.String("order_number", o.OrderNumber),
		zap.String("status", string(in.Status)),
		zap.Uint("admin_id", id.UserID),
	)
	return o, nil
}

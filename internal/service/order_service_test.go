package service_test

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/models"
	"storefront/internal/service"

	"go.uber.org/zap"
)

func TestOrder_HistoryRequiresAuth(t *testing.T) {
	_, repos := newRepos(t)
	svc := service.NewOrderService(repos, newMemStore(), &mockMailer{}, zap.NewNop())

	if _, err := svc.History(context.Background(), 10, 0); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestOrder_HistoryAndDetailOwnerOnly(t *testing.T) {
	_, repos := newRepos(t)
	svc := service.NewOrderService(repos, newMemStore(), &mockMailer{}, zap.NewNop())

	ownerID := uint(1)
	ord := seedOrder(t, repos, &ownerID, "a@b.c")

	owner := userCtx(ownerID, "a@b.c", false)
	page, err := svc.History(owner, 10, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if page.Total != 1 || len(page.Orders) != 1 {
		t.Fatalf("history: %d/%d", page.Total, len(page.Orders))
	}

	d, err := svc.Detail(owner, ord.OrderNumber)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if d.Order.ID != ord.ID {
		t.Fatalf("wrong order %d", d.Order.ID)
	}

	stranger := userCtx(2, "x@y.z", false)
	if _, err := svc.Detail(stranger, ord.OrderNumber); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("foreign order must look absent, got %v", err)
	}

	// персоналу заказ виден
	staff := userCtx(3, "s@y.z", true)
	if _, err := svc.Detail(staff, ord.OrderNumber); err != nil {
		t.Fatalf("staff Detail: %v", err)
	}
}

func TestOrder_ConfirmationFirstViewOnce(t *testing.T) {
	_, repos := newRepos(t)
	svc := service.NewOrderService(repos, newMemStore(), &mockMailer{}, zap.NewNop())

	ownerID := uint(1)
	ord := seedOrder(t, repos, &ownerID, "a@b.c")
	owner := userCtx(ownerID, "a@b.c", false)

	if _, err := svc.Confirmation(owner, ord.OrderNumber); !errors.Is(err, service.ErrOrderNotPaid) {
		t.Fatalf("unpaid order has no confirmation page, got %v", err)
	}

	if _, err := repos.Orders.MarkPaid(context.Background(), ord.ID, "bkash"); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	conf, err := svc.Confirmation(owner, ord.OrderNumber)
	if err != nil {
		t.Fatalf("Confirmation: %v", err)
	}
	if !conf.FirstView {
		t.Fatal("first open must report first_view")
	}

	conf, err = svc.Confirmation(owner, ord.OrderNumber)
	if err != nil {
		t.Fatalf("Confirmation repeat: %v", err)
	}
	if conf.FirstView {
		t.Fatal("second open must not report first_view")
	}
}

func TestOrder_ChangeStatus(t *testing.T) {
	_, repos := newRepos(t)
	mail := &mockMailer{}
	svc := service.NewOrderService(repos, newMemStore(), mail, zap.NewNop())

	ownerID := uint(1)
	ord := seedOrder(t, repos, &ownerID, "a@b.c")

	customer := userCtx(ownerID, "a@b.c", false)
	if _, err := svc.ChangeStatus(customer, ord.OrderNumber, service.ChangeStatusInput{Status: models.OrderStatusShipped}); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("customer must not change status, got %v", err)
	}

	staff := userCtx(9, "admin@example.com", true)

	if _, err := svc.ChangeStatus(staff, ord.OrderNumber, service.ChangeStatusInput{Status: "Teleported"}); !errors.Is(err, service.ErrStatusInvalid) {
		t.Fatalf("expected ErrStatusInvalid, got %v", err)
	}

	// доставка без оплаты запрещена
	if _, err := svc.ChangeStatus(staff, ord.OrderNumber, service.ChangeStatusInput{Status: models.OrderStatusDelivered}); !errors.Is(err, service.ErrOrderNotPaid) {
		t.Fatalf("expected ErrOrderNotPaid, got %v", err)
	}

	got, err := svc.ChangeStatus(staff, ord.OrderNumber, service.ChangeStatusInput{Status: models.OrderStatusProcessing, Notes: "picked"})
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if got.Status != models.OrderStatusProcessing {
		t.Fatalf("status %s", got.Status)
	}
	if mail.count() != 1 {
		t.Fatalf("expected status email, got %d", mail.count())
	}

	updates, err := repos.Orders.ListStatusUpdates(context.Background(), ord.ID)
	if err != nil {
		t.Fatalf("updates: %v", err)
	}
	if len(updates) != 1 || updates[0].Status != models.OrderStatusProcessing || updates[0].Notes != "picked" {
		t.Fatalf("log entry: %+v", updates)
	}
	if updates[0].UpdatedBy == nil || *updates[0].UpdatedBy != 9 {
		t.Fatalf("updated_by: %v", updates[0].UpdatedBy)
	}

	if _, err := repos.Orders.MarkPaid(context.Background(), ord.ID, "bkash"); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if _, err := svc.ChangeStatus(staff, ord.OrderNumber, service.ChangeStatusInput{Status: models.OrderStatusDelivered}); err != nil {
		t.Fatalf("delivery after payment: %v", err)
	}
}

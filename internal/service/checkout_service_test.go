package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/service"

	"go.uber.org/zap"
)

func TestCheckout_FullFlow(t *testing.T) {
	db, repos := newRepos(t)
	store := newMemStore()
	mail := &mockMailer{}
	svc := service.NewCheckoutService(repos, store, mail, zap.NewNop(), 30*time.Minute, time.Minute)

	cat := seedCategory(t, db)
	p := seedProduct(t, db, cat.ID, "Shirt", "shirt", 500)

	userID := uint(1)
	ctx := userCtx(userID, "buyer@example.com", false)

	item := &models.CartItem{ProductID: p.ID, UserID: &userID, Quantity: 2, IsActive: true}
	if err := repos.Carts.CreateItem(context.Background(), item); err != nil {
		t.Fatalf("seed cart item: %v", err)
	}

	state, err := svc.Start(ctx, shipping("buyer@example.com"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if state.Step != "awaiting_otp" {
		t.Fatalf("step %q", state.Step)
	}
	if mail.count() != 1 {
		t.Fatalf("expected one code email, got %d", mail.count())
	}

	otp, err := repos.OTPs.LatestByEmail(context.Background(), "buyer@example.com")
	if err != nil {
		t.Fatalf("no code issued: %v", err)
	}
	if len(otp.Code) != 6 {
		t.Fatalf("code length %d", len(otp.Code))
	}

	if _, err := svc.VerifyAndPlaceOrder(ctx, "000000", "1.2.3.4"); !errors.Is(err, service.ErrInvalidOrExpiredCode) {
		t.Fatalf("wrong code: expected ErrInvalidOrExpiredCode, got %v", err)
	}

	order, err := svc.VerifyAndPlaceOrder(ctx, otp.Code, "1.2.3.4")
	if err != nil {
		t.Fatalf("VerifyAndPlaceOrder: %v", err)
	}

	// 500 x 2 = 1000, сбор 2% = 20, итого 1020
	if order.Tax != 20 || order.OrderTotal != 1020 {
		t.Fatalf("totals tax=%v total=%v", order.Tax, order.OrderTotal)
	}
	want := fmt.Sprintf("%s%d", order.CreatedAt.Format("20060102"), order.ID)
	if order.OrderNumber != want {
		t.Fatalf("order number %q, want %q", order.OrderNumber, want)
	}
	if !order.EmailVerified {
		t.Fatal("order must be marked email verified")
	}
	if len(order.Items) != 1 || order.Items[0].ProductPrice != 500 || order.Items[0].Quantity != 2 {
		t.Fatalf("frozen items: %+v", order.Items)
	}

	items, err := repos.Carts.ListItemsForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("list cart: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("cart must be emptied, got %d items", len(items))
	}

	updates, err := repos.Orders.ListStatusUpdates(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("status updates: %v", err)
	}
	if len(updates) != 1 || updates[0].Status != models.OrderStatusPlaced {
		t.Fatalf("expected single Placed log entry, got %+v", updates)
	}

	if _, err := repos.OTPs.LatestByEmail(context.Background(), "buyer@example.com"); err == nil {
		t.Fatal("used code must be deleted")
	}

	// состояние оформления очищено
	if _, err := svc.Current(ctx); !errors.Is(err, service.ErrNoCheckoutState) {
		t.Fatalf("expected cleared state, got %v", err)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	_, repos := newRepos(t)
	svc := service.NewCheckoutService(repos, newMemStore(), &mockMailer{}, zap.NewNop(), 30*time.Minute, time.Minute)

	ctx := userCtx(1, "buyer@example.com", false)
	if _, err := svc.Start(ctx, shipping("buyer@example.com")); !errors.Is(err, service.ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}
}

func TestCheckout_SupersededCodeRejected(t *testing.T) {
	db, repos := newRepos(t)
	store := newMemStore()
	svc := service.NewCheckoutService(repos, store, &mockMailer{}, zap.NewNop(), 30*time.Minute, time.Minute)

	cat := seedCategory(t, db)
	p := seedProduct(t, db, cat.ID, "Shirt", "shirt", 500)
	userID := uint(2)
	ctx := userCtx(userID, "two@example.com", false)
	if err := repos.Carts.CreateItem(context.Background(), &models.CartItem{ProductID: p.ID, UserID: &userID, Quantity: 1, IsActive: true}); err != nil {
		t.Fatalf("seed cart item: %v", err)
	}

	if _, err := svc.Start(ctx, shipping("two@example.com")); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// выдача заменяется детерминированно, чтобы сравнить старый и новый код
	first := &models.OTP{Email: "two@example.com", Code: "111111", ExpiresAt: time.Now().Add(10 * time.Minute)}
	if err := repos.OTPs.ReplaceForEmail(context.Background(), first); err != nil {
		t.Fatalf("replace: %v", err)
	}
	second := &models.OTP{Email: "two@example.com", Code: "222222", ExpiresAt: time.Now().Add(10 * time.Minute)}
	if err := repos.OTPs.ReplaceForEmail(context.Background(), second); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if _, err := svc.VerifyAndPlaceOrder(ctx, "111111", ""); !errors.Is(err, service.ErrInvalidOrExpiredCode) {
		t.Fatalf("old code must be rejected, got %v", err)
	}
	if _, err := svc.VerifyAndPlaceOrder(ctx, "222222", ""); err != nil {
		t.Fatalf("latest code must be accepted: %v", err)
	}
}

func TestCheckout_ExpiredCodeRejected(t *testing.T) {
	db, repos := newRepos(t)
	svc := service.NewCheckoutService(repos, newMemStore(), &mockMailer{}, zap.NewNop(), 30*time.Minute, time.Minute)

	cat := seedCategory(t, db)
	p := seedProduct(t, db, cat.ID, "Shirt", "shirt", 500)
	userID := uint(3)
	ctx := userCtx(userID, "three@example.com", false)
	if err := repos.Carts.CreateItem(context.Background(), &models.CartItem{ProductID: p.ID, UserID: &userID, Quantity: 1, IsActive: true}); err != nil {
		t.Fatalf("seed cart item: %v", err)
	}

	if _, err := svc.Start(ctx, shipping("three@example.com")); err != nil {
		t.Fatalf("Start: %v", err)
	}

	stale := &models.OTP{Email: "three@example.com", Code: "333333", ExpiresAt: time.Now().Add(-time.Minute)}
	if err := repos.OTPs.ReplaceForEmail(context.Background(), stale); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if _, err := svc.VerifyAndPlaceOrder(ctx, "333333", ""); !errors.Is(err, service.ErrInvalidOrExpiredCode) {
		t.Fatalf("expired code must be rejected, got %v", err)
	}
}

func TestCheckout_ResendCooldown(t *testing.T) {
	db, repos := newRepos(t)
	store := newMemStore()
	mail := &mockMailer{}
	svc := service.NewCheckoutService(repos, store, mail, zap.NewNop(), 30*time.Minute, time.Minute)

	cat := seedCategory(t, db)
	p := seedProduct(t, db, cat.ID, "Shirt", "shirt", 500)
	userID := uint(4)
	ctx := userCtx(userID, "four@example.com", false)
	if err := repos.Carts.CreateItem(context.Background(), &models.CartItem{ProductID: p.ID, UserID: &userID, Quantity: 1, IsActive: true}); err != nil {
		t.Fatalf("seed cart item: %v", err)
	}

	if _, err := svc.Start(ctx, shipping("four@example.com")); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := svc.ResendCode(ctx); !errors.Is(err, service.ErrTooManyRequests) {
		t.Fatalf("resend inside cooldown must fail, got %v", err)
	}

	store.clearRateLimit("otp_resend:u:4")
	if err := svc.ResendCode(ctx); err != nil {
		t.Fatalf("resend after cooldown: %v", err)
	}
	if mail.count() != 2 {
		t.Fatalf("expected two emails, got %d", mail.count())
	}
}

func TestCheckout_RequiresLogin(t *testing.T) {
	db, repos := newRepos(t)
	svc := service.NewCheckoutService(repos, newMemStore(), &mockMailer{}, zap.NewNop(), 30*time.Minute, time.Minute)

	cat := seedCategory(t, db)
	p := seedProduct(t, db, cat.ID, "Shirt", "shirt", 500)

	// анонимная корзина есть, но оформление доступно только после входа
	ctx := anonCtx("guest-token")
	cart := &models.Cart{CartID: "guest-token"}
	if err := repos.Carts.Create(context.Background(), cart); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	if err := repos.Carts.CreateItem(context.Background(), &models.CartItem{ProductID: p.ID, CartRefID: &cart.ID, Quantity: 3, IsActive: true}); err != nil {
		t.Fatalf("seed cart item: %v", err)
	}

	if _, err := svc.Start(ctx, shipping("guest@example.com")); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.VerifyAndPlaceOrder(ctx, "123456", ""); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCheckout_RepeatedStartHonorsCooldown(t *testing.T) {
	db, repos := newRepos(t)
	store := newMemStore()
	mail := &mockMailer{}
	svc := service.NewCheckoutService(repos, store, mail, zap.NewNop(), 30*time.Minute, time.Minute)

	cat := seedCategory(t, db)
	p := seedProduct(t, db, cat.ID, "Shirt", "shirt", 500)
	userID := uint(5)
	ctx := userCtx(userID, "five@example.com", false)
	if err := repos.Carts.CreateItem(context.Background(), &models.CartItem{ProductID: p.ID, UserID: &userID, Quantity: 1, IsActive: true}); err != nil {
		t.Fatalf("seed cart item: %v", err)
	}

	if _, err := svc.Start(ctx, shipping("five@example.com")); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// повторная отправка формы в пределах кулдауна перезаписывает
	// состояние, но не шлёт новый код
	if _, err := svc.Start(ctx, shipping("five@example.com")); err != nil {
		t.Fatalf("repeated Start: %v", err)
	}
	if mail.count() != 1 {
		t.Fatalf("expected one email inside cooldown, got %d", mail.count())
	}

	// прежний код остаётся действительным
	otp, err := repos.OTPs.LatestByEmail(context.Background(), "five@example.com")
	if err != nil {
		t.Fatalf("LatestByEmail: %v", err)
	}
	if _, err := svc.VerifyAndPlaceOrder(ctx, otp.Code, ""); err != nil {
		t.Fatalf("VerifyAndPlaceOrder: %v", err)
	}

	store.clearRateLimit("otp_resend:u:5")
	if err := repos.Carts.CreateItem(context.Background(), &models.CartItem{ProductID: p.ID, UserID: &userID, Quantity: 2, IsActive: true}); err != nil {
		t.Fatalf("seed cart item: %v", err)
	}
	if _, err := svc.Start(ctx, shipping("five@example.com")); err != nil {
		t.Fatalf("Start after cooldown: %v", err)
	}
	if mail.count() != 2 {
		t.Fatalf("expected a fresh code after cooldown, got %d emails", mail.count())
	}
}

package repository_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestOTPRepo_ReplaceForEmail_Supersedes(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewOTPRepo(db)
	ctx := context.Background()

	first := &models.OTP{Email: "a@b.c", Code: "111111", ExpiresAt: time.Now().Add(10 * time.Minute)}
	if err := repo.ReplaceForEmail(ctx, first); err != nil {
		t.Fatalf("ReplaceForEmail: %v", err)
	}

	second := &models.OTP{Email: "a@b.c", Code: "222222", ExpiresAt: time.Now().Add(10 * time.Minute)}
	if err := repo.ReplaceForEmail(ctx, second); err != nil {
		t.Fatalf("ReplaceForEmail second: %v", err)
	}

	got, err := repo.LatestByEmail(ctx, "a@b.c")
	if err != nil {
		t.Fatalf("LatestByEmail: %v", err)
	}
	if got.Code != "222222" {
		t.Fatalf("expected superseding code, got %q", got.Code)
	}

	var cnt int64
	db.Model(&models.OTP{}).Where("email = ?", "a@b.c").Count(&cnt)
	if cnt != 1 {
		t.Fatalf("expected exactly one live code, got %d", cnt)
	}
}

func TestOrderRepo_MarkPaid_Idempotent(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewOrderRepo(db)
	ctx := context.Background()

	ord := &models.Order{
		Email: "a@b.c", FirstName: "A", LastName: "B", Phone: "1",
		AddressLine1: "street", City: "c", State: "s", Country: "x",
		Status: models.OrderStatusPlaced, PaymentStatus: models.PaymentStatusPending,
	}
	if err := repo.Create(ctx, ord); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rows, err := repo.MarkPaid(ctx, ord.ID, "visa")
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 affected row, got %d", rows)
	}

	rows, err = repo.MarkPaid(ctx, ord.ID, "bkash")
	if err != nil {
		t.Fatalf("MarkPaid repeat: %v", err)
	}
	if rows != 0 {
		t.Fatalf("repeat payment must affect 0 rows, got %d", rows)
	}

	got, err := repo.GetByID(ctx, ord.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PaymentStatus != models.PaymentStatusPaid || got.PaymentMethod != "visa" {
		t.Fatalf("unexpected state after repeat: %s/%s", got.PaymentStatus, got.PaymentMethod)
	}
	if got.Status != models.OrderStatusProcessing {
		t.Fatalf("paid order must move to Processing, got %s", got.Status)
	}
}

func TestOrderRepo_SetOrderNumber(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewOrderRepo(db)
	ctx := context.Background()

	created := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	ord := &models.Order{
		Email: "a@b.c", FirstName: "A", LastName: "B", Phone: "1",
		AddressLine1: "street", City: "c", State: "s", Country: "x",
		Status: models.OrderStatusPlaced, PaymentStatus: models.PaymentStatusPending,
		CreatedAt: created,
	}
	if err := repo.Create(ctx, ord); err != nil {
		t.Fatalf("Create: %v", err)
	}

	number := models.OrderNumberFor(created, ord.ID)
	if err := repo.SetOrderNumber(ctx, ord.ID, number); err != nil {
		t.Fatalf("SetOrderNumber: %v", err)
	}

	got, err := repo.GetByNumber(ctx, number)
	if err != nil {
		t.Fatalf("GetByNumber: %v", err)
	}
	if got.ID != ord.ID {
		t.Fatalf("wrong order by number: %d", got.ID)
	}
	want := fmt.Sprintf("20260314%d", ord.ID)
	if got.OrderNumber != want {
		t.Fatalf("order number %q, want %q", got.OrderNumber, want)
	}
}

func TestPaymentAccountRepo_Upsert(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewPaymentAccountRepo(db)
	ctx := context.Background()

	if err := repo.Upsert(ctx, &models.PaymentAccount{UserID: 1, Method: "visa", AccountNumber: "4111111111111"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(ctx, &models.PaymentAccount{UserID: 1, Method: "visa", AccountNumber: "4222222222222"}); err != nil {
		t.Fatalf("Upsert overwrite: %v", err)
	}

	got, err := repo.GetForUser(ctx, 1, "visa")
	if err != nil {
		t.Fatalf("GetForUser: %v", err)
	}
	if got.AccountNumber != "4222222222222" {
		t.Fatalf("expected overwritten number, got %q", got.AccountNumber)
	}

	list, err := repo.ListForUser(ctx, 1)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected a single row per (user, method), got %d", len(list))
	}

	masked := got.Masked()
	if masked != "*********2222" {
		t.Fatalf("masked %q", masked)
	}
}

func TestReviewRepo_RecountVotes(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewReviewRepo(db)
	ctx := context.Background()

	rv := &models.ReviewRating{ProductID: 1, UserID: 1, Rating: 4, Body: "good enough overall", Status: models.ReviewStatusVisible}
	if err := repo.Create(ctx, rv); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i, helpful := range []bool{true, true, false} {
		v := &models.ReviewHelpfulness{ReviewID: rv.ID, UserID: uint(10 + i), IsHelpful: helpful}
		if err := repo.CreateVote(ctx, v); err != nil {
			t.Fatalf("CreateVote: %v", err)
		}
	}

	helpful, total, err := repo.RecountVotes(ctx, rv.ID)
	if err != nil {
		t.Fatalf("RecountVotes: %v", err)
	}
	if helpful != 2 || total != 3 {
		t.Fatalf("recount got %d/%d, want 2/3", helpful, total)
	}

	got, _ := repo.GetByID(ctx, rv.ID)
	if got.HelpfulVotes != 2 || got.TotalVotes != 3 {
		t.Fatalf("stored counters %d/%d", got.HelpfulVotes, got.TotalVotes)
	}
}

func TestCartRepo_ItemLifecycle(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewCartRepo(db)
	ctx := context.Background()

	cart := &models.Cart{CartID: "token-1"}
	if err := repo.Create(ctx, cart); err != nil {
		t.Fatalf("Create cart: %v", err)
	}

	if err := db.Create(&models.Product{Name: "Shirt", Slug: "shirt", Price: 500, CategoryID: 1, IsAvailable: true}).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	it := &models.CartItem{ProductID: 1, CartRefID: &cart.ID, Quantity: 2, IsActive: true}
	if err := repo.CreateItem(ctx, it); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	items, err := repo.ListItemsForCart(ctx, cart.ID)
	if err != nil {
		t.Fatalf("ListItemsForCart: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[0].SubTotal() != 1000 {
		t.Fatalf("subtotal %d", items[0].SubTotal())
	}

	if err := repo.UpdateItemQuantity(ctx, it.ID, 5); err != nil {
		t.Fatalf("UpdateItemQuantity: %v", err)
	}
	got, _ := repo.GetItem(ctx, it.ID)
	if got.Quantity != 5 {
		t.Fatalf("quantity %d", got.Quantity)
	}

	if err := repo.DeleteItem(ctx, it.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if _, err := repo.GetItem(ctx, it.ID); err != repository.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

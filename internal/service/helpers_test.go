package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/service"

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

func newRepos(t *testing.T) (*gorm.DB, *repository.Repository) {
	t.Helper()
	db := setupDB(t)
	return db, repository.New(db)
}

// memStore — StateStore в памяти, TTL игнорируется.
type memStore struct {
	mu     sync.Mutex
	states map[string][]byte
	limits map[string]bool
	seen   map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		states: map[string][]byte{},
		limits: map[string]bool{},
		seen:   map[string]bool{},
	}
}

func (m *memStore) SetCheckoutState(_ context.Context, owner string, state any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.states[owner] = data
	return nil
}

func (m *memStore) GetCheckoutState(_ context.Context, owner string, state any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.states[owner]
	if !ok {
		return cache.ErrNoState
	}
	return json.Unmarshal(data, state)
}

func (m *memStore) DelCheckoutState(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, owner)
	return nil
}

func (m *memStore) SetRateLimit(_ context.Context, key string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits[key] = true
	return nil
}

func (m *memStore) CheckRateLimit(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limits[key], nil
}

func (m *memStore) clearRateLimit(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.limits, key)
}

func (m *memStore) MarkConfirmationSeen(_ context.Context, orderNumber string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[orderNumber] {
		return false, nil
	}
	m.seen[orderNumber] = true
	return true, nil
}

type sentMail struct {
	To      string
	Subject string
	Text    string
}

type mockMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	SendFunc func(ctx context.Context, to, subject, html, text string) error
}

func (m *mockMailer) Send(ctx context.Context, to, subject, html, text string) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, subject, html, text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Text: text})
	return nil
}

func (m *mockMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func seedCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()
	c := &models.Category{Name: "Clothing", Slug: "clothing"}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return c
}

func seedProduct(t *testing.T, db *gorm.DB, categoryID uint, name, slug string, price int64) *models.Product {
	t.Helper()
	p := &models.Product{
		Name: name, Slug: slug, Price: price,
		Stock: 10, IsAvailable: true, CategoryID: categoryID,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func seedVariation(t *testing.T, db *gorm.DB, productID uint, category models.VariationCategory, value string) *models.Variation {
	t.Helper()
	v := &models.Variation{ProductID: productID, Category: category, Value: value, IsActive: true}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("seed variation: %v", err)
	}
	return v
}

func userCtx(userID uint, email string, staff bool) context.Context {
	return service.WithIdentity(context.Background(), service.Identity{
		UserID:  userID,
		Email:   email,
		IsStaff: staff,
	})
}

func anonCtx(token string) context.Context {
	return service.WithCartToken(context.Background(), token)
}

func shipping(email string) service.ShippingInput {
	return service.ShippingInput{
		FirstName:    "Ava",
		LastName:     "Rahman",
		Email:        email,
		Phone:        "01712345678",
		AddressLine1: "12 Lake Road",
		City:         "Dhaka",
		State:        "Dhaka",
		Country:      "BD",
	}
}

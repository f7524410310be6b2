package models

import (
	"fmt"
	"time"
)

// Статусы заказа — строковый тип, значения фиксируются CHECK-ограничением в миграции.
type OrderStatus string

const (
	OrderStatusPlaced     OrderStatus = "Placed"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPlaced, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusFailed  PaymentStatus = "Failed"
)

type VariationCategory string

const (
	VariationColor VariationCategory = "color"
	VariationSize  VariationCategory = "size"
)

type ReviewStatus string

const (
	ReviewStatusPending ReviewStatus = "pending"
	ReviewStatusHidden  ReviewStatus = "hidden"
	ReviewStatusVisible ReviewStatus = "visible"
)

type AuditAction string

const (
	AuditActionHide     AuditAction = "hide"
	AuditActionShow     AuditAction = "show"
	AuditActionModerate AuditAction = "moderate"
)

// User — минимальная запись личности. Аутентификация живёт во внешнем
// сервисе, строка создаётся из claims токена при первой записи.
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Email     string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	FirstName string    `gorm:"size:50" json:"first_name"`
	LastName  string    `gorm:"size:50" json:"last_name"`
	Phone     string    `gorm:"size:15" json:"phone"`
	IsStaff   bool      `gorm:"not null;default:false" json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

type Category struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
	Slug string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
}

func (Category) TableName() string { return "categories" }

type Product struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"size:500" json:"description"`
	Price       int64     `gorm:"not null" json:"price"`
	Stock       int       `gorm:"not null;default:0" json:"stock"`
	IsAvailable bool      `gorm:"not null;default:true;index" json:"is_available"`
	CategoryID  uint      `gorm:"not null;index" json:"category_id"`
	Category    *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

type Variation struct {
	ID        uint              `gorm:"primarykey" json:"id"`
	ProductID uint              `gorm:"not null;index" json:"product_id"`
	Category  VariationCategory `gorm:"type:text;not null" json:"category"`
	Value     string            `gorm:"size:100;not null" json:"value"`
	IsActive  bool              `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
}

func (Variation) TableName() string { return "variations" }

// Cart — анонимная корзина; CartID выдаётся cookie и живёт до оформления.
type Cart struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CartID    string    `gorm:"size:250;uniqueIndex;not null" json:"cart_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Cart) TableName() string { return "carts" }

// CartItem принадлежит либо пользователю, либо анонимной корзине.
type CartItem struct {
	ID         uint        `gorm:"primarykey" json:"id"`
	ProductID  uint        `gorm:"not null;index" json:"product_id"`
	Product    *Product    `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CartRefID  *uint       `gorm:"column:cart_ref_id;index" json:"-"`
	UserID     *uint       `gorm:"index" json:"-"`
	Quantity   int         `gorm:"not null" json:"quantity"`
	IsActive   bool        `gorm:"not null;default:true;index" json:"is_active"`
	Variations []Variation `gorm:"many2many:cart_item_variations" json:"variations"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (CartItem) TableName() string { return "cart_items" }

func (ci *CartItem) SubTotal() int64 {
	if ci.Product == nil {
		return 0
	}
	return ci.Product.Price * int64(ci.Quantity)
}

type Order struct {
	ID             uint          `gorm:"primarykey" json:"id"`
	UserID         *uint         `gorm:"index" json:"user_id,omitempty"`
	Email          string        `gorm:"size:100;not null" json:"email"`
	FirstName      string        `gorm:"size:50;not null" json:"first_name"`
	LastName       string        `gorm:"size:50;not null" json:"last_name"`
	Phone          string        `gorm:"size:15;not null" json:"phone"`
	AddressLine1   string        `gorm:"size:50;not null" json:"address_line_1"`
	AddressLine2   string        `gorm:"size:50" json:"address_line_2"`
	City           string        `gorm:"size:50;not null" json:"city"`
	State          string        `gorm:"size:50;not null" json:"state"`
	Country        string        `gorm:"size:50;not null" json:"country"`
	OrderNote      string        `gorm:"size:100" json:"order_note"`
	AdditionalInfo string        `gorm:"size:255" json:"additional_info"`
	EmailVerified  bool          `gorm:"not null;default:false" json:"email_verified"`
	OrderTotal     float64       `gorm:"not null" json:"order_total"`
	Tax            float64       `gorm:"not null" json:"tax"`
	Status         OrderStatus   `gorm:"type:text;not null;default:'Placed';index" json:"status"`
	PaymentStatus  PaymentStatus `gorm:"type:text;not null;default:'Pending';index" json:"payment_status"`
	PaymentMethod  string        `gorm:"size:20" json:"payment_method,omitempty"`
	IP             string        `gorm:"size:45" json:"-"`
	OrderNumber    string        `gorm:"size:20;index" json:"order_number"`
	CreatedAt      time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	StatusUpdates []OrderStatusUpdate `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"status_updates,omitempty"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) FullName() string { return o.FirstName + " " + o.LastName }

func (o *Order) FullAddress() string {
	if o.AddressLine2 == "" {
		return o.AddressLine1
	}
	return o.AddressLine1 + " " + o.AddressLine2
}

// OrderItem — замороженная копия позиции корзины на момент оформления.
type OrderItem struct {
	ID           uint        `gorm:"primarykey" json:"id"`
	OrderID      uint        `gorm:"not null;index" json:"order_id"`
	ProductID    uint        `gorm:"not null;index" json:"product_id"`
	Product      *Product    `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity     int         `gorm:"not null" json:"quantity"`
	ProductPrice int64       `gorm:"not null" json:"product_price"`
	Ordered      bool        `gorm:"not null;default:false" json:"ordered"`
	Variations   []Variation `gorm:"many2many:order_item_variations" json:"variations"`
	CreatedAt    time.Time   `json:"created_at"`
}

func (OrderItem) TableName() string { return "order_items" }

// OrderStatusUpdate — только вставка; журнал никогда не правится и не чистится.
type OrderStatusUpdate struct {
	ID        uint        `gorm:"primarykey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"type:text;not null" json:"status"`
	Notes     string      `gorm:"type:text" json:"notes"`
	UpdatedBy *uint       `json:"updated_by,omitempty"`
	CreatedAt time.Time   `gorm:"index" json:"timestamp"`
}

func (OrderStatusUpdate) TableName() string { return "order_status_updates" }

// OTP — максимум одна живая запись на email (uniqueIndex), выдача новой
// заменяет предыдущую.
type OTP struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	Email     string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Code      string    `gorm:"size:6;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (OTP) TableName() string { return "otps" }

func (o *OTP) Expired(now time.Time) bool { return now.After(o.ExpiresAt) }

type PaymentAccount struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:ux_payment_accounts_user_method" json:"-"`
	Method        string    `gorm:"size:20;not null;uniqueIndex:ux_payment_accounts_user_method" json:"method"`
	AccountNumber string    `gorm:"size:20;not null" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (PaymentAccount) TableName() string { return "payment_accounts" }

// Masked оставляет видимыми последние четыре цифры.
func (a *PaymentAccount) Masked() string {
	n := len(a.AccountNumber)
	if n <= 4 {
		return a.AccountNumber
	}
	masked := make([]byte, n)
	for i := 0; i < n-4; i++ {
		masked[i] = '*'
	}
	copy(masked[n-4:], a.AccountNumber[n-4:])
	return string(masked)
}

// ReviewRating — один отзыв на пару (user, product), уникальность на уровне БД.
type ReviewRating struct {
	ID               uint         `gorm:"primarykey" json:"id"`
	ProductID        uint         `gorm:"not null;uniqueIndex:ux_reviews_user_product;index:ix_reviews_product_status" json:"product_id"`
	UserID           uint         `gorm:"not null;uniqueIndex:ux_reviews_user_product" json:"user_id"`
	Subject          string       `gorm:"size:100" json:"subject"`
	Body             string       `gorm:"size:500" json:"body"`
	Rating           float64      `gorm:"not null" json:"rating"`
	IP               string       `gorm:"size:45" json:"-"`
	Status           ReviewStatus `gorm:"type:text;not null;default:'pending';index:ix_reviews_product_status" json:"status"`
	VerifiedPurchase bool         `gorm:"not null;default:false" json:"verified_purchase"`
	HelpfulVotes     int          `gorm:"not null;default:0" json:"helpful_votes"`
	TotalVotes       int          `gorm:"not null;default:0" json:"total_votes"`
	ModerationReason string       `gorm:"type:text" json:"moderation_reason,omitempty"`
	ModeratedBy      *uint        `json:"moderated_by,omitempty"`
	ModeratedAt      *time.Time   `json:"moderated_at,omitempty"`
	CreatedAt        time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (ReviewRating) TableName() string { return "review_ratings" }

func (r *ReviewRating) HelpfulPercentage() float64 {
	if r.TotalVotes == 0 {
		return 0
	}
	return float64(r.HelpfulVotes) / float64(r.TotalVotes) * 100
}

type ReviewHelpfulness struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ReviewID  uint      `gorm:"not null;uniqueIndex:ux_review_votes_review_user" json:"review_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:ux_review_votes_review_user" json:"user_id"`
	IsHelpful bool      `gorm:"not null" json:"is_helpful"`
	CreatedAt time.Time `json:"created_at"`
}

func (ReviewHelpfulness) TableName() string { return "review_helpfulness" }

// ReviewAudit — журнал модерации, только вставка.
type ReviewAudit struct {
	ID        uint        `gorm:"primarykey" json:"id"`
	ReviewID  uint        `gorm:"not null;index" json:"review_id"`
	Action    AuditAction `gorm:"type:text;not null" json:"action"`
	AdminID   *uint       `json:"admin_id,omitempty"`
	Reason    string      `gorm:"type:text" json:"reason"`
	CreatedAt time.Time   `gorm:"index" json:"timestamp"`
}

func (ReviewAudit) TableName() string { return "review_audits" }

// OrderNumberFor строит номер заказа из даты создания и id строки.
func OrderNumberFor(createdAt time.Time, id uint) string {
	return fmt.Sprintf("%s%d", createdAt.Format("20060102"), id)
}

// AllModels перечисляет таблицы для AutoMigrate в порядке зависимостей.
func AllModels() []any {
	return []any{
		&User{},
		&Category{},
		&Product{},
		&Variation{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderStatusUpdate{},
		&OTP{},
		&PaymentAccount{},
		&ReviewRating{},
		&ReviewHelpfulness{},
		&ReviewAudit{},
	}
}

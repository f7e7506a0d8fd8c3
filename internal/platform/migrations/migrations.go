package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&productRecord{},
		&couponRecord{},
		&orderRecord{},
		&orderItemRecord{},
		&cartRecord{},
		&cartItemRecord{},
	)
}

// Product schema mirrors the catalog Postgres adapter.
type productRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	Name      string          `gorm:"column:name"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(10,2)"`
	Discount  decimal.Decimal `gorm:"column:discount;type:decimal(5,2)"`
	Stock     int64           `gorm:"column:stock"`
	Colors    pq.StringArray  `gorm:"column:colors;type:text[]"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

// Coupon schema mirrors the catalog Postgres adapter.
type couponRecord struct {
	ID         int64           `gorm:"primaryKey;column:id"`
	Code       string          `gorm:"column:code;uniqueIndex;size:20"`
	Discount   decimal.Decimal `gorm:"column:discount;type:decimal(5,2)"`
	Active     bool            `gorm:"column:active"`
	ExpiresAt  *time.Time      `gorm:"column:expires_at"`
	UsageLimit int64           `gorm:"column:usage_limit"`
	UsedCount  int64           `gorm:"column:used_count"`
}

func (couponRecord) TableName() string { return "coupons" }

// Order schema mirrors the orders Postgres adapter.
type orderRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	UserID    int64           `gorm:"column:user_id;index"`
	Status    string          `gorm:"column:status;type:varchar(20);index"`
	Total     decimal.Decimal `gorm:"column:total;type:decimal(10,2)"`
	CreatedAt time.Time       `gorm:"column:created_at;index"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	OrderID   int64           `gorm:"column:order_id;index"`
	ProductID int64           `gorm:"column:product_id"`
	SizeID    *int64          `gorm:"column:size_id"`
	Quantity  int64           `gorm:"column:quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(10,2)"`
}

func (orderItemRecord) TableName() string { return "order_items" }

// Cart schema mirrors the orders Postgres adapter. One cart per user.
type cartRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	UserID    int64     `gorm:"column:user_id;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (cartRecord) TableName() string { return "carts" }

type cartItemRecord struct {
	ID        int64  `gorm:"primaryKey;column:id"`
	CartID    int64  `gorm:"column:cart_id;index"`
	ProductID int64  `gorm:"column:product_id"`
	SizeID    *int64 `gorm:"column:size_id"`
	Quantity  int64  `gorm:"column:quantity"`
}

func (cartItemRecord) TableName() string { return "cart_items" }

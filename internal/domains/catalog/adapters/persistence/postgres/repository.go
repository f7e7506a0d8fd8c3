package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ydbloom/commerce-api/internal/domains/catalog/domain"
	"github.com/ydbloom/commerce-api/internal/domains/catalog/ports"
	platformpostgres "github.com/ydbloom/commerce-api/internal/platform/postgres"
)

var (
	_ ports.ProductRepository = (*Repository)(nil)
	_ ports.InventoryLedger   = (*Repository)(nil)
	_ ports.CouponRepository  = (*Repository)(nil)
)

// Repository reads products and coupons and acts as the inventory ledger
// over the product rows. Stock mutations lock the affected rows FOR UPDATE
// inside the caller's transaction.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

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

// GetByID fetches a product.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := platformpostgres.DB(ctx, r.db).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrProductNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// GetByIDs fetches a set of products keyed by id. Missing ids are simply
// absent from the result.
func (r *Repository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []productRecord
	if err := platformpostgres.DB(ctx, r.db).Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	result := make(map[int64]*domain.Product, len(records))
	for i := range records {
		result[records[i].ID] = records[i].toDomain()
	}
	return result, nil
}

// Reserve locks every affected product row, verifies stock for all lines,
// then decrements. A deficit on any line aborts before anything is written,
// and the surrounding transaction discards the locks.
func (r *Repository) Reserve(ctx context.Context, lines []domain.StockLine) ([]domain.StockLevel, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	db := platformpostgres.DB(ctx, r.db)
	locked, err := r.lockProducts(db, lines)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		product := locked[line.ProductID]
		if product.Stock < line.Quantity {
			return nil, fmt.Errorf("%w: not enough stock for %s", domain.ErrInsufficientStock, product.Name)
		}
	}
	levels := make([]domain.StockLevel, 0, len(lines))
	for _, line := range lines {
		product := locked[line.ProductID]
		if err := db.Model(&productRecord{}).
			Where("id = ?", line.ProductID).
			Update("stock", gorm.Expr("stock - ?", line.Quantity)).Error; err != nil {
			return nil, err
		}
		levels = append(levels, domain.StockLevel{
			ProductID: product.ID,
			Name:      product.Name,
			Remaining: product.Stock - line.Quantity,
		})
	}
	return levels, nil
}

// Release returns reserved quantities to stock under the same row locks.
func (r *Repository) Release(ctx context.Context, lines []domain.StockLine) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	db := platformpostgres.DB(ctx, r.db)
	if _, err := r.lockProducts(db, lines); err != nil {
		return err
	}
	for _, line := range lines {
		if err := db.Model(&productRecord{}).
			Where("id = ?", line.ProductID).
			Update("stock", gorm.Expr("stock + ?", line.Quantity)).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByCode fetches a coupon by its code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record couponRecord
	if err := platformpostgres.DB(ctx, r.db).First(&record, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrCouponNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// IncrementUsage bumps used_count by one.
func (r *Repository) IncrementUsage(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := platformpostgres.DB(ctx, r.db).
		Model(&couponRecord{}).
		Where("id = ?", id).
		Update("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrCouponNotFound
	}
	return nil
}

// lockProducts loads the affected rows FOR UPDATE in a stable id order to
// avoid deadlocks between concurrent reservations.
func (r *Repository) lockProducts(db *gorm.DB, lines []domain.StockLine) (map[int64]*productRecord, error) {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	var records []productRecord
	if err := db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&records).Error; err != nil {
		return nil, err
	}
	locked := make(map[int64]*productRecord, len(records))
	for i := range records {
		locked[records[i].ID] = &records[i]
	}
	for _, line := range lines {
		if _, ok := locked[line.ProductID]; !ok {
			return nil, ports.ErrProductNotFound
		}
	}
	return locked, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres catalog repository not configured")
	}
	return nil
}

func (r productRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:        r.ID,
		Name:      r.Name,
		Price:     r.Price,
		Discount:  r.Discount,
		Stock:     r.Stock,
		Colors:    []string(r.Colors),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r couponRecord) toDomain() *domain.Coupon {
	return &domain.Coupon{
		ID:         r.ID,
		Code:       r.Code,
		Discount:   r.Discount,
		Active:     r.Active,
		ExpiresAt:  r.ExpiresAt,
		UsageLimit: r.UsageLimit,
		UsedCount:  r.UsedCount,
	}
}

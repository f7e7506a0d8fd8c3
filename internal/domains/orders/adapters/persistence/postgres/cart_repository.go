package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ydbloom/commerce-api/internal/domains/orders/domain"
	"github.com/ydbloom/commerce-api/internal/domains/orders/ports"
	platformpostgres "github.com/ydbloom/commerce-api/internal/platform/postgres"
)

var _ ports.CartRepository = (*CartRepository)(nil)

// CartRepository persists per-user carts in PostgreSQL. One cart per user,
// enforced by a unique index on user_id.
type CartRepository struct {
	db *gorm.DB
}

// NewCartRepository wires a PostgreSQL-backed cart repository.
func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

type cartRecord struct {
	ID        int64            `gorm:"primaryKey;column:id"`
	UserID    int64            `gorm:"column:user_id;uniqueIndex"`
	Items     []cartItemRecord `gorm:"foreignKey:CartID"`
	CreatedAt time.Time        `gorm:"column:created_at"`
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

// GetByUser returns the user's cart, creating an empty one on first touch.
func (r *CartRepository) GetByUser(ctx context.Context, userID int64) (*domain.Cart, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	record, err := r.ensureCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// AddItem appends an item to the user's cart.
func (r *CartRepository) AddItem(ctx context.Context, userID int64, item domain.CartItem) (*domain.Cart, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	record, err := r.ensureCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	itemRecord := cartItemRecord{
		CartID:    record.ID,
		ProductID: item.ProductID,
		SizeID:    item.SizeID,
		Quantity:  item.Quantity,
	}
	if err := platformpostgres.DB(ctx, r.db).Create(&itemRecord).Error; err != nil {
		return nil, err
	}
	return r.GetByUser(ctx, userID)
}

// UpdateItemQuantity sets the quantity of an item the user owns; a quantity
// of zero or less removes it.
func (r *CartRepository) UpdateItemQuantity(ctx context.Context, userID, itemID, quantity int64) (*domain.Cart, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		if err := r.RemoveItem(ctx, userID, itemID); err != nil {
			return nil, err
		}
		return r.GetByUser(ctx, userID)
	}
	result := platformpostgres.DB(ctx, r.db).
		Model(&cartItemRecord{}).
		Where("id = ? AND cart_id IN (?)", itemID, r.cartIDQuery(ctx, userID)).
		Update("quantity", quantity)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrItemNotFound
	}
	return r.GetByUser(ctx, userID)
}

// RemoveItem deletes an item the user owns.
func (r *CartRepository) RemoveItem(ctx context.Context, userID, itemID int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := platformpostgres.DB(ctx, r.db).
		Where("id = ? AND cart_id IN (?)", itemID, r.cartIDQuery(ctx, userID)).
		Delete(&cartItemRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrItemNotFound
	}
	return nil
}

// Clear deletes every item in the user's cart.
func (r *CartRepository) Clear(ctx context.Context, userID int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return platformpostgres.DB(ctx, r.db).
		Where("cart_id IN (?)", r.cartIDQuery(ctx, userID)).
		Delete(&cartItemRecord{}).Error
}

func (r *CartRepository) ensureCart(ctx context.Context, userID int64) (*cartRecord, error) {
	db := platformpostgres.DB(ctx, r.db)
	record := cartRecord{UserID: userID, CreatedAt: time.Now()}
	if err := db.
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&record).Error; err != nil {
		return nil, err
	}
	var found cartRecord
	if err := db.Preload("Items").First(&found, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrCartNotFound
		}
		return nil, err
	}
	return &found, nil
}

func (r *CartRepository) cartIDQuery(ctx context.Context, userID int64) *gorm.DB {
	return platformpostgres.DB(ctx, r.db).
		Model(&cartRecord{}).
		Select("id").
		Where("user_id = ?", userID)
}

func (r *CartRepository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres cart repository not configured")
	}
	return nil
}

func (r cartRecord) toDomain() *domain.Cart {
	items := make([]domain.CartItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, domain.CartItem{
			ID:        item.ID,
			CartID:    item.CartID,
			ProductID: item.ProductID,
			SizeID:    item.SizeID,
			Quantity:  item.Quantity,
		})
	}
	return &domain.Cart{
		ID:        r.ID,
		UserID:    r.UserID,
		Items:     items,
		CreatedAt: r.CreatedAt,
	}
}

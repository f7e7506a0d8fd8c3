//go:build integration
// +build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ydbloom/commerce-api/internal/domains/orders/domain"
	"github.com/ydbloom/commerce-api/internal/domains/orders/ports"
	"github.com/ydbloom/commerce-api/internal/platform/migrations"
	platformpostgres "github.com/ydbloom/commerce-api/internal/platform/postgres"
)

func setupPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("commerce_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func newPendingOrder(t *testing.T, userID int64) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(userID, decimal.RequireFromString("51.98"), []domain.OrderItem{
		{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("25.99")},
	})
	require.NoError(t, err)
	return order
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewOrderRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newPendingOrder(t, 42))
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	loaded, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, loaded.Status)
	assert.True(t, loaded.Total.Equal(decimal.RequireFromString("51.98")))
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, int64(2), loaded.Items[0].Quantity)

	_, err = repo.GetByID(ctx, created.ID+1000)
	assert.ErrorIs(t, err, ports.ErrOrderNotFound)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewOrderRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newPendingOrder(t, 42))
	require.NoError(t, err)

	paidAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateStatus(ctx, created.ID, domain.StatusPaid, paidAt))
	loaded, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, loaded.Status)
	assert.True(t, loaded.UpdatedAt.Equal(paidAt), "updated_at must persist the caller's timestamp")

	assert.ErrorIs(t, repo.UpdateStatus(ctx, created.ID+1000, domain.StatusPaid, paidAt), ports.ErrOrderNotFound)
}

func TestOrderRepository_ListByUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewOrderRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, newPendingOrder(t, 42))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newPendingOrder(t, 42))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newPendingOrder(t, 99))
	require.NoError(t, err)

	mine, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCartRepository_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewCartRepository(db)
	ctx := context.Background()

	// First touch creates an empty cart.
	cart, err := repo.GetByUser(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	cart, err = repo.AddItem(ctx, 42, domain.CartItem{ProductID: 1, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	itemID := cart.Items[0].ID

	cart, err = repo.UpdateItemQuantity(ctx, 42, itemID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), cart.Items[0].Quantity)

	// Zero or less removes the line.
	cart, err = repo.UpdateItemQuantity(ctx, 42, itemID, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// Another user cannot touch the item.
	cart, err = repo.AddItem(ctx, 42, domain.CartItem{ProductID: 2, Quantity: 1})
	require.NoError(t, err)
	assert.ErrorIs(t, repo.RemoveItem(ctx, 99, cart.Items[0].ID), ports.ErrItemNotFound)

	require.NoError(t, repo.Clear(ctx, 42))
	cart, err = repo.GetByUser(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewOrderRepository(db)
	tx := platformpostgres.NewTxManager(db)
	ctx := context.Background()

	var createdID int64
	sentinel := errors.New("abort")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		created, err := repo.Create(ctx, newPendingOrder(t, 42))
		if err != nil {
			return err
		}
		createdID = created.ID
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = repo.GetByID(ctx, createdID)
	assert.ErrorIs(t, err, ports.ErrOrderNotFound, "rolled-back order must not be visible")
}

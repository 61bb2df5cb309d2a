package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  image_url TEXT,
  price NUMERIC NOT NULL,
  available_qty INTEGER NOT NULL DEFAULT 0,
  farmer_id TEXT NOT NULL,
  farmer_name TEXT NOT NULL,
  farmer_location TEXT,
  traceability TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	return db
}

func newProduct(t *testing.T, db *gorm.DB, name string, qty int) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:           uuid.New(),
		Name:         name,
		Price:        decimal.NewFromInt(50),
		AvailableQty: qty,
		FarmerID:     uuid.New(),
		FarmerName:   "Green Valley Farm",
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRepositoryFindByIDs(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)

	first := newProduct(t, db, "Tomatoes", 10)
	second := newProduct(t, db, "Spinach", 5)
	newProduct(t, db, "Potatoes", 7)

	found, err := repo.FindByIDs(context.Background(), []uuid.UUID{first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, found, 2)

	none, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepositoryDecrement(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)

	product := newProduct(t, db, "Carrots", 10)

	require.NoError(t, repo.Decrement(context.Background(), product.ID, 4))

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 6, reloaded.AvailableQty)
}

func TestRepositoryDecrementInsufficientStock(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)

	product := newProduct(t, db, "Okra", 3)

	err := repo.Decrement(context.Background(), product.ID, 5)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 3, reloaded.AvailableQty)
}

func TestRepositoryDecrementMissingProduct(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)

	err := repo.Decrement(context.Background(), uuid.New(), 1)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestRepositoryRestore(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)

	product := newProduct(t, db, "Beans", 2)

	require.NoError(t, repo.Restore(context.Background(), product.ID, 3))

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 5, reloaded.AvailableQty)

	// zero and negative restores are no-ops
	require.NoError(t, repo.Restore(context.Background(), product.ID, 0))
	require.NoError(t, repo.Restore(context.Background(), product.ID, -1))
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmdirect/farmdirect-backend/pkg/types"
)

// Product is the catalog projection the order engine reads for pricing and
// writes for stock accounting. AvailableQty must never go negative; all
// decrements go through a guarded conditional update.
type Product struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name           string              `gorm:"column:name;not null" json:"name"`
	ImageURL       *string             `gorm:"column:image_url" json:"image_url,omitempty"`
	Price          decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	AvailableQty   int                 `gorm:"column:available_qty;not null;default:0" json:"available_qty"`
	FarmerID       uuid.UUID           `gorm:"column:farmer_id;type:uuid;not null;index" json:"farmer_id"`
	FarmerName     string              `gorm:"column:farmer_name;not null" json:"farmer_name"`
	FarmerLocation *string             `gorm:"column:farmer_location" json:"farmer_location,omitempty"`
	Traceability   *types.Traceability `gorm:"column:traceability;type:jsonb" json:"traceability,omitempty"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmdirect/farmdirect-backend/pkg/types"
)

// OrderItem captures the snapshot of each product line inside an order.
// Product and farmer details are copied at order time so the line stays
// stable when the catalog changes afterwards.
type OrderItem struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID        uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID      uuid.UUID           `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	ProductName    string              `gorm:"column:product_name;not null" json:"product_name"`
	ProductImage   *string             `gorm:"column:product_image" json:"product_image,omitempty"`
	UnitPrice      decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	Quantity       int                 `gorm:"column:quantity;not null" json:"quantity"`
	LineTotal      decimal.Decimal     `gorm:"column:line_total;type:numeric(12,2);not null" json:"line_total"`
	FarmerID       uuid.UUID           `gorm:"column:farmer_id;type:uuid;not null;index" json:"farmer_id"`
	FarmerName     string              `gorm:"column:farmer_name;not null" json:"farmer_name"`
	FarmerLocation *string             `gorm:"column:farmer_location" json:"farmer_location,omitempty"`
	Traceability   *types.Traceability `gorm:"column:traceability;type:jsonb" json:"traceability,omitempty"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

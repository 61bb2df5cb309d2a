package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	"github.com/farmdirect/farmdirect-backend/pkg/types"
)

// Order is the root record of the marketplace order lifecycle. RequestID
// backs client idempotency and carries a partial unique index; PublicID and
// OrderNumber are the human-facing identifiers printed on receipts.
type Order struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID           uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	RequestID        *string                `gorm:"column:request_id;uniqueIndex:uq_orders_request_id" json:"request_id,omitempty"`
	PublicID         string                 `gorm:"column:public_id;not null;uniqueIndex:uq_orders_public_id" json:"public_id"`
	OrderNumber      string                 `gorm:"column:order_number;not null;uniqueIndex:uq_orders_order_number" json:"order_number"`
	ShippingAddress  *types.ShippingAddress `gorm:"column:shipping_address;type:jsonb" json:"shipping_address,omitempty"`
	Subtotal         decimal.Decimal        `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	ShippingFee      decimal.Decimal        `gorm:"column:shipping_fee;type:numeric(12,2);not null" json:"shipping_fee"`
	TaxAmount        decimal.Decimal        `gorm:"column:tax_amount;type:numeric(12,2);not null" json:"tax_amount"`
	DiscountAmount   decimal.Decimal        `gorm:"column:discount_amount;type:numeric(12,2);not null" json:"discount_amount"`
	TotalAmount      decimal.Decimal        `gorm:"column:total_amount;type:numeric(12,2);not null" json:"total_amount"`
	CouponCode       *string                `gorm:"column:coupon_code" json:"coupon_code,omitempty"`
	PaymentMethod    enums.PaymentMethod    `gorm:"column:payment_method;type:text;not null" json:"payment_method"`
	PaymentStatus    enums.PaymentStatus    `gorm:"column:payment_status;type:text;not null;default:'pending'" json:"payment_status"`
	OrderStatus      enums.OrderStatus      `gorm:"column:order_status;type:text;not null;default:'created';index" json:"order_status"`
	PaymentDetails   *types.PaymentDetails  `gorm:"column:payment_details;type:jsonb" json:"payment_details,omitempty"`
	DeliveryEstimate *time.Time             `gorm:"column:delivery_estimate" json:"delivery_estimate,omitempty"`
	StockCommittedAt *time.Time             `gorm:"column:stock_committed_at" json:"stock_committed_at,omitempty"`
	CancelledAt      *time.Time             `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CancelledBy      *uuid.UUID             `gorm:"column:cancelled_by;type:uuid" json:"cancelled_by,omitempty"`
	CancelReason     *string                `gorm:"column:cancel_reason" json:"cancel_reason,omitempty"`
	Version          int                    `gorm:"column:version;not null;default:1" json:"version"`
	Items            []OrderItem            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// StockCommitted reports whether inventory for this order has already been
// decremented. Stock is committed at most once per order.
func (o *Order) StockCommitted() bool {
	return o.StockCommittedAt != nil
}

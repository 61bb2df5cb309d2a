package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	"github.com/farmdirect/farmdirect-backend/pkg/pagination"
)

// Actor identifies the authenticated caller of an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CreateOrderItemInput is one requested product line.
type CreateOrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput captures everything needed to place an order.
type CreateOrderInput struct {
	UserID          uuid.UUID
	RequestID       *string
	Items           []CreateOrderItemInput
	ShippingAddress ShippingAddressInput
	PaymentMethod   enums.PaymentMethod
	CouponCode      *string
	ShippingFee     decimal.Decimal
	TaxAmount       decimal.Decimal
	DiscountAmount  decimal.Decimal
}

// ShippingAddressInput mirrors the stored address snapshot.
type ShippingAddressInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	City      string
	State     string
	Pincode   string
	Country   string
}

// CheckoutIntent carries the fields the storefront needs to open the gateway
// checkout for an order paid online.
type CheckoutIntent struct {
	GatewayOrderID string `json:"gateway_order_id"`
	GatewayKeyID   string `json:"gateway_key_id"`
	AmountPaise    int64  `json:"amount_paise"`
	Currency       string `json:"currency"`
}

// CreateOrderResult wraps the stored order plus the optional checkout intent.
// Replayed is set when a duplicate request id returned the existing order.
type CreateOrderResult struct {
	Order    *models.Order
	Checkout *CheckoutIntent
	Replayed bool
}

// VerifyPaymentInput carries the gateway callback fields for verification.
type VerifyPaymentInput struct {
	Actor            Actor
	OrderID          uuid.UUID
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
}

// UpdateStatusInput captures an admin-driven fulfillment transition.
type UpdateStatusInput struct {
	Actor   Actor
	OrderID uuid.UUID
	Status  enums.OrderStatus
}

// CancelOrderInput captures a cancellation request.
type CancelOrderInput struct {
	Actor   Actor
	OrderID uuid.UUID
	Reason  *string
}

// RefundInput captures an admin-driven refund request. Amount defaults to
// the order total when nil.
type RefundInput struct {
	Actor   Actor
	OrderID uuid.UUID
	Amount  *decimal.Decimal
	Reason  *string
}

// ListFilters describe the inputs supported by the order lists.
type ListFilters struct {
	OrderStatus   *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
	Query         string
}

// OrderList wraps the paginated orders plus the page metadata.
type OrderList struct {
	Orders []models.Order  `json:"orders"`
	Meta   pagination.Meta `json:"meta"`
}

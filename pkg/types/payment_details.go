package types

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentDetails captures the gateway identifiers attached to an order once
// an intent is created and later verified. The refund fields record an
// operator's refund decision; settlement happens outside this system.
type PaymentDetails struct {
	GatewayOrderID   string           `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string           `json:"gateway_payment_id,omitempty"`
	GatewaySignature string           `json:"gateway_signature,omitempty"`
	Receipt          string           `json:"receipt,omitempty"`
	PaidAt           *time.Time       `json:"paid_at,omitempty"`
	RefundAmount     *decimal.Decimal `json:"refund_amount,omitempty"`
	RefundReason     string           `json:"refund_reason,omitempty"`
	RefundedBy       *uuid.UUID       `json:"refunded_by,omitempty"`
	RefundedAt       *time.Time       `json:"refunded_at,omitempty"`
}

// Value serializes the payment details to JSON.
func (p *PaymentDetails) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan decodes JSONB into the payment details struct.
func (p *PaymentDetails) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentDetails{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, p)
}

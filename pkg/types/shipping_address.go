package types

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// ShippingAddress is the delivery destination snapshot stored on an order.
type ShippingAddress struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Pincode   string `json:"pincode" validate:"required"`
	Country   string `json:"country"`
}

// Normalize fills in defaults that the storefront omits.
func (s *ShippingAddress) Normalize() {
	if strings.TrimSpace(s.Country) == "" {
		s.Country = "India"
	}
}

// Value serializes the address to JSON.
func (s *ShippingAddress) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan decodes JSONB into the address struct.
func (s *ShippingAddress) Scan(value interface{}) error {
	if value == nil {
		*s = ShippingAddress{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, s)
}

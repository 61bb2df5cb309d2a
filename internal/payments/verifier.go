package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Verifier validates gateway callback signatures. The gateway signs the
// string "<gateway_order_id>|<gateway_payment_id>" with HMAC-SHA256 using the
// key secret and sends the hex digest back with the checkout callback.
type Verifier struct {
	secret []byte
}

// NewVerifier builds a Verifier from the gateway key secret.
func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("gateway key secret is required")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify reports whether the provided signature matches the expected digest
// for the order/payment pair. Comparison is constant time.
func (v *Verifier) Verify(gatewayOrderID, gatewayPaymentID, signature string) bool {
	if gatewayOrderID == "" || gatewayPaymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	provided := strings.ToLower(strings.TrimSpace(signature))
	return hmac.Equal([]byte(expected), []byte(provided))
}

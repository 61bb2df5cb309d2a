package orders

import (
	"fmt"
	"math/rand"
	"time"
)

// newPublicID mints the human-facing order identifier printed on receipts,
// e.g. ORD-20260815-04217. Uniqueness is enforced by the database; callers
// retry once with fresh identifiers on collision.
func newPublicID(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%05d", now.UTC().Format("20060102"), rand.Intn(100000))
}

// newOrderNumber mints the short order number used in support conversations,
// e.g. ORD-26731942.
func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s%06d", now.UTC().Format("06"), rand.Intn(1000000))
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/farmdirect/farmdirect-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID attaches a correlation id to every request. An inbound id is kept
// only when it parses as a UUID; anything else is replaced with a fresh one.
// The final id is echoed in the response and bound to the request logger.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if _, err := uuid.Parse(reqID); err != nil {
				reqID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

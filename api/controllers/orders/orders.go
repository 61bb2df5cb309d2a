package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmdirect/farmdirect-backend/api/middleware"
	"github.com/farmdirect/farmdirect-backend/api/responses"
	"github.com/farmdirect/farmdirect-backend/api/validators"
	internalorders "github.com/farmdirect/farmdirect-backend/internal/orders"
	"github.com/farmdirect/farmdirect-backend/internal/reports"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
	"github.com/farmdirect/farmdirect-backend/pkg/logger"
)

type createOrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type shippingAddressRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,min=10,max=15"`
	Address   string `json:"address" validate:"required,max=500"`
	City      string `json:"city" validate:"required,max=100"`
	State     string `json:"state" validate:"required,max=100"`
	Pincode   string `json:"pincode" validate:"required,min=6,max=6"`
	Country   string `json:"country,omitempty" validate:"omitempty,max=100"`
}

type createOrderRequest struct {
	RequestID       *string                  `json:"request_id,omitempty" validate:"omitempty,min=8,max=128"`
	Items           []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress shippingAddressRequest   `json:"shipping_address" validate:"required"`
	PaymentMethod   string                   `json:"payment_method" validate:"required,oneof=cod razorpay"`
	CouponCode      *string                  `json:"coupon_code,omitempty" validate:"omitempty,max=50"`
	ShippingFee     decimal.Decimal          `json:"shipping_fee"`
	TaxAmount       decimal.Decimal          `json:"tax_amount"`
	DiscountAmount  decimal.Decimal          `json:"discount_amount"`
}

type createOrderResponse struct {
	Order    any  `json:"order"`
	Checkout any  `json:"checkout,omitempty"`
	Replayed bool `json:"replayed"`
}

func actorFromContext(r *http.Request) internalorders.Actor {
	return internalorders.Actor{
		UserID: middleware.UserIDFromContext(r.Context()),
		Role:   middleware.RoleFromContext(r.Context()),
	}
}

// Create places a new order for the authenticated consumer.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		items := make([]internalorders.CreateOrderItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, internalorders.CreateOrderItemInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		result, err := svc.Create(r.Context(), internalorders.CreateOrderInput{
			UserID:    middleware.UserIDFromContext(r.Context()),
			RequestID: req.RequestID,
			Items:     items,
			ShippingAddress: internalorders.ShippingAddressInput{
				FirstName: req.ShippingAddress.FirstName,
				LastName:  req.ShippingAddress.LastName,
				Email:     req.ShippingAddress.Email,
				Phone:     req.ShippingAddress.Phone,
				Address:   req.ShippingAddress.Address,
				City:      req.ShippingAddress.City,
				State:     req.ShippingAddress.State,
				Pincode:   req.ShippingAddress.Pincode,
				Country:   req.ShippingAddress.Country,
			},
			PaymentMethod:  method,
			CouponCode:     req.CouponCode,
			ShippingFee:    req.ShippingFee,
			TaxAmount:      req.TaxAmount,
			DiscountAmount: req.DiscountAmount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Replayed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, createOrderResponse{
			Order:    result.Order,
			Checkout: checkoutOrNil(result.Checkout),
			Replayed: result.Replayed,
		})
	}
}

func checkoutOrNil(checkout *internalorders.CheckoutIntent) any {
	if checkout == nil {
		return nil
	}
	return checkout
}

// verifyPaymentRequest leaves order_id optional so gateway webhooks that only
// carry the gateway order id can still verify.
type verifyPaymentRequest struct {
	OrderID           uuid.UUID `json:"order_id,omitempty" validate:"omitempty"`
	RazorpayOrderID   string    `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string    `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string    `json:"razorpay_signature" validate:"required"`
}

// VerifyPayment confirms a gateway payment callback against the stored order.
func VerifyPayment(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.VerifyPayment(r.Context(), internalorders.VerifyPaymentInput{
			Actor:            actorFromContext(r),
			OrderID:          req.OrderID,
			GatewayOrderID:   req.RazorpayOrderID,
			GatewayPaymentID: req.RazorpayPaymentID,
			GatewaySignature: req.RazorpaySignature,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Detail returns one order scoped to the caller's role.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderID"), "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), actorFromContext(r), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func listFilters(r *http.Request) (internalorders.ListFilters, error) {
	orderStatus, err := validators.ParseQueryOrderStatus(r, "status")
	if err != nil {
		return internalorders.ListFilters{}, err
	}
	paymentStatus, err := validators.ParseQueryPaymentStatus(r, "payment_status")
	if err != nil {
		return internalorders.ListFilters{}, err
	}
	dateFrom, err := validators.ParseQueryDate(r, "date_from")
	if err != nil {
		return internalorders.ListFilters{}, err
	}
	dateTo, err := validators.ParseQueryDate(r, "date_to")
	if err != nil {
		return internalorders.ListFilters{}, err
	}
	return internalorders.ListFilters{
		OrderStatus:   orderStatus,
		PaymentStatus: paymentStatus,
		DateFrom:      dateFrom,
		DateTo:        dateTo,
		Query:         strings.TrimSpace(r.URL.Query().Get("q")),
	}, nil
}

// List returns the authenticated consumer's order history.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := listFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMine(r.Context(), middleware.UserIDFromContext(r.Context()), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// FarmerList returns orders containing the authenticated farmer's products.
func FarmerList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListFarmer(r.Context(), middleware.UserIDFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Recent returns the caller's newest orders for dashboard widgets.
func Recent(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.Recent(r.Context(), actorFromContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": rows})
	}
}

type cancelOrderRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// Cancel cancels an order on behalf of its owner or an admin.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderID"), "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cancelOrderRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		order, err := svc.Cancel(r.Context(), internalorders.CancelOrderInput{
			Actor:   actorFromContext(r),
			OrderID: orderID,
			Reason:  req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ConsumerStats returns the authenticated consumer's order history summary.
func ConsumerStats(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.ConsumerStats(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/farmdirect/farmdirect-backend/internal/inventory"
	"github.com/farmdirect/farmdirect-backend/pkg/config"
	"github.com/farmdirect/farmdirect-backend/pkg/db"
	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
	"github.com/farmdirect/farmdirect-backend/pkg/logger"
	"github.com/farmdirect/farmdirect-backend/pkg/metrics"
	"github.com/farmdirect/farmdirect-backend/pkg/pagination"
	"github.com/farmdirect/farmdirect-backend/pkg/razorpay"
	"github.com/farmdirect/farmdirect-backend/pkg/types"
)

const recentOrdersLimit = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gateway interface {
	CreateOrder(ctx context.Context, params razorpay.OrderCreateParams) (*razorpay.Order, error)
	KeyID() string
	Currency() string
	NewReceipt(prefix string) string
}

type signatureVerifier interface {
	Verify(gatewayOrderID, gatewayPaymentID, signature string) bool
}

type notifier interface {
	OrderCreated(ctx context.Context, order *models.Order) error
	OrderStatusChanged(ctx context.Context, order *models.Order, to enums.OrderStatus) error
}

// Service defines the order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelOrderInput) (*models.Order, error)
	Refund(ctx context.Context, input RefundInput) (*models.Order, error)
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	ListFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) (*OrderList, error)
	Recent(ctx context.Context, actor Actor) ([]models.Order, error)
}

type service struct {
	repo      Repository
	inventory inventory.Repository
	tx        txRunner
	gateway   gateway
	verifier  signatureVerifier
	notifier  notifier
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
	cfg       config.OrdersConfig
	now       func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(
	repo Repository,
	inv inventory.Repository,
	tx txRunner,
	gw gateway,
	verifier signatureVerifier,
	notif notifier,
	m *metrics.OrderMetrics,
	logg *logger.Logger,
	cfg config.OrdersConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gw == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("signature verifier required")
	}
	if notif == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.DeliveryEstimateDays <= 0 {
		cfg.DeliveryEstimateDays = 5
	}
	return &service{
		repo:      repo,
		inventory: inv,
		tx:        tx,
		gateway:   gw,
		verifier:  verifier,
		notifier:  notif,
		metrics:   m,
		logg:      logg,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	start := s.now()

	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if input.ShippingFee.IsNegative() || input.TaxAmount.IsNegative() || input.DiscountAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amounts cannot be negative")
	}

	requestID := normalizeRequestID(input.RequestID)
	if requestID != nil {
		existing, err := s.repo.FindByRequestID(ctx, input.UserID, *requestID)
		if err == nil {
			return s.replayResult(existing), nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup request id")
		}
	}

	quantities, err := mergeQuantities(input.Items)
	if err != nil {
		return nil, err
	}

	products, err := s.loadProducts(ctx, quantities)
	if err != nil {
		return nil, err
	}

	if err := checkAvailability(products, quantities); err != nil {
		return nil, err
	}

	now := s.now()
	order := s.buildOrder(input, requestID, products, quantities, now)

	var checkout *CheckoutIntent
	if input.PaymentMethod == enums.PaymentMethodRazorpay {
		checkout, err = s.openGatewayOrder(ctx, order)
		if err != nil {
			return nil, err
		}
	}

	replayed, err := s.insertOrder(ctx, order, input.UserID, requestID, now)
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		return s.replayResult(replayed), nil
	}

	if err := s.notifier.OrderCreated(ctx, order); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "order created notification fan-out failed")
	}

	s.metrics.IncCreated(order.PaymentMethod.String())
	s.metrics.ObserveCreateDuration(s.now().Sub(start))

	return &CreateOrderResult{Order: order, Checkout: checkout}, nil
}

func (s *service) replayResult(order *models.Order) *CreateOrderResult {
	result := &CreateOrderResult{Order: order, Replayed: true}
	if order.PaymentMethod == enums.PaymentMethodRazorpay &&
		order.PaymentStatus == enums.PaymentStatusPending &&
		order.PaymentDetails != nil && order.PaymentDetails.GatewayOrderID != "" {
		result.Checkout = &CheckoutIntent{
			GatewayOrderID: order.PaymentDetails.GatewayOrderID,
			GatewayKeyID:   s.gateway.KeyID(),
			AmountPaise:    toPaise(order.TotalAmount),
			Currency:       s.gateway.Currency(),
		}
	}
	return result
}

func normalizeRequestID(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mergeQuantities(items []CreateOrderItemInput) (map[uuid.UUID]int, error) {
	quantities := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		quantities[item.ProductID] += item.Quantity
	}
	return quantities, nil
}

func (s *service) loadProducts(ctx context.Context, quantities map[uuid.UUID]int) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}

	rows, err := s.inventory.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	products := make(map[uuid.UUID]models.Product, len(rows))
	for _, product := range rows {
		products[product.ID] = product
	}

	var missing []string
	for id := range quantities {
		if _, ok := products[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "one or more products not found").WithDetails(map[string]any{
			"missing_products": missing,
		})
	}
	return products, nil
}

func checkAvailability(products map[uuid.UUID]models.Product, quantities map[uuid.UUID]int) error {
	var short []map[string]any
	for id, qty := range quantities {
		product := products[id]
		if product.AvailableQty < qty {
			short = append(short, map[string]any{
				"product_id": id,
				"product":    product.Name,
				"requested":  qty,
				"available":  product.AvailableQty,
			})
		}
	}
	if len(short) > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").WithDetails(map[string]any{
			"items": short,
		})
	}
	return nil
}

func (s *service) buildOrder(
	input CreateOrderInput,
	requestID *string,
	products map[uuid.UUID]models.Product,
	quantities map[uuid.UUID]int,
	now time.Time,
) *models.Order {
	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(quantities))
	for id, qty := range quantities {
		product := products[id]
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(qty)))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, models.OrderItem{
			ID:             uuid.New(),
			ProductID:      product.ID,
			ProductName:    product.Name,
			ProductImage:   product.ImageURL,
			UnitPrice:      product.Price,
			Quantity:       qty,
			LineTotal:      lineTotal,
			FarmerID:       product.FarmerID,
			FarmerName:     product.FarmerName,
			FarmerLocation: product.FarmerLocation,
			Traceability:   product.Traceability,
		})
	}

	total := subtotal.Add(input.ShippingFee).Add(input.TaxAmount).Sub(input.DiscountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	address := types.ShippingAddress{
		FirstName: input.ShippingAddress.FirstName,
		LastName:  input.ShippingAddress.LastName,
		Email:     input.ShippingAddress.Email,
		Phone:     input.ShippingAddress.Phone,
		Address:   input.ShippingAddress.Address,
		City:      input.ShippingAddress.City,
		State:     input.ShippingAddress.State,
		Pincode:   input.ShippingAddress.Pincode,
		Country:   input.ShippingAddress.Country,
	}
	address.Normalize()

	estimate := now.Add(time.Duration(s.cfg.DeliveryEstimateDays) * 24 * time.Hour)

	order := &models.Order{
		ID:               uuid.New(),
		UserID:           input.UserID,
		RequestID:        requestID,
		PublicID:         newPublicID(now),
		OrderNumber:      newOrderNumber(now),
		ShippingAddress:  &address,
		Subtotal:         subtotal,
		ShippingFee:      input.ShippingFee,
		TaxAmount:        input.TaxAmount,
		DiscountAmount:   input.DiscountAmount,
		TotalAmount:      total,
		CouponCode:       input.CouponCode,
		PaymentMethod:    input.PaymentMethod,
		PaymentStatus:    enums.PaymentStatusPending,
		OrderStatus:      enums.OrderStatusCreated,
		DeliveryEstimate: &estimate,
		Version:          1,
		Items:            items,
	}

	// Cash orders skip the gateway round-trip and go straight to processing.
	if input.PaymentMethod == enums.PaymentMethodCOD {
		order.OrderStatus = enums.OrderStatusProcessing
	}
	return order
}

func (s *service) openGatewayOrder(ctx context.Context, order *models.Order) (*CheckoutIntent, error) {
	paise := toPaise(order.TotalAmount)
	gatewayOrder, err := s.gateway.CreateOrder(ctx, razorpay.OrderCreateParams{
		AmountPaise: paise,
		Currency:    s.gateway.Currency(),
		Receipt:     s.gateway.NewReceipt("rcpt"),
		Notes:       map[string]string{"order_public_id": order.PublicID},
	})
	if err != nil {
		return nil, err
	}

	order.PaymentDetails = &types.PaymentDetails{
		GatewayOrderID: gatewayOrder.ID,
		Receipt:        gatewayOrder.Receipt,
	}
	return &CheckoutIntent{
		GatewayOrderID: gatewayOrder.ID,
		GatewayKeyID:   s.gateway.KeyID(),
		AmountPaise:    paise,
		Currency:       s.gateway.Currency(),
	}, nil
}

// insertOrder persists the order, retrying once with fresh public identifiers
// on collision. A duplicate request id means a concurrent replay won the race;
// the stored order is returned instead.
func (s *service) insertOrder(ctx context.Context, order *models.Order, userID uuid.UUID, requestID *string, now time.Time) (*models.Order, error) {
	for attempt := 0; attempt < 2; attempt++ {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.repo.WithTx(tx).Create(ctx, order)
		})
		if err == nil {
			return nil, nil
		}

		if requestID != nil && db.IsUniqueViolation(err, "request_id") {
			existing, findErr := s.repo.FindByRequestID(ctx, userID, *requestID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load replayed order")
			}
			return existing, nil
		}

		if attempt == 0 && db.IsUniqueViolation(err, "") {
			order.PublicID = newPublicID(now)
			order.OrderNumber = newOrderNumber(now)
			continue
		}

		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store order")
	}
	return nil, pkgerrors.New(pkgerrors.CodeDependency, "could not allocate order identifiers")
}

func (s *service) VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*models.Order, error) {
	if input.GatewayOrderID == "" || input.GatewayPaymentID == "" || input.GatewaySignature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id, payment id, and signature are required")
	}

	// Gateway callbacks may only carry the gateway order id, so the internal
	// id is optional.
	var order *models.Order
	var err error
	if input.OrderID != uuid.Nil {
		order, err = s.loadOrder(ctx, s.repo, input.OrderID)
	} else {
		order, err = s.loadOrderByGatewayID(ctx, input.GatewayOrderID)
	}
	if err != nil {
		return nil, err
	}
	if input.Actor.Role != enums.UserRoleAdmin && order.UserID != input.Actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	if order.PaymentMethod != enums.PaymentMethodRazorpay {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order does not use gateway payment")
	}
	if order.PaymentDetails == nil || order.PaymentDetails.GatewayOrderID != input.GatewayOrderID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown gateway order for this order")
	}

	if order.PaymentStatus == enums.PaymentStatusPaid {
		if order.PaymentDetails.GatewayPaymentID == input.GatewayPaymentID {
			return order, nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already captured")
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not awaiting verification")
	}

	// A tampered signature is rejected outright. The order is left untouched
	// so the client can retry with the genuine gateway response.
	if !s.verifier.Verify(input.GatewayOrderID, input.GatewayPaymentID, input.GatewaySignature) {
		s.metrics.IncVerification("invalid_signature")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid payment signature")
	}

	now := s.now()
	details := *order.PaymentDetails
	details.GatewayPaymentID = input.GatewayPaymentID
	details.GatewaySignature = input.GatewaySignature
	details.PaidAt = &now

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		inv := s.inventory.WithTx(tx)

		fresh, err := s.loadOrder(ctx, repo, order.ID)
		if err != nil {
			return err
		}
		if fresh.PaymentStatus != enums.PaymentStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not awaiting verification")
		}

		// Stock is committed exactly once, at payment capture for gateway orders.
		if !fresh.StockCommitted() {
			for _, item := range fresh.Items {
				if err := inv.Decrement(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		updates := map[string]any{
			"payment_status":     enums.PaymentStatusPaid,
			"order_status":       enums.OrderStatusProcessing,
			"payment_details":    &details,
			"stock_committed_at": now,
		}
		if err := repo.UpdateVersioned(ctx, fresh.ID, fresh.Version, updates); err != nil {
			return mapVersionedError(err)
		}

		order = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.PaymentStatus = enums.PaymentStatusPaid
	order.OrderStatus = enums.OrderStatusProcessing
	order.PaymentDetails = &details
	order.StockCommittedAt = &now
	order.Version++

	s.metrics.IncVerification("verified")
	s.metrics.IncTransition(enums.OrderStatusCreated.String(), enums.OrderStatusProcessing.String())

	if err := s.notifier.OrderStatusChanged(ctx, order, enums.OrderStatusProcessing); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "payment verified notification fan-out failed")
	}
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if !RoleMayRequest(input.Actor.Role, input.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not set this status")
	}

	var updated *models.Order
	var from enums.OrderStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		inv := s.inventory.WithTx(tx)

		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.OrderStatus == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled orders cannot change status")
		}
		if !CanTransition(order.OrderStatus, input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").WithDetails(map[string]any{
				"from": order.OrderStatus,
				"to":   input.Status,
			})
		}

		updates := map[string]any{"order_status": input.Status}

		// Cash orders commit stock at shipping; orders that already paid
		// online committed at verification and only pass the gate here.
		if input.Status == enums.OrderStatusShipped && !order.StockCommitted() {
			for _, item := range order.Items {
				if err := inv.Decrement(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
			committedAt := s.now()
			updates["stock_committed_at"] = committedAt
			order.StockCommittedAt = &committedAt
		}

		// Cash settles on the doorstep.
		if input.Status == enums.OrderStatusDelivered &&
			order.PaymentMethod == enums.PaymentMethodCOD &&
			order.PaymentStatus == enums.PaymentStatusPending {
			updates["payment_status"] = enums.PaymentStatusPaid
			order.PaymentStatus = enums.PaymentStatusPaid
		}

		if err := repo.UpdateVersioned(ctx, order.ID, order.Version, updates); err != nil {
			return mapVersionedError(err)
		}

		from = order.OrderStatus
		order.OrderStatus = input.Status
		order.Version++
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(from.String(), input.Status.String())
	if err := s.notifier.OrderStatusChanged(ctx, updated, input.Status); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, updated.ID.String()), "status change notification fan-out failed")
	}
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, input CancelOrderInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !MayCancel(input.Actor.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not cancel orders")
	}

	var updated *models.Order
	var from enums.OrderStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		inv := s.inventory.WithTx(tx)

		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if input.Actor.Role == enums.UserRoleConsumer && order.UserID != input.Actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
		switch order.OrderStatus {
		case enums.OrderStatusCancelled:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already cancelled")
		case enums.OrderStatusShipped, enums.OrderStatusDelivered:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "orders cannot be cancelled after shipment")
		}

		now := s.now()
		actorID := input.Actor.UserID
		updates := map[string]any{
			"order_status":  enums.OrderStatusCancelled,
			"cancelled_at":  now,
			"cancelled_by":  actorID,
			"cancel_reason": input.Reason,
		}

		if order.StockCommitted() {
			for _, item := range order.Items {
				if err := inv.Restore(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		// Refund execution stays with the gateway's own tooling; cancelling a
		// paid order only records the intent.
		if order.PaymentStatus == enums.PaymentStatusPaid && order.PaymentMethod == enums.PaymentMethodRazorpay {
			details := refundIntent(order, order.TotalAmount, input.Reason, actorID, now)
			updates["payment_status"] = enums.PaymentStatusRefunded
			updates["payment_details"] = details
			order.PaymentStatus = enums.PaymentStatusRefunded
			order.PaymentDetails = details
		}

		if err := repo.UpdateVersioned(ctx, order.ID, order.Version, updates); err != nil {
			return mapVersionedError(err)
		}

		from = order.OrderStatus
		order.OrderStatus = enums.OrderStatusCancelled
		order.CancelledAt = &now
		order.CancelledBy = &actorID
		order.CancelReason = input.Reason
		order.Version++
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(from.String(), enums.OrderStatusCancelled.String())
	if err := s.notifier.OrderStatusChanged(ctx, updated, enums.OrderStatusCancelled); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, updated.ID.String()), "cancellation notification fan-out failed")
	}
	return updated, nil
}

func (s *service) Refund(ctx context.Context, input RefundInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may issue refunds")
	}

	order, err := s.loadOrder(ctx, s.repo, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != enums.PaymentMethodRazorpay {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only gateway payments can be refunded")
	}
	if order.PaymentStatus != enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only paid orders can be refunded")
	}
	if order.PaymentDetails == nil || order.PaymentDetails.GatewayPaymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no captured payment")
	}

	amount := order.TotalAmount
	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
		}
		if input.Amount.GreaterThan(order.TotalAmount) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds order total")
		}
		amount = *input.Amount
	}

	// Execution against the gateway is out of scope; the refund is recorded
	// as intent and settled through the gateway dashboard.
	now := s.now()
	details := refundIntent(order, amount, input.Reason, input.Actor.UserID, now)

	err = s.repo.UpdateVersioned(ctx, order.ID, order.Version, map[string]any{
		"payment_status":  enums.PaymentStatusRefunded,
		"payment_details": details,
	})
	if err != nil {
		return nil, mapVersionedError(err)
	}

	order.PaymentStatus = enums.PaymentStatusRefunded
	order.PaymentDetails = details
	order.Version++
	return order, nil
}

// refundIntent copies the order's payment details and stamps the refund
// fields on the copy.
func refundIntent(order *models.Order, amount decimal.Decimal, reason *string, by uuid.UUID, at time.Time) *types.PaymentDetails {
	details := types.PaymentDetails{}
	if order.PaymentDetails != nil {
		details = *order.PaymentDetails
	}
	details.RefundAmount = &amount
	if reason != nil {
		details.RefundReason = strings.TrimSpace(*reason)
	}
	details.RefundedBy = &by
	details.RefundedAt = &at
	return &details
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case enums.UserRoleAdmin:
		return order, nil
	case enums.UserRoleConsumer:
		if order.UserID != actor.UserID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return order, nil
	case enums.UserRoleFarmer:
		filtered := filterFarmerItems(order, actor.UserID)
		if len(filtered.Items) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return filtered, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "unknown role")
	}
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByUser(ctx, userID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) ListFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByFarmer(ctx, farmerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list farmer orders")
	}
	for i := range list.Orders {
		list.Orders[i] = *filterFarmerItems(&list.Orders[i], farmerID)
	}
	return list, nil
}

func (s *service) Recent(ctx context.Context, actor Actor) ([]models.Order, error) {
	switch actor.Role {
	case enums.UserRoleAdmin:
		rows, err := s.repo.Recent(ctx, recentOrdersLimit)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recent orders")
		}
		return rows, nil
	case enums.UserRoleFarmer:
		rows, err := s.repo.RecentByFarmer(ctx, actor.UserID, recentOrdersLimit)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recent farmer orders")
		}
		for i := range rows {
			rows[i] = *filterFarmerItems(&rows[i], actor.UserID)
		}
		return rows, nil
	default:
		rows, err := s.repo.RecentByUser(ctx, actor.UserID, recentOrdersLimit)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recent orders")
		}
		return rows, nil
	}
}

func (s *service) loadOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) loadOrderByGatewayID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	order, err := s.repo.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by gateway id")
	}
	return order, nil
}

func mapVersionedError(err error) error {
	if err == gorm.ErrRecordNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
}

// filterFarmerItems returns a copy of the order containing only the caller's
// lines. Farmers never see other farmers' items or the full totals breakdown.
func filterFarmerItems(order *models.Order, farmerID uuid.UUID) *models.Order {
	filtered := *order
	filtered.Items = nil
	for _, item := range order.Items {
		if item.FarmerID == farmerID {
			filtered.Items = append(filtered.Items, item)
		}
	}
	return &filtered
}

func toPaise(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

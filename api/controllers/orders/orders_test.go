package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/farmdirect/farmdirect-backend/api/middleware"
	internalorders "github.com/farmdirect/farmdirect-backend/internal/orders"
	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
	"github.com/farmdirect/farmdirect-backend/pkg/pagination"
)

type stubOrdersService struct {
	create        func(ctx context.Context, input internalorders.CreateOrderInput) (*internalorders.CreateOrderResult, error)
	verifyPayment func(ctx context.Context, input internalorders.VerifyPaymentInput) (*models.Order, error)
	updateStatus  func(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error)
	cancel        func(ctx context.Context, input internalorders.CancelOrderInput) (*models.Order, error)
	refund        func(ctx context.Context, input internalorders.RefundInput) (*models.Order, error)
	get           func(ctx context.Context, actor internalorders.Actor, orderID uuid.UUID) (*models.Order, error)
	listMine      func(ctx context.Context, userID uuid.UUID, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error)
	listAll       func(ctx context.Context, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error)
	listFarmer    func(ctx context.Context, farmerID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error)
	recent        func(ctx context.Context, actor internalorders.Actor) ([]models.Order, error)
}

func (s *stubOrdersService) Create(ctx context.Context, input internalorders.CreateOrderInput) (*internalorders.CreateOrderResult, error) {
	if s.create != nil {
		return s.create(ctx, input)
	}
	return &internalorders.CreateOrderResult{Order: &models.Order{}}, nil
}

func (s *stubOrdersService) VerifyPayment(ctx context.Context, input internalorders.VerifyPaymentInput) (*models.Order, error) {
	if s.verifyPayment != nil {
		return s.verifyPayment(ctx, input)
	}
	return &models.Order{}, nil
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error) {
	if s.updateStatus != nil {
		return s.updateStatus(ctx, input)
	}
	return &models.Order{}, nil
}

func (s *stubOrdersService) Cancel(ctx context.Context, input internalorders.CancelOrderInput) (*models.Order, error) {
	if s.cancel != nil {
		return s.cancel(ctx, input)
	}
	return &models.Order{}, nil
}

func (s *stubOrdersService) Refund(ctx context.Context, input internalorders.RefundInput) (*models.Order, error) {
	if s.refund != nil {
		return s.refund(ctx, input)
	}
	return &models.Order{}, nil
}

func (s *stubOrdersService) Get(ctx context.Context, actor internalorders.Actor, orderID uuid.UUID) (*models.Order, error) {
	if s.get != nil {
		return s.get(ctx, actor, orderID)
	}
	return &models.Order{}, nil
}

func (s *stubOrdersService) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error) {
	if s.listMine != nil {
		return s.listMine(ctx, userID, params, filters)
	}
	return &internalorders.OrderList{}, nil
}

func (s *stubOrdersService) ListAll(ctx context.Context, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error) {
	if s.listAll != nil {
		return s.listAll(ctx, params, filters)
	}
	return &internalorders.OrderList{}, nil
}

func (s *stubOrdersService) ListFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error) {
	if s.listFarmer != nil {
		return s.listFarmer(ctx, farmerID, params)
	}
	return &internalorders.OrderList{}, nil
}

func (s *stubOrdersService) Recent(ctx context.Context, actor internalorders.Actor) ([]models.Order, error) {
	if s.recent != nil {
		return s.recent(ctx, actor)
	}
	return nil, nil
}

func authedRequest(method, url string, body string, userID uuid.UUID, role enums.UserRole) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	req = req.WithContext(middleware.WithActor(req.Context(), userID, role))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func withOrderID(req *http.Request, orderID uuid.UUID) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("orderID", orderID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}

const validCreateBody = `{
	"request_id": "req-20260830-001",
	"items": [{"product_id": "9f1aa4a2-9a70-4f5e-8f10-0a9308a1d21a", "quantity": 2}],
	"shipping_address": {
		"first_name": "Asha",
		"last_name": "Patel",
		"email": "asha@example.com",
		"phone": "9876543210",
		"address": "14 Lake View Road",
		"city": "Pune",
		"state": "Maharashtra",
		"pincode": "411001"
	},
	"payment_method": "cod"
}`

func TestCreateReturns201ForFreshOrder(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrdersService{
		create: func(ctx context.Context, input internalorders.CreateOrderInput) (*internalorders.CreateOrderResult, error) {
			if input.UserID != userID {
				t.Fatalf("unexpected user id %s", input.UserID)
			}
			if input.RequestID == nil || *input.RequestID != "req-20260830-001" {
				t.Fatalf("request id not forwarded")
			}
			if len(input.Items) != 1 || input.Items[0].Quantity != 2 {
				t.Fatalf("items not forwarded")
			}
			if input.PaymentMethod != enums.PaymentMethodCOD {
				t.Fatalf("unexpected payment method %s", input.PaymentMethod)
			}
			return &internalorders.CreateOrderResult{
				Order: &models.Order{PublicID: "ORD-TEST", OrderStatus: enums.OrderStatusProcessing},
			}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/orders", validCreateBody, userID, enums.UserRoleConsumer)
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			Order struct {
				PublicID string `json:"public_id"`
			} `json:"order"`
			Replayed bool `json:"replayed"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Order.PublicID != "ORD-TEST" {
		t.Fatalf("unexpected order in response")
	}
	if envelope.Data.Replayed {
		t.Fatalf("fresh order should not be marked replayed")
	}
}

func TestCreateReturns200ForReplay(t *testing.T) {
	svc := &stubOrdersService{
		create: func(ctx context.Context, input internalorders.CreateOrderInput) (*internalorders.CreateOrderResult, error) {
			return &internalorders.CreateOrderResult{
				Order:    &models.Order{PublicID: "ORD-TEST"},
				Replayed: true,
			}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/orders", validCreateBody, uuid.New(), enums.UserRoleConsumer)
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCreateRejectsInvalidBody(t *testing.T) {
	svc := &stubOrdersService{
		create: func(ctx context.Context, input internalorders.CreateOrderInput) (*internalorders.CreateOrderResult, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	body := `{"items": [], "payment_method": "cod"}`
	req := authedRequest(http.MethodPost, "/api/v1/orders", body, uuid.New(), enums.UserRoleConsumer)
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestVerifyPaymentForwardsCallbackFields(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrdersService{
		verifyPayment: func(ctx context.Context, input internalorders.VerifyPaymentInput) (*models.Order, error) {
			if input.OrderID != orderID {
				t.Fatalf("unexpected order id %s", input.OrderID)
			}
			if input.GatewayOrderID != "order_rzp1" || input.GatewayPaymentID != "pay_1" || input.GatewaySignature != "sig" {
				t.Fatalf("callback fields not forwarded")
			}
			if input.Actor.UserID != userID {
				t.Fatalf("actor not forwarded")
			}
			return &models.Order{PaymentStatus: enums.PaymentStatusPaid}, nil
		},
	}

	body := `{"order_id":"` + orderID.String() + `","razorpay_order_id":"order_rzp1","razorpay_payment_id":"pay_1","razorpay_signature":"sig"}`
	req := authedRequest(http.MethodPost, "/api/v1/payments/verify", body, userID, enums.UserRoleConsumer)
	resp := httptest.NewRecorder()
	VerifyPayment(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestVerifyPaymentAcceptsMissingOrderID(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrdersService{
		verifyPayment: func(ctx context.Context, input internalorders.VerifyPaymentInput) (*models.Order, error) {
			if input.OrderID != uuid.Nil {
				t.Fatalf("order id = %s, want nil", input.OrderID)
			}
			if input.GatewayOrderID != "order_rzp1" {
				t.Fatalf("gateway order id not forwarded")
			}
			return &models.Order{PaymentStatus: enums.PaymentStatusPaid}, nil
		},
	}

	body := `{"razorpay_order_id":"order_rzp1","razorpay_payment_id":"pay_1","razorpay_signature":"sig"}`
	req := authedRequest(http.MethodPost, "/api/v1/payments/verify", body, userID, enums.UserRoleConsumer)
	resp := httptest.NewRecorder()
	VerifyPayment(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestVerifyPaymentSurfacesValidationError(t *testing.T) {
	svc := &stubOrdersService{
		verifyPayment: func(ctx context.Context, input internalorders.VerifyPaymentInput) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment signature verification failed")
		},
	}

	body := `{"order_id":"` + uuid.NewString() + `","razorpay_order_id":"o","razorpay_payment_id":"p","razorpay_signature":"bad"}`
	req := authedRequest(http.MethodPost, "/api/v1/payments/verify", body, uuid.New(), enums.UserRoleConsumer)
	resp := httptest.NewRecorder()
	VerifyPayment(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestDetailParsesPathID(t *testing.T) {
	orderID := uuid.New()
	userID := uuid.New()
	svc := &stubOrdersService{
		get: func(ctx context.Context, actor internalorders.Actor, incoming uuid.UUID) (*models.Order, error) {
			if incoming != orderID {
				t.Fatalf("unexpected order id %s", incoming)
			}
			return &models.Order{PublicID: "ORD-DETAIL"}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), "", userID, enums.UserRoleConsumer)
	req = withOrderID(req, orderID)
	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestDetailRejectsMalformedID(t *testing.T) {
	svc := &stubOrdersService{}
	req := authedRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", "", uuid.New(), enums.UserRoleConsumer)
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("orderID", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))

	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListForwardsFilters(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrdersService{
		listMine: func(ctx context.Context, incoming uuid.UUID, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error) {
			if incoming != userID {
				t.Fatalf("unexpected user id %s", incoming)
			}
			if params.Limit != 5 || params.Page != 2 {
				t.Fatalf("pagination not parsed: %+v", params)
			}
			if filters.OrderStatus == nil || *filters.OrderStatus != enums.OrderStatusShipped {
				t.Fatalf("status filter not parsed")
			}
			if filters.DateFrom == nil {
				t.Fatalf("date_from filter not parsed")
			}
			return &internalorders.OrderList{Orders: []models.Order{{PublicID: "ORD-1"}}}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/orders?page=2&limit=5&status=shipped&date_from=2026-08-01", "", userID, enums.UserRoleConsumer)
	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrdersService{}
	req := authedRequest(http.MethodGet, "/api/v1/orders?status=bogus", "", uuid.New(), enums.UserRoleConsumer)
	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCancelWithoutBody(t *testing.T) {
	orderID := uuid.New()
	userID := uuid.New()
	svc := &stubOrdersService{
		cancel: func(ctx context.Context, input internalorders.CancelOrderInput) (*models.Order, error) {
			if input.OrderID != orderID {
				t.Fatalf("unexpected order id %s", input.OrderID)
			}
			if input.Reason != nil {
				t.Fatalf("expected nil reason got %q", *input.Reason)
			}
			return &models.Order{OrderStatus: enums.OrderStatusCancelled}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", "", userID, enums.UserRoleConsumer)
	req = withOrderID(req, orderID)
	resp := httptest.NewRecorder()
	Cancel(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCancelForwardsReason(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{
		cancel: func(ctx context.Context, input internalorders.CancelOrderInput) (*models.Order, error) {
			if input.Reason == nil || *input.Reason != "changed my mind" {
				t.Fatalf("reason not forwarded")
			}
			return &models.Order{OrderStatus: enums.OrderStatusCancelled}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", `{"reason":"changed my mind"}`, uuid.New(), enums.UserRoleConsumer)
	req = withOrderID(req, orderID)
	resp := httptest.NewRecorder()
	Cancel(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRecentWrapsOrders(t *testing.T) {
	svc := &stubOrdersService{
		recent: func(ctx context.Context, actor internalorders.Actor) ([]models.Order, error) {
			return []models.Order{{PublicID: "ORD-R1"}, {PublicID: "ORD-R2"}}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/orders/recent", "", uuid.New(), enums.UserRoleConsumer)
	resp := httptest.NewRecorder()
	Recent(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Orders []models.Order `json:"orders"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Orders) != 2 {
		t.Fatalf("expected 2 orders got %d", len(envelope.Data.Orders))
	}
}

func TestFarmerListUsesCallerID(t *testing.T) {
	farmerID := uuid.New()
	svc := &stubOrdersService{
		listFarmer: func(ctx context.Context, incoming uuid.UUID, params pagination.Params) (*internalorders.OrderList, error) {
			if incoming != farmerID {
				t.Fatalf("unexpected farmer id %s", incoming)
			}
			return &internalorders.OrderList{}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/farmer/orders", "", farmerID, enums.UserRoleFarmer)
	resp := httptest.NewRecorder()
	FarmerList(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

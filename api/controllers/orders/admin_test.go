package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	internalorders "github.com/farmdirect/farmdirect-backend/internal/orders"
	"github.com/farmdirect/farmdirect-backend/internal/reports"
	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
	"github.com/farmdirect/farmdirect-backend/pkg/pagination"
)

type stubReportsService struct {
	dashboard     func(ctx context.Context, windowDays int) (*reports.DashboardStats, error)
	consumerStats func(ctx context.Context, userID uuid.UUID) (*reports.ConsumerStats, error)
}

func (s *stubReportsService) Dashboard(ctx context.Context, windowDays int) (*reports.DashboardStats, error) {
	if s.dashboard != nil {
		return s.dashboard(ctx, windowDays)
	}
	return &reports.DashboardStats{}, nil
}

func (s *stubReportsService) ConsumerStats(ctx context.Context, userID uuid.UUID) (*reports.ConsumerStats, error) {
	if s.consumerStats != nil {
		return s.consumerStats(ctx, userID)
	}
	return &reports.ConsumerStats{}, nil
}

func TestAdminUpdateStatusForwardsTransition(t *testing.T) {
	orderID := uuid.New()
	adminID := uuid.New()
	svc := &stubOrdersService{
		updateStatus: func(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error) {
			if input.OrderID != orderID {
				t.Fatalf("unexpected order id %s", input.OrderID)
			}
			if input.Status != enums.OrderStatusShipped {
				t.Fatalf("unexpected status %s", input.Status)
			}
			if input.Actor.UserID != adminID || input.Actor.Role != enums.UserRoleAdmin {
				t.Fatalf("actor not forwarded")
			}
			return &models.Order{OrderStatus: enums.OrderStatusShipped}, nil
		},
	}

	req := authedRequest(http.MethodPatch, "/api/admin/v1/orders/"+orderID.String()+"/status", `{"status":"shipped"}`, adminID, enums.UserRoleAdmin)
	req = withOrderID(req, orderID)
	resp := httptest.NewRecorder()
	AdminUpdateStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminUpdateStatusRejectsCancelledTarget(t *testing.T) {
	svc := &stubOrdersService{
		updateStatus: func(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	orderID := uuid.New()
	req := authedRequest(http.MethodPatch, "/api/admin/v1/orders/"+orderID.String()+"/status", `{"status":"cancelled"}`, uuid.New(), enums.UserRoleAdmin)
	req = withOrderID(req, orderID)
	resp := httptest.NewRecorder()
	AdminUpdateStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminListByStatusParsesPathParam(t *testing.T) {
	svc := &stubOrdersService{
		listAll: func(ctx context.Context, params pagination.Params, filters internalorders.ListFilters) (*internalorders.OrderList, error) {
			if filters.OrderStatus == nil || *filters.OrderStatus != enums.OrderStatusProcessing {
				t.Fatalf("status path param not applied")
			}
			return &internalorders.OrderList{}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/admin/v1/orders/status/processing", "", uuid.New(), enums.UserRoleAdmin)
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("status", "processing")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
	resp := httptest.NewRecorder()
	AdminListByStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminListByStatusRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrdersService{}
	req := authedRequest(http.MethodGet, "/api/admin/v1/orders/status/wat", "", uuid.New(), enums.UserRoleAdmin)
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("status", "wat")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
	resp := httptest.NewRecorder()
	AdminListByStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminRefundSurfacesStateConflict(t *testing.T) {
	svc := &stubOrdersService{
		refund: func(ctx context.Context, input internalorders.RefundInput) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no captured payment to refund")
		},
	}

	orderID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/admin/v1/orders/"+orderID.String()+"/refund", "", uuid.New(), enums.UserRoleAdmin)
	req = withOrderID(req, orderID)
	resp := httptest.NewRecorder()
	AdminRefund(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestAdminRefundForwardsAmountAndReason(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{
		refund: func(ctx context.Context, input internalorders.RefundInput) (*models.Order, error) {
			if input.Amount == nil || input.Amount.String() != "50" {
				t.Fatalf("amount = %v, want 50", input.Amount)
			}
			if input.Reason == nil || *input.Reason != "damaged in transit" {
				t.Fatalf("reason = %v", input.Reason)
			}
			return &models.Order{ID: orderID}, nil
		},
	}

	body := `{"amount":"50","reason":"damaged in transit"}`
	req := authedRequest(http.MethodPost, "/api/admin/v1/orders/"+orderID.String()+"/refund", body, uuid.New(), enums.UserRoleAdmin)
	req = withOrderID(req, orderID)
	resp := httptest.NewRecorder()
	AdminRefund(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminDashboardReturnsStats(t *testing.T) {
	svc := &stubReportsService{
		dashboard: func(ctx context.Context, windowDays int) (*reports.DashboardStats, error) {
			if windowDays != 0 {
				t.Fatalf("window days = %d, want 0 for default", windowDays)
			}
			return &reports.DashboardStats{TotalOrders: 12, WindowDays: 30}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/admin/v1/dashboard/stats", "", uuid.New(), enums.UserRoleAdmin)
	resp := httptest.NewRecorder()
	AdminDashboard(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data reports.DashboardStats `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.TotalOrders != 12 {
		t.Fatalf("unexpected total orders %d", envelope.Data.TotalOrders)
	}
}

func TestAdminDashboardForwardsWindowParam(t *testing.T) {
	svc := &stubReportsService{
		dashboard: func(ctx context.Context, windowDays int) (*reports.DashboardStats, error) {
			if windowDays != 7 {
				t.Fatalf("window days = %d, want 7", windowDays)
			}
			return &reports.DashboardStats{WindowDays: 7}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/admin/v1/dashboard/stats?days=7", "", uuid.New(), enums.UserRoleAdmin)
	resp := httptest.NewRecorder()
	AdminDashboard(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	req = authedRequest(http.MethodGet, "/api/admin/v1/dashboard/stats?days=9999", "", uuid.New(), enums.UserRoleAdmin)
	resp = httptest.NewRecorder()
	AdminDashboard(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range window, got %d", resp.Code)
	}
}

func TestConsumerStatsUsesCallerID(t *testing.T) {
	userID := uuid.New()
	svc := &stubReportsService{
		consumerStats: func(ctx context.Context, incoming uuid.UUID) (*reports.ConsumerStats, error) {
			if incoming != userID {
				t.Fatalf("unexpected user id %s", incoming)
			}
			return &reports.ConsumerStats{TotalOrders: 3}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/orders/stats", "", userID, enums.UserRoleConsumer)
	resp := httptest.NewRecorder()
	ConsumerStats(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmdirect/farmdirect-backend/pkg/config"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
	"github.com/farmdirect/farmdirect-backend/pkg/logger"
)

const (
	topProductsLimit   = 5
	maxStatsWindowDays = 365
)

// DailySale is one day's order volume inside the stats window.
type DailySale struct {
	Date    string          `json:"date"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// DashboardStats is the admin-facing aggregate view of the marketplace.
type DashboardStats struct {
	TotalOrders     int64                         `json:"total_orders"`
	TotalRevenue    decimal.Decimal               `json:"total_revenue"`
	ByStatus        map[enums.OrderStatus]int64   `json:"by_status"`
	ByPaymentMethod map[enums.PaymentMethod]int64 `json:"by_payment_method"`
	DailySales      []DailySale                   `json:"daily_sales"`
	TopProducts     []ProductSales                `json:"top_products"`
	WindowDays      int                           `json:"window_days"`
}

// ConsumerStats is the per-user order history summary.
type ConsumerStats struct {
	TotalOrders int64                       `json:"total_orders"`
	TotalSpent  decimal.Decimal             `json:"total_spent"`
	ByStatus    map[enums.OrderStatus]int64 `json:"by_status"`
	TopProducts []ProductSales              `json:"top_products"`
}

// Service exposes the reporting operations. windowDays bounds the daily
// sales series; zero or negative falls back to the configured default.
type Service interface {
	Dashboard(ctx context.Context, windowDays int) (*DashboardStats, error)
	ConsumerStats(ctx context.Context, userID uuid.UUID) (*ConsumerStats, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	cfg  config.OrdersConfig
	now  func() time.Time
}

// NewService builds a reports service with the required dependencies.
func NewService(repo Repository, logg *logger.Logger, cfg config.OrdersConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.StatsWindowDays <= 0 {
		cfg.StatsWindowDays = 30
	}
	return &service{
		repo: repo,
		logg: logg,
		cfg:  cfg,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Dashboard(ctx context.Context, windowDays int) (*DashboardStats, error) {
	if windowDays <= 0 {
		windowDays = s.cfg.StatsWindowDays
	}
	if windowDays > maxStatsWindowDays {
		windowDays = maxStatsWindowDays
	}

	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders by status")
	}
	byMethod, err := s.repo.CountByPaymentMethod(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders by payment method")
	}
	revenue, err := s.repo.PaidRevenue(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum paid revenue")
	}

	since := s.now().AddDate(0, 0, -windowDays)
	totals, err := s.repo.OrderTotalsSince(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales window")
	}

	topProducts, err := s.repo.TopProducts(ctx, topProductsLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load top products")
	}

	var totalOrders int64
	for _, count := range byStatus {
		totalOrders += count
	}

	return &DashboardStats{
		TotalOrders:     totalOrders,
		TotalRevenue:    revenue,
		ByStatus:        byStatus,
		ByPaymentMethod: byMethod,
		DailySales:      bucketDaily(totals),
		TopProducts:     topProducts,
		WindowDays:      windowDays,
	}, nil
}

func (s *service) ConsumerStats(ctx context.Context, userID uuid.UUID) (*ConsumerStats, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	totals, err := s.repo.UserTotals(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user totals")
	}
	byStatus, err := s.repo.UserCountByStatus(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count user orders by status")
	}
	topProducts, err := s.repo.UserTopProducts(ctx, userID, topProductsLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user top products")
	}

	return &ConsumerStats{
		TotalOrders: totals.TotalOrders,
		TotalSpent:  totals.TotalSpent,
		ByStatus:    byStatus,
		TopProducts: topProducts,
	}, nil
}

// bucketDaily groups per-order totals by UTC calendar day. Days with no
// orders are omitted.
func bucketDaily(totals []OrderTotal) []DailySale {
	byDay := make(map[string]*DailySale)
	for _, row := range totals {
		day := row.CreatedAt.UTC().Format("2006-01-02")
		sale, ok := byDay[day]
		if !ok {
			sale = &DailySale{Date: day, Revenue: decimal.Zero}
			byDay[day] = sale
		}
		sale.Orders++
		sale.Revenue = sale.Revenue.Add(row.TotalAmount)
	}

	days := make([]DailySale, 0, len(byDay))
	for _, sale := range byDay {
		days = append(days, *sale)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

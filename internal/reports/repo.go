package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/farmdirect/farmdirect-backend/pkg/enums"
)

// OrderTotal is one order's contribution to the sales aggregates.
type OrderTotal struct {
	CreatedAt   time.Time
	TotalAmount decimal.Decimal
}

// ProductSales is the aggregated sales row for one catalog product.
type ProductSales struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	TotalQty     int64           `json:"total_qty"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// UserTotals aggregates one consumer's order history.
type UserTotals struct {
	TotalOrders int64
	TotalSpent  decimal.Decimal
}

// Repository defines the read-side aggregate queries for reporting.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
	CountByPaymentMethod(ctx context.Context) (map[enums.PaymentMethod]int64, error)
	PaidRevenue(ctx context.Context) (decimal.Decimal, error)
	OrderTotalsSince(ctx context.Context, since time.Time) ([]OrderTotal, error)
	TopProducts(ctx context.Context, limit int) ([]ProductSales, error)
	UserTotals(ctx context.Context, userID uuid.UUID) (*UserTotals, error)
	UserCountByStatus(ctx context.Context, userID uuid.UUID) (map[enums.OrderStatus]int64, error)
	UserTopProducts(ctx context.Context, userID uuid.UUID, limit int) ([]ProductSales, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reports repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

type statusCount struct {
	OrderStatus enums.OrderStatus
	Count       int64
}

func (r *repository) CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	var rows []statusCount
	err := r.db.WithContext(ctx).Raw(`
		SELECT order_status, COUNT(*) AS count
		FROM orders
		GROUP BY order_status
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.OrderStatus] = row.Count
	}
	return counts, nil
}

type methodCount struct {
	PaymentMethod enums.PaymentMethod
	Count         int64
}

func (r *repository) CountByPaymentMethod(ctx context.Context) (map[enums.PaymentMethod]int64, error) {
	var rows []methodCount
	err := r.db.WithContext(ctx).Raw(`
		SELECT payment_method, COUNT(*) AS count
		FROM orders
		GROUP BY payment_method
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.PaymentMethod]int64, len(rows))
	for _, row := range rows {
		counts[row.PaymentMethod] = row.Count
	}
	return counts, nil
}

func (r *repository) PaidRevenue(ctx context.Context) (decimal.Decimal, error) {
	var row struct{ Revenue decimal.Decimal }
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(total_amount), 0) AS revenue
		FROM orders
		WHERE payment_status = ?
	`, enums.PaymentStatusPaid).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Revenue, nil
}

func (r *repository) OrderTotalsSince(ctx context.Context, since time.Time) ([]OrderTotal, error) {
	var rows []OrderTotal
	err := r.db.WithContext(ctx).Raw(`
		SELECT created_at, total_amount
		FROM orders
		WHERE created_at >= ? AND order_status <> ?
		ORDER BY created_at
	`, since, enums.OrderStatusCancelled).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	var rows []ProductSales
	err := r.db.WithContext(ctx).Raw(`
		SELECT oi.product_id,
			oi.product_name,
			SUM(oi.quantity) AS total_qty,
			SUM(oi.line_total) AS total_revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.order_status <> ?
		GROUP BY oi.product_id, oi.product_name
		ORDER BY total_qty DESC, total_revenue DESC
		LIMIT ?
	`, enums.OrderStatusCancelled, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UserTotals(ctx context.Context, userID uuid.UUID) (*UserTotals, error) {
	var row UserTotals
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS total_orders,
			COALESCE(SUM(total_amount), 0) AS total_spent
		FROM orders
		WHERE user_id = ? AND order_status <> ?
	`, userID, enums.OrderStatusCancelled).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) UserTopProducts(ctx context.Context, userID uuid.UUID, limit int) ([]ProductSales, error) {
	var rows []ProductSales
	err := r.db.WithContext(ctx).Raw(`
		SELECT oi.product_id,
			oi.product_name,
			SUM(oi.quantity) AS total_qty,
			SUM(oi.line_total) AS total_revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.user_id = ? AND o.order_status <> ?
		GROUP BY oi.product_id, oi.product_name
		ORDER BY total_qty DESC, total_revenue DESC
		LIMIT ?
	`, userID, enums.OrderStatusCancelled, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UserCountByStatus(ctx context.Context, userID uuid.UUID) (map[enums.OrderStatus]int64, error) {
	var rows []statusCount
	err := r.db.WithContext(ctx).Raw(`
		SELECT order_status, COUNT(*) AS count
		FROM orders
		WHERE user_id = ?
		GROUP BY order_status
	`, userID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.OrderStatus] = row.Count
	}
	return counts, nil
}

package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
	"github.com/farmdirect/farmdirect-backend/pkg/pagination"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByRequestID(ctx context.Context, userID uuid.UUID, requestID string) (*models.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	ListByFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) (*OrderList, error)
	Recent(ctx context.Context, limit int) ([]models.Order, error)
	RecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error)
	RecentByFarmer(ctx context.Context, farmerID uuid.UUID, limit int) ([]models.Order, error)
	UpdateVersioned(ctx context.Context, orderID uuid.UUID, version int, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByRequestID(ctx context.Context, userID uuid.UUID, requestID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND request_id = ?", userID, requestID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByGatewayOrderID resolves an order from the gateway order id stored in
// its payment details. Gateway callbacks may not carry the internal id.
func (r *repository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	match := "payment_details->>'gateway_order_id' = ?"
	if r.db.Dialector.Name() == "sqlite" {
		match = "json_extract(payment_details, '$.gateway_order_id') = ?"
	}

	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where(match, gatewayOrderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	query := applyListFilters(r.db.WithContext(ctx).Model(&models.Order{}), filters)
	return r.paginate(ctx, query, params)
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	query := applyListFilters(r.db.WithContext(ctx).Model(&models.Order{}), filters).
		Where("user_id = ?", userID)
	return r.paginate(ctx, query, params)
}

func (r *repository) ListByFarmer(ctx context.Context, farmerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id IN (?)", r.db.Model(&models.OrderItem{}).
			Select("DISTINCT order_id").
			Where("farmer_id = ?", farmerID))
	return r.paginate(ctx, query, params)
}

func (r *repository) paginate(ctx context.Context, query *gorm.DB, params pagination.Params) (*OrderList, error) {
	normalized := params.Normalize()

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var orders []models.Order
	err := query.
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(normalized.Limit).
		Offset(normalized.Offset()).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return &OrderList{
		Orders: orders,
		Meta:   pagination.NewMeta(params, total),
	}, nil
}

func applyListFilters(query *gorm.DB, filters ListFilters) *gorm.DB {
	if filters.OrderStatus != nil {
		query = query.Where("order_status = ?", *filters.OrderStatus)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filters.PaymentStatus)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	if filters.Query != "" {
		needle := "%" + filters.Query + "%"
		query = query.Where("order_number LIKE ? OR public_id LIKE ?", needle, needle)
	}
	return query
}

func (r *repository) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) RecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) RecentByFarmer(ctx context.Context, farmerID uuid.UUID, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id IN (?)", r.db.Model(&models.OrderItem{}).
			Select("DISTINCT order_id").
			Where("farmer_id = ?", farmerID)).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateVersioned applies updates guarded by the order's version counter. A
// stale version leaves zero rows updated and surfaces as a conflict so the
// caller can retry against fresh state.
func (r *repository) UpdateVersioned(ctx context.Context, orderID uuid.UUID, version int, updates map[string]any) error {
	payload := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		payload[k] = v
	}
	payload["version"] = gorm.Expr("version + 1")

	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND version = ?", orderID, version).
		Updates(payload)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
}

package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	"github.com/farmdirect/farmdirect-backend/pkg/logger"
	"github.com/farmdirect/farmdirect-backend/pkg/metrics"
)

// Fanout writes order lifecycle notifications for every interested user: the
// consumer who placed the order and the distinct farmers whose products it
// contains. Fan-out is best effort; a failed write never blocks the order
// operation, callers log the aggregated error and move on.
type Fanout struct {
	repo    Repository
	logg    *logger.Logger
	metrics *metrics.OrderMetrics
}

// NewFanout wires the notification fan-out dependencies.
func NewFanout(repo Repository, logg *logger.Logger, m *metrics.OrderMetrics) (*Fanout, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Fanout{repo: repo, logg: logg, metrics: m}, nil
}

// OrderCreated notifies the consumer of the confirmation and each farmer of
// the new order lines.
func (f *Fanout) OrderCreated(ctx context.Context, order *models.Order) error {
	if order == nil {
		return nil
	}

	orderID := order.ID
	notices := []models.Notification{{
		UserID:  order.UserID,
		OrderID: &orderID,
		Type:    enums.NotificationTypeNewOrder,
		Title:   "Order placed",
		Message: fmt.Sprintf("Your order %s has been placed.", order.PublicID),
	}}

	for farmerID, count := range farmerItemCounts(order) {
		notices = append(notices, models.Notification{
			UserID:  farmerID,
			OrderID: &orderID,
			Type:    enums.NotificationTypeNewOrder,
			Title:   "New order received",
			Message: fmt.Sprintf("Order %s includes %d of your products.", order.PublicID, count),
		})
	}

	return f.write(ctx, notices)
}

// OrderStatusChanged notifies the consumer and every farmer with lines in
// the order of the transition.
func (f *Fanout) OrderStatusChanged(ctx context.Context, order *models.Order, to enums.OrderStatus) error {
	if order == nil {
		return nil
	}

	title, message := statusMessage(order.PublicID, to)
	if title == "" {
		return nil
	}

	orderID := order.ID
	noticeType := enums.ForOrderStatus(to)
	notices := []models.Notification{{
		UserID:  order.UserID,
		OrderID: &orderID,
		Type:    noticeType,
		Title:   title,
		Message: message,
	}}

	farmerTitle, farmerMessage := farmerStatusMessage(order.PublicID, to)
	for farmerID := range farmerItemCounts(order) {
		notices = append(notices, models.Notification{
			UserID:  farmerID,
			OrderID: &orderID,
			Type:    noticeType,
			Title:   farmerTitle,
			Message: farmerMessage,
		})
	}

	return f.write(ctx, notices)
}

func (f *Fanout) write(ctx context.Context, notices []models.Notification) error {
	var errs error
	for i := range notices {
		if err := f.repo.Create(ctx, &notices[i]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("notify user %s: %w", notices[i].UserID, err))
			f.metrics.IncFanoutFailure()
		}
	}
	if errs != nil {
		f.logg.Warn(f.logg.WithFields(ctx, map[string]any{
			"failed": len(multierr.Errors(errs)),
			"total":  len(notices),
		}), "notification fan-out partially failed")
	}
	return errs
}

func statusMessage(publicID string, status enums.OrderStatus) (string, string) {
	switch status {
	case enums.OrderStatusProcessing:
		return "Order confirmed", fmt.Sprintf("Your order %s is being processed.", publicID)
	case enums.OrderStatusShipped:
		return "Order shipped", fmt.Sprintf("Your order %s has been shipped.", publicID)
	case enums.OrderStatusDelivered:
		return "Order delivered", fmt.Sprintf("Your order %s has been delivered.", publicID)
	case enums.OrderStatusCancelled:
		return "Order cancelled", fmt.Sprintf("Your order %s has been cancelled.", publicID)
	default:
		return "", ""
	}
}

func farmerStatusMessage(publicID string, status enums.OrderStatus) (string, string) {
	switch status {
	case enums.OrderStatusProcessing:
		return "Order confirmed", fmt.Sprintf("Order %s containing your products is being processed.", publicID)
	case enums.OrderStatusShipped:
		return "Order shipped", fmt.Sprintf("Order %s containing your products has been shipped.", publicID)
	case enums.OrderStatusDelivered:
		return "Order delivered", fmt.Sprintf("Order %s containing your products has been delivered.", publicID)
	case enums.OrderStatusCancelled:
		return "Order cancelled", fmt.Sprintf("Order %s containing your products has been cancelled.", publicID)
	default:
		return "", ""
	}
}

func farmerItemCounts(order *models.Order) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int, len(order.Items))
	for _, item := range order.Items {
		if item.FarmerID == uuid.Nil {
			continue
		}
		counts[item.FarmerID]++
	}
	return counts
}

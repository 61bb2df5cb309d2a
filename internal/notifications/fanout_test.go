package notifications

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/farmdirect/farmdirect-backend/pkg/db/models"
	"github.com/farmdirect/farmdirect-backend/pkg/enums"
	"github.com/farmdirect/farmdirect-backend/pkg/logger"
)

func newTestFanout(t *testing.T, repo Repository) *Fanout {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	fanout, err := NewFanout(repo, logg, nil)
	if err != nil {
		t.Fatalf("NewFanout: %v", err)
	}
	return fanout
}

func orderWithFarmers(consumer uuid.UUID, farmers ...uuid.UUID) *models.Order {
	order := &models.Order{
		ID:       uuid.New(),
		UserID:   consumer,
		PublicID: "ORD-20260815-00042",
	}
	for _, farmerID := range farmers {
		order.Items = append(order.Items, models.OrderItem{FarmerID: farmerID})
	}
	return order
}

func TestFanoutOrderCreatedNotifiesConsumerAndDistinctFarmers(t *testing.T) {
	var written []models.Notification
	repo := &fakeRepository{
		createFn: func(ctx context.Context, n *models.Notification) error {
			written = append(written, *n)
			return nil
		},
	}
	fanout := newTestFanout(t, repo)

	consumer := uuid.New()
	farmer := uuid.New()
	// the same farmer appears on two lines but gets one notice
	order := orderWithFarmers(consumer, farmer, farmer)

	if err := fanout.OrderCreated(context.Background(), order); err != nil {
		t.Fatalf("unexpected fan-out error: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(written))
	}

	recipients := map[uuid.UUID]bool{}
	for _, n := range written {
		recipients[n.UserID] = true
		if n.Type != enums.NotificationTypeNewOrder {
			t.Fatalf("unexpected notification type %s", n.Type)
		}
		if n.OrderID == nil || *n.OrderID != order.ID {
			t.Fatal("expected notification linked to order")
		}
	}
	if !recipients[consumer] || !recipients[farmer] {
		t.Fatal("expected both consumer and farmer to be notified")
	}
}

func TestFanoutContinuesAfterFailure(t *testing.T) {
	consumer := uuid.New()
	farmer := uuid.New()
	order := orderWithFarmers(consumer, farmer)

	var written []uuid.UUID
	repo := &fakeRepository{
		createFn: func(ctx context.Context, n *models.Notification) error {
			if n.UserID == consumer {
				return errors.New("write failed")
			}
			written = append(written, n.UserID)
			return nil
		},
	}
	fanout := newTestFanout(t, repo)

	err := fanout.OrderCreated(context.Background(), order)
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if len(multierr.Errors(err)) != 1 {
		t.Fatalf("expected single failure, got %v", err)
	}
	if len(written) != 1 || written[0] != farmer {
		t.Fatal("expected farmer notice despite consumer failure")
	}
}

func TestFanoutStatusChangedNotifiesConsumerAndFarmers(t *testing.T) {
	var written []models.Notification
	repo := &fakeRepository{
		createFn: func(ctx context.Context, n *models.Notification) error {
			written = append(written, *n)
			return nil
		},
	}
	fanout := newTestFanout(t, repo)

	consumer := uuid.New()
	farmer := uuid.New()
	order := orderWithFarmers(consumer, farmer)
	if err := fanout.OrderStatusChanged(context.Background(), order, enums.OrderStatusShipped); err != nil {
		t.Fatalf("unexpected fan-out error: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("expected consumer and farmer notices, got %d", len(written))
	}

	recipients := map[uuid.UUID]bool{}
	for _, n := range written {
		recipients[n.UserID] = true
		if n.Type != enums.NotificationTypeOrderShipped {
			t.Fatalf("unexpected type %s", n.Type)
		}
	}
	if !recipients[consumer] || !recipients[farmer] {
		t.Fatal("expected both consumer and farmer to be notified")
	}
}

func TestFanoutCancellationNotifiesFarmersToo(t *testing.T) {
	var written []models.Notification
	repo := &fakeRepository{
		createFn: func(ctx context.Context, n *models.Notification) error {
			written = append(written, *n)
			return nil
		},
	}
	fanout := newTestFanout(t, repo)

	order := orderWithFarmers(uuid.New(), uuid.New(), uuid.New())
	if err := fanout.OrderStatusChanged(context.Background(), order, enums.OrderStatusCancelled); err != nil {
		t.Fatalf("unexpected fan-out error: %v", err)
	}
	if len(written) != 3 {
		t.Fatalf("expected consumer plus 2 farmers, got %d", len(written))
	}
}

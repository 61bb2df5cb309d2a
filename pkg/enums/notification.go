package enums

import "fmt"

// NotificationType categorizes in-app notices written by the order engine.
type NotificationType string

const (
	NotificationTypeNewOrder        NotificationType = "new_order"
	NotificationTypeOrderProcessing NotificationType = "order_processing"
	NotificationTypeOrderShipped    NotificationType = "order_shipped"
	NotificationTypeOrderDelivered  NotificationType = "order_delivered"
	NotificationTypeOrderCancelled  NotificationType = "order_cancelled"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeNewOrder,
	NotificationTypeOrderProcessing,
	NotificationTypeOrderShipped,
	NotificationTypeOrderDelivered,
	NotificationTypeOrderCancelled,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ForOrderStatus maps a resulting order status to its notification type.
func ForOrderStatus(status OrderStatus) NotificationType {
	switch status {
	case OrderStatusProcessing:
		return NotificationTypeOrderProcessing
	case OrderStatusShipped:
		return NotificationTypeOrderShipped
	case OrderStatusDelivered:
		return NotificationTypeOrderDelivered
	case OrderStatusCancelled:
		return NotificationTypeOrderCancelled
	default:
		return NotificationTypeNewOrder
	}
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

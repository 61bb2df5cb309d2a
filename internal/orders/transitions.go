package orders

import "github.com/farmdirect/farmdirect-backend/pkg/enums"

// allowedTransitions is the single source of truth for the fulfillment state
// machine. Delivered and cancelled are terminal.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusCreated:    {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
}

// CanTransition reports whether the state machine permits moving from one
// status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// roleTargets lists the statuses each role may request directly. Cancellation
// goes through the dedicated cancel operation for consumers and admins.
var roleTargets = map[enums.UserRole][]enums.OrderStatus{
	enums.UserRoleAdmin: {
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
	},
}

// RoleMayRequest reports whether the role is allowed to request the target
// status through the status update operation.
func RoleMayRequest(role enums.UserRole, target enums.OrderStatus) bool {
	for _, candidate := range roleTargets[role] {
		if candidate == target {
			return true
		}
	}
	return false
}

// MayCancel reports whether the role is allowed to use the cancel operation.
// Ownership and state checks happen in the service.
func MayCancel(role enums.UserRole) bool {
	return role == enums.UserRoleConsumer || role == enums.UserRoleAdmin
}

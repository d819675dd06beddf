package repository

import (
	"context"

	"wathaci-connect/internal/domain/model"
)

// -----------------------------
// Fan-out dependents
// -----------------------------

type SubscriptionRepository interface {
	// SetPaymentOutcome applies the dual-field update for a payment outcome.
	SetPaymentOutcome(ctx context.Context, tx Tx, subscriptionID string, outcome model.SubscriptionOutcome) error
}

type BookingRepository interface {
	SetPaymentOutcome(ctx context.Context, tx Tx, bookingID string, outcome model.BookingOutcome) error
}

type NotificationRepository interface {
	// Save inserts a write-once notification row.
	Save(ctx context.Context, tx Tx, n *model.Notification) error
}

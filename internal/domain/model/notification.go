package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Notification is a write-once user-facing message created by fan-out.
// Read receipts are owned by the user-facing application, not by us.
type Notification struct {
	ID        string // UUID
	UserID    string // UUID
	Title     string
	Body      string
	Kind      string // "payment"
	Reference string // correlates back to the payment
	Read      bool
	CreatedAt time.Time
}

// NewPaymentNotification builds the human-readable notification for a payment
// outcome. Title/body are keyed off the final payment status.
func NewPaymentNotification(userID string, p *Payment) *Notification {
	var title, body string
	switch p.Status {
	case PaymentStatusCompleted:
		title = "Payment Successful"
		body = fmt.Sprintf("Your payment of %s %d was received.", p.Currency, p.Amount)
	case PaymentStatusCancelled:
		title = "Payment Cancelled"
		body = fmt.Sprintf("Your payment of %s %d was cancelled before completion.", p.Currency, p.Amount)
	default:
		title = "Payment Failed"
		body = fmt.Sprintf("Your payment of %s %d could not be processed. Please try again.", p.Currency, p.Amount)
	}
	return &Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		Kind:      "payment",
		Reference: p.Reference,
		CreatedAt: time.Now(),
	}
}

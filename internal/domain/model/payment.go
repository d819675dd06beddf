package model

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // row created; awaiting gateway outcome
	PaymentStatusCompleted PaymentStatus = "completed" // verified paid at provider
	PaymentStatusFailed    PaymentStatus = "failed"    // provider reported failure
	PaymentStatusCancelled PaymentStatus = "cancelled" // user abandoned or cancelled at gateway
)

// Terminal reports whether no further transition is expected for this status.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

// MapGatewayStatus translates the gateway status vocabulary into ours.
// Total and case-insensitive; anything unrecognized maps to failed so that a
// new provider status can never be silently treated as a successful payment.
func MapGatewayStatus(s string) PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success":
		return PaymentStatusCompleted
	case "pending":
		return PaymentStatusPending
	case "failed":
		return PaymentStatusFailed
	case "cancelled", "abandoned":
		return PaymentStatusCancelled
	default:
		return PaymentStatusFailed
	}
}

// Payment records one attempted payment. Rows are created pending by the
// initialize flow and mutated only by verify/webhook reconciliation; they are
// never deleted (financial audit record).
type Payment struct {
	ID                string // UUID
	Reference         string // our correlation key, unique, immutable
	ProviderReference *string
	Amount            int64 // major units (human-readable)
	Currency          string
	Status            PaymentStatus

	// request-time metadata, write-once
	PaymentMethod string // "card" | "mobile_money"
	Provider      string // mobile money operator when applicable
	Email         string
	Name          string
	Phone         string
	Description   string

	// Meta carries foreign keys (subscription_id / service_id / user_id)
	// so fan-out can locate dependents without a join table.
	Meta map[string]any

	AccessCode       string
	AuthorizationURL string

	ProviderTransactionID *string
	GatewayResponse       *string

	PaidAt    *time.Time // set only on the transition into completed
	CreatedAt time.Time
	UpdatedAt time.Time
}

const referenceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewReference generates a payment reference of the form
// WC_<unix-millis>_<6 alphanumeric>. Collisions are treated as negligible;
// the unique constraint on payments.reference is the backstop.
func NewReference() string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = referenceCharset[int(b)%len(referenceCharset)]
	}
	return fmt.Sprintf("WC_%d_%s", time.Now().UnixMilli(), string(buf))
}

// MetaString reads a string-valued key out of the payment metadata,
// tolerating numeric JSON values.
func (p *Payment) MetaString(key string) string {
	if p == nil || p.Meta == nil {
		return ""
	}
	switch v := p.Meta[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case float64:
		return fmt.Sprintf("%.0f", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case int:
		return fmt.Sprintf("%d", v)
	default:
		return ""
	}
}

func (p *Payment) SubscriptionID() string { return p.MetaString("subscription_id") }
func (p *Payment) ServiceID() string      { return p.MetaString("service_id") }
func (p *Payment) UserID() string         { return p.MetaString("user_id") }

package model

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

type WebhookLogStatus string

const (
	WebhookLogProcessed WebhookLogStatus = "processed"
	WebhookLogFailed    WebhookLogStatus = "failed"
)

// WebhookLog is an append-only audit record of one inbound webhook delivery.
// Rows are never updated; they exist for replay and debugging. The reference
// is not a foreign key — the payment row may not exist yet if the webhook
// races ahead of the initialize write.
type WebhookLog struct {
	ID         string // ULID, sortable by arrival time
	Reference  string
	Event      string
	Payload    json.RawMessage // raw body exactly as delivered
	Status     WebhookLogStatus
	Error      *string
	ReceivedAt time.Time
}

func NewWebhookLog(reference, event string, payload []byte, status WebhookLogStatus, procErr error) *WebhookLog {
	l := &WebhookLog{
		ID:         ulid.Make().String(),
		Reference:  reference,
		Event:      event,
		Payload:    json.RawMessage(payload),
		Status:     status,
		ReceivedAt: time.Now(),
	}
	if procErr != nil {
		msg := procErr.Error()
		l.Error = &msg
	}
	return l
}

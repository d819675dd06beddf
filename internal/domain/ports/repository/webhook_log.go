package repository

import (
	"context"

	"wathaci-connect/internal/domain/model"
)

// WebhookLogRepository is append-only: every inbound delivery attempt is
// recorded, processed or not. There is no update or delete.
type WebhookLogRepository interface {
	Append(ctx context.Context, tx Tx, l *model.WebhookLog) error
	ListByReference(ctx context.Context, tx Tx, reference string, limit int) ([]*model.WebhookLog, error)
}

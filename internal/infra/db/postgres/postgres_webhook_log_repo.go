package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"wathaci-connect/internal/domain"
	"wathaci-connect/internal/domain/model"
	"wathaci-connect/internal/domain/ports/repository"
)

var _ repository.WebhookLogRepository = (*webhookLogRepo)(nil)

type webhookLogRepo struct{ pool *pgxpool.Pool }

func NewWebhookLogRepo(pool *pgxpool.Pool) *webhookLogRepo {
	return &webhookLogRepo{pool: pool}
}

func (r *webhookLogRepo) Append(ctx context.Context, tx repository.Tx, l *model.WebhookLog) error {
	const q = `
INSERT INTO webhook_logs (id, reference, event, payload, status, error, received_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	_, err := execSQL(ctx, r.pool, tx, q, l.ID, l.Reference, l.Event, []byte(l.Payload), string(l.Status), l.Error, l.ReceivedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *webhookLogRepo) ListByReference(ctx context.Context, tx repository.Tx, reference string, limit int) ([]*model.WebhookLog, error) {
	if limit <= 0 {
		limit = 50
	}
	// ULID ids sort by arrival time, so ordering by id is ordering by receipt.
	const q = `SELECT id, reference, event, payload, status, error, received_at FROM webhook_logs WHERE reference=$1 ORDER BY id ASC LIMIT $2;`

	rows, err := queryRows(ctx, r.pool, tx, q, reference, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.WebhookLog
	for rows.Next() {
		l := new(model.WebhookLog)
		var payload []byte
		if err := rows.Scan(&l.ID, &l.Reference, &l.Event, &payload, &l.Status, &l.Error, &l.ReceivedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrNotFound
			}
			return nil, domain.ErrReadDatabaseRow
		}
		l.Payload = payload
		out = append(out, l)
	}
	return out, nil
}

package postgres

import (
	"errors"
	"time"

	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"wathaci-connect/internal/domain"
	"wathaci-connect/internal/domain/model"
	"wathaci-connect/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, reference, provider_reference, amount, currency, status, payment_method, provider, email, name, phone, description, meta, access_code, authorization_url, provider_transaction_id, gateway_response, paid_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.Reference, &p.ProviderReference, &p.Amount, &p.Currency, &p.Status,
		&p.PaymentMethod, &p.Provider, &p.Email, &p.Name, &p.Phone, &p.Description, &p.Meta,
		&p.AccessCode, &p.AuthorizationURL, &p.ProviderTransactionID, &p.GatewayResponse,
		&p.PaidAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  ` + paymentColumns + `
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20
);`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Reference, p.ProviderReference, p.Amount, p.Currency, p.Status,
		p.PaymentMethod, p.Provider, p.Email, p.Name, p.Phone, p.Description, p.Meta,
		p.AccessCode, p.AuthorizationURL, p.ProviderTransactionID, p.GatewayResponse,
		p.PaidAt, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE reference=$1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, reference)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

// CompleteIfPending atomically transitions the row out of pending. The WHERE
// clause carries the terminal-immutability invariant: a completed payment can
// never be downgraded by a late contradictory delivery, and the rows-affected
// result tells the caller whether it owns fan-out for this transition.
func (r *paymentRepo) CompleteIfPending(
	ctx context.Context, tx repository.Tx, reference string, status model.PaymentStatus,
	providerTxID *string, gatewayResponse *string, paidAt *time.Time,
) (bool, error) {
	const q = `
    UPDATE payments
       SET status = $2,
           provider_transaction_id = COALESCE($3, provider_transaction_id),
           gateway_response = COALESCE($4, gateway_response),
           paid_at = CASE WHEN $2 = 'completed' THEN COALESCE($5, NOW()) ELSE paid_at END,
           updated_at = NOW()
     WHERE reference = $1
       AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, reference, string(status), providerTxID, gatewayResponse, paidAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *paymentRepo) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM payments WHERE status='completed' AND paid_at >= DATE_TRUNC($1, NOW());`
	row, err := pickRow(ctx, r.pool, tx, q, period)
	if err != nil {
		return 0, err
	}

	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}

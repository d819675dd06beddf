package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"wathaci-connect/internal/domain"
	"wathaci-connect/internal/domain/model"
	"wathaci-connect/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

func (r *subscriptionRepo) SetPaymentOutcome(ctx context.Context, tx repository.Tx, subscriptionID string, outcome model.SubscriptionOutcome) error {
	// COALESCE keeps the lifecycle status untouched when the outcome does not
	// dictate one (failed payments leave the subscription pending for retry).
	const q = `
UPDATE subscriptions
   SET payment_status = $2,
       status = COALESCE($3, status),
       updated_at = NOW()
 WHERE id = $1;`

	_, err := execSQL(ctx, r.pool, tx, q, subscriptionID, string(outcome.PaymentStatus), (*string)(outcome.Status))
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

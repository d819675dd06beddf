package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"wathaci-connect/internal/domain"
	"wathaci-connect/internal/domain/model"
	"wathaci-connect/internal/domain/ports/repository"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

// UpdateStatusByReference settles every ledger transaction sharing the
// payment reference. Zero affected rows is fine — not every payment has a
// ledger entry.
func (r *transactionRepo) UpdateStatusByReference(ctx context.Context, tx repository.Tx, reference string, status model.PaymentStatus) error {
	const q = `UPDATE transactions SET status=$2, updated_at=NOW() WHERE reference=$1;`

	_, err := execSQL(ctx, r.pool, tx, q, reference, string(status))
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

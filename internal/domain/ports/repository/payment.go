package repository

import (
	"context"
	"time"

	"wathaci-connect/internal/domain/model"
)

// PaymentRepository is the port for the payment audit trail. Rows are created
// once and transitioned at most once from pending to a terminal status; there
// is intentionally no Delete.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByReference(ctx context.Context, tx Tx, reference string) (*model.Payment, error)

	// CompleteIfPending applies the terminal transition only when the row is
	// still pending (conditional UPDATE). Returns true when a row actually
	// changed — the caller's signal that it won the verify/webhook race and
	// owns the fan-out dispatch.
	CompleteIfPending(ctx context.Context, tx Tx, reference string, status model.PaymentStatus,
		providerTxID *string, gatewayResponse *string, paidAt *time.Time) (bool, error)

	// ListPendingOlderThan feeds the reconciler sweep.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)

	// SumByPeriod totals completed payments since the start of the given
	// period ("week" | "month" | "year"), in major units.
	SumByPeriod(ctx context.Context, tx Tx, period string) (int64, error)
}

// TransactionRepository updates ledger transaction rows that share a payment
// reference. The coordinator never creates these rows, only settles them.
type TransactionRepository interface {
	UpdateStatusByReference(ctx context.Context, tx Tx, reference string, status model.PaymentStatus) error
}

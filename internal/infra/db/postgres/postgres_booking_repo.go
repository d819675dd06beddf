package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"wathaci-connect/internal/domain"
	"wathaci-connect/internal/domain/model"
	"wathaci-connect/internal/domain/ports/repository"
)

var _ repository.BookingRepository = (*bookingRepo)(nil)

type bookingRepo struct{ pool *pgxpool.Pool }

func NewBookingRepo(pool *pgxpool.Pool) *bookingRepo {
	return &bookingRepo{pool: pool}
}

func (r *bookingRepo) SetPaymentOutcome(ctx context.Context, tx repository.Tx, bookingID string, outcome model.BookingOutcome) error {
	const q = `
UPDATE service_bookings
   SET payment_status = $2,
       status = COALESCE($3, status),
       updated_at = NOW()
 WHERE id = $1;`

	_, err := execSQL(ctx, r.pool, tx, q, bookingID, string(outcome.PaymentStatus), (*string)(outcome.Status))
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

package usecase

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"wathaci-connect/internal/domain/model"
	"wathaci-connect/internal/domain/ports/adapter"
	"wathaci-connect/internal/domain/ports/repository"
	"wathaci-connect/internal/infra/metrics"
)

// Compile-time check
var _ FanoutUseCase = (*fanoutUC)(nil)

// FanoutUseCase propagates a terminal payment status to dependent records and
// the owning user. Dispatch never returns an error: each target is updated
// independently and a failure on one must not stop the others. Dependent rows
// are not wrapped in a cross-table transaction; partial fan-out is tolerated.
type FanoutUseCase interface {
	Dispatch(ctx context.Context, p *model.Payment)
}

type fanoutUC struct {
	subs        repository.SubscriptionRepository
	bookings    repository.BookingRepository
	txs         repository.TransactionRepository
	notifs      repository.NotificationRepository
	broadcaster adapter.Broadcaster
	log         *zerolog.Logger
}

func NewFanoutUseCase(
	subs repository.SubscriptionRepository,
	bookings repository.BookingRepository,
	txs repository.TransactionRepository,
	notifs repository.NotificationRepository,
	broadcaster adapter.Broadcaster,
	logger *zerolog.Logger,
) *fanoutUC {
	compLog := logger.With().Str("component", "FanoutUC").Logger()
	return &fanoutUC{subs: subs, bookings: bookings, txs: txs, notifs: notifs, broadcaster: broadcaster, log: &compLog}
}

func (f *fanoutUC) Dispatch(ctx context.Context, p *model.Payment) {
	if p == nil || !p.Status.Terminal() {
		return
	}
	log := f.log.With().Str("reference", p.Reference).Str("status", string(p.Status)).Logger()

	if subID := p.SubscriptionID(); subID != "" {
		err := f.subs.SetPaymentOutcome(ctx, repository.NoTX, subID, model.SubscriptionOutcomeFor(p.Status))
		metrics.IncFanout("subscription", err)
		if err != nil {
			log.Error().Err(err).Str("subscription_id", subID).Msg("subscription update failed")
		}

		err = f.txs.UpdateStatusByReference(ctx, repository.NoTX, p.Reference, p.Status)
		metrics.IncFanout("transaction", err)
		if err != nil {
			log.Error().Err(err).Msg("transaction update failed")
		}
	}

	if serviceID := p.ServiceID(); serviceID != "" {
		err := f.bookings.SetPaymentOutcome(ctx, repository.NoTX, serviceID, model.BookingOutcomeFor(p.Status))
		metrics.IncFanout("booking", err)
		if err != nil {
			log.Error().Err(err).Str("service_id", serviceID).Msg("booking update failed")
		}
	}

	if userID := p.UserID(); userID != "" {
		n := model.NewPaymentNotification(userID, p)
		err := f.notifs.Save(ctx, repository.NoTX, n)
		metrics.IncFanout("notification", err)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("notification insert failed")
		}

		f.broadcast(ctx, userID, p, &log)
	}
}

// broadcast publishes a realtime event on the user's channel, best-effort.
func (f *fanoutUC) broadcast(ctx context.Context, userID string, p *model.Payment, log *zerolog.Logger) {
	if f.broadcaster == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"type":      "payment_update",
		"reference": p.Reference,
		"status":    p.Status,
		"amount":    p.Amount,
		"currency":  p.Currency,
	})
	if err != nil {
		return
	}
	err = f.broadcaster.Publish(ctx, "user:"+userID+":payments", payload)
	metrics.IncFanout("broadcast", err)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("realtime broadcast failed")
	}
}

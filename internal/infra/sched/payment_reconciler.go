package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"wathaci-connect/internal/domain"
	"wathaci-connect/internal/domain/ports/repository"
	infraredis "wathaci-connect/internal/infra/redis"
	"wathaci-connect/internal/usecase"
)

const reconcilerLockKey = "locks:payment-reconciler"

// PaymentReconciler periodically sweeps stale pending payments and re-verifies
// them against the gateway. This is the safety net for the deliveries the
// webhook and verify paths never saw: a crashed process, a dropped webhook, a
// client that closed the tab before polling.
type PaymentReconciler struct {
	uc         usecase.PaymentUseCase
	payments   repository.PaymentRepository
	locker     infraredis.Locker
	interval   time.Duration
	staleAfter time.Duration
	batchSize  int
	log        *zerolog.Logger
}

func NewPaymentReconciler(
	uc usecase.PaymentUseCase,
	payments repository.PaymentRepository,
	locker infraredis.Locker,
	interval, staleAfter time.Duration,
	batchSize int,
	logger *zerolog.Logger,
) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	compLog := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{
		uc:         uc,
		payments:   payments,
		locker:     locker,
		interval:   interval,
		staleAfter: staleAfter,
		batchSize:  batchSize,
		log:        &compLog,
	}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	// Single-flight across replicas: only one instance sweeps per interval.
	// The lock TTL matches the interval so a crashed holder frees itself.
	token, err := w.locker.TryLock(ctx, reconcilerLockKey, w.interval)
	if err != nil {
		if !errors.Is(err, domain.ErrLockNotAcquired) {
			w.log.Error().Err(err).Msg("reconciler lock error")
		}
		return
	}
	defer func() {
		if err := w.locker.Unlock(ctx, reconcilerLockKey, token); err != nil {
			w.log.Warn().Err(err).Msg("reconciler lock release failed")
		}
	}()

	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.payments.ListPendingOlderThan(ctx, repository.NoTX, cutoff, w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("list stale pending payments failed")
		return
	}
	if len(pending) == 0 {
		return
	}

	w.log.Info().Int("count", len(pending)).Msg("sweeping stale pending payments")
	for _, p := range pending {
		if ctx.Err() != nil {
			return
		}
		// Verify reconciles through the same path as the webhook, so a
		// payment finalized here dispatches fan-out exactly once as well.
		if _, err := w.uc.Verify(ctx, p.Reference); err != nil {
			w.log.Warn().Err(err).Str("reference", p.Reference).Msg("sweep verify failed")
			continue
		}
	}
}

package usecase

import (
	"context"

	"wathaci-connect/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	// Revenue returns completed-payment totals (major units) for the current
	// week, month and year.
	Revenue(ctx context.Context) (week, month, year int64, err error)
}

type statsUC struct {
	payments repository.PaymentRepository
}

func NewStatsUseCase(payments repository.PaymentRepository) *statsUC {
	return &statsUC{payments: payments}
}

func (s *statsUC) Revenue(ctx context.Context) (int64, int64, int64, error) {
	week, err := s.payments.SumByPeriod(ctx, repository.NoTX, "week")
	if err != nil {
		return 0, 0, 0, err
	}
	month, err := s.payments.SumByPeriod(ctx, repository.NoTX, "month")
	if err != nil {
		return 0, 0, 0, err
	}
	year, err := s.payments.SumByPeriod(ctx, repository.NoTX, "year")
	if err != nil {
		return 0, 0, 0, err
	}
	return week, month, year, nil
}

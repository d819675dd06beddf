package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"wathaci-connect/internal/domain"
	"wathaci-connect/internal/domain/model"
	"wathaci-connect/internal/domain/ports/adapter"
	"wathaci-connect/internal/domain/ports/repository"
	"wathaci-connect/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// PaymentMethodMobileMoney is the one method with extra required fields.
const PaymentMethodMobileMoney = "mobile_money"

type InitializeInput struct {
	Amount        int64
	PaymentMethod string
	PhoneNumber   string
	Provider      string
	Description   string
	Email         string
	Name          string
	Metadata      map[string]any
}

type InitializeOutput struct {
	Reference  string
	PaymentURL string
	AccessCode string
	Amount     int64 // major units, as stored
	Currency   string
}

// ReconcileInput is a gateway-observed outcome for a reference, regardless of
// which channel (client verify poll, gateway webhook, reconciler sweep)
// learned of it.
type ReconcileInput struct {
	Reference             string
	GatewayStatus         string // raw gateway vocabulary
	ProviderTransactionID string
	GatewayResponse       string
	PaidAt                *time.Time
	Metadata              map[string]any
	Source                string // "verify" | "webhook" | "reconciler"
}

type PaymentUseCase interface {
	// Initialize validates the request, opens a checkout session with the
	// gateway and persists the pending payment row.
	Initialize(ctx context.Context, userID string, in InitializeInput) (*InitializeOutput, error)
	// Verify polls the gateway for the current state of a reference and
	// reconciles the stored row. Idempotent on already-terminal payments.
	Verify(ctx context.Context, reference string) (*model.Payment, error)
	// Reconcile applies an observed status. The bool result reports whether
	// this call performed the pending→terminal transition (and therefore
	// dispatched fan-out); the losing side of a verify/webhook race gets
	// false and no double dispatch.
	Reconcile(ctx context.Context, in ReconcileInput) (*model.Payment, bool, error)
	// Get returns the stored payment row.
	Get(ctx context.Context, reference string) (*model.Payment, error)
}

// PaymentSettings are the amount-handling knobs, injected from config.
type PaymentSettings struct {
	Currency           string
	MinAmount          int64
	MinorUnitFactor    int64
	MinorUnitThreshold int64
}

type paymentUC struct {
	payments repository.PaymentRepository
	gateway  adapter.PaymentGateway
	fanout   FanoutUseCase
	txm      repository.TransactionManager
	settings PaymentSettings
	log      *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	gateway adapter.PaymentGateway,
	fanout FanoutUseCase,
	txm repository.TransactionManager,
	settings PaymentSettings,
	logger *zerolog.Logger,
) *paymentUC {
	compLog := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{payments: payments, gateway: gateway, fanout: fanout, txm: txm, settings: settings, log: &compLog}
}

// runInTx executes fn inside a database transaction when a transaction
// manager is wired; otherwise fn runs on the non-transactional pool path.
func (u *paymentUC) runInTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if u.txm == nil {
		return fn(ctx, repository.NoTX)
	}
	return u.txm.WithTx(ctx, pgx.TxOptions{}, fn)
}

func (u *paymentUC) Initialize(ctx context.Context, userID string, in InitializeInput) (*InitializeOutput, error) {
	if err := u.validate(in); err != nil {
		return nil, err
	}

	meta := make(map[string]any, len(in.Metadata)+1)
	for k, v := range in.Metadata {
		meta[k] = v
	}
	if userID != "" {
		if _, ok := meta["user_id"]; !ok {
			meta["user_id"] = userID
		}
	}

	reference := model.NewReference()
	major, minor := u.normalizeAmount(in.Amount)

	res, err := u.gateway.Initialize(ctx, adapter.InitializeRequest{
		Reference:     reference,
		Amount:        minor,
		Currency:      u.settings.Currency,
		Email:         in.Email,
		Name:          in.Name,
		PaymentMethod: in.PaymentMethod,
		Phone:         in.PhoneNumber,
		Provider:      in.Provider,
		Description:   in.Description,
		Metadata:      meta,
	})
	if err != nil {
		// Nothing persisted: a failed initialize leaves no local record.
		return nil, err
	}

	now := time.Now()
	p := &model.Payment{
		ID:               uuid.NewString(),
		Reference:        reference,
		Amount:           major,
		Currency:         u.settings.Currency,
		Status:           model.PaymentStatusPending,
		PaymentMethod:    in.PaymentMethod,
		Provider:         in.Provider,
		Email:            in.Email,
		Name:             in.Name,
		Phone:            in.PhoneNumber,
		Description:      in.Description,
		Meta:             meta,
		AccessCode:       res.AccessCode,
		AuthorizationURL: res.AuthorizationURL,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if res.ProviderReference != "" {
		p.ProviderReference = &res.ProviderReference
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		// Known gap: the gateway-side transaction now exists with no local
		// record. The reconciler sweep cannot see it, so it surfaces loudly.
		u.log.Error().Err(err).Str("reference", reference).
			Msg("payment row write failed after gateway initialize; gateway transaction orphaned")
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	metrics.IncPayment(string(model.PaymentStatusPending))
	return &InitializeOutput{
		Reference:  reference,
		PaymentURL: res.AuthorizationURL,
		AccessCode: res.AccessCode,
		Amount:     major,
		Currency:   u.settings.Currency,
	}, nil
}

func (u *paymentUC) validate(in InitializeInput) error {
	if in.Amount < u.settings.MinAmount {
		return fmt.Errorf("amount must be at least %d: %w", u.settings.MinAmount, domain.ErrInvalidAmount)
	}
	if strings.TrimSpace(in.Email) == "" {
		return fmt.Errorf("email is required: %w", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("name is required: %w", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("description is required: %w", domain.ErrInvalidArgument)
	}
	if in.PaymentMethod == PaymentMethodMobileMoney {
		if strings.TrimSpace(in.PhoneNumber) == "" || strings.TrimSpace(in.Provider) == "" {
			return fmt.Errorf("mobile money requires phone number and provider: %w", domain.ErrInvalidArgument)
		}
	}
	return nil
}

// normalizeAmount applies the minor-unit heuristic: a caller-supplied value
// above the threshold is assumed to already be in minor units (a caller that
// converted before calling us); anything else is a major-unit amount. The
// stored row always keeps major units, the gateway always receives minor.
func (u *paymentUC) normalizeAmount(amount int64) (major int64, minor int64) {
	if amount > u.settings.MinorUnitThreshold {
		return amount / u.settings.MinorUnitFactor, amount
	}
	return amount, amount * u.settings.MinorUnitFactor
}

func (u *paymentUC) Verify(ctx context.Context, reference string) (*model.Payment, error) {
	res, err := u.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}
	p, _, err := u.Reconcile(ctx, ReconcileInput{
		Reference:             reference,
		GatewayStatus:         res.Status,
		ProviderTransactionID: res.ProviderTransactionID,
		GatewayResponse:       res.GatewayResponse,
		PaidAt:                res.PaidAt,
		Metadata:              res.Metadata,
		Source:                "verify",
	})
	return p, err
}

func (u *paymentUC) Reconcile(ctx context.Context, in ReconcileInput) (*model.Payment, bool, error) {
	status := model.MapGatewayStatus(in.GatewayStatus)

	if !status.Terminal() {
		p, err := u.payments.FindByReference(ctx, repository.NoTX, in.Reference)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, nil
		}
		return p, false, err
	}

	var (
		moved bool
		p     *model.Payment
	)
	err := u.runInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		moved, err = u.payments.CompleteIfPending(ctx, tx, in.Reference, status,
			nilIfEmpty(in.ProviderTransactionID), nilIfEmpty(in.GatewayResponse), in.PaidAt)
		if err != nil {
			return err
		}
		p, err = u.payments.FindByReference(ctx, tx, in.Reference)
		if errors.Is(err, domain.ErrNotFound) {
			p = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if p == nil {
		// The delivery raced ahead of the initialize write. Tolerated: the
		// conditional update matched nothing and the caller still logs the
		// event for replay.
		u.log.Warn().Str("reference", in.Reference).Str("source", in.Source).
			Msg("reconcile for unknown reference")
		return nil, false, nil
	}

	if !moved {
		// Losing side of the race, or a redelivery of an already-terminal
		// payment: re-confirm, never re-dispatch.
		u.log.Debug().Str("reference", in.Reference).Str("source", in.Source).
			Str("status", string(p.Status)).Msg("reconcile no-op; payment already terminal")
		return p, false, nil
	}

	metrics.IncPayment(string(status))
	metrics.IncPaymentTransition(in.Source, string(status))
	if status == model.PaymentStatusCompleted {
		metrics.AddPaymentRevenue(p.Currency, p.Amount)
	}

	// The delivery's metadata may carry dependent keys the stored row lacks;
	// merge (stored keys win) before locating fan-out targets.
	if len(in.Metadata) > 0 {
		if p.Meta == nil {
			p.Meta = make(map[string]any, len(in.Metadata))
		}
		for k, v := range in.Metadata {
			if _, ok := p.Meta[k]; !ok {
				p.Meta[k] = v
			}
		}
	}

	u.log.Info().Str("reference", in.Reference).Str("source", in.Source).
		Str("status", string(status)).Msg("payment transitioned")

	if u.fanout != nil {
		u.fanout.Dispatch(ctx, p)
	}
	return p, true, nil
}

func (u *paymentUC) Get(ctx context.Context, reference string) (*model.Payment, error) {
	return u.payments.FindByReference(ctx, repository.NoTX, reference)
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

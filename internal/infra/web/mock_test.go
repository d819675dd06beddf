//go:build !integration

package web

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"wathaci-connect/internal/config"
	"wathaci-connect/internal/domain"
	"wathaci-connect/internal/domain/model"
	"wathaci-connect/internal/domain/ports/repository"
	"wathaci-connect/internal/usecase"
)

// MockPaymentUC records calls; defaults are benign so each test only overrides
// the path it cares about.
type MockPaymentUC struct {
	InitializeFunc func(ctx context.Context, userID string, in usecase.InitializeInput) (*usecase.InitializeOutput, error)
	VerifyFunc     func(ctx context.Context, reference string) (*model.Payment, error)
	ReconcileFunc  func(ctx context.Context, in usecase.ReconcileInput) (*model.Payment, bool, error)
	GetFunc        func(ctx context.Context, reference string) (*model.Payment, error)

	ReconcileCalls []usecase.ReconcileInput
	LastUserID     string
}

func (m *MockPaymentUC) Initialize(ctx context.Context, userID string, in usecase.InitializeInput) (*usecase.InitializeOutput, error) {
	m.LastUserID = userID
	if m.InitializeFunc != nil {
		return m.InitializeFunc(ctx, userID, in)
	}
	return &usecase.InitializeOutput{
		Reference:  "WC_1_ABCDEF",
		PaymentURL: "https://pay.example/ac_1",
		AccessCode: "ac_1",
		Amount:     in.Amount,
		Currency:   "ZMW",
	}, nil
}

func (m *MockPaymentUC) Verify(ctx context.Context, reference string) (*model.Payment, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, reference)
	}
	return testPayment(reference, model.PaymentStatusCompleted), nil
}

func (m *MockPaymentUC) Reconcile(ctx context.Context, in usecase.ReconcileInput) (*model.Payment, bool, error) {
	m.ReconcileCalls = append(m.ReconcileCalls, in)
	if m.ReconcileFunc != nil {
		return m.ReconcileFunc(ctx, in)
	}
	return testPayment(in.Reference, model.MapGatewayStatus(in.GatewayStatus)), true, nil
}

func (m *MockPaymentUC) Get(ctx context.Context, reference string) (*model.Payment, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, reference)
	}
	return testPayment(reference, model.PaymentStatusPending), nil
}

type MockStatsUC struct {
	RevenueFunc func(ctx context.Context) (int64, int64, int64, error)
}

func (m *MockStatsUC) Revenue(ctx context.Context) (int64, int64, int64, error) {
	if m.RevenueFunc != nil {
		return m.RevenueFunc(ctx)
	}
	return 100, 400, 5000, nil
}

type MockWebhookLogRepo struct {
	AppendFunc func(ctx context.Context, tx repository.Tx, l *model.WebhookLog) error
	ListFunc   func(ctx context.Context, tx repository.Tx, reference string, limit int) ([]*model.WebhookLog, error)
	Appended   []*model.WebhookLog
}

func (m *MockWebhookLogRepo) Append(ctx context.Context, tx repository.Tx, l *model.WebhookLog) error {
	m.Appended = append(m.Appended, l)
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, l)
	}
	return nil
}

func (m *MockWebhookLogRepo) ListByReference(ctx context.Context, tx repository.Tx, reference string, limit int) ([]*model.WebhookLog, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, tx, reference, limit)
	}
	var out []*model.WebhookLog
	for _, l := range m.Appended {
		if l.Reference == reference {
			out = append(out, l)
		}
	}
	return out, nil
}

func testPayment(reference string, status model.PaymentStatus) *model.Payment {
	now := time.Now()
	return &model.Payment{
		ID:        "id-1",
		Reference: reference,
		Amount:    100,
		Currency:  "ZMW",
		Status:    status,
		Email:     "jane@example.com",
		Name:      "Jane Banda",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{Port: 0},
		Gateway: config.GatewayConfig{
			SignatureHeader: "X-Gateway-Signature",
			WebhookSecret:   "whsec_test",
		},
		Auth: config.AuthConfig{JWTSecret: "jwt_test_secret", TTL: time.Hour},
	}
}

func newTestServer(uc *MockPaymentUC, stats *MockStatsUC, logs *MockWebhookLogRepo) *Server {
	if uc == nil {
		uc = &MockPaymentUC{}
	}
	if stats == nil {
		stats = &MockStatsUC{}
	}
	if logs == nil {
		logs = &MockWebhookLogRepo{}
	}
	nop := zerolog.Nop()
	return NewServer(testConfig(), uc, stats, logs, &nop)
}

var errBoom = domain.ErrOperationFailed

//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"wathaci-connect/internal/domain"
	"wathaci-connect/internal/domain/model"
	"wathaci-connect/internal/domain/ports/adapter"
	"wathaci-connect/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

//
// ---------------- payment repo ----------------
//

type MockPaymentRepo struct {
	mu         sync.Mutex
	byRef      map[string]*model.Payment
	SaveFunc   func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	FindFunc   func(ctx context.Context, tx repository.Tx, reference string) (*model.Payment, error)
	CompleteFn func(ctx context.Context, tx repository.Tx, reference string, status model.PaymentStatus, providerTxID, gatewayResponse *string, paidAt *time.Time) (bool, error)
	SumFunc    func(ctx context.Context, tx repository.Tx, period string) (int64, error)
}

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{byRef: map[string]*model.Payment{}}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.byRef[p.Reference] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.Payment, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, tx, reference)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byRef[reference]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) CompleteIfPending(ctx context.Context, tx repository.Tx, reference string, status model.PaymentStatus, providerTxID, gatewayResponse *string, paidAt *time.Time) (bool, error) {
	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, tx, reference, status, providerTxID, gatewayResponse, paidAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byRef[reference]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	p.ProviderTransactionID = providerTxID
	p.GatewayResponse = gatewayResponse
	if status == model.PaymentStatusCompleted {
		if paidAt == nil {
			now := time.Now()
			paidAt = &now
		}
		p.PaidAt = paidAt
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.byRef {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	if m.SumFunc != nil {
		return m.SumFunc(ctx, tx, period)
	}
	return 0, nil
}

//
// ---------------- gateway ----------------
//

type MockGateway struct {
	InitializeFunc  func(ctx context.Context, req adapter.InitializeRequest) (*adapter.InitializeResult, error)
	VerifyFunc      func(ctx context.Context, reference string) (*adapter.VerifyResult, error)
	InitializeCalls int
	VerifyCalls     int
	LastInitialize  adapter.InitializeRequest
}

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) Initialize(ctx context.Context, req adapter.InitializeRequest) (*adapter.InitializeResult, error) {
	m.InitializeCalls++
	m.LastInitialize = req
	if m.InitializeFunc != nil {
		return m.InitializeFunc(ctx, req)
	}
	return &adapter.InitializeResult{
		AccessCode:        "ac_test",
		AuthorizationURL:  "https://pay.example/ac_test",
		ProviderReference: "prov_" + req.Reference,
	}, nil
}

func (m *MockGateway) Verify(ctx context.Context, reference string) (*adapter.VerifyResult, error) {
	m.VerifyCalls++
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, reference)
	}
	return &adapter.VerifyResult{Status: "success"}, nil
}

//
// ---------------- fan-out dependents ----------------
//

type MockSubscriptionRepo struct {
	SetFunc func(ctx context.Context, tx repository.Tx, id string, outcome model.SubscriptionOutcome) error
	Calls   []struct {
		ID      string
		Outcome model.SubscriptionOutcome
	}
}

func (m *MockSubscriptionRepo) SetPaymentOutcome(ctx context.Context, tx repository.Tx, id string, outcome model.SubscriptionOutcome) error {
	m.Calls = append(m.Calls, struct {
		ID      string
		Outcome model.SubscriptionOutcome
	}{id, outcome})
	if m.SetFunc != nil {
		return m.SetFunc(ctx, tx, id, outcome)
	}
	return nil
}

type MockBookingRepo struct {
	SetFunc func(ctx context.Context, tx repository.Tx, id string, outcome model.BookingOutcome) error
	Calls   []struct {
		ID      string
		Outcome model.BookingOutcome
	}
}

func (m *MockBookingRepo) SetPaymentOutcome(ctx context.Context, tx repository.Tx, id string, outcome model.BookingOutcome) error {
	m.Calls = append(m.Calls, struct {
		ID      string
		Outcome model.BookingOutcome
	}{id, outcome})
	if m.SetFunc != nil {
		return m.SetFunc(ctx, tx, id, outcome)
	}
	return nil
}

type MockTransactionRepo struct {
	UpdateFunc func(ctx context.Context, tx repository.Tx, reference string, status model.PaymentStatus) error
	Calls      []string
}

func (m *MockTransactionRepo) UpdateStatusByReference(ctx context.Context, tx repository.Tx, reference string, status model.PaymentStatus) error {
	m.Calls = append(m.Calls, reference)
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, reference, status)
	}
	return nil
}

type MockNotificationRepo struct {
	SaveFunc func(ctx context.Context, tx repository.Tx, n *model.Notification) error
	Saved    []*model.Notification
}

func (m *MockNotificationRepo) Save(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	m.Saved = append(m.Saved, n)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, n)
	}
	return nil
}

type MockBroadcaster struct {
	PublishFunc func(ctx context.Context, channel string, payload []byte) error
	Published   []string
}

func (m *MockBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	m.Published = append(m.Published, channel)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, channel, payload)
	}
	return nil
}

// MockTxManager runs the callback immediately; the mock repositories ignore
// the tx handle, so this only records that a transaction was requested.
type MockTxManager struct {
	Calls int
}

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	return fn(ctx, repository.NoTX)
}

//
// ---------------- fan-out spy for payment uc tests ----------------
//

type MockFanout struct {
	Dispatched []*model.Payment
}

func (m *MockFanout) Dispatch(ctx context.Context, p *model.Payment) {
	m.Dispatched = append(m.Dispatched, p)
}

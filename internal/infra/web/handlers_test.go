//go:build !integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wathaci-connect/internal/domain"
	"wathaci-connect/internal/domain/model"
	"wathaci-connect/internal/domain/ports/adapter"
	"wathaci-connect/internal/infra/logging"
	"wathaci-connect/internal/usecase"
)

func authed(t *testing.T, s *Server, req *http.Request, userID string) *http.Request {
	t.Helper()
	tok, err := s.auth.Mint(userID)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestInitializeHandler(t *testing.T) {
	t.Run("should create a payment and return the checkout details", func(t *testing.T) {
		uc := &MockPaymentUC{}
		s := newTestServer(uc, nil, nil)

		body := `{"amount":100,"payment_method":"card","email":"jane@example.com","name":"Jane Banda","description":"Premium plan","metadata":{"subscription_id":"sub-1"}}`
		req := authed(t, s, httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body)), "user-1")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		resp := decodeEnvelope(t, rec)
		if !resp.Success {
			t.Fatalf("expected success envelope, got %+v", resp)
		}
		data := resp.Data.(map[string]any)
		if data["reference"] != "WC_1_ABCDEF" || data["payment_url"] != "https://pay.example/ac_1" {
			t.Errorf("unexpected payload: %+v", data)
		}
		if uc.LastUserID != "user-1" {
			t.Errorf("caller id not threaded through, got %q", uc.LastUserID)
		}
	})

	t.Run("should reject a missing bearer token", func(t *testing.T) {
		s := newTestServer(nil, nil, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("should map validation failures to 400", func(t *testing.T) {
		uc := &MockPaymentUC{
			InitializeFunc: func(ctx context.Context, userID string, in usecase.InitializeInput) (*usecase.InitializeOutput, error) {
				return nil, fmt.Errorf("amount must be at least 1: %w", domain.ErrInvalidAmount)
			},
		}
		s := newTestServer(uc, nil, nil)
		req := authed(t, s, httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"amount":0}`)), "user-1")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if resp := decodeEnvelope(t, rec); resp.Success || resp.Error == "" {
			t.Errorf("expected failure envelope with message, got %+v", resp)
		}
	})

	t.Run("should hide gateway detail behind a 500", func(t *testing.T) {
		uc := &MockPaymentUC{
			InitializeFunc: func(ctx context.Context, userID string, in usecase.InitializeInput) (*usecase.InitializeOutput, error) {
				return nil, &adapter.GatewayError{StatusCode: 422, Message: "Invalid currency: XYZ"}
			},
		}
		s := newTestServer(uc, nil, nil)
		req := authed(t, s, httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"amount":100}`)), "user-1")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "XYZ") {
			t.Error("provider error text must not leak to clients")
		}
	})

	t.Run("should map gateway timeouts to 504", func(t *testing.T) {
		uc := &MockPaymentUC{
			InitializeFunc: func(ctx context.Context, userID string, in usecase.InitializeInput) (*usecase.InitializeOutput, error) {
				return nil, adapter.ErrGatewayTimeout
			},
		}
		s := newTestServer(uc, nil, nil)
		req := authed(t, s, httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"amount":100}`)), "user-1")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusGatewayTimeout {
			t.Fatalf("status = %d, want 504", rec.Code)
		}
	})

	t.Run("should reject a malformed body", func(t *testing.T) {
		s := newTestServer(nil, nil, nil)
		req := authed(t, s, httptest.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewReader([]byte("{not json"))), "user-1")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestVerifyHandler(t *testing.T) {
	t.Run("should verify and return the reconciled payment", func(t *testing.T) {
		uc := &MockPaymentUC{
			VerifyFunc: func(ctx context.Context, reference string) (*model.Payment, error) {
				return testPayment(reference, model.PaymentStatusCompleted), nil
			},
		}
		s := newTestServer(uc, nil, nil)
		req := authed(t, s, httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", strings.NewReader(`{"reference":"WC_1_ABCDEF"}`)), "user-1")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		data := decodeEnvelope(t, rec).Data.(map[string]any)
		if data["status"] != "completed" || data["reference"] != "WC_1_ABCDEF" {
			t.Errorf("unexpected payload: %+v", data)
		}
	})

	t.Run("should require a reference", func(t *testing.T) {
		s := newTestServer(nil, nil, nil)
		req := authed(t, s, httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", strings.NewReader(`{}`)), "user-1")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("should return 404 when the gateway knows nothing locally", func(t *testing.T) {
		uc := &MockPaymentUC{
			VerifyFunc: func(ctx context.Context, reference string) (*model.Payment, error) {
				return nil, nil // reconcile tolerated an unknown reference
			},
		}
		s := newTestServer(uc, nil, nil)
		req := authed(t, s, httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", strings.NewReader(`{"reference":"WC_9_ZZZZZZ"}`)), "user-1")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestGetPaymentHandler(t *testing.T) {
	t.Run("should fetch a payment by reference", func(t *testing.T) {
		s := newTestServer(nil, nil, nil)
		req := authed(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/payments/WC_1_ABCDEF", nil), "user-1")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		data := decodeEnvelope(t, rec).Data.(map[string]any)
		if data["reference"] != "WC_1_ABCDEF" {
			t.Errorf("unexpected payload: %+v", data)
		}
	})

	t.Run("should return 404 for an unknown reference", func(t *testing.T) {
		uc := &MockPaymentUC{
			GetFunc: func(ctx context.Context, reference string) (*model.Payment, error) {
				return nil, domain.ErrNotFound
			},
		}
		s := newTestServer(uc, nil, nil)
		req := authed(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/payments/WC_9_ZZZZZZ", nil), "user-1")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestStatsHandler(t *testing.T) {
	t.Run("should report revenue per period", func(t *testing.T) {
		s := newTestServer(nil, nil, nil)
		req := authed(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil), "admin-1")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		data := decodeEnvelope(t, rec).Data.(map[string]any)
		rev := data["revenue"].(map[string]any)
		if rev["week"].(float64) != 100 || rev["year"].(float64) != 5000 {
			t.Errorf("unexpected revenue: %+v", rev)
		}
	})

	t.Run("should surface repository failures as 500", func(t *testing.T) {
		stats := &MockStatsUC{
			RevenueFunc: func(ctx context.Context) (int64, int64, int64, error) {
				return 0, 0, 0, errBoom
			},
		}
		s := newTestServer(nil, stats, nil)
		req := authed(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil), "admin-1")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
	})
}

func TestListWebhookLogsHandler(t *testing.T) {
	logs := &MockWebhookLogRepo{}
	entry := model.NewWebhookLog("WC_1_ABCDEF", "payment.completed", []byte(`{"event":"payment.completed"}`), model.WebhookLogProcessed, nil)
	_ = logs.Append(context.Background(), nil, entry)

	s := newTestServer(nil, nil, logs)
	req := authed(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/webhooks/WC_1_ABCDEF", nil), "admin-1")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := decodeEnvelope(t, rec).Data.(map[string]any)
	rows := data["data"].([]any)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0].(map[string]any)
	if row["status"] != "processed" || row["reference"] != "WC_1_ABCDEF" {
		t.Errorf("unexpected row: %+v", row)
	}
}

func TestTraceMiddleware(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("a trace id must be assigned and echoed")
	}
}

// Guard against the context helpers drifting apart from the middleware.
func TestUserIDRoundTrip(t *testing.T) {
	ctx := logging.WithUserID(context.Background(), "user-7")
	if got := logging.UserID(ctx); got != "user-7" {
		t.Fatalf("UserID(ctx) = %q", got)
	}
}

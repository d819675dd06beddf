package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"wathaci-connect/internal/domain"
	"wathaci-connect/internal/domain/model"
	"wathaci-connect/internal/domain/ports/adapter"
	"wathaci-connect/internal/domain/ports/repository"
	"wathaci-connect/internal/infra/logging"
	"wathaci-connect/internal/usecase"
)

type initializeRequest struct {
	Amount        int64          `json:"amount"`
	PaymentMethod string         `json:"payment_method"`
	PhoneNumber   string         `json:"phone_number"`
	Provider      string         `json:"provider"`
	Description   string         `json:"description"`
	Email         string         `json:"email"`
	Name          string         `json:"name"`
	Metadata      map[string]any `json:"metadata"`
}

type initializeResponse struct {
	Reference  string `json:"reference"`
	PaymentURL string `json:"payment_url"`
	AccessCode string `json:"access_code"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	out, err := s.paymentUC.Initialize(ctx, logging.UserID(ctx), usecase.InitializeInput{
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		PhoneNumber:   req.PhoneNumber,
		Provider:      req.Provider,
		Description:   req.Description,
		Email:         req.Email,
		Name:          req.Name,
		Metadata:      req.Metadata,
	})
	if err != nil {
		s.writeUseCaseError(w, r, err, "initialize payment failed")
		return
	}

	writeJSON(w, http.StatusCreated, initializeResponse{
		Reference:  out.Reference,
		PaymentURL: out.PaymentURL,
		AccessCode: out.AccessCode,
		Amount:     out.Amount,
		Currency:   out.Currency,
	})
}

type verifyRequest struct {
	Reference string `json:"reference"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reference == "" {
		writeError(w, http.StatusBadRequest, "Payment reference is required")
		return
	}
	ctx = logging.WithReference(ctx, req.Reference)

	p, err := s.paymentUC.Verify(ctx, req.Reference)
	if err != nil {
		s.writeUseCaseError(w, r, err, "verify payment failed")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Payment not found")
		return
	}
	writeJSON(w, http.StatusOK, paymentView(p))
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reference := chi.URLParam(r, "reference")
	if reference == "" {
		writeError(w, http.StatusBadRequest, "Payment reference is required")
		return
	}

	p, err := s.paymentUC.Get(ctx, reference)
	if err != nil {
		s.writeUseCaseError(w, r, err, "get payment failed")
		return
	}
	writeJSON(w, http.StatusOK, paymentView(p))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	week, month, year, err := s.statsUC.Revenue(r.Context())
	if err != nil {
		s.writeUseCaseError(w, r, err, "revenue stats failed")
		return
	}

	response := struct {
		Revenue struct {
			Week  int64 `json:"week"`
			Month int64 `json:"month"`
			Year  int64 `json:"year"`
		} `json:"revenue"`
		Currency string `json:"currency"`
	}{}
	response.Revenue.Week = week
	response.Revenue.Month = month
	response.Revenue.Year = year
	response.Currency = "ZMW"

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleListWebhookLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reference := chi.URLParam(r, "reference")
	logs, err := s.webhookLogs.ListByReference(ctx, repository.NoTX, reference, 100)
	if err != nil {
		s.writeUseCaseError(w, r, err, "list webhook logs failed")
		return
	}

	views := make([]webhookLogView, 0, len(logs))
	for _, l := range logs {
		views = append(views, webhookLogView{
			ID:         l.ID,
			Reference:  l.Reference,
			Event:      l.Event,
			Payload:    l.Payload,
			Status:     string(l.Status),
			Error:      l.Error,
			ReceivedAt: l.ReceivedAt,
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Data []webhookLogView `json:"data"`
	}{Data: views})
}

type webhookLogView struct {
	ID         string          `json:"id"`
	Reference  string          `json:"reference"`
	Event      string          `json:"event"`
	Payload    json.RawMessage `json:"payload"`
	Status     string          `json:"status"`
	Error      *string         `json:"error,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
}

type paymentBody struct {
	Reference             string         `json:"reference"`
	Amount                int64          `json:"amount"`
	Currency              string         `json:"currency"`
	Status                string         `json:"status"`
	PaymentMethod         string         `json:"payment_method,omitempty"`
	Provider              string         `json:"provider,omitempty"`
	Email                 string         `json:"email,omitempty"`
	Name                  string         `json:"name,omitempty"`
	Description           string         `json:"description,omitempty"`
	Metadata              map[string]any `json:"metadata,omitempty"`
	AuthorizationURL      string         `json:"authorization_url,omitempty"`
	ProviderTransactionID *string        `json:"provider_transaction_id,omitempty"`
	PaidAt                *time.Time     `json:"paid_at,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// paymentView is the client-facing shape of a payment row.
func paymentView(p *model.Payment) paymentBody {
	return paymentBody{
		Reference:             p.Reference,
		Amount:                p.Amount,
		Currency:              p.Currency,
		Status:                string(p.Status),
		PaymentMethod:         p.PaymentMethod,
		Provider:              p.Provider,
		Email:                 p.Email,
		Name:                  p.Name,
		Description:           p.Description,
		Metadata:              p.Meta,
		AuthorizationURL:      p.AuthorizationURL,
		ProviderTransactionID: p.ProviderTransactionID,
		PaidAt:                p.PaidAt,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

// writeUseCaseError maps domain sentinels onto HTTP statuses: validation
// failures are the client's fault, a missing row is 404, and everything else
// (gateway trouble included) is a 500 with a generic body so provider error
// text never leaks to clients.
func (s *Server) writeUseCaseError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log := logging.With(r.Context(), s.log)

	var gwErr *adapter.GatewayError
	switch {
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Payment not found")
	case errors.Is(err, adapter.ErrGatewayTimeout):
		log.Error().Err(err).Msg(msg)
		writeError(w, http.StatusGatewayTimeout, "Payment gateway timed out")
	case errors.As(err, &gwErr):
		log.Error().Err(err).Int("gateway_status", gwErr.StatusCode).Msg(msg)
		writeError(w, http.StatusInternalServerError, "Payment gateway error")
	default:
		log.Error().Err(err).Msg(msg)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

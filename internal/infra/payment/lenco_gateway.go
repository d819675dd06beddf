package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"wathaci-connect/internal/domain/ports/adapter"
)

const defaultGatewayTimeout = 10 * time.Second

// LencoGateway implements adapter.PaymentGateway using direct HTTP calls to
// the Lenco collections API. The secret key is attached as a bearer
// credential on every call.
type LencoGateway struct {
	baseURL     string
	secretKey   string
	callbackURL string
	client      *http.Client
}

// NewLencoGateway creates the direct gateway client. A zero timeout falls
// back to 10s so no gateway call can hang a handler indefinitely.
func NewLencoGateway(baseURL, secretKey, callbackURL string, timeout time.Duration) (*LencoGateway, error) {
	if baseURL == "" || secretKey == "" {
		return nil, errors.New("gateway base URL and secret key are required")
	}
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	return &LencoGateway{
		baseURL:     baseURL,
		secretKey:   secretKey,
		callbackURL: callbackURL,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

func (g *LencoGateway) Name() string { return "lenco" }

// lencoEnvelope is the common response wrapper of the collections API.
type lencoEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type lencoInitializeData struct {
	Reference        string `json:"reference"`
	AccessCode       string `json:"access_code"`
	AuthorizationURL string `json:"authorization_url"`
}

type lencoVerifyData struct {
	ID              string         `json:"id"`
	Reference       string         `json:"reference"`
	Status          string         `json:"status"`
	Amount          int64          `json:"amount"`
	Currency        string         `json:"currency"`
	GatewayResponse string         `json:"gateway_response"`
	PaidAt          *time.Time     `json:"paid_at"`
	Metadata        map[string]any `json:"metadata"`
}

// Initialize implements adapter.PaymentGateway.Initialize.
func (g *LencoGateway) Initialize(ctx context.Context, req adapter.InitializeRequest) (*adapter.InitializeResult, error) {
	body := map[string]any{
		"reference":    req.Reference,
		"amount":       req.Amount,
		"currency":     req.Currency,
		"email":        req.Email,
		"name":         req.Name,
		"description":  req.Description,
		"callback_url": g.callbackURL,
	}
	if req.PaymentMethod != "" {
		body["payment_method"] = req.PaymentMethod
	}
	if req.Phone != "" {
		body["phone"] = req.Phone
	}
	if req.Provider != "" {
		body["provider"] = req.Provider
	}
	if req.Metadata != nil {
		body["metadata"] = req.Metadata
	}

	env, err := g.do(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}

	var data lencoInitializeData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &adapter.GatewayError{StatusCode: http.StatusOK, Message: "malformed initialize response"}
	}
	return &adapter.InitializeResult{
		AccessCode:        data.AccessCode,
		AuthorizationURL:  data.AuthorizationURL,
		ProviderReference: data.Reference,
	}, nil
}

// Verify implements adapter.PaymentGateway.Verify.
func (g *LencoGateway) Verify(ctx context.Context, reference string) (*adapter.VerifyResult, error) {
	env, err := g.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}

	var data lencoVerifyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &adapter.GatewayError{StatusCode: http.StatusOK, Message: "malformed verify response"}
	}
	return &adapter.VerifyResult{
		Status:                data.Status,
		Amount:                data.Amount,
		Currency:              data.Currency,
		ProviderTransactionID: data.ID,
		GatewayResponse:       data.GatewayResponse,
		PaidAt:                data.PaidAt,
		Metadata:              data.Metadata,
	}, nil
}

func (g *LencoGateway) do(ctx context.Context, method, path string, body map[string]any) (*lencoEnvelope, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request data: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, adapter.ErrGatewayTimeout
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, adapter.ErrGatewayTimeout
		}
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var env lencoEnvelope
	parseErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := ""
		if parseErr == nil {
			msg = env.Message
		}
		return nil, &adapter.GatewayError{StatusCode: resp.StatusCode, Message: msg}
	}
	if parseErr != nil {
		return nil, &adapter.GatewayError{StatusCode: resp.StatusCode, Message: "malformed gateway response"}
	}
	if !env.Status {
		return nil, &adapter.GatewayError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return &env, nil
}

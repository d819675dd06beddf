package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrGatewayTimeout distinguishes a gateway call that hit its deadline from a
// gateway that answered with an error.
var ErrGatewayTimeout = errors.New("payment gateway timed out")

// GatewayError carries the provider's own message when the gateway answered
// with a non-2xx status or an unparseable body.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gateway error (status %d)", e.StatusCode)
}

// InitializeRequest is what we send the provider to open a checkout session.
// Amount is in minor units — the gateway contract, not ours.
type InitializeRequest struct {
	Reference     string
	Amount        int64
	Currency      string
	Email         string
	Name          string
	PaymentMethod string
	Phone         string
	Provider      string
	Description   string
	CallbackURL   string
	Metadata      map[string]any
}

type InitializeResult struct {
	AccessCode        string
	AuthorizationURL  string
	ProviderReference string
}

// VerifyResult is the provider's view of a transaction. Status is the raw
// gateway vocabulary; mapping into ours happens in the domain layer.
type VerifyResult struct {
	Status                string
	Amount                int64 // minor units
	Currency              string
	ProviderTransactionID string
	GatewayResponse       string
	PaidAt                *time.Time
	Metadata              map[string]any
}

// PaymentGateway is the hex port for the external payment provider. Both
// operations are synchronous HTTP calls; no retries are performed here —
// callers decide whether a failed initialize is worth retrying.
type PaymentGateway interface {
	Name() string
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

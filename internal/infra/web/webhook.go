package web

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"wathaci-connect/internal/domain/model"
	"wathaci-connect/internal/domain/ports/repository"
	"wathaci-connect/internal/infra/logging"
	"wathaci-connect/internal/infra/metrics"
	"wathaci-connect/internal/infra/payment"
	"wathaci-connect/internal/usecase"
)

// maxWebhookBody caps the raw delivery we are willing to buffer.
const maxWebhookBody = 1 << 20

// webhookEnvelope is the gateway's delivery shape. Unknown fields are
// tolerated; only the reference and status drive reconciliation.
type webhookEnvelope struct {
	Event string `json:"event"`
	Data  struct {
		ID              string         `json:"id"`
		Reference       string         `json:"reference"`
		Amount          int64          `json:"amount"` // minor units
		Currency        string         `json:"currency"`
		Status          string         `json:"status"`
		GatewayResponse string         `json:"gateway_response"`
		PaidAt          *time.Time     `json:"paid_at"`
		Customer        map[string]any `json:"customer"`
		Metadata        map[string]any `json:"metadata"`
	} `json:"data"`
	CreatedAt *time.Time `json:"created_at"`
}

// handleWebhook is deliberately strict about ordering: the signature is
// checked against the raw bytes before any parsing, and nothing unverified
// ever reaches the database — a delivery that fails authentication leaves no
// trace beyond a metric. Once authenticated, every delivery is appended to
// the webhook log whether or not reconciliation succeeded, and the gateway
// gets a 200 so it stops retrying; the reconciler sweep covers anything the
// handler could not apply.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	result := "failed"
	defer func() {
		metrics.WebhookDuration.WithLabelValues(result).Observe(time.Since(started).Seconds())
	}()

	log := logging.With(r.Context(), s.log)

	if s.gatewayCfg.WebhookSecret == "" {
		// Refuse rather than accept unauthenticated deliveries.
		log.Error().Msg("webhook secret not configured; rejecting delivery")
		result = "rejected"
		metrics.WebhookEvents.WithLabelValues("rejected", "missing_secret").Inc()
		writeError(w, http.StatusInternalServerError, "Webhook not configured")
		return
	}

	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		result = "rejected"
		metrics.WebhookEvents.WithLabelValues("rejected", "unknown").Inc()
		writeError(w, http.StatusBadRequest, "Unreadable body")
		return
	}

	signature := r.Header.Get(s.gatewayCfg.SignatureHeader)
	if !payment.VerifyWebhookSignature(rawBody, signature, s.gatewayCfg.WebhookSecret) {
		// Unauthenticated bytes: no log row, no detail in the response.
		result = "rejected"
		metrics.WebhookEvents.WithLabelValues("rejected", "bad_signature").Inc()
		writeError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var env webhookEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil || env.Data.Reference == "" {
		result = "rejected"
		metrics.WebhookEvents.WithLabelValues("rejected", "bad_json").Inc()
		writeError(w, http.StatusBadRequest, "Malformed payload")
		return
	}

	ctx := logging.WithReference(r.Context(), env.Data.Reference)

	_, _, procErr := s.paymentUC.Reconcile(ctx, usecase.ReconcileInput{
		Reference:             env.Data.Reference,
		GatewayStatus:         env.Data.Status,
		ProviderTransactionID: env.Data.ID,
		GatewayResponse:       env.Data.GatewayResponse,
		PaidAt:                env.Data.PaidAt,
		Metadata:              env.Data.Metadata,
		Source:                "webhook",
	})

	logStatus := model.WebhookLogProcessed
	if procErr != nil {
		logStatus = model.WebhookLogFailed
		log.Error().Err(procErr).Str("event", env.Event).Msg("webhook reconciliation failed")
		metrics.WebhookEvents.WithLabelValues("failed", "reconcile_error").Inc()
	} else {
		result = "processed"
		metrics.WebhookEvents.WithLabelValues("processed", "").Inc()
	}

	entry := model.NewWebhookLog(env.Data.Reference, env.Event, rawBody, logStatus, procErr)
	if err := s.webhookLogs.Append(ctx, repository.NoTX, entry); err != nil {
		// The payment transition (if any) already committed; losing the audit
		// row is logged but must not trigger a gateway retry.
		log.Error().Err(err).Msg("webhook log append failed")
	}

	// Always ACK an authenticated, well-formed delivery.
	writeJSON(w, http.StatusOK, struct {
		Received bool `json:"received"`
	}{Received: true})
}

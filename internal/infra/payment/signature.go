package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// VerifyWebhookSignature checks an inbound webhook signature against the raw
// body. The header is a comma-separated list of `key=value` or bare tokens;
// every token contributes both its raw form and the portion after the first
// '=' as candidates. The expected HMAC-SHA256 digest is rendered as lowercase
// hex and as standard base64 — webhook senders do not standardize on one
// encoding, and silently dropping a valid payment confirmation is the worse
// failure mode.
//
// Fails closed: empty secret, empty header, or zero candidates all return
// false. Must be called on the untouched byte stream, before any JSON parse.
func VerifyWebhookSignature(rawBody []byte, signatureHeader, secret string) bool {
	if secret == "" || strings.TrimSpace(signatureHeader) == "" {
		return false
	}

	candidates := extractCandidates(signatureHeader)
	if len(candidates) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	sum := mac.Sum(nil)

	hexSig := hex.EncodeToString(sum)
	b64Sig := base64.StdEncoding.EncodeToString(sum)

	for _, c := range candidates {
		if constantTimeEqual(c, hexSig) || constantTimeEqual(c, b64Sig) {
			return true
		}
	}
	return false
}

func extractCandidates(header string) []string {
	var out []string
	for _, tok := range strings.Split(header, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		out = append(out, tok)
		// key=value form; the raw token stays a candidate too, because a
		// bare base64 signature may itself contain '=' padding.
		if idx := strings.Index(tok, "="); idx >= 0 && idx+1 < len(tok) {
			out = append(out, tok[idx+1:])
		}
	}
	return out
}

// constantTimeEqual compares in constant time, enforcing equal length first
// so comparison time does not leak the expected signature length.
func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return hmac.Equal([]byte(a), []byte(b))
}

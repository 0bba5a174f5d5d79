package verify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
)

// EventSub webhook headers set by Twitch.
const (
	HeaderMessageID        = "Twitch-Eventsub-Message-Id"
	HeaderMessageTimestamp = "Twitch-Eventsub-Message-Timestamp"
	HeaderMessageSignature = "Twitch-Eventsub-Message-Signature"
	HeaderMessageType      = "Twitch-Eventsub-Message-Type"
)

const signaturePrefix = "sha256="

// SignatureVerifier validates inbound EventSub webhook HMACs.
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier creates a verifier keyed with the shared EventSub secret.
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Verify checks the HMAC of an EventSub message. The signed payload is
// messageID || timestamp || body with no separators. Returns false on any
// missing header or mismatch; callers must not distinguish the causes.
func (v *SignatureVerifier) Verify(headers http.Header, body []byte) bool {
	messageID := headers.Get(HeaderMessageID)
	timestamp := headers.Get(HeaderMessageTimestamp)
	signature := headers.Get(HeaderMessageSignature)

	if messageID == "" || timestamp == "" || signature == "" {
		slog.Debug("eventsub message is missing signature headers")
		return false
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(messageID))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	expected := signaturePrefix + hex.EncodeToString(mac.Sum(nil))

	// Constant-time comparison; both values are fixed-length hex digests.
	return hmac.Equal([]byte(expected), []byte(signature))
}

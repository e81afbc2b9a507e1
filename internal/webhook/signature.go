// Package webhook verifies and decodes payment provider callbacks.
//
// Deliveries follow the Standard Webhooks scheme used by PortOne: the
// signature is an HMAC-SHA256 over "<webhook-id>.<webhook-timestamp>.<body>"
// sent as one or more space separated "v1,<base64>" entries.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderID        = "Webhook-Id"
	HeaderTimestamp = "Webhook-Timestamp"
	HeaderSignature = "Webhook-Signature"

	secretPrefix     = "whsec_"
	signatureVersion = "v1"
)

var (
	ErrMissingSecret    = errors.New("webhook secret not configured")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

type Verifier struct {
	key       []byte
	tolerance time.Duration
	now       func() time.Time
}

func NewVerifier(secret string, tolerance time.Duration) (*Verifier, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return nil, err
	}
	return &Verifier{key: key, tolerance: tolerance, now: time.Now}, nil
}

// Verify checks the signature over the exact bytes received. It must run
// before the body is parsed.
func (v *Verifier) Verify(payload []byte, headers http.Header) error {
	id := headers.Get(HeaderID)
	tsRaw := headers.Get(HeaderTimestamp)
	sigHeader := headers.Get(HeaderSignature)
	if id == "" || tsRaw == "" || sigHeader == "" {
		return ErrInvalidSignature
	}

	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	if v.tolerance > 0 {
		skew := v.now().Sub(time.Unix(ts, 0))
		if skew > v.tolerance || skew < -v.tolerance {
			return ErrInvalidSignature
		}
	}

	expected := computeMAC(v.key, id, tsRaw, payload)
	for _, part := range strings.Fields(sigHeader) {
		version, sig, ok := strings.Cut(part, ",")
		if !ok || version != signatureVersion {
			continue
		}
		got, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(got, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// Sign produces the headers a provider would send for payload.
func Sign(secret, id string, ts time.Time, payload []byte) (http.Header, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return nil, err
	}
	tsRaw := strconv.FormatInt(ts.Unix(), 10)
	mac := computeMAC(key, id, tsRaw, payload)

	h := http.Header{}
	h.Set(HeaderID, id)
	h.Set(HeaderTimestamp, tsRaw)
	h.Set(HeaderSignature, signatureVersion+","+base64.StdEncoding.EncodeToString(mac))
	return h, nil
}

func computeMAC(key []byte, id, ts string, payload []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id))
	mac.Write([]byte{'.'})
	mac.Write([]byte(ts))
	mac.Write([]byte{'.'})
	mac.Write(payload)
	return mac.Sum(nil)
}

// decodeSecret accepts "whsec_<base64>", bare base64, or a raw string.
func decodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	trimmed := strings.TrimPrefix(secret, secretPrefix)
	if key, err := base64.StdEncoding.DecodeString(trimmed); err == nil && len(key) > 0 {
		return key, nil
	}
	return []byte(secret), nil
}

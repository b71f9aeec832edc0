package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"hotelbook/internal/app/policies"
	"hotelbook/internal/domain/shared/apperr"
)

var (
	ErrSignatureMismatch = apperr.New(apperr.KindSignatureMismatch, "payments: signature mismatch")
	ErrSecretRequired    = errors.New("payments: signing secret is required")
)

// HMACVerifier checks hex(HMAC-SHA256(secret, orderID|paymentID)), the proof
// gateways attach to a completed checkout.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}
	return &HMACVerifier{secret: []byte(secret)}, nil
}

func (v *HMACVerifier) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (v *HMACVerifier) Verify(orderID, paymentID, signature string) error {
	want := v.Sign(orderID, paymentID)
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}

var _ policies.SignatureVerifier = (*HMACVerifier)(nil)

package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_test"

func signedHeader(secret string, ts time.Time, body []byte) string {
	t := fmt.Sprintf("%d", ts.Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(t))
	mac.Write([]byte("."))
	mac.Write(body)
	return "t=" + t + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignatureValid(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"evt_1","type":"subscription.created"}`)

	header := signedHeader(webhookSecret, now, body)
	require.NoError(t, VerifySignature(webhookSecret, header, body, now))

	// Still valid just inside the tolerance window, both directions.
	assert.NoError(t, VerifySignature(webhookSecret, header, body, now.Add(4*time.Minute)))
	assert.NoError(t, VerifySignature(webhookSecret, header, body, now.Add(-4*time.Minute)))
}

func TestVerifySignatureRejectsBadSignature(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"evt_1"}`)

	header := signedHeader("wrong-secret", now, body)
	assert.ErrorIs(t, VerifySignature(webhookSecret, header, body, now), ErrBadSignature)

	header = signedHeader(webhookSecret, now, body)
	assert.ErrorIs(t, VerifySignature(webhookSecret, header, []byte(`{"id":"evt_2"}`), now), ErrBadSignature)
}

func TestVerifySignatureRejectsStaleTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"evt_1"}`)
	header := signedHeader(webhookSecret, now, body)

	assert.ErrorIs(t, VerifySignature(webhookSecret, header, body, now.Add(6*time.Minute)), ErrStaleTimestamp)
	assert.ErrorIs(t, VerifySignature(webhookSecret, header, body, now.Add(-6*time.Minute)), ErrStaleTimestamp)
}

func TestVerifySignatureRejectsMalformedHeader(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	body := []byte(`{}`)

	for _, header := range []string{
		"",
		"t=123,v1=",
		"v1=deadbeef",
		"t=notanumber,v1=deadbeef",
		fmt.Sprintf("t=%d,v1=zzzz", now.Unix()),
	} {
		err := VerifySignature(webhookSecret, header, body, now)
		assert.ErrorIs(t, err, ErrBadSignature, "header %q", header)
	}
}

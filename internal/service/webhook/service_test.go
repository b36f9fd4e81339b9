package webhook

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningSecret = "whsec_test_secret"

// signedHeader builds the provider's signature header over payload, the same
// scheme ConstructEvent verifies.
func signedHeader(t *testing.T, payload []byte, at time.Time, secret string) string {
	t.Helper()

	sig := webhook.ComputeSignature(at, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}

func newTestService(secret string) *Service {
	// No store, cache, or provider: these tests exercise the verification
	// boundary, which must reject or no-op before any of them is touched.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(nil, nil, nil, nil, nil, logger, Config{SigningSecret: secret})
}

func TestProcessRejectsWithoutSigningSecret(t *testing.T) {
	s := newTestService("")

	err := s.Process(context.Background(), []byte(`{}`), "t=1,v1=deadbeef")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestProcessRejectsBadSignature(t *testing.T) {
	s := newTestService(testSigningSecret)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

	t.Run("garbage header", func(t *testing.T) {
		err := s.Process(context.Background(), payload, "not-a-signature")
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("wrong secret", func(t *testing.T) {
		header := signedHeader(t, payload, time.Now(), "whsec_other")
		err := s.Process(context.Background(), payload, header)
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("tampered payload", func(t *testing.T) {
		header := signedHeader(t, payload, time.Now(), testSigningSecret)
		tampered := []byte(`{"id":"evt_1","type":"account.updated"}`)
		err := s.Process(context.Background(), tampered, header)
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		header := signedHeader(t, payload, time.Now().Add(-time.Hour), testSigningSecret)
		err := s.Process(context.Background(), payload, header)
		assert.ErrorIs(t, err, ErrBadSignature)
	})
}

func TestProcessIgnoresUnhandledEventTypes(t *testing.T) {
	s := newTestService(testSigningSecret)

	// A valid signature over an event type outside the reconciler's set is
	// acknowledged without touching any dependency.
	payload := []byte(`{"id":"evt_2","api_version":"2024-06-20","type":"payment_intent.succeeded","data":{"object":{}}}`)
	header := signedHeader(t, payload, time.Now(), testSigningSecret)

	err := s.Process(context.Background(), payload, header)
	assert.NoError(t, err)
}

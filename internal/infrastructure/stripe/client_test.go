package stripe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-club/internal/application/ports"
)

const webhookSecret = "whsec_pruebas"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "sk_test_123", WebhookSecret: webhookSecret, APIBase: srv.URL})
}

// ─── API ──────────────────────────────────────────────────────────────────────

func TestCreateIntent_EnviaFormularioYIdempotencyKey(t *testing.T) {
	var (
		gotForm url.Values
		gotKey  string
		gotAuth string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		gotForm, _ = url.ParseQuery(string(body))
		gotKey = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret","status":"requires_payment_method","amount":7500000,"currency":"cop","metadata":{"pagoId":"p1"}}`))
	})

	out, err := c.CreateIntent(context.Background(), ports.CreateIntentInput{
		Amount: 7500000, Currency: "COP", IdempotencyKey: "pago-abc",
		Metadata: map[string]string{"pagoId": "p1", "ordenId": "o1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", out.ID)
	assert.Equal(t, "pi_1_secret", out.ClientSecret)
	assert.Equal(t, "p1", out.Metadata["pagoId"])

	assert.Equal(t, "7500000", gotForm.Get("amount"))
	assert.Equal(t, "cop", gotForm.Get("currency"))
	assert.Equal(t, "o1", gotForm.Get("metadata[ordenId]"))
	assert.Equal(t, "pago-abc", gotKey)
	assert.Equal(t, "Bearer sk_test_123", gotAuth)
}

func TestCreateIntent_ErrorDelProveedor(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	})

	_, err := c.CreateIntent(context.Background(), ports.CreateIntentInput{Amount: 100, Currency: "cop"})
	var perr *ports.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusPaymentRequired, perr.HTTPStatus)
	assert.Equal(t, "card_declined", perr.Code)
	assert.Equal(t, "Your card was declined.", perr.Message)
}

func TestCreateRefund_MotivoLibreVaEnMetadata(t *testing.T) {
	var gotForm url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refunds", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		gotForm, _ = url.ParseQuery(string(body))
		_, _ = w.Write([]byte(`{"id":"re_1","amount":5000,"status":"succeeded"}`))
	})

	out, err := c.CreateRefund(context.Background(), "pi_1", 5000, "talla agotada")
	require.NoError(t, err)
	assert.Equal(t, "re_1", out.ID)
	assert.Equal(t, "pi_1", gotForm.Get("payment_intent"))
	assert.Equal(t, "5000", gotForm.Get("amount"))
	assert.Empty(t, gotForm.Get("reason"))
	assert.Equal(t, "talla agotada", gotForm.Get("metadata[motivo]"))
}

func TestRetrieveIntent_TraduceUltimoError(t *testing.T) {
	var gotMethod string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/pi_1", r.URL.Path)
		gotMethod = r.Method
		_, _ = w.Write([]byte(`{"id":"pi_1","status":"requires_payment_method","amount":100,"currency":"cop",
			"last_payment_error":{"type":"card_error","code":"insufficient_funds","message":"Fondos insuficientes"}}`))
	})

	out, err := c.RetrieveIntent(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "requires_payment_method", out.Status)
	assert.Equal(t, "cop", out.Currency)
	assert.Equal(t, "insufficient_funds", out.LastErrorCode)
	assert.Equal(t, "Fondos insuficientes", out.LastErrorMessage)
}

func TestClient_SinAPIKey(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.RetrieveIntent(context.Background(), "pi_1")
	assert.Error(t, err)

	_, err = c.ConstructEvent([]byte(`{}`), "t=1,v1=00")
	assert.Error(t, err)
}

// ─── Webhook ──────────────────────────────────────────────────────────────────

func TestConstructEvent_FirmaValidaYNormalizacion(t *testing.T) {
	c := NewClient(Config{WebhookSecret: webhookSecret})
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","created":1700000000,
		"data":{"object":{"id":"cs_1","object":"checkout.session","payment_status":"paid","status":"complete",
		"payment_intent":"pi_9","metadata":{"pagoId":"p1"}}}}`)

	evt, err := c.ConstructEvent(payload, SignatureHeader(webhookSecret, time.Now(), payload))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", evt.ID)
	assert.Equal(t, "pi_9", evt.Object.PaymentIntentID)
	assert.Equal(t, "paid", evt.Object.Status)
	assert.Equal(t, "p1", evt.Object.Metadata["pagoId"])
}

func TestConstructEvent_ChargeConReembolso(t *testing.T) {
	c := NewClient(Config{WebhookSecret: webhookSecret})
	payload := []byte(`{"id":"evt_2","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge",
		"payment_intent":{"id":"pi_7"},"amount_refunded":2500,"refunds":{"data":[{"id":"re_3","reason":"duplicate"}]}}}}`)

	evt, err := c.ConstructEvent(payload, SignatureHeader(webhookSecret, time.Now(), payload))
	require.NoError(t, err)
	assert.Equal(t, "pi_7", evt.Object.PaymentIntentID)
	assert.Equal(t, int64(2500), evt.Object.AmountRefunded)
	assert.Equal(t, "re_3", evt.Object.RefundID)
	assert.Equal(t, "duplicate", evt.Object.RefundReason)
}

func TestConstructEvent_Rechazos(t *testing.T) {
	c := NewClient(Config{WebhookSecret: webhookSecret})
	payload := []byte(`{"id":"evt_3","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","object":"payment_intent"}}}`)

	_, err := c.ConstructEvent(payload, "")
	assert.ErrorIs(t, err, ErrMissingSignature)

	_, err = c.ConstructEvent(payload, SignatureHeader("otro_secreto", time.Now(), payload))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = c.ConstructEvent(payload, SignatureHeader(webhookSecret, time.Now().Add(-time.Hour), payload))
	assert.ErrorIs(t, err, ErrTimestampExpired)

	tampered := append([]byte{}, payload...)
	tampered[10] = 'X'
	_, err = c.ConstructEvent(tampered, SignatureHeader(webhookSecret, time.Now(), payload))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

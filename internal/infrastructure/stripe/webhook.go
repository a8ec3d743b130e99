package stripe

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/jhoicas/tienda-club/internal/application/ports"
)

// Errores de verificación del header Stripe-Signature.
var (
	ErrMissingSignature = errors.New("stripe: firma ausente o mal formada")
	ErrInvalidSignature = errors.New("stripe: la firma no coincide")
	ErrTimestampExpired = errors.New("stripe: firma fuera de la tolerancia")
)

// apiObject une los campos que interesan de payment_intent, checkout.session y charge.
type apiObject struct {
	ID               string            `json:"id"`
	Object           string            `json:"object"`
	Status           string            `json:"status"`
	PaymentStatus    string            `json:"payment_status"`
	PaymentIntent    json.RawMessage   `json:"payment_intent"`
	Metadata         map[string]string `json:"metadata"`
	AmountRefunded   int64             `json:"amount_refunded"`
	FailureCode      string            `json:"failure_code"`
	FailureMessage   string            `json:"failure_message"`
	LastPaymentError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_payment_error"`
	Refunds *struct {
		Data []struct {
			ID     string `json:"id"`
			Reason string `json:"reason"`
		} `json:"data"`
	} `json:"refunds"`
}

// ConstructEvent verifica el header Stripe-Signature ("t=<unix>,v1=<hex>") sobre el cuerpo crudo
// y decodifica el evento normalizando el objeto. La versión de API del evento no se compara con
// la del SDK: solo se leen campos estables del objeto.
func (c *Client) ConstructEvent(payload []byte, signature string) (*ports.ProviderEvent, error) {
	if c.cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("stripe: STRIPE_WEBHOOK_SECRET no configurado")
	}
	evt, err := webhook.ConstructEventWithOptions(payload, signature, c.cfg.WebhookSecret, webhook.ConstructEventOptions{
		Tolerance:                c.cfg.WebhookTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, verifyError(err)
	}
	if evt.ID == "" || evt.Type == "" {
		return nil, fmt.Errorf("stripe: evento sin id o tipo")
	}

	var obj apiObject
	if evt.Data != nil && len(evt.Data.Raw) > 0 {
		if err := json.Unmarshal(evt.Data.Raw, &obj); err != nil {
			return nil, fmt.Errorf("stripe: objeto del evento mal formado: %w", err)
		}
	}
	return &ports.ProviderEvent{
		ID:      evt.ID,
		Type:    string(evt.Type),
		Created: evt.Created,
		Object:  normalize(obj),
	}, nil
}

func verifyError(err error) error {
	switch {
	case errors.Is(err, webhook.ErrNotSigned), errors.Is(err, webhook.ErrInvalidHeader):
		return ErrMissingSignature
	case errors.Is(err, webhook.ErrTooOld):
		return ErrTimestampExpired
	case errors.Is(err, webhook.ErrNoValidSignature):
		return ErrInvalidSignature
	}
	return fmt.Errorf("stripe: evento mal formado: %w", err)
}

// SignatureHeader arma un header Stripe-Signature válido (para pruebas y herramientas locales).
func SignatureHeader(secret string, ts time.Time, payload []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(webhook.ComputeSignature(ts, payload, secret)))
}

func normalize(o apiObject) ports.EventObject {
	out := ports.EventObject{
		ID:             o.ID,
		Object:         o.Object,
		Status:         o.Status,
		Metadata:       o.Metadata,
		FailureCode:    o.FailureCode,
		FailureMessage: o.FailureMessage,
		AmountRefunded: o.AmountRefunded,
	}
	switch o.Object {
	case "payment_intent":
		out.PaymentIntentID = o.ID
		if o.LastPaymentError != nil {
			out.FailureCode = o.LastPaymentError.Code
			out.FailureMessage = o.LastPaymentError.Message
		}
	case "checkout.session":
		out.PaymentIntentID = rawID(o.PaymentIntent)
		out.Status = o.PaymentStatus
	default:
		out.PaymentIntentID = rawID(o.PaymentIntent)
	}
	if o.Refunds != nil && len(o.Refunds.Data) > 0 {
		out.RefundID = o.Refunds.Data[0].ID
		out.RefundReason = o.Refunds.Data[0].Reason
	}
	return out
}

// rawID acepta payment_intent como id plano o como objeto expandido.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}

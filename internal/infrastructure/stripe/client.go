package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	stripego "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"

	"github.com/jhoicas/tienda-club/internal/application/ports"
)

// Verificar en tiempo de compilación que Client implementa PaymentProvider.
var _ ports.PaymentProvider = (*Client)(nil)

// Config credenciales y parámetros del adaptador.
type Config struct {
	APIKey           string
	WebhookSecret    string
	APIBase          string        // vacío = api.stripe.com; en tests apunta a httptest
	WebhookTolerance time.Duration // 0 = 5 minutos
	Timeout          time.Duration
	MaxRetries       int64 // reintentos de red del SDK; 0 = ninguno
}

// Client adaptador de PaymentProvider sobre stripe-go. Cada instancia usa su propio backend,
// así la URL base y la API key no dependen del estado global del SDK.
type Client struct {
	cfg     Config
	intents *paymentintent.Client
	refunds *refund.Client
}

// NewClient construye el adaptador. Si APIKey está vacío las llamadas devuelven error descriptivo.
func NewClient(cfg Config) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = stripego.APIURL
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	if cfg.WebhookTolerance <= 0 {
		cfg.WebhookTolerance = 5 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	backend := stripego.GetBackendWithConfig(stripego.APIBackend, &stripego.BackendConfig{
		URL:               stripego.String(cfg.APIBase),
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripego.Int64(cfg.MaxRetries),
		LeveledLogger:     sdkLogger{},
	})
	return &Client{
		cfg:     cfg,
		intents: &paymentintent.Client{B: backend, Key: cfg.APIKey},
		refunds: &refund.Client{B: backend, Key: cfg.APIKey},
	}
}

// CreateIntent crea un PaymentIntent. La idempotency key viaja en el header Idempotency-Key,
// de modo que un reintento con la misma key devuelve el mismo intent.
func (c *Client) CreateIntent(ctx context.Context, in ports.CreateIntentInput) (*ports.PaymentIntent, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(in.Amount),
		Currency: stripego.String(strings.ToLower(in.Currency)),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	if in.Description != "" {
		params.Description = stripego.String(in.Description)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}
	params.Context = ctx

	pi, err := c.intents.New(params)
	if err != nil {
		return nil, providerError(ctx, err)
	}
	return toIntent(pi), nil
}

// RetrieveIntent consulta el estado actual de un intent.
func (c *Client) RetrieveIntent(ctx context.Context, intentID string) (*ports.PaymentIntent, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if intentID == "" {
		return nil, fmt.Errorf("stripe: intent id vacío")
	}
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx

	pi, err := c.intents.Get(intentID, params)
	if err != nil {
		return nil, providerError(ctx, err)
	}
	return toIntent(pi), nil
}

// CreateRefund reembolsa el intent. amount=0 reembolsa el total. Los motivos que Stripe no acepta
// como reason viajan en metadata.
func (c *Client) CreateRefund(ctx context.Context, intentID string, amount int64, reason string) (*ports.Refund, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	params := &stripego.RefundParams{PaymentIntent: stripego.String(intentID)}
	if amount > 0 {
		params.Amount = stripego.Int64(amount)
	}
	switch stripego.RefundReason(reason) {
	case "":
	case stripego.RefundReasonDuplicate, stripego.RefundReasonFraudulent, stripego.RefundReasonRequestedByCustomer:
		params.Reason = stripego.String(reason)
	default:
		params.AddMetadata("motivo", reason)
	}
	params.Context = ctx

	r, err := c.refunds.New(params)
	if err != nil {
		return nil, providerError(ctx, err)
	}
	return &ports.Refund{ID: r.ID, Amount: r.Amount, Status: string(r.Status)}, nil
}

func (c *Client) ready() error {
	if c.cfg.APIKey == "" {
		return fmt.Errorf("stripe: STRIPE_API_KEY no configurado")
	}
	return nil
}

// providerError traduce el error del SDK al diagnóstico del puerto.
func providerError(ctx context.Context, err error) error {
	var serr *stripego.Error
	if errors.As(err, &serr) {
		code := string(serr.Code)
		if code == "" {
			code = string(serr.Type)
		}
		return &ports.ProviderError{HTTPStatus: serr.HTTPStatusCode, Code: code, Message: serr.Msg}
	}
	if ctx.Err() != nil {
		return fmt.Errorf("stripe: timeout o cancelación: %w", ctx.Err())
	}
	return fmt.Errorf("stripe: llamada fallida: %w", err)
}

func toIntent(pi *stripego.PaymentIntent) *ports.PaymentIntent {
	out := &ports.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
	if pi.LastPaymentError != nil {
		out.LastErrorCode = string(pi.LastPaymentError.Code)
		out.LastErrorMessage = pi.LastPaymentError.Msg
	}
	return out
}

// sdkLogger envía el log interno del SDK a zerolog.
type sdkLogger struct{}

func (sdkLogger) Debugf(format string, v ...interface{}) { log.Debug().Str("component", "stripe").Msgf(format, v...) }
func (sdkLogger) Infof(format string, v ...interface{})  { log.Debug().Str("component", "stripe").Msgf(format, v...) }
func (sdkLogger) Warnf(format string, v ...interface{})  { log.Warn().Str("component", "stripe").Msgf(format, v...) }
func (sdkLogger) Errorf(format string, v ...interface{}) { log.Error().Str("component", "stripe").Msgf(format, v...) }

package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas). Funcionan como "tipo" de error:
// la capa HTTP decide el status con errors.Is sobre estas variables.
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrExternalProvider   = errors.New("error del proveedor de pagos")
)

// Códigos de error legibles por máquina.
const (
	CodeValidation          = "VALIDATION"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeForbidden           = "FORBIDDEN"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInsufficientStock   = "STOCK_INSUFICIENTE"
	CodeSizeRequired        = "TALLA_REQUERIDA"
	CodeSizeInvalid         = "TALLA_NO_VALIDA"
	CodeSizeNotAllowed      = "TALLA_NO_PERMITIDA"
	CodeMaxPerItem          = "CANTIDAD_MAXIMA_EXCEDIDA"
	CodeProductInactive     = "PRODUCTO_INACTIVO"
	CodeInvalidTransition   = "TRANSICION_INVALIDA"
	CodeIdempotencyKeyReuse = "IDEMPOTENCY_KEY_REUTILIZADA"
	CodeInvalidSignature    = "FIRMA_INVALIDA"
	CodeProviderError       = "PROVEEDOR_PAGOS"
	CodeLockTimeout         = "OPERACION_EN_CURSO"
)

// Error es un error de dominio etiquetado: Kind es una de las variables Err*,
// Code el código estable que viaja al cliente y Message un texto seguro de mostrar.
type Error struct {
	Kind    error
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Is permite errors.Is(err, domain.ErrConflict) sobre un *Error.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind error, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// NewValidation error de validación de entrada (400).
func NewValidation(code, msg string) *Error { return newError(ErrInvalidInput, code, msg) }

// NewNotFound recurso inexistente (404).
func NewNotFound(msg string) *Error { return newError(ErrNotFound, CodeNotFound, msg) }

// NewConflict choque con el estado actual (409).
func NewConflict(code, msg string) *Error { return newError(ErrConflict, code, msg) }

// NewForbidden el usuario no puede operar sobre el recurso (403).
func NewForbidden(msg string) *Error { return newError(ErrForbidden, CodeForbidden, msg) }

// NewInsufficientStock stock insuficiente (409).
func NewInsufficientStock(msg string) *Error {
	return newError(ErrInsufficientStock, CodeInsufficientStock, msg)
}

// NewExternalProvider envuelve un fallo del proveedor de pagos (502).
func NewExternalProvider(msg string, err error) *Error {
	e := newError(ErrExternalProvider, CodeProviderError, msg)
	e.Err = err
	return e
}

// CodeOf devuelve el código de un *Error, o fallback si err no lo es.
func CodeOf(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) && de.Code != "" {
		return de.Code
	}
	return fallback
}

// MessageOf devuelve el mensaje seguro de un *Error, o fallback.
func MessageOf(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return fallback
}

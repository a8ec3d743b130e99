package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/tienda-club/internal/application/dto"
	"github.com/jhoicas/tienda-club/internal/domain"
)

// ok responde 200 con el sobre {success: true, data}.
func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(dto.APIResponse{Success: true, Data: data})
}

// created responde 201 con el sobre {success: true, data}.
func created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(dto.APIResponse{Success: true, Data: data})
}

// fail responde con el sobre de error.
func fail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   &dto.ErrorResponse{Code: code, Message: message},
	})
}

func badBody(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
}

// statusOf traduce el tipo de error de dominio a status HTTP.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, domain.CodeValidation
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, domain.CodeUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, domain.CodeForbidden
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound, domain.CodeNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, domain.CodeInsufficientStock
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrDuplicate),
		errors.Is(err, domain.ErrEmailAlreadyExists):
		return fiber.StatusConflict, domain.CodeConflict
	case errors.Is(err, domain.ErrExternalProvider):
		return fiber.StatusBadGateway, domain.CodeProviderError
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// respondError responde un error de caso de uso. Los 500 no exponen el detalle interno.
func respondError(c *fiber.Ctx, err error) error {
	status, code := statusOf(err)
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("error interno")
		return fail(c, status, code, "error interno")
	}
	if status == fiber.StatusBadGateway {
		log.Warn().Err(err).Str("path", c.Path()).Msg("fallo del procesador de pagos")
	}
	return fail(c, status, domain.CodeOf(err, code), domain.MessageOf(err, err.Error()))
}

// pageFromQuery lee limit/offset de la query.
func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 0), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	return page
}

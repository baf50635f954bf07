package handlers

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"

	"github.com/IngKendrys/scrap-backend/internal/domain"
	applog "github.com/IngKendrys/scrap-backend/internal/log"
)

const msgInternal = "Ocurrió un error. Inténtelo de nuevo."

// fail writes err as a JSON error response. Unknown errors are logged and
// reported with a generic message only.
func fail(c *fiber.Ctx, err error) error {
	var (
		verr *domain.ValidationError
		perr *domain.PermissionError
		nerr *domain.NotFoundError
		aerr *domain.AuthError
		ferr *fiber.Error
	)
	switch {
	case stderrors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Datos inválidos", "details": verr.Fields})
	case stderrors.As(err, &aerr):
		applog.Security(c, "auth.login.fail", map[string]any{"code": aerr.Code})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": aerr.Message, "code": aerr.Code})
	case stderrors.As(err, &perr):
		status := fiber.StatusForbidden
		if perr.Unauthenticated {
			status = fiber.StatusUnauthorized
		}
		applog.Security(c, "access.denied", map[string]any{"reason": perr.Reason})
		return c.Status(status).JSON(fiber.Map{"error": perr.Reason})
	case stderrors.As(err, &nerr):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No encontrado", "resource": nerr.Resource})
	case stderrors.As(err, &ferr) && ferr.Code < fiber.StatusInternalServerError:
		return c.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msgInternal})
}

// ErrorHandler is the fiber.Config error handler; it shares fail's mapping.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return fail(c, err)
}

func badRequest(field, msg string) error {
	return domain.NewValidationError(field, msg)
}

package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// ErrInvalidRequestBody is a validation error for bodies that do not decode or fail their tags.
var ErrInvalidRequestBody = fmt.Errorf("%w: invalid request body", circulation.ErrValidation)

const unauthorizedMessage = "Unauthorized"

type errorBody struct {
	OK    bool   `json:"ok"`
	Kind  string `json:"kind,omitempty"`
	Error string `json:"error"`
}

// statusOf maps an error to its HTTP status and the kind reported to clients.
func statusOf(err error) (int, circulation.Kind) {
	if errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusServiceUnavailable, circulation.KindTransient
	}

	switch kind := circulation.KindOf(err); kind {
	case circulation.KindValidation:
		return fiber.StatusBadRequest, kind
	case circulation.KindNotFound:
		return fiber.StatusNotFound, kind
	case circulation.KindConflict:
		return fiber.StatusConflict, kind
	case circulation.KindTransient:
		return fiber.StatusServiceUnavailable, kind
	default:
		return fiber.StatusInternalServerError, kind
	}
}

// errorHandler is the fiber error handler. Internal errors are logged and never shown to clients.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(errorBody{Error: fiberErr.Message})
	}

	status, kind := statusOf(err)
	message := err.Error()

	if status >= fiber.StatusInternalServerError {
		s.logError(c.UserContext(), "request failed", err, "path", c.Path(), "error_kind", string(kind))
	}

	if status == fiber.StatusInternalServerError {
		message = "internal server error"
	}

	return c.Status(status).JSON(errorBody{Kind: string(kind), Error: message})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(errorBody{Error: unauthorizedMessage})
}

// describeValidation turns validator errors into one readable line naming each failed field.
func describeValidation(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return errors.Join(ErrInvalidRequestBody, err)
	}

	problems := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		switch fieldErr.Tag() {
		case "required":
			problems = append(problems, fieldErr.Field()+" is required")
		case "uuid":
			problems = append(problems, fieldErr.Field()+" must be a UUID")
		default:
			problems = append(problems, fmt.Sprintf("%s must satisfy %s=%s", fieldErr.Field(), fieldErr.Tag(), fieldErr.Param()))
		}
	}

	return fmt.Errorf("%w: %s", ErrInvalidRequestBody, strings.Join(problems, ", "))
}

package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

const serverErrorMessage = "Server error"

const invalidBodyMessage = "Invalid request body"

// BindPayload decodes the request body into payload. A missing or
// undecodable body is a 422 with a single "body" field error.
func BindPayload(ctx router.Context, payload any) error {
	if err := ctx.Bind(payload); err != nil {
		return errors.New("Validation failed", errors.CategoryValidation).
			WithTextCode(TextCodeValidationFailed).
			WithCode(http.StatusUnprocessableEntity).
			WithMetadata(map[string]any{
				"errors": []FieldError{{Field: "body", Message: invalidBodyMessage}},
			})
	}
	return nil
}

// ErrorHandler renders every error as a JSON body with an explicit status.
// Internal errors are logged with their details and rendered as "Server error".
func ErrorHandler(logger Logger) fiber.ErrorHandler {
	logger = normalizeLogger(logger)

	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"message": fe.Message,
			})
		}

		richErr := AsRichError(err)
		status := StatusCode(richErr)

		body := fiber.Map{
			"message":   richErr.Message,
			"text_code": richErr.TextCode,
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"error", err,
			)
			if richErr.Category == errors.CategoryInternal {
				body["message"] = serverErrorMessage
			}
		} else {
			logger.Debug("request rejected",
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"text_code", richErr.TextCode,
			)
		}

		if richErr.Category == errors.CategoryValidation && richErr.Metadata != nil {
			if fields, ok := richErr.Metadata["errors"]; ok {
				body["errors"] = fields
			}
		}

		return c.Status(status).JSON(body)
	}
}

// AsRichError returns err as a *errors.Error, wrapping unknown errors as internal
func AsRichError(err error) *errors.Error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr
	}
	return errors.Wrap(err, errors.CategoryInternal, serverErrorMessage).
		WithTextCode(TextCodeInternal).
		WithCode(errors.CodeInternal)
}

// StatusCode resolves the HTTP status for a rich error
func StatusCode(err *errors.Error) int {
	if err == nil {
		return http.StatusInternalServerError
	}

	if err.Code >= 400 && err.Code < 600 {
		return err.Code
	}

	switch err.Category {
	case errors.CategoryValidation:
		return http.StatusUnprocessableEntity
	case errors.CategoryBadInput, errors.CategoryConflict:
		return http.StatusBadRequest
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

package auth

import (
	"net/http"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	TextCodeValidationFailed  = "VALIDATION_FAILED"
	TextCodeEmailInUse        = "EMAIL_IN_USE"
	TextCodeInvalidCredential = "INVALID_CREDENTIALS"
	TextCodeUserNotFound      = "USER_NOT_FOUND"
	TextCodeInvalidResetToken = "INVALID_RESET_TOKEN"
	TextCodeUnauthorized      = "UNAUTHORIZED"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeTokenMalformed    = "TOKEN_MALFORMED"
	TextCodeForbidden         = "FORBIDDEN"
	TextCodeDeliveryFailed    = "DELIVERY_FAILED"
	TextCodeInternal          = "INTERNAL"
	TextCodeEmptyPassword     = "EMPTY_PASSWORD"
)

// ErrEmailInUse is returned when registering an email that already exists.
var ErrEmailInUse = errors.New("Email already in use", errors.CategoryConflict).
	WithTextCode(TextCodeEmailInUse).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredentials is returned for both unknown emails and wrong passwords.
var ErrInvalidCredentials = errors.New("Invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredential).
	WithCode(errors.CodeUnauthorized)

var ErrUserNotFound = errors.New("User not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

var ErrInvalidOrExpiredToken = errors.New("Invalid or expired token", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidResetToken).
	WithCode(errors.CodeBadRequest)

// ErrUnauthorized is the Auth Gate failure.
var ErrUnauthorized = errors.New("Not authorized", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(errors.CodeUnauthorized)

var ErrTokenExpired = errors.New("Not authorized, token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

var ErrTokenMalformed = errors.New("Not authorized, token failed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is the Role Gate failure.
var ErrForbidden = errors.New("Forbidden", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

var ErrDeliveryFailed = errors.New("Email could not be sent", errors.CategoryOperation).
	WithTextCode(TextCodeDeliveryFailed).
	WithCode(errors.CodeInternal)

var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(http.StatusUnprocessableEntity)

// FieldError is a single entry of a 422 response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewValidationError converts ozzo validation errors into a 422 error that
// carries the per field messages under the "errors" metadata key.
func NewValidationError(err error, message string) *errors.Error {
	if message == "" {
		message = "Validation failed"
	}

	fields := FieldErrors(err)
	return errors.New(message, errors.CategoryValidation).
		WithTextCode(TextCodeValidationFailed).
		WithCode(http.StatusUnprocessableEntity).
		WithMetadata(map[string]any{
			"errors": fields,
		})
}

// FieldErrors flattens ozzo validation errors sorted by field name.
func FieldErrors(err error) []FieldError {
	out := []FieldError{}
	if err == nil {
		return out
	}

	errs, ok := err.(validation.Errors)
	if !ok {
		return append(out, FieldError{Message: err.Error()})
	}

	for field, ferr := range errs {
		if ferr == nil {
			continue
		}
		out = append(out, FieldError{Field: field, Message: ferr.Error()})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Field < out[j].Field
	})

	return out
}

// IsUniqueViolation reports store errors raised by a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

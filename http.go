package gate

import (
	"crypto/subtle"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// HeaderAPIKey carries the credential gating the internal admin surface
const HeaderAPIKey = "X-API-Key"

// DefaultAuthScheme prefixes bearer tokens in the Authorization header
const DefaultAuthScheme = "Bearer"

// APIKeyGuard returns middleware enforcing the internal API key on
// admin routes. The comparison is constant time; an empty configured
// key locks the surface rather than opening it.
func APIKeyGuard(apiKey string, logger Logger) router.MiddlewareFunc {
	if logger == nil {
		logger = defLogger{}
	}

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			supplied := ctx.GetString(HeaderAPIKey, "")

			if apiKey == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(apiKey)) != 1 {
				logger.Info("Rejected internal request with invalid API key: %s", ctx.Path())
				return ctx.JSON(router.StatusUnauthorized, map[string]string{
					"error": "invalid API key",
				})
			}

			return next(ctx)
		}
	}
}

// BearerToken pulls the access token out of the Authorization header.
// Returns an empty string when the header is absent or the scheme does
// not match.
func BearerToken(ctx router.Context, scheme string) string {
	if scheme == "" {
		scheme = DefaultAuthScheme
	}

	header := ctx.GetString(router.HeaderAuthorization, "")
	if header == "" {
		return ""
	}

	prefix := scheme + " "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}

// HTTPStatusFor maps the gate's error taxonomy onto transport codes.
// Denials never reach this path (they are results, not errors); what is
// left is token failures, admin lookups, and infrastructure faults.
func HTTPStatusFor(err error) int {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return router.StatusInternalServerError
	}

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return router.StatusUnauthorized
	case errors.CategoryNotFound:
		return router.StatusNotFound
	case errors.CategoryConflict:
		return router.StatusConflict
	case errors.CategoryValidation, errors.CategoryBadInput:
		return router.StatusBadRequest
	default:
		return router.StatusInternalServerError
	}
}

// WriteError renders a structured error as JSON with its mapped status
func WriteError(ctx router.Context, err error, logger Logger) error {
	if logger == nil {
		logger = defLogger{}
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred")
	}

	status := HTTPStatusFor(richErr)
	if status >= router.StatusInternalServerError {
		logger.Error("Request failed with %s error: %s", richErr.Category, richErr.Message)
	} else {
		logger.Info("Request rejected (%s): %s", richErr.TextCode, richErr.Message)
	}

	payload := map[string]any{
		"error": richErr.Message,
	}
	if richErr.TextCode != "" {
		payload["code"] = richErr.TextCode
	}

	return ctx.JSON(status, payload)
}

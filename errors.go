package gate

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	// TextCodeMissingCredential flags a verify request without the credential its rule requires
	TextCodeMissingCredential = "gate_missing_credential"
	// TextCodeInvalidPassword flags a password mismatch
	TextCodeInvalidPassword = "gate_invalid_password"
	// TextCodeEmailNotAllowed flags an email missing from the allowlist
	TextCodeEmailNotAllowed = "gate_email_not_allowed"
	// TextCodeTokenExpired flags an access token past its expiry
	TextCodeTokenExpired = "gate_token_expired"
	// TextCodeTokenMalformed flags an unparseable or tampered token
	TextCodeTokenMalformed = "gate_token_malformed"
	// TextCodeTokenMismatch flags a token presented for different content
	TextCodeTokenMismatch = "gate_token_mismatch"
	// TextCodeRuleNotFound flags an admin lookup of an absent rule
	TextCodeRuleNotFound = "gate_rule_not_found"
	// TextCodeRuleConflict flags a create for an existing (type, slug)
	TextCodeRuleConflict = "gate_rule_conflict"
	// TextCodeStorageUnavailable flags a rule store or audit sink fault
	TextCodeStorageUnavailable = "gate_storage_unavailable"
	// TextCodeEmptyPassword flags an attempt to hash an empty password
	TextCodeEmptyPassword = "gate_empty_password"
	// TextCodeContentUnavailable flags a missing content collaborator
	TextCodeContentUnavailable = "gate_content_unavailable"
)

// ErrMissingCredential is the denial for a request that omitted the credential the rule requires
var ErrMissingCredential = errors.New("verification requires a credential", errors.CategoryAuth).
	WithTextCode(TextCodeMissingCredential)

// ErrInvalidPassword is the denial for a password that does not match the rule's hash
var ErrInvalidPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidPassword)

// ErrEmailNotAllowed is the denial for an email absent from the allowlist
var ErrEmailNotAllowed = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotAllowed)

// ErrTokenExpired is returned for access tokens past their expiry
var ErrTokenExpired = errors.New("access token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail to parse or verify
var ErrTokenMalformed = errors.New("access token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMismatch is returned when a valid token names different content
var ErrTokenMismatch = errors.New("access token does not match the requested content", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMismatch).
	WithCode(errors.CodeUnauthorized)

// ErrRuleNotFound is returned by admin operations on absent rules
var ErrRuleNotFound = errors.New("access rule not found", errors.CategoryNotFound).
	WithTextCode(TextCodeRuleNotFound)

// ErrRuleConflict is returned when creating a rule whose (type, slug) already exists
var ErrRuleConflict = errors.New("access rule already exists", errors.CategoryConflict).
	WithTextCode(TextCodeRuleConflict)

// ErrStorageUnavailable wraps rule store and audit sink faults. It is the
// only class that surfaces as a 5xx: infrastructure broke, access was not
// denied.
var ErrStorageUnavailable = errors.New("access rule storage unavailable", errors.CategoryExternal).
	WithTextCode(TextCodeStorageUnavailable)

// ErrNoEmptyString rejects hashing an empty password
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// ErrContentUnavailable is returned when no content collaborator is wired
var ErrContentUnavailable = errors.New("content fetcher not configured", errors.CategoryInternal).
	WithTextCode(TextCodeContentUnavailable)

// IsDenialError reports whether err is a credential denial rather than a
// fault. Denials are expected outcomes and are recovered into structured
// results, never surfaced to transport as errors.
func IsDenialError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	switch richErr.TextCode {
	case TextCodeMissingCredential, TextCodeInvalidPassword, TextCodeEmailNotAllowed:
		return true
	}
	return false
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

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

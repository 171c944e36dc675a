package gate

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// DeniedMessage is the generic denial text. Deliberately vague: the
// requirements endpoint already reveals the access mode, nothing else
// should leak through a failed attempt.
const DeniedMessage = "verification failed"

// RuleFinder is the narrow read surface the verifier needs from the
// rule store. Rules satisfies it; tests can hand in a stub.
type RuleFinder interface {
	GetBySlug(ctx context.Context, contentType ContentType, slug string) (*AccessRule, error)
}

// Requirements reports what a caller must supply to read a content item
type Requirements struct {
	Mode             AccessMode `json:"accessMode"`
	RequiresPassword bool       `json:"requiresPassword"`
	RequiresEmail    bool       `json:"requiresEmail"`
}

// RequestMeta carries requester metadata into the audit trail
type RequestMeta struct {
	IP        string
	UserAgent string
}

// VerifyRequest is one verification attempt against one content item
type VerifyRequest struct {
	Type       ContentType
	Slug       string
	Credential Credential
	Meta       RequestMeta
}

// VerifyResult is the structured outcome of a verification attempt.
// Denials land here, never in an error: a deny is a normal outcome.
type VerifyResult struct {
	Success   bool       `json:"success"`
	Token     string     `json:"token,omitempty"`
	Message   string     `json:"message,omitempty"`
	Mode      AccessMode `json:"accessMode,omitempty"`
	ExpiresAt time.Time  `json:"-"`
}

// Verifier is the request-facing orchestrator: rule lookup, credential
// decision, token minting, and the audit write, in that order.
type Verifier struct {
	rules     RuleFinder
	tokens    TokenService
	validator TokenValidator
	audit     AuditSink
	fetcher   ContentFetcher
	logger    Logger
}

// VerifierOption mutates a Verifier during construction
type VerifierOption func(*Verifier)

// WithAuditSink sets the sink receiving one event per Verify call
func WithAuditSink(sink AuditSink) VerifierOption {
	return func(v *Verifier) {
		v.audit = sink
	}
}

// WithTokenValidator overrides the validator GuardedContent checks
// bearer tokens against. Defaults to the minting TokenService; pass a
// MultiTokenValidator to keep previously issued tokens valid through a
// signing key rotation.
func WithTokenValidator(validator TokenValidator) VerifierOption {
	return func(v *Verifier) {
		if validator != nil {
			v.validator = validator
		}
	}
}

// WithContentFetcher wires the collaborator GuardedContent delegates to
func WithContentFetcher(fetcher ContentFetcher) VerifierOption {
	return func(v *Verifier) {
		v.fetcher = fetcher
	}
}

// WithLogger overrides the default logger
func WithLogger(logger Logger) VerifierOption {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewVerifier wires the orchestrator. rules and tokens are required;
// the audit sink defaults to a noop and the fetcher to none.
func NewVerifier(rules RuleFinder, tokens TokenService, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		rules:  rules,
		tokens: tokens,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}

	if v.validator == nil {
		v.validator = tokens
	}

	v.audit = normalizeAuditSink(v.audit)

	return v
}

// CheckRequirements reports which credential a content item demands.
// Read-only and unaudited; a missing rule means open content.
func (v *Verifier) CheckRequirements(ctx context.Context, contentType ContentType, slug string) (Requirements, error) {
	rule, err := v.findRule(ctx, contentType, slug)
	if err != nil {
		return Requirements{}, err
	}

	return Requirements{
		Mode:             rule.EffectiveMode(),
		RequiresPassword: rule.RequiresPassword(),
		RequiresEmail:    rule.RequiresEmail(),
	}, nil
}

// Verify runs one verification attempt. Exactly one audit event is
// recorded per call, after the decision is finalized, for grants and
// denials alike. Only storage faults return an error.
func (v *Verifier) Verify(ctx context.Context, req VerifyRequest) (VerifyResult, error) {
	rule, err := v.findRule(ctx, req.Type, req.Slug)
	if err != nil {
		return VerifyResult{}, err
	}

	decision := Evaluate(rule, req.Credential)

	result := VerifyResult{
		Success: decision.Granted,
		Mode:    rule.EffectiveMode(),
	}

	if decision.Granted {
		token, expiresAt, err := v.tokens.MintAt(req.Type, req.Slug, time.Now())
		if err != nil {
			v.logger.Error("Verify failed to mint token for %s/%s: %v", req.Type, req.Slug, err)
			return VerifyResult{}, errors.Wrap(err, errors.CategoryInternal, "failed to mint access token")
		}
		result.Token = token
		result.ExpiresAt = expiresAt
	} else {
		result.Message = DeniedMessage
	}

	if err := v.recordAttempt(ctx, rule, req, decision); err != nil {
		v.logger.Error("Verify failed to record audit entry for %s/%s: %v", req.Type, req.Slug, err)
		return VerifyResult{}, errors.Wrap(err, ErrStorageUnavailable.Category, ErrStorageUnavailable.Message).
			WithTextCode(ErrStorageUnavailable.TextCode)
	}

	return result, nil
}

// GuardedContent validates a bearer token and, when the token covers
// exactly the requested item, returns the raw content bytes. The
// attempt was already audited at Verify time; this path writes nothing.
func (v *Verifier) GuardedContent(ctx context.Context, contentType ContentType, slug, tokenString string) ([]byte, error) {
	if tokenString == "" {
		return nil, ErrTokenMalformed
	}

	claims, err := v.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	if !claims.Matches(contentType, slug) {
		return nil, ErrTokenMismatch
	}

	if v.fetcher == nil {
		return nil, ErrContentUnavailable
	}

	return v.fetcher.FetchContent(ctx, contentType, slug)
}

func (v *Verifier) findRule(ctx context.Context, contentType ContentType, slug string) (*AccessRule, error) {
	rule, err := v.rules.GetBySlug(ctx, contentType, slug)
	if err != nil {
		// Unset content is open by default, not an error.
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, ErrStorageUnavailable.Category, ErrStorageUnavailable.Message).
			WithTextCode(ErrStorageUnavailable.TextCode)
	}
	return rule, nil
}

func (v *Verifier) recordAttempt(ctx context.Context, rule *AccessRule, req VerifyRequest, decision Decision) error {
	event := AuditEvent{
		Type:           req.Type,
		Slug:           req.Slug,
		Granted:        decision.Granted,
		CredentialKind: decision.Kind,
		IP:             req.Meta.IP,
		UserAgent:      req.Meta.UserAgent,
		OccurredAt:     time.Now(),
	}

	if rule != nil {
		id := rule.ID
		event.RuleID = &id
	}

	if decision.Kind == CredentialEmail {
		event.CredentialValue = NormalizeEmail(req.Credential.Email)
	}

	return v.audit.Record(ctx, event)
}

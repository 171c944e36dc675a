package gate

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ContentType identifies a content collection
type ContentType = string

const (
	// ContentNotes are short-form notes
	ContentNotes ContentType = "notes"
	// ContentPublications are long-form publications
	ContentPublications ContentType = "publications"
	// ContentIdeas are working drafts
	ContentIdeas ContentType = "ideas"
	// ContentPages are standalone pages
	ContentPages ContentType = "pages"
)

// ContentTypes lists every valid content type
var ContentTypes = []ContentType{
	ContentNotes,
	ContentPublications,
	ContentIdeas,
	ContentPages,
}

// IsValidContentType reports whether t names a known content collection
func IsValidContentType(t string) bool {
	for _, ct := range ContentTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// AccessMode determines which credential, if any, a rule requires
type AccessMode = string

const (
	// ModeOpen grants without a credential
	ModeOpen AccessMode = "open"
	// ModePassword requires a password matching the rule's hash
	ModePassword AccessMode = "password"
	// ModeEmailList requires an email on the rule's allowlist
	ModeEmailList AccessMode = "email-list"
)

// AccessModes lists every valid access mode
var AccessModes = []AccessMode{ModeOpen, ModePassword, ModeEmailList}

// IsValidAccessMode reports whether m names a known access mode
func IsValidAccessMode(m string) bool {
	for _, mode := range AccessModes {
		if mode == m {
			return true
		}
	}
	return false
}

// CredentialKind labels which credential an attempt presented
type CredentialKind = string

const (
	// CredentialPassword marks a password attempt
	CredentialPassword CredentialKind = "password"
	// CredentialEmail marks an email-allowlist attempt
	CredentialEmail CredentialKind = "email"
	// CredentialNone marks an attempt with no credential (open content)
	CredentialNone CredentialKind = "none"
)

// AccessRule is the access policy for one (type, slug) content item
type AccessRule struct {
	bun.BaseModel `bun:"table:access_rules,alias:rule"`
	ID            uuid.UUID       `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Type          ContentType     `bun:"content_type,notnull" json:"type,omitempty"`
	Slug          string          `bun:"slug,notnull" json:"slug,omitempty"`
	Mode          AccessMode      `bun:"access_mode,notnull" json:"accessMode,omitempty"`
	Description   string          `bun:"description" json:"description,omitempty"`
	PasswordHash  string          `bun:"password_hash" json:"-"`
	AllowedEmails []*AllowedEmail `bun:"rel:has-many,join:id=rule_id" json:"allowedEmails,omitempty"`
	CreatedAt     *time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time      `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// RequiresPassword reports whether the rule demands a password
func (r *AccessRule) RequiresPassword() bool {
	return r != nil && r.Mode == ModePassword
}

// RequiresEmail reports whether the rule demands an allowlisted email
func (r *AccessRule) RequiresEmail() bool {
	return r != nil && r.Mode == ModeEmailList
}

// EffectiveMode resolves default-open: a nil rule is open content
func (r *AccessRule) EffectiveMode() AccessMode {
	if r == nil {
		return ModeOpen
	}
	return r.Mode
}

// AllowsEmail checks case-insensitive allowlist membership. An empty
// allowlist denies every email.
func (r *AccessRule) AllowsEmail(email string) bool {
	if r == nil {
		return false
	}
	normalized := NormalizeEmail(email)
	for _, entry := range r.AllowedEmails {
		// Stored entries are normalized too: rows seeded through
		// fixtures or the generic repository bypass the write paths.
		if entry != nil && NormalizeEmail(entry.Email) == normalized {
			return true
		}
	}
	return false
}

// EmailStrings flattens the allowlist relation into plain addresses
func (r *AccessRule) EmailStrings() []string {
	if r == nil || len(r.AllowedEmails) == 0 {
		return nil
	}
	emails := make([]string, 0, len(r.AllowedEmails))
	for _, entry := range r.AllowedEmails {
		if entry != nil {
			emails = append(emails, entry.Email)
		}
	}
	return emails
}

// AllowedEmail is one allowlist entry, unique per (rule_id, email)
type AllowedEmail struct {
	bun.BaseModel `bun:"table:access_rule_emails,alias:rme"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RuleID        uuid.UUID  `bun:"rule_id,notnull,type:uuid" json:"rule_id,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// NormalizeEmail lower-cases and trims an address. No format validation:
// allowlists are admin curated and odd-but-real addresses must survive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AccessLogEntry is one immutable record of a verification attempt
type AccessLogEntry struct {
	bun.BaseModel   `bun:"table:access_logs,alias:alog"`
	ID              uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RuleID          *uuid.UUID     `bun:"rule_id,nullzero,type:uuid" json:"rule_id,omitempty"`
	Type            ContentType    `bun:"content_type,notnull" json:"type,omitempty"`
	Slug            string         `bun:"slug,notnull" json:"slug,omitempty"`
	Granted         bool           `bun:"granted,notnull" json:"granted"`
	CredentialKind  CredentialKind `bun:"credential_kind,notnull" json:"credentialKind,omitempty"`
	CredentialValue string         `bun:"credential_value" json:"credentialValue,omitempty"`
	IP              string         `bun:"ip" json:"ip,omitempty"`
	UserAgent       string         `bun:"user_agent" json:"user_agent,omitempty"`
	CreatedAt       *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

package gate

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEvent captures one verification attempt, granted or denied.
type AuditEvent struct {
	Type           ContentType
	Slug           string
	RuleID         *uuid.UUID
	Granted        bool
	CredentialKind CredentialKind
	// CredentialValue carries the submitted email for email-list
	// attempts. Passwords are never recorded.
	CredentialValue string
	IP              string
	UserAgent       string
	OccurredAt      time.Time
}

// AuditSink consumes verification events for the audit trail.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent) error
}

// AuditSinkFunc adapts a function to the AuditSink interface.
type AuditSinkFunc func(ctx context.Context, event AuditEvent) error

// Record implements AuditSink.
func (f AuditSinkFunc) Record(ctx context.Context, event AuditEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopAuditSink struct{}

func (noopAuditSink) Record(context.Context, AuditEvent) error {
	return nil
}

func normalizeAuditSink(s AuditSink) AuditSink {
	if s == nil {
		return noopAuditSink{}
	}
	return s
}

type repositoryAuditSink struct {
	logs AccessLogs
}

// NewRepositoryAuditSink persists audit events through the AccessLogs
// repository, feeding the internal logs and stats endpoints.
func NewRepositoryAuditSink(logs AccessLogs) AuditSink {
	return &repositoryAuditSink{logs: logs}
}

func (s *repositoryAuditSink) Record(ctx context.Context, event AuditEvent) error {
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	_, err := s.logs.Append(ctx, &AccessLogEntry{
		RuleID:          event.RuleID,
		Type:            event.Type,
		Slug:            event.Slug,
		Granted:         event.Granted,
		CredentialKind:  event.CredentialKind,
		CredentialValue: event.CredentialValue,
		IP:              event.IP,
		UserAgent:       event.UserAgent,
		CreatedAt:       &occurredAt,
	})

	return err
}

package gate_test

import (
	"context"
	"database/sql"
	"time"

	gate "github.com/goliatone/go-content-gate"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockRuleFinder implements gate.RuleFinder
type MockRuleFinder struct {
	mock.Mock
}

func (m *MockRuleFinder) GetBySlug(ctx context.Context, contentType gate.ContentType, slug string) (*gate.AccessRule, error) {
	args := m.Called(ctx, contentType, slug)
	rule, _ := args.Get(0).(*gate.AccessRule)
	return rule, args.Error(1)
}

// MockTokenService implements gate.TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Mint(contentType gate.ContentType, slug string) (string, error) {
	args := m.Called(contentType, slug)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) MintAt(contentType gate.ContentType, slug string, issuedAt time.Time) (string, time.Time, error) {
	args := m.Called(contentType, slug, issuedAt)
	expiresAt, _ := args.Get(1).(time.Time)
	return args.String(0), expiresAt, args.Error(2)
}

func (m *MockTokenService) Validate(tokenString string) (gate.ContentClaims, error) {
	args := m.Called(tokenString)
	claims, _ := args.Get(0).(gate.ContentClaims)
	return claims, args.Error(1)
}

// MockAuditSink implements gate.AuditSink
type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) Record(ctx context.Context, event gate.AuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// capturingSink collects audit events without expectations
type capturingSink struct {
	events []gate.AuditEvent
}

func (c *capturingSink) Record(ctx context.Context, event gate.AuditEvent) error {
	c.events = append(c.events, event)
	return nil
}

// MockRules implements gate.Rules. Only the domain methods are mocked;
// the embedded interface covers the generic repository surface, which
// panics if an unstubbed method is reached.
type MockRules struct {
	mock.Mock
	gate.Rules
}

func (m *MockRules) GetBySlug(ctx context.Context, contentType gate.ContentType, slug string) (*gate.AccessRule, error) {
	args := m.Called(ctx, contentType, slug)
	rule, _ := args.Get(0).(*gate.AccessRule)
	return rule, args.Error(1)
}

func (m *MockRules) GetBySlugTx(ctx context.Context, tx bun.IDB, contentType gate.ContentType, slug string) (*gate.AccessRule, error) {
	args := m.Called(ctx, tx, contentType, slug)
	rule, _ := args.Get(0).(*gate.AccessRule)
	return rule, args.Error(1)
}

func (m *MockRules) CreateRuleTx(ctx context.Context, tx bun.IDB, record *gate.AccessRule) (*gate.AccessRule, error) {
	args := m.Called(ctx, tx, record)
	rule, _ := args.Get(0).(*gate.AccessRule)
	return rule, args.Error(1)
}

func (m *MockRules) UpdateBySlugTx(ctx context.Context, tx bun.IDB, contentType gate.ContentType, slug string, changes *gate.AccessRule) (*gate.AccessRule, error) {
	args := m.Called(ctx, tx, contentType, slug, changes)
	rule, _ := args.Get(0).(*gate.AccessRule)
	return rule, args.Error(1)
}

func (m *MockRules) DeleteBySlugTx(ctx context.Context, tx bun.IDB, contentType gate.ContentType, slug string) error {
	args := m.Called(ctx, tx, contentType, slug)
	return args.Error(0)
}

func (m *MockRules) ListRules(ctx context.Context, filters gate.RuleFilters) ([]*gate.AccessRule, error) {
	args := m.Called(ctx, filters)
	records, _ := args.Get(0).([]*gate.AccessRule)
	return records, args.Error(1)
}

func (m *MockRules) AddEmail(ctx context.Context, contentType gate.ContentType, slug, email string) (*gate.AllowedEmail, error) {
	args := m.Called(ctx, contentType, slug, email)
	entry, _ := args.Get(0).(*gate.AllowedEmail)
	return entry, args.Error(1)
}

func (m *MockRules) RemoveEmail(ctx context.Context, contentType gate.ContentType, slug, email string) error {
	args := m.Called(ctx, contentType, slug, email)
	return args.Error(0)
}

// MockAccessLogs implements gate.AccessLogs the same way
type MockAccessLogs struct {
	mock.Mock
	gate.AccessLogs
}

func (m *MockAccessLogs) Append(ctx context.Context, entry *gate.AccessLogEntry) (*gate.AccessLogEntry, error) {
	args := m.Called(ctx, entry)
	record, _ := args.Get(0).(*gate.AccessLogEntry)
	return record, args.Error(1)
}

func (m *MockAccessLogs) ListEntries(ctx context.Context, filters gate.LogFilters) ([]*gate.AccessLogEntry, error) {
	args := m.Called(ctx, filters)
	records, _ := args.Get(0).([]*gate.AccessLogEntry)
	return records, args.Error(1)
}

func (m *MockAccessLogs) Stats(ctx context.Context, start, end *time.Time) (*gate.VerificationStats, error) {
	args := m.Called(ctx, start, end)
	stats, _ := args.Get(0).(*gate.VerificationStats)
	return stats, args.Error(1)
}

// MockRepositoryManager implements gate.RepositoryManager. With
// ExecuteTx set, RunInTx invokes the callback and surfaces its error,
// for tests asserting on failures raised inside the transaction.
type MockRepositoryManager struct {
	mock.Mock
	ExecuteTx bool
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if m.ExecuteTx {
		var tx bun.Tx
		if err := f(ctx, tx); err != nil {
			return err
		}
	}
	return args.Error(0)
}

func (m *MockRepositoryManager) Rules() gate.Rules {
	args := m.Called()
	rules, _ := args.Get(0).(gate.Rules)
	return rules
}

func (m *MockRepositoryManager) AccessLogs() gate.AccessLogs {
	args := m.Called()
	logs, _ := args.Get(0).(gate.AccessLogs)
	return logs
}

// MockLogger implements gate.Logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

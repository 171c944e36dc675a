package gate

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Rules() Rules
	AccessLogs() AccessLogs
}

type mngr struct {
	db         *bun.DB
	rules      Rules
	accessLogs AccessLogs
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:         db,
		rules:      NewRulesRepository(db),
		accessLogs: NewAccessLogsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.rules == nil {
		return errors.New("repository rules should be initialized")
	}

	if m.accessLogs == nil {
		return errors.New("repository accessLogs should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Rules() Rules {
	return m.rules
}

func (m mngr) AccessLogs() AccessLogs {
	return m.accessLogs
}

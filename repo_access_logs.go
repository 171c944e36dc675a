package gate

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LogFilters narrows List. Zero values mean "any"; Limit caps the page.
type LogFilters struct {
	Limit  int
	Failed *bool
	Type   ContentType
	Slug   string
}

// DefaultLogLimit caps audit log pages when callers do not set one
const DefaultLogLimit = 100

// VerificationStats summarizes verification attempts over a window
type VerificationStats struct {
	Total   int64            `json:"total"`
	Granted int64            `json:"granted"`
	Denied  int64            `json:"denied"`
	ByType  map[string]int64 `json:"byType"`
}

type AccessLogs interface {
	repository.Repository[*AccessLogEntry]

	Append(ctx context.Context, entry *AccessLogEntry) (*AccessLogEntry, error)
	AppendTx(ctx context.Context, tx bun.IDB, entry *AccessLogEntry) (*AccessLogEntry, error)
	ListEntries(ctx context.Context, filters LogFilters) ([]*AccessLogEntry, error)
	Stats(ctx context.Context, start, end *time.Time) (*VerificationStats, error)
}

type accessLogs struct {
	repository.Repository[*AccessLogEntry]
	db *bun.DB
}

var (
	_ AccessLogs                             = (*accessLogs)(nil)
	_ repository.Repository[*AccessLogEntry] = (*accessLogs)(nil)
)

func NewAccessLogsRepository(db *bun.DB) AccessLogs {
	repo := repository.NewRepository[*AccessLogEntry](db, repository.ModelHandlers[*AccessLogEntry]{
		NewRecord: func() *AccessLogEntry { return &AccessLogEntry{} },
		GetID: func(e *AccessLogEntry) uuid.UUID {
			if e == nil {
				return uuid.Nil
			}
			return e.ID
		},
		SetID: func(e *AccessLogEntry, id uuid.UUID) {
			if e != nil {
				e.ID = id
			}
		},
	})

	return &accessLogs{
		Repository: repo,
		db:         db,
	}
}

func (a *accessLogs) Append(ctx context.Context, entry *AccessLogEntry) (*AccessLogEntry, error) {
	return a.AppendTx(ctx, a.db, entry)
}

// AppendTx writes one immutable log row. The log is append-only: there
// is deliberately no update or delete surface on this repository.
func (a *accessLogs) AppendTx(ctx context.Context, tx bun.IDB, entry *AccessLogEntry) (*AccessLogEntry, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt == nil {
		now := time.Now()
		entry.CreatedAt = &now
	}

	return a.Repository.CreateTx(ctx, tx, entry)
}

func (a *accessLogs) ListEntries(ctx context.Context, filters LogFilters) ([]*AccessLogEntry, error) {
	var records []*AccessLogEntry

	limit := filters.Limit
	if limit <= 0 {
		limit = DefaultLogLimit
	}

	q := a.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Limit(limit)

	if filters.Failed != nil {
		q = q.Where("?TableAlias.granted = ?", !*filters.Failed)
	}
	if filters.Type != "" {
		q = q.Where("?TableAlias.content_type = ?", filters.Type)
	}
	if filters.Slug != "" {
		q = q.Where("?TableAlias.slug = ?", filters.Slug)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

func (a *accessLogs) Stats(ctx context.Context, start, end *time.Time) (*VerificationStats, error) {
	stats := &VerificationStats{ByType: map[string]int64{}}

	type typeCount struct {
		ContentType string `bun:"content_type"`
		Granted     bool   `bun:"granted"`
		Count       int64  `bun:"count"`
	}

	var counts []typeCount

	q := a.db.NewSelect().
		Model((*AccessLogEntry)(nil)).
		ColumnExpr("content_type").
		ColumnExpr("granted").
		ColumnExpr("count(*) AS count").
		Group("content_type", "granted")

	if start != nil {
		q = q.Where("?TableAlias.created_at >= ?", *start)
	}
	if end != nil {
		q = q.Where("?TableAlias.created_at <= ?", *end)
	}

	if err := q.Scan(ctx, &counts); err != nil {
		return nil, err
	}

	for _, c := range counts {
		stats.Total += c.Count
		if c.Granted {
			stats.Granted += c.Count
		} else {
			stats.Denied += c.Count
		}
		stats.ByType[c.ContentType] += c.Count
	}

	return stats, nil
}

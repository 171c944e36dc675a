package gate

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RuleFilters narrows ListRules. Zero values mean "any".
type RuleFilters struct {
	Type ContentType
	Mode AccessMode
}

type Rules interface {
	repository.Repository[*AccessRule]

	GetBySlug(ctx context.Context, contentType ContentType, slug string) (*AccessRule, error)
	GetBySlugTx(ctx context.Context, tx bun.IDB, contentType ContentType, slug string) (*AccessRule, error)

	CreateRule(ctx context.Context, record *AccessRule) (*AccessRule, error)
	CreateRuleTx(ctx context.Context, tx bun.IDB, record *AccessRule) (*AccessRule, error)

	UpdateBySlug(ctx context.Context, contentType ContentType, slug string, changes *AccessRule) (*AccessRule, error)
	UpdateBySlugTx(ctx context.Context, tx bun.IDB, contentType ContentType, slug string, changes *AccessRule) (*AccessRule, error)

	DeleteBySlug(ctx context.Context, contentType ContentType, slug string) error
	DeleteBySlugTx(ctx context.Context, tx bun.IDB, contentType ContentType, slug string) error

	ListRules(ctx context.Context, filters RuleFilters) ([]*AccessRule, error)

	AddEmail(ctx context.Context, contentType ContentType, slug, email string) (*AllowedEmail, error)
	AddEmailTx(ctx context.Context, tx bun.IDB, contentType ContentType, slug, email string) (*AllowedEmail, error)
	RemoveEmail(ctx context.Context, contentType ContentType, slug, email string) error
	RemoveEmailTx(ctx context.Context, tx bun.IDB, contentType ContentType, slug, email string) error
}

type rules struct {
	repository.Repository[*AccessRule]
	db *bun.DB
}

var (
	_ Rules                              = (*rules)(nil)
	_ repository.Repository[*AccessRule] = (*rules)(nil)
)

func NewRulesRepository(db *bun.DB) Rules {
	repo := repository.NewRepository[*AccessRule](db, repository.ModelHandlers[*AccessRule]{
		NewRecord: func() *AccessRule { return &AccessRule{} },
		GetID: func(r *AccessRule) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *AccessRule, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "slug"
		},
	})

	return &rules{
		Repository: repo,
		db:         db,
	}
}

func (a *rules) GetBySlug(ctx context.Context, contentType ContentType, slug string) (*AccessRule, error) {
	return a.GetBySlugTx(ctx, a.db, contentType, slug)
}

func (a *rules) GetBySlugTx(ctx context.Context, tx bun.IDB, contentType ContentType, slug string) (*AccessRule, error) {
	record := &AccessRule{}

	err := tx.NewSelect().
		Model(record).
		Relation("AllowedEmails").
		Where("?TableAlias.content_type = ?", contentType).
		Where("?TableAlias.slug = ?", slug).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"type": contentType,
					"slug": slug,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *rules) CreateRule(ctx context.Context, record *AccessRule) (*AccessRule, error) {
	return a.CreateRuleTx(ctx, a.db, record)
}

// CreateRuleTx enforces the one-rule-per-(type, slug) invariant: a live
// row for the natural key fails with a conflict instead of overwriting.
func (a *rules) CreateRuleTx(ctx context.Context, tx bun.IDB, record *AccessRule) (*AccessRule, error) {
	existing, err := a.GetBySlugTx(ctx, tx, record.Type, record.Slug)
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrRuleConflict.Clone().WithMetadata(map[string]any{
			"type": record.Type,
			"slug": record.Slug,
		})
	}

	prepareRuleDefaults(record)

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		return nil, err
	}

	if len(record.AllowedEmails) > 0 {
		entries := prepareEmailEntries(created.ID, record.AllowedEmails)
		if _, err := tx.NewInsert().Model(&entries).Exec(ctx); err != nil {
			return nil, err
		}
		created.AllowedEmails = entries
	}

	return created, nil
}

func (a *rules) UpdateBySlug(ctx context.Context, contentType ContentType, slug string, changes *AccessRule) (*AccessRule, error) {
	return a.UpdateBySlugTx(ctx, a.db, contentType, slug, changes)
}

func (a *rules) UpdateBySlugTx(ctx context.Context, tx bun.IDB, contentType ContentType, slug string, changes *AccessRule) (*AccessRule, error) {
	existing, err := a.GetBySlugTx(ctx, tx, contentType, slug)
	if err != nil {
		return nil, err
	}

	if changes.Mode != "" {
		existing.Mode = changes.Mode
	}
	if changes.Description != "" {
		existing.Description = changes.Description
	}
	if changes.PasswordHash != "" {
		existing.PasswordHash = changes.PasswordHash
	}

	// Mode changes drop the credential material the new mode cannot use.
	if existing.Mode != ModePassword {
		existing.PasswordHash = ""
	}

	now := time.Now()
	existing.UpdatedAt = &now

	replaceEmails := changes.AllowedEmails != nil
	if existing.Mode != ModeEmailList {
		replaceEmails = true
		changes.AllowedEmails = nil
	}

	updated, err := a.Repository.UpdateTx(ctx, tx, existing, repository.UpdateByID(existing.ID.String()))
	if err != nil {
		return nil, err
	}

	if replaceEmails {
		if _, err := tx.NewDelete().
			Model((*AllowedEmail)(nil)).
			Where("rule_id = ?", existing.ID).
			Exec(ctx); err != nil {
			return nil, err
		}

		updated.AllowedEmails = nil
		if len(changes.AllowedEmails) > 0 {
			entries := prepareEmailEntries(existing.ID, changes.AllowedEmails)
			if _, err := tx.NewInsert().Model(&entries).Exec(ctx); err != nil {
				return nil, err
			}
			updated.AllowedEmails = entries
		}
	} else {
		updated.AllowedEmails = existing.AllowedEmails
	}

	return updated, nil
}

func (a *rules) DeleteBySlug(ctx context.Context, contentType ContentType, slug string) error {
	return a.DeleteBySlugTx(ctx, a.db, contentType, slug)
}

func (a *rules) DeleteBySlugTx(ctx context.Context, tx bun.IDB, contentType ContentType, slug string) error {
	existing, err := a.GetBySlugTx(ctx, tx, contentType, slug)
	if err != nil {
		return err
	}

	if _, err := tx.NewDelete().
		Model((*AllowedEmail)(nil)).
		Where("rule_id = ?", existing.ID).
		Exec(ctx); err != nil {
		return err
	}

	_, err = tx.NewDelete().
		Model((*AccessRule)(nil)).
		Where("id = ?", existing.ID).
		Exec(ctx)

	return err
}

func (a *rules) ListRules(ctx context.Context, filters RuleFilters) ([]*AccessRule, error) {
	var records []*AccessRule

	q := a.db.NewSelect().
		Model(&records).
		Relation("AllowedEmails").
		Order("created_at DESC")

	if filters.Type != "" {
		q = q.Where("?TableAlias.content_type = ?", filters.Type)
	}
	if filters.Mode != "" {
		q = q.Where("?TableAlias.access_mode = ?", filters.Mode)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

func (a *rules) AddEmail(ctx context.Context, contentType ContentType, slug, email string) (*AllowedEmail, error) {
	return a.AddEmailTx(ctx, a.db, contentType, slug, email)
}

func (a *rules) AddEmailTx(ctx context.Context, tx bun.IDB, contentType ContentType, slug, email string) (*AllowedEmail, error) {
	rule, err := a.GetBySlugTx(ctx, tx, contentType, slug)
	if err != nil {
		return nil, err
	}

	normalized := NormalizeEmail(email)
	for _, entry := range rule.AllowedEmails {
		if entry != nil && entry.Email == normalized {
			return entry, nil
		}
	}

	entry := &AllowedEmail{
		ID:     uuid.New(),
		RuleID: rule.ID,
		Email:  normalized,
	}

	if _, err := tx.NewInsert().Model(entry).Exec(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

func (a *rules) RemoveEmail(ctx context.Context, contentType ContentType, slug, email string) error {
	return a.RemoveEmailTx(ctx, a.db, contentType, slug, email)
}

func (a *rules) RemoveEmailTx(ctx context.Context, tx bun.IDB, contentType ContentType, slug, email string) error {
	rule, err := a.GetBySlugTx(ctx, tx, contentType, slug)
	if err != nil {
		return err
	}

	res, err := tx.NewDelete().
		Model((*AllowedEmail)(nil)).
		Where("rule_id = ?", rule.ID).
		Where("email = ?", NormalizeEmail(email)).
		Exec(ctx)
	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"type":  contentType,
				"slug":  slug,
				"email": NormalizeEmail(email),
			})
	}

	return nil
}

func prepareRuleDefaults(record *AccessRule) {
	if record == nil {
		return
	}

	if record.Mode == "" {
		record.Mode = ModeOpen
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func prepareEmailEntries(ruleID uuid.UUID, emails []*AllowedEmail) []*AllowedEmail {
	entries := make([]*AllowedEmail, 0, len(emails))
	for _, e := range emails {
		if e == nil || e.Email == "" {
			continue
		}
		entries = append(entries, &AllowedEmail{
			ID:     uuid.New(),
			RuleID: ruleID,
			Email:  NormalizeEmail(e.Email),
		})
	}
	return entries
}

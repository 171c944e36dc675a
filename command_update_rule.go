package gate

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type UpdateRuleMessage struct {
	ContentType   string   `json:"type"`
	Slug          string   `json:"slug"`
	AccessMode    string   `json:"accessMode"`
	Description   string   `json:"description"`
	Password      string   `json:"password"`
	AllowedEmails []string `json:"allowedEmails"`
	OnUpdated     func(rule *AccessRule)
}

func (e UpdateRuleMessage) Type() string { return "access-rule.update" }

type UpdateRuleHandler struct {
	repo RepositoryManager
}

func NewUpdateRuleHandler(repo RepositoryManager) *UpdateRuleHandler {
	return &UpdateRuleHandler{repo: repo}
}

func (h *UpdateRuleHandler) Execute(ctx context.Context, event UpdateRuleMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during rule update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateRuleHandler) execute(ctx context.Context, event UpdateRuleMessage) error {
	if event.AccessMode != "" && !IsValidAccessMode(event.AccessMode) {
		return goerrors.New("unknown access mode", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"accessMode": event.AccessMode})
	}

	changes := &AccessRule{
		Mode:        event.AccessMode,
		Description: event.Description,
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var updated *AccessRule

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// A fresh plaintext re-hashes; an absent one keeps the stored hash.
		if event.Password != "" {
			hash, err := HashPassword(event.Password)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
			}
			changes.PasswordHash = hash
		}

		// Password mode needs a usable hash: either a fresh plaintext
		// here, or one already stored on the rule.
		if event.AccessMode == ModePassword && event.Password == "" {
			existing, err := h.repo.Rules().GetBySlugTx(ctx, tx, event.ContentType, event.Slug)
			if err != nil {
				var richErr *goerrors.Error
				if goerrors.As(err, &richErr) {
					return richErr
				}
				return goerrors.Wrap(err, goerrors.CategoryInternal, "could not load access rule")
			}
			if existing.PasswordHash == "" {
				return goerrors.New("password mode requires a password", goerrors.CategoryValidation).
					WithMetadata(map[string]any{
						"type": event.ContentType,
						"slug": event.Slug,
					})
			}
		}

		if event.AllowedEmails != nil {
			changes.AllowedEmails = make([]*AllowedEmail, 0, len(event.AllowedEmails))
			for _, email := range event.AllowedEmails {
				if email == "" {
					continue
				}
				changes.AllowedEmails = append(changes.AllowedEmails, &AllowedEmail{
					Email: NormalizeEmail(email),
				})
			}
		}

		record, err := h.repo.Rules().UpdateBySlugTx(ctx, tx, event.ContentType, event.Slug, changes)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not update access rule")
		}

		updated = record
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "rule update transaction failed")
	}

	if event.OnUpdated != nil {
		event.OnUpdated(updated)
	}

	return nil
}

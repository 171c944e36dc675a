package gate

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type CreateRuleMessage struct {
	ContentType   string   `json:"type"`
	Slug          string   `json:"slug"`
	AccessMode    string   `json:"accessMode"`
	Description   string   `json:"description"`
	Password      string   `json:"password"`
	AllowedEmails []string `json:"allowedEmails"`
	UseHashid     bool
	OnCreated     func(rule *AccessRule)
}

func (e CreateRuleMessage) Type() string { return "access-rule.create" }

type CreateRuleHandler struct {
	repo RepositoryManager
}

func NewCreateRuleHandler(repo RepositoryManager) *CreateRuleHandler {
	return &CreateRuleHandler{repo: repo}
}

func (h *CreateRuleHandler) Execute(ctx context.Context, event CreateRuleMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during rule creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateRuleHandler) execute(ctx context.Context, event CreateRuleMessage) error {
	if err := validateRuleMessage(event.ContentType, event.Slug, event.AccessMode); err != nil {
		return err
	}

	rule := &AccessRule{
		Type:        event.ContentType,
		Slug:        event.Slug,
		Mode:        event.AccessMode,
		Description: event.Description,
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if event.AccessMode == ModePassword {
			hash, err := HashPassword(event.Password)
			if err != nil {
				var richErr *goerrors.Error
				if goerrors.As(err, &richErr) {
					return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
				}
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
			}
			rule.PasswordHash = hash
		}

		if event.AccessMode == ModeEmailList {
			for _, email := range event.AllowedEmails {
				if email == "" {
					continue
				}
				rule.AllowedEmails = append(rule.AllowedEmails, &AllowedEmail{
					Email: NormalizeEmail(email),
				})
			}
		}

		if event.UseHashid {
			if id, err := hashid.NewUUID(fmt.Sprintf("%s/%s", event.ContentType, event.Slug)); err == nil {
				rule.ID = id
			}
		}

		created, err := h.repo.Rules().CreateRuleTx(ctx, tx, rule)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create access rule")
		}

		rule = created
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "rule creation transaction failed")
	}

	if event.OnCreated != nil {
		event.OnCreated(rule)
	}

	return nil
}

func validateRuleMessage(contentType, slug, mode string) error {
	if !IsValidContentType(contentType) {
		return goerrors.New("unknown content type", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"type": contentType})
	}

	if slug == "" {
		return goerrors.New("slug must not be empty", goerrors.CategoryValidation)
	}

	if !IsValidAccessMode(mode) {
		return goerrors.New("unknown access mode", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"accessMode": mode})
	}

	return nil
}

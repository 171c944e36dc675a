package gate

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type DeleteRuleMessage struct {
	ContentType string `json:"type"`
	Slug        string `json:"slug"`
}

func (e DeleteRuleMessage) Type() string { return "access-rule.delete" }

type DeleteRuleHandler struct {
	repo RepositoryManager
}

func NewDeleteRuleHandler(repo RepositoryManager) *DeleteRuleHandler {
	return &DeleteRuleHandler{repo: repo}
}

func (h *DeleteRuleHandler) Execute(ctx context.Context, event DeleteRuleMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during rule deletion",
		)
	default:
		return h.execute(ctx, event)
	}
}

// Deleting a rule reverts the content item to open-by-default; audit
// log rows referencing the rule are kept.
func (h *DeleteRuleHandler) execute(ctx context.Context, event DeleteRuleMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.repo.Rules().DeleteBySlugTx(ctx, tx, event.ContentType, event.Slug); err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not delete access rule")
		}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "rule deletion transaction failed")
	}

	return nil
}

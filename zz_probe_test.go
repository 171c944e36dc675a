package gate_test

import (
	"testing"

	gate "github.com/goliatone/go-content-gate"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

func TestZZProbe(t *testing.T) {
	nf := repository.NewRecordNotFound()
	t.Logf("IsNotFound(NewRecordNotFound)=%v", goerrors.IsNotFound(nf))
	t.Logf("category=%v base=%+v", nf.BaseError.Category, nf.BaseError.TextCode)
	clone := gate.ErrRuleConflict.Clone()
	t.Logf("Is(clone, ErrRuleConflict)=%v source=%v", goerrors.Is(clone, gate.ErrRuleConflict), clone.Source)
}

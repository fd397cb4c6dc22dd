// Package compiler loads compilation units from CUE documents: one
// expression tree plus its evidence section per unit. It uses the CUE
// SDK's Go API directly (not a CLI subprocess) and reports structured
// errors with source positions.
package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
)

// Unit is one loaded compilation unit: a single expression to lower and
// the evidence that guides its lowering.
type Unit struct {
	Name     string
	Returns  evidence.Tag
	Fallible bool
	Evidence *evidence.Store
	Expr     hir.Expr
}

// CompileUnit parses a CUE value into a Unit. The value should be the
// unit struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`unit: { name: "x", expr: {...} }`)
//	u, err := CompileUnit(v.LookupPath(cue.ParsePath("unit")))
func CompileUnit(v cue.Value) (*Unit, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	u := &Unit{}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		u.Name = name
	} else if labels := v.Path().Selectors(); len(labels) > 0 {
		u.Name = labels[len(labels)-1].String()
	}

	if retVal := v.LookupPath(cue.ParsePath("returns")); retVal.Exists() {
		ret, err := retVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		u.Returns = evidence.ParseTag(ret)
	}

	if fVal := v.LookupPath(cue.ParsePath("fallible")); fVal.Exists() {
		fallible, err := fVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		u.Fallible = fallible
	}

	ev, err := parseEvidence(v.LookupPath(cue.ParsePath("evidence")))
	if err != nil {
		return nil, err
	}
	u.Evidence = ev

	exprVal := v.LookupPath(cue.ParsePath("expr"))
	if !exprVal.Exists() {
		return nil, &CompileError{
			Field:   "expr",
			Message: "expr is required",
			Pos:     v.Pos(),
		}
	}
	expr, err := parseExpr(exprVal)
	if err != nil {
		return nil, err
	}
	u.Expr = expr

	return u, nil
}

// parseEvidence builds the evidence store from the optional evidence
// section: vars, attrs, borrowed, chariter, fallible.
func parseEvidence(v cue.Value) (*evidence.Store, error) {
	b := evidence.NewBuilder()
	if !v.Exists() {
		return b.Freeze(), nil
	}

	if varsVal := v.LookupPath(cue.ParsePath("vars")); varsVal.Exists() {
		iter, err := varsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			tag, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			b.Var(iter.Label(), evidence.ParseTag(tag))
		}
	}

	if attrsVal := v.LookupPath(cue.ParsePath("attrs")); attrsVal.Exists() {
		iter, err := attrsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			tag, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			recv, attr, ok := splitAttrKey(iter.Label())
			if !ok {
				return nil, &CompileError{
					Field:   "evidence.attrs",
					Message: fmt.Sprintf("attribute key %q must have the form receiver.attr", iter.Label()),
					Pos:     iter.Value().Pos(),
				}
			}
			b.Attr(recv, attr, evidence.ParseTag(tag))
		}
	}

	for _, list := range []struct {
		path string
		add  func(string)
	}{
		{"borrowed", func(s string) { b.Borrowed(s) }},
		{"chariter", func(s string) { b.CharIter(s, true) }},
		{"fallible", func(s string) { b.FallibleAt(s) }},
	} {
		lv := v.LookupPath(cue.ParsePath(list.path))
		if !lv.Exists() {
			continue
		}
		iter, err := lv.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			s, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			list.add(s)
		}
	}

	return b.Freeze(), nil
}

// splitAttrKey splits "receiver.attr" on the last dot.
func splitAttrKey(key string) (string, string, bool) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '.' {
			if i == 0 || i == len(key)-1 {
				return "", "", false
			}
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}

// CompileError is a load failure with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}

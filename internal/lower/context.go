// Package lower is the expression and method-call lowering core: it turns
// HIR expression trees into target expressions, consulting the evidence
// store for partial type knowledge and recording every non-obvious choice
// in the decision sink.
//
// Lowering is single-threaded and single-pass: one bottom-up walk per
// expression, no fixpoint, no mutation of the inputs. A multi-threaded
// driver parallelizes by giving each compilation unit its own Context.
package lower

import (
	"strings"

	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
	"github.com/ferrous-lang/ferrous/internal/trace"
)

// BackendMode selects between emitting self-contained stubs and depending
// on a target-side library for a stdlib namespace.
type BackendMode string

const (
	BackendStub    BackendMode = "stub"
	BackendLibrary BackendMode = "library"
)

// Backends configures the per-namespace emission mode.
type Backends struct {
	Regex  BackendMode `yaml:"regex"`
	Codec  BackendMode `yaml:"codec"`
	JSON   BackendMode `yaml:"json"`
	Random BackendMode `yaml:"random"`
	Time   BackendMode `yaml:"time"`
}

// DefaultBackends returns the backend selection implied by the runtime
// mode: minimal-runtime forces stubs everywhere.
func DefaultBackends(minimalRuntime bool) Backends {
	mode := BackendLibrary
	if minimalRuntime {
		mode = BackendStub
	}
	return Backends{Regex: mode, Codec: mode, JSON: mode, Random: mode, Time: mode}
}

// Context carries everything a single expression lowering needs. It is
// threaded immutably; the only per-node mutation is appending to the sink.
type Context struct {
	// Evidence is the read-only type evidence store; nil means no evidence.
	Evidence *evidence.Store

	// Sink records dispatch decisions; nil disables recording.
	Sink *trace.Recorder

	// ReturnType is the current function's return-type tag.
	ReturnType evidence.Tag

	// Fallible is true when the current function's return type admits an
	// error path, enabling `?` propagation on fallible sub-expressions.
	Fallible bool

	// MinimalRuntime selects self-contained emission over third-party
	// target crates.
	MinimalRuntime bool

	// Backends selects stub vs. library per stdlib namespace.
	Backends Backends

	// InClassMethod is true when lowering inside a class method, where the
	// special "cls" receiver maps to a Self type path.
	InClassMethod bool

	// locals overlays the evidence store with comprehension and closure
	// variables bound during this lowering.
	locals map[string]evidence.Tag
}

// withLocal returns a copy of the context with one extra local binding.
func (c *Context) withLocal(name string, t evidence.Tag) *Context {
	child := *c
	child.locals = make(map[string]evidence.Tag, len(c.locals)+1)
	for k, v := range c.locals {
		child.locals[k] = v
	}
	child.locals[name] = t
	return &child
}

// NewContext returns a context with defaults derived from the mode flags.
func NewContext(ev *evidence.Store, sink *trace.Recorder, minimalRuntime bool) *Context {
	return &Context{
		Evidence:       ev,
		Sink:           sink,
		MinimalRuntime: minimalRuntime,
		Backends:       DefaultBackends(minimalRuntime),
	}
}

func (c *Context) record(cat trace.Category, name, chosen string, alts []string, confidence float64) {
	c.Sink.Record(cat, name, chosen, alts, confidence)
}

// typeOf resolves the best evidence for an expression: the node's cached
// tag first, then shape-derived tags, then store lookups. Never fails;
// the bottom is Unknown.
func (c *Context) typeOf(e hir.Expr) evidence.Tag {
	if e == nil {
		return evidence.Unknown
	}
	if t := e.Type(); t.IsKnown() {
		return t
	}
	switch n := e.(type) {
	case hir.IntLit:
		return evidence.IntTag()
	case hir.FloatLit:
		return evidence.FloatTag()
	case hir.StringLit:
		return evidence.StrTag()
	case hir.BytesLit:
		return evidence.BytesTag()
	case hir.BoolLit:
		return evidence.BoolTag()
	case hir.NoneLit:
		return evidence.NoneTag()
	case hir.Name:
		if t, ok := c.locals[n.ID]; ok {
			return t
		}
		return c.Evidence.Lookup(n.ID)
	case hir.Attribute:
		if recv, ok := n.Receiver.(hir.Name); ok {
			return c.Evidence.LookupAttr(recv.ID, n.Attr)
		}
	case hir.ListLit:
		return evidence.ListOf(c.elemTag(n.Elems))
	case hir.SetLit:
		return evidence.SetOf(c.elemTag(n.Elems))
	case hir.TupleLit:
		tags := make([]evidence.Tag, len(n.Elems))
		for i, el := range n.Elems {
			tags[i] = c.typeOf(el)
		}
		return evidence.TupleOf(tags...)
	case hir.DictLit:
		return evidence.DictOf(c.elemTag(n.Keys), c.elemTag(n.Values))
	case hir.Subscript:
		recv := c.typeOf(n.Receiver)
		switch recv.Kind {
		case evidence.KindList:
			return recv.Elem(0)
		case evidence.KindDict:
			return recv.Value()
		case evidence.KindStr:
			return evidence.StrTag()
		}
	case hir.Compare:
		return evidence.BoolTag()
	case hir.Unary:
		if n.Op == hir.OpNot {
			return evidence.BoolTag()
		}
		return c.typeOf(n.Operand)
	}
	return evidence.Unknown
}

// elemTag unifies element tags: a single concrete tag when all elements
// agree, Unknown otherwise.
func (c *Context) elemTag(elems []hir.Expr) evidence.Tag {
	if len(elems) == 0 {
		return evidence.Unknown
	}
	t := c.typeOf(elems[0])
	for _, e := range elems[1:] {
		if !c.typeOf(e).Equal(t) {
			return evidence.Unknown
		}
	}
	return t
}

// pathOf renders the canonical fallibility path for an expression, the
// same notation the elaborator uses when marking fallible sites:
// "d" for names, "d[...]" for subscripts, "f()" for calls, "x.m()" for
// method calls. Unsupported shapes yield "".
func pathOf(e hir.Expr) string {
	switch n := e.(type) {
	case hir.Name:
		return n.ID
	case hir.Subscript:
		if base := pathOf(n.Receiver); base != "" {
			return base + "[...]"
		}
	case hir.Call:
		if base := pathOf(n.Func); base != "" {
			return base + "()"
		}
	case hir.MethodCall:
		if base := pathOf(n.Receiver); base != "" {
			return base + "." + n.Method + "()"
		}
	case hir.Attribute:
		if base := pathOf(n.Receiver); base != "" {
			return base + "." + n.Attr
		}
	}
	return ""
}

// isFallibleExpr reports whether the sub-expression may fail at runtime,
// per the elaborator's fallibility marks.
func (c *Context) isFallibleExpr(e hir.Expr) bool {
	p := pathOf(e)
	return p != "" && c.Evidence.IsFallibleAt(p)
}

// attrPath flattens a dotted receiver like os.path into "os.path".
// Returns "" when the shape is not a plain dotted name.
func attrPath(e hir.Expr) string {
	switch n := e.(type) {
	case hir.Name:
		return n.ID
	case hir.Attribute:
		if base := attrPath(n.Receiver); base != "" {
			return base + "." + n.Attr
		}
	}
	return ""
}

// isUpperIdent reports an identifier whose first character is uppercase,
// used to detect static invocations on user types.
func isUpperIdent(id string) bool {
	if id == "" {
		return false
	}
	r := id[0]
	return r >= 'A' && r <= 'Z'
}

// altNames joins alternative names for decision records.
func altNames(alts ...string) []string { return alts }

// namesOf is a printf-free helper for receiver.method decision names.
func decisionName(parts ...string) string { return strings.Join(parts, ".") }

package lower

import (
	"strconv"
	"strings"

	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
	"github.com/ferrous-lang/ferrous/internal/rust"
	"github.com/ferrous-lang/ferrous/internal/trace"
)

// Lower lowers a single expression tree to target form. It is the package
// entry point; drivers call it once per expression with a fresh or shared
// Context.
func Lower(c *Context, e hir.Expr) (rust.Expr, error) {
	if c == nil {
		c = NewContext(nil, nil, false)
	}
	if e == nil {
		return rust.Expr{}, errMalformed("nil expression")
	}
	return c.lower(e)
}

// LowerString is Lower followed by rendering, for callers that only want
// the emitted text.
func LowerString(c *Context, e hir.Expr) (string, error) {
	out, err := Lower(c, e)
	if err != nil {
		return "", err
	}
	return out.Render(), nil
}

// lower is the dispatch root of the bottom-up walk.
func (c *Context) lower(e hir.Expr) (rust.Expr, error) {
	switch n := e.(type) {
	case hir.IntLit:
		return rust.Atom(strconv.FormatInt(n.Value, 10)), nil
	case hir.FloatLit:
		return rust.Atom(floatText(n)), nil
	case hir.StringLit:
		return rust.StrLit(n.Value), nil
	case hir.BytesLit:
		return rust.ByteStrLit(n.Value), nil
	case hir.BoolLit:
		if n.Value {
			return rust.Atom("true"), nil
		}
		return rust.Atom("false"), nil
	case hir.NoneLit:
		return rust.Atom("None"), nil
	case hir.Name:
		return c.lowerName(n)
	case hir.Attribute:
		return c.lowerAttribute(n)
	case hir.Subscript:
		return c.lowerSubscript(n)
	case hir.SliceExpr:
		return c.lowerSlice(n)
	case hir.TupleLit:
		return c.lowerTuple(n)
	case hir.ListLit:
		return c.lowerList(n)
	case hir.SetLit:
		return c.lowerSet(n)
	case hir.DictLit:
		return c.lowerDict(n)
	case hir.Unary:
		return c.lowerUnary(n)
	case hir.Binary:
		return c.lowerBinary(n)
	case hir.Compare:
		return c.lowerCompare(n)
	case hir.BoolOp:
		return c.lowerBoolOp(n)
	case hir.Call:
		return c.lowerCall(n)
	case hir.MethodCall:
		return c.lowerMethodCall(n)
	case hir.Lambda:
		return c.lowerLambda(n)
	case hir.Comprehension:
		return c.lowerComprehension(n)
	case hir.IfExp:
		return c.lowerIfExp(n)
	case hir.FString:
		return c.lowerFString(n)
	case hir.Starred:
		return rust.Expr{}, errMalformed("spread argument outside a call")
	}
	return rust.Expr{}, errInternal("unhandled expression node %T", e)
}

func (c *Context) lowerName(n hir.Name) (rust.Expr, error) {
	if n.ID == "cls" && c.InClassMethod {
		return rust.Atom("Self"), nil
	}
	if !rust.ValidIdent(n.ID) {
		return rust.Expr{}, errInvalidIdent(n.ID)
	}
	return rust.Atom(rust.EscapeIdent(n.ID)), nil
}

// moduleConst maps dotted module attributes to target constant paths.
var moduleConst = map[string]string{
	"math.pi":  "std::f64::consts::PI",
	"math.e":   "std::f64::consts::E",
	"math.tau": "std::f64::consts::TAU",
	"math.inf": "f64::INFINITY",
	"math.nan": "f64::NAN",
	"sys.argv": "std::env::args().collect::<Vec<String>>()",
}

func (c *Context) lowerAttribute(n hir.Attribute) (rust.Expr, error) {
	if path := attrPath(n); path != "" {
		if target, ok := moduleConst[path]; ok {
			c.record(trace.CategoryMethod, path, target,
				altNames("module-constant", "field-access"), 1.0)
			return rust.Raw(target, rust.PrecPostfix), nil
		}
	}
	if !rust.ValidIdent(n.Attr) {
		return rust.Expr{}, errInvalidIdent(n.Attr)
	}
	recv, err := c.lowerOperand(n.Receiver)
	if err != nil {
		return rust.Expr{}, err
	}
	return rust.Field(recv, rust.EscapeIdent(n.Attr)), nil
}

// lowerCall handles plain calls: builtins, container constructors, and
// user functions. Dotted-callee calls are routed through the method
// rewriter so module-level rewrites apply in both shapes.
func (c *Context) lowerCall(n hir.Call) (rust.Expr, error) {
	for _, a := range n.Args {
		if _, ok := a.(hir.Starred); ok {
			return rust.Expr{}, errMalformed("spread argument in call")
		}
	}

	if attr, ok := n.Func.(hir.Attribute); ok {
		return c.lowerMethodCall(hir.MethodCall{
			Meta:     n.Meta,
			Receiver: attr.Receiver,
			Method:   attr.Attr,
			Args:     n.Args,
		})
	}

	name, ok := n.Func.(hir.Name)
	if !ok {
		// Calling a computed value: lower the callee and apply it.
		fn, err := c.lowerOperand(n.Func)
		if err != nil {
			return rust.Expr{}, err
		}
		args, err := c.lowerAll(n.Args)
		if err != nil {
			return rust.Expr{}, err
		}
		return rust.Call(fn, args...), nil
	}

	if out, handled, err := c.lowerBuiltin(name.ID, n.Args); handled || err != nil {
		return out, err
	}

	if !rust.ValidIdent(name.ID) {
		return rust.Expr{}, errInvalidIdent(name.ID)
	}
	args, err := c.lowerAll(n.Args)
	if err != nil {
		return rust.Expr{}, err
	}
	// Uppercase callees are user-type constructions.
	if isUpperIdent(name.ID) {
		c.record(trace.CategoryMethod, name.ID, name.ID+"::new",
			altNames("associated-new", "plain-call"), 0.9)
		return rust.Call(rust.Atom(name.ID+"::new"), args...), nil
	}
	return rust.Call(rust.Atom(rust.EscapeIdent(name.ID)), args...), nil
}

// lowerBuiltin rewrites recognized builtin calls. The bool result reports
// whether the name was claimed.
func (c *Context) lowerBuiltin(name string, args []hir.Expr) (rust.Expr, bool, error) {
	switch name {
	case "len":
		if len(args) != 1 {
			return rust.Expr{}, true, errArity("len", "1", len(args))
		}
		operand, err := c.lowerOperand(args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		if c.typeOf(args[0]).Kind == evidence.KindStr {
			// Character count, not byte count.
			c.record(trace.CategoryMethod, "len", "chars-count",
				altNames("chars-count", "byte-len"), 1.0)
			return rust.MethodCall(rust.MethodCall(operand, "chars"), "count"), true, nil
		}
		return rust.MethodCall(operand, "len"), true, nil

	case "str":
		if len(args) == 0 {
			return rust.Call(rust.Atom("String::new")), true, nil
		}
		if len(args) != 1 {
			return rust.Expr{}, true, errArity("str", "0 or 1", len(args))
		}
		operand, err := c.lowerOperand(args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		return rust.MethodCall(operand, "to_string"), true, nil

	case "int":
		return c.lowerIntCast(args)
	case "float":
		return c.lowerFloatCast(args)
	case "bool":
		return c.lowerBoolCast(args)

	case "abs":
		if len(args) != 1 {
			return rust.Expr{}, true, errArity("abs", "1", len(args))
		}
		operand, err := c.lowerOperand(args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		return rust.MethodCall(operand, "abs"), true, nil

	case "min", "max":
		if len(args) < 2 {
			return rust.Expr{}, false, nil // min(iterable) goes to the generic path
		}
		out, err := c.lowerOperand(args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		for _, a := range args[1:] {
			next, err := c.lowerOperand(a)
			if err != nil {
				return rust.Expr{}, true, err
			}
			out = rust.MethodCall(out, name, next)
		}
		return out, true, nil

	case "sum":
		if len(args) != 1 {
			return rust.Expr{}, true, errArity("sum", "1", len(args))
		}
		operand, err := c.lowerOperand(args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		elem := "i64"
		if c.typeOf(args[0]).Elem(0).Kind == evidence.KindFloat {
			elem = "f64"
		}
		return rust.TypedMethodCall(rust.MethodCall(operand, "iter"), "sum", elem), true, nil

	case "sorted":
		if len(args) != 1 {
			return rust.Expr{}, true, errArity("sorted", "1", len(args))
		}
		operand, err := c.lowerOperand(args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		return rust.Block([]string{
			"let mut __v = " + rust.MethodCall(operand, "clone").Render() + ";",
			"__v.sort();",
		}, rust.Atom("__v")), true, nil

	case "reversed":
		if len(args) != 1 {
			return rust.Expr{}, true, errArity("reversed", "1", len(args))
		}
		operand, err := c.lowerOperand(args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		chain := rust.MethodCall(rust.MethodCall(
			rust.MethodCall(operand, "iter"), "rev"), "cloned")
		return rust.TypedMethodCall(chain, "collect", "Vec<_>"), true, nil

	case "range":
		out, err := c.rangeExpr(args)
		return out, true, err

	case "round":
		if len(args) != 1 {
			return rust.Expr{}, true, errArity("round", "1", len(args))
		}
		operand, err := c.lowerOperand(args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		return rust.Cast(rust.MethodCall(operand, "round"), "i64"), true, nil

	case "ord":
		if len(args) != 1 {
			return rust.Expr{}, true, errArity("ord", "1", len(args))
		}
		if r, ok := singleCharLit(args[0]); ok {
			return rust.Cast(rust.CharLit(r), "i64"), true, nil
		}
		operand, err := c.lowerOperand(args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		return rust.Cast(operand, "i64"), true, nil

	case "chr":
		if len(args) != 1 {
			return rust.Expr{}, true, errArity("chr", "1", len(args))
		}
		operand, err := c.lowerOperand(args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		return rust.MethodCall(
			rust.Call(rust.Atom("char::from_u32"), rust.Cast(operand, "u32")),
			"unwrap"), true, nil

	case "list":
		if len(args) == 0 {
			return rust.Call(rust.Atom("Vec::new")), true, nil
		}
		operand, err := c.lowerOperand(args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		chain := rust.MethodCall(rust.MethodCall(operand, "iter"), "cloned")
		return rust.TypedMethodCall(chain, "collect", "Vec<_>"), true, nil

	case "set":
		if len(args) == 0 {
			return rust.Call(rust.Atom("HashSet::new")), true, nil
		}
		operand, err := c.lowerOperand(args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		chain := rust.MethodCall(rust.MethodCall(operand, "iter"), "cloned")
		return rust.TypedMethodCall(chain, "collect", "HashSet<_>"), true, nil

	case "dict":
		if len(args) == 0 {
			return rust.Call(rust.Atom("HashMap::new")), true, nil
		}
		return rust.Expr{}, false, nil

	case "enumerate":
		if len(args) != 1 {
			return rust.Expr{}, true, errArity("enumerate", "1", len(args))
		}
		operand, err := c.lowerOperand(args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		return rust.MethodCall(rust.MethodCall(operand, "iter"), "enumerate"), true, nil

	case "zip":
		if len(args) != 2 {
			return rust.Expr{}, true, errArity("zip", "2", len(args))
		}
		lhs, rhs, err := c.lowerOperands(args[0], args[1])
		if err != nil {
			return rust.Expr{}, true, err
		}
		return rust.MethodCall(rust.MethodCall(lhs, "iter"),
			"zip", rust.MethodCall(rhs, "iter")), true, nil

	case "print":
		return c.lowerPrint(args)
	}
	return rust.Expr{}, false, nil
}

func (c *Context) lowerIntCast(args []hir.Expr) (rust.Expr, bool, error) {
	if len(args) == 0 {
		return rust.Atom("0"), true, nil
	}
	if len(args) != 1 {
		return rust.Expr{}, true, errArity("int", "0 or 1", len(args))
	}
	operand, err := c.lowerOperand(args[0])
	if err != nil {
		return rust.Expr{}, true, err
	}
	switch c.typeOf(args[0]).Kind {
	case evidence.KindInt:
		return operand, true, nil
	case evidence.KindFloat, evidence.KindBool:
		return rust.Cast(operand, "i64"), true, nil
	case evidence.KindStr:
		c.record(trace.CategoryCoercion, "int_from_string", "trim-parse",
			altNames("trim-parse", "cast"), 1.0)
		parsed := rust.TypedMethodCall(rust.MethodCall(operand, "trim"), "parse", "i64")
		return rust.MethodCall(parsed, "unwrap"), true, nil
	}
	// Tagged values convert through the runtime surface.
	return rust.MethodCall(operand, "as_int"), true, nil
}

func (c *Context) lowerFloatCast(args []hir.Expr) (rust.Expr, bool, error) {
	if len(args) == 0 {
		return rust.Atom("0.0"), true, nil
	}
	if len(args) != 1 {
		return rust.Expr{}, true, errArity("float", "0 or 1", len(args))
	}
	if lit, ok := args[0].(hir.IntLit); ok {
		return rust.Atom(floatLitText(lit.Value)), true, nil
	}
	operand, err := c.lowerOperand(args[0])
	if err != nil {
		return rust.Expr{}, true, err
	}
	switch c.typeOf(args[0]).Kind {
	case evidence.KindFloat:
		return operand, true, nil
	case evidence.KindInt, evidence.KindBool:
		return rust.Cast(operand, "f64"), true, nil
	case evidence.KindStr:
		parsed := rust.TypedMethodCall(rust.MethodCall(operand, "trim"), "parse", "f64")
		return rust.MethodCall(parsed, "unwrap"), true, nil
	}
	return rust.MethodCall(operand, "as_float"), true, nil
}

func (c *Context) lowerBoolCast(args []hir.Expr) (rust.Expr, bool, error) {
	if len(args) == 0 {
		return rust.Atom("false"), true, nil
	}
	if len(args) != 1 {
		return rust.Expr{}, true, errArity("bool", "0 or 1", len(args))
	}
	operand, err := c.lowerOperand(args[0])
	if err != nil {
		return rust.Expr{}, true, err
	}
	switch c.typeOf(args[0]).Kind {
	case evidence.KindBool:
		return operand, true, nil
	case evidence.KindInt:
		return rust.Binary("!=", operand, rust.Atom("0")), true, nil
	case evidence.KindFloat:
		return rust.Binary("!=", operand, rust.Atom("0.0")), true, nil
	case evidence.KindStr:
		return rust.Unary("!", rust.MethodCall(operand, "is_empty")), true, nil
	case evidence.KindList, evidence.KindSet, evidence.KindDict:
		return rust.Unary("!", rust.MethodCall(operand, "is_empty")), true, nil
	}
	c.record(trace.CategoryCoercion, "bool_truthiness", "is_true",
		altNames("is_true", "native-cast"), 1.0)
	return rust.MethodCall(operand, "is_true"), true, nil
}

// rangeExpr lowers range(...) to a target range, parenthesized so it
// composes in method position.
func (c *Context) rangeExpr(args []hir.Expr) (rust.Expr, error) {
	switch len(args) {
	case 1:
		hi, err := c.lowerOperand(args[0])
		if err != nil {
			return rust.Expr{}, err
		}
		return rust.Paren(rust.Raw("0.."+hi.Render(), rust.PrecLowest)), nil
	case 2:
		lo, hi, err := c.lowerOperands(args[0], args[1])
		if err != nil {
			return rust.Expr{}, err
		}
		return rust.Paren(rust.Raw(lo.Render()+".."+hi.Render(), rust.PrecLowest)), nil
	case 3:
		step, ok := args[2].(hir.IntLit)
		if !ok || step.Value <= 0 {
			return rust.Expr{}, errMalformed("range step must be a positive integer literal")
		}
		lo, hi, err := c.lowerOperands(args[0], args[1])
		if err != nil {
			return rust.Expr{}, err
		}
		base := rust.Paren(rust.Raw(lo.Render()+".."+hi.Render(), rust.PrecLowest))
		return rust.MethodCall(base, "step_by", rust.Atomf("%d", step.Value)), nil
	}
	return rust.Expr{}, errArity("range", "1 to 3", len(args))
}

func (c *Context) lowerPrint(args []hir.Expr) (rust.Expr, bool, error) {
	if len(args) == 0 {
		return rust.MacroCall("println"), true, nil
	}
	placeholders := make([]string, len(args))
	lowered := make([]rust.Expr, 0, len(args)+1)
	lowered = append(lowered, rust.Expr{}) // format slot, filled below
	for i, a := range args {
		placeholders[i] = "{}"
		if lit, ok := a.(hir.StringLit); ok {
			placeholders[i] = fstringEscape(lit.Value)
			continue
		}
		out, err := c.lowerOperand(a)
		if err != nil {
			return rust.Expr{}, true, err
		}
		lowered = append(lowered, out)
	}
	lowered[0] = rust.StrLit(strings.Join(placeholders, " "))
	return rust.MacroCall("println", lowered...), true, nil
}

func (c *Context) lowerLambda(n hir.Lambda) (rust.Expr, error) {
	params := make([]string, len(n.Params))
	for i, p := range n.Params {
		if !rust.ValidIdent(p) {
			return rust.Expr{}, errInvalidIdent(p)
		}
		params[i] = rust.EscapeIdent(p)
	}
	body, err := c.lowerOperand(n.Body)
	if err != nil {
		return rust.Expr{}, err
	}
	return rust.Closure(params, body, false), nil
}

// lowerComprehension compiles a single-clause comprehension to an
// iterator chain. Source order is preserved: iterate, filter, map,
// collect.
func (c *Context) lowerComprehension(n hir.Comprehension) (rust.Expr, error) {
	if !rust.ValidIdent(n.Var) {
		return rust.Expr{}, errInvalidIdent(n.Var)
	}
	iter, elemTag, err := c.iterSource(n.Iter)
	if err != nil {
		return rust.Expr{}, err
	}
	inner := c.withLocal(n.Var, elemTag)
	v := rust.EscapeIdent(n.Var)

	chain := iter
	if n.Cond != nil {
		cond, err := inner.lowerCondition(n.Cond)
		if err != nil {
			return rust.Expr{}, err
		}
		// The predicate sees `&Item`; destructuring with `|&v|` would move
		// out of the reference, which only compiles for Copy elements.
		// Clone behind the binding instead so string and struct elements
		// filter the same way.
		body := rust.Block([]string{"let " + v + " = (*" + v + ").clone();"}, cond)
		chain = rust.MethodCall(chain, "filter", rust.Closure([]string{v}, body, false))
	}

	var mapped rust.Expr
	if n.Kind == hir.CompDict {
		key, err := inner.lowerOperand(n.KeyElem)
		if err != nil {
			return rust.Expr{}, err
		}
		val, err := inner.lowerOperand(n.Elem)
		if err != nil {
			return rust.Expr{}, err
		}
		mapped = rust.Tuple(key, val)
	} else {
		mapped, err = inner.lowerOperand(n.Elem)
		if err != nil {
			return rust.Expr{}, err
		}
	}
	// Identity maps still go through map() so every family collects the
	// same shape.
	chain = rust.MethodCall(chain, "map", rust.Closure([]string{v}, mapped, false))

	switch n.Kind {
	case hir.CompList:
		c.record(trace.CategoryTypeMapping, "comprehension_list", "iterator-chain",
			altNames("iterator-chain", "loop-push"), 1.0)
		return rust.TypedMethodCall(chain, "collect", "Vec<_>"), nil
	case hir.CompSet:
		return rust.TypedMethodCall(chain, "collect", "HashSet<_>"), nil
	case hir.CompDict:
		return rust.TypedMethodCall(chain, "collect", "HashMap<_, _>"), nil
	case hir.CompGenerator:
		return chain, nil
	}
	return rust.Expr{}, errInternal("unknown comprehension kind %d", int(n.Kind))
}

// iterSource lowers a comprehension source to an owned-item iterator and
// reports the element tag for the bound variable.
func (c *Context) iterSource(e hir.Expr) (rust.Expr, evidence.Tag, error) {
	// range(...) is already an iterator of owned integers.
	if call, ok := e.(hir.Call); ok {
		if name, ok := call.Func.(hir.Name); ok && name.ID == "range" {
			out, err := c.rangeExpr(call.Args)
			return out, evidence.IntTag(), err
		}
	}
	operand, err := c.lowerOperand(e)
	if err != nil {
		return rust.Expr{}, evidence.Unknown, err
	}
	t := c.typeOf(e)
	switch t.Kind {
	case evidence.KindStr:
		return rust.MethodCall(operand, "chars"), evidence.StrTag(), nil
	case evidence.KindDict:
		return rust.MethodCall(rust.MethodCall(operand, "keys"), "cloned"), t.Key(), nil
	}
	return rust.MethodCall(rust.MethodCall(operand, "iter"), "cloned"), t.Elem(0), nil
}

// lowerCondition lowers an expression used as a boolean test, inserting
// the truthiness conversion when evidence does not show a native bool.
func (c *Context) lowerCondition(e hir.Expr) (rust.Expr, error) {
	out, err := c.lowerOperand(e)
	if err != nil {
		return rust.Expr{}, err
	}
	switch c.typeOf(e).Kind {
	case evidence.KindBool:
		return out, nil
	case evidence.KindInt:
		return rust.Binary("!=", out, rust.Atom("0")), nil
	case evidence.KindStr, evidence.KindList, evidence.KindSet, evidence.KindDict:
		return rust.Unary("!", rust.MethodCall(out, "is_empty")), nil
	case evidence.KindOptional:
		return rust.MethodCall(out, "is_some"), nil
	}
	c.record(trace.CategoryCoercion, "condition_truthiness", "is_true",
		altNames("is_true", "native-bool"), 1.0)
	return rust.MethodCall(out, "is_true"), nil
}

func (c *Context) lowerIfExp(n hir.IfExp) (rust.Expr, error) {
	cond, err := c.lowerCondition(n.Cond)
	if err != nil {
		return rust.Expr{}, err
	}
	then, err := c.lowerOperand(n.Body)
	if err != nil {
		return rust.Expr{}, err
	}
	els, err := c.lowerOperand(n.Orelse)
	if err != nil {
		return rust.Expr{}, err
	}
	// String-typed arms are lifted to the owned form so both agree.
	if c.typeOf(n.Body).Kind == evidence.KindStr && c.typeOf(n.Orelse).Kind == evidence.KindStr &&
		(isStringLit(n.Body) || isStringLit(n.Orelse)) {
		then = ownedString(n.Body, then)
		els = ownedString(n.Orelse, els)
	}
	return rust.IfElse(cond, then, els), nil
}

// lowerFString compiles an interpolated string to the format macro:
// literal runs become format text with braces doubled, interpolations
// become {} slots in order.
func (c *Context) lowerFString(n hir.FString) (rust.Expr, error) {
	var format strings.Builder
	args := []rust.Expr{{}}
	for _, part := range n.Parts {
		if lit, ok := part.(hir.StringLit); ok {
			format.WriteString(fstringEscape(lit.Value))
			continue
		}
		out, err := c.lowerOperand(part)
		if err != nil {
			return rust.Expr{}, err
		}
		format.WriteString("{}")
		args = append(args, out)
	}
	args[0] = rust.StrLit(format.String())
	c.record(trace.CategoryMethod, "fstring", "format-macro",
		altNames("format-macro", "push_str-chain"), 1.0)
	return rust.MacroCall("format", args...), nil
}

package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
)

// parseExpr parses one expression node. Every node is a struct with a
// "kind" discriminator; an optional "tag" field attaches cached evidence.
func parseExpr(v cue.Value) (hir.Expr, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	kind, err := v.LookupPath(cue.ParsePath("kind")).String()
	if err != nil {
		return nil, &CompileError{
			Field:   "expr.kind",
			Message: "every expression node needs a kind discriminator",
			Pos:     v.Pos(),
		}
	}
	meta, err := parseMeta(v)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "int":
		n, err := v.LookupPath(cue.ParsePath("value")).Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return hir.IntLit{Meta: meta, Value: n}, nil

	case "float":
		f, err := v.LookupPath(cue.ParsePath("value")).Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		text := ""
		if tv := v.LookupPath(cue.ParsePath("text")); tv.Exists() {
			if text, err = tv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		return hir.FloatLit{Meta: meta, Value: f, Text: text}, nil

	case "str":
		s, err := v.LookupPath(cue.ParsePath("value")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return hir.StringLit{Meta: meta, Value: s}, nil

	case "bytes":
		b, err := v.LookupPath(cue.ParsePath("value")).Bytes()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return hir.BytesLit{Meta: meta, Value: b}, nil

	case "bool":
		b, err := v.LookupPath(cue.ParsePath("value")).Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return hir.BoolLit{Meta: meta, Value: b}, nil

	case "none":
		return hir.NoneLit{Meta: meta}, nil

	case "name":
		id, err := v.LookupPath(cue.ParsePath("id")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return hir.Name{Meta: meta, ID: id}, nil

	case "attr":
		recv, err := parseExpr(v.LookupPath(cue.ParsePath("receiver")))
		if err != nil {
			return nil, err
		}
		attr, err := v.LookupPath(cue.ParsePath("attr")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return hir.Attribute{Meta: meta, Receiver: recv, Attr: attr}, nil

	case "subscript":
		recv, err := parseExpr(v.LookupPath(cue.ParsePath("receiver")))
		if err != nil {
			return nil, err
		}
		idx, err := parseExpr(v.LookupPath(cue.ParsePath("index")))
		if err != nil {
			return nil, err
		}
		return hir.Subscript{Meta: meta, Receiver: recv, Index: idx}, nil

	case "slice":
		recv, err := parseExpr(v.LookupPath(cue.ParsePath("receiver")))
		if err != nil {
			return nil, err
		}
		low, err := parseOptExpr(v, "low")
		if err != nil {
			return nil, err
		}
		high, err := parseOptExpr(v, "high")
		if err != nil {
			return nil, err
		}
		step, err := parseOptExpr(v, "step")
		if err != nil {
			return nil, err
		}
		return hir.SliceExpr{Meta: meta, Receiver: recv, Low: low, High: high, Step: step}, nil

	case "tuple", "list", "set":
		elems, err := parseExprList(v, "elems")
		if err != nil {
			return nil, err
		}
		switch kind {
		case "tuple":
			return hir.TupleLit{Meta: meta, Elems: elems}, nil
		case "list":
			return hir.ListLit{Meta: meta, Elems: elems}, nil
		}
		return hir.SetLit{Meta: meta, Elems: elems}, nil

	case "dict":
		keys, err := parseExprList(v, "keys")
		if err != nil {
			return nil, err
		}
		values, err := parseExprList(v, "values")
		if err != nil {
			return nil, err
		}
		if len(keys) != len(values) {
			return nil, &CompileError{
				Field:   "expr.dict",
				Message: fmt.Sprintf("%d keys but %d values", len(keys), len(values)),
				Pos:     v.Pos(),
			}
		}
		return hir.DictLit{Meta: meta, Keys: keys, Values: values}, nil

	case "unary":
		op, err := v.LookupPath(cue.ParsePath("op")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		operand, err := parseExpr(v.LookupPath(cue.ParsePath("operand")))
		if err != nil {
			return nil, err
		}
		return hir.Unary{Meta: meta, Op: hir.UnOp(op), Operand: operand}, nil

	case "binary":
		op, err := v.LookupPath(cue.ParsePath("op")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		left, err := parseExpr(v.LookupPath(cue.ParsePath("left")))
		if err != nil {
			return nil, err
		}
		right, err := parseExpr(v.LookupPath(cue.ParsePath("right")))
		if err != nil {
			return nil, err
		}
		return hir.Binary{Meta: meta, Op: hir.BinOp(op), Left: left, Right: right}, nil

	case "compare":
		left, err := parseExpr(v.LookupPath(cue.ParsePath("left")))
		if err != nil {
			return nil, err
		}
		opsVal := v.LookupPath(cue.ParsePath("ops"))
		opsIter, err := opsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var ops []hir.CmpOp
		for opsIter.Next() {
			op, err := opsIter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			ops = append(ops, hir.CmpOp(op))
		}
		rest, err := parseExprList(v, "rest")
		if err != nil {
			return nil, err
		}
		return hir.Compare{Meta: meta, Left: left, Ops: ops, Rest: rest}, nil

	case "boolop":
		op, err := v.LookupPath(cue.ParsePath("op")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		values, err := parseExprList(v, "values")
		if err != nil {
			return nil, err
		}
		return hir.BoolOp{Meta: meta, Op: hir.BoolOpKind(op), Values: values}, nil

	case "call":
		fn, err := parseExpr(v.LookupPath(cue.ParsePath("func")))
		if err != nil {
			return nil, err
		}
		args, err := parseExprList(v, "args")
		if err != nil {
			return nil, err
		}
		return hir.Call{Meta: meta, Func: fn, Args: args}, nil

	case "method":
		recv, err := parseExpr(v.LookupPath(cue.ParsePath("receiver")))
		if err != nil {
			return nil, err
		}
		method, err := v.LookupPath(cue.ParsePath("method")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		args, err := parseExprList(v, "args")
		if err != nil {
			return nil, err
		}
		return hir.MethodCall{Meta: meta, Receiver: recv, Method: method, Args: args}, nil

	case "lambda":
		paramsVal := v.LookupPath(cue.ParsePath("params"))
		var params []string
		if paramsVal.Exists() {
			iter, err := paramsVal.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for iter.Next() {
				p, err := iter.Value().String()
				if err != nil {
					return nil, formatCUEError(err)
				}
				params = append(params, p)
			}
		}
		body, err := parseExpr(v.LookupPath(cue.ParsePath("body")))
		if err != nil {
			return nil, err
		}
		return hir.Lambda{Meta: meta, Params: params, Body: body}, nil

	case "comprehension":
		family, err := v.LookupPath(cue.ParsePath("family")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var ck hir.CompKind
		switch family {
		case "list":
			ck = hir.CompList
		case "set":
			ck = hir.CompSet
		case "dict":
			ck = hir.CompDict
		case "generator":
			ck = hir.CompGenerator
		default:
			return nil, &CompileError{
				Field:   "expr.comprehension",
				Message: fmt.Sprintf("unknown family %q", family),
				Pos:     v.Pos(),
			}
		}
		varName, err := v.LookupPath(cue.ParsePath("var")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		iterExpr, err := parseExpr(v.LookupPath(cue.ParsePath("iter")))
		if err != nil {
			return nil, err
		}
		elem, err := parseExpr(v.LookupPath(cue.ParsePath("elem")))
		if err != nil {
			return nil, err
		}
		keyElem, err := parseOptExpr(v, "key")
		if err != nil {
			return nil, err
		}
		cond, err := parseOptExpr(v, "cond")
		if err != nil {
			return nil, err
		}
		return hir.Comprehension{
			Meta: meta, Kind: ck, KeyElem: keyElem, Elem: elem,
			Var: varName, Iter: iterExpr, Cond: cond,
		}, nil

	case "ifexp":
		cond, err := parseExpr(v.LookupPath(cue.ParsePath("cond")))
		if err != nil {
			return nil, err
		}
		body, err := parseExpr(v.LookupPath(cue.ParsePath("body")))
		if err != nil {
			return nil, err
		}
		orelse, err := parseExpr(v.LookupPath(cue.ParsePath("orelse")))
		if err != nil {
			return nil, err
		}
		return hir.IfExp{Meta: meta, Cond: cond, Body: body, Orelse: orelse}, nil

	case "fstring":
		parts, err := parseExprList(v, "parts")
		if err != nil {
			return nil, err
		}
		return hir.FString{Meta: meta, Parts: parts}, nil

	case "starred":
		operand, err := parseExpr(v.LookupPath(cue.ParsePath("operand")))
		if err != nil {
			return nil, err
		}
		return hir.Starred{Meta: meta, Operand: operand}, nil
	}

	return nil, &CompileError{
		Field:   "expr.kind",
		Message: fmt.Sprintf("unknown expression kind %q", kind),
		Pos:     v.Pos(),
	}
}

func parseMeta(v cue.Value) (hir.Meta, error) {
	tv := v.LookupPath(cue.ParsePath("tag"))
	if !tv.Exists() {
		return hir.Meta{}, nil
	}
	tag, err := tv.String()
	if err != nil {
		return hir.Meta{}, formatCUEError(err)
	}
	return hir.Tagged(evidence.ParseTag(tag)), nil
}

func parseOptExpr(v cue.Value, field string) (hir.Expr, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	return parseExpr(fv)
}

func parseExprList(v cue.Value, field string) ([]hir.Expr, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []hir.Expr
	for iter.Next() {
		e, err := parseExpr(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

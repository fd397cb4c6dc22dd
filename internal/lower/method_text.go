package lower

import (
	"github.com/ferrous-lang/ferrous/internal/hir"
	"github.com/ferrous-lang/ferrous/internal/rust"
	"github.com/ferrous-lang/ferrous/internal/trace"
)

// charPredicate maps the character-class tests onto char methods.
var charPredicate = map[string]string{
	"isdigit": "is_ascii_digit",
	"isalpha": "is_alphabetic",
	"isalnum": "is_alphanumeric",
	"isspace": "is_whitespace",
	"isupper": "is_uppercase",
	"islower": "is_lowercase",
}

// lowerStringMethod rewrites the string method vocabulary. Receivers with
// char-iteration evidence get the char forms directly.
func (c *Context) lowerStringMethod(n hir.MethodCall) (rust.Expr, bool, error) {
	recv, err := c.lowerOperand(n.Receiver)
	if err != nil {
		return rust.Expr{}, true, err
	}
	rewrite := func(target string, out rust.Expr) (rust.Expr, bool, error) {
		c.record(trace.CategoryMethod, decisionName("str", n.Method), target,
			altNames(target, "generic-call"), 1.0)
		return out, true, nil
	}

	if pred, ok := charPredicate[n.Method]; ok {
		if len(n.Args) != 0 {
			return rust.Expr{}, true, errArity(n.Method, "0", len(n.Args))
		}
		if c.isCharIterName(n.Receiver) {
			return rewrite(pred, rust.MethodCall(recv, pred))
		}
		// Whole-string test: every char satisfies the class and the string
		// is nonempty, matching the source semantics on "".
		all := rust.MethodCall(rust.MethodCall(recv, "chars"), "all",
			rust.Closure([]string{"__c"}, rust.MethodCall(rust.Atom("__c"), pred), false))
		return rewrite("chars-all-"+pred,
			rust.Binary("&&", rust.Unary("!", rust.MethodCall(recv, "is_empty")), all))
	}

	switch n.Method {
	case "upper":
		return rewrite("to_uppercase", rust.MethodCall(recv, "to_uppercase"))
	case "lower":
		return rewrite("to_lowercase", rust.MethodCall(recv, "to_lowercase"))

	case "strip", "lstrip", "rstrip":
		target := map[string]string{"strip": "trim", "lstrip": "trim_start", "rstrip": "trim_end"}[n.Method]
		if len(n.Args) == 0 {
			return rewrite(target, rust.MethodCall(rust.MethodCall(recv, target), "to_string"))
		}
		arg, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		pred := rust.Closure([]string{"__c: char"},
			rust.MethodCall(arg, "contains", rust.Atom("__c")), false)
		return rewrite(target+"_matches",
			rust.MethodCall(rust.MethodCall(recv, target+"_matches", pred), "to_string"))

	case "startswith", "endswith":
		target := "starts_with"
		if n.Method == "endswith" {
			target = "ends_with"
		}
		arg, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		return rewrite(target, rust.MethodCall(recv, target, arg))

	case "split":
		if len(n.Args) == 0 {
			chain := rust.MethodCall(rust.MethodCall(recv, "split_whitespace"),
				"map", ownedStringClosure())
			return rewrite("split_whitespace",
				rust.TypedMethodCall(chain, "collect", "Vec<String>"))
		}
		if len(n.Args) == 2 {
			sep, maxsplit, err := c.lowerOperands(n.Args[0], n.Args[1])
			if err != nil {
				return rust.Expr{}, true, err
			}
			// splitn counts pieces, not cuts.
			var pieces rust.Expr
			if lit, ok := n.Args[1].(hir.IntLit); ok {
				pieces = rust.Atomf("%dusize", lit.Value+1)
			} else {
				pieces = rust.Cast(rust.Paren(rust.Binary("+", maxsplit, rust.Atom("1"))), "usize")
			}
			chain := rust.MethodCall(rust.MethodCall(recv, "splitn", pieces, sep),
				"map", ownedStringClosure())
			return rewrite("splitn",
				rust.TypedMethodCall(chain, "collect", "Vec<String>"))
		}
		sep, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		chain := rust.MethodCall(rust.MethodCall(recv, "split", sep),
			"map", ownedStringClosure())
		return rewrite("split",
			rust.TypedMethodCall(chain, "collect", "Vec<String>"))

	case "splitlines":
		if len(n.Args) != 0 {
			return rust.Expr{}, true, errArity("splitlines", "0", len(n.Args))
		}
		chain := rust.MethodCall(rust.MethodCall(recv, "lines"),
			"map", ownedStringClosure())
		return rewrite("lines",
			rust.TypedMethodCall(chain, "collect", "Vec<String>"))

	case "join":
		// Separator receiver becomes the join argument.
		parts, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		var sep rust.Expr
		if lit, ok := n.Receiver.(hir.StringLit); ok {
			sep = rust.StrLit(lit.Value)
		} else {
			sep = rust.MethodCall(recv, "as_str")
		}
		c.record(trace.CategoryMethod, "str.join", "receiver-flip",
			altNames("receiver-flip", "generic-call"), 1.0)
		return rust.MethodCall(parts, "join", sep), true, nil

	case "replace":
		if len(n.Args) != 2 {
			return rust.Expr{}, true, errArity("replace", "2", len(n.Args))
		}
		from, err := c.lowerOperand(n.Args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		to, err := c.lowerOperand(n.Args[1])
		if err != nil {
			return rust.Expr{}, true, err
		}
		return rewrite("replace", rust.MethodCall(recv, "replace", from, to))

	case "find", "rfind":
		arg, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		found := rust.MethodCall(rust.MethodCall(rust.MethodCall(recv, n.Method, arg),
			"map", rust.Closure([]string{"__i"}, rust.Cast(rust.Atom("__i"), "i64"), false)),
			"unwrap_or", rust.Atom("-1"))
		// The miss sentinel survives the rewrite.
		return rewrite(n.Method+"-or-sentinel", found)

	case "index":
		arg, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		return rewrite("find-unwrap",
			rust.Cast(rust.MethodCall(rust.MethodCall(recv, "find", arg), "unwrap"), "i64"))

	case "count":
		arg, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		return rewrite("matches-count",
			rust.Cast(rust.MethodCall(rust.MethodCall(recv, "matches", arg), "count"), "i64"))

	case "zfill":
		width, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		return rewrite("pad-format", rust.MacroCall("format",
			rust.Atom(`"{:0>1$}"`), recv, rust.Cast(width, "usize")))

	case "encode":
		if len(n.Args) != 0 {
			return rust.Expr{}, true, errArity("encode", "0", len(n.Args))
		}
		return rewrite("as_bytes-to_vec",
			rust.MethodCall(rust.MethodCall(recv, "as_bytes"), "to_vec"))

	case "title", "capitalize", "casefold", "format":
		// No idiomatic single-call target; leave to the generic path so the
		// failure is a missing method, not silent drift.
		return rust.Expr{}, false, nil
	}
	return rust.Expr{}, false, nil
}

func ownedStringClosure() rust.Expr {
	return rust.Closure([]string{"__s"},
		rust.MethodCall(rust.Atom("__s"), "to_string"), false)
}

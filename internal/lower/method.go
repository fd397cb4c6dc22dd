package lower

import (
	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
	"github.com/ferrous-lang/ferrous/internal/rust"
	"github.com/ferrous-lang/ferrous/internal/trace"
)

// lowerMethodCall is the dispatch root for receiver.method(args). Rewrite
// families are tried in a fixed order; the first claim wins:
//
//  1. class-method receiver (cls) and uppercase type receivers become
//     associated calls,
//  2. stdlib module namespaces (os, re, json, math, ...) go to their
//     dedicated rewriters,
//  3. string methods dispatch on string evidence,
//  4. container methods normalize to the target container vocabulary,
//  5. everything else is a plain method call with identifier escaping.
func (c *Context) lowerMethodCall(n hir.MethodCall) (rust.Expr, error) {
	if n.Method == "" {
		return rust.Expr{}, errMalformed("method call with empty method name")
	}

	if name, ok := n.Receiver.(hir.Name); ok && c.isModuleName(name.ID) {
		if name.ID == "cls" && c.InClassMethod {
			return c.associatedCall("Self", n)
		}
		if isUpperIdent(name.ID) {
			c.record(trace.CategoryMethod, decisionName(name.ID, n.Method), "associated-call",
				altNames("associated-call", "instance-call"), 1.0)
			return c.associatedCall(name.ID, n)
		}
		if out, handled, err := c.lowerModuleCall(name.ID, n); handled || err != nil {
			return out, err
		}
	}
	if path := attrPath(n.Receiver); path != "" && c.isModulePath(n.Receiver) {
		if out, handled, err := c.lowerModuleCall(path, n); handled || err != nil {
			return out, err
		}
	}

	recvTag := c.typeOf(n.Receiver)
	if recvTag.Kind == evidence.KindStr || c.isCharIterName(n.Receiver) {
		if out, handled, err := c.lowerStringMethod(n); handled || err != nil {
			return out, err
		}
	}
	switch recvTag.Kind {
	case evidence.KindList, evidence.KindSet, evidence.KindDict, evidence.KindNativeArray:
		if out, handled, err := c.lowerContainerMethod(n, recvTag); handled || err != nil {
			return out, err
		}
	case evidence.KindDate, evidence.KindDateTime, evidence.KindTimeDelta,
		evidence.KindRegexMatch:
		if out, handled, err := c.lowerRuntimeObjectMethod(n, recvTag); handled || err != nil {
			return out, err
		}
	}
	// Deque-only names identify the receiver even without evidence.
	if out, handled, err := c.lowerDequeMethod(n); handled || err != nil {
		return out, err
	}

	return c.genericMethodCall(n)
}

// isModuleName reports a bare identifier that carries no value evidence
// and so can be a module namespace. A local variable shadowing a module
// name always wins.
func (c *Context) isModuleName(id string) bool {
	if _, ok := c.locals[id]; ok {
		return false
	}
	return !c.Evidence.Lookup(id).IsKnown()
}

// isModulePath reports a dotted name (os.path, datetime.date) whose root
// is a module namespace.
func (c *Context) isModulePath(e hir.Expr) bool {
	for {
		attr, ok := e.(hir.Attribute)
		if !ok {
			break
		}
		e = attr.Receiver
	}
	name, ok := e.(hir.Name)
	return ok && c.isModuleName(name.ID)
}

// lowerModuleCall routes a namespace call to its rewriter family.
func (c *Context) lowerModuleCall(path string, n hir.MethodCall) (rust.Expr, bool, error) {
	switch path {
	case "os":
		return c.lowerOSCall(n)
	case "os.path":
		return c.lowerPathCall(n)
	case "os.environ":
		return c.lowerEnvironCall(n)
	case "sys":
		return c.lowerSysCall(n)
	case "sys.stdout", "sys.stderr":
		return c.lowerStdStreamCall(path, n)
	case "re":
		return c.lowerRegexCall(n)
	case "json":
		return c.lowerJSONCall(n)
	case "base64", "binascii":
		return c.lowerCodecCall(path, n)
	case "hashlib":
		return c.lowerHashCall(n)
	case "colorsys":
		return c.lowerColorsysCall(n)
	case "math":
		return c.lowerMathCall(n)
	case "random":
		return c.lowerRandomCall(n)
	case "time":
		return c.lowerTimeCall(n)
	case "datetime.date", "datetime.datetime", "datetime.timedelta", "date", "datetime", "timedelta":
		return c.lowerDatetimeCall(path, n)
	case "dict":
		return c.lowerDictStatic(n)
	case "int":
		return c.lowerIntStatic(n)
	case "threading", "queue", "collections":
		return c.lowerConstructorCall(path, n)
	}
	return rust.Expr{}, false, nil
}

// lowerConstructorCall maps the concurrency and container constructors
// onto std types. Semaphore has no std counterpart, so a counting
// semaphore degrades to a mutex around its count.
func (c *Context) lowerConstructorCall(module string, n hir.MethodCall) (rust.Expr, bool, error) {
	switch module + "." + n.Method {
	case "threading.Lock", "threading.RLock":
		if len(n.Args) != 0 {
			return rust.Expr{}, false, errArity(module+"."+n.Method, "0", len(n.Args))
		}
		c.record(trace.CategoryMethod, module+"."+n.Method, "std-mutex",
			altNames("std-mutex"), 1.0)
		return rust.Call(rust.Atom("std::sync::Mutex::new"), rust.Atom("()")), true, nil
	case "threading.Semaphore":
		var count rust.Expr
		switch len(n.Args) {
		case 0:
			count = rust.Atom("1i64")
		case 1:
			lowered, err := c.lowerOperand(n.Args[0])
			if err != nil {
				return rust.Expr{}, false, err
			}
			count = lowered
		default:
			return rust.Expr{}, false, errArity("threading.Semaphore", "0 or 1", len(n.Args))
		}
		c.record(trace.CategoryMethod, "threading.Semaphore", "mutex-count",
			altNames("mutex-count", "condvar-semaphore"), 0.7)
		return rust.Call(rust.Atom("std::sync::Mutex::new"), count), true, nil
	case "queue.Queue", "collections.deque":
		switch len(n.Args) {
		case 0:
			c.record(trace.CategoryMethod, module+"."+n.Method, "vecdeque",
				altNames("vecdeque"), 1.0)
			return rust.Call(rust.Atom("std::collections::VecDeque::new")), true, nil
		case 1:
			if module == "queue" {
				// Queue(maxsize) only bounds capacity; VecDeque is
				// unbounded, so the bound degrades to a capacity hint.
				hint, err := c.lowerOperand(n.Args[0])
				if err != nil {
					return rust.Expr{}, false, err
				}
				c.record(trace.CategoryMethod, "queue.Queue", "vecdeque-capacity",
					altNames("vecdeque-capacity", "vecdeque"), 0.7)
				return rust.Call(rust.Atom("std::collections::VecDeque::with_capacity"),
					rust.Cast(hint, "usize")), true, nil
			}
			src, err := c.lowerOperand(n.Args[0])
			if err != nil {
				return rust.Expr{}, false, err
			}
			c.record(trace.CategoryMethod, "collections.deque", "vecdeque-from",
				altNames("vecdeque-from", "vecdeque"), 1.0)
			return rust.Call(rust.Atom("std::collections::VecDeque::from"), src), true, nil
		default:
			return rust.Expr{}, false, errArity(module+"."+n.Method, "0 or 1", len(n.Args))
		}
	}
	return rust.Expr{}, false, nil
}

// associatedCall emits Type::method(args).
func (c *Context) associatedCall(typeName string, n hir.MethodCall) (rust.Expr, error) {
	if !rust.ValidIdent(n.Method) {
		return rust.Expr{}, errInvalidIdent(n.Method)
	}
	args, err := c.lowerAll(n.Args)
	if err != nil {
		return rust.Expr{}, err
	}
	return rust.Call(rust.Atom(typeName+"::"+rust.EscapeIdent(n.Method)), args...), nil
}

// lowerContainerMethod normalizes container vocabulary to the target's.
func (c *Context) lowerContainerMethod(n hir.MethodCall, recvTag evidence.Tag) (rust.Expr, bool, error) {
	recv, err := c.lowerOperand(n.Receiver)
	if err != nil {
		return rust.Expr{}, true, err
	}
	rewrite := func(target string, out rust.Expr) (rust.Expr, bool, error) {
		c.record(trace.CategoryMethod, decisionName(recvTag.Kind.String(), n.Method), target,
			altNames(target, "generic-call"), 1.0)
		return out, true, nil
	}

	switch recvTag.Kind {
	case evidence.KindList, evidence.KindNativeArray:
		switch n.Method {
		case "append":
			arg, err := c.singleArg(n)
			if err != nil {
				return rust.Expr{}, true, err
			}
			return rewrite("push", rust.MethodCall(recv, "push", arg))
		case "pop":
			if len(n.Args) == 0 {
				return rewrite("pop-unwrap", rust.MethodCall(rust.MethodCall(recv, "pop"), "unwrap"))
			}
			if lit, ok := n.Args[0].(hir.IntLit); ok && lit.Value == 0 {
				return rewrite("remove-front", rust.MethodCall(recv, "remove", rust.Atom("0")))
			}
			idx, err := c.lowerOperand(n.Args[0])
			if err != nil {
				return rust.Expr{}, true, err
			}
			return rewrite("remove-at", rust.MethodCall(recv, "remove", rust.Cast(idx, "usize")))
		case "insert":
			if len(n.Args) != 2 {
				return rust.Expr{}, true, errArity("insert", "2", len(n.Args))
			}
			idx, err := c.lowerOperand(n.Args[0])
			if err != nil {
				return rust.Expr{}, true, err
			}
			val, err := c.lowerOperand(n.Args[1])
			if err != nil {
				return rust.Expr{}, true, err
			}
			return rewrite("insert-at", rust.MethodCall(recv, "insert", rust.Cast(idx, "usize"), val))
		case "remove":
			arg, err := c.singleArg(n)
			if err != nil {
				return rust.Expr{}, true, err
			}
			pos := rust.MethodCall(rust.MethodCall(rust.MethodCall(recv, "iter"),
				"position", rust.Closure([]string{"__v"},
					rust.Binary("==", rust.Deref(rust.Atom("__v")), arg), false)),
				"expect", rust.Atom(`"value not found"`))
			return rewrite("position-remove", rust.MethodCall(recv, "remove", pos))
		case "index":
			arg, err := c.singleArg(n)
			if err != nil {
				return rust.Expr{}, true, err
			}
			pos := rust.MethodCall(rust.MethodCall(rust.MethodCall(recv, "iter"),
				"position", rust.Closure([]string{"__v"},
					rust.Binary("==", rust.Deref(rust.Atom("__v")), arg), false)),
				"unwrap")
			return rewrite("position", rust.Cast(pos, "i64"))
		case "count":
			arg, err := c.singleArg(n)
			if err != nil {
				return rust.Expr{}, true, err
			}
			counted := rust.MethodCall(rust.MethodCall(rust.MethodCall(recv, "iter"),
				"filter", rust.Closure([]string{"__v"},
					rust.Binary("==", rust.Deref(rust.Deref(rust.Atom("__v"))), arg), false)),
				"count")
			return rewrite("filter-count", rust.Cast(counted, "i64"))
		case "extend":
			arg, err := c.singleArg(n)
			if err != nil {
				return rust.Expr{}, true, err
			}
			return rewrite("extend", rust.MethodCall(recv, "extend",
				rust.MethodCall(rust.MethodCall(arg, "iter"), "cloned")))
		case "copy":
			return rewrite("clone", rust.MethodCall(recv, "clone"))
		case "clear":
			return rewrite("clear", rust.MethodCall(recv, "clear"))
		case "reverse":
			return rewrite("reverse", rust.MethodCall(recv, "reverse"))
		case "sort":
			if len(n.Args) != 0 {
				return rust.Expr{}, true, errArity("sort", "0", len(n.Args))
			}
			if recvTag.Elem(0).Kind == evidence.KindFloat {
				return rewrite("sort-by-partial", rust.MethodCall(recv, "sort_by",
					rust.Closure([]string{"a", "b"},
						rust.MethodCall(rust.MethodCall(rust.Atom("a"), "partial_cmp", rust.Atom("b")), "unwrap"),
						false)))
			}
			return rewrite("sort", rust.MethodCall(recv, "sort"))
		}

	case evidence.KindSet:
		switch n.Method {
		case "add":
			arg, err := c.singleArg(n)
			if err != nil {
				return rust.Expr{}, true, err
			}
			return rewrite("insert", rust.MethodCall(recv, "insert", arg))
		case "remove", "discard":
			arg, err := c.singleArg(n)
			if err != nil {
				return rust.Expr{}, true, err
			}
			// Both map to remove-by-value; the missing-element error path
			// of the strict variant is not preserved.
			conf := 1.0
			if n.Method == "remove" {
				conf = 0.8
			}
			c.record(trace.CategoryMethod, decisionName("set", n.Method), "remove",
				altNames("remove", "take-expect"), conf)
			return rust.MethodCall(recv, "remove", rust.Ref(arg)), true, nil
		case "union", "intersection", "difference", "symmetric_difference":
			arg, err := c.singleArg(n)
			if err != nil {
				return rust.Expr{}, true, err
			}
			chain := rust.MethodCall(rust.MethodCall(recv, n.Method, rust.Ref(arg)), "cloned")
			return rewrite("collect-"+n.Method,
				rust.TypedMethodCall(chain, "collect", "HashSet<_>"))
		case "clear":
			return rewrite("clear", rust.MethodCall(recv, "clear"))
		case "copy":
			return rewrite("clone", rust.MethodCall(recv, "clone"))
		case "pop":
			// No ordering to respect; take any element.
			taken := rust.MethodCall(rust.MethodCall(rust.MethodCall(
				rust.MethodCall(recv, "iter"), "next"), "cloned"), "unwrap")
			return rewrite("take-any", rust.Block([]string{
				"let __e = " + taken.Render() + ";",
				rust.MethodCall(recv, "remove", rust.Atom("&__e")).Render() + ";",
			}, rust.Atom("__e")))
		}

	case evidence.KindDict:
		switch n.Method {
		case "get":
			if len(n.Args) < 1 || len(n.Args) > 2 {
				return rust.Expr{}, true, errArity("get", "1 or 2", len(n.Args))
			}
			key, err := c.lowerOperand(n.Args[0])
			if err != nil {
				return rust.Expr{}, true, err
			}
			got := rust.MethodCall(rust.MethodCall(recv, "get", rust.Ref(key)), "cloned")
			if len(n.Args) == 1 {
				return rewrite("get-cloned", got)
			}
			def, err := c.lowerOperand(n.Args[1])
			if err != nil {
				return rust.Expr{}, true, err
			}
			if lit, ok := n.Args[1].(hir.StringLit); ok {
				// Allocating defaults stay lazy so the hit path never
				// builds the unused String.
				owned := rust.MethodCall(rust.StrLit(lit.Value), "to_string")
				return rewrite("get-unwrap-or-else",
					rust.MethodCall(got, "unwrap_or_else", rust.Closure(nil, owned, false)))
			}
			return rewrite("get-unwrap-or", rust.MethodCall(got, "unwrap_or", def))
		case "keys":
			chain := rust.MethodCall(rust.MethodCall(recv, "keys"), "cloned")
			return rewrite("keys-collect",
				rust.TypedMethodCall(chain, "collect", "Vec<_>"))
		case "values":
			chain := rust.MethodCall(rust.MethodCall(recv, "values"), "cloned")
			return rewrite("values-collect",
				rust.TypedMethodCall(chain, "collect", "Vec<_>"))
		case "items":
			chain := rust.MethodCall(rust.MethodCall(recv, "iter"),
				"map", rust.Closure([]string{"(__k, __v)"},
					rust.Tuple(rust.MethodCall(rust.Atom("__k"), "clone"),
						rust.MethodCall(rust.Atom("__v"), "clone")), false))
			return rewrite("items-collect",
				rust.TypedMethodCall(chain, "collect", "Vec<_>"))
		case "pop":
			key, err := c.singleArg(n)
			if err != nil {
				return rust.Expr{}, true, err
			}
			return rewrite("remove-unwrap",
				rust.MethodCall(rust.MethodCall(recv, "remove", rust.Ref(key)), "unwrap"))
		case "update":
			arg, err := c.singleArg(n)
			if err != nil {
				return rust.Expr{}, true, err
			}
			return rewrite("extend", rust.MethodCall(recv, "extend", rust.MethodCall(arg, "clone")))
		case "setdefault":
			if len(n.Args) != 2 {
				return rust.Expr{}, true, errArity("setdefault", "2", len(n.Args))
			}
			key, err := c.lowerOperand(n.Args[0])
			if err != nil {
				return rust.Expr{}, true, err
			}
			def, err := c.lowerOperand(n.Args[1])
			if err != nil {
				return rust.Expr{}, true, err
			}
			return rewrite("entry-or-insert", rust.MethodCall(
				rust.MethodCall(rust.MethodCall(recv, "entry", key), "or_insert", def),
				"clone"))
		case "copy":
			return rewrite("clone", rust.MethodCall(recv, "clone"))
		case "clear":
			return rewrite("clear", rust.MethodCall(recv, "clear"))
		}
	}
	return rust.Expr{}, false, nil
}

// lowerDequeMethod handles the double-ended queue vocabulary; the method
// names are unique to that container so no evidence is required.
func (c *Context) lowerDequeMethod(n hir.MethodCall) (rust.Expr, bool, error) {
	var target string
	switch n.Method {
	case "appendleft":
		target = "push_front"
	case "popleft":
		target = "pop_front"
	default:
		return rust.Expr{}, false, nil
	}
	recv, err := c.lowerOperand(n.Receiver)
	if err != nil {
		return rust.Expr{}, true, err
	}
	c.record(trace.CategoryMethod, decisionName("deque", n.Method), target,
		altNames(target, "generic-call"), 1.0)
	if n.Method == "popleft" {
		if len(n.Args) != 0 {
			return rust.Expr{}, true, errArity("popleft", "0", len(n.Args))
		}
		return rust.MethodCall(rust.MethodCall(recv, target), "unwrap"), true, nil
	}
	arg, err := c.singleArg(n)
	if err != nil {
		return rust.Expr{}, true, err
	}
	return rust.MethodCall(recv, target, arg), true, nil
}

// genericMethodCall is the final fallback: identifier validation, raw
// escaping, and a plain method call. Cast receivers parenthesize through
// the expression builder.
func (c *Context) genericMethodCall(n hir.MethodCall) (rust.Expr, error) {
	if !rust.ValidIdent(n.Method) {
		return rust.Expr{}, errInvalidIdent(n.Method)
	}
	recv, err := c.lowerOperand(n.Receiver)
	if err != nil {
		return rust.Expr{}, err
	}
	args, err := c.lowerAll(n.Args)
	if err != nil {
		return rust.Expr{}, err
	}
	return rust.MethodCall(recv, rust.EscapeIdent(n.Method), args...), nil
}

func (c *Context) singleArg(n hir.MethodCall) (rust.Expr, error) {
	if len(n.Args) != 1 {
		return rust.Expr{}, errArity(n.Method, "1", len(n.Args))
	}
	return c.lowerOperand(n.Args[0])
}

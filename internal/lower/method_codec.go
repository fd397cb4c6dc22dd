package lower

import (
	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
	"github.com/ferrous-lang/ferrous/internal/rust"
	"github.com/ferrous-lang/ferrous/internal/trace"
)

// lowerRegexCall rewrites the regex namespace. Library mode targets the
// regex crate; stub mode targets the emitted literal-substring engine.
func (c *Context) lowerRegexCall(n hir.MethodCall) (rust.Expr, bool, error) {
	lib := c.Backends.Regex == BackendLibrary
	recordRe := func(target string, conf float64) {
		c.record(trace.CategoryMethod, "re."+n.Method, target,
			altNames("regex-crate", "emitted-stub"), conf)
	}
	compiled := func(pattern rust.Expr) rust.Expr {
		if lib {
			return rust.MethodCall(rust.Call(rust.Atom("Regex::new"), pattern), "unwrap")
		}
		return rust.Call(rust.Atom("compile"), pattern)
	}

	switch n.Method {
	case "compile":
		pattern, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		recordRe("compile", 1.0)
		return compiled(pattern), true, nil

	case "escape":
		arg, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		recordRe("escape", 1.0)
		if lib {
			return rust.Call(rust.Atom("regex::escape"), arg), true, nil
		}
		return rust.Call(rust.Atom("escape"), arg), true, nil

	case "search", "match", "fullmatch", "is_match":
		if len(n.Args) != 2 {
			return rust.Expr{}, true, errArity(n.Method, "2", len(n.Args))
		}
		pattern, text, err := c.lowerOperands(n.Args[0], n.Args[1])
		if err != nil {
			return rust.Expr{}, true, err
		}
		if lib {
			target := "find"
			conf := 1.0
			if n.Method == "match" || n.Method == "fullmatch" {
				// Unanchored find approximates the anchored forms.
				conf = 0.7
			}
			recordRe(target, conf)
			return rust.MethodCall(compiled(pattern), target, text), true, nil
		}
		method := n.Method
		if method == "match" {
			method = "search"
		}
		recordRe(method, 1.0)
		return rust.MethodCall(compiled(pattern), method, text), true, nil

	case "findall", "split":
		if len(n.Args) != 2 {
			return rust.Expr{}, true, errArity(n.Method, "2", len(n.Args))
		}
		pattern, text, err := c.lowerOperands(n.Args[0], n.Args[1])
		if err != nil {
			return rust.Expr{}, true, err
		}
		recordRe(n.Method, 1.0)
		if !lib {
			return rust.MethodCall(compiled(pattern), n.Method, text), true, nil
		}
		if n.Method == "split" {
			chain := rust.MethodCall(rust.MethodCall(compiled(pattern), "split", text),
				"map", ownedStringClosure())
			return rust.TypedMethodCall(chain, "collect", "Vec<String>"), true, nil
		}
		matched := rust.Closure([]string{"__m"},
			rust.MethodCall(rust.MethodCall(rust.Atom("__m"), "as_str"), "to_string"), false)
		chain := rust.MethodCall(rust.MethodCall(compiled(pattern), "find_iter", text),
			"map", matched)
		return rust.TypedMethodCall(chain, "collect", "Vec<String>"), true, nil

	case "finditer":
		if len(n.Args) != 2 {
			return rust.Expr{}, true, errArity("finditer", "2", len(n.Args))
		}
		pattern, text, err := c.lowerOperands(n.Args[0], n.Args[1])
		if err != nil {
			return rust.Expr{}, true, err
		}
		recordRe("finditer", 1.0)
		if lib {
			return rust.MethodCall(compiled(pattern), "find_iter", text), true, nil
		}
		return rust.MethodCall(compiled(pattern), "finditer", text), true, nil

	case "sub", "subn":
		if len(n.Args) != 3 {
			return rust.Expr{}, true, errArity(n.Method, "3", len(n.Args))
		}
		pattern, err := c.lowerOperand(n.Args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		repl, text, err := c.lowerOperands(n.Args[1], n.Args[2])
		if err != nil {
			return rust.Expr{}, true, err
		}
		recordRe(n.Method, 1.0)
		if n.Method == "subn" {
			if lib {
				// The crate has no subn; pair replace_all with a match
				// count over the same compiled pattern.
				pair := rust.Tuple(
					rust.MethodCall(rust.MethodCall(rust.Atom("__re"), "replace_all", text, repl), "to_string"),
					rust.Cast(rust.MethodCall(rust.MethodCall(rust.Atom("__re"), "find_iter", text), "count"), "i64"),
				)
				return rust.Block([]string{
					"let __re = " + compiled(pattern).Render() + ";",
				}, pair), true, nil
			}
			return rust.MethodCall(compiled(pattern), "subn", repl, text), true, nil
		}
		if lib {
			return rust.MethodCall(
				rust.MethodCall(compiled(pattern), "replace_all", text, repl),
				"to_string"), true, nil
		}
		return rust.MethodCall(compiled(pattern), "sub", repl, text), true, nil
	}
	return rust.Expr{}, false, nil
}

// lowerJSONCall rewrites json.dumps/loads.
func (c *Context) lowerJSONCall(n hir.MethodCall) (rust.Expr, bool, error) {
	lib := c.Backends.JSON == BackendLibrary
	switch n.Method {
	case "dumps":
		arg, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		if lib {
			c.record(trace.CategoryMethod, "json.dumps", "serde-to_string",
				altNames("serde-to_string", "emitted-stub"), 1.0)
			return rust.MethodCall(
				rust.Call(rust.Atom("serde_json::to_string"), rust.Ref(arg)),
				"unwrap"), true, nil
		}
		c.record(trace.CategoryMethod, "json.dumps", "emitted-stub",
			altNames("serde-to_string", "emitted-stub"), 0.8)
		return rust.Call(rust.Atom("json_dumps"), rust.Ref(arg)), true, nil
	case "loads":
		arg, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		if lib {
			c.record(trace.CategoryMethod, "json.loads", "serde-from_str",
				altNames("serde-from_str", "emitted-stub"), 1.0)
			call := rust.Atom("serde_json::from_str::<serde_json::Value>")
			return rust.MethodCall(rust.Call(call, rust.Ref(arg)), "unwrap"), true, nil
		}
		// The stub parser only produces an empty map; low confidence flags
		// it for audit.
		c.record(trace.CategoryMethod, "json.loads", "emitted-stub",
			altNames("serde-from_str", "emitted-stub"), 0.5)
		return rust.Call(rust.Atom("json_loads"), rust.Ref(arg)), true, nil
	}
	return rust.Expr{}, false, nil
}

// codecStubFn maps codec namespace calls to emitted stub functions.
var codecStubFn = map[string]string{
	"b64encode": "b64encode", "b64decode": "b64decode",
	"b32encode": "b32encode", "b32decode": "b32decode",
	"b16encode": "b16encode", "b16decode": "b16decode",
	"hexlify": "hexlify", "unhexlify": "unhexlify",
}

// lowerCodecCall rewrites base64/binascii calls. Library mode targets the
// base64 crate for the base-64 pair; the remaining encodings always use
// the emitted stubs.
func (c *Context) lowerCodecCall(module string, n hir.MethodCall) (rust.Expr, bool, error) {
	fn, ok := codecStubFn[n.Method]
	if !ok {
		return rust.Expr{}, false, nil
	}
	arg, err := c.singleArg(n)
	if err != nil {
		return rust.Expr{}, true, err
	}
	name := module + "." + n.Method
	if c.Backends.Codec == BackendLibrary && (n.Method == "b64encode" || n.Method == "b64decode") {
		engine := rust.Atom("general_purpose::STANDARD")
		if n.Method == "b64encode" {
			c.record(trace.CategoryMethod, name, "base64-crate-encode",
				altNames("base64-crate-encode", "emitted-stub"), 1.0)
			return rust.MethodCall(engine, "encode", rust.Ref(arg)), true, nil
		}
		c.record(trace.CategoryMethod, name, "base64-crate-decode",
			altNames("base64-crate-decode", "emitted-stub"), 1.0)
		return rust.MethodCall(rust.MethodCall(engine, "decode", rust.Ref(arg)), "unwrap"), true, nil
	}
	c.record(trace.CategoryMethod, name, "emitted-stub",
		altNames("base64-crate", "emitted-stub"), 1.0)
	return rust.Call(rust.Atom(fn), rust.Ref(arg)), true, nil
}

// hashHasher maps digest constructors to their digest-crate hasher types.
var hashHasher = map[string]string{
	"md5":     "Md5",
	"sha1":    "Sha1",
	"sha224":  "Sha224",
	"sha256":  "Sha256",
	"sha384":  "Sha384",
	"sha512":  "Sha512",
	"blake2b": "Blake2b512",
	"blake2s": "Blake2s256",
}

// lowerHashCall rewrites hashlib digests onto a hasher-update-finalize
// chain in library mode; no stub exists, so stub mode reports the gap.
func (c *Context) lowerHashCall(n hir.MethodCall) (rust.Expr, bool, error) {
	method := n.Method
	args := n.Args
	conf := 1.0
	chosen := ""
	if method == "new" {
		if len(args) < 1 || len(args) > 2 {
			return rust.Expr{}, true, errArity("new", "1 or 2", len(args))
		}
		if lit, ok := args[0].(hir.StringLit); ok {
			if _, known := hashHasher[lit.Value]; known {
				method = lit.Value
			}
		}
		if method == "new" {
			// Unknown or dynamic algorithm name defaults to the 256-bit
			// family member.
			method = "sha256"
			conf = 0.6
			chosen = "Sha256-default"
		}
		args = args[1:]
	}
	hasher, ok := hashHasher[method]
	if !ok {
		return rust.Expr{}, false, nil
	}
	if len(args) > 1 {
		return rust.Expr{}, true, errArity(method, "0 or 1", len(args))
	}
	if chosen == "" {
		chosen = hasher + "-new"
	}
	c.record(trace.CategoryMethod, "hashlib."+n.Method, chosen,
		altNames("digest-crate", "none"), conf)
	out := rust.Call(rust.Atom(hasher + "::new"))
	if len(args) == 1 {
		data, err := c.lowerOperand(args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		out = rust.MethodCall(rust.Call(rust.Atom(hasher+"::new_with_prefix"), rust.Ref(data)), "clone")
	}
	return out, true, nil
}

// lowerColorsysCall rewrites the color-space conversions to emitted
// helper functions; the namespace is tiny and self-contained.
func (c *Context) lowerColorsysCall(n hir.MethodCall) (rust.Expr, bool, error) {
	switch n.Method {
	case "rgb_to_hsv", "hsv_to_rgb", "rgb_to_hls", "hls_to_rgb":
		if len(n.Args) != 3 {
			return rust.Expr{}, true, errArity(n.Method, "3", len(n.Args))
		}
		a, err := c.lowerOperand(n.Args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		b, d, err := c.lowerOperands(n.Args[1], n.Args[2])
		if err != nil {
			return rust.Expr{}, true, err
		}
		c.record(trace.CategoryMethod, "colorsys."+n.Method, "emitted-helper",
			altNames("emitted-helper", "generic-call"), 1.0)
		return rust.Call(rust.Atom(n.Method), a, b, d), true, nil
	}
	return rust.Expr{}, false, nil
}

// lowerRuntimeObjectMethod handles methods on runtime wrapper values
// (dates, times, regex matches); their surfaces mirror the source names,
// so calls pass through with identifier escaping. Match group indices
// convert to the unsigned index type.
func (c *Context) lowerRuntimeObjectMethod(n hir.MethodCall, recvTag evidence.Tag) (rust.Expr, bool, error) {
	if recvTag.Kind == evidence.KindRegexMatch && n.Method == "group" && len(n.Args) == 1 {
		recv, err := c.lowerOperand(n.Receiver)
		if err != nil {
			return rust.Expr{}, true, err
		}
		idx, err := c.lowerOperand(n.Args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		if _, ok := n.Args[0].(hir.IntLit); !ok {
			idx = rust.Cast(idx, "usize")
		}
		c.record(trace.CategoryMethod, "match.group", "group",
			altNames("group", "generic-call"), 1.0)
		return rust.MethodCall(recv, "group", idx), true, nil
	}
	out, err := c.genericMethodCall(n)
	if err != nil {
		return rust.Expr{}, true, err
	}
	return out, true, nil
}

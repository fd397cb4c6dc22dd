package lower

import (
	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
	"github.com/ferrous-lang/ferrous/internal/rust"
	"github.com/ferrous-lang/ferrous/internal/trace"
)

// unwrapOrTry finishes a fallible target call: `?` inside a fallible
// function, unwrap otherwise.
func (c *Context) unwrapOrTry(e rust.Expr) rust.Expr {
	if c.Fallible {
		return rust.Try(e)
	}
	return rust.MethodCall(e, "unwrap")
}

// pathArg wraps a string-typed path argument in Path::new; operands that
// already carry path evidence pass through.
func (c *Context) pathArg(e hir.Expr) (rust.Expr, error) {
	out, err := c.lowerOperand(e)
	if err != nil {
		return rust.Expr{}, err
	}
	if c.typeOf(e).Kind == evidence.KindPathLike {
		return out, nil
	}
	return rust.Call(rust.Atom("Path::new"), out), nil
}

func (c *Context) recordModule(name, target string) {
	c.record(trace.CategoryMethod, name, target, altNames(target, "generic-call"), 1.0)
}

func (c *Context) lowerOSCall(n hir.MethodCall) (rust.Expr, bool, error) {
	switch n.Method {
	case "getcwd":
		c.recordModule("os.getcwd", "env-current_dir")
		return c.unwrapOrTry(rust.Call(rust.Atom("std::env::current_dir"))), true, nil
	case "getenv":
		return c.envLookup("os.getenv", n)
	case "listdir":
		p, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		c.recordModule("os.listdir", "fs-read_dir")
		entries := c.unwrapOrTry(rust.Call(rust.Atom("std::fs::read_dir"), p))
		name := rust.MethodCall(rust.MethodCall(rust.MethodCall(
			rust.MethodCall(rust.Atom("__e"), "unwrap"), "file_name"),
			"to_string_lossy"), "to_string")
		chain := rust.MethodCall(entries, "map",
			rust.Closure([]string{"__e"}, name, false))
		return rust.TypedMethodCall(chain, "collect", "Vec<String>"), true, nil
	case "remove", "unlink":
		p, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		c.recordModule("os."+n.Method, "fs-remove_file")
		return c.unwrapOrTry(rust.Call(rust.Atom("std::fs::remove_file"), p)), true, nil
	case "mkdir", "makedirs":
		p, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		target := "std::fs::create_dir"
		if n.Method == "makedirs" {
			target = "std::fs::create_dir_all"
		}
		c.recordModule("os."+n.Method, target)
		return c.unwrapOrTry(rust.Call(rust.Atom(target), p)), true, nil
	case "rename":
		if len(n.Args) != 2 {
			return rust.Expr{}, true, errArity("rename", "2", len(n.Args))
		}
		from, to, err := c.lowerOperands(n.Args[0], n.Args[1])
		if err != nil {
			return rust.Expr{}, true, err
		}
		c.recordModule("os.rename", "fs-rename")
		return c.unwrapOrTry(rust.Call(rust.Atom("std::fs::rename"), from, to)), true, nil
	}
	return rust.Expr{}, false, nil
}

func (c *Context) lowerEnvironCall(n hir.MethodCall) (rust.Expr, bool, error) {
	if n.Method == "get" {
		return c.envLookup("os.environ.get", n)
	}
	return rust.Expr{}, false, nil
}

// envLookup lowers the environment read with an optional default.
func (c *Context) envLookup(name string, n hir.MethodCall) (rust.Expr, bool, error) {
	if len(n.Args) < 1 || len(n.Args) > 2 {
		return rust.Expr{}, true, errArity(n.Method, "1 or 2", len(n.Args))
	}
	key, err := c.lowerOperand(n.Args[0])
	if err != nil {
		return rust.Expr{}, true, err
	}
	read := rust.Call(rust.Atom("std::env::var"), key)
	if len(n.Args) == 1 {
		c.recordModule(name, "env-var-ok")
		return rust.MethodCall(read, "ok"), true, nil
	}
	def, err := c.lowerOperand(n.Args[1])
	if err != nil {
		return rust.Expr{}, true, err
	}
	if lit, ok := n.Args[1].(hir.StringLit); ok {
		def = rust.MethodCall(rust.StrLit(lit.Value), "to_string")
	}
	c.recordModule(name, "env-var-default")
	return rust.MethodCall(read, "unwrap_or_else",
		rust.Closure([]string{"_"}, def, false)), true, nil
}

func (c *Context) lowerPathCall(n hir.MethodCall) (rust.Expr, bool, error) {
	switch n.Method {
	case "join":
		if len(n.Args) < 2 {
			return rust.Expr{}, true, errArity("join", "2 or more", len(n.Args))
		}
		out, err := c.pathArg(n.Args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		for _, part := range n.Args[1:] {
			arg, err := c.lowerOperand(part)
			if err != nil {
				return rust.Expr{}, true, err
			}
			out = rust.MethodCall(out, "join", arg)
		}
		c.recordModule("os.path.join", "path-join")
		return out, true, nil
	case "exists", "is_file", "isfile", "isdir":
		if len(n.Args) != 1 {
			return rust.Expr{}, true, errArity(n.Method, "1", len(n.Args))
		}
		p, err := c.pathArg(n.Args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		target := map[string]string{
			"exists": "exists", "is_file": "is_file",
			"isfile": "is_file", "isdir": "is_dir",
		}[n.Method]
		c.recordModule("os.path."+n.Method, target)
		return rust.MethodCall(p, target), true, nil
	case "basename", "dirname":
		if len(n.Args) != 1 {
			return rust.Expr{}, true, errArity(n.Method, "1", len(n.Args))
		}
		p, err := c.pathArg(n.Args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		part := "file_name"
		if n.Method == "dirname" {
			part = "parent"
		}
		c.recordModule("os.path."+n.Method, part)
		lossy := rust.Closure([]string{"__p"},
			rust.MethodCall(rust.MethodCall(rust.Atom("__p"), "to_string_lossy"), "to_string"), false)
		if n.Method == "dirname" {
			lossy = rust.Closure([]string{"__p"},
				rust.MethodCall(rust.MethodCall(rust.MethodCall(rust.Atom("__p"), "to_str"), "unwrap"), "to_string"), false)
		}
		return rust.MethodCall(rust.MethodCall(rust.MethodCall(p, part),
			"map", lossy), "unwrap_or_default"), true, nil
	case "abspath":
		p, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		c.recordModule("os.path.abspath", "fs-canonicalize")
		return c.unwrapOrTry(rust.Call(rust.Atom("std::fs::canonicalize"), p)), true, nil
	case "getsize":
		if len(n.Args) != 1 {
			return rust.Expr{}, true, errArity("getsize", "1", len(n.Args))
		}
		p, err := c.lowerOperand(n.Args[0])
		if err != nil {
			return rust.Expr{}, true, err
		}
		c.recordModule("os.path.getsize", "fs-metadata-len")
		meta := c.unwrapOrTry(rust.Call(rust.Atom("std::fs::metadata"), p))
		return rust.Cast(rust.MethodCall(meta, "len"), "i64"), true, nil
	}
	return rust.Expr{}, false, nil
}

func (c *Context) lowerSysCall(n hir.MethodCall) (rust.Expr, bool, error) {
	if n.Method != "exit" {
		return rust.Expr{}, false, nil
	}
	c.recordModule("sys.exit", "process-exit")
	if len(n.Args) == 0 {
		return rust.Call(rust.Atom("std::process::exit"), rust.Atom("0")), true, nil
	}
	code, err := c.singleArg(n)
	if err != nil {
		return rust.Expr{}, true, err
	}
	if lit, ok := n.Args[0].(hir.IntLit); ok {
		return rust.Call(rust.Atom("std::process::exit"), rust.Atomf("%d", lit.Value)), true, nil
	}
	return rust.Call(rust.Atom("std::process::exit"), rust.Cast(code, "i32")), true, nil
}

func (c *Context) lowerStdStreamCall(path string, n hir.MethodCall) (rust.Expr, bool, error) {
	macro := "print"
	stream := "stdout"
	if path == "sys.stderr" {
		macro = "eprint"
		stream = "stderr"
	}
	switch n.Method {
	case "write":
		s, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		c.recordModule(path+".write", macro+"-macro")
		return rust.MacroCall(macro, rust.Atom(`"{}"`), s), true, nil
	case "flush":
		c.recordModule(path+".flush", "io-flush")
		return rust.MethodCall(rust.MethodCall(
			rust.Call(rust.Atom("std::io::"+stream)), "flush"), "unwrap"), true, nil
	}
	return rust.Expr{}, false, nil
}

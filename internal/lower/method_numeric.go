package lower

import (
	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
	"github.com/ferrous-lang/ferrous/internal/rust"
	"github.com/ferrous-lang/ferrous/internal/trace"
)

// mathFloatMethod maps the one-argument math functions that stay float.
var mathFloatMethod = map[string]string{
	"sqrt": "sqrt", "sin": "sin", "cos": "cos", "tan": "tan",
	"asin": "asin", "acos": "acos", "atan": "atan",
	"log": "ln", "log2": "log2", "log10": "log10",
	"exp": "exp", "fabs": "abs",
}

func (c *Context) lowerMathCall(n hir.MethodCall) (rust.Expr, bool, error) {
	if target, ok := mathFloatMethod[n.Method]; ok {
		arg, err := c.floatOperand(n, 0)
		if err != nil {
			return rust.Expr{}, true, err
		}
		c.recordModule("math."+n.Method, target)
		return rust.MethodCall(arg, target), true, nil
	}

	switch n.Method {
	case "floor", "ceil":
		arg, err := c.floatOperand(n, 0)
		if err != nil {
			return rust.Expr{}, true, err
		}
		c.recordModule("math."+n.Method, n.Method+"-as-int")
		return rust.Cast(rust.MethodCall(arg, n.Method), "i64"), true, nil
	case "pow", "atan2", "hypot":
		if len(n.Args) != 2 {
			return rust.Expr{}, true, errArity(n.Method, "2", len(n.Args))
		}
		a, err := c.floatOperand(n, 0)
		if err != nil {
			return rust.Expr{}, true, err
		}
		b, err := c.floatOperand(n, 1)
		if err != nil {
			return rust.Expr{}, true, err
		}
		target := n.Method
		if target == "pow" {
			target = "powf"
		}
		c.recordModule("math."+n.Method, target)
		return rust.MethodCall(a, target, b), true, nil
	case "gcd":
		if len(n.Args) != 2 {
			return rust.Expr{}, true, errArity("gcd", "2", len(n.Args))
		}
		a, b, err := c.lowerOperands(n.Args[0], n.Args[1])
		if err != nil {
			return rust.Expr{}, true, err
		}
		c.recordModule("math.gcd", "euclid-block")
		return rust.Block([]string{
			"let (mut __a, mut __b) = (" + rust.MethodCall(a, "abs").Render() + ", " + rust.MethodCall(b, "abs").Render() + ");",
			"while __b != 0 { let __t = __b; __b = __a % __b; __a = __t; }",
		}, rust.Atom("__a")), true, nil
	}
	return rust.Expr{}, false, nil
}

// floatOperand lowers an argument in float position, casting evident ints.
func (c *Context) floatOperand(n hir.MethodCall, i int) (rust.Expr, error) {
	if i >= len(n.Args) {
		return rust.Expr{}, errArity(n.Method, "more", len(n.Args))
	}
	arg := n.Args[i]
	if lit, ok := arg.(hir.IntLit); ok {
		return rust.Atom(floatLitText(lit.Value)), nil
	}
	out, err := c.lowerOperand(arg)
	if err != nil {
		return rust.Expr{}, err
	}
	if c.typeOf(arg).Kind == evidence.KindInt {
		return rust.Cast(out, "f64"), nil
	}
	return out, nil
}

func (c *Context) lowerRandomCall(n hir.MethodCall) (rust.Expr, bool, error) {
	lib := c.Backends.Random == BackendLibrary
	recordRand := func(target string) {
		c.record(trace.CategoryMethod, "random."+n.Method, target,
			altNames("rand-crate", "emitted-stub"), 1.0)
	}
	rng := rust.Call(rust.Atom("rand::thread_rng"))

	switch n.Method {
	case "random":
		if len(n.Args) != 0 {
			return rust.Expr{}, true, errArity("random", "0", len(n.Args))
		}
		if lib {
			recordRand("rand-crate")
			return rust.Call(rust.Atom("rand::random::<f64>")), true, nil
		}
		recordRand("emitted-stub")
		return rust.Call(rust.Atom("random")), true, nil

	case "randint", "uniform":
		if len(n.Args) != 2 {
			return rust.Expr{}, true, errArity(n.Method, "2", len(n.Args))
		}
		lo, hi, err := c.lowerOperands(n.Args[0], n.Args[1])
		if err != nil {
			return rust.Expr{}, true, err
		}
		if lib {
			recordRand("gen_range")
			span := rust.Paren(rust.Raw(lo.Render()+"..="+hi.Render(), rust.PrecLowest))
			return rust.MethodCall(rng, "gen_range", span), true, nil
		}
		recordRand("emitted-stub")
		return rust.Call(rust.Atom(n.Method), lo, hi), true, nil

	case "choice":
		xs, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		if lib {
			recordRand("index-by-gen_range")
			span := rust.Paren(rust.Raw("0.."+rust.MethodCall(xs, "len").Render(), rust.PrecLowest))
			idx := rust.MethodCall(rng, "gen_range", span)
			return rust.MethodCall(rust.Index(xs, idx), "clone"), true, nil
		}
		recordRand("emitted-stub")
		idx := rust.Cast(rust.Call(rust.Atom("randint"),
			rust.Atom("0"), rust.Cast(rust.Binary("-", rust.MethodCall(xs, "len"), rust.Atom("1")), "i64")), "usize")
		return rust.MethodCall(rust.Index(xs, idx), "clone"), true, nil

	case "shuffle":
		xs, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		if lib {
			recordRand("slice-shuffle")
			return rust.MethodCall(xs, "shuffle",
				rust.RefMut(rust.Call(rust.Atom("rand::thread_rng")))), true, nil
		}
		recordRand("emitted-stub")
		return rust.Call(rust.Atom("shuffle"), rust.RefMut(xs)), true, nil

	case "seed":
		arg, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		if lib {
			// The thread rng has no seeding surface; flagged for audit.
			recordRand("dropped")
			return rust.Atom("()"), true, nil
		}
		recordRand("emitted-stub")
		return rust.Call(rust.Atom("seed"), arg), true, nil
	}
	return rust.Expr{}, false, nil
}

func (c *Context) lowerTimeCall(n hir.MethodCall) (rust.Expr, bool, error) {
	switch n.Method {
	case "time":
		if len(n.Args) != 0 {
			return rust.Expr{}, true, errArity("time", "0", len(n.Args))
		}
		if c.Backends.Time == BackendLibrary {
			c.recordModule("time.time", "chrono-timestamp")
			millis := rust.MethodCall(rust.Call(rust.Atom("Utc::now")), "timestamp_millis")
			return rust.Binary("/", rust.Cast(millis, "f64"), rust.Atom("1000.0")), true, nil
		}
		c.recordModule("time.time", "wrapper-timestamp")
		return rust.MethodCall(rust.Call(rust.Atom("DateTime::now")), "timestamp"), true, nil
	case "sleep":
		secs, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		if c.typeOf(n.Args[0]).Kind == evidence.KindInt {
			secs = rust.Cast(secs, "f64")
		}
		if lit, ok := n.Args[0].(hir.IntLit); ok {
			secs = rust.Atom(floatLitText(lit.Value))
		}
		c.recordModule("time.sleep", "thread-sleep")
		return rust.Call(rust.Atom("std::thread::sleep"),
			rust.Call(rust.Atom("std::time::Duration::from_secs_f64"), secs)), true, nil
	case "monotonic", "perf_counter":
		if len(n.Args) != 0 {
			return rust.Expr{}, true, errArity(n.Method, "0", len(n.Args))
		}
		// Both clocks only promise monotonicity; Instant is the native
		// monotonic reading in either backend.
		c.recordModule("time."+n.Method, "instant-now")
		return rust.Call(rust.Atom("std::time::Instant::now")), true, nil
	case "mktime":
		t, err := c.singleArg(n)
		if err != nil {
			return rust.Expr{}, true, err
		}
		if c.Backends.Time == BackendLibrary {
			c.record(trace.CategoryMethod, "time.mktime", "chrono-timestamp",
				altNames("chrono-timestamp", "wrapper-stub"), 0.7)
			return rust.Cast(rust.MethodCall(t, "timestamp"), "f64"), true, nil
		}
		c.record(trace.CategoryMethod, "time.mktime", "wrapper-stub",
			altNames("chrono-timestamp", "wrapper-stub"), 0.8)
		return rust.Call(rust.Atom("mktime"), t), true, nil
	case "ctime", "gmtime", "localtime":
		if len(n.Args) != 0 {
			return rust.Expr{}, true, errArity(n.Method, "0", len(n.Args))
		}
		if c.Backends.Time == BackendLibrary {
			if n.Method == "ctime" {
				c.record(trace.CategoryMethod, "time.ctime", "chrono-format",
					altNames("chrono-format", "wrapper-stub"), 0.8)
				return rust.MethodCall(
					rust.MethodCall(rust.Call(rust.Atom("Local::now")), "format",
						rust.StrLit("%a %b %e %H:%M:%S %Y")),
					"to_string"), true, nil
			}
			source := "Utc::now"
			if n.Method == "localtime" {
				source = "Local::now"
			}
			c.record(trace.CategoryMethod, "time."+n.Method, "chrono-now",
				altNames("chrono-now", "wrapper-stub"), 0.7)
			return rust.Call(rust.Atom(source)), true, nil
		}
		c.record(trace.CategoryMethod, "time."+n.Method, "wrapper-stub",
			altNames("chrono-now", "wrapper-stub"), 0.8)
		return rust.Call(rust.Atom(n.Method)), true, nil
	}
	return rust.Expr{}, false, nil
}

// lowerDatetimeCall rewrites the date/time constructors and statics.
// Stub mode targets the emitted wrapper types, which mirror the source
// method names exactly.
func (c *Context) lowerDatetimeCall(path string, n hir.MethodCall) (rust.Expr, bool, error) {
	lib := c.Backends.Time == BackendLibrary
	args, err := c.lowerAll(n.Args)
	if err != nil {
		return rust.Expr{}, true, err
	}
	recordDT := func(target string, conf float64) {
		c.record(trace.CategoryMethod, path+"."+n.Method, target,
			altNames("chrono-crate", "emitted-wrapper"), conf)
	}

	switch n.Method {
	case "today":
		if lib {
			recordDT("local-date", 1.0)
			return rust.MethodCall(rust.Call(rust.Atom("Local::now")), "date_naive"), true, nil
		}
		recordDT("Date::today", 1.0)
		return rust.Call(rust.Atom("Date::today")), true, nil
	case "now", "utcnow":
		if lib {
			recordDT("utc-now", 1.0)
			return rust.Call(rust.Atom("Utc::now")), true, nil
		}
		recordDT("DateTime::now", 1.0)
		return rust.Call(rust.Atom("DateTime::now")), true, nil
	case "fromtimestamp":
		if len(args) != 1 {
			return rust.Expr{}, true, errArity("fromtimestamp", "1", len(args))
		}
		ts := args[0]
		if c.typeOf(n.Args[0]).Kind == evidence.KindInt {
			ts = rust.Cast(ts, "f64")
		}
		owner := "DateTime"
		if path == "datetime.date" || path == "date" {
			owner = "Date"
		}
		if lib {
			recordDT("chrono-from_timestamp", 0.9)
			out := rust.MethodCall(rust.Call(rust.Atom("DateTime::from_timestamp"),
				rust.Cast(ts, "i64"), rust.Atom("0")), "unwrap")
			if owner == "Date" {
				out = rust.MethodCall(out, "date_naive")
			}
			return out, true, nil
		}
		recordDT(owner+"::fromtimestamp", 1.0)
		return rust.Call(rust.Atom(owner+"::fromtimestamp"), ts), true, nil
	case "date", "datetime":
		// Constructor call through the module: datetime.date(y, m, d).
		owner := "Date"
		if n.Method == "datetime" {
			owner = "DateTime"
		}
		recordDT(owner+"::new", 1.0)
		return rust.Call(rust.Atom(owner+"::new"), args...), true, nil
	case "timedelta":
		if len(args) == 0 || len(args) > 2 {
			return rust.Expr{}, true, errArity("timedelta", "1 or 2", len(args))
		}
		days := args[0]
		secs := rust.Atom("0.0")
		if len(args) == 2 {
			secs = args[1]
		}
		recordDT("TimeDelta::new", 1.0)
		return rust.Call(rust.Atom("TimeDelta::new"), days, secs), true, nil
	}
	return rust.Expr{}, false, nil
}

// lowerDictStatic handles the dict namespace statics.
func (c *Context) lowerDictStatic(n hir.MethodCall) (rust.Expr, bool, error) {
	if n.Method != "fromkeys" {
		return rust.Expr{}, false, nil
	}
	if len(n.Args) != 2 {
		return rust.Expr{}, true, errArity("fromkeys", "2", len(n.Args))
	}
	keys, val, err := c.lowerOperands(n.Args[0], n.Args[1])
	if err != nil {
		return rust.Expr{}, true, err
	}
	c.recordModule("dict.fromkeys", "map-collect")
	pair := rust.Tuple(rust.MethodCall(rust.Atom("__k"), "clone"), rust.MethodCall(val, "clone"))
	chain := rust.MethodCall(rust.MethodCall(keys, "iter"),
		"map", rust.Closure([]string{"__k"}, pair, false))
	return rust.TypedMethodCall(chain, "collect", "HashMap<_, _>"), true, nil
}

// lowerIntStatic handles int.from_bytes with big or little byte order.
func (c *Context) lowerIntStatic(n hir.MethodCall) (rust.Expr, bool, error) {
	if n.Method != "from_bytes" {
		return rust.Expr{}, false, nil
	}
	if len(n.Args) != 2 {
		return rust.Expr{}, true, errArity("from_bytes", "2", len(n.Args))
	}
	order, ok := n.Args[1].(hir.StringLit)
	if !ok || (order.Value != "big" && order.Value != "little") {
		return rust.Expr{}, true, errMalformed("byte order must be the literal %q or %q", "big", "little")
	}
	data, err := c.lowerOperand(n.Args[0])
	if err != nil {
		return rust.Expr{}, true, err
	}
	c.recordModule("int.from_bytes", "fold-shift-"+order.Value)
	iter := rust.MethodCall(data, "iter")
	if order.Value == "little" {
		iter = rust.MethodCall(iter, "rev")
	}
	fold := rust.Closure([]string{"__a", "__b"},
		rust.Binary("|",
			rust.Paren(rust.Binary("<<", rust.Atom("__a"), rust.Atom("8"))),
			rust.Cast(rust.Deref(rust.Atom("__b")), "i64")), false)
	return rust.MethodCall(iter, "fold", rust.Atom("0i64"), fold), true, nil
}

package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ferrous-lang/ferrous/internal/evidence"
	"github.com/ferrous-lang/ferrous/internal/hir"
)

func strCtx() *Context {
	return testContext(evidence.NewBuilder().
		Var("s", evidence.StrTag()).
		Var("parts", evidence.ListOf(evidence.StrTag())).
		Var("ch", evidence.StrTag()).
		CharIter("ch", true).
		Freeze())
}

func strCall(method string, args ...hir.Expr) hir.MethodCall {
	return hir.MethodCall{Receiver: hir.Name{ID: "s"}, Method: method, Args: args}
}

func TestStringCaseMethods(t *testing.T) {
	c := strCtx()
	assert.Equal(t, "s.to_uppercase()", mustLower(t, c, strCall("upper")))
	assert.Equal(t, "s.to_lowercase()", mustLower(t, c, strCall("lower")))
	assert.Equal(t, "str.upper", c.Sink.Decisions()[0].Name)
}

func TestStringTrim(t *testing.T) {
	c := strCtx()
	assert.Equal(t, "s.trim().to_string()", mustLower(t, c, strCall("strip")))
	assert.Equal(t, "s.trim_start().to_string()", mustLower(t, c, strCall("lstrip")))
	assert.Equal(t, "s.trim_end().to_string()", mustLower(t, c, strCall("rstrip")))

	// Trimming a character set builds a membership predicate.
	assert.Equal(t, `s.trim_matches(|__c: char| "x".contains(__c)).to_string()`,
		mustLower(t, c, strCall("strip", hir.StringLit{Value: "x"})))
}

func TestStringCharClassTests(t *testing.T) {
	c := strCtx()
	// Whole-string form: nonempty and all chars satisfy the class.
	assert.Equal(t, "!s.is_empty() && s.chars().all(|__c| __c.is_ascii_digit())",
		mustLower(t, c, strCall("isdigit")))
	assert.Equal(t, "!s.is_empty() && s.chars().all(|__c| __c.is_alphabetic())",
		mustLower(t, c, strCall("isalpha")))

	// A char-iteration receiver is already a char; the predicate applies
	// directly.
	charTest := hir.MethodCall{Receiver: hir.Name{ID: "ch"}, Method: "isdigit"}
	assert.Equal(t, "ch.is_ascii_digit()", mustLower(t, c, charTest))
}

func TestStringAffixTests(t *testing.T) {
	c := strCtx()
	assert.Equal(t, `s.starts_with("pre")`,
		mustLower(t, c, strCall("startswith", hir.StringLit{Value: "pre"})))
	assert.Equal(t, `s.ends_with("suf")`,
		mustLower(t, c, strCall("endswith", hir.StringLit{Value: "suf"})))
}

func TestStringSplit(t *testing.T) {
	c := strCtx()
	assert.Equal(t,
		"s.split_whitespace().map(|__s| __s.to_string()).collect::<Vec<String>>()",
		mustLower(t, c, strCall("split")))
	assert.Equal(t,
		`s.split(",").map(|__s| __s.to_string()).collect::<Vec<String>>()`,
		mustLower(t, c, strCall("split", hir.StringLit{Value: ","})))
	assert.Equal(t,
		"s.lines().map(|__s| __s.to_string()).collect::<Vec<String>>()",
		mustLower(t, c, strCall("splitlines")))
}

func TestStringSplitMaxsplit(t *testing.T) {
	// splitn counts pieces where the source counts cuts.
	c := strCtx()
	assert.Equal(t,
		`s.splitn(3usize, ",").map(|__s| __s.to_string()).collect::<Vec<String>>()`,
		mustLower(t, c, strCall("split", hir.StringLit{Value: ","}, hir.IntLit{Value: 2})))

	ev := evidence.NewBuilder().
		Var("s", evidence.StrTag()).
		Var("n", evidence.IntTag()).
		Freeze()
	c = testContext(ev)
	assert.Equal(t,
		`s.splitn((n + 1) as usize, ",").map(|__s| __s.to_string()).collect::<Vec<String>>()`,
		mustLower(t, c, strCall("split", hir.StringLit{Value: ","}, hir.Name{ID: "n"})))
}

func TestStringJoinFlipsReceiver(t *testing.T) {
	c := strCtx()
	lit := hir.MethodCall{
		Receiver: hir.StringLit{Value: ", "},
		Method:   "join",
		Args:     []hir.Expr{hir.Name{ID: "parts"}},
	}
	assert.Equal(t, `parts.join(", ")`, mustLower(t, c, lit))
	assert.Equal(t, "receiver-flip", c.Sink.Decisions()[0].Chosen)

	// Non-literal separators pass as string slices.
	v := hir.MethodCall{
		Receiver: hir.Name{ID: "s"},
		Method:   "join",
		Args:     []hir.Expr{hir.Name{ID: "parts"}},
	}
	assert.Equal(t, "parts.join(s.as_str())", mustLower(t, c, v))
}

func TestStringReplaceAndSearch(t *testing.T) {
	c := strCtx()
	assert.Equal(t, `s.replace("a", "b")`,
		mustLower(t, c, strCall("replace", hir.StringLit{Value: "a"}, hir.StringLit{Value: "b"})))

	// find and rfind keep the -1 miss sentinel; index unwraps.
	assert.Equal(t, `s.find("x").map(|__i| __i as i64).unwrap_or(-1)`,
		mustLower(t, c, strCall("find", hir.StringLit{Value: "x"})))
	assert.Equal(t, `s.rfind("x").map(|__i| __i as i64).unwrap_or(-1)`,
		mustLower(t, c, strCall("rfind", hir.StringLit{Value: "x"})))
	assert.Equal(t, `s.find("x").unwrap() as i64`,
		mustLower(t, c, strCall("index", hir.StringLit{Value: "x"})))
	assert.Equal(t, `s.matches("x").count() as i64`,
		mustLower(t, c, strCall("count", hir.StringLit{Value: "x"})))
}

func TestStringZfillAndEncode(t *testing.T) {
	c := strCtx()
	assert.Equal(t, `format!("{:0>1$}", s, 3 as usize)`,
		mustLower(t, c, strCall("zfill", hir.IntLit{Value: 3})))
	assert.Equal(t, "s.as_bytes().to_vec()", mustLower(t, c, strCall("encode")))
}

func TestStringUnhandledFallsToGeneric(t *testing.T) {
	// No single-call target exists for title(); the generic path keeps the
	// name so the failure is visible downstream.
	c := strCtx()
	assert.Equal(t, "s.title()", mustLower(t, c, strCall("title")))
}

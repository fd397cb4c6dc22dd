package rust

// Keywords that may not appear as plain identifiers in emitted code.
// Strict and reserved keywords from the Rust reference; weak keywords
// (union, dyn in older editions) are escaped too since r# is always legal
// for them in call position.
var keywords = map[string]bool{
	"as": true, "break": true, "const": true, "continue": true,
	"crate": true, "dyn": true, "else": true, "enum": true,
	"extern": true, "false": true, "fn": true, "for": true,
	"if": true, "impl": true, "in": true, "let": true,
	"loop": true, "match": true, "mod": true, "move": true,
	"mut": true, "pub": true, "ref": true, "return": true,
	"static": true, "struct": true, "trait": true, "true": true,
	"type": true, "unsafe": true, "use": true, "where": true,
	"while": true, "abstract": true, "become": true, "box": true,
	"do": true, "final": true, "macro": true, "override": true,
	"priv": true, "typeof": true, "unsized": true, "virtual": true,
	"yield": true, "try": true, "async": true, "await": true,
	"union": true,
}

// Non-escapable keywords: r#self etc. is not legal Rust, so these pass
// through unchanged and upstream naming must avoid collisions.
var rawForbidden = map[string]bool{
	"self": true, "Self": true, "super": true, "crate": true, "_": true,
}

// IsKeyword reports whether name collides with a target keyword.
func IsKeyword(name string) bool { return keywords[name] }

// EscapeIdent returns name with raw-identifier escaping applied when it
// collides with a target keyword. Names for which r# is illegal are
// returned unchanged.
func EscapeIdent(name string) string {
	if keywords[name] && !rawForbidden[name] {
		return "r#" + name
	}
	return name
}

// ValidIdent reports whether name satisfies the target identifier grammar:
// nonempty, starts with a letter or underscore, continues alphanumeric or
// underscore. Raw-escaping is applied after validation, not instead of it.
func ValidIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		alpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		digit := r >= '0' && r <= '9'
		if i == 0 {
			if !alpha {
				return false
			}
		} else if !alpha && !digit {
			return false
		}
	}
	return true
}

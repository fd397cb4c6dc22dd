// Package evidence is the read-only view over parameter, local, field, and
// flow-derived types consulted during lowering.
//
// The store is populated entirely by the upstream elaboration pass (or, in
// tests and the CLI driver, from the `evidence:` section of a CUE unit).
// Lowering never writes to it; every miss returns a conservative default so
// lookups cannot fail.
package evidence

// Store answers "what do we statically know about this name?" during
// lowering. All methods are safe on a nil receiver, returning defaults,
// so a lowering pass with no evidence at all still runs.
type Store struct {
	vars     map[string]Tag
	attrs    map[string]Tag // "recv.attr" → tag
	borrowed map[string]bool
	charIter map[string]bool
	fallible map[string]bool
}

// Builder accumulates evidence before lowering starts. Once Freeze is
// called the resulting Store is immutable.
type Builder struct {
	s Store
}

// NewBuilder returns an empty evidence builder.
func NewBuilder() *Builder {
	return &Builder{s: Store{
		vars:     make(map[string]Tag),
		attrs:    make(map[string]Tag),
		borrowed: make(map[string]bool),
		charIter: make(map[string]bool),
		fallible: make(map[string]bool),
	}}
}

// Var records the tag of an identifier.
func (b *Builder) Var(name string, t Tag) *Builder {
	b.s.vars[name] = t
	return b
}

// Attr records the tag of receiver.attr.
func (b *Builder) Attr(recv, attr string, t Tag) *Builder {
	b.s.attrs[recv+"."+attr] = t
	return b
}

// Borrowed marks an identifier as a borrowed reference; comparisons against
// it auto-deref.
func (b *Builder) Borrowed(name string) *Builder {
	b.s.borrowed[name] = true
	return b
}

// CharIter marks an identifier as bound to single-character elements of a
// string iteration.
func (b *Builder) CharIter(name string, elemOfStr bool) *Builder {
	b.s.charIter[name] = elemOfStr
	return b
}

// FallibleAt marks an expression path (in the canonical "d[...]", "f()",
// "x.m()" notation of the elaborator) as producing a result that may fail.
func (b *Builder) FallibleAt(path string) *Builder {
	b.s.fallible[path] = true
	return b
}

// Freeze returns the immutable store. The builder must not be reused after.
func (b *Builder) Freeze() *Store {
	s := b.s
	return &s
}

// Lookup returns the tag recorded for an identifier, or Unknown.
func (s *Store) Lookup(name string) Tag {
	if s == nil {
		return Unknown
	}
	if t, ok := s.vars[name]; ok {
		return t
	}
	return Unknown
}

// LookupAttr returns the tag recorded for receiver.attr, or Unknown.
func (s *Store) LookupAttr(recv, attr string) Tag {
	if s == nil {
		return Unknown
	}
	if t, ok := s.attrs[recv+"."+attr]; ok {
		return t
	}
	return Unknown
}

// IsBorrowed reports whether the identifier is a borrowed reference.
func (s *Store) IsBorrowed(name string) bool {
	return s != nil && s.borrowed[name]
}

// IsCharIter reports whether the identifier iterates characters of a string.
func (s *Store) IsCharIter(name string) bool {
	return s != nil && s.charIter[name]
}

// IsFallibleAt reports whether the expression at the canonical path may
// fail at runtime, enabling short-circuit propagation inside a fallible
// function.
func (s *Store) IsFallibleAt(path string) bool {
	return s != nil && s.fallible[path]
}

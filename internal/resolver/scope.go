package resolver

import "github.com/art-lang/art/internal/restype"

// scope is a single lexical scope of variable bindings, mirroring vslc's
// symTab / scope-stack idiom (src/ir/llvm/transform.go's symTab, threaded
// through a util.Stack) but specialised to hold resolved types instead of
// LLVM values, since the resolver runs before any IR exists.
type scope struct {
	vars   map[string]restype.Type
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: make(map[string]restype.Type), parent: parent}
}

// bind introduces name in the current scope. Re-binding an existing name in
// the SAME scope is a Shadowing event; spec §4.2 says this is reported only
// when strict, and here resolution runs in the default (non-strict) mode,
// so it is neither recorded nor rejected: the new binding replaces the old.
func (s *scope) bind(name string, t restype.Type) {
	s.vars[name] = t
}

// lookup searches this scope and its ancestors for name.
func (s *scope) lookup(name string) (restype.Type, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if t, ok := cur.vars[name]; ok {
			return t, true
		}
	}
	return restype.Type{}, false
}

// declaredHere reports whether name is bound directly in this scope (not an
// ancestor), used to detect same-scope shadowing.
func (s *scope) declaredHere(name string) bool {
	_, ok := s.vars[name]
	return ok
}

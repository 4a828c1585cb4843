package export

import (
	"sort"

	"github.com/wippyai/cs-bindgen/errors"
	"github.com/wippyai/cs-bindgen/schema"
)

// Set is the read-only collection of exports recovered from one module.
// It is built once and never mutated; accessors return exports in a fixed order
// so everything derived from a Set is deterministic.
type Set struct {
	byID    map[string]Export
	types   map[schema.TypeName]*Named
	named   []*Named
	fns     []*Fn
	methods []*Method
}

// NewSet builds a Set from exports. Duplicate identifiers, duplicate type names
// and inconsistent Named exports are rejected.
func NewSet(exports []Export) (*Set, error) {
	s := &Set{
		byID:  make(map[string]Export, len(exports)),
		types: make(map[schema.TypeName]*Named),
	}

	for _, e := range exports {
		if e == nil {
			continue
		}
		id := e.Identifier()
		if _, dup := s.byID[id]; dup {
			return nil, errors.NameCollision(errors.PhaseDecode, id)
		}
		s.byID[id] = e

		switch t := e.(type) {
		case *Named:
			if err := t.Validate(); err != nil {
				return nil, err
			}
			if _, dup := s.types[t.TypeName]; dup {
				return nil, errors.NameCollision(errors.PhaseDecode, t.TypeName.String())
			}
			s.types[t.TypeName] = t
			s.named = append(s.named, t)
		case *Fn:
			s.fns = append(s.fns, t)
		case *Method:
			s.methods = append(s.methods, t)
		}
	}

	sort.Slice(s.named, func(i, j int) bool {
		return s.named[i].TypeName.Less(s.named[j].TypeName)
	})
	sort.Slice(s.fns, func(i, j int) bool {
		return s.fns[i].Name < s.fns[j].Name
	})
	sort.Slice(s.methods, func(i, j int) bool {
		a, b := s.methods[i], s.methods[j]
		if a.SelfType != b.SelfType {
			return a.SelfType.Less(b.SelfType)
		}
		return a.Name < b.Name
	})

	return s, nil
}

// Len returns the number of exports in the set.
func (s *Set) Len() int {
	return len(s.byID)
}

// Get returns the export with the given identifier.
func (s *Set) Get(id string) (Export, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// Lookup returns the Named export declaring tn.
func (s *Set) Lookup(tn schema.TypeName) (*Named, bool) {
	n, ok := s.types[tn]
	return n, ok
}

// Named returns the named-type exports ordered by module path then name.
func (s *Set) Named() []*Named {
	return append([]*Named(nil), s.named...)
}

// Fns returns the free functions ordered by name.
func (s *Set) Fns() []*Fn {
	return append([]*Fn(nil), s.fns...)
}

// Methods returns every method ordered by self type then name.
func (s *Set) Methods() []*Method {
	return append([]*Method(nil), s.methods...)
}

// MethodsOf returns the methods whose self type is tn, ordered by name.
func (s *Set) MethodsOf(tn schema.TypeName) []*Method {
	var out []*Method
	for _, m := range s.methods {
		if m.SelfType == tn {
			out = append(out, m)
		}
	}
	return out
}

// All returns every export: named types first, then functions, then methods.
func (s *Set) All() []Export {
	out := make([]Export, 0, len(s.byID))
	for _, n := range s.named {
		out = append(out, n)
	}
	for _, f := range s.fns {
		out = append(out, f)
	}
	for _, m := range s.methods {
		out = append(out, m)
	}
	return out
}

// LocalNameCollisions returns the local type names declared by more than one module.
func (s *Set) LocalNameCollisions() map[string]bool {
	seen := make(map[string]int)
	for _, n := range s.named {
		seen[n.TypeName.Name]++
	}
	out := make(map[string]bool)
	for name, count := range seen {
		if count > 1 {
			out[name] = true
		}
	}
	return out
}

// SPDX-License-Identifier: MPL-2.0

package npmpublish

import "slices"

const (
	// ScopeNormal is a runtime dependency ("dependencies").
	ScopeNormal DependencyScope = "normal"
	// ScopeDev is a development dependency ("devDependencies").
	ScopeDev DependencyScope = "dev"
	// ScopeOptional is an optional dependency ("optionalDependencies").
	ScopeOptional DependencyScope = "optional"
	// ScopePeer is a peer dependency ("peerDependencies").
	ScopePeer DependencyScope = "peer"
)

type (
	// DependencyScope selects the descriptor section a dependency lands in.
	DependencyScope string

	// Dependency is one external npm package requirement. Two dependencies
	// are the same when name, version and scope all match.
	Dependency struct {
		Name    string
		Version string
		Scope   DependencyScope
	}

	// DependencySet is an insertion-ordered set of dependencies.
	DependencySet struct {
		items []Dependency
		index map[Dependency]struct{}
	}
)

// normalized returns d with an empty scope mapped to ScopeNormal.
func (d Dependency) normalized() Dependency {
	if d.Scope == "" {
		d.Scope = ScopeNormal
	}
	return d
}

// Add inserts d and reports whether it was not already present.
func (s *DependencySet) Add(d Dependency) bool {
	d = d.normalized()
	if s.index == nil {
		s.index = make(map[Dependency]struct{})
	}
	if _, ok := s.index[d]; ok {
		return false
	}
	s.index[d] = struct{}{}
	s.items = append(s.items, d)
	return true
}

// AddAll inserts every dependency in deps and returns how many were new.
func (s *DependencySet) AddAll(deps ...Dependency) int {
	added := 0
	for _, d := range deps {
		if s.Add(d) {
			added++
		}
	}
	return added
}

// Contains reports whether d is in the set.
func (s *DependencySet) Contains(d Dependency) bool {
	_, ok := s.index[d.normalized()]
	return ok
}

// Len returns the number of dependencies.
func (s *DependencySet) Len() int {
	return len(s.items)
}

// Items returns a copy of the dependencies in insertion order.
func (s *DependencySet) Items() []Dependency {
	return slices.Clone(s.items)
}

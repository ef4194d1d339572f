package module

import (
	"slices"
	"strings"
)

// Principal types produced by the bundled modules.
const (
	PrincipalUsername = "username"
	PrincipalRole     = "role"
	PrincipalKerberos = "kerberos"
)

// Principal is an identity attribute asserted by a module.
type Principal struct {
	Type string
	Name string
}

func (p Principal) String() string {
	return p.Type + ":" + p.Name
}

// UsernamePrincipal returns the principal every successful attempt carries.
func UsernamePrincipal(name string) Principal {
	return Principal{Type: PrincipalUsername, Name: name}
}

// PrincipalSet is a set of principals keyed by (Type, Name). Create it with
// [NewPrincipalSet]; the zero value is read-only.
type PrincipalSet map[Principal]struct{}

// NewPrincipalSet returns a set holding ps.
func NewPrincipalSet(ps ...Principal) PrincipalSet {
	s := make(PrincipalSet, len(ps))
	for _, p := range ps {
		s[p] = struct{}{}
	}
	return s
}

// Add inserts p and reports whether it was new.
func (s PrincipalSet) Add(p Principal) bool {
	if _, ok := s[p]; ok {
		return false
	}
	s[p] = struct{}{}
	return true
}

// Merge adds every principal of other.
func (s PrincipalSet) Merge(other PrincipalSet) {
	for p := range other {
		s[p] = struct{}{}
	}
}

func (s PrincipalSet) Contains(p Principal) bool {
	_, ok := s[p]
	return ok
}

func (s PrincipalSet) Len() int {
	return len(s)
}

// Slice returns the principals sorted by type then name.
func (s PrincipalSet) Slice() []Principal {
	out := make([]Principal, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Principal) int {
		if c := strings.Compare(a.Type, b.Type); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Names returns the names of principals of the given type, sorted.
func (s PrincipalSet) Names(typ string) []string {
	var out []string
	for p := range s {
		if p.Type == typ {
			out = append(out, p.Name)
		}
	}
	slices.Sort(out)
	return out
}

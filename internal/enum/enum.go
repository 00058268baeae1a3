// Package enum implements closed sets of named, integer-identified constants.
//
// A set is declared once from static (id, name) pairs and backs a named
// integer type:
//
//	type Condition int
//
//	const (
//		_ Condition = iota // zero is the absent value
//		Mint
//		NearMint
//	)
//
//	var conditions = enum.New("Condition",
//		enum.Member[Condition]{ID: Mint, Name: "Mint"},
//		enum.Member[Condition]{ID: NearMint, Name: "NearMint"},
//	)
//
// Lookups by unknown id or name fail with a types.ErrNotFound error naming the
// value and the enumeration type.
package enum

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/ginjaninja78/deck-csv-converter/internal/types"
)

// Member is one declared constant of an enumeration.
type Member[T ~int] struct {
	ID   T
	Name string
}

// Set is an immutable enumeration table.
type Set[T ~int] struct {
	typeName string
	members  []Member[T] // sorted by id
	byID     map[T]string
	byName   map[string]T
}

// New builds a set from its declared members. Declarations are static, so a
// duplicate id or name, or the reserved zero id, is a programming error and
// panics.
func New[T ~int](typeName string, members ...Member[T]) *Set[T] {
	s := &Set[T]{
		typeName: typeName,
		members:  slices.Clone(members),
		byID:     make(map[T]string, len(members)),
		byName:   make(map[string]T, len(members)),
	}

	for _, m := range members {
		if m.ID == 0 {
			panic(fmt.Sprintf("enum %s: id 0 is reserved for the absent value", typeName))
		}
		if _, dup := s.byID[m.ID]; dup {
			panic(fmt.Sprintf("enum %s: duplicate id %d", typeName, int(m.ID)))
		}
		if _, dup := s.byName[m.Name]; dup {
			panic(fmt.Sprintf("enum %s: duplicate name %q", typeName, m.Name))
		}
		s.byID[m.ID] = m.Name
		s.byName[m.Name] = m.ID
	}

	slices.SortFunc(s.members, func(a, b Member[T]) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return s
}

// TypeName returns the enumeration type name used in error messages.
func (s *Set[T]) TypeName() string {
	return s.typeName
}

// ByID returns the member with the given id.
func (s *Set[T]) ByID(id int) (T, error) {
	v := T(id)
	if _, ok := s.byID[v]; !ok {
		return 0, types.NotFound(s.typeName, strconv.Itoa(id))
	}
	return v, nil
}

// ByName returns the member with the given name. Matching is case-sensitive.
func (s *Set[T]) ByName(name string) (T, error) {
	v, ok := s.byName[name]
	if !ok {
		return 0, types.NotFound(s.typeName, name)
	}
	return v, nil
}

// Contains reports whether v is a declared member.
func (s *Set[T]) Contains(v T) bool {
	_, ok := s.byID[v]
	return ok
}

// Name returns the canonical name of v, or "Type(n)" for undeclared values.
func (s *Set[T]) Name(v T) string {
	if name, ok := s.byID[v]; ok {
		return name
	}
	return fmt.Sprintf("%s(%d)", s.typeName, int(v))
}

// Values returns all members in id order.
func (s *Set[T]) Values() []T {
	values := make([]T, len(s.members))
	for i, m := range s.members {
		values[i] = m.ID
	}
	return values
}

// Names returns all member names in id order.
func (s *Set[T]) Names() []string {
	names := make([]string, len(s.members))
	for i, m := range s.members {
		names[i] = m.Name
	}
	return names
}

// Compare orders two members by id.
func Compare[T ~int](a, b T) int {
	return cmp.Compare(a, b)
}

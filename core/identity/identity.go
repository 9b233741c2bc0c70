// Package identity provides the typed principal model for Kayan login modules.
//
// A Principal is a named, typed fact asserted about an authenticated party:
// the user itself, the domain it authenticated against, or a group it belongs
// to. Validators return ordered slices of principals; the module lifecycle
// stages them and applies them to a host-owned PrincipalSet on commit.
//
// # Kinds
//
//   - KindUser: a username or user SID
//   - KindDomain: a domain name or domain SID
//   - KindGroup: a group name or group SID
//   - KindUnknown: a principal of unknown type
//
// # Equality
//
// Two principals are equal when both kind and name match. A bare principal
// created with Named carries no kind and compares equal to any principal with
// the same name, which lets a host look a principal up by name alone:
//
//	subject.Contains(identity.Named("alice")) // true for User("alice")
package identity

import (
	"errors"
	"fmt"
)

// Kind is the type of a Principal.
type Kind int

const (
	// KindNone marks a bare, name-only principal. It is never produced by a
	// validator and only exists for name-based lookups.
	KindNone Kind = iota
	KindUser
	KindDomain
	KindGroup
	KindUnknown
)

var kindNames = [...]string{"", "USER", "DOMAIN", "GROUP", "UNKNOWN"}

func (k Kind) String() string {
	if k < KindNone || k > KindUnknown {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

var (
	ErrEmptyName = errors.New("identity: principal name must not be empty")
	ErrBadKind   = errors.New("identity: bad principal kind")
)

// Principal is an immutable (name, kind) pair.
type Principal struct {
	name string
	kind Kind
}

// New creates a principal, rejecting empty names and unknown kinds.
func New(name string, kind Kind) (Principal, error) {
	if name == "" {
		return Principal{}, ErrEmptyName
	}
	if kind < KindUser || kind > KindUnknown {
		return Principal{}, fmt.Errorf("%w: %d", ErrBadKind, int(kind))
	}
	return Principal{name: name, kind: kind}, nil
}

func must(name string, kind Kind) Principal {
	p, err := New(name, kind)
	if err != nil {
		panic(err)
	}
	return p
}

// User returns a user principal. It panics on an empty name; validators
// only call it with names they have already looked up.
func User(name string) Principal { return must(name, KindUser) }

func Group(name string) Principal   { return must(name, KindGroup) }
func Domain(name string) Principal  { return must(name, KindDomain) }
func Unknown(name string) Principal { return must(name, KindUnknown) }

// Named returns a bare name-only principal used for lookups.
func Named(name string) Principal { return Principal{name: name, kind: KindNone} }

func (p Principal) Name() string { return p.name }
func (p Principal) Kind() Kind   { return p.kind }

// IsZero reports whether p is the zero Principal.
func (p Principal) IsZero() bool { return p.name == "" && p.kind == KindNone }

// Equal compares kind and name. If either side is a bare principal only the
// names are compared.
func (p Principal) Equal(o Principal) bool {
	if p.name != o.name {
		return false
	}
	if p.kind == KindNone || o.kind == KindNone {
		return true
	}
	return p.kind == o.kind
}

// Key is the hash key of a principal. Kind does not take part so that typed
// and bare principals land in the same bucket.
func (p Principal) Key() string { return p.name }

// Less orders principals by name only.
func (p Principal) Less(o Principal) bool { return p.name < o.name }

func (p Principal) String() string {
	if p.kind == KindNone {
		return "Principal: " + p.name
	}
	return fmt.Sprintf("Principal: %s [%s]", p.name, p.kind)
}

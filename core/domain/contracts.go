// Package domain defines the core contracts of Kayan login modules.
//
// Validators check a username/secret pair against a credential store and
// return the principals that apply to the user. The module lifecycle in
// package module is written purely against these interfaces, so a file store,
// a database table and an external OS identity backend are interchangeable.
//
// # Interfaces
//
//   - Validator: validate(username, secret) -> principals
//   - DomainValidator: a Validator that also needs a domain name
//   - SessionValidator: a Validator holding a backend session that must be
//     torn down on logout
//   - Hasher: one-way secret digests used by the file store
package domain

import (
	"context"

	"github.com/getkayan/kayan-login/core/identity"
)

// Validator checks credentials. The first returned principal is the user,
// followed by groups in store order.
//
// Implementations serialise calls internally; Validate is safe to call from
// several goroutines but only one call is in flight at a time.
type Validator interface {
	Validate(ctx context.Context, username string, secret []byte) ([]identity.Principal, error)
}

// DomainValidator is a Validator that authenticates against a named domain.
type DomainValidator interface {
	Validator
	ValidateDomain(ctx context.Context, username string, secret []byte, domain string) ([]identity.Principal, error)
}

// SessionValidator is a Validator that keeps backend session state after a
// successful validation. Logoff is called from the module's logout.
type SessionValidator interface {
	Validator
	Logoff(ctx context.Context) error
}

// Hasher defines one-way hashing of secrets for stored credentials.
type Hasher interface {
	Hash(secret []byte) ([]byte, error)
	Compare(secret, hash []byte) bool
}

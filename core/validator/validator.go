// Package validator implements the credential stores behind login modules.
//
// Every validator satisfies domain.Validator and serialises its own calls:
//
//   - FileValidator: colon separated password file, reloaded when its
//     modification time changes
//   - DBValidator: one parameterised SELECT per attempt through gorm
//   - ExternalValidator: adapter for an external OS identity backend
//   - LockoutValidator: decorator adding brute-force lockout to any of the above
package validator

import (
	"fmt"
	"strings"

	"github.com/getkayan/kayan-login/core/domain"
	"github.com/getkayan/kayan-login/core/secret"
)

func defaultHasher() domain.Hasher { return secret.NewMD5Hasher() }

// NewHasher returns the hasher registered under name: "md5" (default) or
// "bcrypt".
func NewHasher(name string) (domain.Hasher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "md5":
		return secret.NewMD5Hasher(), nil
	case "bcrypt":
		return secret.NewBcryptHasher(0), nil
	}
	return nil, fmt.Errorf("%w: unknown hash algorithm %q (hashAlgorithm=?)", domain.ErrConfig, name)
}

package secret

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MD5Hasher produces the legacy 32 character lowercase hex MD5 digest used by
// password files. The digest is computed over the low byte of each UTF-16
// code unit of the secret, so stores written by older tooling keep working.
// It is stateless and safe for concurrent use.
type MD5Hasher struct{}

func NewMD5Hasher() MD5Hasher { return MD5Hasher{} }

func (MD5Hasher) Hash(secret []byte) ([]byte, error) {
	low := lowBytes(secret)
	defer Wipe(low)

	sum := md5.Sum(low)
	defer Wipe(sum[:])

	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum[:])
	return out, nil
}

// Compare hashes secret and compares it to hash in constant time. Lengths
// must match exactly.
func (h MD5Hasher) Compare(secret, hash []byte) bool {
	got, err := h.Hash(secret)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, hash) == 1
}

// HashString hashes a secret given as a string, for populating stores.
func HashString(s string) string {
	b := []byte(s)
	defer Wipe(b)
	out, _ := MD5Hasher{}.Hash(b)
	return string(out)
}

// lowBytes returns a fresh slice holding the low-order byte of every UTF-16
// code unit in secret. Secrets that are not valid UTF-8 are copied as is.
func lowBytes(secret []byte) []byte {
	out := make([]byte, 0, len(secret))
	if !utf8.Valid(secret) {
		return append(out, secret...)
	}
	for i := 0; i < len(secret); {
		r, size := utf8.DecodeRune(secret[i:])
		i += size
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			out = append(out, byte(r1), byte(r2))
			continue
		}
		out = append(out, byte(r))
	}
	return out
}

// BcryptHasher stores secrets as bcrypt hashes.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(secret []byte) ([]byte, error) {
	return bcrypt.GenerateFromPassword(secret, h.Cost)
}

func (h *BcryptHasher) Compare(secret, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, secret) == nil
}

// Package secret handles plaintext secrets and their one-way digests.
//
// Plaintext secrets live in a Buffer that is wiped in place once the owner is
// done with it. Callers defer the wipe right after obtaining the buffer so it
// runs on every exit path:
//
//	buf := secret.FromBytes(pw)
//	defer buf.Wipe()
package secret

// Buffer owns a plaintext secret.
type Buffer struct {
	b []byte
}

// FromBytes takes ownership of b. The caller must not keep other references
// that outlive the buffer.
func FromBytes(b []byte) *Buffer { return &Buffer{b: b} }

// FromString copies s into a new buffer. The string itself cannot be wiped.
func FromString(s string) *Buffer { return &Buffer{b: []byte(s)} }

// Bytes exposes the underlying storage. It is zeroed by Wipe.
func (s *Buffer) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b
}

func (s *Buffer) Len() int {
	if s == nil {
		return 0
	}
	return len(s.b)
}

// Wipe zeroes the buffer in place. Safe on a nil buffer and safe to repeat.
func (s *Buffer) Wipe() {
	if s == nil {
		return
	}
	Wipe(s.b)
}

// Wipe zeroes b in place.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// IsWiped reports whether every byte of b is zero.
func IsWiped(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

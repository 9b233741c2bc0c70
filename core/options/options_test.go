package options

import (
	"testing"

	"github.com/getkayan/kayan-login/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBool(t *testing.T) {
	opts := Options{
		"a": "TRUE", "b": " yes ", "c": "1",
		"d": "False", "e": "NO", "f": "0",
		"g": "maybe",
	}
	for _, k := range []string{"a", "b", "c"} {
		assert.True(t, opts.Bool(k, false), k)
	}
	for _, k := range []string{"d", "e", "f"} {
		assert.False(t, opts.Bool(k, true), k)
	}
	assert.True(t, opts.Bool("g", true))
	assert.False(t, opts.Bool("g", false))
	assert.True(t, opts.Bool("missing", true))
}

func TestInt(t *testing.T) {
	opts := Options{"n": "42", "neg": "-3", "bad": "4x", "hex": "0x10"}
	assert.Equal(t, 42, opts.Int("n", 0))
	assert.Equal(t, -3, opts.Int("neg", 0))
	assert.Equal(t, 7, opts.Int("bad", 7))
	assert.Equal(t, 7, opts.Int("hex", 7))
	assert.Equal(t, 9, opts.Int("missing", 9))
}

func TestStringAndRequire(t *testing.T) {
	var nilOpts Options
	assert.Equal(t, "User", nilOpts.String("userTable", "User"))

	opts := Options{"pwdFile": "/etc/passwd", "empty": ""}
	assert.Equal(t, "/etc/passwd", opts.String("pwdFile", ""))
	assert.Equal(t, "", opts.String("empty", "x"))

	v, err := opts.Require("pwdFile", "a password file must be named")
	require.NoError(t, err)
	assert.Equal(t, "/etc/passwd", v)

	_, err = opts.Require("dbURL", "no database URL specified")
	require.ErrorIs(t, err, domain.ErrConfig)
	assert.Contains(t, err.Error(), "dbURL=?")

	_, err = opts.Require("empty", "empty value")
	require.ErrorIs(t, err, domain.ErrConfig)
}

func TestLookupFoldsCase(t *testing.T) {
	o := Options{"pwdfile": "/etc/passwd", "Debug": "yes", "debug": "no"}

	v, ok := o.Lookup("pwdFile")
	assert.True(t, ok)
	assert.Equal(t, "/etc/passwd", v)

	assert.False(t, o.Bool("debug", true), "exact match wins")
	assert.True(t, o.Bool("Debug", false))
}

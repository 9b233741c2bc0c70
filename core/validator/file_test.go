package validator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/getkayan/kayan-login/core/domain"
	"github.com/getkayan/kayan-login/core/identity"
	"github.com/getkayan/kayan-login/core/secret"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStore writes content to path and pins its modification time so that
// tests do not depend on filesystem timestamp granularity.
func writeStore(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func newStore(t *testing.T, content string) (string, time.Time) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "passwd")
	mtime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeStore(t, path, content, mtime)
	return path, mtime
}

func TestParseLine(t *testing.T) {
	rec, err := ParseLine("  alice:abc:dev:ops  # trailing comment")
	require.NoError(t, err)
	assert.Equal(t, "alice", rec.Username)
	assert.Equal(t, []byte("abc"), rec.SecretHash)
	assert.Equal(t, []string{"dev", "ops"}, rec.Groups)

	rec, err = ParseLine("bob:abc::ops")
	require.NoError(t, err)
	assert.Equal(t, []string{"ops"}, rec.Groups)

	for _, blank := range []string{"", "   ", "# only a comment", "\t# x"} {
		rec, err := ParseLine(blank)
		require.NoError(t, err, blank)
		assert.Nil(t, rec, blank)
	}

	for _, bad := range []string{"aliceonly", ":", "alice:", ":abc"} {
		_, err := ParseLine(bad)
		assert.Error(t, err, bad)
	}
}

func TestFileValidatorValidate(t *testing.T) {
	path, _ := newStore(t, "# users\n"+
		"alice:"+secret.HashString("pw")+":dev:ops\n"+
		"\n"+
		"bob:"+secret.HashString("hunter2")+"\n")
	v := NewFileValidator(path, nil, nil)
	ctx := context.Background()

	ps, err := v.Validate(ctx, "alice", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, []identity.Principal{
		identity.User("alice"), identity.Group("dev"), identity.Group("ops"),
	}, ps)

	ps, err = v.Validate(ctx, "bob", []byte("hunter2"))
	require.NoError(t, err)
	assert.Equal(t, []identity.Principal{identity.User("bob")}, ps)

	_, err = v.Validate(ctx, "alice", []byte("wrong"))
	assert.ErrorIs(t, err, domain.ErrBadPassword)

	_, err = v.Validate(ctx, "carol", []byte("pw"))
	assert.ErrorIs(t, err, domain.ErrUnknownUser)
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestFileValidatorReloadsOnlyOnChange(t *testing.T) {
	path, mtime := newStore(t, "alice:"+secret.HashString("pw")+":dev\n")
	v := NewFileValidator(path, nil, nil)
	ctx := context.Background()

	_, err := v.Validate(ctx, "alice", []byte("pw"))
	require.NoError(t, err)
	_, err = v.Validate(ctx, "alice", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, 1, v.Reloads())

	writeStore(t, path, "alice:"+secret.HashString("new")+":admin\n", mtime.Add(time.Minute))

	_, err = v.Validate(ctx, "alice", []byte("pw"))
	assert.ErrorIs(t, err, domain.ErrBadPassword)
	ps, err := v.Validate(ctx, "alice", []byte("new"))
	require.NoError(t, err)
	assert.Equal(t, []identity.Principal{identity.User("alice"), identity.Group("admin")}, ps)
	assert.Equal(t, 2, v.Reloads())
}

func TestFileValidatorMalformedLineKeepsCache(t *testing.T) {
	path, mtime := newStore(t, "alice:"+secret.HashString("pw")+":dev\n")
	v := NewFileValidator(path, nil, nil)
	ctx := context.Background()

	_, err := v.Validate(ctx, "alice", []byte("pw"))
	require.NoError(t, err)

	writeStore(t, path, "bob:"+secret.HashString("pw")+"\naliceonly\n", mtime.Add(time.Minute))

	_, err = v.Validate(ctx, "alice", []byte("pw"))
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, 1, v.Reloads())

	// The failed reload is retried on the next call; fixing the file heals it.
	writeStore(t, path, "bob:"+secret.HashString("pw")+"\n", mtime.Add(2*time.Minute))
	ps, err := v.Validate(ctx, "bob", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, []identity.Principal{identity.User("bob")}, ps)

	_, err = v.Validate(ctx, "alice", []byte("pw"))
	assert.ErrorIs(t, err, domain.ErrUnknownUser)
}

func TestFileValidatorMalformedOnFirstLoad(t *testing.T) {
	path, _ := newStore(t, "aliceonly\n")
	v := NewFileValidator(path, nil, nil)

	_, err := v.Validate(context.Background(), "aliceonly", []byte("pw"))
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, 0, v.Reloads())
}

func TestFileValidatorMissingFile(t *testing.T) {
	v := NewFileValidator(filepath.Join(t.TempDir(), "absent"), nil, nil)
	_, err := v.Validate(context.Background(), "alice", []byte("pw"))
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestFileValidatorBcrypt(t *testing.T) {
	h, err := NewHasher("bcrypt")
	require.NoError(t, err)
	hash, err := h.Hash([]byte("pw"))
	require.NoError(t, err)

	path, _ := newStore(t, "alice:"+string(hash)+":dev\n")
	v := NewFileValidator(path, secret.NewBcryptHasher(4), nil)

	ps, err := v.Validate(context.Background(), "alice", []byte("pw"))
	require.NoError(t, err)
	assert.Len(t, ps, 2)
}

func TestNewHasher(t *testing.T) {
	for _, name := range []string{"", "md5", "MD5", "bcrypt"} {
		_, err := NewHasher(name)
		assert.NoError(t, err, name)
	}
	_, err := NewHasher("sha1")
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestLoadRecordsLongLines(t *testing.T) {
	groups := strings.Repeat(":g", 50_000)
	path, _ := newStore(t, "alice:"+secret.HashString("pw")+groups+"\n")

	records, err := LoadRecords(path)
	require.NoError(t, err)
	assert.Len(t, records["alice"].Groups, 50_000)

	path, _ = newStore(t, "bob:"+secret.HashString("pw")+"\n"+
		"alice:"+secret.HashString("pw")+strings.Repeat(":g", MaxLineLength/2+1)+"\n")
	_, err = LoadRecords(path)
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "line 2: longer than")
}

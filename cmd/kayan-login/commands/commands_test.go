package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkayan/kayan-login/core/callback"
	"github.com/getkayan/kayan-login/core/domain"
	"github.com/getkayan/kayan-login/core/secret"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and stdin, resetting flag state
// left over from earlier runs.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cfgFile, logLevel = "", ""
	hashAlgorithm, hashUser, hashGroups = "md5", "", nil
	loginUser = ""

	var out bytes.Buffer
	root := GetRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestTerminalHandler(t *testing.T) {
	var out bytes.Buffer
	h := NewTerminalHandler(strings.NewReader("alice\npw\r\nCORP"), &out)

	name := callback.NewNameCallback("Username: ")
	pass := callback.NewPasswordCallback("Password: ", false)
	dom := callback.NewTextInputCallback("Domain: ")
	require.NoError(t, h.Handle(context.Background(), []callback.Callback{name, pass, dom}))

	assert.Equal(t, "alice", name.Name)
	assert.Equal(t, []byte("pw"), pass.TakePassword())
	assert.Equal(t, "CORP", dom.Text)
	assert.Equal(t, "Username: Password: Domain: ", out.String())
}

func TestTerminalHandlerPresetUser(t *testing.T) {
	h := NewTerminalHandler(strings.NewReader("pw\n"), &bytes.Buffer{})
	h.Username = "bob"

	name := callback.NewNameCallback("Username: ")
	pass := callback.NewPasswordCallback("Password: ", false)
	require.NoError(t, h.Handle(context.Background(), []callback.Callback{name, pass}))
	assert.Equal(t, "bob", name.Name)
	assert.Equal(t, []byte("pw"), pass.TakePassword())
}

func TestTerminalHandlerEOF(t *testing.T) {
	h := NewTerminalHandler(strings.NewReader(""), &bytes.Buffer{})
	err := h.Handle(context.Background(), []callback.Callback{callback.NewNameCallback("Username: ")})
	assert.Error(t, err)
}

func TestHashCommand(t *testing.T) {
	out, err := execute(t, "pw\n", "hash")
	require.NoError(t, err)
	assert.Equal(t, secret.HashString("pw")+"\n", out)

	out, err = execute(t, "pw\n", "hash", "--user", "alice", "--groups", "dev,ops")
	require.NoError(t, err)
	assert.Equal(t, "alice:"+secret.HashString("pw")+":dev:ops\n", out)

	_, err = execute(t, "\n", "hash")
	assert.Error(t, err)

	_, err = execute(t, "pw\n", "hash", "--algorithm", "sha1")
	assert.ErrorIs(t, err, domain.ErrConfig)

	_, err = execute(t, "pw\n", "hash", "--groups", "dev")
	assert.Error(t, err)
}

func loginConfig(t *testing.T) string {
	pwd := writeFile(t, "passwd", "alice:"+secret.HashString("pw")+":dev\n")
	return writeFile(t, "login.yaml", `
log_level: error
modules:
  - name: local
    type: file
    options:
      pwdFile: `+pwd+`
`)
}

func TestLoginCommand(t *testing.T) {
	cfg := loginConfig(t)

	out, err := execute(t, "alice\npw\n", "login", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "authenticated by local\n"+
		"Principal: alice [USER]\n"+
		"Principal: dev [GROUP]\n", out)

	_, err = execute(t, "pw\n", "login", "local", "--config", cfg, "--user", "alice")
	require.NoError(t, err)

	_, err = execute(t, "wrong\n", "login", "--config", cfg, "--user", "alice")
	assert.ErrorIs(t, err, domain.ErrBadPassword)

	_, err = execute(t, "", "login", "missing", "--config", cfg)
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestCheckStoreCommand(t *testing.T) {
	cfg := loginConfig(t)
	out, err := execute(t, "", "check-store", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "local: ok, 1 users in")

	broken := writeFile(t, "broken.yaml", `
modules:
  - name: gone
    type: file
    options:
      pwdFile: /nonexistent/kayan/passwd
  - name: ext
    type: external
`)
	out, err = execute(t, "", "check-store", "--config", broken)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, out, "gone: FAIL")
	assert.Contains(t, out, `ext: skipped`)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "kayan-login dev")
	assert.Contains(t, out, "sqlite")
}

// Package callback is the channel through which a login module asks the host
// for credentials.
//
// A module builds a list of callbacks (name, password, optional text such as
// a domain) and hands them to the host's Handler in one call. The handler
// fills them in or fails with ErrUnsupported or an I/O error.
package callback

import (
	"context"
	"errors"
	"fmt"
)

// Callback is a single request for information from the host.
type Callback interface {
	Prompt() string
}

// NameCallback requests a username.
type NameCallback struct {
	prompt string
	Name   string
}

func NewNameCallback(prompt string) *NameCallback { return &NameCallback{prompt: prompt} }
func (c *NameCallback) Prompt() string           { return c.prompt }

// PasswordCallback requests a secret. The handler stores the secret with
// SetPassword; the module takes ownership with TakePassword and is then
// responsible for wiping it.
type PasswordCallback struct {
	prompt   string
	Echo     bool
	password []byte
}

func NewPasswordCallback(prompt string, echo bool) *PasswordCallback {
	return &PasswordCallback{prompt: prompt, Echo: echo}
}

func (c *PasswordCallback) Prompt() string { return c.prompt }

// SetPassword stores a copy of pw.
func (c *PasswordCallback) SetPassword(pw []byte) {
	c.ClearPassword()
	c.password = append([]byte(nil), pw...)
}

// TakePassword hands the stored secret to the caller and forgets it.
func (c *PasswordCallback) TakePassword() []byte {
	pw := c.password
	c.password = nil
	return pw
}

// ClearPassword zeroes and drops any stored secret.
func (c *PasswordCallback) ClearPassword() {
	for i := range c.password {
		c.password[i] = 0
	}
	c.password = nil
}

// TextInputCallback requests free text such as a domain name.
type TextInputCallback struct {
	prompt string
	Text   string
}

func NewTextInputCallback(prompt string) *TextInputCallback {
	return &TextInputCallback{prompt: prompt}
}

func (c *TextInputCallback) Prompt() string { return c.prompt }

// Handler fills in callbacks on behalf of the host.
type Handler interface {
	Handle(ctx context.Context, callbacks []Callback) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, callbacks []Callback) error

func (f HandlerFunc) Handle(ctx context.Context, callbacks []Callback) error {
	return f(ctx, callbacks)
}

// ErrUnsupported is returned by handlers for callbacks they cannot serve.
var ErrUnsupported = errors.New("callback: unsupported callback")

// UnsupportedError names the callback a handler could not serve.
func UnsupportedError(cb Callback) error {
	return fmt.Errorf("%w: %T %q", ErrUnsupported, cb, cb.Prompt())
}

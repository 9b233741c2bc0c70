package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/getkayan/kayan-login/core/callback"
	"github.com/getkayan/kayan-login/core/secret"
	"golang.org/x/term"
)

// TerminalHandler answers login callbacks interactively. Secrets are read
// without echo when In is a terminal.
type TerminalHandler struct {
	In  io.Reader
	Out io.Writer

	// Username, when set, answers the name prompt without asking.
	Username string

	reader *bufio.Reader
}

func NewTerminalHandler(in io.Reader, out io.Writer) *TerminalHandler {
	return &TerminalHandler{In: in, Out: out}
}

func (h *TerminalHandler) Handle(ctx context.Context, callbacks []callback.Callback) error {
	for _, cb := range callbacks {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch c := cb.(type) {
		case *callback.NameCallback:
			if h.Username != "" {
				c.Name = h.Username
				continue
			}
			line, err := h.prompt(c.Prompt())
			if err != nil {
				return err
			}
			c.Name = line
		case *callback.PasswordCallback:
			pw, err := h.readSecret(c.Prompt(), c.Echo)
			if err != nil {
				return err
			}
			c.SetPassword(pw)
			secret.Wipe(pw)
		case *callback.TextInputCallback:
			line, err := h.prompt(c.Prompt())
			if err != nil {
				return err
			}
			c.Text = line
		default:
			return callback.UnsupportedError(cb)
		}
	}
	return nil
}

func (h *TerminalHandler) prompt(text string) (string, error) {
	fmt.Fprint(h.Out, text)
	line, err := h.lineReader().ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading %q: %w", strings.TrimSpace(text), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (h *TerminalHandler) readSecret(text string, echo bool) ([]byte, error) {
	if f, ok := h.In.(*os.File); ok && !echo && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(h.Out, text)
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(h.Out)
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		return pw, nil
	}

	fmt.Fprint(h.Out, text)
	line, err := h.lineReader().ReadSlice('\n')
	if err != nil && (err != io.EOF || len(line) == 0) {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	n := len(line)
	for n > 0 && (line[n-1] == '\n' || line[n-1] == '\r') {
		n--
	}
	pw := append([]byte(nil), line[:n]...)
	secret.Wipe(line)
	return pw, nil
}

func (h *TerminalHandler) lineReader() *bufio.Reader {
	if h.reader == nil {
		h.reader = bufio.NewReader(h.In)
	}
	return h.reader
}

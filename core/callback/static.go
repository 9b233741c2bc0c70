package callback

import "context"

// StaticHandler answers callbacks from fixed values. It is meant for
// non-interactive hosts and tests. The password is copied into each
// PasswordCallback; the StaticHandler keeps its own copy.
type StaticHandler struct {
	Username string
	Password []byte
	Text     string
}

func NewStaticHandler(username, password string) *StaticHandler {
	return &StaticHandler{Username: username, Password: []byte(password)}
}

func (h *StaticHandler) Handle(ctx context.Context, callbacks []Callback) error {
	for _, cb := range callbacks {
		switch c := cb.(type) {
		case *NameCallback:
			c.Name = h.Username
		case *PasswordCallback:
			c.SetPassword(h.Password)
		case *TextInputCallback:
			c.Text = h.Text
		default:
			return UnsupportedError(cb)
		}
	}
	return nil
}

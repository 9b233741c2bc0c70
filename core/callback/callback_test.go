package callback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type otherCallback struct{}

func (otherCallback) Prompt() string { return "Other: " }

func TestStaticHandler(t *testing.T) {
	h := NewStaticHandler("alice", "pw")
	h.Text = "CORP"

	name := NewNameCallback("Username: ")
	pass := NewPasswordCallback("Password: ", false)
	text := NewTextInputCallback("Domain: ")
	require.NoError(t, h.Handle(context.Background(), []Callback{name, pass, text}))

	assert.Equal(t, "alice", name.Name)
	assert.Equal(t, "CORP", text.Text)

	pw := pass.TakePassword()
	assert.Equal(t, "pw", string(pw))
	assert.Nil(t, pass.TakePassword())

	// The handler's own copy is untouched by the module wiping its copy.
	pw[0] = 0
	assert.Equal(t, "pw", string(h.Password))
}

func TestStaticHandlerUnsupported(t *testing.T) {
	err := NewStaticHandler("a", "b").Handle(context.Background(), []Callback{otherCallback{}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.Contains(t, err.Error(), "Other: ")
}

func TestPasswordCallbackClear(t *testing.T) {
	pass := NewPasswordCallback("Password: ", false)
	pass.SetPassword([]byte("secret"))
	stored := pass.password
	pass.ClearPassword()
	for _, b := range stored {
		assert.Zero(t, b)
	}
	assert.Nil(t, pass.TakePassword())
}

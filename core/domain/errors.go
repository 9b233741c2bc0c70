package domain

import "errors"

// Standard login module errors.
var (
	// ErrConfig indicates a missing or malformed required option. It is
	// returned from module initialisation and the module must not be used.
	ErrConfig = errors.New("auth: invalid module configuration")

	// ErrAuthFailed is the parent of all credential failures.
	ErrAuthFailed = errors.New("auth: authentication failed")

	// ErrStoreUnavailable indicates the credential store could not be read
	// (unreadable or malformed file, database failure, backend error).
	ErrStoreUnavailable = errors.New("auth: credential store unavailable")

	// ErrCallback indicates the host could not supply credentials.
	ErrCallback = errors.New("auth: unable to obtain credentials")

	// ErrInvalidState indicates a lifecycle call made out of order.
	ErrInvalidState = errors.New("auth: invalid module state")
)

// Credential failures. They match with errors.Is individually and as
// ErrAuthFailed, but all print the same text so that callers showing the
// message cannot tell an unknown user from a wrong password.
var (
	ErrUnknownUser = &AuthFailure{reason: "unknown user"}
	ErrBadPassword = &AuthFailure{reason: "bad password"}
	ErrLocked      = &AuthFailure{reason: "account locked"}
)

// AuthFailure is a credential failure with a private reason.
type AuthFailure struct {
	reason string
}

func (e *AuthFailure) Error() string { return ErrAuthFailed.Error() }
func (e *AuthFailure) Unwrap() error { return ErrAuthFailed }

// Reason returns the detailed cause, for debug logging only.
func (e *AuthFailure) Reason() string { return e.reason }

// FailureReason extracts the detailed reason from err, or "" if err is not a
// credential failure.
func FailureReason(err error) string {
	var f *AuthFailure
	if errors.As(err, &f) {
		return f.reason
	}
	return ""
}

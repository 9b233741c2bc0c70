package module

// State is a login module lifecycle state.
//
//	Initialized -> Authenticating -> Succeeded | Failed
//	Succeeded   -> Committed | Aborted
//	Committed   -> LoggedOut
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateAuthenticating
	StateSucceeded
	StateFailed
	StateCommitted
	StateAborted
	StateLoggedOut
)

var stateNames = [...]string{
	"uninitialized",
	"initialized",
	"authenticating",
	"succeeded",
	"failed",
	"committed",
	"aborted",
	"logged_out",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

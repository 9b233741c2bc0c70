// Package module implements the login module lifecycle.
//
// A Module authenticates one user at a time in two phases. Login collects
// credentials through the host's callback handler and validates them, but
// only stages the resulting principals. The host then decides, based on its
// overall policy, whether to Commit (apply the principals to its subject) or
// Abort (discard them). Logout later removes exactly what Commit applied.
//
//	m := module.NewFileModule("local")
//	if err := m.Initialize(subject, handler, options.Options{"pwdFile": "/etc/kayan/passwd"}); err != nil {
//	    log.Fatal(err)
//	}
//	if err := m.Login(ctx); err != nil {
//	    m.Abort(ctx)
//	    return err
//	}
//	m.Commit(ctx)
//
// The validator behind a module is chosen by its constructor: file, db or an
// external backend. All of them plug into the same state machine.
package module

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/getkayan/kayan-login/core/audit"
	"github.com/getkayan/kayan-login/core/callback"
	"github.com/getkayan/kayan-login/core/domain"
	"github.com/getkayan/kayan-login/core/identity"
	"github.com/getkayan/kayan-login/core/logger"
	"github.com/getkayan/kayan-login/core/metrics"
	"github.com/getkayan/kayan-login/core/options"
	"github.com/getkayan/kayan-login/core/secret"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoginModule is the contract a host drives.
type LoginModule interface {
	Initialize(subject identity.PrincipalSet, handler callback.Handler, opts options.Options) error
	Login(ctx context.Context) error
	Commit(ctx context.Context) (bool, error)
	Abort(ctx context.Context) (bool, error)
	Logout(ctx context.Context) (bool, error)
}

// ValidatorFactory builds a module's validator from its resolved options.
type ValidatorFactory func(opts options.Options, log *zap.Logger) (domain.Validator, error)

// Module is the login module state machine. It is safe for concurrent use
// but handles one attempt at a time.
type Module struct {
	name     string
	factory  ValidatorFactory
	recorder *audit.Recorder
	metrics  *metrics.Metrics

	mu            sync.Mutex
	id            uuid.UUID
	state         State
	debug         bool
	defaultDomain string
	log           *zap.Logger
	subject       identity.PrincipalSet
	handler       callback.Handler
	validator     domain.Validator
	closers       []io.Closer

	username  string
	pending   []identity.Principal
	applied   []identity.Principal
	committed bool
	loggedOn  bool
}

var _ LoginModule = (*Module)(nil)

// Option configures a Module.
type Option func(*Module)

// WithAudit sends lifecycle events to r.
func WithAudit(r *audit.Recorder) Option {
	return func(m *Module) { m.recorder = r }
}

// WithMetrics records attempt outcomes in mt.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Module) { m.metrics = mt }
}

// New creates a module whose validator is built by factory at Initialize.
func New(name string, factory ValidatorFactory, opts ...Option) *Module {
	m := &Module{
		name:    name,
		factory: factory,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Module) Name() string { return m.name }

// State returns the current lifecycle state.
func (m *Module) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Pending returns a copy of the staged principals, nil if none.
func (m *Module) Pending() []identity.Principal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clonePrincipals(m.pending)
}

// Applied returns a copy of the principals added to the subject by Commit.
func (m *Module) Applied() []identity.Principal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clonePrincipals(m.applied)
}

// Validator returns the validator built at Initialize.
func (m *Module) Validator() domain.Validator {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validator
}

// Initialize resolves options and builds the validator. A missing or
// malformed required option returns an error wrapping domain.ErrConfig; the
// module stays uninitialised and every later call fails.
func (m *Module) Initialize(subject identity.PrincipalSet, handler callback.Handler, opts options.Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateUninitialized {
		return fmt.Errorf("module %s: %w: already initialized", m.name, domain.ErrInvalidState)
	}

	m.debug = opts.Bool("debug", false)
	m.log = logger.ForModule(m.name, m.debug)
	m.defaultDomain = opts.String("defaultDomain", "")

	v, err := m.factory(opts, m.log)
	if err != nil {
		return fmt.Errorf("module %s: %w", m.name, err)
	}
	v, closers, err := wrapLockout(v, opts, m.log)
	if err != nil {
		return fmt.Errorf("module %s: %w", m.name, err)
	}

	m.id = uuid.New()
	m.subject = subject
	m.handler = handler
	m.validator = v
	m.closers = closers
	m.state = StateInitialized
	m.log.Debug("module initialized", zap.String("instance", m.id.String()))
	return nil
}

// Login obtains credentials from the callback handler and validates them.
// On success the principals are staged for Commit and nil is returned. On
// failure the error wraps one of the domain errors. The secret is wiped
// before Login returns on every path.
func (m *Module) Login(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateUninitialized:
		return fmt.Errorf("module %s: %w: not initialized", m.name, domain.ErrInvalidState)
	case StateCommitted:
		return fmt.Errorf("module %s: %w: logout before logging in again", m.name, domain.ErrInvalidState)
	}

	m.state = StateAuthenticating
	m.pending = nil
	m.username = ""

	ps, username, took, err := m.authenticate(ctx)
	m.username = username
	if err != nil {
		m.state = StateFailed
		m.recordLoginFailure(ctx, username, took, err)
		return fmt.Errorf("module %s: %w", m.name, err)
	}

	m.pending = ps
	m.state = StateSucceeded
	m.metrics.RecordAttempt(m.name, metrics.ResultSuccess, took)
	m.record(ctx, audit.NewEvent(audit.EventLoginSuccess, m.name).User(username).Success().
		Principals(principalNames(ps)))
	m.log.Debug("login succeeded", zap.String("username", username), zap.Int("principals", len(ps)))
	return nil
}

// authenticate runs the callback exchange and the validator. Caller holds m.mu.
func (m *Module) authenticate(ctx context.Context) ([]identity.Principal, string, time.Duration, error) {
	if m.handler == nil {
		return nil, "", 0, fmt.Errorf("%w: no callback handler available to garner authentication information from the user", domain.ErrCallback)
	}

	dv, wantsDomain := m.validator.(domain.DomainValidator)
	name := callback.NewNameCallback("Username: ")
	pass := callback.NewPasswordCallback("Password: ", false)
	defer pass.ClearPassword()
	callbacks := []callback.Callback{name, pass}

	var domainCB *callback.TextInputCallback
	if wantsDomain && m.defaultDomain == "" {
		domainCB = callback.NewTextInputCallback("Domain: ")
		callbacks = append(callbacks, domainCB)
	}

	if err := m.handler.Handle(ctx, callbacks); err != nil {
		return nil, "", 0, fmt.Errorf("%w: %v", domain.ErrCallback, err)
	}

	buf := secret.FromBytes(pass.TakePassword())
	defer buf.Wipe()

	start := time.Now()
	var (
		ps  []identity.Principal
		err error
	)
	if wantsDomain {
		d := m.defaultDomain
		if domainCB != nil {
			d = domainCB.Text
		}
		ps, err = dv.ValidateDomain(ctx, name.Name, buf.Bytes(), d)
	} else {
		ps, err = m.validator.Validate(ctx, name.Name, buf.Bytes())
	}
	took := time.Since(start)
	if err != nil {
		return nil, name.Name, took, err
	}
	if len(ps) == 0 {
		return nil, name.Name, took, fmt.Errorf("%w: validator returned no principals", domain.ErrStoreUnavailable)
	}
	if _, ok := m.validator.(domain.SessionValidator); ok {
		m.loggedOn = true
	}
	return clonePrincipals(ps), name.Name, took, nil
}

// Commit applies the staged principals to the subject. It returns false and
// changes nothing when no login succeeded.
func (m *Module) Commit(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil {
		return false, nil
	}
	if m.subject == nil {
		return false, fmt.Errorf("module %s: %w: no subject to commit to", m.name, domain.ErrInvalidState)
	}

	m.subject.AddAll(m.pending)
	m.applied = m.pending
	m.pending = nil
	m.committed = true
	m.state = StateCommitted

	m.metrics.RecordTransition(m.name, "commit")
	m.record(ctx, audit.NewEvent(audit.EventCommit, m.name).User(m.username).Success().
		Principals(principalNames(m.applied)))
	m.log.Debug("committed principals", zap.Int("principals", len(m.applied)))
	return true, nil
}

// Abort discards a staged login. After a commit it behaves like Logout.
// It returns false when there was nothing to abort.
func (m *Module) Abort(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.committed {
		return m.logoutLocked(ctx)
	}
	if m.pending == nil {
		return false, nil
	}

	m.pending = nil
	m.state = StateAborted
	err := m.logoffLocked(ctx)

	m.metrics.RecordTransition(m.name, "abort")
	m.record(ctx, audit.NewEvent(audit.EventAbort, m.name).User(m.username).Success())
	m.log.Debug("login aborted")
	if err != nil {
		return false, fmt.Errorf("module %s: %w", m.name, err)
	}
	return true, nil
}

// Logout removes the principals added by Commit and resets the module.
// It is safe to call at any time; with nothing applied it removes nothing
// and still returns true.
func (m *Module) Logout(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logoutLocked(ctx)
}

func (m *Module) logoutLocked(ctx context.Context) (bool, error) {
	removed := m.applied
	if len(removed) > 0 && m.subject != nil {
		m.subject.RemoveAll(removed)
	}
	m.pending = nil
	m.applied = nil
	m.committed = false
	if m.state != StateUninitialized {
		m.state = StateLoggedOut
	}
	err := m.logoffLocked(ctx)

	m.metrics.RecordTransition(m.name, "logout")
	m.record(ctx, audit.NewEvent(audit.EventLogout, m.name).User(m.username).Success().
		Principals(principalNames(removed)))
	m.log.Debug("logged out", zap.Int("principals_removed", len(removed)))
	if err != nil {
		return false, fmt.Errorf("module %s: %w", m.name, err)
	}
	return true, nil
}

// logoffLocked ends a backend session left by a successful login.
func (m *Module) logoffLocked(ctx context.Context) error {
	if !m.loggedOn {
		return nil
	}
	m.loggedOn = false
	if sv, ok := m.validator.(domain.SessionValidator); ok {
		return sv.Logoff(ctx)
	}
	return nil
}

// Close releases resources held by the validator (such as a Redis client).
// The module must not be used afterwards.
func (m *Module) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, c := range m.closers {
		errs = append(errs, c.Close())
	}
	m.closers = nil
	return errors.Join(errs...)
}

func (m *Module) recordLoginFailure(ctx context.Context, username string, took time.Duration, err error) {
	result := resultOf(err)
	m.metrics.RecordAttempt(m.name, result, took)

	ev := audit.NewEvent(audit.EventLoginFailure, m.name).User(username).Failure().Message(result)
	switch result {
	case metrics.ResultLocked:
		ev = audit.NewEvent(audit.EventLoginBlocked, m.name).User(username).Blocked().Risk(audit.RiskMedium)
	case metrics.ResultStoreUnavailable:
		ev.Risk(audit.RiskHigh)
	}
	m.record(ctx, ev)
	m.log.Debug("login failed",
		zap.String("username", username),
		zap.String("result", result),
		zap.Error(err),
	)
}

func (m *Module) record(ctx context.Context, b *audit.EventBuilder) {
	if err := m.recorder.Record(ctx, b.Build()); err != nil {
		logger.L().Warn("audit record failed", zap.String("module", m.name), zap.Error(err))
	}
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrLocked):
		return metrics.ResultLocked
	case errors.Is(err, domain.ErrUnknownUser):
		return metrics.ResultUnknownUser
	case errors.Is(err, domain.ErrBadPassword):
		return metrics.ResultBadPassword
	case errors.Is(err, domain.ErrStoreUnavailable):
		return metrics.ResultStoreUnavailable
	case errors.Is(err, domain.ErrCallback):
		return metrics.ResultCallbackError
	}
	return metrics.ResultError
}

func clonePrincipals(ps []identity.Principal) []identity.Principal {
	if ps == nil {
		return nil
	}
	return append([]identity.Principal(nil), ps...)
}

func principalNames(ps []identity.Principal) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

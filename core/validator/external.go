package validator

import (
	"context"
	"fmt"
	"sync"

	"github.com/getkayan/kayan-login/core/domain"
	"github.com/getkayan/kayan-login/core/identity"
	"go.uber.org/zap"
)

// Backend is an external identity system such as a native OS logon API.
// Implementations live outside this module; Logon establishes a backend
// session that Principals describes and Logoff tears down.
type Backend interface {
	Logon(ctx context.Context, username string, secret []byte, domain string) error
	Principals(ctx context.Context) ([]identity.Principal, error)
	Logoff(ctx context.Context) error
}

// SIDSource is implemented by backends that can also describe the session
// by security identifiers (user, domain and group SIDs).
type SIDSource interface {
	SIDs(ctx context.Context) ([]identity.Principal, error)
}

// ExternalValidator adapts a Backend to the validator contracts. Every
// backend failure is reported as ErrStoreUnavailable.
type ExternalValidator struct {
	backend       Backend
	defaultDomain string
	userOnly      bool
	withSIDs      bool
	log           *zap.Logger

	mu       sync.Mutex
	loggedOn bool
}

// ExternalOption configures an ExternalValidator.
type ExternalOption func(*ExternalValidator)

// WithDefaultDomain authenticates against domain when no domain is given.
func WithDefaultDomain(domain string) ExternalOption {
	return func(v *ExternalValidator) { v.defaultDomain = domain }
}

// WithUserOnly limits results to the user principal.
func WithUserOnly() ExternalOption {
	return func(v *ExternalValidator) { v.userOnly = true }
}

// WithSIDs appends the backend's SID principals to the result. The backend
// must implement SIDSource.
func WithSIDs() ExternalOption {
	return func(v *ExternalValidator) { v.withSIDs = true }
}

// WithExternalLogger sets the diagnostic logger.
func WithExternalLogger(log *zap.Logger) ExternalOption {
	return func(v *ExternalValidator) { v.log = log }
}

func NewExternalValidator(backend Backend, opts ...ExternalOption) *ExternalValidator {
	v := &ExternalValidator{backend: backend, log: zap.NewNop()}
	for _, o := range opts {
		o(v)
	}
	if v.log == nil {
		v.log = zap.NewNop()
	}
	return v
}

// DefaultDomain returns the configured fallback domain.
func (v *ExternalValidator) DefaultDomain() string { return v.defaultDomain }

func (v *ExternalValidator) Validate(ctx context.Context, username string, secret []byte) ([]identity.Principal, error) {
	return v.ValidateDomain(ctx, username, secret, "")
}

func (v *ExternalValidator) ValidateDomain(ctx context.Context, username string, secret []byte, domainName string) ([]identity.Principal, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if domainName == "" {
		domainName = v.defaultDomain
	}

	if err := v.logoffLocked(ctx); err != nil {
		v.log.Warn("ending previous backend session", zap.Error(err))
	}
	if err := v.backend.Logon(ctx, username, secret, domainName); err != nil {
		v.log.Debug("external logon failed", zap.String("domain", domainName), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	v.loggedOn = true

	ps, err := v.principals(ctx, username)
	if err != nil {
		if lerr := v.logoffLocked(ctx); lerr != nil {
			v.log.Warn("ending backend session", zap.Error(lerr))
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return ps, nil
}

func (v *ExternalValidator) principals(ctx context.Context, username string) ([]identity.Principal, error) {
	ps, err := v.backend.Principals(ctx)
	if err != nil {
		return nil, err
	}
	if v.userOnly {
		ps = userPrincipal(ps, username)
		if ps == nil {
			return nil, fmt.Errorf("backend returned no user principal for %q", username)
		}
	}
	if v.withSIDs {
		src, ok := v.backend.(SIDSource)
		if !ok {
			return nil, fmt.Errorf("backend cannot report SIDs")
		}
		sids, err := src.SIDs(ctx)
		if err != nil {
			return nil, err
		}
		ps = append(ps, sids...)
	}
	return ps, nil
}

func userPrincipal(ps []identity.Principal, username string) []identity.Principal {
	for _, p := range ps {
		if p.Kind() == identity.KindUser {
			return []identity.Principal{p}
		}
	}
	if p, err := identity.New(username, identity.KindUser); err == nil {
		return []identity.Principal{p}
	}
	return nil
}

// Logoff ends the backend session, if one was established.
func (v *ExternalValidator) Logoff(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.logoffLocked(ctx)
}

func (v *ExternalValidator) logoffLocked(ctx context.Context) error {
	if !v.loggedOn {
		return nil
	}
	v.loggedOn = false
	if err := v.backend.Logoff(ctx); err != nil {
		return fmt.Errorf("%w: logoff: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

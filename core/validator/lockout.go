package validator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/getkayan/kayan-login/core/domain"
	"github.com/getkayan/kayan-login/core/identity"
	"go.uber.org/zap"
)

// LockoutStore defines the storage for tracking login failures and lockouts.
type LockoutStore interface {
	// RecordFailure increments the failure count for the username.
	// ttl defines how long this failure record should be kept.
	RecordFailure(ctx context.Context, username string, ttl time.Duration) (int, error)

	// ClearFailures resets the failure count for the username.
	ClearFailures(ctx context.Context, username string) error

	// Lock locks the username for the given duration.
	Lock(ctx context.Context, username string, duration time.Duration) error

	// IsLocked returns true and the expiry time if the username is locked.
	IsLocked(ctx context.Context, username string) (bool, time.Time, error)
}

// LockoutConfig holds configuration for the lockout decorator.
type LockoutConfig struct {
	// MaxFailures is the number of failures before lockout (e.g. 5)
	MaxFailures int

	// LockoutDuration is how long to lock the account (e.g. 15 minutes)
	LockoutDuration time.Duration

	// FailureWindow is how long failures are remembered (e.g. 15 minutes)
	FailureWindow time.Duration

	// FailOpen allows attempts when the store errors. Default is to deny.
	FailOpen bool

	// OnLocked is called when an account becomes locked.
	OnLocked func(ctx context.Context, username string, until time.Time)
}

// LockoutValidator is a decorator that adds brute-force protection to a
// Validator. Only credential failures (domain.ErrAuthFailed) count; store
// outages do not lock anyone out.
type LockoutValidator struct {
	next   domain.Validator
	store  LockoutStore
	config LockoutConfig
	log    *zap.Logger
}

func NewLockoutValidator(next domain.Validator, store LockoutStore, config LockoutConfig, log *zap.Logger) *LockoutValidator {
	if log == nil {
		log = zap.NewNop()
	}
	return &LockoutValidator{next: next, store: store, config: config, log: log}
}

// Unwrap returns the decorated validator.
func (v *LockoutValidator) Unwrap() domain.Validator { return v.next }

func (v *LockoutValidator) Validate(ctx context.Context, username string, secret []byte) ([]identity.Principal, error) {
	return v.guard(ctx, username, func() ([]identity.Principal, error) {
		return v.next.Validate(ctx, username, secret)
	})
}

// WithLockout decorates next with a LockoutValidator. When next needs a
// domain, the result keeps satisfying domain.DomainValidator and
// domain.SessionValidator so the module still prompts for the domain and
// tears down backend sessions.
func WithLockout(next domain.Validator, store LockoutStore, config LockoutConfig, log *zap.Logger) domain.Validator {
	lv := NewLockoutValidator(next, store, config, log)
	if _, ok := next.(domain.DomainValidator); ok {
		return &domainLockoutValidator{lv}
	}
	return lv
}

type domainLockoutValidator struct {
	*LockoutValidator
}

func (v *domainLockoutValidator) ValidateDomain(ctx context.Context, username string, secret []byte, domainName string) ([]identity.Principal, error) {
	return v.guard(ctx, username, func() ([]identity.Principal, error) {
		return v.next.(domain.DomainValidator).ValidateDomain(ctx, username, secret, domainName)
	})
}

func (v *domainLockoutValidator) Logoff(ctx context.Context) error {
	if sv, ok := v.next.(domain.SessionValidator); ok {
		return sv.Logoff(ctx)
	}
	return nil
}

func (v *LockoutValidator) guard(ctx context.Context, username string, validate func() ([]identity.Principal, error)) ([]identity.Principal, error) {
	// 1. Check if locked
	locked, until, err := v.store.IsLocked(ctx, username)
	if err != nil && !v.config.FailOpen {
		return nil, fmt.Errorf("%w: lockout check failed: %v", domain.ErrStoreUnavailable, err)
	}
	if locked {
		v.log.Debug("rejecting locked account", zap.Time("locked_until", until))
		return nil, domain.ErrLocked
	}

	// 2. Delegate
	ps, authErr := validate()
	if authErr == nil {
		_ = v.store.ClearFailures(ctx, username)
		return ps, nil
	}
	if !errors.Is(authErr, domain.ErrAuthFailed) {
		return nil, authErr
	}

	// 3. Count the failure
	count, rErr := v.store.RecordFailure(ctx, username, v.config.FailureWindow)
	if rErr != nil {
		v.log.Warn("recording login failure failed", zap.Error(rErr))
		return nil, authErr
	}
	if count >= v.config.MaxFailures {
		_ = v.store.Lock(ctx, username, v.config.LockoutDuration)
		until := time.Now().Add(v.config.LockoutDuration)
		v.log.Info("account locked", zap.Int("failures", count), zap.Time("locked_until", until))
		if v.config.OnLocked != nil {
			v.config.OnLocked(ctx, username, until)
		}
	}
	return nil, authErr
}

// -- Memory Implementation --

type memRecord struct {
	failures    int
	failExp     time.Time
	lockedUntil time.Time
}

// MemoryLockoutStore keeps lockout state in process memory.
type MemoryLockoutStore struct {
	mu    sync.Mutex
	items map[string]*memRecord
	now   func() time.Time
}

func NewMemoryLockoutStore() *MemoryLockoutStore {
	return &MemoryLockoutStore{
		items: make(map[string]*memRecord),
		now:   time.Now,
	}
}

func (s *MemoryLockoutStore) getRecord(id string) *memRecord {
	if r, ok := s.items[id]; ok {
		return r
	}
	r := &memRecord{}
	s.items[id] = r
	return r
}

func (s *MemoryLockoutStore) RecordFailure(ctx context.Context, username string, ttl time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.getRecord(username)
	now := s.now()
	if now.After(r.failExp) {
		r.failures = 0
	}
	r.failures++
	r.failExp = now.Add(ttl)
	return r.failures, nil
}

func (s *MemoryLockoutStore) ClearFailures(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, username)
	return nil
}

func (s *MemoryLockoutStore) Lock(ctx context.Context, username string, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.getRecord(username)
	r.lockedUntil = s.now().Add(duration)
	r.failures = 0
	return nil
}

func (s *MemoryLockoutStore) IsLocked(ctx context.Context, username string) (bool, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.items[username]; ok && s.now().Before(r.lockedUntil) {
		return true, r.lockedUntil, nil
	}
	return false, time.Time{}, nil
}

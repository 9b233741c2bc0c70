package validator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/getkayan/kayan-login/core/domain"
	"github.com/getkayan/kayan-login/core/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubValidator accepts "good" and fails everything else with err.
type stubValidator struct {
	err   error
	calls int
}

func (s *stubValidator) Validate(ctx context.Context, username string, secret []byte) ([]identity.Principal, error) {
	s.calls++
	if string(secret) == "good" {
		return []identity.Principal{identity.User(username)}, nil
	}
	return nil, s.err
}

func TestLockoutValidator(t *testing.T) {
	store := NewMemoryLockoutStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	inner := &stubValidator{err: fmt.Errorf("stub: %w", domain.ErrBadPassword)}
	var lockedUser string
	v := NewLockoutValidator(inner, store, LockoutConfig{
		MaxFailures:     3,
		LockoutDuration: time.Minute,
		FailureWindow:   10 * time.Minute,
		OnLocked:        func(ctx context.Context, u string, until time.Time) { lockedUser = u },
	}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := v.Validate(ctx, "mallory", []byte("bad"))
		require.ErrorIs(t, err, domain.ErrBadPassword)
	}
	assert.Equal(t, "mallory", lockedUser)

	// Locked: even the right secret is refused without reaching the store.
	_, err := v.Validate(ctx, "mallory", []byte("good"))
	require.ErrorIs(t, err, domain.ErrLocked)
	assert.Equal(t, 3, inner.calls)

	now = now.Add(2 * time.Minute)
	ps, err := v.Validate(ctx, "mallory", []byte("good"))
	require.NoError(t, err)
	assert.Len(t, ps, 1)
}

func TestLockoutIgnoresStoreErrors(t *testing.T) {
	inner := &stubValidator{err: fmt.Errorf("%w: down", domain.ErrStoreUnavailable)}
	v := NewLockoutValidator(inner, NewMemoryLockoutStore(), LockoutConfig{
		MaxFailures: 1, LockoutDuration: time.Hour, FailureWindow: time.Hour,
	}, nil)

	for i := 0; i < 3; i++ {
		_, err := v.Validate(context.Background(), "alice", []byte("bad"))
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	}
	locked, _, err := v.store.IsLocked(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestMemoryLockoutStoreWindow(t *testing.T) {
	s := NewMemoryLockoutStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	n, _ := s.RecordFailure(ctx, "a", time.Minute)
	assert.Equal(t, 1, n)
	n, _ = s.RecordFailure(ctx, "a", time.Minute)
	assert.Equal(t, 2, n)

	now = now.Add(2 * time.Minute)
	n, _ = s.RecordFailure(ctx, "a", time.Minute)
	assert.Equal(t, 1, n)

	require.NoError(t, s.ClearFailures(ctx, "a"))
	n, _ = s.RecordFailure(ctx, "a", time.Minute)
	assert.Equal(t, 1, n)
}

func TestWithLockoutKeepsDomainContract(t *testing.T) {
	cfg := LockoutConfig{MaxFailures: 3, LockoutDuration: time.Minute, FailureWindow: time.Minute}

	plain := WithLockout(&stubValidator{}, NewMemoryLockoutStore(), cfg, nil)
	_, isDomain := plain.(domain.DomainValidator)
	assert.False(t, isDomain)

	b := &fakeBackend{user: "alice", pass: "pw"}
	wrapped := WithLockout(NewExternalValidator(b, WithDefaultDomain("CORP")), NewMemoryLockoutStore(), cfg, nil)
	dv, isDomain := wrapped.(domain.DomainValidator)
	require.True(t, isDomain)

	_, err := dv.ValidateDomain(context.Background(), "alice", []byte("pw"), "LAB")
	require.NoError(t, err)
	assert.Equal(t, "LAB", b.lastDomain)

	require.NoError(t, wrapped.(domain.SessionValidator).Logoff(context.Background()))
	assert.Equal(t, 1, b.logoffCalls)
}

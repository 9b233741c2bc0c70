package validator

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"

	"github.com/getkayan/kayan-login/core/domain"
	"github.com/getkayan/kayan-login/core/identity"
	"github.com/getkayan/kayan-login/core/secret"
	"github.com/getkayan/kayan-login/persistence"
	"go.uber.org/zap"
)

// DBConfig describes the table holding credentials.
type DBConfig struct {
	Driver     string
	URL        string
	User       string
	Password   string
	Table      string
	UserColumn string
	PassColumn string
	Where      string // extra predicate, ANDed to the username match
}

// Query returns the parameterised lookup statement.
func (c DBConfig) Query() string {
	q := "SELECT " + c.PassColumn + " FROM " + c.Table + " WHERE " + c.UserColumn + " = ?"
	if c.Where != "" {
		q += " AND " + c.Where
	}
	return q
}

// DBValidator validates against a database table. Secrets are stored in
// plain text and compared verbatim. A new connection is opened for every
// call and closed before it returns.
type DBValidator struct {
	cfg DBConfig
	log *zap.Logger

	mu sync.Mutex
}

func NewDBValidator(cfg DBConfig, log *zap.Logger) *DBValidator {
	if log == nil {
		log = zap.NewNop()
	}
	return &DBValidator{cfg: cfg, log: log}
}

// Config returns the validator configuration.
func (v *DBValidator) Config() DBConfig { return v.cfg }

func (v *DBValidator) Validate(ctx context.Context, username string, given []byte) ([]identity.Principal, error) {
	if username == "" {
		return nil, fmt.Errorf("db store: %w", domain.ErrUnknownUser)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	stored, found, err := v.lookup(ctx, username)
	if err != nil {
		v.log.Warn("user database query failed", zap.String("driver", v.cfg.Driver), zap.Error(err))
		return nil, fmt.Errorf("%w: error reading user database: %v", domain.ErrStoreUnavailable, err)
	}
	if !found {
		return nil, fmt.Errorf("db store: %w", domain.ErrUnknownUser)
	}
	defer secret.Wipe(stored)

	if stored == nil || subtle.ConstantTimeCompare(stored, given) != 1 {
		return nil, fmt.Errorf("db store: %w", domain.ErrBadPassword)
	}
	return []identity.Principal{identity.User(username)}, nil
}

func (v *DBValidator) lookup(ctx context.Context, username string) ([]byte, bool, error) {
	db, err := persistence.Open(v.cfg.Driver, v.cfg.URL, v.cfg.User, v.cfg.Password)
	if err != nil {
		return nil, false, err
	}
	defer persistence.Close(db)

	rows, err := db.WithContext(ctx).Raw(v.cfg.Query(), username).Rows()
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, false, rows.Err()
	}
	var stored storedSecret
	if err := rows.Scan(&stored); err != nil {
		return nil, false, err
	}
	return stored.b, true, nil
}

// storedSecret scans a password column. NULL leaves b nil, which never
// matches.
type storedSecret struct {
	b []byte
}

func (s *storedSecret) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		s.b = nil
	case []byte:
		s.b = append(make([]byte, 0, len(v)), v...)
	case string:
		s.b = append(make([]byte, 0, len(v)), v...)
	default:
		s.b = fmt.Append(nil, v)
	}
	return nil
}

package module

import (
	"fmt"
	"io"
	"time"

	"github.com/getkayan/kayan-login/core/domain"
	"github.com/getkayan/kayan-login/core/options"
	"github.com/getkayan/kayan-login/core/validator"
	"github.com/getkayan/kayan-login/persistence"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Module types understood by DefaultRegistry.
const (
	TypeFile = "file"
	TypeDB   = "db"
)

// NewFileModule returns a module validating against a password file.
//
// Options: pwdFile (required), hashAlgorithm (md5 or bcrypt).
func NewFileModule(name string, opts ...Option) *Module {
	return New(name, FileValidatorFactory, opts...)
}

// NewDBModule returns a module validating against a database table.
//
// Options: dbDriver and dbURL (required), dbUser and dbPassword (both or
// neither), userTable, userColumn, passColumn, where.
func NewDBModule(name string, opts ...Option) *Module {
	return New(name, DBValidatorFactory, opts...)
}

// NewExternalModule returns a module delegating to an external identity
// backend.
//
// Options: defaultDomain (skips the domain prompt), returnNames (set to
// false to return only the user principal), returnSIDs (append the
// backend's SID principals; the backend must implement
// validator.SIDSource).
func NewExternalModule(name string, backend validator.Backend, opts ...Option) *Module {
	return New(name, ExternalValidatorFactory(backend), opts...)
}

func FileValidatorFactory(opts options.Options, log *zap.Logger) (domain.Validator, error) {
	path, err := opts.Require("pwdFile", "a password file must be named")
	if err != nil {
		return nil, err
	}
	hasher, err := validator.NewHasher(opts.String("hashAlgorithm", "md5"))
	if err != nil {
		return nil, err
	}
	return validator.NewFileValidator(path, hasher, log), nil
}

func DBValidatorFactory(opts options.Options, log *zap.Logger) (domain.Validator, error) {
	driver, err := opts.Require("dbDriver", "no database driver named")
	if err != nil {
		return nil, err
	}
	if !persistence.Known(driver) {
		return nil, fmt.Errorf("%w: unknown database driver %q (dbDriver=?), have %v",
			domain.ErrConfig, driver, persistence.Drivers())
	}
	url, err := opts.Require("dbURL", "no database URL specified")
	if err != nil {
		return nil, err
	}

	user, hasUser := opts.Lookup("dbUser")
	password, hasPassword := opts.Lookup("dbPassword")
	if hasUser != hasPassword {
		return nil, fmt.Errorf("%w: either provide dbUser and dbPassword or encode both in dbURL", domain.ErrConfig)
	}

	cfg := validator.DBConfig{
		Driver:     driver,
		URL:        url,
		User:       user,
		Password:   password,
		Table:      opts.String("userTable", "User"),
		UserColumn: opts.String("userColumn", "user_name"),
		PassColumn: opts.String("passColumn", "user_passwd"),
		Where:      opts.String("where", ""),
	}
	return validator.NewDBValidator(cfg, log), nil
}

// ExternalValidatorFactory binds backend into a ValidatorFactory.
func ExternalValidatorFactory(backend validator.Backend) ValidatorFactory {
	return func(opts options.Options, log *zap.Logger) (domain.Validator, error) {
		if backend == nil {
			return nil, fmt.Errorf("%w: no external identity backend", domain.ErrConfig)
		}
		vopts := []validator.ExternalOption{
			validator.WithDefaultDomain(opts.String("defaultDomain", "")),
			validator.WithExternalLogger(log),
		}
		if !opts.Bool("returnNames", true) {
			vopts = append(vopts, validator.WithUserOnly())
		}
		if opts.Bool("returnSIDs", false) {
			if _, ok := backend.(validator.SIDSource); !ok {
				return nil, fmt.Errorf("%w: returnSIDs set but the backend cannot report SIDs", domain.ErrConfig)
			}
			vopts = append(vopts, validator.WithSIDs())
		}
		return validator.NewExternalValidator(backend, vopts...), nil
	}
}

// wrapLockout adds brute-force lockout when maxFailures is positive.
//
// Options: maxFailures, lockoutSeconds (default 900),
// failureWindowSeconds (default 900), lockoutRedis (host:port; in-memory
// store when empty).
func wrapLockout(v domain.Validator, opts options.Options, log *zap.Logger) (domain.Validator, []io.Closer, error) {
	maxFailures := opts.Int("maxFailures", 0)
	if maxFailures <= 0 {
		return v, nil, nil
	}

	cfg := validator.LockoutConfig{
		MaxFailures:     maxFailures,
		LockoutDuration: time.Duration(opts.Int("lockoutSeconds", 900)) * time.Second,
		FailureWindow:   time.Duration(opts.Int("failureWindowSeconds", 900)) * time.Second,
	}
	if cfg.LockoutDuration <= 0 || cfg.FailureWindow <= 0 {
		return nil, nil, fmt.Errorf("%w: lockoutSeconds and failureWindowSeconds must be positive", domain.ErrConfig)
	}

	var (
		store   validator.LockoutStore
		closers []io.Closer
	)
	if addr := opts.String("lockoutRedis", ""); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		store = validator.NewRedisLockoutStore(client, opts.String("lockoutRedisPrefix", ""))
		closers = append(closers, client)
	} else {
		store = validator.NewMemoryLockoutStore()
	}
	return validator.WithLockout(v, store, cfg, log), closers, nil
}

package persistence

import (
	"fmt"
	"net/url"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
)

// WithCredentials merges a user and password into a driver DSN. Both empty
// leaves the DSN untouched.
//
//   - postgres URLs get userinfo; key/value DSNs get user= and password= pairs
//   - mysql DSNs are parsed and re-formatted with User and Passwd set
//   - sqlite has no authentication, so credentials are rejected
func WithCredentials(driver, dsn, user, password string) (string, error) {
	if user == "" && password == "" {
		return dsn, nil
	}

	switch driver {
	case "postgres":
		if strings.Contains(dsn, "://") {
			u, err := url.Parse(dsn)
			if err != nil {
				return "", fmt.Errorf("persistence: parse postgres url: %w", err)
			}
			u.User = url.UserPassword(user, password)
			return u.String(), nil
		}
		return strings.TrimSpace(dsn + " user=" + quoteKV(user) + " password=" + quoteKV(password)), nil
	case "mysql":
		cfg, err := gomysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("persistence: parse mysql dsn: %w", err)
		}
		cfg.User = user
		cfg.Passwd = password
		return cfg.FormatDSN(), nil
	case "sqlite":
		return "", fmt.Errorf("persistence: sqlite does not take a user or password")
	}
	return "", fmt.Errorf("persistence: cannot add credentials to %q dsn", driver)
}

// quoteKV quotes a libpq key/value parameter value.
func quoteKV(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

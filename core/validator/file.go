package validator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/getkayan/kayan-login/core/domain"
	"github.com/getkayan/kayan-login/core/identity"
	"go.uber.org/zap"
)

// CredentialRecord is one parsed line of a password file.
type CredentialRecord struct {
	Username   string
	SecretHash []byte
	Groups     []string
}

// Principals returns the user principal followed by the record's groups.
func (r *CredentialRecord) Principals() []identity.Principal {
	out := make([]identity.Principal, 0, 1+len(r.Groups))
	out = append(out, identity.User(r.Username))
	for _, g := range r.Groups {
		out = append(out, identity.Group(g))
	}
	return out
}

// FileValidator validates against a colon separated password file:
//
//	# comment
//	username:hash[:group]*
//
// The file is parsed on first use and again whenever its modification time
// changes. A malformed line fails the whole reload and the previous records
// stay in effect.
type FileValidator struct {
	path   string
	hasher domain.Hasher
	log    *zap.Logger

	mu      sync.Mutex
	modTime time.Time
	records map[string]*CredentialRecord
	reloads int
}

// NewFileValidator returns a validator for the file at path. A nil hasher
// means the legacy MD5 hex digest.
func NewFileValidator(path string, hasher domain.Hasher, log *zap.Logger) *FileValidator {
	if hasher == nil {
		hasher = defaultHasher()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FileValidator{path: path, hasher: hasher, log: log}
}

// Path returns the password file location.
func (v *FileValidator) Path() string { return v.path }

// Reloads returns how many times the file has been parsed successfully.
func (v *FileValidator) Reloads() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reloads
}

func (v *FileValidator) Validate(ctx context.Context, username string, secret []byte) ([]identity.Principal, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.refresh(); err != nil {
		return nil, err
	}

	rec, ok := v.records[username]
	if !ok {
		return nil, fmt.Errorf("file store: %w", domain.ErrUnknownUser)
	}
	if !v.hasher.Compare(secret, rec.SecretHash) {
		return nil, fmt.Errorf("file store: %w", domain.ErrBadPassword)
	}
	return rec.Principals(), nil
}

// refresh reloads the records if the file changed since the last load.
// Caller holds v.mu.
func (v *FileValidator) refresh() error {
	fi, err := os.Stat(v.path)
	if err != nil {
		return fmt.Errorf("%w: error reading %s: %v", domain.ErrStoreUnavailable, v.path, err)
	}
	if v.records != nil && fi.ModTime().Equal(v.modTime) {
		return nil
	}

	records, err := LoadRecords(v.path)
	if err != nil {
		v.log.Warn("password file reload failed", zap.String("path", v.path), zap.Error(err))
		return err
	}

	v.records = records
	v.modTime = fi.ModTime()
	v.reloads++
	v.log.Debug("password file loaded",
		zap.String("path", v.path),
		zap.Int("records", len(records)),
		zap.Time("mod_time", v.modTime),
	)
	return nil
}

// MaxLineLength is the longest password file line LoadRecords accepts.
const MaxLineLength = 1 << 20

// LoadRecords parses a password file. Any malformed line, or a line longer
// than MaxLineLength, fails the whole load with ErrStoreUnavailable.
func LoadRecords(path string) (map[string]*CredentialRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: error reading %s: %v", domain.ErrStoreUnavailable, path, err)
	}
	defer f.Close()

	records := make(map[string]*CredentialRecord)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineLength)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		rec, err := ParseLine(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", domain.ErrStoreUnavailable, path, lineNo, err)
		}
		if rec != nil {
			records[rec.Username] = rec
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("%w: %s line %d: longer than %d bytes", domain.ErrStoreUnavailable, path, lineNo+1, MaxLineLength)
		}
		return nil, fmt.Errorf("%w: error reading %s: %v", domain.ErrStoreUnavailable, path, err)
	}
	return records, nil
}

// ParseLine parses one password file line. Blank and comment-only lines
// yield a nil record. Empty fields between separators are skipped.
func ParseLine(line string) (*CredentialRecord, error) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	var fields []string
	for _, f := range strings.Split(line, ":") {
		if f != "" {
			fields = append(fields, f)
		}
	}
	switch len(fields) {
	case 0:
		return nil, fmt.Errorf("missing username")
	case 1:
		return nil, fmt.Errorf("missing password hash for %q", fields[0])
	}

	return &CredentialRecord{
		Username:   fields[0],
		SecretHash: []byte(fields[1]),
		Groups:     fields[2:],
	}, nil
}

// Package options resolves typed values from a module's untyped option map.
//
// Option maps come straight from host configuration, so every value is a
// string. Accessors are lenient: a malformed value falls back to the default
// instead of failing. Required options go through Require, which reports a
// configuration error.
package options

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/getkayan/kayan-login/core/domain"
)

// Options is the untyped option map handed to a module.
type Options map[string]string

// Lookup returns the raw value and whether the key is present. An exact
// match wins; otherwise names are compared case-insensitively, since
// config loaders such as viper fold keys to lower case.
func (o Options) Lookup(name string) (string, bool) {
	if o == nil {
		return "", false
	}
	if v, ok := o[name]; ok {
		return v, true
	}
	for k, v := range o {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Bool accepts true/yes/1 and false/no/0, case-insensitively. Anything else,
// including a missing key, yields dflt.
func (o Options) Bool(name string, dflt bool) bool {
	v, ok := o.Lookup(name)
	if !ok {
		return dflt
	}
	v = strings.TrimSpace(v)
	switch {
	case strings.EqualFold(v, "true"), strings.EqualFold(v, "yes"), v == "1":
		return true
	case strings.EqualFold(v, "false"), strings.EqualFold(v, "no"), v == "0":
		return false
	}
	return dflt
}

// Int parses a decimal integer, falling back to dflt on any error.
func (o Options) Int(name string, dflt int) int {
	v, ok := o.Lookup(name)
	if !ok {
		return dflt
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return dflt
	}
	return n
}

// String returns the raw value or dflt when absent.
func (o Options) String(name, dflt string) string {
	if v, ok := o.Lookup(name); ok {
		return v
	}
	return dflt
}

// Require returns the value of a mandatory option.
func (o Options) Require(name, hint string) (string, error) {
	v, ok := o.Lookup(name)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s (%s=?)", domain.ErrConfig, hint, name)
	}
	return v, nil
}

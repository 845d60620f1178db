// Package raw is a logging-free view over environment variables.
// The logger reads its own options through this package, so it must not
// import anything that logs.
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf is a prefixed view over the environment
type Conf struct{ prefix string }

// New returns a root Conf with no prefix
func New() Conf { return Conf{} }

// Prefix returns a child Conf with an additional prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// Get returns the value for key or def when missing/empty
func (c Conf) Get(key, def string) string {
	v := strings.TrimSpace(os.Getenv(c.prefix + key))
	if v == "" {
		return def
	}
	return v
}

// GetBool returns the parsed bool for key or def when missing/invalid
func (c Conf) GetBool(key string, def bool) bool {
	s := c.Get(key, "")
	if s == "" {
		return def
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	return def
}

// GetInt returns the parsed int for key or def when missing/invalid
func (c Conf) GetInt(key string, def int) int {
	s := c.Get(key, "")
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

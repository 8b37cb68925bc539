// internal/pattern/filter.go
package pattern

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter decides whether a repository path should be ingested.
//
// Patterns prefixed with "!" are deny patterns, everything else is an allow
// pattern. A path is included when it matches at least one allow pattern and
// none of the deny patterns. The order of the patterns does not matter.
type Filter struct {
	allow []string
	deny  []string
}

// New partitions patterns into allow and deny lists. Blank entries are ignored.
func New(patterns []string) *Filter {
	f := &Filter{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "!") {
			if d := strings.TrimPrefix(p, "!"); d != "" {
				f.deny = append(f.deny, d)
			}
			continue
		}
		f.allow = append(f.allow, p)
	}
	return f
}

// Match reports whether p passes the filter.
func (f *Filter) Match(p string) bool {
	return f.Allows(p) && !f.Denies(p)
}

// Allows reports whether any allow pattern matches p.
func (f *Filter) Allows(p string) bool {
	for _, pattern := range f.allow {
		if matches(pattern, p) {
			return true
		}
	}
	return false
}

// Denies reports whether any deny pattern matches p.
func (f *Filter) Denies(p string) bool {
	for _, pattern := range f.deny {
		if matches(pattern, p) {
			return true
		}
	}
	return false
}

// matches tries the full path first. Patterns without a separator are also
// tried against the base name, so "*.ts" selects "src/a.ts".
func matches(pattern, p string) bool {
	if ok, err := doublestar.Match(pattern, p); err == nil && ok {
		return true
	}
	if strings.Contains(pattern, "/") {
		return false
	}
	ok, err := doublestar.Match(pattern, path.Base(p))
	return err == nil && ok
}

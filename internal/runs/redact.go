package runs

import (
	"cmp"
	"slices"
	"strings"

	"github.com/wasilibs/go-re2"
	"golang.org/x/text/unicode/norm"
)

// redacted replaces every secret occurrence.
const redacted = "***"

// Redactor masks secret values in captured output.
type Redactor struct {
	pattern *re2.Regexp
}

// NewRedactor builds a redactor for the given secrets. Empty values are ignored.
func NewRedactor(secrets []string) *Redactor {
	var quoted []string
	seen := make(map[string]bool)
	for _, s := range secrets {
		s = norm.NFC.String(s)
		if strings.TrimSpace(s) == "" || seen[s] {
			continue
		}
		seen[s] = true
		quoted = append(quoted, re2.QuoteMeta(s))
	}
	if len(quoted) == 0 {
		return &Redactor{}
	}

	// Длинные значения первыми, чтобы префикс не маскировал их частично
	slices.SortFunc(quoted, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})

	return &Redactor{pattern: re2.MustCompile(strings.Join(quoted, "|"))}
}

// Redact returns s with all secrets replaced.
func (r *Redactor) Redact(s string) string {
	if r == nil || r.pattern == nil || s == "" {
		return s
	}
	return r.pattern.ReplaceAllString(norm.NFC.String(s), redacted)
}

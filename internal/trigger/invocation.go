package trigger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/maliciamrg/bourso-bank-scrap/internal/config"
)

// ErrInvalidParam is returned when a parameter cannot be placed on a single
// trigger line.
var ErrInvalidParam = errors.New("invalid script parameter")

// Invocation describes how the script is started on every activation.
type Invocation struct {
	Shell       string
	Interpreter string
	Script      string
	WorkDir     string
	LogPath     string
	Params      [4]string
}

// NewInvocation builds the invocation from configuration.
// Parameters are opaque; only line breaks are refused.
func NewInvocation(cfg *config.Config) (Invocation, error) {
	inv := Invocation{
		Shell:       cfg.Invocation.Shell,
		Interpreter: cfg.Invocation.Interpreter,
		Script:      cfg.Invocation.Script,
		WorkDir:     cfg.Invocation.WorkDir,
		LogPath:     cfg.Paths.Log,
		Params:      cfg.Job.Params(),
	}

	for i, p := range inv.Params {
		if strings.ContainsAny(p, "\r\n") {
			return Invocation{}, fmt.Errorf("%w: parameter %d contains a line break", ErrInvalidParam, i+1)
		}
	}
	return inv, nil
}

// ShellCommand returns the command text run by the shell, without output redirection.
func (i Invocation) ShellCommand() string {
	var b strings.Builder
	b.WriteString("cd ")
	b.WriteString(i.WorkDir)
	b.WriteString(" && ")
	b.WriteString(i.Interpreter)
	b.WriteString(" ")
	b.WriteString(i.Script)
	for _, p := range i.Params {
		b.WriteString(` "`)
		b.WriteString(p)
		b.WriteString(`"`)
	}
	return b.String()
}

// Command returns the full command of the trigger record, output appended to the log.
func (i Invocation) Command() string {
	return fmt.Sprintf("%s -c '%s >> %s 2>&1'", i.Shell, i.ShellCommand(), i.LogPath)
}

// Unsafe returns the 0-based positions of parameters the shell would not
// pass through verbatim. Quotes are not escaped, so these values change
// meaning or break the record.
func (i Invocation) Unsafe() []int {
	var unsafe []int
	for idx, p := range i.Params {
		if !passesVerbatim(p) {
			unsafe = append(unsafe, idx)
		}
	}
	return unsafe
}

// passesVerbatim reports whether "p" inside the single-quoted command text
// reaches the script unchanged.
func passesVerbatim(p string) bool {
	if strings.ContainsAny(p, "'$`") {
		return false
	}
	words, err := shellquote.Split(`"` + p + `"`)
	if err != nil {
		return false
	}
	return len(words) == 1 && words[0] == p
}

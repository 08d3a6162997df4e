package trigger

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/kballard/go-shellquote"
)

// ErrMalformedRecord is returned when a table line cannot be read back.
var ErrMalformedRecord = errors.New("malformed trigger record")

// revisionLen is the number of hex characters kept from the line digest.
const revisionLen = 12

// Record is the single entry of the trigger table.
type Record struct {
	Schedule string
	Command  string
}

// NewRecord validates the schedule and binds it to the invocation command.
// Fields of the schedule are separated by single spaces in the record, the
// same form ParseLine reads back.
func NewRecord(schedule string, inv Invocation) (Record, error) {
	if err := ValidateSchedule(schedule); err != nil {
		return Record{}, err
	}
	return Record{Schedule: NormalizeSchedule(schedule), Command: inv.Command()}, nil
}

// Line returns the table content: schedule, one space, command, newline.
func (r Record) Line() string {
	return r.Schedule + " " + r.Command + "\n"
}

// Revision identifies the record content.
func (r Record) Revision() string {
	sum := sha256.Sum256([]byte(r.Line()))
	return hex.EncodeToString(sum[:])[:revisionLen]
}

// ShellCommand returns the text passed to the shell after -c, redirection included.
func (r Record) ShellCommand() (string, error) {
	words, err := shellquote.Split(r.Command)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if len(words) != 3 || words[1] != "-c" {
		return "", fmt.Errorf("%w: expected '<shell> -c <command>'", ErrMalformedRecord)
	}
	return words[2], nil
}

// Args recovers the positional arguments handed to the script.
func (r Record) Args() ([]string, error) {
	inner, err := r.ShellCommand()
	if err != nil {
		return nil, err
	}

	words, err := shellquote.Split(inner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	// cd <dir> && <interpreter> <script> <args...> >> <log> 2>&1
	if len(words) < 5 || words[0] != "cd" || words[2] != "&&" {
		return nil, fmt.Errorf("%w: unexpected command layout", ErrMalformedRecord)
	}
	rest := words[5:]
	for i, w := range rest {
		if w == ">>" {
			return rest[:i], nil
		}
	}
	return nil, fmt.Errorf("%w: missing output redirection", ErrMalformedRecord)
}

// ParseLine reads a table line back into a record. The schedule is the first
// five fields; the command is the remainder, kept byte for byte.
func ParseLine(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")

	rest := line
	fields := make([]string, 0, scheduleFields)
	for range scheduleFields {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			return Record{}, fmt.Errorf("%w: no command after schedule", ErrMalformedRecord)
		}
		fields = append(fields, rest[:end])
		rest = rest[end:]
	}

	rec := Record{
		Schedule: strings.Join(fields, " "),
		Command:  strings.TrimLeftFunc(rest, unicode.IsSpace),
	}
	if rec.Command == "" {
		return Record{}, fmt.Errorf("%w: empty command", ErrMalformedRecord)
	}
	if err := ValidateSchedule(rec.Schedule); err != nil {
		return Record{}, err
	}
	return rec, nil
}

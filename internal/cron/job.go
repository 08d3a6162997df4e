package cron

import (
	"github.com/maliciamrg/bourso-bank-scrap/internal/trigger"
)

// Job is the scheduled unit the supervisor drives: one compiled trigger
// record and the invocation it stands for.
type Job struct {
	ID         string
	Record     trigger.Record
	Invocation trigger.Invocation
}

// Revision returns the revision of the installed record.
func (j Job) Revision() string {
	return j.Record.Revision()
}

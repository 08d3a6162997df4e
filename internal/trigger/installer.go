package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/maliciamrg/bourso-bank-scrap/internal/config"
	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
)

// InstallRecorder observes completed installs.
type InstallRecorder interface {
	RecordInstall(changed bool)
}

// Installed is the outcome of an install.
type Installed struct {
	Record     Record
	Invocation Invocation
	Revision   string
	Previous   string
	Changed    bool
}

// Installer compiles the configuration into a record and installs it.
type Installer struct {
	cfg      *config.Config
	table    *Table
	history  *History
	logger   *logger.Logger
	recorder InstallRecorder
	now      func() time.Time
}

// NewInstaller creates an installer for cfg. recorder may be nil.
func NewInstaller(cfg *config.Config, log *logger.Logger, recorder InstallRecorder) *Installer {
	return &Installer{
		cfg:      cfg,
		table:    NewTable(cfg.Paths.Table, log),
		history:  NewHistory(cfg.Paths.HistoryPath()),
		logger:   log,
		recorder: recorder,
		now:      time.Now,
	}
}

// Table returns the table the installer writes.
func (i *Installer) Table() *Table {
	return i.table
}

// History returns the install journal.
func (i *Installer) History() *History {
	return i.history
}

// Compile renders the record without touching the disk.
func (i *Installer) Compile() (Record, Invocation, error) {
	inv, err := NewInvocation(i.cfg)
	if err != nil {
		return Record{}, Invocation{}, err
	}
	rec, err := NewRecord(i.cfg.Job.Schedule, inv)
	if err != nil {
		return Record{}, Invocation{}, err
	}
	return rec, inv, nil
}

// Install compiles and installs the record. On any configuration error
// nothing is written.
func (i *Installer) Install(ctx context.Context) (*Installed, error) {
	rec, inv, err := i.Compile()
	if err != nil {
		return nil, err
	}

	for _, idx := range inv.Unsafe() {
		i.logger.WarnCtx(ctx, "parameter contains shell metacharacters and may not reach the script verbatim",
			logger.Field{Key: "param", Value: idx + 1})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	previous, changed, err := i.table.Install(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to install trigger table: %w", err)
	}

	installed := &Installed{
		Record:     rec,
		Invocation: inv,
		Revision:   rec.Revision(),
		Previous:   previous,
		Changed:    changed,
	}

	entry := HistoryEntry{
		InstalledAt: i.now().UTC(),
		Schedule:    rec.Schedule,
		Revision:    installed.Revision,
		Previous:    previous,
		Changed:     changed,
	}
	if err := i.history.Append(entry); err != nil {
		// История вспомогательная, установка уже выполнена
		i.logger.WarnCtx(ctx, "failed to append install history",
			logger.Field{Key: "error", Value: err.Error()})
	}

	if i.recorder != nil {
		i.recorder.RecordInstall(changed)
	}

	i.logger.InfoCtx(ctx, "trigger table installed",
		logger.Field{Key: "file", Value: i.table.Path()},
		logger.Field{Key: "schedule", Value: rec.Schedule},
		logger.Field{Key: "revision", Value: installed.Revision},
		logger.Field{Key: "changed", Value: changed})

	return installed, nil
}

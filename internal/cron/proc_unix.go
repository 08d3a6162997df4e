//go:build unix

package cron

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the shell in its own process group so that
// cancellation also reaches the interpreter it spawned.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}

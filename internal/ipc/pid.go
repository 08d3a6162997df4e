// Package ipc coordinates the long-running supervisor with one-shot CLI
// commands through a pid file in the state directory.
package ipc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// ErrAlreadyRunning is returned when another live supervisor owns the pid file.
var ErrAlreadyRunning = errors.New("supervisor already running")

// WritePID записывает PID в файл
func WritePID(pidPath string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(pidPath), 0755); err != nil {
		return fmt.Errorf("failed to create pid directory: %w", err)
	}

	pidData := fmt.Sprintf("%d\n", pid)
	if err := os.WriteFile(pidPath, []byte(pidData), 0600); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	return nil
}

// ReadPID читает PID из файла
func ReadPID(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, err
	}

	var pid int
	if _, err := fmt.Sscanf(strings.TrimSpace(string(data)), "%d", &pid); err != nil {
		return 0, fmt.Errorf("invalid PID file %s: %w", pidPath, err)
	}

	return pid, nil
}

// IsRunning проверяет что процесс запущен
func IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Send signal 0 - проверяет существование процесса
	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// Running returns the pid recorded at pidPath if that process is alive.
func Running(pidPath string) (int, bool) {
	pid, err := ReadPID(pidPath)
	if err != nil {
		return 0, false
	}
	return pid, IsRunning(pid)
}

// Acquire writes the current pid unless a live process already owns the
// file. A stale file left by a crashed supervisor is replaced.
func Acquire(pidPath string) error {
	if pid, alive := Running(pidPath); alive && pid != os.Getpid() {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	return WritePID(pidPath, os.Getpid())
}

// Cleanup удаляет PID файл
func Cleanup(pidPath string) error {
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

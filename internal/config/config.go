package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/maliciamrg/bourso-bank-scrap/internal/constants"
)

// Load загружает конфигурацию из TOML файла и переменных окружения.
// Отсутствующий файл не является ошибкой: все значения берутся из окружения
// и значений по умолчанию.
func Load(path string) (*Config, error) {
	var (
		cfg Config
		md  toml.MetaData
	)

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			md, err = toml.Decode(string(data), &cfg)
			if err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	expandEnvVars(&cfg)
	applyEnvOverrides(&cfg)
	applyDefaults(&cfg, md)

	return &cfg, nil
}

// Default returns the configuration built from the environment alone.
func Default() *Config {
	var cfg Config
	applyEnvOverrides(&cfg)
	applyDefaults(&cfg, toml.MetaData{})
	return &cfg
}

// applyEnvOverrides переносит параметры задачи из окружения.
// Заданная (даже пустая) переменная имеет приоритет над файлом.
func applyEnvOverrides(c *Config) {
	targets := map[string]*string{
		constants.EnvDryRun:       &c.Job.DryRun,
		constants.EnvClientNumber: &c.Job.ClientNumber,
		constants.EnvPassword:     &c.Job.Password,
		constants.EnvAccount:      &c.Job.Account,
		constants.EnvSchedule:     &c.Job.Schedule,
	}
	for key, dst := range targets {
		if val, ok := os.LookupEnv(key); ok {
			*dst = val
		}
	}

	if lvl := os.Getenv(constants.EnvLogLevel); lvl != "" {
		c.Logging.Level = lvl
	}
}

// expandEnvVars расширяет переменные окружения в конфигурации
func expandEnvVars(c *Config) {
	for _, field := range []*string{
		&c.Job.Schedule,
		&c.Job.DryRun,
		&c.Job.ClientNumber,
		&c.Job.Password,
		&c.Job.Account,
		&c.Invocation.WorkDir,
		&c.Paths.Table,
		&c.Paths.Log,
		&c.Paths.StateDir,
		&c.Runs.Path,
		&c.Metrics.Listen,
	} {
		*field = expandEnv(*field)
	}

	c.Paths.StateDir = expandHome(c.Paths.StateDir)
	c.Runs.Path = expandHome(c.Runs.Path)
}

// expandEnv расширяет переменную окружения формата ${VAR:default}
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") {
		return s
	}

	end := strings.Index(s, "}")
	if end == -1 {
		return s
	}

	content := s[2:end]
	if parts := strings.SplitN(content, ":", 2); len(parts) == 2 {
		if val := os.Getenv(parts[0]); val != "" {
			return val
		}
		return parts[1]
	}

	// Без значения по умолчанию
	return os.Getenv(content)
}

// expandHome расширяет ~ в пути
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

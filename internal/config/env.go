package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
)

// LoadEnv загружает переменные окружения из .env файла.
// Строки имеют формат KEY=VALUE, пустые строки и комментарии (#) пропускаются,
// значения в одинарных или двойных кавычках освобождаются от кавычек.
// Переменные, уже заданные в окружении процесса, не перезаписываются:
// окружение контейнера имеет приоритет над файлом.
func LoadEnv(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)

		// Пропустить пустые строки и комментарии
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := unquote(strings.TrimSpace(parts[1]))
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}

	return nil
}

// LoadEnvOptional загружает .env файл, если он существует.
func LoadEnvOptional(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	return LoadEnv(path)
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

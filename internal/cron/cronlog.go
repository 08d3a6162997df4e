package cron

import (
	"fmt"

	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
)

// cronLogger routes robfig/cron internal messages to the application logger.
type cronLogger struct {
	logger *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, err, kvFields(keysAndValues)...)
}

func kvFields(kv []any) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Field{Key: fmt.Sprint(kv[i]), Value: kv[i+1]})
	}
	return fields
}

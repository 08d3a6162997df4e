package config

import (
	"fmt"
	"strings"

	"github.com/maliciamrg/bourso-bank-scrap/internal/constants"
)

// maskSecret маскирует секрет полностью: пароль из цифр короткий,
// частичное раскрытие выдало бы большую его часть
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return constants.MsgMaskedSecret
}

// MaskedParams returns the parameters with the password masked, for console and logs.
func (j JobConfig) MaskedParams() [4]string {
	params := j.Params()
	params[constants.SecretParamIndex] = maskSecret(params[constants.SecretParamIndex])
	return params
}

// FormatParams renders parameters the way they appear on the command line.
func FormatParams(params [4]string) string {
	quoted := make([]string, len(params))
	for i, p := range params {
		quoted[i] = fmt.Sprintf("%q", p)
	}
	return strings.Join(quoted, " ")
}

// Secrets returns the values that must never be written to logs or records.
func (j JobConfig) Secrets() []string {
	if j.Password == "" {
		return nil
	}
	return []string{j.Password}
}

// Masked returns a copy of the configuration safe to print.
func (c Config) Masked() Config {
	c.Job.Password = maskSecret(c.Job.Password)
	return c
}

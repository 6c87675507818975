package cliutil

import (
	"regexp"
	"strings"
)

const redactedPlaceholder = "[redacted]"

var sensitiveKeys = []string{
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
	"AWS_SESSION_TOKEN",
	"AZURE_CLIENT_SECRET",
	"GCP_SERVICE_ACCOUNT_KEY",
	"DATABASE_PASSWORD",
	"DB_PASSWORD",
	"POSTGRES_PASSWORD",
	"REDIS_PASSWORD",
	"API_KEY",
	"API_TOKEN",
	"ACCESS_TOKEN",
	"REFRESH_TOKEN",
	"CLIENT_SECRET",
	"GITHUB_TOKEN",
}

var (
	templateVarPattern = regexp.MustCompile(`\$\{[^}]+\}`)
	secretKeyPattern   = compileSecretKeyPattern()
)

func compileSecretKeyPattern() *regexp.Regexp {
	escaped := make([]string, len(sensitiveKeys))
	for i, key := range sensitiveKeys {
		escaped[i] = regexp.QuoteMeta(key)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b(\s*[:=]\s*)(["']?)([^"'\s]+)(["']?)`)
}

// RedactSecrets masks common secret placeholders and sensitive key values from
// the supplied string. Child process output often echoes environment
// assignments, so ${VAR} style template references and known secret key
// assignments are replaced with a generic [redacted] marker before the line
// reaches user-facing output.
func RedactSecrets(message string) string {
	if message == "" {
		return message
	}
	redacted := templateVarPattern.ReplaceAllStringFunc(message, func(string) string {
		return "${" + redactedPlaceholder + "}"
	})
	return secretKeyPattern.ReplaceAllString(redacted, "$1$2$3"+redactedPlaceholder+"$5")
}

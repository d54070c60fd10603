package proc

import (
	"os"
	"strings"
)

// sensitiveEnvPrefixes are env var name prefixes stripped from subprocess
// environments. Analyzers and git never need the remediation credentials.
var sensitiveEnvPrefixes = []string{
	"SASTFORGE_",
	"OPENAI_API",
	"ANTHROPIC_API",
	"OLLAMA_API",
	"AWS_SECRET",
	"AWS_SESSION",
}

// sensitiveEnvExact are env var names stripped by exact match.
var sensitiveEnvExact = []string{
	"API_KEY",
	"API_SECRET",
	"SECRET_KEY",
}

// SanitizedEnv returns os.Environ() with sensitive variables removed.
func SanitizedEnv() []string {
	return sanitizeEnv(os.Environ())
}

func sanitizeEnv(environ []string) []string {
	clean := make([]string, 0, len(environ))
	for _, entry := range environ {
		name, _, ok := strings.Cut(entry, "=")
		if !ok {
			clean = append(clean, entry)
			continue
		}
		if isSensitive(strings.ToUpper(name)) {
			continue
		}
		clean = append(clean, entry)
	}
	return clean
}

func isSensitive(upper string) bool {
	for _, prefix := range sensitiveEnvPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	for _, exact := range sensitiveEnvExact {
		if upper == exact {
			return true
		}
	}
	return false
}

package proc

import (
	"strings"
	"testing"
)

func TestSanitizeEnvStripsKeys(t *testing.T) {
	input := []string{
		"HOME=/home/user",
		"PATH=/usr/bin",
		"SASTFORGE_ENDPOINT=http://x",
		"OPENAI_API_KEY=sk-secret456",
		"AWS_SECRET_ACCESS_KEY=wJalrXUtnFEMI",
		"API_KEY=generic-key",
		"SECRET_KEY=django-secret",
	}

	result := sanitizeEnv(input)

	if len(result) != 2 {
		t.Errorf("expected 2 safe vars, got %d: %v", len(result), result)
	}
	for _, entry := range result {
		name, _, _ := strings.Cut(entry, "=")
		if name != "HOME" && name != "PATH" {
			t.Errorf("unexpected env var survived: %s", name)
		}
	}
}

func TestSanitizeEnvCaseInsensitive(t *testing.T) {
	result := sanitizeEnv([]string{"sastforge_token=lower", "Openai_Api_Key=mixed"})
	if len(result) != 0 {
		t.Errorf("expected 0 vars, got %d: %v", len(result), result)
	}
}

func TestSanitizeEnvMalformedEntry(t *testing.T) {
	result := sanitizeEnv([]string{"HOME=/home/user", "NO_EQUALS_SIGN"})
	if len(result) != 2 {
		t.Errorf("expected malformed entry to be kept, got %v", result)
	}
}

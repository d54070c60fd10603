package remediate

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/sastforge/internal/finding"
)

const (
	notAvailable = "N/A"
	// maxMessageBytes bounds the finding text embedded in a prompt.
	maxMessageBytes = 2000
)

// BuildPrompt renders the remediation prompt for f. The output depends only
// on the finding's message, file, and line. Credentials quoted in the
// message are redacted.
func BuildPrompt(f finding.Finding) string {
	redacted, _ := Redact(f.Message)
	msg := orNA(clip(redacted, maxMessageBytes))
	file := orNA(f.FilePath)
	line := notAvailable
	if f.HasLine() {
		line = strconv.Itoa(f.Line)
	}
	return fmt.Sprintf(
		"Given this security finding: %s in file %s at line %s, "+
			"generate a concise and correct security fix. Keep the response under 100 words.",
		msg, file, line)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

// clip truncates s to at most n bytes without splitting a rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

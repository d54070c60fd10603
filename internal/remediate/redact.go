package remediate

import "regexp"

// secretPatterns match credential values that analyzers quote back in
// finding messages. Matches are replaced before a prompt leaves the host.
var secretPatterns = []*regexp.Regexp{
	// OpenAI, Anthropic, Groq
	regexp.MustCompile(`sk-(?:ant-)?[a-zA-Z0-9\-]{20,}`),
	regexp.MustCompile(`gsk_[a-zA-Z0-9]{20,}`),
	// GitHub tokens
	regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{36,}`),
	regexp.MustCompile(`github_pat_[a-zA-Z0-9_]{22,}`),
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// Slack tokens
	regexp.MustCompile(`xox[baprs]-[a-zA-Z0-9\-]{10,}`),
	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-_.]{20,}`),
	// long hex blobs that look like keys
	regexp.MustCompile(`\b[a-f0-9]{64,}\b`),
}

// urlUserinfo matches user:password@ in URLs.
var urlUserinfo = regexp.MustCompile(`://[^/\s:@]+:[^/\s@]+@`)

const redactPlaceholder = "[REDACTED]"

// Redact replaces known credential formats in s and reports how many were found.
func Redact(s string) (string, int) {
	count := 0
	for _, re := range secretPatterns {
		if n := len(re.FindAllStringIndex(s, -1)); n > 0 {
			count += n
			s = re.ReplaceAllString(s, redactPlaceholder)
		}
	}
	if n := len(urlUserinfo.FindAllStringIndex(s, -1)); n > 0 {
		count += n
		s = urlUserinfo.ReplaceAllString(s, "://"+redactPlaceholder+"@")
	}
	return s, count
}

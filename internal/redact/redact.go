// Package redact masks secrets in diagnostic text before it reaches a log
// or a file on disk.
package redact

import (
	"regexp"
)

// Placeholder replaces every redacted span.
const Placeholder = "[REDACTED]"

type rule struct {
	name string
	re   *regexp.Regexp
}

var rules = []rule{
	{"aws-assignment", regexp.MustCompile(`(?i)(aws_access_key_id|aws_secret_access_key|aws_session_token)\s*[=:]\s*['"]?[A-Za-z0-9/+=]{20,}['"]?`)},
	{"aws-access-key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"github-assignment", regexp.MustCompile(`(?i)(github_token|gh_token|github_pat)\s*[=:]\s*['"]?[A-Za-z0-9_-]{30,}['"]?`)},
	{"github-token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36}`)},
	{"llm-api-key", regexp.MustCompile(`sk-(ant-)?[A-Za-z0-9_-]{20,}`)},
	{"api-key-assignment", regexp.MustCompile(`(?i)(api_key|apikey|api-key|secret_key|secretkey|secret-key|access_token|auth_token)\s*[=:]\s*['"]?[A-Za-z0-9_-]{16,}['"]?`)},
	{"private-key-header", regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`)},
	{"bearer", regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_-]{20,}`)},
	{"url-basic-auth", regexp.MustCompile(`https?://[^:/\s]+:[^@/\s]+@`)},
	{"slack-token", regexp.MustCompile(`xox[baprs]-[0-9]{10,13}-[0-9]{10,13}[a-zA-Z0-9-]*`)},
	{"stripe-key", regexp.MustCompile(`[sr]k_live_[0-9a-zA-Z]{24}`)},
	{"password-assignment", regexp.MustCompile(`(?i)(password|passwd|pwd|secret|token)\s*[=:]\s*['"]?[^\s'"]{8,}['"]?`)},
}

// Redact replaces every known secret shape in input with Placeholder.
func Redact(input string) string {
	result := input
	for _, r := range rules {
		result = r.re.ReplaceAllString(result, Placeholder)
	}
	return result
}

// Matches lists the names of the rules that fire on input, in table order.
func Matches(input string) []string {
	var names []string
	for _, r := range rules {
		if r.re.MatchString(input) {
			names = append(names, r.name)
		}
	}
	return names
}

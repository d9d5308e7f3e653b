// Package redact masks credentials in item text and flags commands that
// destroy data, for front-ends that hand items to a third party.
package redact

import "regexp"

type rule struct {
	name string
	re   *regexp.Regexp
	repl string
}

// secretRules run in order; later rules see the output of earlier ones.
var secretRules = []rule{
	{"pem block", regexp.MustCompile(`-----BEGIN [A-Z ]+-----[\s\S]+?-----END [A-Z ]+-----`), "[PEM_BLOCK]"},
	{"aws access key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "[AWS_ACCESS_KEY]"},
	{"aws secret key", regexp.MustCompile(`(?i)(aws_secret_access_key|secret_access_key)\s*[=:]\s*\S+`), "$1=[REDACTED]"},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`), "[JWT]"},
	{"slack token", regexp.MustCompile(`xox[baprs]-[0-9a-zA-Z-]+`), "[SLACK_TOKEN]"},
	{"github token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36}`), "[GITHUB_TOKEN]"},
	{"url credentials", regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://)[^\s/:@]+:[^\s/@]+@`), "${1}[REDACTED]@"},
	{"bearer", regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]{20,}`), "Bearer [REDACTED]"},
	{"token auth", regexp.MustCompile(`(?i)(authorization:\s*token)\s+\S+`), "$1 [REDACTED]"},
	{"basic auth", regexp.MustCompile(`(?i)\bbasic\s+[A-Za-z0-9+/=]{20,}`), "Basic [REDACTED]"},
	{"private key", regexp.MustCompile(`(?i)(private[_-]?key)\s*[=:]\s*\S+`), "$1=[REDACTED]"},
	{"assignment", regexp.MustCompile(`(?i)(password|passwd|token|secret|api[_-]?key)\s*[=:]\s*\S+`), "$1=[REDACTED]"},
}

// Secrets returns text with recognised credentials replaced by markers.
// Detection is pattern based and best effort.
func Secrets(text string) string {
	if text == "" {
		return text
	}
	for _, r := range secretRules {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	return text
}

// Rules returns the names of the secret rules, in the order they run.
func Rules() []string {
	names := make([]string, len(secretRules))
	for i, r := range secretRules {
		names[i] = r.name
	}
	return names
}

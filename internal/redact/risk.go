package redact

import (
	"regexp"
	"strings"
)

var destructiveCommands = []*regexp.Regexp{
	// files
	regexp.MustCompile(`\brm\s+(-[a-zA-Z]*r[a-zA-Z]*f|--recursive\s+--force|-[a-zA-Z]*f[a-zA-Z]*r)\b`),
	regexp.MustCompile(`\brm\s+-[a-zA-Z]*[rf]\b`),
	regexp.MustCompile(`\brmdir\b`),
	regexp.MustCompile(`\bshred\b`),

	// sql
	regexp.MustCompile(`(?i)\bDROP\s+(TABLE|DATABASE)\b`),
	regexp.MustCompile(`(?i)\bTRUNCATE\b`),
	regexp.MustCompile(`(?i)\bDELETE\s+FROM\b`),

	// git
	regexp.MustCompile(`\bgit\s+(push\s+)?(-[a-zA-Z]*f|--force)\b`),
	regexp.MustCompile(`\bgit\s+reset\s+--hard\b`),
	regexp.MustCompile(`\bgit\s+clean\s+-[a-zA-Z]*[fd]`),

	// permissions
	regexp.MustCompile(`\bchmod\s+(777|-[a-zA-Z]*R)\b`),
	regexp.MustCompile(`\bchown\s+-[a-zA-Z]*R\b`),

	// disks
	regexp.MustCompile(`>\s*/dev/(sd|hd|nvme|vd|xvd|disk)`),
	regexp.MustCompile(`\bdd\s+.*of=/dev/`),
	regexp.MustCompile(`\b(mkfs|fdisk|wipefs)\b`),

	// power and services
	regexp.MustCompile(`\b(shutdown|reboot|poweroff|halt)\b`),
	regexp.MustCompile(`\binit\s+[06]\b`),
	regexp.MustCompile(`\bsystemctl\s+(stop|disable|mask)\b`),

	// packages
	regexp.MustCompile(`\b(apt|apt-get|dnf|yum|pacman)\s+(remove|purge|-R)\b`),
	regexp.MustCompile(`\bbrew\s+uninstall\b`),
	regexp.MustCompile(`\bnpm\s+(uninstall|remove)\s+-g\b`),

	// processes
	regexp.MustCompile(`\bkill\s+-9\b`),
	regexp.MustCompile(`\b(killall|pkill)\b`),

	// containers
	regexp.MustCompile(`\bdocker\s+(rm|container\s+rm)\s+-[a-zA-Z]*f\b`),
	regexp.MustCompile(`\bdocker\s+(system|volume)\s+(prune|rm)\b`),
	regexp.MustCompile(`\bkubectl\s+delete\b`),
}

// Destructive reports whether command looks like it deletes data, stops
// the machine or kills processes.
func Destructive(command string) bool {
	command = strings.TrimSpace(command)
	if command == "" {
		return false
	}
	for _, re := range destructiveCommands {
		if re.MatchString(command) {
			return true
		}
	}
	return false
}

//go:build unix

package launcher

import (
	"os/exec"
	"syscall"
)

// detach starts cmd in its own session so it survives the launcher.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

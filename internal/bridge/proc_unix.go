//go:build !windows

package bridge

import (
	"os/exec"
	"syscall"
)

// configureProcess puts the interpreter in its own process group so that
// cancellation also reaches anything the script forked.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		// Kill the process group (negative PID)
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}

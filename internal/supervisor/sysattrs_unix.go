//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr places the child in its own process group so that
// terminate/kill signals reach the whole tree, not just the direct child.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateProcess asks the child's process group to exit politely.
func terminateProcess(pid int) error {
	return syscall.Kill(-pid, syscall.SIGTERM)
}

// killProcess forcibly terminates the child's process group.
func killProcess(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}

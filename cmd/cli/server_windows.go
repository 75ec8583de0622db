//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// detachProcess starts the child in a new process group so console signals do not reach it
func detachProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | 0x00000008, // DETACHED_PROCESS
	}
}

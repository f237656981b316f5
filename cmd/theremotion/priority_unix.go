//go:build linux || darwin || freebsd

package main

import "syscall"

func raisePriority() error {
	return syscall.Setpriority(syscall.PRIO_PROCESS, 0, -10)
}

//go:build !linux && !darwin && !freebsd

package main

import "errors"

func raisePriority() error {
	return errors.New("process priority is not supported on this platform")
}

//go:build unix || linux || darwin

package fasta

import (
	"syscall"
)

func (l *fileLock) lock() error {
	// Blocking: a second builder waits for the first.
	return syscall.Flock(int(l.f.Fd()), syscall.LOCK_EX)
}

func (l *fileLock) unlock() error {
	return syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
}

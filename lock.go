// OS-level file locking for concurrent index builds.
//
// Two processes indexing the same FASTA file write the same .tmp path.
// createTemp opens it without truncating, takes an exclusive flock /
// LockFileEx, and only then truncates. The lock is held until the temp
// file has been renamed over the index, so a second builder never
// truncates a file the first is still writing.
//
// After waiting for the lock, the handle may refer to a file a previous
// builder has already renamed into place. createTemp compares it with
// whatever the .tmp path names now and retries if they differ.
package fasta

import (
	"fmt"
	"os"
	"sync"
)

// fileLock serialises flock syscalls against setFile so that a concurrent
// Close cannot invalidate the fd mid-syscall.
type fileLock struct {
	mu sync.Mutex
	f  *os.File
}

// Lock acquires an exclusive lock, blocking while another handle holds
// one. It is a no-op once the handle has been cleared with setFile(nil).
func (l *fileLock) Lock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return l.lock()
}

// Unlock releases the lock.
func (l *fileLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return l.unlock()
}

func (l *fileLock) setFile(f *os.File) {
	l.mu.Lock()
	l.f = f
	l.mu.Unlock()
}

// tempFile is an exclusively locked, empty temp file for an index build.
type tempFile struct {
	*os.File
	lock fileLock
}

// createTemp opens and locks name, waiting for any other builder to finish.
func createTemp(name string) (*tempFile, error) {
	for {
		f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0644)
		if err != nil {
			return nil, fmt.Errorf("index: create temp: %w", err)
		}
		t := &tempFile{File: f}
		t.lock.setFile(f)
		if err := t.lock.Lock(); err != nil {
			f.Close()
			return nil, fmt.Errorf("index: lock temp: %w", err)
		}

		held, err := f.Stat()
		if err != nil {
			t.release()
			return nil, fmt.Errorf("index: stat temp: %w", err)
		}
		named, err := os.Stat(name)
		if err != nil || !os.SameFile(held, named) {
			t.release()
			continue
		}

		if err := f.Truncate(0); err != nil {
			t.release()
			return nil, fmt.Errorf("index: truncate temp: %w", err)
		}
		return t, nil
	}
}

// release unlocks and closes the file.
func (t *tempFile) release() error {
	t.lock.Unlock()
	t.lock.setFile(nil)
	return t.Close()
}

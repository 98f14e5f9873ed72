// Package flock provides exclusive advisory file locks that exclude other
// processes as well as other goroutines of the same process.
//
// Each Acquire opens its own file description, so two holders in one process
// contend exactly as two processes would.
package flock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	minPollInterval = time.Millisecond
	maxPollInterval = 100 * time.Millisecond
)

// ErrUnsupported is returned on platforms without file locking.
var ErrUnsupported = errors.New("flock: file locking not supported on this platform")

// Lock is a held exclusive lock on a file.
type Lock struct {
	f *os.File
}

// Acquire blocks until it holds an exclusive lock on path, creating the file
// if needed.
//
// When ctx can never be cancelled the wait uses a blocking system call with no
// time limit. Otherwise the lock is polled until it is acquired or ctx is
// done, in which case ctx.Err() is returned.
func Acquire(ctx context.Context, path string) (*Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600) //nolint:gosec // path is a cache lock file
	if err != nil {
		return nil, err
	}

	if ctx.Done() == nil {
		err = lockBlocking(f)
	} else {
		err = lockPolling(ctx, f)
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Lock{f: f}, nil
}

// TryAcquire takes the lock on path if it is free. ok is false when another
// holder has it.
func TryAcquire(path string) (l *Lock, ok bool, err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600) //nolint:gosec // path is a cache lock file
	if err != nil {
		return nil, false, err
	}
	ok, err = tryLock(f)
	if err != nil || !ok {
		f.Close()
		return nil, false, err
	}
	return &Lock{f: f}, true, nil
}

func lockPolling(ctx context.Context, f *os.File) error {
	interval := minPollInterval
	for {
		ok, err := tryLock(f)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		interval = min(interval*2, maxPollInterval)
	}
}

// Path returns the name of the locked file.
func (l *Lock) Path() string {
	return l.f.Name()
}

// Release unlocks and closes the lock file. The file itself is left in
// place; removing it would let a waiter lock an unlinked inode.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	name := l.f.Name()
	unlockErr := unlock(l.f)
	closeErr := l.f.Close()
	l.f = nil
	if unlockErr != nil {
		return fmt.Errorf("unlock %s: %w", name, unlockErr)
	}
	return closeErr
}

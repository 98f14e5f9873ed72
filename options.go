package classpath

import (
	"log/slog"
	"os"
	"time"
)

// Option configures a Transformer.
type Option func(*Transformer)

// WithLogger sets the logger for transform operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transformer) {
		t.logger = logger
	}
}

// WithLockTimeout bounds the wait for another holder of a cache entry's lock.
// Zero, the default, waits indefinitely. The timeout never interrupts a
// transformation that has started.
func WithLockTimeout(d time.Duration) Option {
	return func(t *Transformer) {
		if d < 0 {
			d = 0
		}
		t.lockTimeout = d
	}
}

// WithDirPerm sets the permissions of cache directories (default 0700).
func WithDirPerm(mode os.FileMode) Option {
	return func(t *Transformer) {
		t.dirPerm = mode
	}
}

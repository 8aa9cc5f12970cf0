package cache

import (
	"time"

	"github.com/jmgilman/go/fs/core"
)

// Option configures a Store.
type Option func(*options)

type options struct {
	fs     core.FS
	logger *Logger
	now    func() time.Time
}

func defaultOptions() options {
	return options{
		logger: NewNopLogger(),
		now:    time.Now,
	}
}

// WithFS stores cache files in fsys instead of the local directory passed to
// New. fsys is used as the cache root.
func WithFS(fsys core.FS) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithLogger sets the logger used for hit, miss, eviction and cache I/O
// events. The default discards everything.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source used to stamp index entries.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

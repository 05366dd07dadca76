package dashboard

import (
	"time"

	"github.com/okian/tasklytics/pkg/logger"
)

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithLogger sets the logger used for cycle diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithClock sets the clock used for the update-time label and snapshots.
func WithClock(now func() time.Time) Option {
	return func(ld *Loader) {
		if now != nil {
			ld.now = now
		}
	}
}

// WithTimeLayout sets the layout of the update-time label.
func WithTimeLayout(layout string) Option {
	return func(ld *Loader) {
		if layout != "" {
			ld.timeLayout = layout
		}
	}
}

// WithIDGenerator replaces the load id generator, mostly for tests.
func WithIDGenerator(next func() string) Option {
	return func(ld *Loader) {
		if next != nil {
			ld.nextID = next
		}
	}
}

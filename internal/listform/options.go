package listform

import (
	"log/slog"
	"time"

	hrsdk "hrconsole/sdk/go"
)

// ConfirmFunc asks the operator to approve deleting rec.
type ConfirmFunc func(rec hrsdk.Record) bool

// Option configures a Controller.
type Option func(*Controller)

// WithConfirm sets the delete confirmation. Without one every delete proceeds.
func WithConfirm(fn ConfirmFunc) Option {
	return func(c *Controller) { c.confirm = fn }
}

// WithFocus sets the callback run when an edit starts, e.g. to bring the form into view.
func WithFocus(fn func()) Option {
	return func(c *Controller) { c.focus = fn }
}

// WithLogger sets the logger failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithReferences sets the collection the reference field draws its options from.
func WithReferences(refs Collection) Option {
	return func(c *Controller) { c.refs = refs }
}

// WithClock overrides time.Now for date defaults.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

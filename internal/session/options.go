package session

import "github.com/scholarsmate/omega-edit/internal/change"

// DefaultViewportMaxCapacity is the default ceiling on a single viewport's
// capacity, and the base NeedleLengthLimit is derived from (spec.md section 6).
const DefaultViewportMaxCapacity int64 = 1_048_576

// OnChangeFunc is the session-level callback invoked after every applied,
// undone or redone change, once viewport notification has finished
// (spec.md section 5's ordering guarantee: viewports before session).
type OnChangeFunc func(s *Session, c *change.Change)

// Option configures a Session at construction time. This is the idiomatic
// Go substitute for the original library's positional
// omega_edit_create_session parameter list.
type Option func(*options)

type options struct {
	userData            any
	viewportMaxCapacity int64
	windowOffset        int64
	windowLength        int64
	onChange            OnChangeFunc
}

func defaultOptions() options {
	return options{viewportMaxCapacity: DefaultViewportMaxCapacity}
}

// WithUserData attaches a caller-defined pointer retrievable via UserData.
func WithUserData(d any) Option {
	return func(o *options) { o.userData = d }
}

// WithViewportMaxCapacity overrides DefaultViewportMaxCapacity for this
// session. Every viewport created on the session is rejected if its
// requested capacity exceeds this value.
func WithViewportMaxCapacity(n int64) Option {
	return func(o *options) { o.viewportMaxCapacity = n }
}

// WithWindow restricts the session's initial virtual content to
// [offset, offset+length) of the backing file, rather than the whole file.
// Leaving both at zero (the default) means the full file.
func WithWindow(offset, length int64) Option {
	return func(o *options) {
		o.windowOffset = offset
		o.windowLength = length
	}
}

// WithChangeCallback registers the session-level change callback.
func WithChangeCallback(fn OnChangeFunc) Option {
	return func(o *options) { o.onChange = fn }
}

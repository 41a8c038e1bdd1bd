package campaign

import "time"

// SessionContext reports whether the acting session is anonymous. The
// engine fires events only for anonymous-session leads and fails
// closed otherwise.
type SessionContext interface {
	IsAnonymous() bool
}

// Clock supplies the current time. Injected so firing timestamps are
// testable.
type Clock interface {
	Now() time.Time
}

// IPResolver supplies the origin IP recorded on log entries.
type IPResolver interface {
	Current() string
}

// StaticSession is a SessionContext with a fixed answer.
type StaticSession bool

// IsAnonymous implements SessionContext.
func (s StaticSession) IsAnonymous() bool { return bool(s) }

// StaticIP is an IPResolver with a fixed address.
type StaticIP string

// Current implements IPResolver.
func (ip StaticIP) Current() string { return string(ip) }

// systemClock implements Clock with time.Now.
type systemClock struct{}

// Now implements Clock.
func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by time.Now in UTC.
func SystemClock() Clock { return systemClock{} }

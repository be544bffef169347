package watcher

import (
	"errors"
	"strings"
)

// Sentinels returned by Watch itself; these never travel through Callback,
// unlike the in-band diagnostics described in Event's doc comment.
var (
	// ErrUnsupportedPlatform is returned by Watch on platforms for which
	// this module has no kernel-event adapter.
	ErrUnsupportedPlatform = errors.New("watcher: unsupported platform")
	// ErrNoCapSysAdmin is returned when the capability precheck finds
	// CAP_SYS_ADMIN definitely absent before any kernel call is attempted.
	ErrNoCapSysAdmin = errors.New("watcher: missing CAP_SYS_ADMIN capability")
	// ErrNoPath is returned when Config.Path is empty.
	ErrNoPath = errors.New("watcher: missing watch path")
	// ErrResourceOpen is returned when opening the backend's kernel
	// resources (fanotify fd, root mark, epoll fd) fails. The Callback
	// already received a fatal diagnostic describing which step failed.
	ErrResourceOpen = errors.New("watcher: failed to open kernel resources")
	// ErrEventRecv is returned when the event loop hits a fatal condition
	// while draining a batch of records (bad kernel version, a record
	// count that can't be trusted, or a read() failure).
	ErrEventRecv = errors.New("watcher: fatal error receiving events")
)

// severity is the first segment of a diagnostic tag.
type severity string

const (
	fatal   severity = "e"
	warning severity = "w"
)

// origin is the second segment of a diagnostic tag.
type origin string

const (
	sys  origin = "sys"
	self origin = "self"
)

// diagTag builds the "<severity>/<origin>/<symbol>[@<base>[@<child>]]" tag
// described in spec's diagnostic grammar. errnoSuffix, when non-empty, is
// appended in parens after symbol, matching "on syscall errors the tag is
// suffixed with (<errno-string>)".
func diagTag(sev severity, org origin, symbol string, errnoSuffix string, parts ...string) string {
	var b strings.Builder
	b.WriteString(string(sev))
	b.WriteByte('/')
	b.WriteString(string(org))
	b.WriteByte('/')
	b.WriteString(symbol)
	if errnoSuffix != "" {
		b.WriteByte('(')
		b.WriteString(errnoSuffix)
		b.WriteByte(')')
	}
	for _, p := range parts {
		b.WriteByte('@')
		b.WriteString(p)
	}
	return b.String()
}

// diagnostic builds the Event for a diagnostic tag.
func diagnostic(tag string) Event {
	return Event{Path: tag, Effect: Other, Kind: Watcher}
}

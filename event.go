// Package watcher provides a filesystem-change notifier: give it a root path
// and a callback, and it delivers a continuous stream of create, modify,
// destroy and rename events scoped to that subtree until told to stop.
package watcher

import "fmt"

// EffectKind describes what kind of change a Event reports.
type EffectKind uint8

const (
	// Other is a catch-all for changes that don't fit the other kinds, and
	// is also the effect kind used for diagnostic events.
	Other EffectKind = iota
	Create
	Destroy
	Modify
	Rename
)

func (e EffectKind) String() string {
	switch e {
	case Create:
		return "create"
	case Destroy:
		return "destroy"
	case Modify:
		return "modify"
	case Rename:
		return "rename"
	default:
		return "other"
	}
}

// PathKind describes what the path in a Event denotes.
type PathKind uint8

const (
	// File is an ordinary file (or anything that isn't a directory).
	File PathKind = iota
	// Directory is, well, a directory.
	Directory
	// Watcher marks a diagnostic event: Event.Path carries a tag, not a
	// filesystem path, and EffectKind is always Other.
	Watcher
)

func (p PathKind) String() string {
	switch p {
	case Directory:
		return "directory"
	case Watcher:
		return "watcher"
	default:
		return "file"
	}
}

// Event is a single notification delivered to the caller's Callback: either a
// real filesystem change, or a diagnostic (when Kind == Watcher).
//
// For diagnostics, Path carries a short tag of the form
// "<severity>/<origin>/<symbol>[@<base>[@<child>]]", severity one of "e"
// (fatal to the watch) or "w" (warning; the watch continues).
type Event struct {
	Path   string
	Effect EffectKind
	Kind   PathKind
}

func (e Event) String() string {
	return fmt.Sprintf("%s (%s, %s)", e.Path, e.Effect, e.Kind)
}

// IsDiagnostic reports whether e is a diagnostic rather than a real change.
func (e Event) IsDiagnostic() bool { return e.Kind == Watcher }

// Callback receives every hydrated event and every diagnostic produced while
// a watch is running. It is called synchronously from the watch's single
// worker goroutine: it should not block for long, and must not itself start
// or stop the same watch.
type Callback func(Event)

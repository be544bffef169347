//go:build linux && !appengine
// +build linux,!appengine

package internal

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// Debug decodes a raw fanotify event mask and prints it to stderr, the way
// fsnotify's inotify backend decodes IN_* masks for its own debug mode. Gated
// by Config.Debug in the caller, never printed otherwise.
func Debug(name string, mask uint64) {
	names := []struct {
		n string
		m uint64
	}{
		{"FAN_ACCESS", unix.FAN_ACCESS},
		{"FAN_MODIFY", unix.FAN_MODIFY},
		{"FAN_ATTRIB", unix.FAN_ATTRIB},
		{"FAN_CLOSE_WRITE", unix.FAN_CLOSE_WRITE},
		{"FAN_CLOSE_NOWRITE", unix.FAN_CLOSE_NOWRITE},
		{"FAN_OPEN", unix.FAN_OPEN},
		{"FAN_MOVED_FROM", unix.FAN_MOVED_FROM},
		{"FAN_MOVED_TO", unix.FAN_MOVED_TO},
		{"FAN_CREATE", unix.FAN_CREATE},
		{"FAN_DELETE", unix.FAN_DELETE},
		{"FAN_DELETE_SELF", unix.FAN_DELETE_SELF},
		{"FAN_MOVE_SELF", unix.FAN_MOVE_SELF},
		{"FAN_Q_OVERFLOW", unix.FAN_Q_OVERFLOW},
		{"FAN_ONDIR", unix.FAN_ONDIR},
	}

	var l []string
	for _, n := range names {
		if mask&n.m == n.m {
			l = append(l, n.n)
		}
	}
	fmt.Fprintf(os.Stderr, "%s  %-20s → %s\n", time.Now().Format("15:04:05.0000"), strings.Join(l, " | "), name)
}

//go:build !linux

package watcher

import "context"

// watch on non-Linux platforms. The spec's handle-fid backend is Linux-only
// (it depends on fanotify's FAN_REPORT_DFID_NAME reporting, added in 5.9);
// the polling fallback and the macOS/BSD kqueue adapter are out of scope for
// this module, so Watch is honest about not supporting this platform rather
// than silently doing nothing.
func watch(ctx context.Context, cfg Config) error {
	return ErrUnsupportedPlatform
}

package watcher

import (
	"github.com/quietpath/watcher/internal"
	"golang.org/x/sys/unix"
)

// eventCountUpperLimit bounds how many records a single drain will parse out
// of one buffer. A count of records above what the buffer could possibly
// hold means the metadata is lying -- a kernel/userspace desync, not a real
// burst of events -- so it's treated as fatal rather than silently capped.
var eventCountUpperLimit = eventBufLen / int(sizeOfFanotifyEventMetadata)

// drainEvents reads one batch of ready fanotify records from rb.watchFD and
// feeds each through promote -> reconcile -> cb, in order, stopping early
// (but still returning true) on a record this backend can't trust enough to
// promote. It returns false only for conditions fatal to the whole watch.
func drainEvents(rb *resourceBundle, root string, cb Callback, debug bool) bool {
	buf := make([]byte, eventBufLen)
	n, err := internal.IgnoringEINTR(func() (int, error) {
		return unix.Read(rb.watchFD, buf)
	})

	switch {
	case n > 0:
		// fall through to record parsing
	case err == nil, err == unix.EAGAIN, err == unix.EWOULDBLOCK:
		return true
	default:
		cb(diagnostic(diagTag(fatal, sys, "read", err.Error(), root)))
		return false
	}

	count := 0
	it := newRecordIter(buf, n)
	for it.ok() {
		meta := it.meta()
		count++

		switch {
		case meta.Vers != unix.FANOTIFY_METADATA_VERSION:
			cb(diagnostic(diagTag(fatal, sys, "kernel_version", "", root)))
			return false
		case count > eventCountUpperLimit:
			cb(diagnostic(diagTag(fatal, sys, "bad_count", "", root)))
			return false
		case meta.Fd != unix.FAN_NOFD:
			cb(diagnostic(diagTag(warning, sys, "bad_fd", "", root)))
			return true
		case meta.Mask&unix.FAN_Q_OVERFLOW != 0:
			cb(diagnostic(diagTag(warning, sys, "overflow", "", root)))
			return true
		case it.fid().Header.InfoType != unix.FAN_EVENT_INFO_TYPE_DFID_NAME:
			cb(diagnostic(diagTag(warning, sys, "bad_info", "", root)))
			return true
		default:
			handle, name := it.dirHandleAndName()
			if debug {
				internal.Debug(root, meta.Mask)
			}
			h := reconcile(promote(meta, handle, name), rb)
			if h.ok {
				cb(Event{Path: h.path, Effect: h.effect, Kind: h.kind})
			}
		}
		it.next()
	}
	return true
}

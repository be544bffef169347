package watcher

import "golang.org/x/sys/unix"

// markMask is the event set requested for every directory mark: enough to
// drive the reconciler (create/delete of children) and to report modify and
// rename on anything under the watched subtree, plus the two "this node
// itself went away" events.
const markMask = unix.FAN_ONDIR | unix.FAN_CREATE | unix.FAN_MODIFY | unix.FAN_DELETE |
	unix.FAN_MOVE | unix.FAN_DELETE_SELF | unix.FAN_MOVE_SELF

// markSet is the mark registry. fanotify_mark(2) -- unlike inotify_add_watch
// -- reports success with a bare 0, not a per-mark id, so there is no kernel
// handle to key the registry on; the marked path is the closest thing to an
// identifier we have, and it's exactly what the reconciler needs to look up.
type markSet map[string]struct{}

func newMarkSet() markSet {
	return make(markSet, 1024)
}

// mark adds a directory mark for path on watchFD and records it in ms on
// success.
func mark(path string, watchFD int, ms markSet) bool {
	if err := unix.FanotifyMark(watchFD, unix.FAN_MARK_ADD, markMask, unix.AT_FDCWD, path); err != nil {
		return false
	}
	ms[path] = struct{}{}
	return true
}

// unmark removes the mark for path. It only reports success -- and only
// erases the registry entry -- when both the kernel call succeeds and the
// path was actually present in ms.
func unmark(path string, watchFD int, ms markSet) bool {
	if err := unix.FanotifyMark(watchFD, unix.FAN_MARK_REMOVE, markMask, unix.AT_FDCWD, path); err != nil {
		return false
	}
	if _, ok := ms[path]; !ok {
		return false
	}
	delete(ms, path)
	return true
}

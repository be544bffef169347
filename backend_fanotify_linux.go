package watcher

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const (
	// delayMS bounds how long the event loop blocks in epoll_wait before
	// re-checking the liveness flag. Short enough that Watch returns
	// promptly after ctx is done; long enough not to spin.
	delayMS = 16
	// eventWaitQueueMax is the number of epoll_event slots the loop polls
	// with per wait; one is all a single watch fd needs.
	eventWaitQueueMax = 1

	fanInitFlags    = unix.FAN_CLASS_NOTIF | unix.FAN_REPORT_DFID_NAME | unix.FAN_UNLIMITED_QUEUE | unix.FAN_UNLIMITED_MARKS
	fanInitOptFlags = unix.O_RDONLY | unix.O_NONBLOCK | unix.O_CLOEXEC
)

// eventBufLen is the size of the read buffer offered to the kernel per
// drain. PATH_MAX is the same bound the original adapter uses.
var eventBufLen = int(unix.PathMax)

// resourceBundle is everything a running watch holds open: the fanotify fd,
// the mark registry built on top of it, and the epoll fd multiplexing on it.
// valid is false whenever any part of opening failed -- callers must still
// close whatever did get opened before giving up.
type resourceBundle struct {
	valid     bool
	watchFD   int
	eventFD   int
	eventConf unix.EpollEvent
	markSet   markSet
}

// openResources brings up everything a watch needs in one pass: init
// fanotify, mark root (and, recursively, every directory under it), then
// bring up the epoll fd that multiplexes on the fanotify fd. Any failure
// reports a fatal diagnostic through cb and returns with valid == false;
// closeResources must still be called on the result to release whatever did
// get opened.
func openResources(path string, cb Callback) resourceBundle {
	watchFD, err := unix.FanotifyInit(fanInitFlags, fanInitOptFlags)
	if err != nil {
		cb(diagnostic(diagTag(fatal, sys, "fanotify_init", err.Error(), path)))
		return resourceBundle{valid: false, watchFD: watchFD, eventFD: -1}
	}

	ms := walkAndMark(watchFD, path, cb)
	if len(ms) == 0 {
		cb(diagnostic(diagTag(fatal, sys, "fanotify_mark", "", path)))
		return resourceBundle{valid: false, watchFD: watchFD, eventFD: -1, markSet: ms}
	}

	eventFD, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		cb(diagnostic(diagTag(fatal, sys, "epoll_create", err.Error(), path)))
		return resourceBundle{valid: false, watchFD: watchFD, eventFD: eventFD, markSet: ms}
	}

	conf := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(watchFD)}
	if err := unix.EpollCtl(eventFD, unix.EPOLL_CTL_ADD, watchFD, &conf); err != nil {
		cb(diagnostic(diagTag(fatal, sys, "epoll_ctl", err.Error(), path)))
		return resourceBundle{valid: false, watchFD: watchFD, eventFD: eventFD, markSet: ms}
	}

	return resourceBundle{valid: true, watchFD: watchFD, eventFD: eventFD, eventConf: conf, markSet: ms}
}

// walkAndMark marks root and every directory beneath it, following
// directory symlinks and skipping entries that deny permission, the way the
// original adapter's recursive_directory_iterator does. A symlink cycle is
// guarded against by realpath, which the original doesn't bother with --
// recursive_directory_iterator has the same exposure, but there's no reason
// to carry the bug forward here.
func walkAndMark(watchFD int, root string, cb Callback) markSet {
	ms := newMarkSet()
	if !mark(root, watchFD, ms) {
		return ms
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return ms
	}
	walkDir(root, watchFD, ms, cb, root, map[string]bool{})
	return ms
}

func walkDir(dir string, watchFD int, ms markSet, cb Callback, base string, seen map[string]bool) {
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		real = dir
	}
	if seen[real] {
		return
	}
	seen[real] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		info, err := os.Stat(p)
		if err != nil {
			// Permission-denied and any other stat failure (ENOENT from a
			// raced delete, for instance) are both skipped quietly, the way
			// the original adapter's recursive_directory_iterator swallows
			// everything but a failed mark.
			continue
		}
		if !info.IsDir() {
			continue
		}
		if !mark(p, watchFD, ms) {
			cb(diagnostic(diagTag(warning, sys, "not_watched", "", base, p)))
			continue
		}
		walkDir(p, watchFD, ms, cb, base, seen)
	}
}

// closeResources releases both descriptors in rb, closing the fanotify fd
// even when the epoll fd never came up (or vice versa). It reports whether
// both closes succeeded, as one result rather than per fd. watch does not use
// that result: after cancellation it returns nil whether or not the closes
// succeeded.
func closeResources(rb resourceBundle) bool {
	var ok = true
	if rb.watchFD > 0 {
		if err := unix.Close(rb.watchFD); err != nil {
			ok = false
		}
	}
	if rb.eventFD > 0 {
		if err := unix.Close(rb.eventFD); err != nil {
			ok = false
		}
	}
	return ok
}

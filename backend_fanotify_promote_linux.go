package watcher

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// hydrated is what promote/reconcile hand back to the event loop: either a
// usable Event, or ok == false meaning "drop this record, nothing sensible
// can be reported."
type hydrated struct {
	ok     bool
	path   string
	effect EffectKind
	kind   PathKind
}

// classifyEffect maps a raw fanotify mask to the effect kind, checking in
// the fixed order create, delete, modify, move -- the same priority the
// original adapter gives these bits.
func classifyEffect(mask uint64) EffectKind {
	switch {
	case mask&unix.FAN_CREATE != 0:
		return Create
	case mask&unix.FAN_DELETE != 0:
		return Destroy
	case mask&unix.FAN_MODIFY != 0:
		return Modify
	case mask&unix.FAN_MOVE != 0:
		return Rename
	default:
		return Other
	}
}

// promote hydrates a raw (metadata, directory handle, name) triple into a
// path. It never touches the mark registry -- that's the reconciler's job,
// run on promote's output.
//
//  1. open_by_handle_at the directory handle. AT_FDCWD is deliberate here
//     (not a mountpoint fd): this mirrors the original adapter, which always
//     resolves handles relative to the calling process rather than a
//     specific mount.
//  2. On failure, the directory itself can't be resolved to a path, but the
//     entry name alone still identifies something: report "/" + name.
//  3. On success, follow /proc/self/fd/<n> to recover the directory's path,
//     then append the entry name (unless it's "." -- the kernel uses "." to
//     mean "the node the mark is on", not a child).
//  4. If the symlink read itself fails, nothing usable survives: ok=false.
func promote(meta *unix.FanotifyEventMetadata, dirHandle unix.FileHandle, name string) hydrated {
	effect := classifyEffect(meta.Mask)
	kind := File
	if meta.Mask&unix.FAN_ONDIR != 0 {
		kind = Directory
	}

	fd, err := unix.OpenByHandleAt(unix.AT_FDCWD, dirHandle, unix.O_RDONLY|unix.O_CLOEXEC|unix.O_PATH|unix.O_NONBLOCK)
	if err != nil {
		if name == "" || name == "." {
			return hydrated{ok: false}
		}
		return hydrated{ok: true, path: "/" + name, effect: effect, kind: kind}
	}
	defer unix.Close(fd)

	buf := make([]byte, unix.PathMax)
	n, err := unix.Readlink(fmt.Sprintf("/proc/self/fd/%d", fd), buf)
	if err != nil || n <= 0 {
		return hydrated{ok: false}
	}

	path := string(buf[:n])
	if name != "" && name != "." {
		path = joinAndTruncate(path, name)
	}
	return hydrated{ok: true, path: path, effect: effect, kind: kind}
}

func joinAndTruncate(dir, name string) string {
	p := dir + "/" + name
	if len(p) > unix.PathMax {
		p = p[:unix.PathMax]
	}
	return p
}

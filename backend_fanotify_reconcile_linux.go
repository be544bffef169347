package watcher

// reconcile keeps the mark registry in step with the subtree: a newly
// created directory gets its own mark so its children are visible too; a
// destroyed directory's mark is dropped so the registry doesn't accumulate
// stale entries the kernel has already forgotten.
//
// It runs after promote and before the event reaches Callback. A directory
// whose reconciling mark/unmark call fails is reported as unhydrated (ok =
// false) rather than surfaced as a half-consistent event -- the caller asked
// for "things that happened and are now reflected in the registry," not
// "things that happened."
func reconcile(h hydrated, rb *resourceBundle) hydrated {
	if !h.ok || h.kind != Directory {
		return h
	}
	switch h.effect {
	case Create:
		h.ok = mark(h.path, rb.watchFD, rb.markSet)
	case Destroy:
		h.ok = unmark(h.path, rb.watchFD, rb.markSet)
	}
	return h
}

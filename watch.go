package watcher

import "context"

// Config holds what a watch needs: where to watch, who to tell, and whether
// to dump a decode of every raw kernel record to stderr.
type Config struct {
	// Path is the root of the subtree to watch.
	Path string
	// Callback is invoked for every hydrated event and every diagnostic.
	Callback Callback
	// Debug, when true, makes the backend print a human-readable decode of
	// each raw kernel record to stderr (see internal.Debug). Off by
	// default; never enabled implicitly.
	Debug bool
}

// Watch watches Config.Path for changes and delivers them to Config.Callback
// until ctx is done or a fatal backend error occurs. ctx.Done() is the
// "liveness flag" spec describes: Watch samples it between waits and between
// ready-entry iterations, and returns within one wait-timeout plus one drain
// of the moment it fires.
//
// Watch blocks on the calling goroutine for the life of the watch; callers
// that want to run it in the background should do so themselves.
func Watch(ctx context.Context, cfg Config) error {
	if cfg.Path == "" {
		return ErrNoPath
	}
	if cfg.Callback == nil {
		cfg.Callback = func(Event) {}
	}
	return watch(ctx, cfg)
}

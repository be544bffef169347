package watcher

import (
	"context"
	"fmt"

	"github.com/quietpath/watcher/internal"
	"golang.org/x/sys/unix"
)

// watch is the Linux implementation backing Watch. It fails fast on a known
// absence of CAP_SYS_ADMIN, opens the fanotify/epoll resources, then drives
// the wait/drain loop until ctx is done or a fatal error is hit, always
// releasing the resources on the way out.
func watch(ctx context.Context, cfg Config) error {
	if ok, err := internal.HasCapSysAdmin(); err == nil && !ok {
		cfg.Callback(diagnostic(diagTag(fatal, self, "cap_sys_admin", "", cfg.Path)))
		return ErrNoCapSysAdmin
	}

	rb := openResources(cfg.Path, cfg.Callback)
	if !rb.valid {
		cfg.Callback(diagnostic(diagTag(fatal, self, "sys_resource", "", cfg.Path)))
		closeResources(rb)
		return ErrResourceOpen
	}
	defer closeResources(rb)

	events := make([]unix.EpollEvent, eventWaitQueueMax)
	for ctx.Err() == nil {
		n, err := unix.EpollWait(rb.eventFD, events, delayMS)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			cfg.Callback(diagnostic(diagTag(fatal, sys, "epoll_wait", err.Error(), cfg.Path)))
			return fmt.Errorf("watcher: epoll_wait: %w", err)
		}

		for i := 0; i < n && ctx.Err() == nil; i++ {
			if events[i].Fd != int32(rb.watchFD) {
				continue
			}
			if !drainEvents(&rb, cfg.Path, cfg.Callback, cfg.Debug) {
				cfg.Callback(diagnostic(diagTag(fatal, self, "event_recv", "", cfg.Path)))
				return ErrEventRecv
			}
		}
	}
	return nil
}

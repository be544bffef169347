//go:build linux && !appengine
// +build linux,!appengine

package internal

import (
	"github.com/syndtr/gocapability/capability"
)

// HasCapSysAdmin reports whether the current process has CAP_SYS_ADMIN in
// its effective set. A definitive "no" lets watch fail fast, with a readable
// diagnostic, before the resource opener ever calls fanotify_init; a failure
// to even determine the answer (err != nil) is not itself a "no" -- the
// caller falls through to the kernel call and lets it produce the real
// error.
func HasCapSysAdmin() (bool, error) {
	caps, err := capability.NewPid2(0)
	if err != nil {
		return false, err
	}
	if err := caps.Load(); err != nil {
		return false, err
	}
	return caps.Get(capability.EFFECTIVE, capability.CAP_SYS_ADMIN), nil
}

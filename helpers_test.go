package watcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quietpath/watcher/internal/ztest"
)

// We wait a little after most commands; gives the kernel time to actually
// deliver the fanotify record before the test looks for it.
func eventSeparator() { time.Sleep(50 * time.Millisecond) }
func waitForEvents()  { time.Sleep(500 * time.Millisecond) }

const noWait = ""

func shouldWait(path ...string) bool {
	for _, p := range path {
		if p == "" {
			return false
		}
	}
	return true
}

// mkdir
func mkdir(t *testing.T, path ...string) {
	t.Helper()
	if len(path) < 1 {
		t.Fatalf("mkdir: path must have at least one element: %s", path)
	}
	if err := os.Mkdir(filepath.Join(path...), 0o0755); err != nil {
		t.Fatalf("mkdir(%q): %s", filepath.Join(path...), err)
	}
	if shouldWait(path...) {
		eventSeparator()
	}
}

// touch
func touch(t *testing.T, path ...string) {
	t.Helper()
	if len(path) < 1 {
		t.Fatalf("touch: path must have at least one element: %s", path)
	}
	fp, err := os.Create(filepath.Join(path...))
	if err != nil {
		t.Fatalf("touch(%q): %s", filepath.Join(path...), err)
	}
	if err := fp.Close(); err != nil {
		t.Fatalf("touch(%q): %s", filepath.Join(path...), err)
	}
	if shouldWait(path...) {
		eventSeparator()
	}
}

// cat
func cat(t *testing.T, data string, path ...string) {
	t.Helper()
	if len(path) < 1 {
		t.Fatalf("cat: path must have at least one element: %s", path)
	}
	err := func() error {
		fp, err := os.OpenFile(filepath.Join(path...), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			return err
		}
		if _, err := fp.WriteString(data); err != nil {
			return err
		}
		if err := fp.Sync(); err != nil {
			return err
		}
		return fp.Close()
	}()
	if err != nil {
		t.Fatalf("cat(%q): %s", filepath.Join(path...), err)
	}
	if shouldWait(path...) {
		eventSeparator()
	}
}

// mv
func mv(t *testing.T, src string, dst ...string) {
	t.Helper()
	if len(dst) < 1 {
		t.Fatalf("mv: dst must have at least one element: %s", dst)
	}
	var err error
	switch runtime.GOOS {
	case "windows", "plan9":
		err = os.Rename(src, filepath.Join(dst...))
	default:
		err = exec.Command("mv", src, filepath.Join(dst...)).Run()
	}
	if err != nil {
		t.Fatalf("mv(%q, %q): %s", src, filepath.Join(dst...), err)
	}
	if shouldWait(dst...) {
		eventSeparator()
	}
}

// rm
func rm(t *testing.T, path ...string) {
	t.Helper()
	if len(path) < 1 {
		t.Fatalf("rm: path must have at least one element: %s", path)
	}
	if err := os.Remove(filepath.Join(path...)); err != nil {
		t.Fatalf("rm(%q): %s", filepath.Join(path...), err)
	}
	if shouldWait(path...) {
		eventSeparator()
	}
}

// rm -r
func rmAll(t *testing.T, path ...string) {
	t.Helper()
	if len(path) < 1 {
		t.Fatalf("rmAll: path must have at least one element: %s", path)
	}
	if err := os.RemoveAll(filepath.Join(path...)); err != nil {
		t.Fatalf("rmAll(%q): %s", filepath.Join(path...), err)
	}
	if shouldWait(path...) {
		eventSeparator()
	}
}

// chmod
func chmod(t *testing.T, mode os.FileMode, path ...string) {
	t.Helper()
	if len(path) < 1 {
		t.Fatalf("chmod: path must have at least one element: %s", path)
	}
	if err := os.Chmod(filepath.Join(path...), mode); err != nil {
		t.Fatalf("chmod(%q): %s", filepath.Join(path...), err)
	}
	if shouldWait(path...) {
		eventSeparator()
	}
}

// collector runs a Watch in the background and records every Event it
// delivers, separating real changes from diagnostics the way a caller
// inspecting Event.IsDiagnostic() would.
type collector struct {
	mu          sync.Mutex
	events      Events
	diagnostics Events
	cancel      context.CancelFunc
	done        chan error
}

func newCollector(t *testing.T, root string) *collector {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	c := &collector{cancel: cancel, done: make(chan error, 1)}

	go func() {
		c.done <- Watch(ctx, Config{
			Path: root,
			Callback: func(e Event) {
				c.mu.Lock()
				defer c.mu.Unlock()
				if e.IsDiagnostic() {
					c.diagnostics = append(c.diagnostics, e)
					return
				}
				c.events = append(c.events, e)
			},
		})
	}()
	// give the watch time to finish its initial fanotify_init/mark pass
	// before the test starts driving filesystem operations.
	time.Sleep(50 * time.Millisecond)
	return c
}

func (c *collector) stop(t *testing.T) Events {
	t.Helper()
	waitForEvents()
	c.cancel()

	select {
	case err := <-c.done:
		if err != nil {
			t.Errorf("watch returned: %s", err)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("watch did not return within 1 second of cancellation")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

type Events []Event

func (e Events) String() string {
	b := new(strings.Builder)
	for i, ee := range e {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(b, "%-10s %q", ee.Effect.String(), filepath.ToSlash(ee.Path))
	}
	return b.String()
}

func (e Events) TrimPrefix(prefix string) Events {
	for i := range e {
		if e[i].Path == prefix {
			e[i].Path = "/"
		} else {
			e[i].Path = strings.TrimPrefix(e[i].Path, prefix+"/")
		}
	}
	return e
}

func (e Events) copy() Events {
	cp := make(Events, len(e))
	copy(cp, e)
	return cp
}

// newEvents builds an Events list from a small DSL, one event per line:
//
//	create   path
//	modify   "quoted path"
//
// Anything after a "#" is a comment; blank lines are ignored.
func newEvents(t *testing.T, s string) Events {
	t.Helper()

	var events Events
	for no, line := range strings.Split(s, "\n") {
		if i := strings.IndexByte(line, '#'); i > -1 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			t.Fatalf("newEvents: line %d has less than 2 fields: %s", no, line)
		}
		path := strings.Trim(fields[len(fields)-1], `"`)

		var effect EffectKind
		switch strings.ToUpper(fields[0]) {
		case "CREATE":
			effect = Create
		case "DESTROY":
			effect = Destroy
		case "MODIFY":
			effect = Modify
		case "RENAME":
			effect = Rename
		default:
			effect = Other
		}
		events = append(events, Event{Path: path, Effect: effect})
	}
	return events
}

func cmpEvents(t *testing.T, tmp string, have, want Events) {
	t.Helper()

	have = have.TrimPrefix(tmp)

	haveSort, wantSort := have.copy(), want.copy()
	sort.Slice(haveSort, func(i, j int) bool { return haveSort[i].String() > haveSort[j].String() })
	sort.Slice(wantSort, func(i, j int) bool { return wantSort[i].String() > wantSort[j].String() })

	if haveSort.String() != wantSort.String() {
		if d := ztest.Diff(haveSort.String(), wantSort.String(), ztest.DiffNormalizeWhitespace); d != "" {
			t.Error(d)
			return
		}
		t.Errorf("\nhave:\n%s\nwant:\n%s", indent(have), indent(want))
	}
}

func indent(s fmt.Stringer) string {
	return "\t" + strings.ReplaceAll(s.String(), "\n", "\n\t")
}

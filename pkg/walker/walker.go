package walker

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrDone is returned by Next once the traversal has visited every reachable
// folder. It is distinct from cancellation, which surfaces as ctx.Err().
var ErrDone = errors.New("walk complete")

// HiddenPrefix is the reserved marker for files and folders that should never
// enter the catalog (macOS resource forks and similar droppings).
const HiddenPrefix = "._"

// IsHidden reports whether a base name carries the reserved hidden marker.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, HiddenPrefix)
}

// FolderVisit is one dequeued folder together with its direct file list,
// pre-filtered by the walker's inclusion predicate and sorted by name.
type FolderVisit struct {
	Path  string
	Files []string
}

// Walker performs a breadth-first traversal of a folder tree. Children of a
// folder are discovered only when that folder is dequeued, so folders created
// mid-walk under an unvisited parent are still picked up. A seen-set keyed on
// the symlink-resolved path guarantees each physical folder is visited once.
//
// A Walker is finite and non-restartable; create a new one per pass.
type Walker struct {
	include func(name string) bool
	queue   []string
	seen    map[string]struct{}
}

func New(root string, include func(name string) bool) *Walker {
	w := &Walker{
		include: include,
		seen:    make(map[string]struct{}),
	}
	if !IsHidden(filepath.Base(root)) {
		w.enqueue(root)
	}
	return w
}

// Next dequeues the next folder, discovers and enqueues its subfolders, and
// returns the visit. Cancellation is checked before each dequeue. Folders
// that vanish or become unreadable between discovery and dequeue are skipped.
func (w *Walker) Next(ctx context.Context) (*FolderVisit, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(w.queue) == 0 {
			return nil, ErrDone
		}

		path := w.queue[0]
		w.queue = w.queue[1:]

		entries, err := os.ReadDir(path)
		if err != nil {
			continue
		}

		visit := &FolderVisit{Path: path}
		subdirs := make([]string, 0)
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() {
				if !IsHidden(name) {
					subdirs = append(subdirs, filepath.Join(path, name))
				}
				continue
			}
			if IsHidden(name) {
				continue
			}
			if w.include != nil && !w.include(name) {
				continue
			}
			visit.Files = append(visit.Files, name)
		}

		sort.Strings(subdirs)
		for _, dir := range subdirs {
			w.enqueue(dir)
		}
		sort.Strings(visit.Files)

		return visit, nil
	}
}

// Remaining returns the number of folders currently queued. Together with a
// completed count it yields the progress fraction for the pass.
func (w *Walker) Remaining() int {
	return len(w.queue)
}

func (w *Walker) enqueue(path string) {
	key := path
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		key = resolved
	}
	if _, ok := w.seen[key]; ok {
		return
	}
	w.seen[key] = struct{}{}
	w.queue = append(w.queue, path)
}

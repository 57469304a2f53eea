package mtlcore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// controlDirName is always excluded from a walk, regardless of hidden or
// ignore-file settings: mtl must never hash its own repository state.
const controlDirName = ".mtl"

// WalkedEntry is one entry emitted by Walk.
type WalkedEntry struct {
	Kind         Kind
	RelativePath string // "." for the root, "/"-separated elsewhere
	AbsolutePath string
}

// WalkOptions configures a walk.
type WalkOptions struct {
	// Hidden includes dotfiles and dot-directories when true.
	Hidden bool
	// IncludeList, when non-nil, restricts emission to entries whose
	// relative path exactly (byte-wise) matches one of these paths. The
	// root entry is always emitted regardless, so Builder always has a
	// directory to fold into.
	IncludeList []string
	// Threads bounds the parallelism of downstream file hashing (applied by
	// Builder); it does not bound directory-traversal concurrency, which
	// scales with the tree's branching rather than its file count.
	Threads int
}

// includeSet builds a lookup set from IncludeList, or nil if unrestricted.
func (o WalkOptions) includeSet() map[string]bool {
	if o.IncludeList == nil {
		return nil
	}
	set := make(map[string]bool, len(o.IncludeList))
	for _, p := range o.IncludeList {
		set[p] = true
	}
	return set
}

// Walk traverses the filesystem subtree rooted at root and returns a
// channel of unordered entries plus a function that returns the first walk
// error, if any, once the entries channel has been fully drained. Builder
// is expected to range over entries concurrently with the walk itself
// (entries are buffered, but ranging eagerly lets disk I/O and hashing
// overlap).
func Walk(root string, opts WalkOptions) (<-chan WalkedEntry, func() error) {
	entries := make(chan WalkedEntry, 256)
	errCh := make(chan error, 1)

	go func() {
		defer close(entries)
		errCh <- walk(root, opts, entries)
		close(errCh)
	}()

	return entries, func() error { return <-errCh }
}

func walk(root string, opts WalkOptions, out chan<- WalkedEntry) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", ErrIO, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrIO, root)
	}

	include := opts.includeSet()
	emit := func(e WalkedEntry) {
		if include != nil && e.RelativePath != "." && !include[e.RelativePath] {
			return
		}
		out <- e
	}

	emit(WalkedEntry{Kind: KindTree, RelativePath: ".", AbsolutePath: root})

	// Directory-traversal goroutines are deliberately unbounded: each one
	// reads its directory, emits entries, spawns a goroutine per
	// subdirectory, and returns without waiting on those children. A bounded
	// errgroup here would deadlock the moment in-flight goroutines reach the
	// limit, since a goroutine already holding a slot can spawn a child that
	// needs a slot of its own before the parent can return and free it.
	// File hashing, the actually expensive parallel work, is bounded
	// separately in Builder.hashFiles.
	var g errgroup.Group

	root = filepath.Clean(root)
	rootMatcher := (&ignoreMatcher{}).child(root, "")

	var walkDir func(dir, relDir string, matcher *ignoreMatcher) error
	walkDir = func(dir, relDir string, matcher *ignoreMatcher) error {
		dirEntries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("%w: reading %s: %v", ErrIO, dir, err)
		}

		for _, de := range dirEntries {
			name := de.Name()
			if name == controlDirName {
				continue
			}
			if !opts.Hidden && strings.HasPrefix(name, ".") {
				continue
			}

			relPath := name
			if relDir != "" {
				relPath = relDir + "/" + name
			}
			absPath := filepath.Join(dir, name)

			isDir := de.IsDir()
			if matcher.isIgnored(relPath, isDir) {
				continue
			}

			if isDir {
				emit(WalkedEntry{Kind: KindTree, RelativePath: relPath, AbsolutePath: absPath})
				childMatcher := matcher.child(absPath, relPath)
				g.Go(func() error {
					return walkDir(absPath, relPath, childMatcher)
				})
			} else if de.Type().IsRegular() {
				emit(WalkedEntry{Kind: KindFile, RelativePath: relPath, AbsolutePath: absPath})
			}
			// Symlinks and other non-regular files are not represented.
		}
		return nil
	}

	g.Go(func() error {
		return walkDir(root, "", rootMatcher)
	})

	return g.Wait()
}

package mtlcore

import (
	"fmt"
	"os"
	"path"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// fileEntry is a file awaiting hashing, or already hashed, inside its
// parent directory's collected listing.
type fileEntry struct {
	name    string
	absPath string
	oid     OID
}

// dirNode is a directory collected during the walk, tracked until every
// child (file or subdirectory) it depends on has resolved to an OID.
type dirNode struct {
	relPath string
	name    string
	parent  *dirNode

	files   []*fileEntry
	subdirs []*dirNode

	// pendingChildDirs counts subdirectories not yet folded. A dirNode
	// becomes foldable once this reaches zero; it starts at len(subdirs)
	// and each subdirectory's fold decrements its parent's counter,
	// enqueuing the parent once it hits zero. This is the per-directory
	// dependency-count scheme instead of a global barrier.
	pendingChildDirs int32

	oid OID
}

// Builder assembles tree objects bottom-up from a Walker's entry stream and
// writes them into an ObjectStore.
type Builder struct {
	store   *ObjectStore
	refs    *RefStore
	threads int
}

// NewBuilder returns a Builder writing into store, using threads as the
// default parallelism for hashing and folding (values less than 1 fall
// back to runtime.NumCPU, resolved lazily per build).
func NewBuilder(store *ObjectStore, refs *RefStore, threads int) *Builder {
	return &Builder{store: store, refs: refs, threads: threads}
}

// BuildResult summarizes a completed build.
type BuildResult struct {
	RootOID    OID
	FileCount  int
	TreeCount  int
}

// Build walks root, hashes and writes every file and tree it finds, and
// returns the resulting root OID. It does not touch HEAD; callers that want
// the "local build" CLI semantics call SetHead afterward (or use
// (*Repository).Build, which does both).
func (b *Builder) Build(root string, opts WalkOptions) (BuildResult, error) {
	if opts.Threads < 1 {
		opts.Threads = b.threads
	}
	if opts.Threads < 1 {
		opts.Threads = runtime.NumCPU()
	}

	entries, walkErr := Walk(root, opts)

	nodes := make(map[string]*dirNode)

	for e := range entries {
		switch e.Kind {
		case KindTree:
			node := getOrCreateRec(nodes, e.RelativePath)
			node.name = path.Base(e.RelativePath)
			if e.RelativePath == "." {
				node.name = "."
			}
		case KindFile:
			parentPath := "."
			if dir := path.Dir(e.RelativePath); dir != "." {
				parentPath = dir
			}
			parent := getOrCreateRec(nodes, parentPath)
			parent.files = append(parent.files, &fileEntry{name: path.Base(e.RelativePath), absPath: e.AbsolutePath})
		}
	}

	if err := walkErr(); err != nil {
		return BuildResult{}, err
	}

	root0, ok := nodes["."]
	if !ok {
		// An empty root with no children still needs a root node.
		root0 = &dirNode{relPath: ".", name: "."}
		nodes["."] = root0
	}

	if err := b.hashFiles(nodes, opts.Threads); err != nil {
		return BuildResult{}, err
	}

	if err := b.foldTrees(nodes, opts.Threads); err != nil {
		return BuildResult{}, err
	}

	fileCount, treeCount := 0, 0
	for _, n := range nodes {
		treeCount++
		fileCount += len(n.files)
	}

	return BuildResult{RootOID: root0.oid, FileCount: fileCount, TreeCount: treeCount}, nil
}

// getOrCreateRec materializes relPath and every missing ancestor directory
// up to (and including) the root, linking each into its parent's subdirs.
func getOrCreateRec(nodes map[string]*dirNode, relPath string) *dirNode {
	if n, ok := nodes[relPath]; ok {
		return n
	}
	n := &dirNode{relPath: relPath, name: path.Base(relPath)}
	nodes[relPath] = n
	if relPath != "." {
		parentPath := path.Dir(relPath)
		parent := getOrCreateRec(nodes, parentPath)
		n.parent = parent
		parent.subdirs = append(parent.subdirs, n)
		parent.pendingChildDirs++
	}
	return n
}

// hashFiles hashes and writes every collected file in parallel, bounded by
// threads. Every file hash completes before tree folding begins, so a
// directory's children are always fully hashed before it is folded.
func (b *Builder) hashFiles(nodes map[string]*dirNode, threads int) error {
	g := new(errgroup.Group)
	g.SetLimit(threads)

	for _, n := range nodes {
		for _, fe := range n.files {
			fe := fe
			g.Go(func() error {
				content, err := os.ReadFile(fe.absPath) //nolint:gosec // absPath comes from the walk root, not attacker input
				if err != nil {
					return fmt.Errorf("%w: reading %s: %v", ErrIO, fe.absPath, err)
				}
				oid := HashFileBytes(content)
				if err := b.store.Put(oid, content); err != nil {
					return err
				}
				fe.oid = oid
				return nil
			})
		}
	}
	return g.Wait()
}

// foldTrees folds every directory bottom-up using a per-directory
// dependency-count scheme: a directory becomes foldable once every
// subdirectory it depends on has itself folded, tracked with an atomic
// counter rather than a global barrier between depth levels.
func (b *Builder) foldTrees(nodes map[string]*dirNode, threads int) error {
	ready := make(chan *dirNode, len(nodes))
	var wg sync.WaitGroup
	wg.Add(len(nodes))

	for _, n := range nodes {
		if atomic.LoadInt32(&n.pendingChildDirs) == 0 {
			ready <- n
		}
	}

	go func() {
		wg.Wait()
		close(ready)
	}()

	var firstErr error
	var errOnce sync.Once
	setErr := func(err error) {
		errOnce.Do(func() { firstErr = err })
	}

	var workers sync.WaitGroup
	for i := 0; i < threads; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for n := range ready {
				entries := make([]Entry, 0, len(n.files)+len(n.subdirs))
				for _, fe := range n.files {
					entries = append(entries, Entry{Kind: KindFile, OID: fe.oid, Name: fe.name})
				}
				for _, sd := range n.subdirs {
					entries = append(entries, Entry{Kind: KindTree, OID: sd.oid, Name: sd.name})
				}

				oid := HashTree(entries)
				if err := b.store.Put(oid, EncodeTree(entries)); err != nil {
					setErr(err)
					wg.Done()
					continue
				}
				n.oid = oid
				wg.Done()

				if n.parent != nil {
					if atomic.AddInt32(&n.parent.pendingChildDirs, -1) == 0 {
						ready <- n.parent
					}
				}
			}
		}()
	}
	workers.Wait()

	return firstErr
}

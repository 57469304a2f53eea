package mtlcore

import (
	"fmt"
	"os"
	"path/filepath"
)

// controlDirDefault is the conventional name of a repository's control
// directory, created by Init and expected by Open.
const controlDirDefault = ".mtl"

// Repository ties together a working directory and the control-directory
// state (objects, refs, HEAD) that indexes it.
type Repository struct {
	WorkDir string
	MtlDir  string

	Store    *ObjectStore
	Refs     *RefStore
	Tree     *TreeReader
	Resolver *Resolver
	Differ   *Differ
	Builder  *Builder
}

// Open constructs a Repository rooted at workDir, using workDir/.mtl as the
// control directory. It does not require the control directory to already
// exist; Build creates it lazily on first write, matching ObjectStore and
// RefStore's own lazy-creation behavior.
func Open(workDir string, threads int) (*Repository, error) {
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving %s: %v", ErrIO, workDir, err)
	}

	mtlDir := filepath.Join(abs, controlDirDefault)
	store := NewObjectStore(mtlDir)
	refs := NewRefStore(mtlDir)
	tree := NewTreeReader(store)

	return &Repository{
		WorkDir:  abs,
		MtlDir:   mtlDir,
		Store:    store,
		Refs:     refs,
		Tree:     tree,
		Resolver: NewResolver(store, refs, tree),
		Differ:   NewDiffer(tree),
		Builder:  NewBuilder(store, refs, threads),
	}, nil
}

// Build walks the repository's working directory, writes every object it
// finds, sets HEAD to the resulting root OID, and returns the result.
func (r *Repository) Build(opts WalkOptions) (BuildResult, error) {
	result, err := r.Builder.Build(r.WorkDir, opts)
	if err != nil {
		return BuildResult{}, err
	}
	if err := r.Refs.SetHead(result.RootOID); err != nil {
		return BuildResult{}, err
	}
	return result, nil
}

// Update rebuilds only the subtree rooted at subtreePath (relative to the
// working directory, "/"-separated, "" meaning the whole repository), then
// re-folds every ancestor tree up to a new root, substituting the rebuilt
// subtree's OID at each level, and finally rewrites HEAD to the new root.
// Only the changed branch of the tree is rehashed, not the whole repository.
func (r *Repository) Update(subtreePath string, opts WalkOptions) (BuildResult, error) {
	if subtreePath == "" || subtreePath == "." {
		return r.Build(opts)
	}

	absSubtree := filepath.Join(r.WorkDir, filepath.FromSlash(subtreePath))
	subtreeResult, err := r.Builder.Build(absSubtree, opts)
	if err != nil {
		return BuildResult{}, err
	}

	head, err := r.Refs.Head()
	if err != nil {
		return BuildResult{}, fmt.Errorf("%w: update requires an existing build", err)
	}

	newRoot, err := r.refoldAncestors(head, subtreePath, subtreeResult.RootOID)
	if err != nil {
		return BuildResult{}, err
	}

	if err := r.Refs.SetHead(newRoot); err != nil {
		return BuildResult{}, err
	}
	return BuildResult{RootOID: newRoot, FileCount: subtreeResult.FileCount, TreeCount: subtreeResult.TreeCount}, nil
}

// refoldAncestors replaces the entry reached by following subtreePath from
// rootOID with newSubtreeOID, re-hashing and rewriting every tree object
// along that path from the leaf back up to a new root OID.
func (r *Repository) refoldAncestors(rootOID OID, subtreePath string, newSubtreeOID OID) (OID, error) {
	components := splitPath(subtreePath)

	trees := make([]*Tree, len(components)+1)
	t, err := r.Tree.Read(rootOID)
	if err != nil {
		return 0, err
	}
	trees[0] = t

	id := rootOID
	for i, c := range components {
		entry, ok := t.Find(c)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrPathNotFound, c)
		}
		if entry.Kind != KindTree {
			return 0, fmt.Errorf("%w: %q", ErrNotATree, c)
		}
		id = entry.OID
		t, err = r.Tree.Read(id)
		if err != nil {
			return 0, err
		}
		trees[i+1] = t
	}

	childOID := newSubtreeOID
	for i := len(components) - 1; i >= 0; i-- {
		parent := trees[i]
		entries := replaceEntry(parent.Entries, components[i], KindTree, childOID)
		oid := HashTree(entries)
		if err := r.Store.Put(oid, EncodeTree(entries)); err != nil {
			return 0, err
		}
		childOID = oid
	}
	return childOID, nil
}

func splitPath(p string) []string {
	if p == "" {
		return nil
	}
	var parts []string
	start := 0
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			if i > start {
				parts = append(parts, p[start:i])
			}
			start = i + 1
		}
	}
	if start < len(p) {
		parts = append(parts, p[start:])
	}
	return parts
}

func replaceEntry(entries []Entry, name string, kind Kind, oid OID) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	for i, e := range out {
		if e.Name == name {
			out[i] = Entry{Kind: kind, OID: oid, Name: name}
			return out
		}
	}
	return append(out, Entry{Kind: kind, OID: oid, Name: name})
}

// GC sweeps objects unreachable from HEAD and every ref.
func (r *Repository) GC(dry bool) (GCResult, error) {
	return GC(r.Store, r.Refs, r.Tree, dry)
}

// Pack migrates every loose object into the packed tier.
func (r *Repository) Pack() (PackResult, error) {
	return Pack(r.Store)
}

// EnsureDir creates the repository's control directory if it does not
// already exist. Most components create their own files lazily, but the
// CLI's "init"-like first build benefits from an explicit, early failure
// if the working directory itself is not writable.
func (r *Repository) EnsureDir() error {
	if err := os.MkdirAll(r.MtlDir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrIO, r.MtlDir, err)
	}
	return nil
}

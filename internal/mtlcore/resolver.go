package mtlcore

import (
	"fmt"
	"strings"
)

// Resolver evaluates object expressions of the form
// "(ID | REFNAME | HEAD)[:path/...]" against a repository's refs and
// object graph.
type Resolver struct {
	store *ObjectStore
	refs  *RefStore
	tree  *TreeReader
}

// NewResolver returns a Resolver backed by store, refs, and tree.
func NewResolver(store *ObjectStore, refs *RefStore, tree *TreeReader) *Resolver {
	return &Resolver{store: store, refs: refs, tree: tree}
}

// Resolve evaluates expr and returns the OID it designates. A ":path"
// suffix is accepted after any of the three base forms (a literal OID, a
// ref name, or HEAD) and descends from whichever tree the base resolves to.
func (r *Resolver) Resolve(expr string) (OID, error) {
	base, path, hasPath := strings.Cut(expr, ":")

	var id OID
	var err error
	switch {
	case base == headName:
		id, err = r.refs.Head()
	case LooksLikeOID(base):
		id, err = ParseOID(base)
		if err == nil && !r.store.Has(id) {
			err = fmt.Errorf("%w: object %s", ErrNotFound, id)
		}
	case base == "":
		return 0, fmt.Errorf("%w: empty expression", ErrInvalidExpression)
	default:
		id, err = r.refs.Get(base)
	}
	if err != nil {
		return 0, err
	}
	if !hasPath || path == "" {
		return id, nil
	}

	return r.descend(id, path)
}

// descend walks id's tree by the "/"-separated path and returns the OID of
// the final component. id is assumed to name a tree (HEAD always does); a
// path component that tries to descend through a file entry fails with
// ErrNotATree before any object lookup, matching the other components'
// component-by-component descent.
func (r *Resolver) descend(id OID, path string) (OID, error) {
	kind := KindTree
	for _, component := range strings.Split(path, "/") {
		if component == "" {
			continue
		}
		if kind != KindTree {
			return 0, fmt.Errorf("%w: %q", ErrNotATree, component)
		}
		t, err := r.tree.Read(id)
		if err != nil {
			return 0, err
		}
		entry, ok := t.Find(component)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrPathNotFound, component)
		}
		id, kind = entry.OID, entry.Kind
	}
	return id, nil
}

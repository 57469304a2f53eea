package mtlcore

// GCResult summarizes a completed garbage collection pass.
type GCResult struct {
	Unreachable []OID
	Deleted     int
	Errors      []error
}

// GC computes the set of objects unreachable from HEAD and every ref.
// In dry mode it only reports the unreachable set. Otherwise
// it deletes every unreachable object from both tiers, continuing past
// per-object failures (recorded in GCResult.Errors) since a partial sweep
// still leaves the repository valid.
func GC(store *ObjectStore, refs *RefStore, tree *TreeReader, dry bool) (GCResult, error) {
	roots, err := collectRoots(refs)
	if err != nil {
		return GCResult{}, err
	}

	reachable, err := reachableSet(tree, roots)
	if err != nil {
		return GCResult{}, err
	}

	loose, err := store.IterLoose()
	if err != nil {
		return GCResult{}, err
	}
	packed, err := store.IterPacked()
	if err != nil {
		return GCResult{}, err
	}

	seen := make(map[OID]bool)
	var unreachable []OID
	for _, id := range append(append([]OID(nil), loose...), packed...) {
		if seen[id] || reachable[id] {
			continue
		}
		seen[id] = true
		unreachable = append(unreachable, id)
	}

	result := GCResult{Unreachable: unreachable}
	if dry {
		return result, nil
	}

	for _, id := range unreachable {
		if err := store.RemoveLoose(id); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		if err := store.RemovePacked(id); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Deleted++
	}
	return result, nil
}

// collectRoots gathers HEAD (if set) and every saved ref's OID. A missing
// HEAD is not an error; a repository with no build yet has no roots.
func collectRoots(refs *RefStore) ([]OID, error) {
	var roots []OID
	if head, err := refs.Head(); err == nil {
		roots = append(roots, head)
	} else if !isNotFoundErr(err) {
		return nil, err
	}

	entries, err := refs.List()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		roots = append(roots, e.OID)
	}
	return roots, nil
}

// reachableSet performs a memoized BFS from roots, descending into any OID
// that decodes as a tree. An OID that fails to decode as a tree (a file, or
// one already missing) is still marked reachable without recursing further.
func reachableSet(tree *TreeReader, roots []OID) (map[OID]bool, error) {
	reachable := make(map[OID]bool, len(roots))
	queue := append([]OID(nil), roots...)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if reachable[id] {
			continue
		}
		reachable[id] = true

		t, err := tree.Read(id)
		if err != nil {
			continue
		}
		for _, e := range t.Entries {
			if !reachable[e.OID] {
				queue = append(queue, e.OID)
			}
		}
	}
	return reachable, nil
}

package mtlcore

import "testing"

func TestGCDryRunReportsUnreachableWithoutDeleting(t *testing.T) {
	store := NewObjectStore(t.TempDir())
	refs := NewRefStore(t.TempDir())
	tree := NewTreeReader(store)

	reachableFile := putFile(t, store, "kept")
	reachableRoot := buildTree(t, store, []Entry{{Kind: KindFile, OID: reachableFile, Name: "a.txt"}})
	if err := refs.SetHead(reachableRoot); err != nil {
		t.Fatalf("SetHead: %v", err)
	}

	orphan := putFile(t, store, "orphan")

	result, err := GC(store, refs, tree, true)
	if err != nil {
		t.Fatalf("GC failed: %v", err)
	}
	if len(result.Unreachable) != 1 || result.Unreachable[0] != orphan {
		t.Errorf("Unreachable = %v, want [%s]", result.Unreachable, orphan)
	}
	if !store.Has(orphan) {
		t.Error("dry run should not delete anything")
	}
}

func TestGCDeletesUnreachableObjects(t *testing.T) {
	store := NewObjectStore(t.TempDir())
	refs := NewRefStore(t.TempDir())
	tree := NewTreeReader(store)

	reachableFile := putFile(t, store, "kept")
	reachableRoot := buildTree(t, store, []Entry{{Kind: KindFile, OID: reachableFile, Name: "a.txt"}})
	if err := refs.SetHead(reachableRoot); err != nil {
		t.Fatalf("SetHead: %v", err)
	}

	orphan := putFile(t, store, "orphan")

	result, err := GC(store, refs, tree, false)
	if err != nil {
		t.Fatalf("GC failed: %v", err)
	}
	if result.Deleted != 1 {
		t.Errorf("Deleted = %d, want 1", result.Deleted)
	}
	if store.Has(orphan) {
		t.Error("orphan object should have been deleted")
	}
	if !store.Has(reachableFile) || !store.Has(reachableRoot) {
		t.Error("reachable objects should survive GC")
	}
}

func TestGCReachesThroughRefsNotJustHead(t *testing.T) {
	store := NewObjectStore(t.TempDir())
	refs := NewRefStore(t.TempDir())
	tree := NewTreeReader(store)

	file := putFile(t, store, "x")
	root := buildTree(t, store, []Entry{{Kind: KindFile, OID: file, Name: "a.txt"}})
	if err := refs.Save("stable", root); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// No HEAD set at all.

	result, err := GC(store, refs, tree, false)
	if err != nil {
		t.Fatalf("GC failed: %v", err)
	}
	if result.Deleted != 0 {
		t.Errorf("Deleted = %d, want 0: ref-reachable objects should survive", result.Deleted)
	}
	if !store.Has(root) || !store.Has(file) {
		t.Error("ref-reachable objects should not be deleted")
	}
}

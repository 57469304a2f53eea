package mtlcore

import (
	"strings"
	"testing"
)

func buildTree(t *testing.T, store *ObjectStore, entries []Entry) OID {
	t.Helper()
	id := HashTree(entries)
	if err := store.Put(id, EncodeTree(entries)); err != nil {
		t.Fatalf("Put tree: %v", err)
	}
	return id
}

func putFile(t *testing.T, store *ObjectStore, content string) OID {
	t.Helper()
	id := HashFileBytes([]byte(content))
	if err := store.Put(id, []byte(content)); err != nil {
		t.Fatalf("Put file: %v", err)
	}
	return id
}

func TestDifferEqualOIDsYieldNoLines(t *testing.T) {
	store := NewObjectStore(t.TempDir())
	differ := NewDiffer(NewTreeReader(store))

	a := putFile(t, store, "x")
	lines, err := differ.Diff(a, a)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected no lines for equal OIDs, got %d", len(lines))
	}
}

func TestDifferDetectsAddedFile(t *testing.T) {
	store := NewObjectStore(t.TempDir())
	differ := NewDiffer(NewTreeReader(store))

	aFile := putFile(t, store, "a")
	bFile := putFile(t, store, "b")

	treeA := buildTree(t, store, []Entry{{Kind: KindFile, OID: aFile, Name: "a.txt"}})
	treeB := buildTree(t, store, []Entry{
		{Kind: KindFile, OID: aFile, Name: "a.txt"},
		{Kind: KindFile, OID: bFile, Name: "b.txt"},
	})

	lines, err := differ.Diff(treeA, treeB)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}

	found := false
	for _, l := range lines {
		if l.Path == "b.txt" && !l.LeftPresent && l.RightPresent {
			found = true
		}
		if l.Path == "a.txt" {
			t.Errorf("unchanged entry a.txt should not appear in the diff, got %q", l.String())
		}
	}
	if !found {
		t.Errorf("expected an added line for b.txt, got %v", lines)
	}
}

func TestDifferModifiedFileLine(t *testing.T) {
	store := NewObjectStore(t.TempDir())
	differ := NewDiffer(NewTreeReader(store))

	oldFile := putFile(t, store, "old")
	newFile := putFile(t, store, "new")

	treeA := buildTree(t, store, []Entry{{Kind: KindFile, OID: oldFile, Name: "a.txt"}})
	treeB := buildTree(t, store, []Entry{{Kind: KindFile, OID: newFile, Name: "a.txt"}})

	lines, err := differ.Diff(treeA, treeB)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if len(lines) != 2 || lines[0].Path != "." {
		t.Fatalf("expected the root line then 1 modified line, got %d: %v", len(lines), lines)
	}
	if !lines[1].LeftPresent || !lines[1].RightPresent || lines[1].Path != "a.txt" {
		t.Errorf("unexpected modified line: %+v", lines[1])
	}
}

func TestDifferRecursesIntoModifiedSubtree(t *testing.T) {
	store := NewObjectStore(t.TempDir())
	differ := NewDiffer(NewTreeReader(store))

	oldFile := putFile(t, store, "old")
	newFile := putFile(t, store, "new")

	subA := buildTree(t, store, []Entry{{Kind: KindFile, OID: oldFile, Name: "b.txt"}})
	subB := buildTree(t, store, []Entry{{Kind: KindFile, OID: newFile, Name: "b.txt"}})

	treeA := buildTree(t, store, []Entry{{Kind: KindTree, OID: subA, Name: "dir"}})
	treeB := buildTree(t, store, []Entry{{Kind: KindTree, OID: subB, Name: "dir"}})

	lines, err := differ.Diff(treeA, treeB)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}

	var gotPaths []string
	for _, l := range lines {
		gotPaths = append(gotPaths, l.Path)
	}
	if !contains(gotPaths, "dir") || !contains(gotPaths, "dir/b.txt") {
		t.Errorf("expected diff to include both dir and dir/b.txt, got %v", gotPaths)
	}
}

func TestDiffLineFormat(t *testing.T) {
	line := DiffLine{RightKind: KindFile, RightPresent: true, RightOID: OID(1), Path: "new.txt"}
	s := line.String()
	fields := strings.Split(s, "\t")
	if len(fields) != 3 {
		t.Fatalf("expected 3 tab-separated fields, got %d: %q", len(fields), s)
	}
	if fields[0] != "    /file" {
		t.Errorf("kind column = %q, want %q", fields[0], "    /file")
	}
	if fields[2] != "new.txt" {
		t.Errorf("path column = %q, want new.txt", fields[2])
	}
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

package mtlcore

import "testing"

func TestHashFileBytesDeterministic(t *testing.T) {
	a := HashFileBytes([]byte("hello\n"))
	b := HashFileBytes([]byte("hello\n"))
	if a != b {
		t.Errorf("HashFileBytes not deterministic: %s != %s", a, b)
	}
}

func TestHashFileBytesDistinguishesContent(t *testing.T) {
	a := HashFileBytes([]byte("hello\n"))
	b := HashFileBytes([]byte("goodbye\n"))
	if a == b {
		t.Errorf("HashFileBytes collided for distinct content")
	}
}

func TestHashStreamingMatchesOneShot(t *testing.T) {
	oneShot := HashFileBytes([]byte("hello world"))

	h := NewFileHasher()
	_, _ = h.Write([]byte("hello "))
	_, _ = h.Write([]byte("world"))
	streamed := h.Sum()

	if oneShot != streamed {
		t.Errorf("streamed hash %s != one-shot hash %s", streamed, oneShot)
	}
}

func TestHashTreeOrderIndependent(t *testing.T) {
	e1 := Entry{Kind: KindFile, OID: 1, Name: "b"}
	e2 := Entry{Kind: KindFile, OID: 2, Name: "a"}

	forward := HashTree([]Entry{e1, e2})
	reversed := HashTree([]Entry{e2, e1})

	if forward != reversed {
		t.Errorf("HashTree depends on input order: %s != %s", forward, reversed)
	}
}

func TestHashTreeDistinguishesFileVersusTree(t *testing.T) {
	fileEntry := HashTree([]Entry{{Kind: KindFile, OID: 42, Name: "x"}})
	treeEntry := HashTree([]Entry{{Kind: KindTree, OID: 42, Name: "x"}})
	if fileEntry == treeEntry {
		t.Errorf("HashTree did not distinguish entry kind for the same name and OID")
	}
}

func TestHashFileAndHashTreeNeverCollideOnSharedPrefix(t *testing.T) {
	// A file whose content happens to look like a single tree line should
	// still hash differently from the tree object encoding that line,
	// because the tags differ.
	line := "file\t" + OID(1).String() + "\tx\n"
	fileOID := HashFileBytes([]byte(line))
	treeOID := HashTree([]Entry{{Kind: KindFile, OID: 1, Name: "x"}})
	if fileOID == treeOID {
		t.Errorf("file and tree hashes collided on a shared byte prefix")
	}
}

package mtlcore

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// EncodeTree serializes entries into the on-disk textual form: one line per
// entry, "<kind>\t<oid-16hex>\t<name>\n", sorted ascending by name.
func EncodeTree(entries []Entry) []byte {
	sorted := sortedEntries(entries)
	var buf bytes.Buffer
	for _, e := range sorted {
		buf.WriteString(e.Kind.String())
		buf.WriteByte('\t')
		buf.WriteString(e.OID.String())
		buf.WriteByte('\t')
		buf.WriteString(e.Name)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// DecodeTree parses a tree object's on-disk textual form back into entries.
// Kind is always supplied as the first token on each line, so a tree's
// bytes are unambiguous regardless of what a file's content might otherwise
// look like.
func DecodeTree(data []byte) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	// Tree lines are short (kind, OID, one path component); the default
	// bufio.Scanner token limit is already generous, but a name could in
	// principle be a long single path component, so grow the buffer.
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: malformed tree line %q", ErrCorrupt, line)
		}
		kind, err := ParseKind(parts[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		oid, err := ParseOID(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		entries = append(entries, Entry{Kind: kind, OID: oid, Name: parts[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanning tree: %v", ErrIO, err)
	}
	return entries, nil
}

// TreeReader decodes tree objects out of an ObjectStore and provides
// access by OID and pre-order traversal. Lookup by path is done by
// Resolver, not here.
type TreeReader struct {
	store *ObjectStore
}

// NewTreeReader returns a TreeReader backed by store.
func NewTreeReader(store *ObjectStore) *TreeReader {
	return &TreeReader{store: store}
}

// Read decodes the tree object identified by id.
func (r *TreeReader) Read(id OID) (*Tree, error) {
	data, err := r.store.Get(id)
	if err != nil {
		return nil, err
	}
	entries, err := DecodeTree(data)
	if err != nil {
		return nil, err
	}
	return &Tree{OID: id, Entries: entries}, nil
}

// TypeFilter selects which kinds Walk emits as leaves.
type TypeFilter int

const (
	// FilterBoth emits both file and tree entries.
	FilterBoth TypeFilter = iota
	// FilterFile emits only file entries, at any depth; apart from the root
	// entry, no tree entries are emitted.
	FilterFile
	// FilterTree emits only tree entries.
	FilterTree
)

// TreeWalkOptions configures TreeReader.Walk.
type TreeWalkOptions struct {
	// MaxDepth limits traversal depth; the root is depth 0. A nil value
	// means unlimited.
	MaxDepth *int
	// TypeFilter restricts which kinds are emitted below the root; the root
	// entry itself is always emitted, regardless of filter.
	TypeFilter TypeFilter
	// RootLabelOID overrides the OID reported for the synthetic root entry,
	// when non-nil.
	RootLabelOID *OID
}

// WalkEntry is one pre-order visit emitted by Walk.
type WalkEntry struct {
	Kind         Kind
	OID          OID
	RelativePath string
	Depth        int
}

// Walk visits the tree rooted at id in pre-order, yielding each entry to
// visit. The traversal stops and returns visit's error as soon as it
// returns a non-nil error.
func (r *TreeReader) Walk(id OID, opts TreeWalkOptions, visit func(WalkEntry) error) error {
	rootOID := id
	if opts.RootLabelOID != nil {
		rootOID = *opts.RootLabelOID
	}
	if err := visit(WalkEntry{Kind: KindTree, OID: rootOID, RelativePath: ".", Depth: 0}); err != nil {
		return err
	}
	return r.walkChildren(id, ".", 0, opts, visit)
}

func (r *TreeReader) walkChildren(id OID, prefix string, depth int, opts TreeWalkOptions, visit func(WalkEntry) error) error {
	if opts.MaxDepth != nil && depth >= *opts.MaxDepth {
		return nil
	}

	tree, err := r.Read(id)
	if err != nil {
		return err
	}

	for _, e := range sortedEntries(tree.Entries) {
		childPath := e.Name
		if prefix != "." {
			childPath = prefix + "/" + e.Name
		}

		emit := opts.TypeFilter == FilterBoth ||
			(opts.TypeFilter == FilterFile && e.Kind == KindFile) ||
			(opts.TypeFilter == FilterTree && e.Kind == KindTree)

		if emit {
			if err := visit(WalkEntry{Kind: e.Kind, OID: e.OID, RelativePath: childPath, Depth: depth + 1}); err != nil {
				return err
			}
		}

		if e.Kind == KindTree {
			if err := r.walkChildren(e.OID, childPath, depth+1, opts, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

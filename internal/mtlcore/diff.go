package mtlcore

import (
	"fmt"
	"sort"
	"strings"
)

const blankKindCol = "    " // 4 spaces, same width as "file"/"tree"

var blankOIDCol = strings.Repeat(" ", oidHexLen)

// DiffLine is one line of a tree-vs-tree structural diff: a missing side
// renders its kind column as 4 spaces and its OID column as 16 spaces.
type DiffLine struct {
	LeftKind     Kind
	LeftPresent  bool
	LeftOID      OID
	RightKind    Kind
	RightPresent bool
	RightOID     OID
	Path         string
}

// String renders the line in its tab-separated, fixed-column form:
// "<left-kind-or-blank>/<right-kind-or-blank>\t<left-oid-or-blank>/<right-oid-or-blank>\t<path>".
func (d DiffLine) String() string {
	leftKind, rightKind := blankKindCol, blankKindCol
	leftOID, rightOID := blankOIDCol, blankOIDCol
	if d.LeftPresent {
		leftKind, leftOID = d.LeftKind.String(), d.LeftOID.String()
	}
	if d.RightPresent {
		rightKind, rightOID = d.RightKind.String(), d.RightOID.String()
	}
	return fmt.Sprintf("%s/%s\t%s/%s\t%s", leftKind, rightKind, leftOID, rightOID, d.Path)
}

// Differ computes structural diffs between two trees read through a shared
// TreeReader.
type Differ struct {
	tree *TreeReader
}

// NewDiffer returns a Differ reading objects through tree.
func NewDiffer(tree *TreeReader) *Differ {
	return &Differ{tree: tree}
}

// Diff compares the objects identified by a and b and returns a sequence of
// diff lines in pre-order, byte-wise-by-name order within each level. Equal
// OIDs (including a == b at the root) short-circuit to no output without
// reading either object, since identical OIDs guarantee identical content
// by construction.
func (d *Differ) Diff(a, b OID) ([]DiffLine, error) {
	if a == b {
		return nil, nil
	}

	ta, aIsTree, err := d.tryReadTree(a)
	if err != nil {
		return nil, err
	}
	tb, bIsTree, err := d.tryReadTree(b)
	if err != nil {
		return nil, err
	}

	switch {
	case aIsTree && bIsTree:
		lines := []DiffLine{{LeftKind: KindTree, LeftPresent: true, LeftOID: a, RightKind: KindTree, RightPresent: true, RightOID: b, Path: "."}}
		children, err := d.diffTrees(ta, tb, ".")
		if err != nil {
			return nil, err
		}
		return append(lines, children...), nil
	case aIsTree && !bIsTree:
		return []DiffLine{
			{LeftKind: KindTree, LeftPresent: true, LeftOID: a, Path: "."},
			{RightKind: KindFile, RightPresent: true, RightOID: b, Path: "."},
		}, nil
	case !aIsTree && bIsTree:
		return []DiffLine{
			{LeftKind: KindFile, LeftPresent: true, LeftOID: a, Path: "."},
			{RightKind: KindTree, RightPresent: true, RightOID: b, Path: "."},
		}, nil
	default:
		return []DiffLine{
			{LeftKind: KindFile, LeftPresent: true, LeftOID: a, RightKind: KindFile, RightPresent: true, RightOID: b, Path: "."},
		}, nil
	}
}

// tryReadTree attempts to decode id as a tree. An object that fails to
// decode is treated as a file: mtl has no separate type tag on objects,
// so "is this a tree" is determined structurally, the same way a parent
// tree entry's Kind determines it during a normal walk.
func (d *Differ) tryReadTree(id OID) (*Tree, bool, error) {
	t, err := d.tree.Read(id)
	if err != nil {
		return nil, false, nil //nolint:nilerr // decode failure means "not a tree", not an error to propagate
	}
	return t, true, nil
}

// diffTrees compares two already-decoded trees entry by entry over the
// merged, sorted union of their child names.
func (d *Differ) diffTrees(ta, tb *Tree, path string) ([]DiffLine, error) {
	names := make(map[string]struct{}, len(ta.Entries)+len(tb.Entries))
	for _, e := range ta.Entries {
		names[e.Name] = struct{}{}
	}
	for _, e := range tb.Entries {
		names[e.Name] = struct{}{}
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	var lines []DiffLine
	for _, name := range sorted {
		ea, inA := ta.Find(name)
		eb, inB := tb.Find(name)

		childPath := name
		if path != "." {
			childPath = path + "/" + name
		}

		switch {
		case inA && !inB:
			lines = append(lines, DiffLine{LeftKind: ea.Kind, LeftPresent: true, LeftOID: ea.OID, Path: childPath})

		case !inA && inB:
			lines = append(lines, DiffLine{RightKind: eb.Kind, RightPresent: true, RightOID: eb.OID, Path: childPath})

		case ea.OID == eb.OID:
			// Structural sharing: identical child OID means identical subtree.

		case ea.Kind != eb.Kind:
			lines = append(lines,
				DiffLine{LeftKind: ea.Kind, LeftPresent: true, LeftOID: ea.OID, Path: childPath},
				DiffLine{RightKind: eb.Kind, RightPresent: true, RightOID: eb.OID, Path: childPath},
			)

		case ea.Kind == KindTree:
			lines = append(lines, DiffLine{LeftKind: KindTree, LeftPresent: true, LeftOID: ea.OID, RightKind: KindTree, RightPresent: true, RightOID: eb.OID, Path: childPath})
			subA, err := d.tree.Read(ea.OID)
			if err != nil {
				return nil, err
			}
			subB, err := d.tree.Read(eb.OID)
			if err != nil {
				return nil, err
			}
			children, err := d.diffTrees(subA, subB, childPath)
			if err != nil {
				return nil, err
			}
			lines = append(lines, children...)

		default:
			lines = append(lines, DiffLine{LeftKind: KindFile, LeftPresent: true, LeftOID: ea.OID, RightKind: KindFile, RightPresent: true, RightOID: eb.OID, Path: childPath})
		}
	}
	return lines, nil
}

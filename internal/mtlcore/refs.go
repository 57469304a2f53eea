package mtlcore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	bolt "go.etcd.io/bbolt"
)

// headName is the reserved name that never lives in the refs table; HEAD is
// always a plain-text file instead.
const headName = "HEAD"

// refsBucket is the single bbolt bucket holding name -> OID-hex mappings.
var refsBucket = []byte("refs")

// RefStore manages the named-pointer namespace backed by a single embedded
// KV file, plus HEAD as a plain-text sibling file.
type RefStore struct {
	dbPath   string
	headPath string
}

// NewRefStore returns a RefStore rooted at the given .mtl directory.
func NewRefStore(mtlDir string) *RefStore {
	return &RefStore{
		dbPath:   filepath.Join(mtlDir, "refs.redb"),
		headPath: filepath.Join(mtlDir, "HEAD"),
	}
}

// validateName rejects empty, reserved, or delimiter-containing ref names.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidRefName)
	}
	if name == headName {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidRefName, headName)
	}
	if strings.Contains(name, ":") {
		return fmt.Errorf("%w: %q contains ':'", ErrInvalidRefName, name)
	}
	return nil
}

// Save creates or overwrites the ref name to point at oid. The target's
// existence is never checked: refs are permitted to dangle, either because
// the target was never built or because it was later garbage collected.
func (s *RefStore) Save(name string, oid OID) error {
	if err := validateName(name); err != nil {
		return err
	}

	db, err := s.open(true)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // closed right after the single transaction below

	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(refsBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(name), []byte(oid.String()))
	})
	if err != nil {
		return fmt.Errorf("%w: saving ref %s: %v", ErrIO, name, err)
	}
	return nil
}

// Delete removes the named ref. Deleting a ref that does not exist is not
// an error.
func (s *RefStore) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	db, err := s.open(false)
	if err != nil {
		if isNotFoundErr(err) {
			return nil
		}
		return err
	}
	defer db.Close() //nolint:errcheck // closed right after the single transaction below

	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(refsBucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(name))
	})
	if err != nil {
		return fmt.Errorf("%w: deleting ref %s: %v", ErrIO, name, err)
	}
	return nil
}

// Get returns the OID that name points at, or ErrNotFound if it is absent.
func (s *RefStore) Get(name string) (OID, error) {
	if name == headName {
		return OID(0), fmt.Errorf("%w: %q is not stored as a ref; use Head()", ErrInvalidRefName, headName)
	}

	db, err := s.open(false)
	if err != nil {
		if isNotFoundErr(err) {
			return 0, fmt.Errorf("%w: ref %s", ErrNotFound, name)
		}
		return 0, err
	}
	defer db.Close() //nolint:errcheck // read-only open, nothing to flush

	var oid OID
	var found bool
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(refsBucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(name)); v != nil {
			parsed, perr := ParseOID(string(v))
			if perr != nil {
				return fmt.Errorf("%w: ref %s: %v", ErrCorrupt, name, perr)
			}
			oid, found = parsed, true
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: ref %s", ErrNotFound, name)
	}
	return oid, nil
}

// RefEntry is a single name -> OID pair, as returned by List.
type RefEntry struct {
	Name string
	OID  OID
}

// List returns every saved ref, sorted ascending by name.
func (s *RefStore) List() ([]RefEntry, error) {
	db, err := s.open(false)
	if err != nil {
		if isNotFoundErr(err) {
			return nil, nil
		}
		return nil, err
	}
	defer db.Close() //nolint:errcheck // read-only open, nothing to flush

	var entries []RefEntry
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(refsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			oid, perr := ParseOID(string(v))
			if perr != nil {
				return nil //nolint:nilerr // skip corrupt entries rather than aborting the listing
			}
			entries = append(entries, RefEntry{Name: string(k), OID: oid})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing refs: %v", ErrIO, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Head returns the current HEAD OID, or ErrNotFound if HEAD has never been
// written (e.g. a freshly initialized repository).
func (s *RefStore) Head() (OID, error) {
	data, err := os.ReadFile(s.headPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: HEAD", ErrNotFound)
		}
		return 0, fmt.Errorf("%w: reading HEAD: %v", ErrIO, err)
	}
	oid, err := ParseOID(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: HEAD: %v", ErrCorrupt, err)
	}
	return oid, nil
}

// SetHead atomically overwrites HEAD to point at oid.
func (s *RefStore) SetHead(oid OID) error {
	dir := filepath.Dir(s.headPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrIO, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "HEAD-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp HEAD: %v", ErrIO, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup once renamed away
	}()

	if _, err := fmt.Fprintln(tmp, oid.String()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: writing temp HEAD: %v", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing temp HEAD: %v", ErrIO, err)
	}
	if err := os.Rename(tmpPath, s.headPath); err != nil {
		return fmt.Errorf("%w: renaming temp HEAD: %v", ErrIO, err)
	}
	return nil
}

// open opens the refs bbolt file. When create is false and the file does
// not exist, it returns an ErrNotFound-wrapped error instead of creating an
// empty one.
func (s *RefStore) open(create bool) (*bolt.DB, error) {
	if !create {
		if _, err := os.Stat(s.dbPath); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, s.dbPath)
			}
			return nil, fmt.Errorf("%w: stat %s: %v", ErrIO, s.dbPath, err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(s.dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating %s: %v", ErrIO, filepath.Dir(s.dbPath), err)
		}
	}

	db, err := bolt.Open(s.dbPath, 0o644, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrIO, s.dbPath, err)
	}
	return db, nil
}

func isNotFoundErr(err error) bool {
	return err != nil && errors.Is(err, ErrNotFound)
}

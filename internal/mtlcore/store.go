package mtlcore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

// objectsBucket is the single bbolt bucket holding packed object payloads,
// keyed by the 16-hex OID string.
var objectsBucket = []byte("objects")

// ObjectStore is the two-tier content-addressed object backend: a loose
// directory of individually-written files, and at most one packed embedded
// KV file. Lookups check the packed tier first, then the loose tier; writes
// always go to the loose tier. An ObjectStore is safe for concurrent use:
// every write is content-addressed (so concurrent writers of the same OID
// produce bit-identical bytes) and the packed tier serializes its own
// writers via bbolt's single-writer transactions.
type ObjectStore struct {
	looseDir string
	packPath string
}

// NewObjectStore returns an ObjectStore rooted at the given .mtl directory.
// It does not create any files; directories are created lazily on first
// write, and the packed file is opened lazily on first access.
func NewObjectStore(mtlDir string) *ObjectStore {
	return &ObjectStore{
		looseDir: filepath.Join(mtlDir, "objects"),
		packPath: filepath.Join(mtlDir, "pack", "packed.redb"),
	}
}

// loosePath returns the on-disk path for OID's loose object file.
func (s *ObjectStore) loosePath(id OID) string {
	hex := id.String()
	return filepath.Join(s.looseDir, hex[:2], hex[2:])
}

// Put writes bytes under id to the loose tier. Put is idempotent: writing
// the same OID twice (necessarily with identical bytes, by construction of
// content addressing) is a no-op the second time.
func (s *ObjectStore) Put(id OID, data []byte) error {
	path := s.loosePath(id)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrIO, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file in %s: %v", ErrIO, dir, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup once renamed away
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: writing %s: %v", ErrIO, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrIO, tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: renaming %s to %s: %v", ErrIO, tmpPath, path, err)
	}
	return nil
}

// Get returns the raw bytes for id, checking the packed tier first, then
// the loose tier. It returns ErrNotFound if id is present in neither.
func (s *ObjectStore) Get(id OID) ([]byte, error) {
	if data, ok, err := s.getPacked(id); err != nil {
		return nil, err
	} else if ok {
		return data, nil
	}

	data, err := os.ReadFile(s.loosePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: object %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrIO, id, err)
	}
	return data, nil
}

// Has reports whether id exists in either tier.
func (s *ObjectStore) Has(id OID) bool {
	if _, ok, err := s.getPacked(id); err == nil && ok {
		return true
	}
	_, err := os.Stat(s.loosePath(id))
	return err == nil
}

// IterLoose returns every OID present in the loose tier.
func (s *ObjectStore) IterLoose() ([]OID, error) {
	var ids []OID
	shards, err := os.ReadDir(s.looseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrIO, s.looseDir, err)
	}

	for _, shard := range shards {
		if !shard.IsDir() || len(shard.Name()) != 2 {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(s.looseDir, shard.Name()))
		if err != nil {
			return nil, fmt.Errorf("%w: reading shard %s: %v", ErrIO, shard.Name(), err)
		}
		for _, e := range entries {
			if e.IsDir() || len(e.Name()) != oidHexLen-2 {
				continue
			}
			id, err := ParseOID(shard.Name() + e.Name())
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// IterPacked returns every OID present in the packed tier.
func (s *ObjectStore) IterPacked() ([]OID, error) {
	db, err := s.openPacked(false)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	defer db.Close() //nolint:errcheck // read-only open, nothing to flush

	var ids []OID
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(objectsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			id, err := ParseOID(string(k))
			if err != nil {
				return nil //nolint:nilerr // skip malformed keys rather than aborting the scan
			}
			ids = append(ids, id)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scanning packed objects: %v", ErrIO, err)
	}
	return ids, nil
}

// RemoveLoose deletes id's loose file, if present. Missing files are not an
// error, matching GC's best-effort deletion policy.
func (s *ObjectStore) RemoveLoose(id OID) error {
	err := os.Remove(s.loosePath(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: removing %s: %v", ErrIO, id, err)
	}
	return nil
}

// RemovePacked deletes id's entry from the packed table, if present.
func (s *ObjectStore) RemovePacked(id OID) error {
	db, err := s.openPacked(false)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	defer db.Close() //nolint:errcheck // closed right after the single transaction below

	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(objectsBucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(id.String()))
	})
	if err != nil {
		return fmt.Errorf("%w: removing packed %s: %v", ErrIO, id, err)
	}
	return nil
}

// PutPacked inserts id/data into the packed table, creating the packed file
// and its bucket if necessary. The insert is idempotent: an existing key is
// left untouched rather than overwritten, since content addressing
// guarantees the bytes would be identical anyway.
func (s *ObjectStore) PutPacked(id OID, data []byte) error {
	db, err := s.openPacked(true)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // closed right after the single transaction below

	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(objectsBucket)
		if err != nil {
			return err
		}
		key := []byte(id.String())
		if b.Get(key) != nil {
			return nil
		}
		return b.Put(key, data)
	})
	if err != nil {
		return fmt.Errorf("%w: packing %s: %v", ErrIO, id, err)
	}
	return nil
}

// getPacked looks up id in the packed tier. ok is false if the packed file
// does not exist yet, or exists but has no entry for id.
func (s *ObjectStore) getPacked(id OID) (data []byte, ok bool, err error) {
	db, err := s.openPacked(false)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer db.Close() //nolint:errcheck // read-only open, nothing to flush

	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(objectsBucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(id.String())); v != nil {
			data = append([]byte(nil), v...)
			ok = true
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: reading packed %s: %v", ErrIO, id, err)
	}
	return data, ok, nil
}

// openPacked opens the packed bbolt file. When create is false and the file
// does not exist, it returns ErrNotFound instead of creating an empty one,
// so read paths can treat "no pack yet" as "nothing packed" without ever
// materializing a pack/ directory as a side effect of a query.
func (s *ObjectStore) openPacked(create bool) (*bolt.DB, error) {
	if !create {
		if _, err := os.Stat(s.packPath); err != nil {
			if os.IsNotExist(err) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("%w: stat %s: %v", ErrIO, s.packPath, err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(s.packPath), 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating %s: %v", ErrIO, filepath.Dir(s.packPath), err)
		}
	}

	db, err := bolt.Open(s.packPath, 0o644, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrIO, s.packPath, err)
	}
	return db, nil
}

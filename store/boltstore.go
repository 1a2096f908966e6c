package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/cloudsealorg/libcloudseal-go/ledger"
)

var (
	bucketUsers           = []byte("users")
	bucketUserNames       = []byte("user_names")
	bucketFiles           = []byte("files")
	bucketFileOwners      = []byte("file_owners")
	bucketShares          = []byte("shares")
	bucketShareRecipients = []byte("share_recipients")
	bucketBlocks          = []byte("blocks")
)

// BoltStore wraps a bbolt database holding vault records and the block
// chain. bbolt takes an exclusive file lock, so one process owns the
// database at a time; cross-process coordination happens through
// FileLocker instead.
type BoltStore struct {
	db *bbolt.DB
}

// Open opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func Open(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{
			bucketUsers, bucketUserNames,
			bucketFiles, bucketFileOwners,
			bucketShares, bucketShareRecipients,
			bucketBlocks,
		} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Users returns a UserStore backed by this database.
func (s *BoltStore) Users() *BoltUserStore { return &BoltUserStore{db: s.db} }

// Files returns a FileStore backed by this database.
func (s *BoltStore) Files() *BoltFileStore { return &BoltFileStore{db: s.db} }

// Shares returns a ShareStore backed by this database.
func (s *BoltStore) Shares() *BoltShareStore { return &BoltShareStore{db: s.db} }

// Blocks returns a ledger.BlockStore backed by this database.
func (s *BoltStore) Blocks() *BoltBlockStore { return &BoltBlockStore{db: s.db} }

// blockKey encodes a block index as an 8-byte big-endian key for sorted
// storage.
func blockKey(index uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, index)
	return k
}

// compositeKey concatenates two fixed-length IDs for prefix scanning.
func compositeKey(prefix, suffix string) []byte {
	k := make([]byte, 0, len(prefix)+len(suffix))
	k = append(k, prefix...)
	k = append(k, suffix...)
	return k
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// ---------------------------------------------------------------------------
// BoltUserStore implements UserStore.
// ---------------------------------------------------------------------------

// BoltUserStore persists users in bbolt.
type BoltUserStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ UserStore = (*BoltUserStore)(nil)

// PutUser stores a new user. IDs and names are both unique.
func (s *BoltUserStore) PutUser(u *User) error {
	if u == nil || u.ID == "" || u.Name == "" {
		return ErrNilParam
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		ub := tx.Bucket(bucketUsers)
		nb := tx.Bucket(bucketUserNames)
		if ub.Get([]byte(u.ID)) != nil || nb.Get([]byte(u.Name)) != nil {
			return ErrUserExists
		}

		data, err := encodeGob(u)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		if err := ub.Put([]byte(u.ID), data); err != nil {
			return fmt.Errorf("boltstore: put user: %w", err)
		}
		if err := nb.Put([]byte(u.Name), []byte(u.ID)); err != nil {
			return fmt.Errorf("boltstore: put user name index: %w", err)
		}
		return nil
	})
}

// GetUser retrieves a user by ID.
func (s *BoltUserStore) GetUser(id string) (*User, error) {
	var u User
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketUsers).Get([]byte(id))
		if data == nil {
			return ErrUserNotFound
		}
		if err := decodeGob(data, &u); err != nil {
			return fmt.Errorf("boltstore: decode user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByName retrieves a user by unique name.
func (s *BoltUserStore) GetUserByName(name string) (*User, error) {
	var u User
	err := s.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketUserNames).Get([]byte(name))
		if id == nil {
			return ErrUserNotFound
		}
		data := tx.Bucket(bucketUsers).Get(id)
		if data == nil {
			return ErrUserNotFound
		}
		if err := decodeGob(data, &u); err != nil {
			return fmt.Errorf("boltstore: decode user by name: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users ordered by name. The name index iterates
// in key order, so no extra sort is needed.
func (s *BoltUserStore) ListUsers() ([]*User, error) {
	var users []*User
	err := s.db.View(func(tx *bbolt.Tx) error {
		ub := tx.Bucket(bucketUsers)
		return tx.Bucket(bucketUserNames).ForEach(func(_, id []byte) error {
			data := ub.Get(id)
			if data == nil {
				return nil // stale index entry
			}
			var u User
			if err := decodeGob(data, &u); err != nil {
				return fmt.Errorf("boltstore: decode user in list: %w", err)
			}
			users = append(users, &u)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: list users: %w", err)
	}
	return users, nil
}

// ---------------------------------------------------------------------------
// BoltFileStore implements FileStore.
// ---------------------------------------------------------------------------

// BoltFileStore persists file records in bbolt.
type BoltFileStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ FileStore = (*BoltFileStore)(nil)

// PutFile stores a file record and indexes it by owner.
func (s *BoltFileStore) PutFile(f *File) error {
	if f == nil || f.ID == "" {
		return ErrNilParam
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := encodeGob(f)
		if err != nil {
			return fmt.Errorf("encode file: %w", err)
		}
		if err := tx.Bucket(bucketFiles).Put([]byte(f.ID), data); err != nil {
			return fmt.Errorf("boltstore: put file: %w", err)
		}
		if f.OwnerID != "" {
			// Composite key: ownerID + fileID for prefix scanning.
			if err := tx.Bucket(bucketFileOwners).Put(compositeKey(f.OwnerID, f.ID), []byte{}); err != nil {
				return fmt.Errorf("boltstore: put file owner index: %w", err)
			}
		}
		return nil
	})
}

// GetFile retrieves a file record by ID.
func (s *BoltFileStore) GetFile(id string) (*File, error) {
	var f File
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketFiles).Get([]byte(id))
		if data == nil {
			return ErrFileNotFound
		}
		if err := decodeGob(data, &f); err != nil {
			return fmt.Errorf("boltstore: decode file: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFilesByOwner returns all files owned by the given user.
func (s *BoltFileStore) ListFilesByOwner(ownerID string) ([]*File, error) {
	if ownerID == "" {
		return nil, ErrNilParam
	}

	var files []*File
	err := s.db.View(func(tx *bbolt.Tx) error {
		fb := tx.Bucket(bucketFiles)
		prefix := []byte(ownerID)

		c := tx.Bucket(bucketFileOwners).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			fileID := k[len(prefix):]
			data := fb.Get(fileID)
			if data == nil {
				continue // stale index entry
			}
			var f File
			if err := decodeGob(data, &f); err != nil {
				return fmt.Errorf("boltstore: decode file by owner: %w", err)
			}
			files = append(files, &f)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: list files by owner: %w", err)
	}
	return files, nil
}

// DeleteFile removes a file record and its owner index entry.
func (s *BoltFileStore) DeleteFile(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		fb := tx.Bucket(bucketFiles)
		data := fb.Get([]byte(id))
		if data == nil {
			return ErrFileNotFound
		}
		var f File
		if err := decodeGob(data, &f); err != nil {
			return fmt.Errorf("boltstore: decode file for delete: %w", err)
		}

		if err := fb.Delete([]byte(id)); err != nil {
			return fmt.Errorf("boltstore: delete file: %w", err)
		}
		if f.OwnerID != "" {
			if err := tx.Bucket(bucketFileOwners).Delete(compositeKey(f.OwnerID, f.ID)); err != nil {
				return fmt.Errorf("boltstore: delete file owner index: %w", err)
			}
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// BoltShareStore implements ShareStore.
// ---------------------------------------------------------------------------

// BoltShareStore persists share grants in bbolt.
type BoltShareStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ ShareStore = (*BoltShareStore)(nil)

// PutShare stores a new grant and indexes it by recipient.
func (s *BoltShareStore) PutShare(sh *Share) error {
	if sh == nil || sh.FileID == "" || sh.RecipientID == "" {
		return ErrNilParam
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		sb := tx.Bucket(bucketShares)
		// Composite key: fileID + recipientID for per-file prefix scanning.
		key := compositeKey(sh.FileID, sh.RecipientID)
		if sb.Get(key) != nil {
			return ErrShareExists
		}

		data, err := encodeGob(sh)
		if err != nil {
			return fmt.Errorf("encode share: %w", err)
		}
		if err := sb.Put(key, data); err != nil {
			return fmt.Errorf("boltstore: put share: %w", err)
		}
		if err := tx.Bucket(bucketShareRecipients).Put(compositeKey(sh.RecipientID, sh.FileID), []byte{}); err != nil {
			return fmt.Errorf("boltstore: put share recipient index: %w", err)
		}
		return nil
	})
}

// GetShare retrieves the grant for one file and recipient.
func (s *BoltShareStore) GetShare(fileID, recipientID string) (*Share, error) {
	if fileID == "" || recipientID == "" {
		return nil, ErrNilParam
	}

	var sh Share
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketShares).Get(compositeKey(fileID, recipientID))
		if data == nil {
			return ErrShareNotFound
		}
		if err := decodeGob(data, &sh); err != nil {
			return fmt.Errorf("boltstore: decode share: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// ListSharesByFile returns all grants on a file.
func (s *BoltShareStore) ListSharesByFile(fileID string) ([]*Share, error) {
	if fileID == "" {
		return nil, ErrNilParam
	}
	return s.scanShares(bucketShares, fileID, false)
}

// ListSharesByRecipient returns all grants held by a recipient.
func (s *BoltShareStore) ListSharesByRecipient(recipientID string) ([]*Share, error) {
	if recipientID == "" {
		return nil, ErrNilParam
	}
	return s.scanShares(bucketShareRecipients, recipientID, true)
}

// scanShares prefix-scans a bucket of composite keys. When indirect, the
// bucket holds index entries whose suffix keys back into the shares
// bucket; otherwise values are the grants themselves.
func (s *BoltShareStore) scanShares(bucket []byte, prefix string, indirect bool) ([]*Share, error) {
	var shares []*Share
	err := s.db.View(func(tx *bbolt.Tx) error {
		sb := tx.Bucket(bucketShares)
		p := []byte(prefix)

		c := tx.Bucket(bucket).Cursor()
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			if indirect {
				fileID := k[len(p):]
				v = sb.Get(compositeKey(string(fileID), prefix))
				if v == nil {
					continue // stale index entry
				}
			}
			var sh Share
			if err := decodeGob(v, &sh); err != nil {
				return fmt.Errorf("boltstore: decode share in scan: %w", err)
			}
			shares = append(shares, &sh)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: list shares: %w", err)
	}
	return shares, nil
}

// ---------------------------------------------------------------------------
// BoltBlockStore implements ledger.BlockStore.
// ---------------------------------------------------------------------------

// BoltBlockStore persists chain blocks in bbolt, keyed by big-endian
// index so cursor order is chain order. Blocks are stored in their
// canonical JSON form.
type BoltBlockStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ ledger.BlockStore = (*BoltBlockStore)(nil)

// PutBlock stores a block at its unique index. Re-putting identical
// content succeeds; divergent content at an occupied index is
// ledger.ErrIndexConflict.
func (s *BoltBlockStore) PutBlock(b *ledger.Block) error {
	if b == nil {
		return ErrNilParam
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bb := tx.Bucket(bucketBlocks)
		key := blockKey(b.Index)

		if existing := bb.Get(key); existing != nil {
			var stored ledger.Block
			if err := json.Unmarshal(existing, &stored); err != nil {
				return fmt.Errorf("boltstore: decode stored block: %w", err)
			}
			if stored.Hash == b.Hash {
				return nil
			}
			return ledger.ErrIndexConflict
		}

		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode block: %w", err)
		}
		if err := bb.Put(key, data); err != nil {
			return fmt.Errorf("boltstore: put block: %w", err)
		}
		return nil
	})
	return wrapBackendErr(err)
}

// ListBlocks returns all blocks ordered by index.
func (s *BoltBlockStore) ListBlocks() ([]*ledger.Block, error) {
	var blocks []*ledger.Block
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBlocks).ForEach(func(_, v []byte) error {
			var b ledger.Block
			if err := json.Unmarshal(v, &b); err != nil {
				return fmt.Errorf("boltstore: decode block in list: %w", err)
			}
			blocks = append(blocks, &b)
			return nil
		})
	})
	if err := wrapBackendErr(err); err != nil {
		return nil, err
	}
	return blocks, nil
}

// ClearBlocks removes every stored block.
func (s *BoltBlockStore) ClearBlocks() error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketBlocks); err != nil {
			return fmt.Errorf("boltstore: drop blocks bucket: %w", err)
		}
		if _, err := tx.CreateBucket(bucketBlocks); err != nil {
			return fmt.Errorf("boltstore: recreate blocks bucket: %w", err)
		}
		return nil
	})
	return wrapBackendErr(err)
}

// wrapBackendErr marks block-store failures as backend unavailability,
// letting conflict sentinels pass through untouched.
func wrapBackendErr(err error) error {
	if err == nil || errors.Is(err, ledger.ErrIndexConflict) {
		return err
	}
	return fmt.Errorf("%w: %w", ledger.ErrBackendUnavailable, err)
}

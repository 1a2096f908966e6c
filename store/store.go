// Package store persists vault records and ledger blocks.
//
// Three record kinds exist alongside the block chain: users (key pairs),
// files (metadata pointing at blob content and a ledger block), and
// shares (a wrapped key granting one recipient access to one file). All
// stores come in two flavors: bbolt-backed for production and in-memory
// for testing.
package store

import (
	"sort"
	"sync"
	"time"
)

// User is an identity with an encryption key pair. The private key is
// held by the vault on the user's behalf.
type User struct {
	ID            string
	Name          string
	PublicKeyPEM  string
	PrivateKeyPEM string
	CreatedAt     time.Time
}

// File describes one stored file: who owns it, where its encrypted bytes
// live, and which ledger block carries its key record.
type File struct {
	ID         string
	OwnerID    string
	Filename   string
	BlobKey    string
	Size       int64
	IV         string
	BlockIndex uint64
	CreatedAt  time.Time
}

// Share grants one recipient access to one file via a key wrapped to the
// recipient's public key. A (FileID, RecipientID) pair is unique.
type Share struct {
	FileID      string
	OwnerID     string
	RecipientID string
	WrappedKey  string
	BlockIndex  uint64
	CreatedAt   time.Time
}

// UserStore persists users. Names are unique alongside IDs.
type UserStore interface {
	// PutUser stores a new user. Returns ErrUserExists when the ID or
	// name is already taken.
	PutUser(u *User) error

	// GetUser retrieves a user by ID.
	GetUser(id string) (*User, error)

	// GetUserByName retrieves a user by unique name.
	GetUserByName(name string) (*User, error)

	// ListUsers returns all users ordered by name.
	ListUsers() ([]*User, error)
}

// FileStore persists file records.
type FileStore interface {
	// PutFile stores a file record keyed by its ID.
	PutFile(f *File) error

	// GetFile retrieves a file record by ID.
	GetFile(id string) (*File, error)

	// ListFilesByOwner returns all files owned by the given user.
	ListFilesByOwner(ownerID string) ([]*File, error)

	// DeleteFile removes a file record (for cleanup/export tooling).
	DeleteFile(id string) error
}

// ShareStore persists share grants.
type ShareStore interface {
	// PutShare stores a new grant. Returns ErrShareExists when the file
	// is already shared with the recipient.
	PutShare(s *Share) error

	// GetShare retrieves the grant for one file and recipient.
	GetShare(fileID, recipientID string) (*Share, error)

	// ListSharesByFile returns all grants on a file.
	ListSharesByFile(fileID string) ([]*Share, error)

	// ListSharesByRecipient returns all grants held by a recipient.
	ListSharesByRecipient(recipientID string) ([]*Share, error)
}

// MemUserStore is an in-memory implementation of UserStore for testing.
type MemUserStore struct {
	mu     sync.RWMutex
	byID   map[string]*User
	byName map[string]*User
}

// NewMemUserStore creates a new in-memory user store.
func NewMemUserStore() *MemUserStore {
	return &MemUserStore{
		byID:   make(map[string]*User),
		byName: make(map[string]*User),
	}
}

// PutUser stores a new user.
func (s *MemUserStore) PutUser(u *User) error {
	if u == nil || u.ID == "" || u.Name == "" {
		return ErrNilParam
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[u.ID]; exists {
		return ErrUserExists
	}
	if _, exists := s.byName[u.Name]; exists {
		return ErrUserExists
	}
	s.byID[u.ID] = u
	s.byName[u.Name] = u
	return nil
}

// GetUser retrieves a user by ID.
func (s *MemUserStore) GetUser(id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// GetUserByName retrieves a user by unique name.
func (s *MemUserStore) GetUserByName(name string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byName[name]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// ListUsers returns all users ordered by name.
func (s *MemUserStore) ListUsers() ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*User, 0, len(s.byID))
	for _, u := range s.byID {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

// MemFileStore is an in-memory implementation of FileStore for testing.
type MemFileStore struct {
	mu   sync.RWMutex
	byID map[string]*File
}

// NewMemFileStore creates a new in-memory file store.
func NewMemFileStore() *MemFileStore {
	return &MemFileStore{byID: make(map[string]*File)}
}

// PutFile stores a file record keyed by its ID.
func (s *MemFileStore) PutFile(f *File) error {
	if f == nil || f.ID == "" {
		return ErrNilParam
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[f.ID] = f
	return nil
}

// GetFile retrieves a file record by ID.
func (s *MemFileStore) GetFile(id string) (*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.byID[id]
	if !ok {
		return nil, ErrFileNotFound
	}
	return f, nil
}

// ListFilesByOwner returns all files owned by the given user.
func (s *MemFileStore) ListFilesByOwner(ownerID string) ([]*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var files []*File
	for _, f := range s.byID {
		if f.OwnerID == ownerID {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })
	return files, nil
}

// DeleteFile removes a file record.
func (s *MemFileStore) DeleteFile(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return ErrFileNotFound
	}
	delete(s.byID, id)
	return nil
}

// MemShareStore is an in-memory implementation of ShareStore for testing.
type MemShareStore struct {
	mu     sync.RWMutex
	grants map[string]*Share // keyed by FileID + RecipientID
}

// NewMemShareStore creates a new in-memory share store.
func NewMemShareStore() *MemShareStore {
	return &MemShareStore{grants: make(map[string]*Share)}
}

func grantKey(fileID, recipientID string) string {
	return fileID + "/" + recipientID
}

// PutShare stores a new grant.
func (s *MemShareStore) PutShare(sh *Share) error {
	if sh == nil || sh.FileID == "" || sh.RecipientID == "" {
		return ErrNilParam
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := grantKey(sh.FileID, sh.RecipientID)
	if _, exists := s.grants[key]; exists {
		return ErrShareExists
	}
	s.grants[key] = sh
	return nil
}

// GetShare retrieves the grant for one file and recipient.
func (s *MemShareStore) GetShare(fileID, recipientID string) (*Share, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, ok := s.grants[grantKey(fileID, recipientID)]
	if !ok {
		return nil, ErrShareNotFound
	}
	return sh, nil
}

// ListSharesByFile returns all grants on a file.
func (s *MemShareStore) ListSharesByFile(fileID string) ([]*Share, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var shares []*Share
	for _, sh := range s.grants {
		if sh.FileID == fileID {
			shares = append(shares, sh)
		}
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].RecipientID < shares[j].RecipientID })
	return shares, nil
}

// ListSharesByRecipient returns all grants held by a recipient.
func (s *MemShareStore) ListSharesByRecipient(recipientID string) ([]*Share, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var shares []*Share
	for _, sh := range s.grants {
		if sh.RecipientID == recipientID {
			shares = append(shares, sh)
		}
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].FileID < shares[j].FileID })
	return shares, nil
}

// Compile-time interface checks.
var (
	_ UserStore  = (*MemUserStore)(nil)
	_ FileStore  = (*MemFileStore)(nil)
	_ ShareStore = (*MemShareStore)(nil)
)

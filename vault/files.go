package vault

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cloudsealorg/libcloudseal-go/envelope"
	"github.com/cloudsealorg/libcloudseal-go/filecrypt"
	"github.com/cloudsealorg/libcloudseal-go/ledger"
	"github.com/cloudsealorg/libcloudseal-go/store"
)

// UploadOpts are the inputs of Vault.Upload.
type UploadOpts struct {
	// OwnerID identifies the uploading user.
	OwnerID string

	// Filename is the display name recorded for the file. It is metadata
	// only; storage locations come from generated keys.
	Filename string

	// Content is the plaintext to protect.
	Content []byte
}

// Upload encrypts content under a fresh AES-256 key, stores the
// ciphertext in the blob store, records the key on the ledger wrapped to
// the owner's public key, and persists the file record. Plaintext is
// never written anywhere.
//
// When a later step fails the stored blob is removed again, so a failed
// upload leaves no ciphertext behind.
func (v *Vault) Upload(opts *UploadOpts) (*store.File, error) {
	if opts == nil {
		return nil, store.ErrNilParam
	}

	// 1. The owner must exist; its public key seals the content key.
	owner, err := v.Users.GetUser(opts.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("vault: upload: %w", err)
	}

	// 2. Encrypt under a fresh content key.
	key, err := filecrypt.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("vault: upload: %w", err)
	}
	sealed, err := filecrypt.Encrypt(opts.Content, key)
	if err != nil {
		return nil, fmt.Errorf("vault: encrypt %q: %w", opts.Filename, err)
	}

	// 3. Store the ciphertext.
	fileID := uuid.NewString()
	blobKey := uuid.NewString()
	if err := v.Blobs.Put(blobKey, sealed.Ciphertext); err != nil {
		return nil, fmt.Errorf("vault: store ciphertext: %w", err)
	}

	// 4. Wrap the content key to the owner and record it on the chain.
	wrapped, err := envelope.Wrap(key, owner.PublicKeyPEM)
	if err != nil {
		v.discardBlob(blobKey)
		return nil, fmt.Errorf("vault: wrap content key: %w", err)
	}
	block, err := v.Ledger.Append(ledger.KeyRecord{
		OwnerID:  owner.ID,
		Filename: opts.Filename,
		Key:      wrapped,
		Aux:      fileID,
	})
	if err != nil {
		v.discardBlob(blobKey)
		return nil, fmt.Errorf("vault: record content key: %w", err)
	}

	// 5. Persist the file record pointing at the blob and the block.
	f := &store.File{
		ID:         fileID,
		OwnerID:    owner.ID,
		Filename:   opts.Filename,
		BlobKey:    blobKey,
		Size:       int64(len(opts.Content)),
		IV:         base64.StdEncoding.EncodeToString(sealed.IV),
		BlockIndex: block.Index,
		CreatedAt:  time.Now().UTC(),
	}
	if err := v.Files.PutFile(f); err != nil {
		v.discardBlob(blobKey)
		return nil, fmt.Errorf("vault: persist file record: %w", err)
	}

	return f, nil
}

// discardBlob is the compensation step of a failed upload. Best effort:
// once the upload errors out the key is unreachable either way.
func (v *Vault) discardBlob(key string) {
	_ = v.Blobs.Delete(key)
}

// Download returns the decrypted content of a file for an authorized
// user. The owner's key comes from the upload record on the ledger;
// everyone else needs a grant. Users with neither fail with
// ErrAccessDenied.
func (v *Vault) Download(fileID, userID string) ([]byte, *store.File, error) {
	// 1. Load the file and the requesting user.
	f, err := v.Files.GetFile(fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("vault: download: %w", err)
	}
	user, err := v.Users.GetUser(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("vault: download: %w", err)
	}

	// 2. Recover the content key for this user.
	key, err := v.contentKey(f, user)
	if err != nil {
		return nil, nil, err
	}

	// 3. Fetch and decrypt the ciphertext.
	ciphertext, err := v.Blobs.Get(f.BlobKey)
	if err != nil {
		return nil, nil, fmt.Errorf("vault: fetch ciphertext: %w", err)
	}
	iv, err := base64.StdEncoding.DecodeString(f.IV)
	if err != nil {
		return nil, nil, fmt.Errorf("vault: decode iv of %q: %w", f.Filename, err)
	}
	plain, err := filecrypt.Decrypt(ciphertext, key, iv)
	if err != nil {
		return nil, nil, fmt.Errorf("vault: decrypt %q: %w", f.Filename, err)
	}

	return plain, f, nil
}

// contentKey recovers the file's AES key for one user: owners unwrap the
// upload record, recipients unwrap their grant. Anyone else is denied.
func (v *Vault) contentKey(f *store.File, user *store.User) ([]byte, error) {
	var wrapped string
	if user.ID == f.OwnerID {
		block, err := v.Ledger.ByIndex(f.BlockIndex)
		if err != nil {
			return nil, fmt.Errorf("vault: load key record: %w", err)
		}
		record, ok := block.Payload.(ledger.KeyRecord)
		if !ok {
			return nil, fmt.Errorf("vault: block %d does not carry a key record", f.BlockIndex)
		}
		wrapped = record.Key
	} else {
		grant, err := v.Shares.GetShare(f.ID, user.ID)
		if err != nil {
			if errors.Is(err, store.ErrShareNotFound) {
				return nil, fmt.Errorf("%w: no grant for user %s on file %s", ErrAccessDenied, user.ID, f.ID)
			}
			return nil, fmt.Errorf("vault: load grant: %w", err)
		}
		wrapped = grant.WrappedKey
	}

	key, err := envelope.Unwrap(wrapped, user.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("vault: unwrap content key: %w", err)
	}
	return key, nil
}

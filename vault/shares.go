package vault

import (
	"errors"
	"fmt"
	"time"

	"github.com/cloudsealorg/libcloudseal-go/envelope"
	"github.com/cloudsealorg/libcloudseal-go/ledger"
	"github.com/cloudsealorg/libcloudseal-go/store"
)

// Share grants a recipient access to a file. Only the owner may grant:
// the owner unwraps the content key from its upload record and re-wraps
// it to the recipient's public key, so the recipient decrypts with its
// own private key and the raw key never persists anywhere.
//
// Granting twice fails with store.ErrShareExists before anything is
// written.
func (v *Vault) Share(fileID, ownerID, recipientID string) (*store.Share, error) {
	// 1. Load the file and verify ownership.
	f, err := v.Files.GetFile(fileID)
	if err != nil {
		return nil, fmt.Errorf("vault: share: %w", err)
	}
	if f.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: user %s does not own file %s", ErrAccessDenied, ownerID, fileID)
	}
	if recipientID == ownerID {
		return nil, ErrSelfShare
	}

	// 2. Refuse duplicate grants before touching the ledger.
	if _, err := v.Shares.GetShare(fileID, recipientID); err == nil {
		return nil, fmt.Errorf("vault: share: %w", store.ErrShareExists)
	} else if !errors.Is(err, store.ErrShareNotFound) {
		return nil, fmt.Errorf("vault: share: %w", err)
	}

	// 3. The owner recovers the content key from its upload record.
	owner, err := v.Users.GetUser(ownerID)
	if err != nil {
		return nil, fmt.Errorf("vault: share: %w", err)
	}
	key, err := v.contentKey(f, owner)
	if err != nil {
		return nil, err
	}

	// 4. Re-wrap the key to the recipient.
	recipient, err := v.Users.GetUser(recipientID)
	if err != nil {
		return nil, fmt.Errorf("vault: share: %w", err)
	}
	wrapped, err := envelope.Wrap(key, recipient.PublicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("vault: wrap key for recipient: %w", err)
	}

	// 5. Record the grant on the chain, then persist it.
	block, err := v.Ledger.Append(ledger.ShareRecord{
		FileID:      f.ID,
		OwnerID:     owner.ID,
		RecipientID: recipient.ID,
		WrappedKey:  wrapped,
		Filename:    f.Filename,
	})
	if err != nil {
		return nil, fmt.Errorf("vault: record grant: %w", err)
	}
	grant := &store.Share{
		FileID:      f.ID,
		OwnerID:     owner.ID,
		RecipientID: recipient.ID,
		WrappedKey:  wrapped,
		BlockIndex:  block.Index,
		CreatedAt:   time.Now().UTC(),
	}
	if err := v.Shares.PutShare(grant); err != nil {
		return nil, fmt.Errorf("vault: persist grant: %w", err)
	}

	return grant, nil
}

package vault

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cloudsealorg/libcloudseal-go/envelope"
	"github.com/cloudsealorg/libcloudseal-go/store"
)

// CreateUser registers a user under the given name and equips it with a
// fresh P-256 keypair. Names are unique; registering a taken name fails
// with store.ErrUserExists.
func (v *Vault) CreateUser(name string) (*store.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}

	// 1. Generate the long-term identity keypair.
	pair, err := envelope.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("vault: create user: %w", err)
	}

	// 2. Persist the record. The store enforces name uniqueness.
	u := &store.User{
		ID:            uuid.NewString(),
		Name:          name,
		PublicKeyPEM:  pair.PublicPEM,
		PrivateKeyPEM: pair.PrivatePEM,
		CreatedAt:     time.Now().UTC(),
	}
	if err := v.Users.PutUser(u); err != nil {
		return nil, fmt.Errorf("vault: create user %q: %w", name, err)
	}

	return u, nil
}

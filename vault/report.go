package vault

import (
	"errors"
	"fmt"

	"github.com/cloudsealorg/libcloudseal-go/ledger"
)

// ChainInfo is a point-in-time summary of the ledger.
type ChainInfo struct {
	Length      int
	LatestIndex uint64
	LatestHash  string

	// Valid reports whether the chain passed validation; Tamper carries
	// the first offending block when it did not.
	Valid  bool
	Tamper *ledger.TamperError
}

// ChainInfo validates the ledger and summarizes its state. A tampered
// chain is a normal outcome here, reported through the Tamper field;
// only backend failures surface as errors.
func (v *Vault) ChainInfo() (*ChainInfo, error) {
	info := &ChainInfo{Length: v.Ledger.Len()}

	tail, err := v.Ledger.Latest()
	switch {
	case err == nil:
		info.LatestIndex = tail.Index
		info.LatestHash = tail.Hash
	case errors.Is(err, ledger.ErrEmptyLedger):
		// An empty chain is trivially valid and has no tail.
		info.Valid = true
		return info, nil
	default:
		return nil, fmt.Errorf("vault: chain info: %w", err)
	}

	if err := v.Ledger.Validate(); err != nil {
		var tamper *ledger.TamperError
		if errors.As(err, &tamper) {
			info.Tamper = tamper
			return info, nil
		}
		return nil, fmt.Errorf("vault: chain info: %w", err)
	}
	info.Valid = true

	return info, nil
}

// Health is the result of probing each collaborator once.
type Health struct {
	Records bool // record store answers queries
	Blobs   bool // blob store answers probes
	Chain   bool // ledger validates end to end
}

// Ok reports whether every probe passed.
func (h *Health) Ok() bool { return h.Records && h.Blobs && h.Chain }

// Health probes the record store, the blob store and the ledger. It
// never returns an error; a failed probe shows up as a false field.
func (v *Vault) Health() *Health {
	h := &Health{}
	if _, err := v.Users.ListUsers(); err == nil {
		h.Records = true
	}
	if _, err := v.Blobs.Has("health-probe"); err == nil {
		h.Blobs = true
	}
	if err := v.Ledger.Validate(); err == nil {
		h.Chain = true
	}
	return h
}

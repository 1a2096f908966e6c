package ledger

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the block payload variants. It is serialized as the
// leading "kind" field of a block's data object.
type Kind string

const (
	KindGenesis     Kind = "genesis"
	KindKeyRecord   Kind = "key_record"
	KindShareRecord Kind = "share_record"
)

// Payload is the closed set of block contents: Genesis, KeyRecord or
// ShareRecord, always as VALUE types. The serialization boundary matches
// exhaustively; anything else fails with ErrUnknownPayloadKind.
type Payload interface {
	Kind() Kind
}

// Genesis is the payload of block 0.
type Genesis struct {
	// Note is a free-form marker recorded when the chain was created.
	Note string
}

func (Genesis) Kind() Kind { return KindGenesis }

// KeyRecord records the symmetric key of an uploaded file for its owner.
type KeyRecord struct {
	OwnerID  string
	Filename string

	// Key is the base64 symmetric key, raw for an owner record or wrapped
	// for a recipient.
	Key string

	// Aux carries optional free-form context (the original records stored
	// an upload timestamp here).
	Aux string
}

func (KeyRecord) Kind() Kind { return KindKeyRecord }

// ShareRecord records a grant: the file's key wrapped for a recipient.
type ShareRecord struct {
	FileID      string
	OwnerID     string
	RecipientID string

	// WrappedKey is the envelope package text produced for the recipient.
	WrappedKey string

	Filename string
}

func (ShareRecord) Kind() Kind { return KindShareRecord }

// payloadWire is the single flat wire shape for every payload variant.
// Field order is fixed by this declaration and is part of the canonical
// encoding the block hash covers; do not reorder.
type payloadWire struct {
	Kind        Kind   `json:"kind"`
	Note        string `json:"note,omitempty"`
	OwnerID     string `json:"owner_id,omitempty"`
	Filename    string `json:"filename,omitempty"`
	Key         string `json:"key,omitempty"`
	Aux         string `json:"aux,omitempty"`
	FileID      string `json:"file_id,omitempty"`
	RecipientID string `json:"recipient_id,omitempty"`
	WrappedKey  string `json:"wrapped_key,omitempty"`
}

// marshalPayload encodes a payload variant into its canonical JSON object.
func marshalPayload(p Payload) (json.RawMessage, error) {
	var wire payloadWire
	switch v := p.(type) {
	case Genesis:
		wire = payloadWire{Kind: KindGenesis, Note: v.Note}
	case KeyRecord:
		wire = payloadWire{
			Kind:     KindKeyRecord,
			OwnerID:  v.OwnerID,
			Filename: v.Filename,
			Key:      v.Key,
			Aux:      v.Aux,
		}
	case ShareRecord:
		wire = payloadWire{
			Kind:        KindShareRecord,
			OwnerID:     v.OwnerID,
			Filename:    v.Filename,
			FileID:      v.FileID,
			RecipientID: v.RecipientID,
			WrappedKey:  v.WrappedKey,
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownPayloadKind, p)
	}

	raw, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("ledger: marshal payload: %w", err)
	}
	return raw, nil
}

// unmarshalPayload decodes a canonical JSON data object back into its
// typed variant.
func unmarshalPayload(raw json.RawMessage) (Payload, error) {
	var wire payloadWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("ledger: unmarshal payload: %w", err)
	}

	switch wire.Kind {
	case KindGenesis:
		return Genesis{Note: wire.Note}, nil
	case KindKeyRecord:
		return KeyRecord{
			OwnerID:  wire.OwnerID,
			Filename: wire.Filename,
			Key:      wire.Key,
			Aux:      wire.Aux,
		}, nil
	case KindShareRecord:
		return ShareRecord{
			FileID:      wire.FileID,
			OwnerID:     wire.OwnerID,
			RecipientID: wire.RecipientID,
			WrappedKey:  wire.WrappedKey,
			Filename:    wire.Filename,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPayloadKind, wire.Kind)
	}
}

// Package envelope implements CloudSeal's hybrid key wrapping: a fresh
// ephemeral P-256 keypair per wrap, ECDH against the recipient's public
// key, HKDF-SHA256 key derivation, and AES-CFB encryption of the raw
// symmetric key.
//
// Package wire form, base64-encoded for transport as text:
//
//	uint32_BE(len(ephemeral_public_key_PEM)) || ephemeral_public_key_PEM || iv(16) || ciphertext
//
// SECURITY NOTE: the scheme carries no authentication tag (no AEAD, no
// MAC over the ciphertext). Unwrapping with the wrong private key yields
// garbage bytes rather than an error; tampering and wrong-key outcomes
// are indistinguishable. The wire format is kept as is because changing
// it would orphan every persisted package.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// RawKeyLen is the length of the symmetric key a package wraps.
	RawKeyLen = 32

	// IVLen is the CFB initialization vector length in bytes.
	IVLen = 16

	// hkdfInfo is the fixed HKDF context string. Wrap and Unwrap must use
	// the same value; changing it invalidates every persisted package.
	hkdfInfo = "aes-key-encryption"

	// derivedKeyLen is the HKDF output length (AES-256).
	derivedKeyLen = 32

	// prefixLen is the size of the big-endian length prefix.
	prefixLen = 4
)

// Wrap encrypts a raw 32-byte symmetric key for the recipient's public key.
//
// Process:
//  1. Generate a fresh ephemeral P-256 keypair (never persisted; it exists
//     only inside this call).
//  2. Compute shared secret = ECDH(ephemeral private, recipient public).
//  3. Derive a 32-byte key via HKDF-SHA256 (nil salt, fixed context string).
//  4. Encrypt rawKey with AES-CFB under a fresh random 16-byte IV.
//  5. Serialize with the ephemeral public key length-prefixed, base64 the whole.
func Wrap(rawKey []byte, recipientPublicPEM string) (string, error) {
	if len(rawKey) != RawKeyLen {
		return "", ErrInvalidKeyLength
	}
	recipient, err := ParsePublicKey(recipientPublicPEM)
	if err != nil {
		return "", err
	}

	ephemeral, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("envelope: generate ephemeral key: %w", err)
	}
	shared, err := ephemeral.ECDH(recipient)
	if err != nil {
		return "", fmt.Errorf("envelope: ECDH failed: %w", err)
	}

	derived, err := deriveKey(shared)
	if err != nil {
		return "", err
	}

	ephemeralPEM, err := encodePublicKeyPEM(ephemeral.PublicKey())
	if err != nil {
		return "", err
	}

	iv := make([]byte, IVLen)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("envelope: generate IV: %w", err)
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		return "", fmt.Errorf("envelope: new cipher: %w", err)
	}
	ciphertext := make([]byte, len(rawKey))
	cipher.NewCFBEncrypter(block, iv).XORKeyStream(ciphertext, rawKey)

	pkg := make([]byte, 0, prefixLen+len(ephemeralPEM)+IVLen+len(ciphertext))
	pkg = binary.BigEndian.AppendUint32(pkg, uint32(len(ephemeralPEM)))
	pkg = append(pkg, ephemeralPEM...)
	pkg = append(pkg, iv...)
	pkg = append(pkg, ciphertext...)

	return base64.StdEncoding.EncodeToString(pkg), nil
}

// Unwrap recovers the raw symmetric key from a package produced by Wrap,
// using the recipient's private key.
//
// Correctness relies on ECDH symmetry: ECDH(recipient private, ephemeral
// public) equals the secret Wrap computed from the other side. Returns
// ErrEnvelopeCorrupt when the package cannot be parsed. A wrong private
// key is NOT detected; it produces garbage output (see the package doc).
func Unwrap(pkg string, recipientPrivatePEM string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(pkg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnvelopeCorrupt, err)
	}
	ephemeralPEM, iv, ciphertext, err := splitPackage(raw)
	if err != nil {
		return nil, err
	}

	ephemeral, err := ParsePublicKey(string(ephemeralPEM))
	if err != nil {
		return nil, fmt.Errorf("%w: ephemeral key: %w", ErrEnvelopeCorrupt, err)
	}
	private, err := ParsePrivateKey(recipientPrivatePEM)
	if err != nil {
		return nil, err
	}

	shared, err := private.ECDH(ephemeral)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	derived, err := deriveKey(shared)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("envelope: new cipher: %w", err)
	}
	rawKey := make([]byte, len(ciphertext))
	cipher.NewCFBDecrypter(block, iv).XORKeyStream(rawKey, ciphertext)

	return rawKey, nil
}

// splitPackage parses the decoded binary layout:
// length prefix, ephemeral public key PEM, IV, wrapped key.
func splitPackage(raw []byte) (ephemeralPEM, iv, ciphertext []byte, err error) {
	if len(raw) < prefixLen {
		return nil, nil, nil, fmt.Errorf("%w: short length prefix", ErrEnvelopeCorrupt)
	}
	pubLen := int(binary.BigEndian.Uint32(raw))
	rest := raw[prefixLen:]
	if pubLen <= 0 || pubLen > len(rest) {
		return nil, nil, nil, fmt.Errorf("%w: bad public key length %d", ErrEnvelopeCorrupt, pubLen)
	}
	ephemeralPEM, rest = rest[:pubLen], rest[pubLen:]
	if len(rest) != IVLen+RawKeyLen {
		return nil, nil, nil, fmt.Errorf("%w: body is %d bytes, want %d", ErrEnvelopeCorrupt, len(rest), IVLen+RawKeyLen)
	}
	return ephemeralPEM, rest[:IVLen], rest[IVLen:], nil
}

// deriveKey derives the AES key from the ECDH shared secret via
// HKDF-SHA256 with a nil salt and the fixed context string.
func deriveKey(shared []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, shared, nil, []byte(hkdfInfo))
	key := make([]byte, derivedKeyLen)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("envelope: key derivation: %w", err)
	}
	return key, nil
}

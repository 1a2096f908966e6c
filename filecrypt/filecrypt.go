// Package filecrypt implements CloudSeal's bulk content encryption:
// AES-256-CBC with PKCS#7 padding and a fresh random IV per call.
//
// The unit is deliberately stateless. Keys are generated here but owned
// by the caller; every operation consumes only its arguments and the
// system entropy source.
package filecrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

const (
	// KeyLen is the required symmetric key length in bytes (AES-256).
	KeyLen = 32

	// IVLen is the initialization vector length in bytes (one AES block).
	IVLen = aes.BlockSize
)

// Result holds the output of a single Encrypt call.
//
// Its JSON form carries both fields base64-encoded, which is the shape
// persisted alongside file records.
type Result struct {
	// Ciphertext is the CBC-encrypted, PKCS#7-padded payload.
	Ciphertext []byte `json:"ciphertext"`

	// IV is the 16-byte initialization vector. Fresh per encryption,
	// never reused across calls even under the same key.
	IV []byte `json:"iv"`
}

// GenerateKey returns 32 cryptographically random bytes suitable for
// AES-256. It fails only if the system entropy source fails.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeyLen)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEntropyFailure, err)
	}
	return key, nil
}

// Encrypt encrypts plaintext with AES-256-CBC under key.
//
// A fresh random 16-byte IV is generated per call and returned in the
// Result; the plaintext is PKCS#7-padded to a whole number of blocks.
// Returns ErrInvalidKeyLength if key is not 32 bytes.
func Encrypt(plaintext, key []byte) (*Result, error) {
	if len(key) != KeyLen {
		return nil, ErrInvalidKeyLength
	}

	iv := make([]byte, IVLen)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEntropyFailure, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("filecrypt: new cipher: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return &Result{Ciphertext: ciphertext, IV: iv}, nil
}

// Decrypt reverses Encrypt.
//
// Failures other than a wrong key length collapse into the single
// ErrDecryptionFailed: the caller learns that no valid plaintext exists,
// not whether the key was wrong or the ciphertext tampered.
func Decrypt(ciphertext, key, iv []byte) ([]byte, error) {
	if len(key) != KeyLen {
		return nil, ErrInvalidKeyLength
	}
	if len(iv) != IVLen {
		return nil, ErrDecryptionFailed
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrDecryptionFailed
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("filecrypt: new cipher: %w", err)
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plaintext, ok := pkcs7Unpad(padded, aes.BlockSize)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// pkcs7Pad appends 1..blockSize padding bytes, each holding the pad length.
func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	padded := make([]byte, len(b)+n)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

// pkcs7Unpad strips PKCS#7 padding. Every padding byte is inspected
// before deciding; the result never reveals which byte was wrong.
func pkcs7Unpad(b []byte, blockSize int) ([]byte, bool) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize {
		return nil, false
	}
	var bad byte
	for i := len(b) - n; i < len(b); i++ {
		bad |= b[i] ^ byte(n)
	}
	if bad != 0 {
		return nil, false
	}
	return b[:len(b)-n], nil
}

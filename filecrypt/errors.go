package filecrypt

import "errors"

var (
	// ErrInvalidKeyLength indicates the supplied key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("filecrypt: key must be 32 bytes")

	// ErrDecryptionFailed indicates decryption could not produce a valid
	// plaintext. It covers a wrong key, a tampered or truncated ciphertext,
	// a malformed IV, and bad padding; the cases are deliberately
	// indistinguishable to the caller.
	ErrDecryptionFailed = errors.New("filecrypt: decryption failed")

	// ErrEntropyFailure indicates the system entropy source failed while
	// generating key or IV material. Fatal to the calling operation.
	ErrEntropyFailure = errors.New("filecrypt: entropy source failure")
)

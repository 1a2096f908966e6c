package envelope

import "errors"

var (
	// ErrInvalidKeyLength indicates the raw key handed to Wrap is not 32 bytes.
	ErrInvalidKeyLength = errors.New("envelope: raw key must be 32 bytes")

	// ErrInvalidPublicKey indicates the recipient public key PEM could not
	// be parsed as a P-256 SubjectPublicKeyInfo encoding.
	ErrInvalidPublicKey = errors.New("envelope: invalid public key")

	// ErrInvalidPrivateKey indicates the recipient private key PEM could not
	// be parsed as a P-256 PKCS#8 encoding.
	ErrInvalidPrivateKey = errors.New("envelope: invalid private key")

	// ErrEnvelopeCorrupt indicates a package that cannot be parsed: bad
	// base64, a truncated length prefix, a short body, or a malformed
	// ephemeral public key.
	ErrEnvelopeCorrupt = errors.New("envelope: corrupt package")

	// ErrDecryptionFailed indicates the key-agreement step could not produce
	// a usable decryption key. Note that a WRONG key cannot be detected: the
	// scheme carries no authentication tag, so unwrapping with the wrong
	// private key yields garbage bytes, not this error.
	ErrDecryptionFailed = errors.New("envelope: decryption failed")
)

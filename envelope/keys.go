package envelope

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

const (
	pemTypePrivate = "PRIVATE KEY"
	pemTypePublic  = "PUBLIC KEY"
)

// KeyPair is a long-term P-256 identity in portable textual form.
//
// The pair is borrowed by Wrap and Unwrap for single operations; the
// package never retains key material between calls.
type KeyPair struct {
	// PublicPEM is the SubjectPublicKeyInfo encoding ("PUBLIC KEY" block).
	PublicPEM string

	// PrivatePEM is the PKCS#8 encoding ("PRIVATE KEY" block).
	PrivatePEM string
}

// GenerateKeyPair generates a fresh P-256 keypair and returns both halves
// PEM-encoded. Fails only on entropy-source or encoding failure.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("envelope: generate keypair: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("envelope: encode private key: %w", err)
	}
	pubPEM, err := encodePublicKeyPEM(priv.PublicKey())
	if err != nil {
		return nil, err
	}

	privPEM := pem.EncodeToMemory(&pem.Block{Type: pemTypePrivate, Bytes: privDER})
	return &KeyPair{PublicPEM: pubPEM, PrivatePEM: string(privPEM)}, nil
}

// ParsePublicKey parses a PEM SubjectPublicKeyInfo block into a P-256
// public key usable for ECDH.
func ParsePublicKey(pemText string) (*ecdh.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil || block.Type != pemTypePublic {
		return nil, ErrInvalidPublicKey
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}

	// NIST-curve SPKI parses to *ecdsa.PublicKey in the standard library;
	// newer encoders may hand back *ecdh.PublicKey directly.
	switch key := parsed.(type) {
	case *ecdh.PublicKey:
		if key.Curve() != ecdh.P256() {
			return nil, fmt.Errorf("%w: not a P-256 key", ErrInvalidPublicKey)
		}
		return key, nil
	case *ecdsa.PublicKey:
		ecdhKey, err := key.ECDH()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
		}
		if ecdhKey.Curve() != ecdh.P256() {
			return nil, fmt.Errorf("%w: not a P-256 key", ErrInvalidPublicKey)
		}
		return ecdhKey, nil
	default:
		return nil, fmt.Errorf("%w: unsupported key type %T", ErrInvalidPublicKey, parsed)
	}
}

// ParsePrivateKey parses a PEM PKCS#8 block into a P-256 private key
// usable for ECDH.
func ParsePrivateKey(pemText string) (*ecdh.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil || block.Type != pemTypePrivate {
		return nil, ErrInvalidPrivateKey
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPrivateKey, err)
	}

	switch key := parsed.(type) {
	case *ecdh.PrivateKey:
		if key.Curve() != ecdh.P256() {
			return nil, fmt.Errorf("%w: not a P-256 key", ErrInvalidPrivateKey)
		}
		return key, nil
	case *ecdsa.PrivateKey:
		ecdhKey, err := key.ECDH()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPrivateKey, err)
		}
		if ecdhKey.Curve() != ecdh.P256() {
			return nil, fmt.Errorf("%w: not a P-256 key", ErrInvalidPrivateKey)
		}
		return ecdhKey, nil
	default:
		return nil, fmt.Errorf("%w: unsupported key type %T", ErrInvalidPrivateKey, parsed)
	}
}

func encodePublicKeyPEM(pub *ecdh.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("envelope: encode public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: pemTypePublic, Bytes: der})), nil
}

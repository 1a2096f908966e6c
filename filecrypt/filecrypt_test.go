package filecrypt

import (
	"bytes"
	"crypto/aes"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- GenerateKey tests ---

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	assert.Len(t, key, KeyLen)
}

func TestGenerateKey_Unique(t *testing.T) {
	k1, err := GenerateKey()
	require.NoError(t, err)
	k2, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2, "two generated keys should differ")
}

// --- Encrypt/Decrypt round-trip tests ---

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty payload", []byte{}},
		{"short text", []byte("hello world")},
		{"exact block", bytes.Repeat([]byte{0xab}, aes.BlockSize)},
		{"block minus one", bytes.Repeat([]byte{0x01}, aes.BlockSize-1)},
		{"block plus one", bytes.Repeat([]byte{0x02}, aes.BlockSize+1)},
		{"binary data", []byte{0x00, 0xff, 0x10, 0x80, 0x7f}},
		{"large payload", bytes.Repeat([]byte("cloudseal"), 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Encrypt(tt.plaintext, key)
			require.NoError(t, err)
			assert.Len(t, res.IV, IVLen)
			assert.Equal(t, 0, len(res.Ciphertext)%aes.BlockSize,
				"ciphertext should be whole blocks")

			plaintext, err := Decrypt(res.Ciphertext, key, res.IV)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, plaintext)
		})
	}
}

func TestEncrypt_FreshIVPerCall(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	r1, err := Encrypt([]byte("same plaintext"), key)
	require.NoError(t, err)
	r2, err := Encrypt([]byte("same plaintext"), key)
	require.NoError(t, err)

	assert.NotEqual(t, r1.IV, r2.IV, "IV must be fresh per call")
	assert.NotEqual(t, r1.Ciphertext, r2.Ciphertext,
		"fresh IV should change the ciphertext even for identical input")
}

func TestEncrypt_InvalidKeyLength(t *testing.T) {
	for _, n := range []int{0, 15, 16, 24, 31, 33, 64} {
		_, err := Encrypt([]byte("payload"), make([]byte, n))
		assert.ErrorIs(t, err, ErrInvalidKeyLength, "key length %d", n)
	}
}

// --- Decrypt failure tests ---

func TestDecrypt_InvalidKeyLength(t *testing.T) {
	_, err := Decrypt(make([]byte, aes.BlockSize), make([]byte, 16), make([]byte, IVLen))
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestDecrypt_WrongKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	other, err := GenerateKey()
	require.NoError(t, err)

	res, err := Encrypt([]byte("secret content"), key)
	require.NoError(t, err)

	plaintext, err := Decrypt(res.Ciphertext, other, res.IV)
	if err == nil {
		// CBC with a wrong key can, rarely, still unpad; it must never
		// yield the original plaintext.
		assert.NotEqual(t, []byte("secret content"), plaintext)
	} else {
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	}
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	res, err := Encrypt([]byte("tamper target"), key)
	require.NoError(t, err)

	tampered := append([]byte(nil), res.Ciphertext...)
	tampered[len(tampered)-1] ^= 0x01

	plaintext, err := Decrypt(tampered, key, res.IV)
	if err == nil {
		assert.NotEqual(t, []byte("tamper target"), plaintext)
	} else {
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	}
}

func TestDecrypt_MalformedInputs(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	tests := []struct {
		name       string
		ciphertext []byte
		iv         []byte
	}{
		{"empty ciphertext", []byte{}, make([]byte, IVLen)},
		{"partial block", make([]byte, aes.BlockSize-3), make([]byte, IVLen)},
		{"short IV", make([]byte, aes.BlockSize), make([]byte, IVLen-1)},
		{"long IV", make([]byte, aes.BlockSize), make([]byte, IVLen+1)},
		{"nil IV", make([]byte, aes.BlockSize), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decrypt(tt.ciphertext, key, tt.iv)
			assert.ErrorIs(t, err, ErrDecryptionFailed)
		})
	}
}

// --- PKCS#7 padding tests ---

func TestPKCS7_PadUnpad(t *testing.T) {
	for n := 0; n <= 3*aes.BlockSize; n++ {
		in := bytes.Repeat([]byte{0x5a}, n)
		padded := pkcs7Pad(in, aes.BlockSize)
		require.Equal(t, 0, len(padded)%aes.BlockSize, "length %d", n)
		require.Greater(t, len(padded), len(in), "padding always adds bytes")

		out, ok := pkcs7Unpad(padded, aes.BlockSize)
		require.True(t, ok, "length %d", n)
		assert.Equal(t, in, out, "length %d", n)
	}
}

func TestPKCS7_UnpadRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", []byte{}},
		{"not block aligned", make([]byte, 7)},
		{"zero pad byte", append(make([]byte, aes.BlockSize-1), 0x00)},
		{"pad byte too large", append(make([]byte, aes.BlockSize-1), byte(aes.BlockSize+1))},
		{"inconsistent padding", append(bytes.Repeat([]byte{0x04}, aes.BlockSize-1), 0x05)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := pkcs7Unpad(tt.in, aes.BlockSize)
			assert.False(t, ok)
		})
	}
}

// --- Wire form tests ---

func TestResult_JSONBase64(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	res, err := Encrypt([]byte("wire form"), key)
	require.NoError(t, err)

	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var wire struct {
		Ciphertext string `json:"ciphertext"`
		IV         string `json:"iv"`
	}
	require.NoError(t, json.Unmarshal(raw, &wire))

	ct, err := base64.StdEncoding.DecodeString(wire.Ciphertext)
	require.NoError(t, err)
	iv, err := base64.StdEncoding.DecodeString(wire.IV)
	require.NoError(t, err)
	assert.Equal(t, res.Ciphertext, ct)
	assert.Equal(t, res.IV, iv)
}

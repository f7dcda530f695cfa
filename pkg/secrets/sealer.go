package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
)

// sealedPrefix marks values produced by Seal. It also versions the format.
const sealedPrefix = "v1:"

// Sealer encrypts tenant secrets with AES-256-GCM under a per-tenant key
// derived from one master key.
type Sealer struct {
	master []byte
}

// NewSealer creates a sealer. The key must be KeySize bytes.
func NewSealer(masterKey []byte) (*Sealer, error) {
	if len(masterKey) != KeySize {
		return nil, ErrInvalidKey
	}
	return &Sealer{master: append([]byte(nil), masterKey...)}, nil
}

// Seal encrypts plaintext for tenantID. The tenant id is also bound as
// additional data, so a value copied to another tenant fails to open.
func (s *Sealer) Seal(tenantID uuid.UUID, plaintext string) (string, error) {
	gcm, err := s.aead(tenantID)
	if err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	out := gcm.Seal(nonce, nonce, []byte(plaintext), tenantID[:])
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal for the same tenant.
func (s *Sealer) Open(tenantID uuid.UUID, sealed string) (string, error) {
	encoded, ok := strings.CutPrefix(sealed, sealedPrefix)
	if !ok {
		return "", ErrInvalidCiphertext
	}
	data, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}

	gcm, err := s.aead(tenantID)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}
	if len(data) < gcm.NonceSize() {
		return "", ErrInvalidCiphertext
	}

	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, tenantID[:])
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}
	return string(plaintext), nil
}

// IsSealed reports whether v looks like Seal output.
func IsSealed(v string) bool {
	return strings.HasPrefix(v, sealedPrefix)
}

func (s *Sealer) aead(tenantID uuid.UUID) (cipher.AEAD, error) {
	key, err := tenantKey(s.master, tenantID)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

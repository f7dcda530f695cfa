package secrets_test

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/secrets"
)

func newSealer(t *testing.T) *secrets.Sealer {
	t.Helper()
	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	s, err := secrets.NewSealer(key)
	require.NoError(t, err)
	return s
}

func TestSealer_RoundTrip(t *testing.T) {
	t.Parallel()

	s := newSealer(t)
	tenant := uuid.New()

	tests := []struct {
		name      string
		plaintext string
	}{
		{"empty", ""},
		{"webhook secret", "whsec_0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"},
		{"unicode", "Kingston 🇯🇲"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sealed, err := s.Seal(tenant, tt.plaintext)
			require.NoError(t, err)
			assert.True(t, secrets.IsSealed(sealed))
			if tt.plaintext != "" {
				assert.NotContains(t, sealed, tt.plaintext)
			}

			opened, err := s.Open(tenant, sealed)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, opened)
		})
	}
}

func TestSealer_NonceIsRandom(t *testing.T) {
	t.Parallel()

	s := newSealer(t)
	tenant := uuid.New()

	a, err := s.Seal(tenant, "same")
	require.NoError(t, err)
	b, err := s.Seal(tenant, "same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_TenantBinding(t *testing.T) {
	t.Parallel()

	s := newSealer(t)
	sealed, err := s.Seal(uuid.New(), "whsec_abc")
	require.NoError(t, err)

	_, err = s.Open(uuid.New(), sealed)
	require.ErrorIs(t, err, secrets.ErrDecryptionFailed)
}

func TestSealer_WrongMasterKey(t *testing.T) {
	t.Parallel()

	tenant := uuid.New()
	sealed, err := newSealer(t).Seal(tenant, "whsec_abc")
	require.NoError(t, err)

	_, err = newSealer(t).Open(tenant, sealed)
	require.ErrorIs(t, err, secrets.ErrDecryptionFailed)
}

func TestSealer_Tampering(t *testing.T) {
	t.Parallel()

	s := newSealer(t)
	tenant := uuid.New()

	tests := []struct {
		name    string
		value   string
		wantErr error
	}{
		{"missing prefix", "whsec_plain", secrets.ErrInvalidCiphertext},
		{"bad base64", "v1:!!!", secrets.ErrInvalidCiphertext},
		{"too short", "v1:" + base64.RawStdEncoding.EncodeToString([]byte("short")), secrets.ErrInvalidCiphertext},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Open(tenant, tt.value)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("flipped byte", func(t *testing.T) {
		sealed, err := s.Seal(tenant, "whsec_abc")
		require.NoError(t, err)

		raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(sealed, "v1:"))
		require.NoError(t, err)
		raw[len(raw)-1] ^= 0xff

		_, err = s.Open(tenant, "v1:"+base64.RawStdEncoding.EncodeToString(raw))
		require.ErrorIs(t, err, secrets.ErrDecryptionFailed)
	})
}

func TestParseKey(t *testing.T) {
	t.Parallel()

	key, err := secrets.GenerateKey()
	require.NoError(t, err)

	got, err := secrets.ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = secrets.ParseKey(" " + base64.StdEncoding.EncodeToString(key) + "\n")
	require.NoError(t, err)
	assert.Equal(t, key, got)

	for _, bad := range []string{"", "abcd", hex.EncodeToString(key[:16])} {
		_, err := secrets.ParseKey(bad)
		assert.ErrorIs(t, err, secrets.ErrInvalidKey, bad)
	}

	_, err = secrets.NewSealer(key[:10])
	require.ErrorIs(t, err, secrets.ErrInvalidKey)
}

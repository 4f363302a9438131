package vault

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/folio/portfolio-api/internal/core/domain"
)

var testCreds = domain.MailCredentials{User: "me@example.com", Password: "app-password", Service: "gmail"}

func TestVault_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	v := New(path, "s3cret", zerolog.Nop())

	require.NoError(t, v.Write(testCreds))

	got, err := v.Credentials()
	require.NoError(t, err)
	require.Equal(t, testCreds, got)
}

func TestVault_FallbackKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, New(path, "", zerolog.Nop()).Write(testCreds))

	got, err := New(path, "", zerolog.Nop()).Credentials()
	require.NoError(t, err)
	require.Equal(t, testCreds, got)
}

func TestVault_MissingFile(t *testing.T) {
	v := New(filepath.Join(t.TempDir(), "absent.json"), "k", zerolog.Nop())

	_, err := v.Credentials()
	require.ErrorIs(t, err, ErrBlobMissing)
	require.ErrorIs(t, err, domain.ErrCredentialsUnavailable)
}

func TestVault_TamperedData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	v := New(path, "k", zerolog.Nop())
	require.NoError(t, v.Write(testCreds))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var blob Blob
	require.NoError(t, json.Unmarshal(raw, &blob))
	first := "A"
	if blob.Data[0] == 'A' {
		first = "B"
	}
	blob.Data = first + blob.Data[1:]
	raw, err = json.Marshal(blob)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, err = v.Credentials()
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestVault_WrongKeyFailsChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, New(path, "right", zerolog.Nop()).Write(testCreds))

	// The checksum binds the key, so a different key never reaches decryption.
	_, err := New(path, "wrong", zerolog.Nop()).Credentials()
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestVault_BadCiphertextWithValidChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	v := New(path, "k", zerolog.Nop())

	data := "bm90LWEtcmVhbC1jaXBoZXJ0ZXh0LWF0LWFsbA=="
	raw, err := json.Marshal(Blob{Data: data, Checksum: v.checksum(data)})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, err = v.Credentials()
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestVault_IncompletePayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	v := New(path, "k", zerolog.Nop())

	gcm, err := v.aead()
	require.NoError(t, err)
	nonce := make([]byte, gcm.NonceSize())
	sealed := gcm.Seal(nonce, nonce, []byte(`{"user":"me@example.com","service":"gmail"}`), nil)
	data := base64.StdEncoding.EncodeToString(sealed)
	raw, err := json.Marshal(Blob{Data: data, Checksum: v.checksum(data)})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, err = v.Credentials()
	require.ErrorIs(t, err, ErrIncomplete)
}

func TestVault_SealRejectsIncomplete(t *testing.T) {
	v := New(filepath.Join(t.TempDir(), "creds.json"), "k", zerolog.Nop())

	_, err := v.Seal(domain.MailCredentials{User: "me@example.com"})
	require.Error(t, err)
}

// Package vault decrypts the at-rest email credential blob used by the
// notification mailer.
//
// A blob is a JSON document {"data": ..., "checksum": ...}. data is the
// base64 encoding of nonce||ciphertext produced by AES-256-GCM over the JSON
// credentials; checksum is hex(SHA-256(data || hex(key))) and is verified
// before any decryption is attempted.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/folio/portfolio-api/internal/core/domain"
)

// fallbackSecret is used when no EMAIL_ENCRYPTION_KEY is configured. Blobs
// sealed with it are only obscured, not protected.
const fallbackSecret = "portfolio-email-credentials-default-key"

var (
	ErrBlobMissing      = fmt.Errorf("%w: credentials file missing", domain.ErrCredentialsUnavailable)
	ErrChecksumMismatch = fmt.Errorf("%w: checksum mismatch, file tampered or corrupted", domain.ErrCredentialsUnavailable)
	ErrDecrypt          = fmt.Errorf("%w: decryption failed, wrong key", domain.ErrCredentialsUnavailable)
	ErrIncomplete       = fmt.Errorf("%w: decrypted credentials incomplete", domain.ErrCredentialsUnavailable)
)

// Blob is the on-disk form of the encrypted credentials.
type Blob struct {
	Data     string `json:"data"`
	Checksum string `json:"checksum"`
}

// Vault reads and writes credential blobs with a key fixed at construction.
type Vault struct {
	path string
	key  []byte
	log  zerolog.Logger
}

// New derives the key from secret. An empty secret selects the built-in
// fallback and logs a warning.
func New(path, secret string, log zerolog.Logger) *Vault {
	log = log.With().Str("component", "vault").Logger()
	if secret == "" {
		log.Warn().Msg("EMAIL_ENCRYPTION_KEY not set, using built-in fallback key")
		secret = fallbackSecret
	}
	sum := sha256.Sum256([]byte(secret))
	return &Vault{path: path, key: sum[:], log: log}
}

func (v *Vault) checksum(data string) string {
	sum := sha256.Sum256([]byte(data + hex.EncodeToString(v.key)))
	return hex.EncodeToString(sum[:])
}

func (v *Vault) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Credentials loads, verifies and decrypts the blob. Any failure wraps
// domain.ErrCredentialsUnavailable.
func (v *Vault) Credentials() (domain.MailCredentials, error) {
	creds, err := v.open()
	if err != nil {
		v.log.Warn().Err(err).Str("path", v.path).Msg("email credentials unavailable")
		return domain.MailCredentials{}, err
	}
	v.log.Debug().Str("service", creds.Service).Msg("email credentials loaded")
	return creds, nil
}

func (v *Vault) open() (domain.MailCredentials, error) {
	raw, err := os.ReadFile(v.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.MailCredentials{}, ErrBlobMissing
		}
		return domain.MailCredentials{}, fmt.Errorf("%w: %w", domain.ErrCredentialsUnavailable, err)
	}

	var blob Blob
	if err := json.Unmarshal(raw, &blob); err != nil || blob.Data == "" {
		return domain.MailCredentials{}, ErrChecksumMismatch
	}
	if subtle.ConstantTimeCompare([]byte(blob.Checksum), []byte(v.checksum(blob.Data))) != 1 {
		return domain.MailCredentials{}, ErrChecksumMismatch
	}

	sealed, err := base64.StdEncoding.DecodeString(blob.Data)
	if err != nil {
		return domain.MailCredentials{}, ErrDecrypt
	}
	gcm, err := v.aead()
	if err != nil {
		return domain.MailCredentials{}, ErrDecrypt
	}
	if len(sealed) < gcm.NonceSize() {
		return domain.MailCredentials{}, ErrDecrypt
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return domain.MailCredentials{}, ErrDecrypt
	}

	var creds domain.MailCredentials
	if err := json.Unmarshal(plaintext, &creds); err != nil || !creds.Complete() {
		return domain.MailCredentials{}, ErrIncomplete
	}
	return creds, nil
}

// Seal encrypts creds into a Blob.
func (v *Vault) Seal(creds domain.MailCredentials) (Blob, error) {
	if !creds.Complete() {
		return Blob{}, errors.New("vault: user, password and service are required")
	}
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return Blob{}, err
	}

	gcm, err := v.aead()
	if err != nil {
		return Blob{}, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return Blob{}, err
	}

	data := base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, plaintext, nil))
	return Blob{Data: data, Checksum: v.checksum(data)}, nil
}

// Write seals creds and stores the blob at the vault's path with 0600 permissions.
func (v *Vault) Write(creds domain.MailCredentials) error {
	blob, err := v.Seal(creds)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(blob, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(v.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(v.path, data, 0o600)
}

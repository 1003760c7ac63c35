package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"snowcheck/pkg/errors"
	"snowcheck/pkg/models"
)

// Passwords are stored at rest inside an ENC[...] envelope so a config
// file can be committed or copied without exposing the plaintext. The key
// comes from SNOWCHECK_ENCRYPTION_KEY, or is derived from the machine
// identity when unset (which ties the file to the host that wrote it).
const (
	encryptedPrefix = "ENC["
	encryptedSuffix = "]"
)

func getEncryptionKey() []byte {
	if key := os.Getenv("SNOWCHECK_ENCRYPTION_KEY"); key != "" {
		hash := sha256.Sum256([]byte(key))
		return hash[:]
	}

	hostname, _ := os.Hostname()
	homeDir, _ := os.UserHomeDir()
	machineID := fmt.Sprintf("%s-%s-snowcheck", hostname, homeDir)
	hash := sha256.Sum256([]byte(machineID))
	return hash[:]
}

// envelopeCipher builds the AES-256-GCM primitive both directions share.
func envelopeCipher() (cipher.AEAD, error) {
	block, err := aes.NewCipher(getEncryptionKey())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEncryptionFailed, "Failed to create cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEncryptionFailed, "Failed to create GCM")
	}
	return gcm, nil
}

// EncryptPassword seals a password into the ENC[...] envelope. Empty and
// already-encrypted values pass through unchanged.
func EncryptPassword(password string) (string, error) {
	if password == "" || IsEncrypted(password) {
		return password, nil
	}

	gcm, err := envelopeCipher()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEncryptionFailed, "Failed to generate nonce")
	}

	sealed := gcm.Seal(nonce, nonce, []byte(password), nil)
	return encryptedPrefix + base64.StdEncoding.EncodeToString(sealed) + encryptedSuffix, nil
}

// DecryptPassword opens an ENC[...] envelope. Values without the envelope
// pass through unchanged.
func DecryptPassword(encrypted string) (string, error) {
	if !IsEncrypted(encrypted) {
		return encrypted, nil
	}

	encoded := strings.TrimSuffix(strings.TrimPrefix(encrypted, encryptedPrefix), encryptedSuffix)
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEncryptionFailed, "Failed to decode encrypted password")
	}

	gcm, err := envelopeCipher()
	if err != nil {
		return "", err
	}
	if len(sealed) < gcm.NonceSize() {
		return "", errors.New(errors.ErrCodeEncryptionFailed, "Encrypted password is truncated")
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEncryptionFailed, "Failed to decrypt password").
			WithSuggestions("Set SNOWCHECK_ENCRYPTION_KEY to the key used when the config was written")
	}
	return string(plaintext), nil
}

// IsEncrypted checks if a value carries the ENC[...] envelope.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, encryptedPrefix) && strings.HasSuffix(value, encryptedSuffix)
}

// EncryptConfigPasswords seals every password field before the config is
// written to disk.
func EncryptConfigPasswords(config *models.Config) error {
	encrypted, err := EncryptPassword(config.Snowflake.Password)
	if err != nil {
		return err
	}
	config.Snowflake.Password = encrypted
	return nil
}

// DecryptConfigPasswords opens every password field after the config is
// read from disk.
func DecryptConfigPasswords(config *models.Config) error {
	decrypted, err := DecryptPassword(config.Snowflake.Password)
	if err != nil {
		return err
	}
	config.Snowflake.Password = decrypted
	return nil
}

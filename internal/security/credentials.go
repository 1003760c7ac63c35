// Package security stores the Snowflake password outside the config file:
// in the system keyring when one is available, otherwise in an encrypted
// file under the config directory.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/pbkdf2"

	"snowcheck/internal/common"
)

const (
	// Keyring service name
	keyringService = "snowcheck"
	// Salt for key derivation
	saltSize = 32
	// Number of iterations for PBKDF2
	pbkdf2Iterations = 100000
	// Key size for AES-256
	keySize = 32
)

// CredentialManager handles secure storage and retrieval of credentials.
type CredentialManager struct {
	useKeyring bool
	configDir  string
}

// NewCredentialManager creates a credential manager rooted at configDir.
func NewCredentialManager(configDir string) *CredentialManager {
	return &CredentialManager{
		useKeyring: isKeyringAvailable(),
		configDir:  configDir,
	}
}

// Store saves a named credential.
func (cm *CredentialManager) Store(name, value string) error {
	if cm.useKeyring {
		if err := keyring.Set(keyringService, name, value); err != nil {
			return fmt.Errorf("failed to store in keyring: %w", err)
		}
		return nil
	}
	return cm.storeEncrypted(name, value)
}

// Get retrieves a named credential.
func (cm *CredentialManager) Get(name string) (string, error) {
	if cm.useKeyring {
		value, err := keyring.Get(keyringService, name)
		if err != nil {
			return "", fmt.Errorf("failed to get from keyring: %w", err)
		}
		return value, nil
	}
	return cm.getEncrypted(name)
}

// Delete removes a named credential.
func (cm *CredentialManager) Delete(name string) error {
	if cm.useKeyring {
		return keyring.Delete(keyringService, name)
	}
	return os.Remove(cm.credentialPath(name))
}

func (cm *CredentialManager) storeEncrypted(name, value string) error {
	dir := filepath.Join(cm.configDir, "credentials")
	if err := os.MkdirAll(dir, common.DirPermissionSecure); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	encrypted, err := encrypt(value, masterKey())
	if err != nil {
		return err
	}

	return os.WriteFile(cm.credentialPath(name), []byte(encrypted), common.FilePermissionSecure)
}

func (cm *CredentialManager) getEncrypted(name string) (string, error) {
	data, err := os.ReadFile(cm.credentialPath(name)) // #nosec G304 - path is config-dir relative
	if err != nil {
		return "", fmt.Errorf("failed to read credential %s: %w", name, err)
	}
	return decrypt(string(data), masterKey())
}

func (cm *CredentialManager) credentialPath(name string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	return filepath.Join(cm.configDir, "credentials", safe+".cred")
}

func encrypt(plaintext string, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func decrypt(encoded string, key []byte) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode credential: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}
	if len(sealed) < gcm.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt credential: %w", err)
	}
	return string(plaintext), nil
}

// masterKey derives the file-encryption key from machine identity. The salt
// is fixed: the protection target is credentials at rest on the same
// machine, not offline brute force.
func masterKey() []byte {
	salt := sha256.Sum256([]byte(keyringService + "-salt"))
	return pbkdf2.Key([]byte(machineID()), salt[:saltSize], pbkdf2Iterations, keySize, sha256.New)
}

func machineID() string {
	hostname, _ := os.Hostname()
	home, _ := os.UserHomeDir()
	return fmt.Sprintf("%s-%s-%s-%s", hostname, home, runtime.GOOS, keyringService)
}

func isKeyringAvailable() bool {
	if os.Getenv("SNOWCHECK_NO_KEYRING") != "" {
		return false
	}

	// Probe the backend; headless Linux often has none.
	probe := "snowcheck-keyring-probe"
	if err := keyring.Set(keyringService, probe, "ok"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, probe)
	return true
}

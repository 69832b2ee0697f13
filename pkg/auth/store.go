package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/pbkdf2"
)

const (
	keyringService = "pindl"
	keyringKey     = "session_cookies"

	saltSize   = 32
	keySize    = 32
	iterations = 100000
)

// Store persists the session cookie set. The system keychain is tried
// first; an AES-GCM encrypted file is the fallback for headless hosts.
type Store struct {
	filePath   string
	useKeyring bool
	mu         sync.RWMutex
}

// NewStore creates a cookie store backed by the keychain with a file
// fallback at the given path.
func NewStore(filePath string) (*Store, error) {
	dir := filepath.Dir(filePath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	return &Store{
		filePath:   filePath,
		useKeyring: keyringAvailable(),
	}, nil
}

// keyringAvailable probes the system keychain with a throwaway entry
func keyringAvailable() bool {
	const testKey = "availability_probe"
	if err := keyring.Set(keyringService, testKey, "ok"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, testKey)
	return true
}

// Save persists the cookie set
func (s *Store) Save(cookies CookieSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(cookies)
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}

	if s.useKeyring {
		if err := keyring.Set(keyringService, keyringKey, string(data)); err == nil {
			return nil
		}
		// Keychain refused the write; fall through to the file backend
		s.useKeyring = false
	}

	return s.saveEncryptedFile(data)
}

// Load retrieves the cookie set, returning ErrNoSession when absent
func (s *Store) Load() (CookieSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.useKeyring {
		if data, err := keyring.Get(keyringService, keyringKey); err == nil {
			var cookies CookieSet
			if err := json.Unmarshal([]byte(data), &cookies); err != nil {
				return nil, fmt.Errorf("failed to unmarshal cookies: %w", err)
			}
			return cookies, nil
		}
	}

	data, err := s.loadEncryptedFile()
	if err != nil {
		return nil, err
	}

	var cookies CookieSet
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cookies: %w", err)
	}
	return cookies, nil
}

// Clear removes any stored session
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.useKeyring {
		_ = keyring.Delete(keyringService, keyringKey)
	}
	if err := os.Remove(s.filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cookie file: %w", err)
	}
	return nil
}

// encryptedEnvelope is the on-disk structure of the fallback file
type encryptedEnvelope struct {
	Salt      string `json:"salt"`
	Encrypted string `json:"encrypted"`
}

func (s *Store) saveEncryptedFile(plain []byte) error {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := newGCM(salt)
	if err != nil {
		return err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plain, nil)
	envelope := encryptedEnvelope{
		Salt:      base64.StdEncoding.EncodeToString(salt),
		Encrypted: base64.StdEncoding.EncodeToString(sealed),
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	return os.WriteFile(s.filePath, data, 0600)
}

func (s *Store) loadEncryptedFile() ([]byte, error) {
	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}

	var envelope encryptedEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse cookie file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(envelope.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(envelope.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	gcm, err := newGCM(salt)
	if err != nil {
		return nil, err
	}

	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("cookie file payload too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt cookie file: %w", err)
	}
	return plain, nil
}

// newGCM derives an AES-GCM cipher from the machine passphrase and salt
func newGCM(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(passphrase()), salt, iterations, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// passphrase returns the encryption passphrase: PINDL_PASSPHRASE when set,
// otherwise a stable machine-derived value. The fallback only protects
// against casual file copying, not a determined local attacker.
func passphrase() string {
	if p := os.Getenv("PINDL_PASSPHRASE"); p != "" {
		return p
	}

	hostname, _ := os.Hostname()
	username := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	return fmt.Sprintf("pindl-%s-%s", hostname, username)
}

// DefaultStorePath returns the cookie file location inside the user config dir
func DefaultStorePath(cookieFile string) string {
	if filepath.IsAbs(cookieFile) || filepath.Dir(cookieFile) != "." {
		return cookieFile
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return cookieFile
	}
	return filepath.Join(configDir, "pindl", cookieFile)
}

package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/crumbtrail/pkg/domain"
	"github.com/aretw0/crumbtrail/pkg/ports"
)

// encryptedPrefix marks an encrypted field value.
const encryptedPrefix = "enc:v1:"

// ErrKeySize is returned for keys that are not 32 bytes long.
var ErrKeySize = errors.New("encryption key must be 32 bytes (AES-256)")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.TrailStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts each crumb's URL
// and label with AES-GCM.
//
// Crumb keys are fingerprints of the URL, so they would let anyone reading the
// store confirm visits to guessable paths. The real key travels inside the
// sealed URL instead, and the stored Key and CurrentKey are an HMAC of it under
// ActiveKey. Level, sequence and the action and controller route names stay in
// the clear.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, ErrKeySize
	}
	for _, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, fmt.Errorf("fallback key: %w", ErrKeySize)
		}
	}
	return func(next ports.TrailStore) ports.TrailStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, sessionID string, trail *domain.Trail) error {
	sealed := trail.Clone()
	if sealed.CurrentKey != 0 {
		sealed.CurrentKey = m.blind(sealed.CurrentKey)
	}
	for i := range sealed.Crumbs {
		c := &sealed.Crumbs[i]
		var err error
		payload := binary.BigEndian.AppendUint64(nil, c.Key)
		if c.URL, err = m.sealBytes(append(payload, c.URL...)); err != nil {
			return fmt.Errorf("failed to encrypt crumb: %w", err)
		}
		if c.Label, err = m.seal(c.Label); err != nil {
			return fmt.Errorf("failed to encrypt crumb: %w", err)
		}
		c.Key = m.blind(c.Key)
	}
	return m.next.Save(ctx, sessionID, sealed)
}

func (m *encryptionMiddleware) Load(ctx context.Context, sessionID string) (*domain.Trail, error) {
	trail, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	current := trail.CurrentKey
	trail.CurrentKey = 0
	for i := range trail.Crumbs {
		c := &trail.Crumbs[i]
		payload, err := m.openBytes(c.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt trail %s: %w", sessionID, err)
		}
		if len(payload) < 8 {
			return nil, fmt.Errorf("failed to decrypt trail %s: crumb payload too short", sessionID)
		}
		if current != 0 && c.Key == current {
			trail.CurrentKey = binary.BigEndian.Uint64(payload)
		}
		c.Key = binary.BigEndian.Uint64(payload)
		c.URL = string(payload[8:])
		if c.Label, err = m.open(c.Label); err != nil {
			return nil, fmt.Errorf("failed to decrypt trail %s: %w", sessionID, err)
		}
	}
	return trail, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// blind maps a crumb key to a keyed fingerprint that cannot be recomputed
// from a guessed URL without ActiveKey.
func (m *encryptionMiddleware) blind(key uint64) uint64 {
	mac := hmac.New(sha256.New, m.config.ActiveKey)
	_ = binary.Write(mac, binary.BigEndian, key)
	return binary.BigEndian.Uint64(mac.Sum(nil))
}

func (m *encryptionMiddleware) seal(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	return m.sealBytes([]byte(s))
}

func (m *encryptionMiddleware) sealBytes(plain []byte) (string, error) {
	ciphertext, err := encrypt(plain, m.config.ActiveKey)
	if err != nil {
		return "", err
	}
	return encryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (m *encryptionMiddleware) open(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	plain, err := m.openBytes(s)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func (m *encryptionMiddleware) openBytes(s string) ([]byte, error) {
	// Fail closed on plaintext: a configured key means everything was sealed.
	encoded, ok := strings.CutPrefix(s, encryptedPrefix)
	if !ok {
		return nil, errors.New("field is not encrypted")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}
	return decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// ParseKey decodes a base64 AES-256 key as found in configuration.
func ParseKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode key: %w", err)
	}
	if len(key) != 32 {
		return nil, ErrKeySize
	}
	return key, nil
}

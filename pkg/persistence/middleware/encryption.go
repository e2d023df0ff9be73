package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// encryptedPrefix marks a stored value as ciphertext.
const encryptedPrefix = "enc:"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte

	// Fields lists the columns encrypted at rest. Id, sort and scope
	// columns of a table are never encrypted.
	Fields []string
}

// ParseKey decodes a base64 AES-256 key.
func ParseKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

type encryptionMiddleware struct {
	next   ports.Repository
	config EncryptionConfig
	fields map[string]bool
}

// NewEncryptionMiddleware creates a middleware that encrypts the configured
// fields of every record with AES-GCM.
// Filters on encrypted fields are applied after decryption, so such lists
// read the whole scope.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	fields := make(map[string]bool, len(config.Fields))
	for _, f := range config.Fields {
		fields[f] = true
	}
	return func(next ports.Repository) ports.Repository {
		return &encryptionMiddleware{
			next:   next,
			config: config,
			fields: fields,
		}
	}
}

func (m *encryptionMiddleware) Insert(ctx context.Context, t domain.Table, rec domain.Record) (string, error) {
	sealed, err := m.seal(t, rec)
	if err != nil {
		return "", err
	}
	return m.next.Insert(ctx, t, sealed)
}

func (m *encryptionMiddleware) Update(ctx context.Context, t domain.Table, id string, rec domain.Record) error {
	sealed, err := m.seal(t, rec)
	if err != nil {
		return err
	}
	return m.next.Update(ctx, t, id, sealed)
}

func (m *encryptionMiddleware) Delete(ctx context.Context, t domain.Table, id string) error {
	return m.next.Delete(ctx, t, id)
}

func (m *encryptionMiddleware) Move(ctx context.Context, t domain.Table, id, targetID string, pos domain.Position) error {
	return m.next.Move(ctx, t, id, targetID, pos)
}

func (m *encryptionMiddleware) Get(ctx context.Context, t domain.Table, id string) (domain.Record, error) {
	rec, err := m.next.Get(ctx, t, id)
	if err != nil {
		return nil, err
	}
	return m.open(t, rec)
}

func (m *encryptionMiddleware) List(ctx context.Context, t domain.Table, q domain.Query) ([]domain.Record, int, error) {
	plain := make(map[string]string, len(q.Filters))
	sealed := make(map[string]string)
	for field, value := range q.Filters {
		if m.encrypted(t, field) {
			sealed[field] = value
		} else {
			plain[field] = value
		}
	}

	if len(sealed) == 0 {
		recs, total, err := m.next.List(ctx, t, q)
		if err != nil {
			return nil, 0, err
		}
		for i, rec := range recs {
			if recs[i], err = m.open(t, rec); err != nil {
				return nil, 0, err
			}
		}
		return recs, total, nil
	}

	all, _, err := m.next.List(ctx, t, domain.Query{Filters: plain})
	if err != nil {
		return nil, 0, err
	}
	post := domain.Query{Filters: sealed}
	var matched []domain.Record
	for _, rec := range all {
		opened, err := m.open(t, rec)
		if err != nil {
			return nil, 0, err
		}
		if post.Matches(opened) {
			matched = append(matched, opened)
		}
	}
	start, end := q.Window(len(matched))
	return matched[start:end], len(matched), nil
}

func (m *encryptionMiddleware) encrypted(t domain.Table, field string) bool {
	if !m.fields[field] || field == t.IDField || field == t.SortField {
		return false
	}
	_, scoped := t.Scope[field]
	return !scoped
}

func (m *encryptionMiddleware) seal(t domain.Table, rec domain.Record) (domain.Record, error) {
	out := rec.Clone()
	for field, value := range rec {
		if value == "" || !m.encrypted(t, field) {
			continue
		}
		ciphertext, err := encrypt([]byte(value), m.config.ActiveKey)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt field %s: %w", field, err)
		}
		out[field] = encryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext)
	}
	return out, nil
}

func (m *encryptionMiddleware) open(t domain.Table, rec domain.Record) (domain.Record, error) {
	out := rec.Clone()
	for field, value := range rec {
		if value == "" || !m.encrypted(t, field) {
			continue
		}
		encoded, ok := strings.CutPrefix(value, encryptedPrefix)
		if !ok {
			// Fail secure: a configured field must never hold plaintext.
			return nil, fmt.Errorf("field %s of %s is not encrypted", field, t.Name)
		}
		ciphertext, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode field %s: %w", field, err)
		}
		plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt field %s: %w", field, err)
		}
		out[field] = string(plainText)
	}
	return out, nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
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
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

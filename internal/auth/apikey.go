// Package auth maps resident API keys to resident IDs.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"
)

const apiKeyBytes = 32 // 256-bit keys

// APIKey is the stored representation of an API key (no raw key).
type APIKey struct {
	ID         int64
	Name       string
	KeyPrefix  string // first 8 chars for identification
	ResidentID int64
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

// APIKeyStore manages API keys in SQLite.
type APIKeyStore struct {
	db *sql.DB
}

// NewAPIKeyStore creates an API key store.
func NewAPIKeyStore(db *sql.DB) *APIKeyStore {
	return &APIKeyStore{db: db}
}

// Create generates a new API key for a resident.
// Returns the raw key (shown once to user) and the stored record.
func (s *APIKeyStore) Create(name string, residentID int64) (string, *APIKey, error) {
	if residentID <= 0 {
		return "", nil, fmt.Errorf("resident ID must be positive, got %d", residentID)
	}

	raw, err := generateAPIKey()
	if err != nil {
		return "", nil, fmt.Errorf("generating key: %w", err)
	}

	prefix := raw[:8]
	hash := hashAPIKey(raw)

	result, err := s.db.Exec(
		"INSERT INTO api_keys (name, key_prefix, key_hash, resident_id) VALUES (?, ?, ?, ?)",
		name, prefix, hash, residentID,
	)
	if err != nil {
		return "", nil, fmt.Errorf("storing key: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return "", nil, fmt.Errorf("getting key id: %w", err)
	}

	key := &APIKey{
		ID:         id,
		Name:       name,
		KeyPrefix:  prefix,
		ResidentID: residentID,
	}

	return raw, key, nil
}

// List returns a resident's API keys (without the raw key).
func (s *APIKeyStore) List(residentID int64) ([]APIKey, error) {
	rows, err := s.db.Query(
		"SELECT id, name, key_prefix, resident_id, created_at, last_used_at FROM api_keys WHERE resident_id = ? ORDER BY created_at DESC, id DESC",
		residentID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			fmt.Printf("closing rows: %v\n", cerr)
		}
	}()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyPrefix, &k.ResidentID, &k.CreatedAt, &k.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}

	return keys, rows.Err()
}

// Delete removes one of a resident's API keys.
func (s *APIKeyStore) Delete(id, residentID int64) error {
	result, err := s.db.Exec("DELETE FROM api_keys WHERE id = ? AND resident_id = ?", id, residentID)
	if err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("key not found")
	}

	return nil
}

// Validate checks a raw API key against stored hashes and updates
// last_used_at. Returns the owning resident ID, or 0 if the key is unknown.
func (s *APIKeyStore) Validate(rawKey string) (int64, error) {
	hash := hashAPIKey(rawKey)

	var residentID int64
	err := s.db.QueryRow(
		"UPDATE api_keys SET last_used_at = ? WHERE key_hash = ? RETURNING resident_id",
		time.Now(), hash,
	).Scan(&residentID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("validating key: %w", err)
	}

	return residentID, nil
}

func generateAPIKey() (string, error) {
	b := make([]byte, apiKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "gp_" + hex.EncodeToString(b), nil
}

func hashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

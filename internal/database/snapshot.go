package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Entry is one persisted cache record: a resource kind plus cache key
// mapping to the JSON payload last fetched for it.
type Entry struct {
	Kind      string
	CacheKey  string
	Payload   []byte
	UpdatedAt time.Time
}

// PutEntry inserts or replaces the payload for (kind, key)
func (db *DB) PutEntry(kind, key string, payload []byte) error {
	_, err := db.Exec(db.Dialect.UpsertEntryQuery(), kind, key, string(payload))
	if err != nil {
		return fmt.Errorf("failed to write snapshot entry %s/%s: %w", kind, key, err)
	}
	return nil
}

// GetEntry returns the payload for (kind, key), or nil if absent
func (db *DB) GetEntry(kind, key string) ([]byte, error) {
	var payload string
	query := "SELECT payload FROM snapshot_entries WHERE kind = ? AND cache_key = ?"
	err := db.QueryRow(query, kind, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot entry %s/%s: %w", kind, key, err)
	}
	return []byte(payload), nil
}

// ListEntries returns all payloads of one kind, keyed by cache key
func (db *DB) ListEntries(kind string) (map[string][]byte, error) {
	query := "SELECT cache_key, payload FROM snapshot_entries WHERE kind = ?"
	rows, err := db.Query(query, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot entries for %s: %w", kind, err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key, payload string
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, err
		}
		out[key] = []byte(payload)
	}
	return out, rows.Err()
}

// AllEntries returns every snapshot entry, for export
func (db *DB) AllEntries() ([]Entry, error) {
	query := "SELECT kind, cache_key, payload, updated_at FROM snapshot_entries ORDER BY kind, cache_key"
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var payload string
		if err := rows.Scan(&e.Kind, &e.CacheKey, &payload, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Payload = []byte(payload)
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteKind removes all entries of one kind
func (db *DB) DeleteKind(kind string) error {
	_, err := db.Exec("DELETE FROM snapshot_entries WHERE kind = ?", kind)
	return err
}

// ClearEntries removes every snapshot entry (logout)
func (db *DB) ClearEntries() error {
	_, err := db.Exec("DELETE FROM snapshot_entries")
	return err
}

// PutSealedCredential stores an encrypted bearer token for a role
func (db *DB) PutSealedCredential(role string, sealed []byte) error {
	_, err := db.Exec(db.Dialect.UpsertCredentialQuery(), role, sealed)
	if err != nil {
		return fmt.Errorf("failed to store credential for %s: %w", role, err)
	}
	return nil
}

// GetSealedCredential returns the encrypted bearer token for a role, or nil
func (db *DB) GetSealedCredential(role string) ([]byte, error) {
	var sealed []byte
	query := "SELECT sealed FROM sealed_credentials WHERE role = ?"
	err := db.QueryRow(query, role).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential for %s: %w", role, err)
	}
	return sealed, nil
}

// DeleteSealedCredential removes a stored credential (logout)
func (db *DB) DeleteSealedCredential(role string) error {
	_, err := db.Exec("DELETE FROM sealed_credentials WHERE role = ?", role)
	return err
}

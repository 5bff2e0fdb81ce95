package database

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// BackupData represents the complete snapshot export structure
type BackupData struct {
	Version    string        `json:"version"`
	ExportedAt time.Time     `json:"exported_at"`
	Entries    []EntryBackup `json:"entries"`
}

// EntryBackup represents one snapshot entry for export
type EntryBackup struct {
	Kind      string          `json:"kind"`
	CacheKey  string          `json:"cache_key"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
}

const backupVersion = "1"

// Export writes all snapshot entries as JSON. Sealed credentials are
// deliberately not exported.
func (db *DB) Export(w io.Writer) error {
	entries, err := db.AllEntries()
	if err != nil {
		return fmt.Errorf("failed to export snapshot: %w", err)
	}

	data := BackupData{
		Version:    backupVersion,
		ExportedAt: time.Now().UTC(),
		Entries:    make([]EntryBackup, 0, len(entries)),
	}
	for _, e := range entries {
		data.Entries = append(data.Entries, EntryBackup{
			Kind:      e.Kind,
			CacheKey:  e.CacheKey,
			Payload:   json.RawMessage(e.Payload),
			UpdatedAt: e.UpdatedAt,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// Import loads snapshot entries from a JSON export. With clear set, existing
// entries are removed first; either way imported entries replace same-key
// rows. The whole import runs in one transaction.
func (db *DB) Import(r io.Reader, clear bool) error {
	var data BackupData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if data.Version != backupVersion {
		return fmt.Errorf("unsupported backup version %q", data.Version)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	if clear {
		if _, err := tx.Exec("DELETE FROM snapshot_entries"); err != nil {
			return fmt.Errorf("failed to clear snapshot: %w", err)
		}
	}

	upsert := db.Dialect.UpsertEntryQuery()
	for _, e := range data.Entries {
		if _, err := tx.Exec(upsert, e.Kind, e.CacheKey, string(e.Payload)); err != nil {
			return fmt.Errorf("failed to import entry %s/%s: %w", e.Kind, e.CacheKey, err)
		}
	}

	return tx.Commit()
}

package database

import (
	"bytes"
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Initialize(filepath.Join(t.TempDir(), "snapshot_test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestSnapshotEntries(t *testing.T) {
	db := testDB(t)

	// Absent key reads as nil
	got, err := db.GetEntry("chapters", "course-1")
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetEntry() on absent key = %s, want nil", got)
	}

	if err := db.PutEntry("chapters", "course-1", []byte(`[{"id":"ch1"}]`)); err != nil {
		t.Fatalf("PutEntry() error = %v", err)
	}

	got, err = db.GetEntry("chapters", "course-1")
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if string(got) != `[{"id":"ch1"}]` {
		t.Errorf("GetEntry() = %s", got)
	}

	// Upsert replaces, never appends
	if err := db.PutEntry("chapters", "course-1", []byte(`[{"id":"ch2"}]`)); err != nil {
		t.Fatalf("PutEntry() replace error = %v", err)
	}
	got, _ = db.GetEntry("chapters", "course-1")
	if string(got) != `[{"id":"ch2"}]` {
		t.Errorf("GetEntry() after replace = %s, want second payload only", got)
	}

	if err := db.PutEntry("chapters", "course-2", []byte(`[]`)); err != nil {
		t.Fatalf("PutEntry() error = %v", err)
	}
	entries, err := db.ListEntries("chapters")
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("ListEntries() returned %d entries, want 2", len(entries))
	}

	if err := db.DeleteKind("chapters"); err != nil {
		t.Fatalf("DeleteKind() error = %v", err)
	}
	entries, _ = db.ListEntries("chapters")
	if len(entries) != 0 {
		t.Errorf("ListEntries() after DeleteKind returned %d entries", len(entries))
	}
}

func TestSealedCredentials(t *testing.T) {
	db := testDB(t)

	got, err := db.GetSealedCredential("therapist")
	if err != nil {
		t.Fatalf("GetSealedCredential() error = %v", err)
	}
	if got != nil {
		t.Error("GetSealedCredential() on absent role should return nil")
	}

	if err := db.PutSealedCredential("therapist", []byte{1, 2, 3}); err != nil {
		t.Fatalf("PutSealedCredential() error = %v", err)
	}
	got, err = db.GetSealedCredential("therapist")
	if err != nil {
		t.Fatalf("GetSealedCredential() error = %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("GetSealedCredential() = %v", got)
	}

	// Replace
	if err := db.PutSealedCredential("therapist", []byte{9}); err != nil {
		t.Fatalf("PutSealedCredential() replace error = %v", err)
	}
	got, _ = db.GetSealedCredential("therapist")
	if !bytes.Equal(got, []byte{9}) {
		t.Errorf("GetSealedCredential() after replace = %v", got)
	}

	if err := db.DeleteSealedCredential("therapist"); err != nil {
		t.Fatalf("DeleteSealedCredential() error = %v", err)
	}
	got, _ = db.GetSealedCredential("therapist")
	if got != nil {
		t.Error("GetSealedCredential() after delete should return nil")
	}
}

func TestExportImport(t *testing.T) {
	db := testDB(t)

	if err := db.PutEntry("courses", "all", []byte(`[{"id":"c1"}]`)); err != nil {
		t.Fatalf("PutEntry() error = %v", err)
	}
	if err := db.PutEntry("questions", "quiz-1", []byte(`[{"id":"q1"}]`)); err != nil {
		t.Fatalf("PutEntry() error = %v", err)
	}

	var buf bytes.Buffer
	if err := db.Export(&buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	other := testDB(t)
	if err := other.PutEntry("stale", "key", []byte(`{}`)); err != nil {
		t.Fatalf("PutEntry() error = %v", err)
	}
	if err := other.Import(bytes.NewReader(buf.Bytes()), true); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	got, err := other.GetEntry("courses", "all")
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if string(got) != `[{"id":"c1"}]` {
		t.Errorf("imported entry = %s", got)
	}

	stale, _ := other.GetEntry("stale", "key")
	if stale != nil {
		t.Error("clear import should have removed pre-existing entries")
	}
}

func TestImportRejectsUnknownVersion(t *testing.T) {
	db := testDB(t)
	err := db.Import(bytes.NewReader([]byte(`{"version":"99","entries":[]}`)), false)
	if err == nil {
		t.Fatal("Import() with unknown version should fail")
	}
}

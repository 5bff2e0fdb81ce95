package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"mindwell/internal/credentials"
	"mindwell/internal/database"
	"mindwell/internal/models"
	"mindwell/internal/transport"
)

func snapDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "store_snapshot_test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func kindFor(role credentials.Role, kind string) string {
	return string(role) + "/" + kind
}

func TestCandidateRestoresFromSnapshot(t *testing.T) {
	b := newFakeBackend(t)
	db := snapDB(t)

	seed := []byte(`[{"id":"c1","title":"Anxiety Basics"}]`)
	if err := db.PutEntry(kindFor(credentials.RoleCandidate, kindCourses), "all", seed); err != nil {
		t.Fatalf("PutEntry: %v", err)
	}

	s := NewCandidateStore(testClient(), b.hosts(), db)
	courses, ok := s.Courses()
	if !ok {
		t.Fatal("expected courses restored from snapshot at construction")
	}
	if len(courses) != 1 || courses[0].Title != "Anxiety Basics" {
		t.Fatalf("unexpected restored courses %v", courses)
	}
}

func TestLiveFetchOverridesSnapshotAndWritesThrough(t *testing.T) {
	b := newFakeBackend(t)
	db := snapDB(t)

	seed := []byte(`[{"id":"c1","title":"Stale Title"}]`)
	if err := db.PutEntry(kindFor(credentials.RoleCandidate, kindCourses), "all", seed); err != nil {
		t.Fatalf("PutEntry: %v", err)
	}

	s := NewCandidateStore(testClient(), b.hosts(), db)
	b.respond(transport.ActionListCourses, []models.Course{
		{ID: "c1", Title: "Fresh Title"},
		{ID: "c2", Title: "New Course"},
	})
	if err := s.FetchCourses(context.Background(), candidateCred()); err != nil {
		t.Fatalf("FetchCourses: %v", err)
	}

	courses, _ := s.Courses()
	if len(courses) != 2 || courses[0].Title != "Fresh Title" {
		t.Fatalf("live fetch did not replace restored data: %v", courses)
	}

	// The live payload must have replaced the durable entry too
	stored, err := db.GetEntry(kindFor(credentials.RoleCandidate, kindCourses), "all")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	var persisted []models.Course
	if err := json.Unmarshal(stored, &persisted); err != nil {
		t.Fatalf("decode persisted payload: %v", err)
	}
	if len(persisted) != 2 || persisted[0].Title != "Fresh Title" {
		t.Fatalf("snapshot not written through: %v", persisted)
	}
}

func TestTherapistRestoresSessionsFromSnapshot(t *testing.T) {
	b := newFakeBackend(t)
	db := snapDB(t)

	seed := []byte(`[{"id":"s1","therapist_id":"t1","status":"Scheduled"}]`)
	if err := db.PutEntry(kindFor(credentials.RoleTherapist, kindSessions), "all", seed); err != nil {
		t.Fatalf("PutEntry: %v", err)
	}

	s := NewTherapistStore(testClient(), b.hosts(), db)
	sessions, ok := s.Sessions()
	if !ok || len(sessions) != 1 {
		t.Fatalf("expected restored session list, got %v ok=%v", sessions, ok)
	}
	if sess, ok := s.SessionByID("s1"); !ok || sess.Status != models.SessionScheduled {
		t.Fatalf("expected restored session in index, got %+v ok=%v", sess, ok)
	}
}

func TestClearOnlyWipesOwnRole(t *testing.T) {
	b := newFakeBackend(t)
	db := snapDB(t)

	candidate := NewCandidateStore(testClient(), b.hosts(), db)
	therapist := NewTherapistStore(testClient(), b.hosts(), db)

	b.respond(transport.ActionListCourses, []models.Course{{ID: "c1", Title: "Anxiety Basics"}})
	if err := candidate.FetchCourses(context.Background(), candidateCred()); err != nil {
		t.Fatalf("FetchCourses: %v", err)
	}
	b.respond(transport.ActionGetSessionsByTherapist, []models.Session{
		{ID: "s1", TherapistID: "t1", Status: models.SessionScheduled},
	})
	if err := therapist.FetchSessions(context.Background(), therapistCred(), "t1"); err != nil {
		t.Fatalf("FetchSessions: %v", err)
	}

	therapist.Clear()

	stored, err := db.GetEntry(kindFor(credentials.RoleTherapist, kindSessions), "all")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if stored != nil {
		t.Fatal("expected therapist snapshot rows wiped on Clear")
	}

	// The candidate's warm-start data survives the other role's logout
	reopened := NewCandidateStore(testClient(), b.hosts(), db)
	courses, ok := reopened.Courses()
	if !ok || len(courses) != 1 {
		t.Fatalf("candidate snapshot lost after therapist Clear: %v ok=%v", courses, ok)
	}
}

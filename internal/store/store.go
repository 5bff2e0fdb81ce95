// Package store holds the per-role aggregate caches. Each store owns one
// slice of normalized domain state, mediates every fetch and mutation for
// its role's views, and exposes synchronous selectors over the cached data.
//
// Caching contract shared by all stores:
//   - parent-keyed collections have no entry until the parent was fetched;
//     absence means "not loaded", never "loaded empty"
//   - a refetch for a key replaces the prior value wholesale (the org
//     store's percentage/comparison accumulators are the documented
//     exception)
//   - mutations never patch local state; they refetch the parent collection
//   - a response from a superseded in-flight fetch is dropped, so a slow
//     earlier request cannot overwrite a newer cache entry
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"mindwell/internal/config"
	"mindwell/internal/credentials"
	"mindwell/internal/database"
	"mindwell/internal/transport"
)

var ErrRequestFailed = errors.New("request failed")

// Hosts is the set of backend service hosts the stores talk to
type Hosts struct {
	Course       string
	Chapter      string
	Quiz         string
	Reports      string
	Organization string
	Session      string
	Therapist    string
	Patient      string
}

// HostsFromConfig extracts the host set from application config
func HostsFromConfig(cfg *config.Config) Hosts {
	return Hosts{
		Course:       cfg.CourseHost,
		Chapter:      cfg.ChapterHost,
		Quiz:         cfg.QuizHost,
		Reports:      cfg.ReportsHost,
		Organization: cfg.OrganizationHost,
		Session:      cfg.SessionHost,
		Therapist:    cfg.TherapistHost,
		Patient:      cfg.PatientHost,
	}
}

// base carries the pieces every role store shares: the transport client,
// the host set, the optional durable snapshot, and the fencing state.
// Snapshot rows are namespaced by role so stores can share one database
// and one role's logout leaves the others' warm-start data intact.
type base struct {
	client *transport.Client
	hosts  Hosts
	snap   *database.DB
	role   credentials.Role

	mu   sync.RWMutex
	gens map[string]uint64
}

func newBase(client *transport.Client, hosts Hosts, snap *database.DB, role credentials.Role) base {
	return base{
		client: client,
		hosts:  hosts,
		snap:   snap,
		role:   role,
		gens:   make(map[string]uint64),
	}
}

// kind returns the role-namespaced snapshot kind for a cache kind
func (b *base) kind(k string) string {
	return string(b.role) + "/" + k
}

// beginFetch registers a new in-flight fetch for a cache key and returns
// its generation. Call with b.mu held.
func (b *base) beginFetch(key string) uint64 {
	b.gens[key]++
	return b.gens[key]
}

// isCurrent reports whether gen is still the newest fetch for key.
// Call with b.mu held.
func (b *base) isCurrent(key string, gen uint64) bool {
	return b.gens[key] == gen
}

// do issues one adapter call and surfaces HTTP-level failures as errors.
// The raw payload is returned for snapshot write-through.
func (b *base) do(ctx context.Context, ep transport.Endpoint, cred *credentials.Credential, body, out interface{}) (json.RawMessage, error) {
	res, err := b.client.Do(ctx, ep, cred, body)
	if err != nil {
		log.Printf("%s: %v", ep.Action, err)
		return nil, err
	}
	if !res.OK {
		err := fmt.Errorf("%s: %w (status %d)", ep.Action, ErrRequestFailed, res.Status)
		log.Printf("%v", err)
		return nil, err
	}
	if out != nil {
		if err := res.Decode(out); err != nil {
			log.Printf("%s: %v", ep.Action, err)
			return nil, err
		}
	}
	return res.Data, nil
}

// persist writes a fetched payload through to the durable snapshot.
// Snapshot failures are logged, never surfaced: the live cache is already
// up to date and the snapshot is only a warm-start optimization.
func (b *base) persist(kind, key string, payload json.RawMessage) {
	if b.snap == nil {
		return
	}
	if err := b.snap.PutEntry(b.kind(kind), key, payload); err != nil {
		log.Printf("snapshot write %s/%s: %v", kind, key, err)
	}
}

// restoreList loads one snapshot kind into a parent-keyed map of slices.
// Live fetches later replace these entries (live always wins).
func restoreList[T any](snap *database.DB, kind string, into map[string][]T) {
	if snap == nil {
		return
	}
	entries, err := snap.ListEntries(kind)
	if err != nil {
		log.Printf("snapshot restore %s: %v", kind, err)
		return
	}
	for key, payload := range entries {
		var items []T
		if err := json.Unmarshal(payload, &items); err != nil {
			log.Printf("snapshot restore %s/%s: %v", kind, key, err)
			continue
		}
		into[key] = items
	}
}

// restoreMap loads one snapshot kind into a key-to-value map. Live fetches
// later replace these entries (live always wins).
func restoreMap[T any](snap *database.DB, kind string, into map[string]T) {
	if snap == nil {
		return
	}
	entries, err := snap.ListEntries(kind)
	if err != nil {
		log.Printf("snapshot restore %s: %v", kind, err)
		return
	}
	for key, payload := range entries {
		var item T
		if err := json.Unmarshal(payload, &item); err != nil {
			log.Printf("snapshot restore %s/%s: %v", kind, key, err)
			continue
		}
		into[key] = item
	}
}

// restoreOne loads a single snapshot entry into a typed value, reporting
// whether it was present.
func restoreOne[T any](snap *database.DB, kind, key string, into *T) bool {
	if snap == nil {
		return false
	}
	payload, err := snap.GetEntry(kind, key)
	if err != nil || payload == nil {
		return false
	}
	if err := json.Unmarshal(payload, into); err != nil {
		log.Printf("snapshot restore %s/%s: %v", kind, key, err)
		return false
	}
	return true
}

// clearSnapshot wipes the store's own slice of the durable tier and the
// role's stored credential on logout. Other roles' rows in a shared
// database are untouched. Failures are logged; the live cache is already
// cleared.
func (b *base) clearSnapshot() {
	if b.snap == nil {
		return
	}
	for _, k := range allKinds {
		if err := b.snap.DeleteKind(b.kind(k)); err != nil {
			log.Printf("snapshot clear %s: %v", b.kind(k), err)
		}
	}
	if err := b.snap.DeleteSealedCredential(string(b.role)); err != nil {
		log.Printf("credential clear for %s: %v", b.role, err)
	}
}

// Snapshot kinds, shared across the role stores.
const (
	kindCourses         = "courses"
	kindChapters        = "chapters"
	kindQuizzes         = "quizzes"
	kindQuestions       = "questions"
	kindNorms           = "norms"
	kindSubmissions     = "submissions"
	kindReports         = "reports"
	kindOrgReports      = "org_reports"
	kindOrganizations   = "organizations"
	kindEmployees       = "employees"
	kindAssignedCourses = "assigned_courses"
	kindSessions        = "sessions"
	kindPatients        = "patients"
)

var allKinds = []string{
	kindCourses, kindChapters, kindQuizzes, kindQuestions, kindNorms,
	kindSubmissions, kindReports, kindOrgReports, kindOrganizations,
	kindEmployees, kindAssignedCourses, kindSessions, kindPatients,
}

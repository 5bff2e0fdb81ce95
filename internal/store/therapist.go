package store

import (
	"context"
	"fmt"

	"mindwell/internal/credentials"
	"mindwell/internal/database"
	"mindwell/internal/models"
	"mindwell/internal/session"
	"mindwell/internal/transport"
	"mindwell/internal/validation"
)

// TherapistStore caches one therapist's state: profile, assigned patients,
// and sessions. Lifecycle actions are checked against the cached session
// state before any call, so an illegal transition never reaches the server.
type TherapistStore struct {
	base

	profile       models.Therapist
	profileLoaded bool

	patients       []models.Patient
	patientsLoaded bool
	patientByID    map[string]models.Patient

	sessions       []models.Session
	sessionsLoaded bool
	sessionByID    map[string]models.Session
}

// NewTherapistStore creates the therapist store, restoring snapshot state
func NewTherapistStore(client *transport.Client, hosts Hosts, snap *database.DB) *TherapistStore {
	s := &TherapistStore{
		base:        newBase(client, hosts, snap, credentials.RoleTherapist),
		patientByID: make(map[string]models.Patient),
		sessionByID: make(map[string]models.Session),
	}
	s.sessionsLoaded = restoreOne(snap, s.kind(kindSessions), "all", &s.sessions)
	s.patientsLoaded = restoreOne(snap, s.kind(kindPatients), "all", &s.patients)
	for _, sess := range s.sessions {
		s.sessionByID[sess.ID] = sess
	}
	for _, p := range s.patients {
		s.patientByID[p.ID] = p
	}
	return s
}

// Login authenticates a therapist and returns a credential built from the
// issued bearer token. The login call itself is the only unauthenticated
// request in the client.
func (s *TherapistStore) Login(ctx context.Context, email, password string) (*credentials.Credential, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}

	body := map[string]string{"email": email, "password": password}
	var out struct {
		Token string `json:"token"`
	}
	if _, err := s.do(ctx, transport.Public(s.hosts.Therapist, transport.ActionLoginTherapist), nil, body, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("loginTherapist: %w (empty token)", ErrRequestFailed)
	}
	return credentials.NewStatic(out.Token), nil
}

// FetchProfile replaces the cached therapist profile
func (s *TherapistStore) FetchProfile(ctx context.Context, cred *credentials.Credential) error {
	var profile models.Therapist
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Therapist, transport.ActionGetTherapistProfile), cred, struct{}{}, &profile); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
	s.profileLoaded = true
	return nil
}

// Profile returns the cached therapist profile
func (s *TherapistStore) Profile() (models.Therapist, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile, s.profileLoaded
}

// FetchAssignedPatients replaces the cached patient list
func (s *TherapistStore) FetchAssignedPatients(ctx context.Context, cred *credentials.Credential) error {
	s.mu.Lock()
	gen := s.beginFetch(kindPatients)
	s.mu.Unlock()

	var patients []models.Patient
	raw, err := s.do(ctx, transport.Bearer(s.hosts.Patient, transport.ActionGetAssignedPatients), cred, struct{}{}, &patients)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(kindPatients, gen) {
		return nil
	}
	s.patients = patients
	s.patientsLoaded = true
	s.patientByID = make(map[string]models.Patient, len(patients))
	for _, p := range patients {
		s.patientByID[p.ID] = p
	}
	s.persist(kindPatients, "all", raw)
	return nil
}

// Patients returns the cached assigned patients
func (s *TherapistStore) Patients() ([]models.Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.patientsLoaded {
		return nil, false
	}
	return append([]models.Patient(nil), s.patients...), true
}

// FetchPatient fetches one patient and merges it into the patient index
func (s *TherapistStore) FetchPatient(ctx context.Context, cred *credentials.Credential, patientID string) error {
	body := map[string]string{"id": patientID}
	var patient models.Patient
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Patient, transport.ActionGetPatient), cred, body, &patient); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.patientByID[patient.ID] = patient
	return nil
}

// PatientByID returns a patient from the index
func (s *TherapistStore) PatientByID(id string) (models.Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patientByID[id]
	return p, ok
}

// FetchSessions replaces the therapist's session list wholesale
func (s *TherapistStore) FetchSessions(ctx context.Context, cred *credentials.Credential, therapistID string) error {
	s.mu.Lock()
	gen := s.beginFetch(kindSessions)
	s.mu.Unlock()

	body := map[string]string{"therapist_id": therapistID}
	var sessions []models.Session
	raw, err := s.do(ctx, transport.Bearer(s.hosts.Session, transport.ActionGetSessionsByTherapist), cred, body, &sessions)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(kindSessions, gen) {
		return nil
	}
	s.sessions = sessions
	s.sessionsLoaded = true
	for _, sess := range sessions {
		s.sessionByID[sess.ID] = sess
	}
	s.persist(kindSessions, "all", raw)
	return nil
}

// Sessions returns the cached session list
func (s *TherapistStore) Sessions() ([]models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.sessionsLoaded {
		return nil, false
	}
	return append([]models.Session(nil), s.sessions...), true
}

// FetchSession refetches one session and replaces its index entry. This is
// the poller's fetch target.
func (s *TherapistStore) FetchSession(ctx context.Context, cred *credentials.Credential, sessionID string) (models.Session, error) {
	fenceKey := kindSessions + "/" + sessionID
	s.mu.Lock()
	gen := s.beginFetch(fenceKey)
	s.mu.Unlock()

	body := map[string]string{"id": sessionID}
	var sess models.Session
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Session, transport.ActionGetSession), cred, body, &sess); err != nil {
		return models.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isCurrent(fenceKey, gen) {
		s.sessionByID[sess.ID] = sess
	}
	return sess, nil
}

// SessionByID returns a session from the index
func (s *TherapistStore) SessionByID(id string) (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessionByID[id]
	return sess, ok
}

// SessionInput is the payload for scheduling a session
type SessionInput struct {
	TherapistID string `json:"therapist_id"`
	PatientID   string `json:"patient_id"`
	Title       string `json:"title"`
	ScheduledAt string `json:"scheduled_at"`
}

// CreateSession schedules a session, then refetches the session list
func (s *TherapistStore) CreateSession(ctx context.Context, cred *credentials.Credential, in SessionInput) error {
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Session, transport.ActionCreateSession), cred, in, nil); err != nil {
		return err
	}
	return s.FetchSessions(ctx, cred, in.TherapistID)
}

// StartSession moves a scheduled session to In Progress. Starting a
// cancelled or completed session is rejected locally and never transitions.
func (s *TherapistStore) StartSession(ctx context.Context, cred *credentials.Credential, sessionID string) error {
	if err := s.checkTransition(sessionID, models.SessionInProgress); err != nil {
		return err
	}
	body := map[string]string{"id": sessionID}
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Session, transport.ActionStartSession), cred, body, nil); err != nil {
		return err
	}
	_, err := s.FetchSession(ctx, cred, sessionID)
	return err
}

// EndSession completes an in-progress session. The freeform feedback text
// is required; Completed is only reachable from In Progress.
func (s *TherapistStore) EndSession(ctx context.Context, cred *credentials.Credential, sessionID, feedback string) error {
	if err := validation.ValidateFeedback(feedback); err != nil {
		return err
	}
	if err := s.checkTransition(sessionID, models.SessionCompleted); err != nil {
		return err
	}
	body := map[string]string{"id": sessionID, "feedback": feedback}
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Session, transport.ActionEndSession), cred, body, nil); err != nil {
		return err
	}
	_, err := s.FetchSession(ctx, cred, sessionID)
	return err
}

// CancelSession cancels a scheduled session
func (s *TherapistStore) CancelSession(ctx context.Context, cred *credentials.Credential, sessionID string) error {
	if err := s.checkTransition(sessionID, models.SessionCancelled); err != nil {
		return err
	}
	body := map[string]string{"id": sessionID}
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Session, transport.ActionCancelSession), cred, body, nil); err != nil {
		return err
	}
	_, err := s.FetchSession(ctx, cred, sessionID)
	return err
}

// checkTransition validates a lifecycle move against the cached session
func (s *TherapistStore) checkTransition(sessionID string, to models.SessionStatus) error {
	s.mu.RLock()
	sess, ok := s.sessionByID[sessionID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("session %s not loaded: %w", sessionID, session.ErrInvalidTransition)
	}
	return session.CheckTransition(sess.Status, to)
}

// ApproveEntrant moves a named entrant from the session's waiting list to
// its participants and pushes the whole metadata document. Last write
// wins: two admins approving concurrently can silently drop one change.
func (s *TherapistStore) ApproveEntrant(ctx context.Context, cred *credentials.Credential, sessionID, name string) error {
	return s.updateWaitingList(ctx, cred, sessionID, name, session.Approve)
}

// DenyEntrant removes a named entrant from the waiting list without adding
// them to the participants
func (s *TherapistStore) DenyEntrant(ctx context.Context, cred *credentials.Credential, sessionID, name string) error {
	return s.updateWaitingList(ctx, cred, sessionID, name, session.Deny)
}

func (s *TherapistStore) updateWaitingList(ctx context.Context, cred *credentials.Credential, sessionID, name string, apply func(models.SessionMetadata, string) (models.SessionMetadata, error)) error {
	if err := validation.ValidateParticipantName(name); err != nil {
		return err
	}

	s.mu.RLock()
	sess, ok := s.sessionByID[sessionID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("session %s not loaded: %w", sessionID, session.ErrNotWaiting)
	}

	meta, err := apply(sess.Metadata, name)
	if err != nil {
		return err
	}

	body := struct {
		ID       string                 `json:"id"`
		Metadata models.SessionMetadata `json:"metadata"`
	}{ID: sessionID, Metadata: meta}
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Session, transport.ActionUpdateSession), cred, body, nil); err != nil {
		return err
	}
	_, err = s.FetchSession(ctx, cred, sessionID)
	return err
}

// Clear drops all cached therapist state, both live and durable (logout)
func (s *TherapistStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = models.Therapist{}
	s.profileLoaded = false
	s.patients = nil
	s.patientsLoaded = false
	s.patientByID = make(map[string]models.Patient)
	s.sessions = nil
	s.sessionsLoaded = false
	s.sessionByID = make(map[string]models.Session)
	s.clearSnapshot()
}

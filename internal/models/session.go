package models

import "time"

// SessionStatus is the lifecycle state of a therapy session
type SessionStatus string

const (
	SessionScheduled  SessionStatus = "Scheduled"
	SessionInProgress SessionStatus = "In Progress"
	SessionCompleted  SessionStatus = "Completed"
	SessionCancelled  SessionStatus = "Cancelled"
)

// Terminal reports whether the status can never transition again.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// SessionMetadata is the mutable document attached to a session. Updates
// resend the whole document (last write wins).
type SessionMetadata struct {
	Waiting      []string `json:"waiting"`
	Participants []string `json:"participants"`
	Notes        string   `json:"notes,omitempty"`
}

// Session represents one scheduled therapy session
type Session struct {
	ID          string          `json:"id"`
	TherapistID string          `json:"therapist_id"`
	PatientID   string          `json:"patient_id"`
	Title       string          `json:"title"`
	Status      SessionStatus   `json:"status"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	EndedAt     *time.Time      `json:"ended_at,omitempty"`
	Feedback    string          `json:"feedback,omitempty"`
	Metadata    SessionMetadata `json:"metadata"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Therapist represents a therapist profile
type Therapist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Specialty string    `json:"specialty,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Patient represents a patient assigned to a therapist
type Patient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Gender    string    `json:"gender,omitempty"`
	Age       int       `json:"age,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

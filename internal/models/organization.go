package models

import "time"

// Organization represents a customer organization profile
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Approved  bool      `json:"approved"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Employee is a candidate account belonging to exactly one organization
type Employee struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Gender    string    `json:"gender,omitempty"`
	Age       int       `json:"age,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChapterPct is one high-score percentage entry for a chapter, as returned
// by the org report endpoints.
type ChapterPct struct {
	ChapterID   string  `json:"chapter_id"`
	ScaleName   string  `json:"scale_name"`
	HighPct     float64 `json:"high_pct"`
	SampleSize  int     `json:"sample_size"`
	CourseID    string  `json:"course_id"`
	CourseTitle string  `json:"course_title,omitempty"`
}

// ChapterComparison compares an organization's chapter average against
// the population average.
type ChapterComparison struct {
	ChapterID string  `json:"chapter_id"`
	ScaleName string  `json:"scale_name"`
	OrgAvg    float64 `json:"org_avg"`
	OthersAvg float64 `json:"others_avg"`
	CourseID  string  `json:"course_id"`
}

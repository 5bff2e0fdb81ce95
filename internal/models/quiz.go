package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// QuestionType identifies how a question's options are structured
type QuestionType string

const (
	QuestionSingle   QuestionType = "single"
	QuestionMultiple QuestionType = "multiple"
	QuestionLikert   QuestionType = "likert"
)

// Quiz represents a question grouping within a chapter
type Quiz struct {
	ID             string    `json:"id"`
	ChapterID      string    `json:"chapter_id"`
	CourseID       string    `json:"course_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	TotalQuestions int       `json:"total_questions"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Options holds a question's answer choices. The wire shape differs by
// question type: single/multiple questions send an ordered JSON array,
// likert questions send an object keyed by ordinal ("1".."5").
type Options struct {
	Choices []string       // set for single/multiple
	Scale   map[int]string // set for likert, keyed 1..5
}

// UnmarshalJSON accepts either the array or the ordinal-map shape.
func (o *Options) UnmarshalJSON(data []byte) error {
	o.Choices = nil
	o.Scale = nil

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		o.Choices = list
		return nil
	}

	var keyed map[string]string
	if err := json.Unmarshal(data, &keyed); err != nil {
		return fmt.Errorf("options: unsupported shape: %w", err)
	}

	o.Scale = make(map[int]string, len(keyed))
	for k, v := range keyed {
		n, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("options: non-ordinal key %q", k)
		}
		o.Scale[n] = v
	}
	return nil
}

// MarshalJSON writes back the same shape the options were decoded from.
func (o Options) MarshalJSON() ([]byte, error) {
	if o.Scale != nil {
		keyed := make(map[string]string, len(o.Scale))
		for k, v := range o.Scale {
			keyed[strconv.Itoa(k)] = v
		}
		return json.Marshal(keyed)
	}
	return json.Marshal(o.Choices)
}

// Ordered returns the option labels in presentation order regardless of shape.
func (o Options) Ordered() []string {
	if o.Scale == nil {
		return o.Choices
	}
	keys := make([]int, 0, len(o.Scale))
	for k := range o.Scale {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, o.Scale[k])
	}
	return out
}

// Question represents one item in a quiz
type Question struct {
	ID        string       `json:"id"`
	QuizID    string       `json:"quiz_id"`
	ChapterID string       `json:"chapter_id"`
	Text      string       `json:"question"`
	Type      QuestionType `json:"type"`
	Options   Options      `json:"options"`
	Answer    string       `json:"answer,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Submission records one answer event for a (user, question) pair
type Submission struct {
	ID             string    `json:"id"`
	QuizID         string    `json:"quiz_id"`
	CourseID       string    `json:"course_id"`
	ChapterID      string    `json:"chapter_id"`
	QuestionID     string    `json:"question_id"`
	UserID         string    `json:"user_id"`
	SelectedOption string    `json:"selected_option"`
	Score          float64   `json:"score"`
	CreatedAt      time.Time `json:"created_at"`
}

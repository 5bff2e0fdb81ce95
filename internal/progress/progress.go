// Package progress drives a candidate through a course's question sequence
// one answer at a time. The runner never tracks its own answered count: the
// server-side submission count is the single source of truth, so resuming a
// partially answered course always lands on the first unanswered question.
package progress

import (
	"context"
	"errors"
	"fmt"

	"mindwell/internal/credentials"
	"mindwell/internal/models"
	"mindwell/internal/store"
)

var (
	ErrNotInProgress = errors.New("assessment is not in progress")
	ErrNoSelection   = errors.New("no option selected for the current question")
)

// State is the runner's lifecycle phase
type State string

const (
	StateLoading    State = "loading"
	StateInProgress State = "in_progress"
	StateComplete   State = "complete"
)

// Submitter is the slice of the candidate store the runner depends on
type Submitter interface {
	FetchSubmissions(ctx context.Context, cred *credentials.Credential, courseID string) error
	Submissions(courseID string) ([]models.Submission, bool)
	SubmitAnswer(ctx context.Context, cred *credentials.Credential, in store.AnswerInput) error
}

// Runner steps through one course's ordered question sequence. The visible
// question is always questions[submitted]; a selection is held locally and
// only becomes durable when Advance succeeds.
type Runner struct {
	sub       Submitter
	cred      *credentials.Credential
	courseID  string
	questions []models.Question

	state     State
	index     int
	selection string
}

// New creates a runner over a course's flattened question sequence. The
// questions must be in presentation order; call Load before stepping.
func New(sub Submitter, cred *credentials.Credential, courseID string, questions []models.Question) *Runner {
	return &Runner{
		sub:       sub,
		cred:      cred,
		courseID:  courseID,
		questions: append([]models.Question(nil), questions...),
		state:     StateLoading,
	}
}

// Load fetches the candidate's submissions and positions the runner on the
// first unanswered question. Safe to call again to re-sync after a failure.
func (r *Runner) Load(ctx context.Context) error {
	if err := r.sub.FetchSubmissions(ctx, r.cred, r.courseID); err != nil {
		return err
	}
	subs, ok := r.sub.Submissions(r.courseID)
	if !ok {
		return fmt.Errorf("submissions for course %s not loaded", r.courseID)
	}
	r.index = len(subs)
	r.selection = ""
	if r.index >= len(r.questions) {
		r.index = len(r.questions)
		r.state = StateComplete
	} else {
		r.state = StateInProgress
	}
	return nil
}

// State returns the runner's phase
func (r *Runner) State() State {
	return r.state
}

// Position returns the zero-based index of the visible question and the
// total question count.
func (r *Runner) Position() (int, int) {
	return r.index, len(r.questions)
}

// Current returns the visible question; ok is false when the runner is not
// in progress.
func (r *Runner) Current() (models.Question, bool) {
	if r.state != StateInProgress || r.index >= len(r.questions) {
		return models.Question{}, false
	}
	return r.questions[r.index], true
}

// Select records an option for the visible question. Nothing is sent; a
// re-selection before Advance simply replaces the previous one.
func (r *Runner) Select(option string) error {
	if r.state != StateInProgress {
		return ErrNotInProgress
	}
	r.selection = option
	return nil
}

// Selection returns the locally held option for the visible question
func (r *Runner) Selection() string {
	return r.selection
}

// Advance submits the held selection for the visible question and moves to
// the next one. On any submit failure the runner stays on the same question
// with the selection intact, so the caller can retry.
func (r *Runner) Advance(ctx context.Context) error {
	if r.state != StateInProgress {
		return ErrNotInProgress
	}
	if r.selection == "" {
		return ErrNoSelection
	}

	q := r.questions[r.index]
	in := store.AnswerInput{
		CourseID:       r.courseID,
		ChapterID:      q.ChapterID,
		QuizID:         q.QuizID,
		QuestionID:     q.ID,
		SelectedOption: r.selection,
	}
	if err := r.sub.SubmitAnswer(ctx, r.cred, in); err != nil {
		return err
	}

	r.index++
	r.selection = ""
	if r.index >= len(r.questions) {
		r.state = StateComplete
	}
	return nil
}

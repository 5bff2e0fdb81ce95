package progress

import (
	"context"
	"errors"
	"testing"

	"mindwell/internal/credentials"
	"mindwell/internal/models"
	"mindwell/internal/store"
)

// fakeSubmitter mimics the candidate store's submission surface: every
// accepted answer grows the server-side count, which Load re-reads.
type fakeSubmitter struct {
	submissions map[string][]models.Submission
	submitErr   error
	submitted   []store.AnswerInput
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{submissions: make(map[string][]models.Submission)}
}

func (f *fakeSubmitter) FetchSubmissions(ctx context.Context, cred *credentials.Credential, courseID string) error {
	if _, ok := f.submissions[courseID]; !ok {
		f.submissions[courseID] = []models.Submission{}
	}
	return nil
}

func (f *fakeSubmitter) Submissions(courseID string) ([]models.Submission, bool) {
	subs, ok := f.submissions[courseID]
	return subs, ok
}

func (f *fakeSubmitter) SubmitAnswer(ctx context.Context, cred *credentials.Credential, in store.AnswerInput) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, in)
	f.submissions[in.CourseID] = append(f.submissions[in.CourseID], models.Submission{
		CourseID:       in.CourseID,
		QuestionID:     in.QuestionID,
		SelectedOption: in.SelectedOption,
	})
	return nil
}

func testQuestions() []models.Question {
	return []models.Question{
		{ID: "qu1", QuizID: "q1", ChapterID: "ch1", Text: "Feeling nervous or on edge?", Type: models.QuestionLikert},
		{ID: "qu2", QuizID: "q1", ChapterID: "ch1", Text: "Unable to stop worrying?", Type: models.QuestionLikert},
		{ID: "qu3", QuizID: "q2", ChapterID: "ch2", Text: "Trouble relaxing?", Type: models.QuestionLikert},
	}
}

func testCred() *credentials.Credential {
	return credentials.NewStatic("candidate-token")
}

func TestRunnerWalksSequence(t *testing.T) {
	sub := newFakeSubmitter()
	r := New(sub, testCred(), "c1", testQuestions())

	if r.State() != StateLoading {
		t.Fatalf("expected loading before Load, got %q", r.State())
	}
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.State() != StateInProgress {
		t.Fatalf("expected in_progress, got %q", r.State())
	}

	answers := []string{"Several days", "Nearly every day", "Not at all"}
	for i, answer := range answers {
		q, ok := r.Current()
		if !ok {
			t.Fatalf("step %d: no current question", i)
		}
		if q.ID != testQuestions()[i].ID {
			t.Fatalf("step %d: expected %s, got %s", i, testQuestions()[i].ID, q.ID)
		}
		if err := r.Select(answer); err != nil {
			t.Fatalf("step %d Select: %v", i, err)
		}
		if err := r.Advance(context.Background()); err != nil {
			t.Fatalf("step %d Advance: %v", i, err)
		}
	}

	if r.State() != StateComplete {
		t.Fatalf("expected complete, got %q", r.State())
	}
	if len(sub.submitted) != 3 {
		t.Fatalf("expected 3 submits, got %d", len(sub.submitted))
	}
	if sub.submitted[1].QuestionID != "qu2" || sub.submitted[1].SelectedOption != "Nearly every day" {
		t.Fatalf("unexpected second submit %+v", sub.submitted[1])
	}
}

func TestRunnerAdvanceRequiresSelection(t *testing.T) {
	sub := newFakeSubmitter()
	r := New(sub, testCred(), "c1", testQuestions())
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := r.Advance(context.Background()); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if len(sub.submitted) != 0 {
		t.Fatal("advance without selection must not submit")
	}
}

func TestRunnerStaysOnSubmitFailure(t *testing.T) {
	sub := newFakeSubmitter()
	r := New(sub, testCred(), "c1", testQuestions())
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := r.Select("Several days"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	sub.submitErr = errors.New("backend down")
	if err := r.Advance(context.Background()); err == nil {
		t.Fatal("expected submit failure to surface")
	}

	if idx, _ := r.Position(); idx != 0 {
		t.Fatalf("failed advance moved the runner to %d", idx)
	}
	if r.Selection() != "Several days" {
		t.Fatal("failed advance dropped the selection")
	}

	sub.submitErr = nil
	if err := r.Advance(context.Background()); err != nil {
		t.Fatalf("retry Advance: %v", err)
	}
	if idx, _ := r.Position(); idx != 1 {
		t.Fatalf("expected index 1 after retry, got %d", idx)
	}
}

func TestRunnerResumesFromSubmissionCount(t *testing.T) {
	sub := newFakeSubmitter()
	sub.submissions["c1"] = []models.Submission{
		{CourseID: "c1", QuestionID: "qu1"},
		{CourseID: "c1", QuestionID: "qu2"},
	}

	r := New(sub, testCred(), "c1", testQuestions())
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	q, ok := r.Current()
	if !ok || q.ID != "qu3" {
		t.Fatalf("expected to resume on qu3, got %+v ok=%v", q, ok)
	}
	if idx, total := r.Position(); idx != 2 || total != 3 {
		t.Fatalf("expected position 2/3, got %d/%d", idx, total)
	}
}

func TestRunnerCompleteWhenAllSubmitted(t *testing.T) {
	sub := newFakeSubmitter()
	sub.submissions["c1"] = []models.Submission{
		{CourseID: "c1", QuestionID: "qu1"},
		{CourseID: "c1", QuestionID: "qu2"},
		{CourseID: "c1", QuestionID: "qu3"},
	}

	r := New(sub, testCred(), "c1", testQuestions())
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.State() != StateComplete {
		t.Fatalf("expected complete on load, got %q", r.State())
	}
	if _, ok := r.Current(); ok {
		t.Fatal("completed runner must not expose a current question")
	}
	if err := r.Select("anything"); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("expected ErrNotInProgress, got %v", err)
	}
}

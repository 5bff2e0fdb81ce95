package store

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"mindwell/internal/credentials"
	"mindwell/internal/models"
	"mindwell/internal/transport"
	"mindwell/internal/validation"
)

func newCandidateStore(b *fakeBackend) *CandidateStore {
	return NewCandidateStore(testClient(), b.hosts(), nil)
}

func candidateCred() *credentials.Credential {
	return credentials.NewStatic("candidate-token")
}

func TestCandidateSubmitAnswerAttachesRequestID(t *testing.T) {
	b := newFakeBackend(t)
	s := newCandidateStore(b)

	var got AnswerInput
	b.handle(transport.ActionSubmitSingle, func(w http.ResponseWriter, r *http.Request) {
		decodeBody(t, r, &got)
		w.Write([]byte(`{}`))
	})

	in := AnswerInput{
		CourseID:       "c1",
		ChapterID:      "ch1",
		QuizID:         "q1",
		QuestionID:     "qu1",
		SelectedOption: "Several days",
	}
	if err := s.SubmitAnswer(context.Background(), candidateCred(), in); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if got.RequestID == "" {
		t.Fatal("expected a generated request id on the wire")
	}
	if got.SelectedOption != "Several days" {
		t.Fatalf("unexpected selection %q", got.SelectedOption)
	}
}

func TestCandidateSubmitAnswerRejectsEmptySelection(t *testing.T) {
	b := newFakeBackend(t)
	s := newCandidateStore(b)

	in := AnswerInput{CourseID: "c1", QuestionID: "qu1"}
	err := s.SubmitAnswer(context.Background(), candidateCred(), in)
	if !errors.Is(err, validation.ErrSelectionRequired) {
		t.Fatalf("expected ErrSelectionRequired, got %v", err)
	}
	if got := b.callCount(transport.ActionSubmitSingle); got != 0 {
		t.Fatalf("expected no backend call, got %d", got)
	}
}

func TestCandidateSubmissionsReplaceOnRefetch(t *testing.T) {
	b := newFakeBackend(t)
	s := newCandidateStore(b)

	if _, ok := s.Submissions("c1"); ok {
		t.Fatal("expected submissions absent before fetch")
	}

	b.respond(transport.ActionGetSubmissions, []models.Submission{
		{ID: "s1", CourseID: "c1", QuestionID: "qu1"},
	})
	if err := s.FetchSubmissions(context.Background(), candidateCred(), "c1"); err != nil {
		t.Fatalf("first FetchSubmissions: %v", err)
	}

	b.respond(transport.ActionGetSubmissions, []models.Submission{
		{ID: "s1", CourseID: "c1", QuestionID: "qu1"},
		{ID: "s2", CourseID: "c1", QuestionID: "qu2"},
	})
	if err := s.FetchSubmissions(context.Background(), candidateCred(), "c1"); err != nil {
		t.Fatalf("second FetchSubmissions: %v", err)
	}

	subs, ok := s.Submissions("c1")
	if !ok || len(subs) != 2 {
		t.Fatalf("expected 2 submissions after refetch, got %d ok=%v", len(subs), ok)
	}
}

func TestCandidateReportRoundTrip(t *testing.T) {
	b := newFakeBackend(t)
	s := newCandidateStore(b)

	b.respond(transport.ActionGetReportByCourse, models.Report{
		UserID:   "u1",
		CourseID: "c1",
		Scales: []models.ReportScale{
			{ChapterID: "ch1", ScaleName: "GAD-7", Score: 7, Band: models.BandAverage},
		},
	})
	if err := s.FetchReport(context.Background(), candidateCred(), "c1"); err != nil {
		t.Fatalf("FetchReport: %v", err)
	}

	report, ok := s.Report("c1")
	if !ok || len(report.Scales) != 1 {
		t.Fatalf("expected 1 scale, got %+v ok=%v", report, ok)
	}
	if report.Scales[0].Band != models.BandAverage {
		t.Fatalf("unexpected band %q", report.Scales[0].Band)
	}

	if _, ok := s.Report("c2"); ok {
		t.Fatal("expected no report for an unfetched course")
	}
}

package store

import (
	"context"

	"github.com/google/uuid"

	"mindwell/internal/credentials"
	"mindwell/internal/database"
	"mindwell/internal/models"
	"mindwell/internal/transport"
	"mindwell/internal/validation"
)

// CandidateStore caches the assessment-taking state for one candidate:
// available courses, their question trees, the candidate's submissions,
// and computed reports.
type CandidateStore struct {
	base

	courses       []models.Course
	coursesLoaded bool

	chaptersByCourse map[string][]models.Chapter
	quizzesByCourse  map[string][]models.Quiz
	questions        map[string][]models.Question

	submissionsByCourse map[string][]models.Submission
	reportsByCourse     map[string]models.Report
}

// NewCandidateStore creates the candidate store, restoring snapshot state
func NewCandidateStore(client *transport.Client, hosts Hosts, snap *database.DB) *CandidateStore {
	s := &CandidateStore{
		base:                newBase(client, hosts, snap, credentials.RoleCandidate),
		chaptersByCourse:    make(map[string][]models.Chapter),
		quizzesByCourse:     make(map[string][]models.Quiz),
		questions:           make(map[string][]models.Question),
		submissionsByCourse: make(map[string][]models.Submission),
		reportsByCourse:     make(map[string]models.Report),
	}
	s.coursesLoaded = restoreOne(snap, s.kind(kindCourses), "all", &s.courses)
	restoreList(snap, s.kind(kindChapters), s.chaptersByCourse)
	restoreList(snap, s.kind(kindQuizzes), s.quizzesByCourse)
	restoreList(snap, s.kind(kindQuestions), s.questions)
	restoreList(snap, s.kind(kindSubmissions), s.submissionsByCourse)
	return s
}

// FetchCourses replaces the candidate's visible course collection
func (s *CandidateStore) FetchCourses(ctx context.Context, cred *credentials.Credential) error {
	s.mu.Lock()
	gen := s.beginFetch(kindCourses)
	s.mu.Unlock()

	var courses []models.Course
	raw, err := s.do(ctx, transport.Bearer(s.hosts.Course, transport.ActionListCourses), cred, struct{}{}, &courses)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(kindCourses, gen) {
		return nil
	}
	s.courses = courses
	s.coursesLoaded = true
	s.persist(kindCourses, "all", raw)
	return nil
}

// Courses returns the cached courses; ok is false before the first fetch
func (s *CandidateStore) Courses() ([]models.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.coursesLoaded {
		return nil, false
	}
	return append([]models.Course(nil), s.courses...), true
}

// FetchChaptersByCourse replaces the chapter list for one course
func (s *CandidateStore) FetchChaptersByCourse(ctx context.Context, cred *credentials.Credential, courseID string) error {
	fenceKey := kindChapters + "/" + courseID
	s.mu.Lock()
	gen := s.beginFetch(fenceKey)
	s.mu.Unlock()

	body := map[string]string{"course_id": courseID}
	var chapters []models.Chapter
	raw, err := s.do(ctx, transport.Bearer(s.hosts.Chapter, transport.ActionListChapters), cred, body, &chapters)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(fenceKey, gen) {
		return nil
	}
	s.chaptersByCourse[courseID] = chapters
	s.persist(kindChapters, courseID, raw)
	return nil
}

// ChaptersByCourse returns the cached chapters for a course
func (s *CandidateStore) ChaptersByCourse(courseID string) ([]models.Chapter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chapters, ok := s.chaptersByCourse[courseID]
	if !ok {
		return nil, false
	}
	return append([]models.Chapter(nil), chapters...), true
}

// FetchQuizzesByCourse replaces the quiz list for one course
func (s *CandidateStore) FetchQuizzesByCourse(ctx context.Context, cred *credentials.Credential, courseID string) error {
	fenceKey := kindQuizzes + "/" + courseID
	s.mu.Lock()
	gen := s.beginFetch(fenceKey)
	s.mu.Unlock()

	body := map[string]string{"course_id": courseID}
	var quizzes []models.Quiz
	raw, err := s.do(ctx, transport.Bearer(s.hosts.Quiz, transport.ActionGetAllQuizByCourseID), cred, body, &quizzes)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(fenceKey, gen) {
		return nil
	}
	s.quizzesByCourse[courseID] = quizzes
	s.persist(kindQuizzes, courseID, raw)
	return nil
}

// QuizzesByCourse returns the cached quizzes for a course
func (s *CandidateStore) QuizzesByCourse(courseID string) ([]models.Quiz, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quizzes, ok := s.quizzesByCourse[courseID]
	if !ok {
		return nil, false
	}
	return append([]models.Quiz(nil), quizzes...), true
}

// FetchQuestionsByQuiz replaces the cached questions for one quiz, tagging
// each question with the quiz ID when the server omits it
func (s *CandidateStore) FetchQuestionsByQuiz(ctx context.Context, cred *credentials.Credential, quizID string) error {
	fenceKey := kindQuestions + "/" + quizID
	s.mu.Lock()
	gen := s.beginFetch(fenceKey)
	s.mu.Unlock()

	body := map[string]string{"quiz_id": quizID}
	var questions []models.Question
	raw, err := s.do(ctx, transport.Bearer(s.hosts.Quiz, transport.ActionListQuestions), cred, body, &questions)
	if err != nil {
		return err
	}
	for i := range questions {
		if questions[i].QuizID == "" {
			questions[i].QuizID = quizID
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(fenceKey, gen) {
		return nil
	}
	s.questions[quizID] = questions
	s.persist(kindQuestions, quizID, raw)
	return nil
}

// QuestionsByQuiz returns the cached questions for a quiz
func (s *CandidateStore) QuestionsByQuiz(quizID string) ([]models.Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions, ok := s.questions[quizID]
	if !ok {
		return nil, false
	}
	return append([]models.Question(nil), questions...), true
}

// FetchSubmissions replaces the candidate's submissions for one course.
// The submission count is the sole source of truth for the resume point
// when re-entering a partially answered assessment.
func (s *CandidateStore) FetchSubmissions(ctx context.Context, cred *credentials.Credential, courseID string) error {
	fenceKey := kindSubmissions + "/" + courseID
	s.mu.Lock()
	gen := s.beginFetch(fenceKey)
	s.mu.Unlock()

	body := map[string]string{"course_id": courseID}
	var submissions []models.Submission
	raw, err := s.do(ctx, transport.Signed(s.hosts.Reports, transport.ActionGetSubmissions), cred, body, &submissions)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(fenceKey, gen) {
		return nil
	}
	s.submissionsByCourse[courseID] = submissions
	s.persist(kindSubmissions, courseID, raw)
	return nil
}

// Submissions returns the cached submissions for a course
func (s *CandidateStore) Submissions(courseID string) ([]models.Submission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	submissions, ok := s.submissionsByCourse[courseID]
	if !ok {
		return nil, false
	}
	return append([]models.Submission(nil), submissions...), true
}

// AnswerInput is the payload for submitting one answer
type AnswerInput struct {
	CourseID       string `json:"course_id"`
	ChapterID      string `json:"chapter_id"`
	QuizID         string `json:"quiz_id"`
	QuestionID     string `json:"question_id"`
	SelectedOption string `json:"selected_option"`
	RequestID      string `json:"request_id"`
}

// SubmitAnswer persists a single answer. A client-generated request ID is
// attached so the server can reject duplicate in-flight submits; the
// client itself does not deduplicate. Local submission state is not
// patched; callers refetch submissions to observe the new count.
func (s *CandidateStore) SubmitAnswer(ctx context.Context, cred *credentials.Credential, in AnswerInput) error {
	if err := validation.ValidateSelection(in.SelectedOption); err != nil {
		return err
	}
	if in.RequestID == "" {
		in.RequestID = uuid.New().String()
	}
	_, err := s.do(ctx, transport.Signed(s.hosts.Reports, transport.ActionSubmitSingle), cred, in, nil)
	return err
}

// FetchReport replaces the cached report for one course
func (s *CandidateStore) FetchReport(ctx context.Context, cred *credentials.Credential, courseID string) error {
	fenceKey := kindReports + "/" + courseID
	s.mu.Lock()
	gen := s.beginFetch(fenceKey)
	s.mu.Unlock()

	body := map[string]string{"course_id": courseID}
	var report models.Report
	raw, err := s.do(ctx, transport.Signed(s.hosts.Reports, transport.ActionGetReportByCourse), cred, body, &report)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(fenceKey, gen) {
		return nil
	}
	s.reportsByCourse[courseID] = report
	s.persist(kindReports, courseID, raw)
	return nil
}

// Report returns the cached report for a course
func (s *CandidateStore) Report(courseID string) (models.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reportsByCourse[courseID]
	return report, ok
}

// Clear drops all cached candidate state, both live and durable (logout)
func (s *CandidateStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses = nil
	s.coursesLoaded = false
	s.chaptersByCourse = make(map[string][]models.Chapter)
	s.quizzesByCourse = make(map[string][]models.Quiz)
	s.questions = make(map[string][]models.Question)
	s.submissionsByCourse = make(map[string][]models.Submission)
	s.reportsByCourse = make(map[string]models.Report)
	s.clearSnapshot()
}

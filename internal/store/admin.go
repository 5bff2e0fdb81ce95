package store

import (
	"context"

	"mindwell/internal/credentials"
	"mindwell/internal/database"
	"mindwell/internal/models"
	"mindwell/internal/transport"
	"mindwell/internal/validation"
)

// AdminStore caches platform-wide content state for the admin role:
// courses, their chapter/quiz/question trees, norms, and organizations.
type AdminStore struct {
	base

	courses       []models.Course
	coursesLoaded bool

	chaptersByCourse map[string][]models.Chapter

	// Quizzes are indexed once by ID; the per-course and per-chapter views
	// are derived by filtering, so the two paths can never drift apart.
	quizzes         map[string]models.Quiz
	fetchedCourses  map[string]bool
	fetchedChapters map[string]bool

	questions map[string][]models.Question

	norms       []models.Norm
	normsLoaded bool

	organizations []models.Organization
	orgsLoaded    bool

	assignedCourses map[string][]models.Course
}

// NewAdminStore creates the admin store, restoring any snapshot state
func NewAdminStore(client *transport.Client, hosts Hosts, snap *database.DB) *AdminStore {
	s := &AdminStore{
		base:             newBase(client, hosts, snap, credentials.RoleAdmin),
		chaptersByCourse: make(map[string][]models.Chapter),
		quizzes:          make(map[string]models.Quiz),
		fetchedCourses:   make(map[string]bool),
		fetchedChapters:  make(map[string]bool),
		questions:        make(map[string][]models.Question),
		assignedCourses:  make(map[string][]models.Course),
	}
	s.coursesLoaded = restoreOne(snap, s.kind(kindCourses), "all", &s.courses)
	s.normsLoaded = restoreOne(snap, s.kind(kindNorms), "all", &s.norms)
	restoreList(snap, s.kind(kindChapters), s.chaptersByCourse)
	restoreList(snap, s.kind(kindQuestions), s.questions)
	restoreList(snap, s.kind(kindAssignedCourses), s.assignedCourses)
	return s
}

// --- courses ---

// FetchCourses replaces the cached course collection wholesale
func (s *AdminStore) FetchCourses(ctx context.Context, cred *credentials.Credential) error {
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
func (s *AdminStore) Courses() ([]models.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.coursesLoaded {
		return nil, false
	}
	return append([]models.Course(nil), s.courses...), true
}

// CourseByID returns the cached course with the given ID, if loaded
func (s *AdminStore) CourseByID(id string) (models.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.courses {
		if c.ID == id {
			return c, true
		}
	}
	return models.Course{}, false
}

// CourseInput is the payload for creating a course
type CourseInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

// CreateCourse creates a course, then refetches the course collection
func (s *AdminStore) CreateCourse(ctx context.Context, cred *credentials.Credential, in CourseInput) error {
	if err := validation.ValidateCourseInput(in.Title); err != nil {
		return err
	}
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Course, transport.ActionCreateCourse), cred, in, nil); err != nil {
		return err
	}
	return s.FetchCourses(ctx, cred)
}

// DeleteCourse deletes a course, then refetches the course collection
func (s *AdminStore) DeleteCourse(ctx context.Context, cred *credentials.Credential, courseID string) error {
	body := map[string]string{"id": courseID}
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Course, transport.ActionDeleteCourse), cred, body, nil); err != nil {
		return err
	}
	return s.FetchCourses(ctx, cred)
}

// --- chapters ---

// FetchChaptersByCourse replaces the chapter list for one course. Sibling
// courses' entries are untouched.
func (s *AdminStore) FetchChaptersByCourse(ctx context.Context, cred *credentials.Credential, courseID string) error {
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

// ChaptersByCourse returns the cached chapters for a course; ok is false
// when the course was never fetched (absence, not loaded-empty).
func (s *AdminStore) ChaptersByCourse(courseID string) ([]models.Chapter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chapters, ok := s.chaptersByCourse[courseID]
	if !ok {
		return nil, false
	}
	return append([]models.Chapter(nil), chapters...), true
}

// ChapterInput is the payload for creating or updating a chapter
type ChapterInput struct {
	ID          string `json:"id,omitempty"`
	CourseID    string `json:"course_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	NormID      string `json:"norm_id"`
}

// CreateChapter creates a chapter, then refetches the course's chapters.
// A chapter must reference a norm; that is checked before any call.
func (s *AdminStore) CreateChapter(ctx context.Context, cred *credentials.Credential, in ChapterInput) error {
	if err := validation.ValidateChapterInput(in.Title, in.NormID); err != nil {
		return err
	}
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Chapter, transport.ActionCreateChapter), cred, in, nil); err != nil {
		return err
	}
	return s.FetchChaptersByCourse(ctx, cred, in.CourseID)
}

// UpdateChapter updates a chapter, then refetches the course's chapters
func (s *AdminStore) UpdateChapter(ctx context.Context, cred *credentials.Credential, in ChapterInput) error {
	if err := validation.ValidateChapterInput(in.Title, in.NormID); err != nil {
		return err
	}
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Chapter, transport.ActionUpdateChapter), cred, in, nil); err != nil {
		return err
	}
	return s.FetchChaptersByCourse(ctx, cred, in.CourseID)
}

// --- quizzes ---

// FetchQuizzesByCourse merges all of a course's quizzes into the quiz index
func (s *AdminStore) FetchQuizzesByCourse(ctx context.Context, cred *credentials.Credential, courseID string) error {
	body := map[string]string{"course_id": courseID}
	var quizzes []models.Quiz
	raw, err := s.do(ctx, transport.Bearer(s.hosts.Quiz, transport.ActionGetAllQuizByCourseID), cred, body, &quizzes)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeQuizzesLocked(quizzes)
	s.fetchedCourses[courseID] = true
	s.persist(kindQuizzes, "course/"+courseID, raw)
	return nil
}

// FetchQuizzesByChapter merges one chapter's quizzes into the quiz index
func (s *AdminStore) FetchQuizzesByChapter(ctx context.Context, cred *credentials.Credential, chapterID string) error {
	body := map[string]string{"chapter_id": chapterID}
	var quizzes []models.Quiz
	raw, err := s.do(ctx, transport.Bearer(s.hosts.Quiz, transport.ActionListQuizzes), cred, body, &quizzes)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeQuizzesLocked(quizzes)
	s.fetchedChapters[chapterID] = true
	s.persist(kindQuizzes, "chapter/"+chapterID, raw)
	return nil
}

// mergeQuizzesLocked replaces each fetched quiz by primary key.
// Call with s.mu held.
func (s *AdminStore) mergeQuizzesLocked(quizzes []models.Quiz) {
	for _, q := range quizzes {
		s.quizzes[q.ID] = q
	}
}

// QuizzesByCourse derives the per-course view from the quiz index; ok is
// false when the course's quizzes were never fetched.
func (s *AdminStore) QuizzesByCourse(courseID string) ([]models.Quiz, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.fetchedCourses[courseID] {
		return nil, false
	}
	out := make([]models.Quiz, 0)
	for _, q := range s.quizzes {
		if q.CourseID == courseID {
			out = append(out, q)
		}
	}
	return out, true
}

// QuizzesByChapter derives the per-chapter view from the quiz index
func (s *AdminStore) QuizzesByChapter(chapterID string) ([]models.Quiz, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.fetchedChapters[chapterID] && !s.chapterCoveredLocked(chapterID) {
		return nil, false
	}
	out := make([]models.Quiz, 0)
	for _, q := range s.quizzes {
		if q.ChapterID == chapterID {
			out = append(out, q)
		}
	}
	return out, true
}

// chapterCoveredLocked reports whether a whole-course fetch already covered
// the chapter. Membership comes from the chapter lists, not from quizzes in
// the index, so a covered chapter with zero quizzes still reads as loaded.
// Call with s.mu held.
func (s *AdminStore) chapterCoveredLocked(chapterID string) bool {
	for courseID, chapters := range s.chaptersByCourse {
		if !s.fetchedCourses[courseID] {
			continue
		}
		for _, ch := range chapters {
			if ch.ID == chapterID {
				return true
			}
		}
	}
	for _, q := range s.quizzes {
		if q.ChapterID == chapterID && s.fetchedCourses[q.CourseID] {
			return true
		}
	}
	return false
}

// QuizByID returns a quiz from the index
func (s *AdminStore) QuizByID(id string) (models.Quiz, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[id]
	return q, ok
}

// QuizInput is the payload for creating or updating a quiz
type QuizInput struct {
	ID          string `json:"id,omitempty"`
	ChapterID   string `json:"chapter_id"`
	CourseID    string `json:"course_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CreateQuiz creates a quiz, then refetches the chapter's quizzes
func (s *AdminStore) CreateQuiz(ctx context.Context, cred *credentials.Credential, in QuizInput) error {
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Quiz, transport.ActionCreateQuiz), cred, in, nil); err != nil {
		return err
	}
	return s.FetchQuizzesByChapter(ctx, cred, in.ChapterID)
}

// UpdateQuiz updates a quiz, then refetches the chapter's quizzes
func (s *AdminStore) UpdateQuiz(ctx context.Context, cred *credentials.Credential, in QuizInput) error {
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Quiz, transport.ActionUpdateQuiz), cred, in, nil); err != nil {
		return err
	}
	return s.FetchQuizzesByChapter(ctx, cred, in.ChapterID)
}

// --- questions ---

// FetchQuestionsByQuiz replaces the cached questions for one quiz. The
// server may omit quiz_id on each question; it is tagged here so selectors
// can rely on it.
func (s *AdminStore) FetchQuestionsByQuiz(ctx context.Context, cred *credentials.Credential, quizID string) error {
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
func (s *AdminStore) QuestionsByQuiz(quizID string) ([]models.Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions, ok := s.questions[quizID]
	if !ok {
		return nil, false
	}
	return append([]models.Question(nil), questions...), true
}

// QuestionInput is the payload for adding a question to a quiz
type QuestionInput struct {
	QuizID    string              `json:"quiz_id"`
	ChapterID string              `json:"chapter_id"`
	Text      string              `json:"question"`
	Type      models.QuestionType `json:"type"`
	Options   models.Options      `json:"options"`
	Answer    string              `json:"answer,omitempty"`
}

// AddQuestion adds a question, then refetches the quiz's questions
func (s *AdminStore) AddQuestion(ctx context.Context, cred *credentials.Credential, in QuestionInput) error {
	if err := validation.ValidateQuestionInput(in.Text, string(in.Type)); err != nil {
		return err
	}
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Quiz, transport.ActionAddQuestion), cred, in, nil); err != nil {
		return err
	}
	return s.FetchQuestionsByQuiz(ctx, cred, in.QuizID)
}

// --- norms ---

// FetchNorms replaces the cached norm collection (signed GET)
func (s *AdminStore) FetchNorms(ctx context.Context) error {
	s.mu.Lock()
	gen := s.beginFetch(kindNorms)
	s.mu.Unlock()

	var norms []models.Norm
	raw, err := s.do(ctx, transport.SignedGet(s.hosts.Reports, transport.ActionGetAllNorms), nil, nil, &norms)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(kindNorms, gen) {
		return nil
	}
	s.norms = norms
	s.normsLoaded = true
	s.persist(kindNorms, "all", raw)
	return nil
}

// Norms returns the cached norms; ok is false before the first fetch
func (s *AdminStore) Norms() ([]models.Norm, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.normsLoaded {
		return nil, false
	}
	return append([]models.Norm(nil), s.norms...), true
}

// NormByID returns the cached norm with the given ID, if loaded
func (s *AdminStore) NormByID(id string) (models.Norm, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.norms {
		if n.ID == id {
			return n, true
		}
	}
	return models.Norm{}, false
}

// --- organizations ---

// FetchOrganizations replaces the cached organization collection
func (s *AdminStore) FetchOrganizations(ctx context.Context, cred *credentials.Credential) error {
	s.mu.Lock()
	gen := s.beginFetch(kindOrganizations)
	s.mu.Unlock()

	var orgs []models.Organization
	raw, err := s.do(ctx, transport.Bearer(s.hosts.Organization, transport.ActionGetAllOrganizations), cred, struct{}{}, &orgs)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(kindOrganizations, gen) {
		return nil
	}
	s.organizations = orgs
	s.orgsLoaded = true
	s.persist(kindOrganizations, "all", raw)
	return nil
}

// Organizations returns the cached organizations
func (s *AdminStore) Organizations() ([]models.Organization, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.orgsLoaded {
		return nil, false
	}
	return append([]models.Organization(nil), s.organizations...), true
}

// UpdateOrganization updates an org (approval/enabled flags), then
// refetches the organization collection
func (s *AdminStore) UpdateOrganization(ctx context.Context, cred *credentials.Credential, org models.Organization) error {
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Organization, transport.ActionUpdateOrganization), cred, org, nil); err != nil {
		return err
	}
	return s.FetchOrganizations(ctx, cred)
}

// FetchAssignedCourses replaces the cached assigned-course list for an org
func (s *AdminStore) FetchAssignedCourses(ctx context.Context, cred *credentials.Credential, orgID string) error {
	fenceKey := kindAssignedCourses + "/" + orgID
	s.mu.Lock()
	gen := s.beginFetch(fenceKey)
	s.mu.Unlock()

	body := map[string]string{"org_id": orgID}
	var courses []models.Course
	raw, err := s.do(ctx, transport.Bearer(s.hosts.Organization, transport.ActionGetAssignedCourses), cred, body, &courses)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(fenceKey, gen) {
		return nil
	}
	s.assignedCourses[orgID] = courses
	s.persist(kindAssignedCourses, orgID, raw)
	return nil
}

// AssignedCourses returns the courses assigned to an org
func (s *AdminStore) AssignedCourses(orgID string) ([]models.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	courses, ok := s.assignedCourses[orgID]
	if !ok {
		return nil, false
	}
	return append([]models.Course(nil), courses...), true
}

// AssignCourse assigns a course to an org, then refetches its assignments
func (s *AdminStore) AssignCourse(ctx context.Context, cred *credentials.Credential, orgID, courseID string) error {
	body := map[string]string{"org_id": orgID, "course_id": courseID}
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Organization, transport.ActionAssignCourseToOrg), cred, body, nil); err != nil {
		return err
	}
	return s.FetchAssignedCourses(ctx, cred, orgID)
}

// UnassignCourse removes a course from an org, then refetches its assignments
func (s *AdminStore) UnassignCourse(ctx context.Context, cred *credentials.Credential, orgID, courseID string) error {
	body := map[string]string{"org_id": orgID, "course_id": courseID}
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Organization, transport.ActionUnassignCourseFromOrg), cred, body, nil); err != nil {
		return err
	}
	return s.FetchAssignedCourses(ctx, cred, orgID)
}

// Clear drops all cached admin state, both live and durable (logout)
func (s *AdminStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses = nil
	s.coursesLoaded = false
	s.chaptersByCourse = make(map[string][]models.Chapter)
	s.quizzes = make(map[string]models.Quiz)
	s.fetchedCourses = make(map[string]bool)
	s.fetchedChapters = make(map[string]bool)
	s.questions = make(map[string][]models.Question)
	s.norms = nil
	s.normsLoaded = false
	s.organizations = nil
	s.orgsLoaded = false
	s.assignedCourses = make(map[string][]models.Course)
	s.clearSnapshot()
}

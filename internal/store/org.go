package store

import (
	"context"

	"mindwell/internal/credentials"
	"mindwell/internal/database"
	"mindwell/internal/models"
	"mindwell/internal/transport"
)

// OrgStore caches one organization's state: its profile, employees,
// assigned courses, and aggregate report data.
//
// ReportsPct and Comparisons deliberately accumulate across fetches so a
// dashboard can collect entries for several courses in sequence; callers
// must clear them before starting a new query context or duplicates pile
// up.
type OrgStore struct {
	base

	org       models.Organization
	orgLoaded bool

	employees       []models.Employee
	employeesLoaded bool

	assignedCourses       []models.Course
	assignedCoursesLoaded bool

	orgReportsByCourse map[string]models.Report

	reportsPct  []models.ChapterPct
	comparisons []models.ChapterComparison
}

// NewOrgStore creates the organization store, restoring snapshot state
func NewOrgStore(client *transport.Client, hosts Hosts, snap *database.DB) *OrgStore {
	s := &OrgStore{
		base:               newBase(client, hosts, snap, credentials.RoleOrganization),
		orgReportsByCourse: make(map[string]models.Report),
	}
	s.orgLoaded = restoreOne(snap, s.kind(kindOrganizations), "self", &s.org)
	s.employeesLoaded = restoreOne(snap, s.kind(kindEmployees), "all", &s.employees)
	s.assignedCoursesLoaded = restoreOne(snap, s.kind(kindAssignedCourses), "all", &s.assignedCourses)
	restoreMap(snap, s.kind(kindOrgReports), s.orgReportsByCourse)
	return s
}

// FetchOrganization replaces the cached org profile
func (s *OrgStore) FetchOrganization(ctx context.Context, cred *credentials.Credential, orgID string) error {
	s.mu.Lock()
	gen := s.beginFetch(kindOrganizations)
	s.mu.Unlock()

	body := map[string]string{"id": orgID}
	var org models.Organization
	raw, err := s.do(ctx, transport.Bearer(s.hosts.Organization, transport.ActionGetOrganization), cred, body, &org)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(kindOrganizations, gen) {
		return nil
	}
	s.org = org
	s.orgLoaded = true
	s.persist(kindOrganizations, "self", raw)
	return nil
}

// Organization returns the cached org profile
func (s *OrgStore) Organization() (models.Organization, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.org, s.orgLoaded
}

// UpdateOrganization updates the org profile, then refetches it
func (s *OrgStore) UpdateOrganization(ctx context.Context, cred *credentials.Credential, org models.Organization) error {
	if _, err := s.do(ctx, transport.Bearer(s.hosts.Organization, transport.ActionUpdateOrganization), cred, org, nil); err != nil {
		return err
	}
	return s.FetchOrganization(ctx, cred, org.ID)
}

// FetchEmployees replaces the cached employee roster
func (s *OrgStore) FetchEmployees(ctx context.Context, cred *credentials.Credential, orgID string) error {
	s.mu.Lock()
	gen := s.beginFetch(kindEmployees)
	s.mu.Unlock()

	body := map[string]string{"org_id": orgID}
	var employees []models.Employee
	raw, err := s.do(ctx, transport.Bearer(s.hosts.Organization, transport.ActionGetOrganizationUsers), cred, body, &employees)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(kindEmployees, gen) {
		return nil
	}
	s.employees = employees
	s.employeesLoaded = true
	s.persist(kindEmployees, "all", raw)
	return nil
}

// Employees returns the cached employee roster
func (s *OrgStore) Employees() ([]models.Employee, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.employeesLoaded {
		return nil, false
	}
	return append([]models.Employee(nil), s.employees...), true
}

// FetchAssignedCourses replaces the org's assigned course list
func (s *OrgStore) FetchAssignedCourses(ctx context.Context, cred *credentials.Credential, orgID string) error {
	s.mu.Lock()
	gen := s.beginFetch(kindAssignedCourses)
	s.mu.Unlock()

	body := map[string]string{"org_id": orgID}
	var courses []models.Course
	raw, err := s.do(ctx, transport.Bearer(s.hosts.Organization, transport.ActionGetAssignedCourses), cred, body, &courses)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(kindAssignedCourses, gen) {
		return nil
	}
	s.assignedCourses = courses
	s.assignedCoursesLoaded = true
	s.persist(kindAssignedCourses, "all", raw)
	return nil
}

// AssignedCourses returns the org's assigned courses
func (s *OrgStore) AssignedCourses() ([]models.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.assignedCoursesLoaded {
		return nil, false
	}
	return append([]models.Course(nil), s.assignedCourses...), true
}

// FetchOrgReport replaces the org-wide report for one course
func (s *OrgStore) FetchOrgReport(ctx context.Context, cred *credentials.Credential, orgID, courseID string) error {
	fenceKey := kindOrgReports + "/" + courseID
	s.mu.Lock()
	gen := s.beginFetch(fenceKey)
	s.mu.Unlock()

	body := map[string]string{"org_id": orgID, "course_id": courseID}
	var report models.Report
	raw, err := s.do(ctx, transport.Signed(s.hosts.Reports, transport.ActionGetOrgReport), cred, body, &report)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(fenceKey, gen) {
		return nil
	}
	s.orgReportsByCourse[courseID] = report
	s.persist(kindOrgReports, courseID, raw)
	return nil
}

// OrgReport returns the cached org-wide report for a course
func (s *OrgStore) OrgReport(courseID string) (models.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.orgReportsByCourse[courseID]
	return report, ok
}

// FetchHighPctByChapter appends the high-band percentage entries for one
// course to the accumulated set. It does NOT replace prior entries;
// fetching the same course twice without ClearReportsPct duplicates them.
func (s *OrgStore) FetchHighPctByChapter(ctx context.Context, cred *credentials.Credential, orgID, courseID string) error {
	fenceKey := "reports_pct/" + courseID
	s.mu.Lock()
	gen := s.beginFetch(fenceKey)
	s.mu.Unlock()

	body := map[string]string{"org_id": orgID, "course_id": courseID}
	var entries []models.ChapterPct
	_, err := s.do(ctx, transport.Signed(s.hosts.Reports, transport.ActionGetOrgHighPctByChapter), cred, body, &entries)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(fenceKey, gen) {
		return nil
	}
	s.reportsPct = append(s.reportsPct, entries...)
	return nil
}

// ReportsPct returns the accumulated high-band percentage entries
func (s *OrgStore) ReportsPct() []models.ChapterPct {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ChapterPct(nil), s.reportsPct...)
}

// ClearReportsPct resets the percentage accumulator for a new query context
func (s *OrgStore) ClearReportsPct() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportsPct = nil
}

// FetchComparisons appends the org-vs-population chapter averages for one
// course to the accumulated set; same accumulation contract as
// FetchHighPctByChapter.
func (s *OrgStore) FetchComparisons(ctx context.Context, cred *credentials.Credential, orgID, courseID string) error {
	fenceKey := "comparisons/" + courseID
	s.mu.Lock()
	gen := s.beginFetch(fenceKey)
	s.mu.Unlock()

	body := map[string]string{"org_id": orgID, "course_id": courseID}
	var entries []models.ChapterComparison
	_, err := s.do(ctx, transport.Signed(s.hosts.Reports, transport.ActionGetOrgVsOthersChapterAvg), cred, body, &entries)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrent(fenceKey, gen) {
		return nil
	}
	s.comparisons = append(s.comparisons, entries...)
	return nil
}

// Comparisons returns the accumulated comparison entries
func (s *OrgStore) Comparisons() []models.ChapterComparison {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ChapterComparison(nil), s.comparisons...)
}

// ClearComparisons resets the comparison accumulator
func (s *OrgStore) ClearComparisons() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comparisons = nil
}

// Clear drops all cached org state, both live and durable (logout)
func (s *OrgStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.org = models.Organization{}
	s.orgLoaded = false
	s.employees = nil
	s.employeesLoaded = false
	s.assignedCourses = nil
	s.assignedCoursesLoaded = false
	s.orgReportsByCourse = make(map[string]models.Report)
	s.reportsPct = nil
	s.comparisons = nil
	s.clearSnapshot()
}

package transport

import (
	"net/http"
	"net/url"
)

// AuthScheme selects how a request to a host is authenticated. Each host
// uses exactly one scheme.
type AuthScheme int

const (
	AuthBearer AuthScheme = iota
	AuthSigV4
	// AuthNone is for the login call only; everything else is authenticated
	AuthNone
)

// Endpoint identifies one backend call: a host plus an action query
// parameter. All calls are POST except where Method overrides it.
type Endpoint struct {
	Host   string
	Action string
	Method string
	Auth   AuthScheme
}

// Bearer builds a bearer-authenticated POST endpoint
func Bearer(host, action string) Endpoint {
	return Endpoint{Host: host, Action: action, Method: http.MethodPost, Auth: AuthBearer}
}

// Signed builds a SigV4-signed POST endpoint
func Signed(host, action string) Endpoint {
	return Endpoint{Host: host, Action: action, Method: http.MethodPost, Auth: AuthSigV4}
}

// Public builds an unauthenticated POST endpoint (login only)
func Public(host, action string) Endpoint {
	return Endpoint{Host: host, Action: action, Method: http.MethodPost, Auth: AuthNone}
}

// SignedGet builds a SigV4-signed GET endpoint (getAllNorms is the only one)
func SignedGet(host, action string) Endpoint {
	return Endpoint{Host: host, Action: action, Method: http.MethodGet, Auth: AuthSigV4}
}

// URL renders the full request URL
func (e Endpoint) URL() string {
	return e.Host + "?action=" + url.QueryEscape(e.Action)
}

// Action names grouped by host, mirroring the backend surface.
const (
	// Course host
	ActionListCourses  = "listCourses"
	ActionCreateCourse = "createCourse"
	ActionDeleteCourse = "deleteCourse"

	// Chapter host
	ActionListChapters  = "listChapters"
	ActionGetChapter    = "getChapter"
	ActionCreateChapter = "createChapter"
	ActionUpdateChapter = "updateChapter"

	// Quiz host
	ActionListQuizzes          = "listQuizzes"
	ActionGetAllQuizByCourseID = "getAllQuizByCourseId"
	ActionListQuestions        = "listQuestions"
	ActionGetQuiz              = "getQuiz"
	ActionUpdateQuiz           = "updateQuiz"
	ActionCreateQuiz           = "createQuiz"
	ActionAddQuestion          = "addQuestion"

	// Reports host (SigV4)
	ActionSubmitSingle             = "submitSingle"
	ActionGetReportByCourse        = "getReportByCourse"
	ActionGetSubmissions           = "getSubmissions"
	ActionGetAllNorms              = "getAllNorms"
	ActionGetOrgReport             = "getOrgReport"
	ActionGetOrgHighPctByChapter   = "getOrgHighPctByChapter"
	ActionGetOrgVsOthersChapterAvg = "getOrgVsOthersChapterAvg"

	// Organization host
	ActionUpdateOrganization    = "updateOrganization"
	ActionGetAllOrganizations   = "getAllOrganizations"
	ActionGetOrganization       = "getOrganization"
	ActionGetAssignedCourses    = "getAssignedCourses"
	ActionAssignCourseToOrg     = "assignCourseToOrganization"
	ActionUnassignCourseFromOrg = "unassignCourseFromOrganization"
	ActionGetOrganizationUsers  = "getOrganizationUsers"

	// Session / therapist / patient hosts
	ActionGetSessionsByTherapist = "getSessionsByTherapist"
	ActionCreateSession          = "createSession"
	ActionGetSession             = "getSession"
	ActionUpdateSession          = "updateSession"
	ActionStartSession           = "startSession"
	ActionEndSession             = "endSession"
	ActionCancelSession          = "cancelSession"
	ActionLoginTherapist         = "loginTherapist"
	ActionGetPatient             = "getPatient"
	ActionGetTherapistProfile    = "getTherapistProfile"
	ActionGetAssignedPatients    = "getAssignedPatients"
)

package validation

import (
	"errors"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrEmailRequired          = errors.New("email is required")
	ErrEmailInvalid           = errors.New("invalid email format")
	ErrTitleRequired          = errors.New("title is required")
	ErrNormRequired           = errors.New("a norm must be selected")
	ErrQuestionTextRequired   = errors.New("question text is required")
	ErrUnknownQuestionType    = errors.New("unknown question type")
	ErrSelectionRequired      = errors.New("an option must be selected")
	ErrFeedbackRequired       = errors.New("feedback text is required")
	ErrParticipantNameInvalid = errors.New("participant name is empty")
)

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	if !emailRegex.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// ValidateCourseInput checks a course payload before any network call
func ValidateCourseInput(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	return nil
}

// ValidateChapterInput checks a chapter payload. Every chapter is scored
// against a norm, so a missing norm selection is rejected client-side.
func ValidateChapterInput(title, normID string) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(normID) == "" {
		return ErrNormRequired
	}
	return nil
}

// ValidateQuestionInput checks a question payload
func ValidateQuestionInput(text, questionType string) error {
	if strings.TrimSpace(text) == "" {
		return ErrQuestionTextRequired
	}
	switch questionType {
	case "single", "multiple", "likert":
		return nil
	default:
		return ErrUnknownQuestionType
	}
}

// ValidateSelection checks that an answer selection is non-empty
func ValidateSelection(selected string) error {
	if strings.TrimSpace(selected) == "" {
		return ErrSelectionRequired
	}
	return nil
}

// ValidateFeedback checks the freeform feedback required to end a session
func ValidateFeedback(feedback string) error {
	if strings.TrimSpace(feedback) == "" {
		return ErrFeedbackRequired
	}
	return nil
}

// ValidateParticipantName checks a waiting-list entrant name
func ValidateParticipantName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrParticipantNameInvalid
	}
	return nil
}

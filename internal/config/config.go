package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	// Service hosts, one per backend microservice
	CourseHost       string
	ChapterHost      string
	QuizHost         string
	ReportsHost      string
	OrganizationHost string
	SessionHost      string
	TherapistHost    string
	PatientHost      string

	// Reports host is signed with AWS SigV4 instead of a bearer token
	AWSRegion          string
	ReportsServiceName string

	// Adapter behavior
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	ThrottleRate   int
	ThrottleWindow time.Duration

	// Therapist session polling
	PollInterval time.Duration

	// Durable snapshot store (sqlite default; postgres/mysql via URL)
	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		CourseHost:       getEnv("COURSE_HOST", "https://courses.mindwell.app"),
		ChapterHost:      getEnv("CHAPTER_HOST", "https://chapters.mindwell.app"),
		QuizHost:         getEnv("QUIZ_HOST", "https://quizzes.mindwell.app"),
		ReportsHost:      getEnv("REPORTS_HOST", "https://reports.mindwell.app"),
		OrganizationHost: getEnv("ORG_HOST", "https://orgs.mindwell.app"),
		SessionHost:      getEnv("SESSION_HOST", "https://sessions.mindwell.app"),
		TherapistHost:    getEnv("THERAPIST_HOST", "https://therapists.mindwell.app"),
		PatientHost:      getEnv("PATIENT_HOST", "https://patients.mindwell.app"),

		AWSRegion:          getEnv("AWS_REGION", "eu-west-1"),
		ReportsServiceName: getEnv("REPORTS_SERVICE_NAME", "execute-api"),

		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		RetryAttempts:  getEnvInt("RETRY_ATTEMPTS", 3),
		RetryBaseDelay: getEnvDuration("RETRY_BASE_DELAY", 500*time.Millisecond),
		ThrottleRate:   getEnvInt("THROTTLE_RATE", 30),
		ThrottleWindow: getEnvDuration("THROTTLE_WINDOW", time.Second),

		PollInterval: getEnvDuration("POLL_INTERVAL", 5*time.Second),

		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./mindwell.db"),
		DatabaseURL:    getEnv("DB_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration reads a duration environment variable or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

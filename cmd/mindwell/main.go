package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"mindwell/internal/config"
	"mindwell/internal/credentials"
	"mindwell/internal/database"
	"mindwell/internal/models"
	"mindwell/internal/progress"
	"mindwell/internal/session"
	"mindwell/internal/store"
	"mindwell/internal/transport"
)

func main() {
	// Define subcommands
	loginCmd := flag.NewFlagSet("login", flag.ExitOnError)
	coursesCmd := flag.NewFlagSet("courses", flag.ExitOnError)
	takeCmd := flag.NewFlagSet("take", flag.ExitOnError)
	sessionsCmd := flag.NewFlagSet("sessions", flag.ExitOnError)
	reportCmd := flag.NewFlagSet("report", flag.ExitOnError)

	// Login flags
	loginEmail := loginCmd.String("email", "", "Therapist email (required)")

	// Take flags
	takeCourse := takeCmd.String("course", "", "Course ID to take (required)")

	// Sessions flags
	sessionsTherapist := sessionsCmd.String("therapist", "", "Therapist ID (required)")
	sessionsWatch := sessionsCmd.String("watch", "", "Session ID to watch with live polling")

	// Report flags
	reportCourse := reportCmd.String("course", "", "Course ID (required)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Local .env is optional; real env always wins
	_ = godotenv.Load()
	cfg := config.Load()

	app, err := newApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	ctx := context.Background()

	switch os.Args[1] {
	case "login":
		loginCmd.Parse(os.Args[2:])
		if *loginEmail == "" {
			fmt.Println("Error: -email flag is required")
			loginCmd.PrintDefaults()
			os.Exit(1)
		}
		handleLogin(ctx, app, *loginEmail)

	case "courses":
		coursesCmd.Parse(os.Args[2:])
		handleCourses(ctx, app)

	case "take":
		takeCmd.Parse(os.Args[2:])
		if *takeCourse == "" {
			fmt.Println("Error: -course flag is required")
			takeCmd.PrintDefaults()
			os.Exit(1)
		}
		handleTake(ctx, app, *takeCourse)

	case "sessions":
		sessionsCmd.Parse(os.Args[2:])
		if *sessionsTherapist == "" && *sessionsWatch == "" {
			fmt.Println("Error: -therapist or -watch flag is required")
			sessionsCmd.PrintDefaults()
			os.Exit(1)
		}
		handleSessions(ctx, app, *sessionsTherapist, *sessionsWatch)

	case "report":
		reportCmd.Parse(os.Args[2:])
		if *reportCourse == "" {
			fmt.Println("Error: -course flag is required")
			reportCmd.PrintDefaults()
			os.Exit(1)
		}
		handleReport(ctx, app, *reportCourse)

	default:
		printUsage()
		os.Exit(1)
	}
}

// app wires the transport, the snapshot database, and the role stores
type app struct {
	cfg       *config.Config
	db        *database.DB
	candidate *store.CandidateStore
	therapist *store.TherapistStore
}

func newApp(cfg *config.Config) (*app, error) {
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	signer, err := transport.NewSigV4Signer(context.Background(), cfg.AWSRegion, cfg.ReportsServiceName)
	if err != nil {
		// Report endpoints need AWS credentials; everything else works without
		log.Printf("Warning: report signing unavailable: %v", err)
	}

	opts := transport.Options{
		Timeout:   cfg.RequestTimeout,
		Attempts:  cfg.RetryAttempts,
		BaseDelay: cfg.RetryBaseDelay,
		Throttle:  transport.NewThrottle(cfg.ThrottleRate, cfg.ThrottleWindow),
	}
	if signer != nil {
		opts.Signer = signer
	}
	client := transport.New(opts)

	hosts := store.HostsFromConfig(cfg)
	return &app{
		cfg:       cfg,
		db:        db,
		candidate: store.NewCandidateStore(client, hosts, db),
		therapist: store.NewTherapistStore(client, hosts, db),
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}

// credential resolves a bearer credential for a role: MINDWELL_TOKEN wins,
// then the sealed credential stored at login (MINDWELL_PASSPHRASE unseals).
func (a *app) credential(role credentials.Role) (*credentials.Credential, error) {
	if token := os.Getenv("MINDWELL_TOKEN"); token != "" {
		return checkedCredential(credentials.NewStatic(token), role)
	}

	passphrase := os.Getenv("MINDWELL_PASSPHRASE")
	if passphrase == "" {
		return nil, fmt.Errorf("no credential: set MINDWELL_TOKEN, or MINDWELL_PASSPHRASE after login")
	}
	sealed, err := a.db.GetSealedCredential(string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to load stored credential: %w", err)
	}
	if sealed == nil {
		return nil, fmt.Errorf("no stored credential for role %s; run login first", role)
	}
	token, err := credentials.OpenToken(sealed, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal credential: %w", err)
	}
	return checkedCredential(credentials.NewStatic(token), role)
}

// checkedCredential rejects tokens that are already past their expiry.
// Tokens without readable claims pass through; the server has the final say.
func checkedCredential(cred *credentials.Credential, role credentials.Role) (*credentials.Credential, error) {
	if err := cred.CheckFresh(time.Now()); err != nil {
		if errors.Is(err, credentials.ErrTokenExpired) {
			return nil, fmt.Errorf("stored credential for role %s has expired; run login again", role)
		}
		log.Printf("Could not inspect token claims: %v", err)
	}
	return cred, nil
}

func handleLogin(ctx context.Context, a *app, email string) {
	fmt.Print("Password: ")
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	password = strings.TrimSpace(password)

	cred, err := a.therapist.Login(ctx, email, password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	passphrase := os.Getenv("MINDWELL_PASSPHRASE")
	if passphrase == "" {
		token, _ := cred.Token()
		fmt.Println("Logged in. Set MINDWELL_PASSPHRASE to store the credential; for now:")
		fmt.Printf("  export MINDWELL_TOKEN=%s\n", token)
		return
	}

	token, err := cred.Token()
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	sealed, err := credentials.SealToken(token, passphrase)
	if err != nil {
		log.Fatalf("Failed to seal credential: %v", err)
	}
	if err := a.db.PutSealedCredential(string(credentials.RoleTherapist), sealed); err != nil {
		log.Fatalf("Failed to store credential: %v", err)
	}
	fmt.Println("Logged in. Credential stored.")
}

func handleCourses(ctx context.Context, a *app) {
	cred, err := a.credential(credentials.RoleCandidate)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := a.candidate.FetchCourses(ctx, cred); err != nil {
		log.Fatalf("Failed to fetch courses: %v", err)
	}

	courses, _ := a.candidate.Courses()
	if len(courses) == 0 {
		fmt.Println("No courses available.")
		return
	}
	for _, c := range courses {
		fmt.Printf("%-24s  %s\n", c.ID, c.Title)
		if c.Description != "" {
			fmt.Printf("%-24s  %s\n", "", c.Description)
		}
	}
}

func handleTake(ctx context.Context, a *app, courseID string) {
	cred, err := a.credential(credentials.RoleCandidate)
	if err != nil {
		log.Fatalf("%v", err)
	}

	questions, err := loadCourseQuestions(ctx, a, cred, courseID)
	if err != nil {
		log.Fatalf("Failed to load course: %v", err)
	}
	if len(questions) == 0 {
		fmt.Println("Course has no questions.")
		return
	}

	runner := progress.New(a.candidate, cred, courseID, questions)
	if err := runner.Load(ctx); err != nil {
		log.Fatalf("Failed to load progress: %v", err)
	}

	if runner.State() == progress.StateComplete {
		fmt.Println("Assessment already complete. Run 'mindwell report' to view results.")
		return
	}

	idx, total := runner.Position()
	if idx > 0 {
		fmt.Printf("Resuming at question %d of %d.\n\n", idx+1, total)
	}

	reader := bufio.NewReader(os.Stdin)
	for runner.State() == progress.StateInProgress {
		q, ok := runner.Current()
		if !ok {
			break
		}
		idx, total := runner.Position()
		fmt.Printf("[%d/%d] %s\n", idx+1, total, q.Text)
		options := q.Options.Ordered()
		for i, option := range options {
			fmt.Printf("  %d) %s\n", i+1, option)
		}

		selection, err := readSelection(reader, options)
		if err != nil {
			log.Fatalf("Failed to read answer: %v", err)
		}
		if err := runner.Select(selection); err != nil {
			log.Fatalf("Failed to record answer: %v", err)
		}
		if err := runner.Advance(ctx); err != nil {
			fmt.Printf("Submit failed (%v); answer kept, try again.\n", err)
			continue
		}
		fmt.Println()
	}

	fmt.Println("Assessment complete. Run 'mindwell report' to view results.")
}

// loadCourseQuestions flattens a course into its presentation-ordered
// question sequence: chapters by order, each chapter's quizzes, each quiz's
// questions.
func loadCourseQuestions(ctx context.Context, a *app, cred *credentials.Credential, courseID string) ([]models.Question, error) {
	if err := a.candidate.FetchChaptersByCourse(ctx, cred, courseID); err != nil {
		return nil, err
	}
	if err := a.candidate.FetchQuizzesByCourse(ctx, cred, courseID); err != nil {
		return nil, err
	}

	chapters, _ := a.candidate.ChaptersByCourse(courseID)
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].Order < chapters[j].Order })
	quizzes, _ := a.candidate.QuizzesByCourse(courseID)

	var out []models.Question
	for _, ch := range chapters {
		for _, quiz := range quizzes {
			if quiz.ChapterID != ch.ID {
				continue
			}
			if err := a.candidate.FetchQuestionsByQuiz(ctx, cred, quiz.ID); err != nil {
				return nil, err
			}
			questions, _ := a.candidate.QuestionsByQuiz(quiz.ID)
			out = append(out, questions...)
		}
	}
	return out, nil
}

func readSelection(reader *bufio.Reader, options []string) (string, error) {
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(options) {
			fmt.Printf("Enter a number between 1 and %d.\n", len(options))
			continue
		}
		return options[n-1], nil
	}
}

func handleSessions(ctx context.Context, a *app, therapistID, watchID string) {
	cred, err := a.credential(credentials.RoleTherapist)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if watchID != "" {
		watchSession(ctx, a, cred, watchID)
		return
	}

	if err := a.therapist.FetchSessions(ctx, cred, therapistID); err != nil {
		log.Fatalf("Failed to fetch sessions: %v", err)
	}
	sessions, _ := a.therapist.Sessions()
	if len(sessions) == 0 {
		fmt.Println("No sessions.")
		return
	}
	for _, s := range sessions {
		fmt.Printf("%-24s  %-12s  %s  %s\n", s.ID, s.Status, s.ScheduledAt.Format("2006-01-02 15:04"), s.Title)
	}
}

// watchSession polls one session until it leaves In Progress, printing
// waiting-list and participant changes as they land
func watchSession(ctx context.Context, a *app, cred *credentials.Credential, sessionID string) {
	poller := session.NewPoller(a.cfg.PollInterval, func(ctx context.Context) (models.SessionStatus, error) {
		sess, err := a.therapist.FetchSession(ctx, cred, sessionID)
		if err != nil {
			return "", err
		}
		fmt.Printf("[%s] waiting=%v participants=%v\n", sess.Status, sess.Metadata.Waiting, sess.Metadata.Participants)
		return sess.Status, nil
	})

	status, err := poller.Run(ctx)
	if err != nil {
		log.Fatalf("Watch stopped: %v", err)
	}
	fmt.Printf("Session %s is %s; polling stopped.\n", sessionID, status)
}

func handleReport(ctx context.Context, a *app, courseID string) {
	cred, err := a.credential(credentials.RoleCandidate)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := a.candidate.FetchReport(ctx, cred, courseID); err != nil {
		log.Fatalf("Failed to fetch report: %v", err)
	}

	report, ok := a.candidate.Report(courseID)
	if !ok || len(report.Scales) == 0 {
		fmt.Println("No report available for this course yet.")
		return
	}

	for _, scale := range report.Scales {
		fmt.Printf("%s: %.1f (%s)\n", scale.ScaleName, scale.Score, scale.Band)
		if scale.Interpretation != "" {
			fmt.Printf("  %s\n", scale.Interpretation)
		}
		if scale.Recommendation != "" {
			fmt.Printf("  Recommendation: %s\n", scale.Recommendation)
		}
	}
}

func printUsage() {
	fmt.Println("MindWell Assessment Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mindwell login -email <email>        Log in as a therapist")
	fmt.Println("  mindwell courses                     List available courses")
	fmt.Println("  mindwell take -course <id>           Take (or resume) a course assessment")
	fmt.Println("  mindwell sessions -therapist <id>    List a therapist's sessions")
	fmt.Println("  mindwell sessions -watch <id>        Watch one session with live polling")
	fmt.Println("  mindwell report -course <id>         Print the scored report for a course")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  MINDWELL_TOKEN        Bearer token (overrides stored credentials)")
	fmt.Println("  MINDWELL_PASSPHRASE   Passphrase for the sealed credential store")
	fmt.Println("  DB_TYPE               Snapshot database: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH               SQLite database path (default: ./mindwell.db)")
	fmt.Println("  DB_URL                PostgreSQL or MySQL connection URL")
	fmt.Println("  AWS_REGION            Region used to sign report requests")
}

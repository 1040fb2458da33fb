package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/domain"
	"quiz-platform-service/internal/infra/postgres"
	infraredis "quiz-platform-service/internal/infra/redis"
	"quiz-platform-service/internal/logger"
)

type stack struct {
	db          *bun.DB
	pool        *pgxpool.Pool
	redis       *goredis.Client
	auth        *app.AuthService
	authoring   *app.AuthoringService
	submissions *app.SubmissionService
	reports     *app.ReportService
}

func newStack(t *testing.T, ctx context.Context) stack {
	t.Helper()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	t.Cleanup(pgCleanup)
	redisURL, redisCleanup := startRedis(t, ctx)
	t.Cleanup(redisCleanup)

	db := postgres.OpenDB(pgURL)
	t.Cleanup(func() { _ = db.Close() })
	if _, err := postgres.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	t.Cleanup(pool.Close)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { _ = redisClient.Close() })

	log := logger.Nop()
	store := postgres.NewStore(db)
	papers := infraredis.NewPaperCache(redisClient, postgres.NewPaperLoader(pool), 5*time.Minute, log)
	feeds := infraredis.NewFeedRegistry(redisClient, 5*time.Minute)

	return stack{
		db:          db,
		pool:        pool,
		redis:       redisClient,
		auth:        app.NewAuthService(store, "integration-secret", time.Hour, bcrypt.MinCost),
		authoring:   app.NewAuthoringService(store, papers),
		submissions: app.NewSubmissionService(store, store, app.NewScorer(), feeds, log),
		reports:     app.NewReportService(postgres.NewReportReader(pool)),
	}
}

func (s stack) register(t *testing.T, ctx context.Context, username string, admin bool) domain.Principal {
	t.Helper()
	user, err := s.auth.Register(ctx, app.RegisterInput{Username: username, Email: username + "@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	if admin {
		if err := s.auth.GrantAdmin(ctx, username); err != nil {
			t.Fatalf("grant admin: %v", err)
		}
	}
	return domain.Principal{UserID: user.ID, IsAdmin: admin}
}

func TestSubmissionLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, ctx)

	admin := s.register(t, ctx, "admin", true)
	taker := s.register(t, ctx, "taker", false)

	quiz, err := s.authoring.CreateQuiz(ctx, admin, app.QuizInput{Title: "Arithmetic"})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	points := 2
	mc, err := s.authoring.CreateQuestion(ctx, admin, app.QuestionInput{QuizID: quiz.ID, Text: "2 + 2?", Type: domain.QuestionMultipleChoice, Points: &points})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	essayPoints := 4
	essay, err := s.authoring.CreateQuestion(ctx, admin, app.QuestionInput{QuizID: quiz.ID, Text: "Explain addition", Type: domain.QuestionEssay, Points: &essayPoints, DisplayOrder: 1})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	correct, err := s.authoring.CreateOption(ctx, admin, mc.ID, app.OptionInput{Text: "4", IsCorrect: true})
	if err != nil {
		t.Fatalf("create option: %v", err)
	}
	if _, err := s.authoring.CreateOption(ctx, admin, mc.ID, app.OptionInput{Text: "5"}); err != nil {
		t.Fatalf("create option: %v", err)
	}
	if _, err := s.authoring.CreateOption(ctx, admin, mc.ID, app.OptionInput{Text: "four", IsCorrect: true}); !errors.Is(err, domain.ErrCorrectOptionExists) {
		t.Fatalf("expected correct option conflict, got %v", err)
	}

	paper, err := s.authoring.GetPaper(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("get paper: %v", err)
	}
	if len(paper.Questions) != 2 || paper.Questions[0].ID != mc.ID || len(paper.Questions[0].Options) != 2 {
		t.Fatalf("unexpected paper %+v", paper)
	}
	if exists, _ := s.redis.Exists(ctx, fmt.Sprintf("quiz:%d:paper", quiz.ID)).Result(); exists != 1 {
		t.Fatalf("expected paper to be cached in redis")
	}

	// Concurrent starts for the same (quiz, user) must yield a single open attempt.
	const attempts = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		started  []int64
		resumeID []int64
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub, err := s.submissions.Start(ctx, taker, quiz.ID, 0)
			mu.Lock()
			defer mu.Unlock()
			var inProgress *domain.InProgressError
			switch {
			case err == nil:
				started = append(started, sub.ID)
			case errors.As(err, &inProgress):
				resumeID = append(resumeID, inProgress.SubmissionID)
			default:
				t.Errorf("start: %v", err)
			}
		}()
	}
	wg.Wait()
	if len(started) != 1 {
		t.Fatalf("expected exactly one started submission, got %v", started)
	}
	for _, id := range resumeID {
		if id != started[0] {
			t.Fatalf("expected in-progress id %d, got %d", started[0], id)
		}
	}
	submissionID := started[0]

	var queued int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM submission_queue WHERE submission_id = $1`, submissionID).Scan(&queued); err != nil {
		t.Fatalf("count queue: %v", err)
	}
	if queued != 1 {
		t.Fatalf("expected one queue record, got %d", queued)
	}

	events, cancel, err := s.submissions.SubscribeResults(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	text := "Counting on"
	if _, err := s.submissions.RecordAnswer(ctx, taker, submissionID, app.AnswerInput{QuestionID: mc.ID, SelectedOptionID: &correct.ID}); err != nil {
		t.Fatalf("answer mc: %v", err)
	}
	if _, err := s.submissions.RecordAnswer(ctx, taker, submissionID, app.AnswerInput{QuestionID: essay.ID, AnswerText: &text}); err != nil {
		t.Fatalf("answer essay: %v", err)
	}

	grade, err := s.submissions.Complete(ctx, taker, submissionID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if grade.Score != 4 || grade.TotalPoints != 6 {
		t.Fatalf("expected 4/6, got %v/%d", grade.Score, grade.TotalPoints)
	}
	select {
	case event := <-events:
		if event.SubmissionID != submissionID || event.Score != 4 {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for completion event")
	}

	if _, err := s.submissions.RecordAnswer(ctx, taker, submissionID, app.AnswerInput{QuestionID: essay.ID, AnswerText: &text}); !errors.Is(err, domain.ErrSubmissionClosed) {
		t.Fatalf("expected closed submission, got %v", err)
	}

	detail, err := s.submissions.Get(ctx, taker, submissionID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Submission.QuizTitle != "Arithmetic" || detail.Submission.Status != domain.StatusSubmitted {
		t.Fatalf("unexpected submission view %+v", detail.Submission)
	}
	if len(detail.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(detail.Answers))
	}
	mcView := detail.Answers[0]
	if mcView.SelectedOptionText == nil || *mcView.SelectedOptionText != "4" || mcView.CorrectOptionText == nil || *mcView.CorrectOptionText != "4" {
		t.Fatalf("unexpected mc answer view %+v", mcView)
	}
	if mcView.PointsEarned == nil || *mcView.PointsEarned != 2 {
		t.Fatalf("expected 2 points on mc answer, got %v", mcView.PointsEarned)
	}

	stats, err := s.reports.Statistics(ctx)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.TotalSubmissions != 1 || stats.AverageScore == nil || *stats.AverageScore != 66.67 {
		t.Fatalf("unexpected statistics %+v", stats)
	}
	rows, err := s.reports.Submissions(ctx, domain.SubmissionFilter{QuizID: quiz.ID})
	if err != nil {
		t.Fatalf("admin submissions: %v", err)
	}
	if len(rows) != 1 || rows[0].Username != "taker" || rows[0].QuizTitle != "Arithmetic" {
		t.Fatalf("unexpected admin rows %+v", rows)
	}
}

func TestDeleteQuizCascades(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, ctx)

	admin := s.register(t, ctx, "admin", true)
	taker := s.register(t, ctx, "taker", false)

	quiz, err := s.authoring.CreateQuiz(ctx, admin, app.QuizInput{Title: "Temporary"})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	question, err := s.authoring.CreateQuestion(ctx, admin, app.QuestionInput{QuizID: quiz.ID, Text: "Anything?", Type: domain.QuestionShortAnswer})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	sub, err := s.submissions.Start(ctx, taker, quiz.ID, 0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	text := "something"
	if _, err := s.submissions.RecordAnswer(ctx, taker, sub.ID, app.AnswerInput{QuestionID: question.ID, AnswerText: &text}); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := s.authoring.GetPaper(ctx, quiz.ID); err != nil {
		t.Fatalf("get paper: %v", err)
	}

	if err := s.authoring.DeleteQuiz(ctx, admin, quiz.ID); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	if _, err := s.authoring.GetQuestion(ctx, question.ID); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question to be gone, got %v", err)
	}
	if _, err := s.submissions.Get(ctx, admin, sub.ID); !errors.Is(err, domain.ErrSubmissionNotFound) {
		t.Fatalf("expected submission to be gone, got %v", err)
	}
	if _, err := s.authoring.GetPaper(ctx, quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected cached paper to be invalidated, got %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}

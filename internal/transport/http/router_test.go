package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/infra/memory"
	"quiz-platform-service/internal/logger"
)

type testEnv struct {
	router *gin.Engine
	store  *memory.Store
	auth   *app.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Nop()
	store := memory.NewStore()
	auth := app.NewAuthService(store, "test-secret", time.Hour, 4)
	svc := Services{
		Auth:        auth,
		Users:       app.NewUserService(store),
		Authoring:   app.NewAuthoringService(store, memory.NewPaperCache(store, time.Minute)),
		Submissions: app.NewSubmissionService(store, store, app.NewScorer(), memory.NewFeedRegistry(), log),
		Reports:     app.NewReportService(store),
	}
	return &testEnv{
		router: NewRouter(svc, RouterConfig{}, log),
		store:  store,
		auth:   auth,
	}
}

// user registers an account directly and returns its id and a bearer token.
func (e *testEnv) user(t *testing.T, username string, admin bool) (int64, string) {
	t.Helper()
	ctx := context.Background()
	u, err := e.auth.Register(ctx, app.RegisterInput{Username: username, Email: username + "@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	if admin {
		if err := e.auth.GrantAdmin(ctx, username); err != nil {
			t.Fatalf("grant admin: %v", err)
		}
		u.IsAdmin = true
	}
	token, err := e.auth.IssueToken(u)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return u.ID, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// createdID posts body and returns the id field of the 201 response.
func (e *testEnv) createdID(t *testing.T, path, token string, body any, field string) int64 {
	t.Helper()
	rec := e.do(t, http.MethodPost, path, token, body)
	expectStatus(t, rec, http.StatusCreated)
	id, ok := decode(t, rec)[field].(float64)
	if !ok {
		t.Fatalf("missing %s in %s", field, rec.Body.String())
	}
	return int64(id)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/users/register", "", map[string]any{
		"username": "alice", "email": "alice@example.com", "password": "secret123",
	})
	expectStatus(t, rec, http.StatusCreated)
	if msg := decode(t, rec)["message"]; msg != "User registered successfully" {
		t.Fatalf("unexpected message %v", msg)
	}

	rec = env.do(t, http.MethodPost, "/users/register", "", map[string]any{
		"username": "alice", "email": "other@example.com", "password": "secret123",
	})
	expectStatus(t, rec, http.StatusConflict)

	rec = env.do(t, http.MethodPost, "/users/register", "", map[string]any{
		"username": "bob", "password": "secret123",
	})
	expectStatus(t, rec, http.StatusBadRequest)
	if msg := decode(t, rec)["error"]; msg != "email is required" {
		t.Fatalf("unexpected validation message %v", msg)
	}

	rec = env.do(t, http.MethodPost, "/users/login", "", map[string]any{"username": "alice", "password": "wrong"})
	expectStatus(t, rec, http.StatusUnauthorized)
	if msg := decode(t, rec)["error"]; msg != "Invalid credentials" {
		t.Fatalf("unexpected error %v", msg)
	}

	rec = env.do(t, http.MethodPost, "/users/login", "", map[string]any{"username": "alice", "password": "secret123"})
	expectStatus(t, rec, http.StatusOK)
	body := decode(t, rec)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("expected token in %v", body)
	}
	user, _ := body["user"].(map[string]any)
	if user["username"] != "alice" || user["is_admin"] != false {
		t.Fatalf("unexpected user %v", user)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("password hash must not be serialised")
	}

	id := int64(user["user_id"].(float64))
	rec = env.do(t, http.MethodGet, "/users/"+itoa(id), token, nil)
	expectStatus(t, rec, http.StatusOK)
}

func TestSubmissionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.user(t, "admin", true)
	_, takerToken := env.user(t, "taker", false)

	quizID := env.createdID(t, "/quizzes", adminToken, map[string]any{"title": "Arithmetic"}, "quiz_id")
	questionID := env.createdID(t, "/questions", adminToken, map[string]any{
		"quiz_id": quizID, "question_text": "What is 2 + 2?", "question_type": "multiple_choice", "points": 2,
	}, "question_id")
	env.createdID(t, "/questions/"+itoa(questionID)+"/options", adminToken, map[string]any{"option_text": "3"}, "option_id")
	correctID := env.createdID(t, "/questions/"+itoa(questionID)+"/options", adminToken, map[string]any{"option_text": "4", "is_correct": true}, "option_id")

	submissionID := env.createdID(t, "/submissions", takerToken, map[string]any{"quiz_id": quizID}, "submission_id")

	rec := env.do(t, http.MethodPost, "/submissions", takerToken, map[string]any{"quiz_id": quizID})
	expectStatus(t, rec, http.StatusBadRequest)
	dup := decode(t, rec)
	if int64(dup["submission_id"].(float64)) != submissionID {
		t.Fatalf("expected existing submission id %d, got %v", submissionID, dup)
	}
	if dup["error"] != "You already have an in-progress submission for this quiz" {
		t.Fatalf("unexpected error %v", dup["error"])
	}

	env.createdID(t, "/submissions/"+itoa(submissionID)+"/answers", takerToken, map[string]any{
		"question_id": questionID, "selected_option_id": correctID,
	}, "answer_id")

	rec = env.do(t, http.MethodPut, "/submissions/"+itoa(submissionID)+"/complete", takerToken, nil)
	expectStatus(t, rec, http.StatusOK)
	done := decode(t, rec)
	if done["score"] != 2.0 || done["total_points"] != 2.0 || done["message"] != "Quiz submitted successfully" {
		t.Fatalf("unexpected completion %v", done)
	}

	rec = env.do(t, http.MethodPost, "/submissions/"+itoa(submissionID)+"/answers", takerToken, map[string]any{
		"question_id": questionID, "answer_text": "late",
	})
	expectStatus(t, rec, http.StatusConflict)

	rec = env.do(t, http.MethodGet, "/submissions/"+itoa(submissionID), takerToken, nil)
	expectStatus(t, rec, http.StatusOK)
	detail := decode(t, rec)
	sub := detail["submission"].(map[string]any)
	if sub["status"] != "submitted" || sub["quiz_title"] != "Arithmetic" {
		t.Fatalf("unexpected submission %v", sub)
	}
	answers := detail["answers"].([]any)
	if len(answers) != 1 {
		t.Fatalf("expected one answer, got %d", len(answers))
	}
	answer := answers[0].(map[string]any)
	if answer["selected_option_text"] != "4" || answer["correct_option_text"] != "4" || answer["points_earned"] != 2.0 {
		t.Fatalf("unexpected answer view %v", answer)
	}

	for _, path := range []string{"/submissions/admin/statistics", "/admin/statistics"} {
		rec = env.do(t, http.MethodGet, path, adminToken, nil)
		expectStatus(t, rec, http.StatusOK)
		stats := decode(t, rec)
		if stats["totalSubmissions"] != 1.0 || stats["passRate"] != 100.0 || stats["averageScore"] != 100.0 {
			t.Fatalf("unexpected statistics from %s: %v", path, stats)
		}
	}

	rec = env.do(t, http.MethodGet, "/admin/submissions?status=submitted", adminToken, nil)
	expectStatus(t, rec, http.StatusOK)
	var rows []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 1 || rows[0]["username"] != "taker" || rows[0]["quiz_title"] != "Arithmetic" {
		t.Fatalf("unexpected admin rows %v", rows)
	}
}

func TestEssayEarnsHalfCredit(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.user(t, "admin", true)
	_, takerToken := env.user(t, "taker", false)

	quizID := env.createdID(t, "/quizzes", adminToken, map[string]any{"title": "Writing"}, "quiz_id")
	questionID := env.createdID(t, "/questions", adminToken, map[string]any{
		"quiz_id": quizID, "question_text": "Explain", "question_type": "essay", "points": 4,
	}, "question_id")
	submissionID := env.createdID(t, "/submissions", takerToken, map[string]any{"quiz_id": quizID}, "submission_id")
	env.createdID(t, "/submissions/"+itoa(submissionID)+"/answers", takerToken, map[string]any{
		"question_id": questionID, "answer_text": "my response",
	}, "answer_id")

	rec := env.do(t, http.MethodPut, "/submissions/"+itoa(submissionID)+"/complete", takerToken, nil)
	expectStatus(t, rec, http.StatusOK)
	done := decode(t, rec)
	if done["score"] != 2.0 || done["total_points"] != 4.0 {
		t.Fatalf("expected 2/4, got %v", done)
	}
}

func TestAccessControl(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.user(t, "admin", true)
	aliceID, aliceToken := env.user(t, "alice", false)
	_, bobToken := env.user(t, "bob", false)

	rec := env.do(t, http.MethodPost, "/quizzes", "", map[string]any{"title": "Anonymous"})
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = env.do(t, http.MethodGet, "/quizzes", "not-a-token", nil)
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = env.do(t, http.MethodGet, "/admin/statistics", aliceToken, nil)
	expectStatus(t, rec, http.StatusForbidden)
	if msg := decode(t, rec)["error"]; msg != "Admin access required" {
		t.Fatalf("unexpected error %v", msg)
	}

	quizID := env.createdID(t, "/quizzes", adminToken, map[string]any{"title": "Owned"}, "quiz_id")
	rec = env.do(t, http.MethodPut, "/quizzes/"+itoa(quizID), aliceToken, map[string]any{"title": "Hijacked"})
	expectStatus(t, rec, http.StatusForbidden)

	rec = env.do(t, http.MethodPost, "/submissions", bobToken, map[string]any{"quiz_id": quizID, "user_id": aliceID})
	expectStatus(t, rec, http.StatusForbidden)

	submissionID := env.createdID(t, "/submissions", aliceToken, map[string]any{"quiz_id": quizID}, "submission_id")
	rec = env.do(t, http.MethodGet, "/submissions/"+itoa(submissionID), bobToken, nil)
	expectStatus(t, rec, http.StatusForbidden)
	rec = env.do(t, http.MethodGet, "/submissions/"+itoa(submissionID), adminToken, nil)
	expectStatus(t, rec, http.StatusOK)

	rec = env.do(t, http.MethodGet, "/users/"+itoa(aliceID), bobToken, nil)
	expectStatus(t, rec, http.StatusForbidden)

	rec = env.do(t, http.MethodGet, "/submissions?user_id="+itoa(aliceID), bobToken, nil)
	expectStatus(t, rec, http.StatusForbidden)
}

func TestAuthoringRules(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.user(t, "author", false)

	rec := env.do(t, http.MethodPost, "/quizzes", token, map[string]any{"description": "no title"})
	expectStatus(t, rec, http.StatusBadRequest)
	if msg := decode(t, rec)["error"]; msg != "Title and created_by are required" {
		t.Fatalf("unexpected error %v", msg)
	}

	quizID := env.createdID(t, "/quizzes", token, map[string]any{"title": "Capitals"}, "quiz_id")

	rec = env.do(t, http.MethodPost, "/questions", token, map[string]any{
		"quiz_id": quizID, "question_text": "?", "question_type": "matching",
	})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = env.do(t, http.MethodPost, "/questions", token, map[string]any{
		"quiz_id": 999, "question_text": "?", "question_type": "essay",
	})
	expectStatus(t, rec, http.StatusNotFound)

	questionID := env.createdID(t, "/questions", token, map[string]any{
		"quiz_id": quizID, "question_text": "Capital of France?", "question_type": "multiple_choice",
	}, "question_id")
	env.createdID(t, "/questions/"+itoa(questionID)+"/options", token, map[string]any{"option_text": "Paris", "is_correct": true}, "option_id")
	rec = env.do(t, http.MethodPost, "/questions/"+itoa(questionID)+"/options", token, map[string]any{"option_text": "Lyon", "is_correct": true})
	expectStatus(t, rec, http.StatusConflict)

	rec = env.do(t, http.MethodGet, "/quizzes/"+itoa(quizID)+"/paper", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if strings.Contains(rec.Body.String(), "is_correct") {
		t.Fatalf("paper must not reveal correctness: %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodPut, "/quizzes/"+itoa(quizID), token, map[string]any{"is_published": true})
	expectStatus(t, rec, http.StatusOK)
	rec = env.do(t, http.MethodGet, "/quizzes?is_published=true", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var quizzes []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &quizzes); err != nil {
		t.Fatalf("decode quizzes: %v", err)
	}
	if len(quizzes) != 1 || quizzes[0]["published_at"] == nil {
		t.Fatalf("expected one published quiz with published_at, got %v", quizzes)
	}

	rec = env.do(t, http.MethodDelete, "/quizzes/"+itoa(quizID), token, nil)
	expectStatus(t, rec, http.StatusNoContent)
	rec = env.do(t, http.MethodGet, "/questions/"+itoa(questionID), "", nil)
	expectStatus(t, rec, http.StatusNotFound)
	if msg := decode(t, rec)["error"]; msg != "Question not found" {
		t.Fatalf("unexpected error %v", msg)
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Header().Get(requestHeader) == "" {
		t.Fatalf("expected %s header", requestHeader)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestUnpublishedQuizzesAndTimeLimitClear(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.user(t, "author", false)

	draftID := env.createdID(t, "/quizzes", token, map[string]any{"title": "Draft", "time_limit_minutes": 15}, "quiz_id")
	liveID := env.createdID(t, "/quizzes", token, map[string]any{"title": "Live"}, "quiz_id")
	rec := env.do(t, http.MethodPut, "/quizzes/"+itoa(liveID), token, map[string]any{"is_published": true})
	expectStatus(t, rec, http.StatusOK)

	rec = env.do(t, http.MethodGet, "/quizzes/unpublished", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var drafts []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &drafts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(drafts) != 1 || drafts[0]["quiz_id"] != float64(draftID) {
		t.Fatalf("expected only the draft quiz, got %v", drafts)
	}
	if drafts[0]["time_limit_minutes"] != 15.0 {
		t.Fatalf("expected time limit 15, got %v", drafts[0]["time_limit_minutes"])
	}

	rec = env.do(t, http.MethodPut, "/quizzes/"+itoa(draftID), token, map[string]any{"time_limit_minutes": 0})
	expectStatus(t, rec, http.StatusOK)
	rec = env.do(t, http.MethodGet, "/quizzes/"+itoa(draftID), "", nil)
	expectStatus(t, rec, http.StatusOK)
	if limit, ok := decode(t, rec)["time_limit_minutes"]; !ok || limit != nil {
		t.Fatalf("expected time limit cleared, got %v", limit)
	}
}

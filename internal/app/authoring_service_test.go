package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/domain"
	"quiz-platform-service/internal/infra/memory"
)

// recordingPapers counts invalidations per quiz.
type recordingPapers struct {
	app.PaperRepository
	invalidated map[int64]int
}

func (r *recordingPapers) Invalidate(ctx context.Context, quizID int64) {
	r.invalidated[quizID]++
	r.PaperRepository.Invalidate(ctx, quizID)
}

func newAuthoring(t *testing.T) (*app.AuthoringService, *recordingPapers) {
	t.Helper()
	store := memory.NewStore()
	papers := &recordingPapers{PaperRepository: memory.NewPaperCache(store, time.Minute), invalidated: map[int64]int{}}
	return app.NewAuthoringService(store, papers), papers
}

func TestCreateQuizDefaultsOwnerToCaller(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthoring(t)
	caller := domain.Principal{UserID: 7}

	quiz, err := svc.CreateQuiz(ctx, caller, app.QuizInput{Title: "History"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if quiz.CreatedBy != 7 || quiz.IsPublished {
		t.Fatalf("unexpected quiz %+v", quiz)
	}

	if _, err := svc.CreateQuiz(ctx, caller, app.QuizInput{Title: "Other", CreatedBy: 8}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	var verr *domain.ValidationError
	if _, err := svc.CreateQuiz(ctx, caller, app.QuizInput{Title: "  "}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.CreateQuiz(ctx, caller, app.QuizInput{Title: "Timed", TimeLimitMinutes: intPtr(0)}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for time limit, got %v", err)
	}
}

func TestOnlyOwnerOrAdminMutates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthoring(t)
	owner := domain.Principal{UserID: 1}
	stranger := domain.Principal{UserID: 2}
	admin := domain.Principal{UserID: 3, IsAdmin: true}

	quiz, err := svc.CreateQuiz(ctx, owner, app.QuizInput{Title: "Owned"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	title := "Renamed"
	if _, err := svc.UpdateQuiz(ctx, stranger, quiz.ID, app.QuizPatch{Title: &title}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.CreateQuestion(ctx, stranger, app.QuestionInput{QuizID: quiz.ID, Text: "?", Type: domain.QuestionEssay}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	updated, err := svc.UpdateQuiz(ctx, admin, quiz.ID, app.QuizPatch{Title: &title})
	if err != nil || updated.Title != title {
		t.Fatalf("expected admin update to succeed, got %+v (%v)", updated, err)
	}
}

func TestQuestionValidationAndDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthoring(t)
	owner := domain.Principal{UserID: 1}
	quiz, _ := svc.CreateQuiz(ctx, owner, app.QuizInput{Title: "Q"})

	question, err := svc.CreateQuestion(ctx, owner, app.QuestionInput{QuizID: quiz.ID, Text: "Why?", Type: domain.QuestionShortAnswer})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if question.Points != 1 {
		t.Fatalf("expected default of 1 point, got %d", question.Points)
	}

	var verr *domain.ValidationError
	bad := []app.QuestionInput{
		{QuizID: quiz.ID, Text: "", Type: domain.QuestionEssay},
		{QuizID: quiz.ID, Text: "x", Type: "matching"},
		{QuizID: quiz.ID, Text: "x", Type: domain.QuestionEssay, Points: intPtr(0)},
		{Text: "x", Type: domain.QuestionEssay},
	}
	for i, in := range bad {
		if _, err := svc.CreateQuestion(ctx, owner, in); !errors.As(err, &verr) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	if _, err := svc.CreateQuestion(ctx, owner, app.QuestionInput{QuizID: 404, Text: "x", Type: domain.QuestionEssay}); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func TestSingleCorrectOptionForMultipleChoice(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthoring(t)
	owner := domain.Principal{UserID: 1}
	quiz, _ := svc.CreateQuiz(ctx, owner, app.QuizInput{Title: "MC"})
	question, _ := svc.CreateQuestion(ctx, owner, app.QuestionInput{QuizID: quiz.ID, Text: "2+2", Type: domain.QuestionMultipleChoice})

	if _, err := svc.CreateOption(ctx, owner, question.ID, app.OptionInput{Text: "4", IsCorrect: true}); err != nil {
		t.Fatalf("create option failed: %v", err)
	}
	wrong, err := svc.CreateOption(ctx, owner, question.ID, app.OptionInput{Text: "5"})
	if err != nil {
		t.Fatalf("create option failed: %v", err)
	}
	if _, err := svc.CreateOption(ctx, owner, question.ID, app.OptionInput{Text: "four", IsCorrect: true}); !errors.Is(err, domain.ErrCorrectOptionExists) {
		t.Fatalf("expected correct option conflict, got %v", err)
	}
	if _, err := svc.UpdateOption(ctx, owner, wrong.ID, app.OptionPatch{IsCorrect: boolPtr(true)}); !errors.Is(err, domain.ErrCorrectOptionExists) {
		t.Fatalf("expected correct option conflict on update, got %v", err)
	}

	// true_false questions may mark several options correct.
	tf, _ := svc.CreateQuestion(ctx, owner, app.QuestionInput{QuizID: quiz.ID, Text: "Sky is blue", Type: domain.QuestionTrueFalse})
	for _, text := range []string{"true", "yes"} {
		if _, err := svc.CreateOption(ctx, owner, tf.ID, app.OptionInput{Text: text, IsCorrect: true}); err != nil {
			t.Fatalf("create option failed: %v", err)
		}
	}
}

func TestMutationsInvalidatePaper(t *testing.T) {
	ctx := context.Background()
	svc, papers := newAuthoring(t)
	owner := domain.Principal{UserID: 1}
	quiz, _ := svc.CreateQuiz(ctx, owner, app.QuizInput{Title: "Cached"})
	question, _ := svc.CreateQuestion(ctx, owner, app.QuestionInput{QuizID: quiz.ID, Text: "1+1", Type: domain.QuestionMultipleChoice})

	paper, err := svc.GetPaper(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("get paper failed: %v", err)
	}
	if len(paper.Questions) != 1 || len(paper.Questions[0].Options) != 0 {
		t.Fatalf("unexpected paper %+v", paper)
	}

	if _, err := svc.CreateOption(ctx, owner, question.ID, app.OptionInput{Text: "2", IsCorrect: true}); err != nil {
		t.Fatalf("create option failed: %v", err)
	}
	paper, err = svc.GetPaper(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("get paper failed: %v", err)
	}
	if len(paper.Questions[0].Options) != 1 {
		t.Fatalf("expected refreshed paper with 1 option, got %+v", paper.Questions[0].Options)
	}
	if papers.invalidated[quiz.ID] != 2 {
		t.Fatalf("expected 2 invalidations, got %d", papers.invalidated[quiz.ID])
	}

	published := true
	updated, err := svc.UpdateQuiz(ctx, owner, quiz.ID, app.QuizPatch{IsPublished: &published})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if updated.PublishedAt == nil {
		t.Fatalf("expected published_at to be set")
	}
	if err := svc.DeleteQuiz(ctx, owner, quiz.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.GetPaper(ctx, quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected deleted quiz paper to be gone, got %v", err)
	}
	if _, err := svc.GetQuestion(ctx, question.ID); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected questions to cascade, got %v", err)
	}
}

func TestUpdateQuizClearsTimeLimit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthoring(t)
	owner := domain.Principal{UserID: 1}
	quiz, err := svc.CreateQuiz(ctx, owner, app.QuizInput{Title: "Timed", TimeLimitMinutes: intPtr(30)})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	title := "Still timed"
	updated, err := svc.UpdateQuiz(ctx, owner, quiz.ID, app.QuizPatch{Title: &title})
	if err != nil || updated.TimeLimitMinutes == nil || *updated.TimeLimitMinutes != 30 {
		t.Fatalf("expected time limit kept, got %v (%v)", updated.TimeLimitMinutes, err)
	}

	var verr *domain.ValidationError
	if _, err := svc.UpdateQuiz(ctx, owner, quiz.ID, app.QuizPatch{TimeLimitMinutes: intPtr(-5)}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	updated, err = svc.UpdateQuiz(ctx, owner, quiz.ID, app.QuizPatch{TimeLimitMinutes: intPtr(0)})
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if updated.TimeLimitMinutes != nil {
		t.Fatalf("expected cleared time limit, got %d", *updated.TimeLimitMinutes)
	}
	stored, _ := svc.GetQuiz(ctx, quiz.ID)
	if stored.TimeLimitMinutes != nil {
		t.Fatalf("expected stored time limit cleared")
	}
}

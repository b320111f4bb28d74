package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ethics-quiz-service/internal/app"
	"ethics-quiz-service/internal/domain"
	"ethics-quiz-service/internal/infra/memory"
)

func newTestService() *app.QuizService {
	session := app.NewSession(app.SessionConfig{AdminPassword: "Password123"})
	repo := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(map[string]domain.QuestionSet{
		"moral-quiz": testQuestionSet(),
	}), 5*time.Minute)
	return app.NewQuizService(session, repo, "moral-quiz")
}

func TestServiceFullQuizFlow(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	alice, err := service.Join(ctx, "Alice", "")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	bob, err := service.Join(ctx, "Bob", "")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}

	adminID, err := service.AuthenticateAdmin(ctx, "Password123")
	if err != nil {
		t.Fatalf("admin auth failed: %v", err)
	}

	first, err := service.StartQuiz(ctx, adminID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if first.ID != 1 {
		t.Fatalf("expected first question, got %d", first.ID)
	}

	if err := service.SubmitAnswer(ctx, alice.ID, 1, domain.AnswerNo); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := service.SubmitAnswer(ctx, bob.ID, 1, domain.AnswerYes); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	next, completed, err := service.NextQuestion(ctx, adminID)
	if err != nil || completed {
		t.Fatalf("expected question 2, got completed=%v err=%v", completed, err)
	}
	if next.ID != 2 {
		t.Fatalf("expected question 2, got %d", next.ID)
	}
	if err := service.SubmitAnswer(ctx, alice.ID, 2, domain.AnswerYes); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	_, completed, err = service.NextQuestion(ctx, adminID)
	if err != nil || !completed {
		t.Fatalf("expected completion, got completed=%v err=%v", completed, err)
	}

	results, err := service.Results(ctx)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	// Alice: no on q1 (Deontological, Kantian) + yes on q2 (Kantian) → Kantian wins.
	if got := results[alice.ID].Theory.Name; got != "Kantian Ethics" {
		t.Fatalf("expected Kantian Ethics for Alice, got %q", got)
	}
	if got := results[bob.ID].Theory.Name; got != "Utilitarianism" {
		t.Fatalf("expected Utilitarianism for Bob, got %q", got)
	}
}

func TestServiceAdminActionsRequireAdmin(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	if _, err := service.Join(ctx, "Alice", ""); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	if _, err := service.StartQuiz(ctx, "not-the-admin"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for start, got %v", err)
	}
	if err := service.LockQuestion(""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for lock, got %v", err)
	}
	if err := service.ResetQuiz("wrong"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for reset, got %v", err)
	}
	if _, _, err := service.NextQuestion(ctx, ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for next, got %v", err)
	}
}

func TestServiceJoinRequiresContent(t *testing.T) {
	session := app.NewSession(app.SessionConfig{AdminPassword: "Password123"})
	repo := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(nil), 5*time.Minute)
	service := app.NewQuizService(session, repo, "missing-set")

	if _, err := service.Join(context.Background(), "Alice", ""); !errors.Is(err, domain.ErrQuestionSetNotFound) {
		t.Fatalf("expected ErrQuestionSetNotFound, got %v", err)
	}
}

func TestServiceShowResultsFlipsPhase(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	alice, _ := service.Join(ctx, "Alice", "")
	adminID, _ := service.AuthenticateAdmin(ctx, "Password123")
	if _, err := service.StartQuiz(ctx, adminID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := service.SubmitAnswer(ctx, alice.ID, 1, domain.AnswerYes); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	results, err := service.ShowResults(ctx, adminID)
	if err != nil {
		t.Fatalf("show results failed: %v", err)
	}
	if _, ok := results[alice.ID]; !ok {
		t.Fatalf("expected a result for Alice")
	}
	if !service.Snapshot().ShowResults {
		t.Fatalf("expected showResults flag set")
	}
}

func TestServiceSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	ch, cancel := service.Subscribe()
	defer cancel()

	<-ch // initial snapshot

	if _, err := service.Join(ctx, "Alice", ""); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	update := <-ch
	if len(update.Participants) != 1 {
		t.Fatalf("expected join update, got %+v", update.Participants)
	}
}

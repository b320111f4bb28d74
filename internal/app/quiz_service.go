package app

import (
	"context"

	"ethics-quiz-service/internal/domain"
)

// QuestionRepository loads quiz content (from cache/backing store).
type QuestionRepository interface {
	GetQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error)
}

// QuizService contains the quiz use cases: it funnels every client action
// into the session and pairs admin actions with authorization checks.
type QuizService struct {
	session   *Session
	questions QuestionRepository
	setID     string
}

func NewQuizService(session *Session, questions QuestionRepository, questionSetID string) *QuizService {
	return &QuizService{session: session, questions: questions, setID: questionSetID}
}

// Join registers a participant, or returns the existing one on rejoin.
// Content is preloaded so joining a session with no loadable content fails.
func (s *QuizService) Join(ctx context.Context, name, existingID string) (domain.Participant, error) {
	if _, err := s.questions.GetQuestionSet(ctx, s.setID); err != nil {
		return domain.Participant{}, err
	}
	return s.session.Join(name, existingID)
}

// AuthenticateAdmin checks the password and claims the admin slot.
func (s *QuizService) AuthenticateAdmin(_ context.Context, password string) (string, error) {
	return s.session.AuthenticateAdmin(password)
}

// SubmitAnswer records a participant's answer to a question.
func (s *QuizService) SubmitAnswer(ctx context.Context, participantID string, questionID int, answer domain.Answer) error {
	qs, err := s.questions.GetQuestionSet(ctx, s.setID)
	if err != nil {
		return err
	}
	return s.session.SubmitAnswer(participantID, questionID, answer, qs)
}

// StartQuiz begins the quiz and returns the first question. Admin only.
func (s *QuizService) StartQuiz(ctx context.Context, adminID string) (domain.Question, error) {
	if !s.session.IsAdmin(adminID) {
		return domain.Question{}, domain.ErrUnauthorized
	}
	qs, err := s.questions.GetQuestionSet(ctx, s.setID)
	if err != nil {
		return domain.Question{}, err
	}
	return s.session.Start(qs)
}

// NextQuestion advances the quiz. The boolean reports completion, in which
// case no question is returned and results are ready to show. Admin only.
func (s *QuizService) NextQuestion(ctx context.Context, adminID string) (domain.Question, bool, error) {
	if !s.session.IsAdmin(adminID) {
		return domain.Question{}, false, domain.ErrUnauthorized
	}
	qs, err := s.questions.GetQuestionSet(ctx, s.setID)
	if err != nil {
		return domain.Question{}, false, err
	}
	return s.session.Advance(qs)
}

// ShowResults computes results and flips the session into its results phase.
// Admin only.
func (s *QuizService) ShowResults(ctx context.Context, adminID string) (map[string]domain.Result, error) {
	if !s.session.IsAdmin(adminID) {
		return nil, domain.ErrUnauthorized
	}
	results, err := s.Results(ctx)
	if err != nil {
		return nil, err
	}
	s.session.ShowResults()
	return results, nil
}

// LockQuestion closes the current question, starting the lock countdown.
// Admin only.
func (s *QuizService) LockQuestion(adminID string) error {
	if !s.session.IsAdmin(adminID) {
		return domain.ErrUnauthorized
	}
	s.session.Lock()
	return nil
}

// UnlockQuestion reopens the current question. Admin only.
func (s *QuizService) UnlockQuestion(adminID string) error {
	if !s.session.IsAdmin(adminID) {
		return domain.ErrUnauthorized
	}
	s.session.Unlock()
	return nil
}

// ResetQuiz restores the session to its initial state, keeping the admin.
// Admin only.
func (s *QuizService) ResetQuiz(adminID string) error {
	if !s.session.IsAdmin(adminID) {
		return domain.ErrUnauthorized
	}
	s.session.Reset()
	return nil
}

// Leave removes a participant, or clears the admin slot for the admin id.
func (s *QuizService) Leave(id string) {
	s.session.Leave(id)
}

// Results recomputes the per-participant theory assignment from the current
// session snapshot. Read-only.
func (s *QuizService) Results(ctx context.Context) (map[string]domain.Result, error) {
	qs, err := s.questions.GetQuestionSet(ctx, s.setID)
	if err != nil {
		return nil, err
	}
	return ComputeResults(s.session.Snapshot(), qs), nil
}

// CurrentQuestion returns the question at the session's current index.
func (s *QuizService) CurrentQuestion(ctx context.Context) (domain.Question, error) {
	snap := s.session.Snapshot()
	if snap.CurrentQuestionIndex == nil {
		return domain.Question{}, domain.ErrNotStarted
	}
	qs, err := s.questions.GetQuestionSet(ctx, s.setID)
	if err != nil {
		return domain.Question{}, err
	}
	if *snap.CurrentQuestionIndex >= len(qs.Questions) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return qs.Questions[*snap.CurrentQuestionIndex], nil
}

// Snapshot returns the current session state.
func (s *QuizService) Snapshot() domain.SessionSnapshot {
	return s.session.Snapshot()
}

// Subscribe returns a channel that receives session snapshots on every
// mutation. The caller must invoke the returned cancel function to avoid
// leaks.
func (s *QuizService) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	return s.session.Subscribe()
}

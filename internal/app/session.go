package app

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"ethics-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// AdminPolicy decides what happens when a second admin authenticates while
// one is already active.
type AdminPolicy string

const (
	// AdminPolicyReject refuses a second admin until the current one leaves.
	AdminPolicyReject AdminPolicy = "reject-second-admin"
	// AdminPolicyReassign silently hands the admin slot to the newcomer.
	AdminPolicyReassign AdminPolicy = "allow-reassignment"
)

const (
	maxParticipants = 4
	// lockWindow is the grace period after a question is locked during which
	// late answers are still accepted. Expiry is evaluated lazily against the
	// stored lock timestamp; there is no timer.
	lockWindow = 10 * time.Second
)

// Icons participants get assigned at random on join.
var participantIcons = []string{"🎭", "🎨", "🎪", "🎯", "🎲", "🎸", "🎺", "🎻", "🎬", "🎮"}

// SessionConfig carries the static settings of a session.
type SessionConfig struct {
	AdminPassword string
	AdminPolicy   AdminPolicy
}

// Session is the single shared quiz session. All mutation goes through its
// methods under one mutex; every mutating call broadcasts a fresh snapshot to
// subscribers.
type Session struct {
	cfg SessionConfig
	now func() time.Time

	mu              sync.RWMutex
	rnd             *rand.Rand
	participants    []*domain.Participant
	admin           string
	currentQuestion *int
	quizStarted     bool
	showResults     bool
	questionLocked  bool
	lockStarted     time.Time
	answerHistory   map[string][]domain.AnswerRecord
	lastUpdate      time.Time
	subscribers     map[chan domain.SessionSnapshot]struct{}
}

// NewSession builds a session with the wall clock.
func NewSession(cfg SessionConfig) *Session {
	return NewSessionWithClock(cfg, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(cfg SessionConfig, now func() time.Time) *Session {
	if cfg.AdminPolicy == "" {
		cfg.AdminPolicy = AdminPolicyReject
	}
	return &Session{
		cfg:           cfg,
		now:           now,
		rnd:           rand.New(rand.NewSource(now().UnixNano())),
		answerHistory: make(map[string][]domain.AnswerRecord),
		lastUpdate:    now(),
		subscribers:   make(map[chan domain.SessionSnapshot]struct{}),
	}
}

// Join registers a participant, or returns the existing one when the given id
// is already in the session (idempotent rejoin).
func (s *Session) Join(name, existingID string) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID != "" {
		if p := s.findLocked(existingID); p != nil {
			return copyParticipant(p), nil
		}
	}
	if len(s.participants) >= maxParticipants {
		return domain.Participant{}, domain.ErrQuizFull
	}
	if s.quizStarted {
		return domain.Participant{}, domain.ErrQuizStarted
	}

	id := existingID
	if id == "" {
		id = "participant_" + uuid.NewString()
	}
	if name == "" {
		name = "Participant " + strconv.Itoa(len(s.participants)+1)
	}
	p := &domain.Participant{
		ID:      id,
		Name:    name,
		Icon:    participantIcons[s.rnd.Intn(len(participantIcons))],
		Answers: make(map[int]domain.Answer),
	}
	s.participants = append(s.participants, p)
	s.broadcastLocked()
	return copyParticipant(p), nil
}

// AuthenticateAdmin validates the shared secret and claims the admin slot.
func (s *Session) AuthenticateAdmin(password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if password != s.cfg.AdminPassword {
		return "", domain.ErrInvalidPassword
	}
	if s.admin != "" && s.cfg.AdminPolicy == AdminPolicyReject {
		return "", domain.ErrAdminTaken
	}
	s.admin = "admin_" + uuid.NewString()
	s.broadcastLocked()
	return s.admin, nil
}

// IsAdmin reports whether the id holds the admin slot.
func (s *Session) IsAdmin(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return id != "" && id == s.admin
}

// SubmitAnswer records a participant's answer for a question and upserts the
// matching answer-history record. Resubmitting the same question overwrites
// in place.
func (s *Session) SubmitAnswer(participantID string, questionID int, answer domain.Answer, qs domain.QuestionSet) error {
	if !answer.Valid() {
		return domain.ErrInvalidAnswer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findLocked(participantID)
	if p == nil {
		return domain.ErrNotParticipant
	}
	if !s.quizStarted {
		return domain.ErrNotStarted
	}
	if s.questionLocked && s.now().Sub(s.lockStarted) >= lockWindow {
		return domain.ErrQuestionLocked
	}

	p.Answers[questionID] = answer

	record := domain.AnswerRecord{
		QuestionID:    questionID,
		QuestionTitle: "Question " + strconv.Itoa(questionID),
		Answer:        answer,
	}
	if q, ok := qs.QuestionByID(questionID); ok {
		if q.Title != "" {
			record.QuestionTitle = q.Title
		}
		record.QuestionText = q.Question
		record.Theories = append([]string(nil), q.Answers.Detail(answer).TheoryAlignment...)
	}

	history := s.answerHistory[participantID]
	replaced := false
	for i := range history {
		if history[i].QuestionID == questionID {
			history[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		history = append(history, record)
	}
	s.answerHistory[participantID] = history
	s.broadcastLocked()
	return nil
}

// Start begins the quiz at the first question, clearing any previous answers.
func (s *Session) Start(qs domain.QuestionSet) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.participants) == 0 {
		return domain.Question{}, domain.ErrNoParticipants
	}
	if len(qs.Questions) == 0 {
		return domain.Question{}, domain.ErrQuestionNotFound
	}

	s.quizStarted = true
	idx := 0
	s.currentQuestion = &idx
	s.showResults = false
	s.questionLocked = false
	s.lockStarted = time.Time{}
	s.answerHistory = make(map[string][]domain.AnswerRecord)
	for _, p := range s.participants {
		p.Answers = make(map[int]domain.Answer)
	}
	s.broadcastLocked()
	return qs.Questions[0], nil
}

// Advance moves to the next question. When the sequence is exhausted it flips
// showResults and reports completion instead of returning a question.
func (s *Session) Advance(qs domain.QuestionSet) (domain.Question, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentQuestion == nil {
		idx := 0
		s.currentQuestion = &idx
	} else {
		*s.currentQuestion++
	}
	s.questionLocked = false
	s.lockStarted = time.Time{}

	if *s.currentQuestion >= len(qs.Questions) {
		s.showResults = true
		s.broadcastLocked()
		return domain.Question{}, true, nil
	}
	s.broadcastLocked()
	return qs.Questions[*s.currentQuestion], false, nil
}

// Lock closes the current question and stamps the countdown start.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questionLocked = true
	s.lockStarted = s.now()
	s.broadcastLocked()
}

// Unlock reopens the current question.
func (s *Session) Unlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questionLocked = false
	s.lockStarted = time.Time{}
	s.broadcastLocked()
}

// ShowResults flips the results flag. Idempotent.
func (s *Session) ShowResults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showResults = true
	s.broadcastLocked()
}

// Reset restores the session to its initial state, keeping the admin identity
// and the configured password.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = nil
	s.currentQuestion = nil
	s.quizStarted = false
	s.showResults = false
	s.questionLocked = false
	s.lockStarted = time.Time{}
	s.answerHistory = make(map[string][]domain.AnswerRecord)
	s.broadcastLocked()
}

// Leave removes a participant and their answers. If the departing id holds
// the admin slot, the slot is cleared instead.
func (s *Session) Leave(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == s.admin && id != "" {
		s.admin = ""
		s.broadcastLocked()
		return
	}
	for i, p := range s.participants {
		if p.ID == id {
			s.participants = append(s.participants[:i], s.participants[i+1:]...)
			delete(s.answerHistory, id)
			s.broadcastLocked()
			return
		}
	}
}

// Snapshot returns a deep copy of the session state.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers for snapshot updates. The returned cancel must be
// called to avoid leaks. The channel receives the current snapshot first.
func (s *Session) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) findLocked(id string) *domain.Participant {
	for _, p := range s.participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Session) broadcastLocked() {
	s.lastUpdate = s.now()
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale update so a slow client never blocks mutation.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		Participants:   make([]domain.Participant, 0, len(s.participants)),
		Admin:          s.admin,
		QuizStarted:    s.quizStarted,
		ShowResults:    s.showResults,
		QuestionLocked: s.questionLocked,
		AnswerHistory:  make(map[string][]domain.AnswerRecord, len(s.answerHistory)),
		LastUpdate:     s.lastUpdate,
	}
	for _, p := range s.participants {
		snap.Participants = append(snap.Participants, copyParticipant(p))
	}
	if s.currentQuestion != nil {
		idx := *s.currentQuestion
		snap.CurrentQuestionIndex = &idx
	}
	if !s.lockStarted.IsZero() {
		t := s.lockStarted
		snap.LockCountdown = &t
	}
	for id, history := range s.answerHistory {
		snap.AnswerHistory[id] = append([]domain.AnswerRecord(nil), history...)
	}
	return snap
}

func copyParticipant(p *domain.Participant) domain.Participant {
	c := *p
	c.Answers = make(map[int]domain.Answer, len(p.Answers))
	for q, a := range p.Answers {
		c.Answers[q] = a
	}
	return c
}

package domain

import "errors"

var (
	// ErrQuizFull is returned when a fifth participant tries to join.
	ErrQuizFull = errors.New("quiz is full, maximum 4 participants allowed")
	// ErrQuizStarted is returned when joining after the quiz has started.
	ErrQuizStarted = errors.New("quiz has already started, cannot join now")
	// ErrInvalidPassword is returned on a failed admin authentication.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrAdminTaken is returned when a second admin tries to authenticate
	// while one is active and the conflict policy rejects reassignment.
	ErrAdminTaken = errors.New("admin already connected")
	// ErrUnauthorized is returned when a non-admin invokes an admin action.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotParticipant is returned when an unknown participant acts.
	ErrNotParticipant = errors.New("not a participant")
	// ErrQuestionLocked is returned when an answer arrives after the lock
	// countdown has expired.
	ErrQuestionLocked = errors.New("question is locked, voting is closed")
	// ErrNoParticipants is returned when starting a quiz nobody joined.
	ErrNoParticipants = errors.New("no participants joined yet")
	// ErrNotStarted is returned when an in-quiz action arrives before start.
	ErrNotStarted = errors.New("quiz has not started")
	// ErrQuestionSetNotFound indicates the quiz content could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrQuestionNotFound indicates a question id is not in the content.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidAnswer indicates an answer value other than yes or no.
	ErrInvalidAnswer = errors.New("answer must be yes or no")
)

package domain

import "time"

// Answer is a yes/no choice on a quiz question.
type Answer string

const (
	AnswerYes Answer = "yes"
	AnswerNo  Answer = "no"
)

// Valid reports whether the answer is one of the two accepted values.
func (a Answer) Valid() bool {
	return a == AnswerYes || a == AnswerNo
}

// Participant represents a joined quiz participant.
type Participant struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Icon    string         `json:"icon"`
	Answers map[int]Answer `json:"answers"`
}

// AnswerRecord is one entry of a participant's answer history. A participant
// has at most one record per question; resubmitting replaces it in place.
type AnswerRecord struct {
	QuestionID    int      `json:"questionId"`
	QuestionTitle string   `json:"questionTitle"`
	QuestionText  string   `json:"questionText"`
	Answer        Answer   `json:"answer"`
	Theories      []string `json:"theories"`
}

// SessionSnapshot is a deep-copied view of the quiz session, safe to hand to
// transports and subscribers.
type SessionSnapshot struct {
	Participants         []Participant             `json:"participants"`
	Admin                string                    `json:"admin,omitempty"`
	CurrentQuestionIndex *int                      `json:"currentQuestionIndex"`
	QuizStarted          bool                      `json:"quizStarted"`
	ShowResults          bool                      `json:"showResults"`
	QuestionLocked       bool                      `json:"questionLocked"`
	LockCountdown        *time.Time                `json:"lockCountdown,omitempty"`
	AnswerHistory        map[string][]AnswerRecord `json:"answerHistory"`
	LastUpdate           time.Time                 `json:"lastUpdate"`
}

// AnswerDetail carries the theory alignment and commentary attached to one
// answer value of a question in the content source.
type AnswerDetail struct {
	TheoryAlignment []string `json:"theory_alignment,omitempty"`
	Reasoning       string   `json:"reasoning,omitempty"`
	EverydayExample string   `json:"everyday_example,omitempty"`
}

// QuestionAnswers holds the detail for both answer values.
type QuestionAnswers struct {
	Yes AnswerDetail `json:"yes"`
	No  AnswerDetail `json:"no"`
}

// Detail returns the detail object for the given answer value.
func (qa QuestionAnswers) Detail(a Answer) AnswerDetail {
	if a == AnswerNo {
		return qa.No
	}
	return qa.Yes
}

// Question is a single yes/no ethics question.
type Question struct {
	ID       int             `json:"id"`
	Title    string          `json:"title,omitempty"`
	Scenario string          `json:"scenario,omitempty"`
	Question string          `json:"question"`
	Answers  QuestionAnswers `json:"answers"`
}

// QuestionSet is the quiz content: the ordered question sequence plus the
// theory-name to description mapping.
type QuestionSet struct {
	ID        string            `json:"-"`
	Questions []Question        `json:"moral_quiz"`
	Theories  map[string]string `json:"ethical_theories"`
}

// QuestionByID returns the question with the given id.
func (qs QuestionSet) QuestionByID(id int) (Question, bool) {
	for i := range qs.Questions {
		if qs.Questions[i].ID == id {
			return qs.Questions[i], true
		}
	}
	return Question{}, false
}

// ParticipantInfo is the identity slice of a participant used in results.
type ParticipantInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// TheoryAssignment names the ethical theory assigned to a participant.
type TheoryAssignment struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Result is the computed outcome for one participant.
type Result struct {
	Participant   ParticipantInfo  `json:"participant"`
	Theory        TheoryAssignment `json:"theory"`
	Tally         map[string]int   `json:"tally"`
	AnswerHistory []AnswerRecord   `json:"answerHistory"`
}

package http

import (
	"encoding/json"
	"log"
	"net/http"

	"ethics-quiz-service/internal/app"
	"ethics-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinParticipantPayload struct {
	Name          string `json:"name"`
	ParticipantID string `json:"participantId"`
}

type joinAdminPayload struct {
	Password string `json:"password"`
}

type answerPayload struct {
	QuestionID int    `json:"questionId"`
	Answer     string `json:"answer"`
}

type adminJoinedPayload struct {
	AdminID string                 `json:"adminId"`
	Session domain.SessionSnapshot `json:"session"`
}

type questionPayload struct {
	Question      domain.Question `json:"question"`
	QuestionIndex int             `json:"questionIndex"`
}

type completedPayload struct {
	Results map[string]domain.Result `json:"results"`
}

type ackPayload struct {
	Action string `json:"action"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz
// use cases. Every connected client receives a session snapshot push on each
// mutation; question content and results are pushed alongside when the
// session moves to a new question or into its results phase.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.service.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		var lastIndex *int
		resultsShown := false
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				if !h.push(send, closeSignals, outboundMessage[any]{Type: "session", Payload: update}) {
					return
				}
				if indexChanged(lastIndex, update.CurrentQuestionIndex) {
					if question, err := h.service.CurrentQuestion(r.Context()); err == nil {
						msg := outboundMessage[any]{Type: "question", Payload: questionPayload{
							Question:      question,
							QuestionIndex: *update.CurrentQuestionIndex,
						}}
						if !h.push(send, closeSignals, msg) {
							return
						}
					}
				}
				lastIndex = update.CurrentQuestionIndex
				if update.ShowResults && !resultsShown {
					if results, err := h.service.Results(r.Context()); err == nil {
						if !h.push(send, closeSignals, outboundMessage[any]{Type: "results", Payload: results}) {
							return
						}
					}
				}
				resultsShown = update.ShowResults
			case <-closeSignals:
				return
			}
		}
	}()

	var participantID, adminID string

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "joinParticipant":
			var payload joinParticipantPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid join payload")
				continue
			}
			participant, err := h.service.Join(r.Context(), payload.Name, payload.ParticipantID)
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			participantID = participant.ID
			send <- outboundMessage[any]{Type: "joined", Payload: participant}

		case "joinAdmin":
			var payload joinAdminPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid admin payload")
				continue
			}
			id, err := h.service.AuthenticateAdmin(r.Context(), payload.Password)
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			adminID = id
			send <- outboundMessage[any]{Type: "adminJoined", Payload: adminJoinedPayload{
				AdminID: id,
				Session: h.service.Snapshot(),
			}}

		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid answer payload")
				continue
			}
			if participantID == "" {
				send <- errorMessage(domain.ErrNotParticipant.Error())
				continue
			}
			if err := h.service.SubmitAnswer(r.Context(), participantID, payload.QuestionID, domain.Answer(payload.Answer)); err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "answerAccepted", Payload: ackPayload{Action: "answer"}}

		case "startQuiz":
			question, err := h.service.StartQuiz(r.Context(), adminID)
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "question", Payload: questionPayload{Question: question}}

		case "nextQuestion":
			question, completed, err := h.service.NextQuestion(r.Context(), adminID)
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			if completed {
				results, err := h.service.Results(r.Context())
				if err != nil {
					send <- errorMessage(err.Error())
					continue
				}
				send <- outboundMessage[any]{Type: "completed", Payload: completedPayload{Results: results}}
				continue
			}
			index := 0
			if snap := h.service.Snapshot(); snap.CurrentQuestionIndex != nil {
				index = *snap.CurrentQuestionIndex
			}
			send <- outboundMessage[any]{Type: "question", Payload: questionPayload{Question: question, QuestionIndex: index}}

		case "showResults":
			results, err := h.service.ShowResults(r.Context(), adminID)
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "results", Payload: results}

		case "getSession":
			send <- outboundMessage[any]{Type: "session", Payload: h.service.Snapshot()}

		case "lockQuestion":
			h.adminAction(send, "lockQuestion", h.service.LockQuestion(adminID))

		case "unlockQuestion":
			h.adminAction(send, "unlockQuestion", h.service.UnlockQuestion(adminID))

		case "resetQuiz":
			h.adminAction(send, "resetQuiz", h.service.ResetQuiz(adminID))

		default:
			send <- errorMessage("unsupported message type")
		}
	}

	if participantID != "" {
		h.service.Leave(participantID)
	}
	if adminID != "" {
		h.service.Leave(adminID)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// ServeResults recomputes the per-participant results on demand.
func (h *WSHandler) ServeResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Results(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(results); err != nil {
		log.Printf("encode results: %v", err)
	}
}

func (h *WSHandler) adminAction(send chan<- outboundMessage[any], action string, err error) {
	if err != nil {
		send <- errorMessage(err.Error())
		return
	}
	send <- outboundMessage[any]{Type: "ack", Payload: ackPayload{Action: action}}
}

func (h *WSHandler) push(send chan<- outboundMessage[any], closeSignals <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-closeSignals:
		return false
	}
}

func errorMessage(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}

func indexChanged(prev, next *int) bool {
	if next == nil {
		return false
	}
	return prev == nil || *prev != *next
}

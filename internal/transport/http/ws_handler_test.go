package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ethics-quiz-service/internal/app"
	"ethics-quiz-service/internal/domain"
	"ethics-quiz-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*httptest.Server, *app.QuizService) {
	t.Helper()
	session := app.NewSession(app.SessionConfig{AdminPassword: "Password123"})
	repo := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(sampleContent()), time.Minute)
	service := app.NewQuizService(session, repo, "moral-quiz")
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/results", wsHandler.ServeResults)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, service
}

func dialWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketParticipantJoin(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dialWS(t, server)

	// The initial session snapshot arrives on connect.
	typ, _ := readNext(conn, t, "session")
	if typ != "session" {
		t.Fatalf("expected session snapshot first, got %s", typ)
	}

	join := map[string]any{
		"type":    "joinParticipant",
		"payload": map[string]any{"name": "Alice"},
	}
	if err := conn.WriteJSON(join); err != nil {
		t.Fatalf("write join: %v", err)
	}

	payload := awaitMessage(conn, t, "joined")
	if payload["name"] != "Alice" {
		t.Fatalf("expected joined payload for Alice, got %v", payload)
	}
	if payload["id"] == "" || payload["id"] == nil {
		t.Fatalf("expected assigned id, got %v", payload)
	}
}

func TestWebSocketAdminFlow(t *testing.T) {
	server, service := newTestServer(t)

	participant := dialWS(t, server)
	readNext(participant, t, "session")
	if err := participant.WriteJSON(map[string]any{
		"type":    "joinParticipant",
		"payload": map[string]any{"name": "Alice"},
	}); err != nil {
		t.Fatalf("write join: %v", err)
	}
	awaitMessage(participant, t, "joined")

	admin := dialWS(t, server)
	readNext(admin, t, "session")

	if err := admin.WriteJSON(map[string]any{
		"type":    "joinAdmin",
		"payload": map[string]any{"password": "Password123"},
	}); err != nil {
		t.Fatalf("write admin join: %v", err)
	}
	adminPayload := awaitMessage(admin, t, "adminJoined")
	if adminPayload["adminId"] == "" || adminPayload["adminId"] == nil {
		t.Fatalf("expected admin id, got %v", adminPayload)
	}

	if err := admin.WriteJSON(map[string]any{"type": "startQuiz"}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	questionPayload := awaitMessage(admin, t, "question")
	if questionPayload["question"] == nil {
		t.Fatalf("expected question payload, got %v", questionPayload)
	}

	// Participants learn of the new question through the push channel too.
	awaitMessage(participant, t, "question")

	if !service.Snapshot().QuizStarted {
		t.Fatalf("expected quiz started")
	}
}

func TestWebSocketAdminActionRejectedForParticipant(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dialWS(t, server)
	readNext(conn, t, "session")

	if err := conn.WriteJSON(map[string]any{"type": "startQuiz"}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	payload := awaitMessage(conn, t, "error")
	if payload["message"] != domain.ErrUnauthorized.Error() {
		t.Fatalf("expected unauthorized error, got %v", payload)
	}
}

func TestResultsEndpoint(t *testing.T) {
	server, service := newTestServer(t)

	if _, err := service.Join(context.Background(), "Alice", ""); err != nil {
		t.Fatalf("join: %v", err)
	}
	resp, err := http.Get(server.URL + "/results")
	if err != nil {
		t.Fatalf("get results: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %s", ct)
	}
}

// awaitMessage reads messages until one of the wanted type arrives, skipping
// interleaved session pushes.
func awaitMessage(conn *websocket.Conn, t *testing.T, want string) map[string]any {
	t.Helper()
	for i := 0; i < 10; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == want {
			return payload
		}
	}
	t.Fatalf("did not receive %s message", want)
	return nil
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func sampleContent() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		"moral-quiz": {
			ID: "moral-quiz",
			Questions: []domain.Question{
				{
					ID:       1,
					Title:    "The Runaway Trolley",
					Question: "Would you pull the lever?",
					Answers: domain.QuestionAnswers{
						Yes: domain.AnswerDetail{TheoryAlignment: []string{"Utilitarianism"}},
						No:  domain.AnswerDetail{TheoryAlignment: []string{"Deontological Ethics"}},
					},
				},
			},
			Theories: map[string]string{
				"Utilitarianism": "Outcomes first.",
			},
		},
	}
}

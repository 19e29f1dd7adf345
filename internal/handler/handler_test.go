package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizboard-backend/internal/config"
	"github.com/stemsi/quizboard-backend/internal/middleware"
	"github.com/stemsi/quizboard-backend/internal/model"
	"github.com/stemsi/quizboard-backend/internal/response"
	"github.com/stemsi/quizboard-backend/internal/service"
	"github.com/stemsi/quizboard-backend/internal/testutil"
	"github.com/stemsi/quizboard-backend/internal/validator"
	ws "github.com/stemsi/quizboard-backend/internal/websocket"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	engine   *gin.Engine
	store    *testutil.MemoryStore
	notifier *testutil.RecordingNotifier
	auth     *service.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Setup()

	store := testutil.NewMemoryStore()
	store.AddQuestion(testutil.SeedQuestion)
	notifier := &testutil.RecordingNotifier{}

	cfg := &config.Config{JWTSecret: "handler-secret", BcryptCost: bcrypt.MinCost}
	auth := service.NewAuthService(cfg, store.Users(), nil, zerolog.Nop())
	quiz := service.NewQuizService(store.Users(), store.Questions(), notifier, nil, zerolog.Nop())

	authHandler := NewAuthHandler(auth, zerolog.Nop())
	quizHandler := NewQuizHandler(quiz, zerolog.Nop())

	r := gin.New()
	r.Use(response.RequestIDMiddleware())
	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)
	q := r.Group("/quiz", middleware.RequireJWT(auth, zerolog.Nop()))
	q.GET("/questions", quizHandler.ListQuestions)
	q.POST("/submit", quizHandler.Submit)
	q.GET("/scoreboard", quizHandler.Scoreboard)

	return &fixture{engine: r, store: store, notifier: notifier, auth: auth}
}

func (f *fixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *fixture) registerAndLogin(t *testing.T, username, password string) string {
	t.Helper()
	creds := `{"username":"` + username + `","password":"` + password + `"}`
	if w := f.do(t, http.MethodPost, "/auth/register", "", creds); w.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", w.Code, w.Body.String())
	}
	w := f.do(t, http.MethodPost, "/auth/login", "", creds)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", w.Code, w.Body.String())
	}
	var resp model.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("login body %s: %v", w.Body.String(), err)
	}
	return resp.Token
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %s: %v", w.Body.String(), err)
	}
	return body
}

func TestQuizFlow(t *testing.T) {
	f := newFixture(t)
	token := f.registerAndLogin(t, "alice", "pw123")

	w := f.do(t, http.MethodGet, "/quiz/questions", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("questions status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "answer") {
		t.Errorf("question listing leaks the answer: %s", w.Body.String())
	}
	var questions []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &questions); err != nil {
		t.Fatalf("decode questions: %v", err)
	}
	if len(questions) != 1 || questions[0]["question"] != "What is 2+2?" {
		t.Errorf("questions = %v", questions)
	}

	w = f.do(t, http.MethodPost, "/quiz/submit", token, `{"questionId":1,"answer":"4"}`)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"isCorrect":true}` {
		t.Fatalf("submit = %d %s", w.Code, w.Body.String())
	}

	broadcasts := f.notifier.Broadcasts()
	if len(broadcasts) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(broadcasts))
	}
	want := []model.ScoreEntry{{ID: 1, Username: "alice", Score: 1}}
	if len(broadcasts[0]) != 1 || broadcasts[0][0] != want[0] {
		t.Errorf("broadcast = %+v, want %+v", broadcasts[0], want)
	}

	w = f.do(t, http.MethodPost, "/quiz/submit", token, `{"questionId":1,"answer":"4"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("repeat submit status = %d, want 400", w.Code)
	}
	if body := decodeError(t, w); body.Error != "Question already answered" || body.Code != response.ErrAlreadyAnswered {
		t.Errorf("repeat body = %+v", body)
	}

	w = f.do(t, http.MethodGet, "/quiz/scoreboard", token, "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `[{"id":1,"username":"alice","score":1}]` {
		t.Errorf("scoreboard = %d %s", w.Code, w.Body.String())
	}
	if len(f.notifier.Broadcasts()) != 1 {
		t.Error("repeat submission must not broadcast")
	}
}

func TestSubmit_WrongAnswerCanBeRetried(t *testing.T) {
	f := newFixture(t)
	token := f.registerAndLogin(t, "bob", "pw")

	w := f.do(t, http.MethodPost, "/quiz/submit", token, `{"questionId":1,"answer":"5"}`)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"isCorrect":false}` {
		t.Fatalf("wrong answer = %d %s", w.Code, w.Body.String())
	}
	if len(f.notifier.Broadcasts()) != 0 {
		t.Error("wrong answer must not broadcast")
	}

	w = f.do(t, http.MethodPost, "/quiz/submit", token, `{"questionId":1,"answer":"4"}`)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"isCorrect":true}` {
		t.Errorf("retry = %d %s", w.Code, w.Body.String())
	}
}

func TestSubmit_Errors(t *testing.T) {
	f := newFixture(t)
	token := f.registerAndLogin(t, "carol", "pw")

	orphan, err := f.auth.GenerateToken(999)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name   string
		token  string
		body   string
		status int
		code   response.ErrCode
	}{
		{"unknown question", token, `{"questionId":42,"answer":"4"}`, http.StatusNotFound, response.ErrQuestionNotFound},
		{"deleted user", orphan, `{"questionId":1,"answer":"4"}`, http.StatusNotFound, response.ErrUserNotFound},
		{"missing answer", token, `{"questionId":1}`, http.StatusBadRequest, response.ErrValidation},
		{"question id beyond int4", token, `{"questionId":2147483648,"answer":"4"}`, http.StatusBadRequest, response.ErrValidation},
		{"malformed body", token, `{"questionId":`, http.StatusBadRequest, response.ErrValidation},
		{"no token", "", `{"questionId":1,"answer":"4"}`, http.StatusUnauthorized, response.ErrUnauthorized},
		{"bad token", "garbage", `{"questionId":1,"answer":"4"}`, http.StatusUnauthorized, response.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/quiz/submit", tt.token, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if got := decodeError(t, w).Code; got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}

	if len(f.notifier.Broadcasts()) != 0 {
		t.Error("failed submissions must not broadcast")
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/auth/register", "", `{"username":"dave","password":"pw"}`)
	if w.Code != http.StatusCreated || strings.TrimSpace(w.Body.String()) != `{"message":"User registered successfully"}` {
		t.Fatalf("register = %d %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodPost, "/auth/register", "", `{"username":"dave","password":"other"}`)
	if w.Code != http.StatusConflict || decodeError(t, w).Code != response.ErrUsernameTaken {
		t.Errorf("duplicate = %d %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodPost, "/auth/register", "", `{"username":""}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid body status = %d, want 400", w.Code)
	}
	if fields := decodeError(t, w).Fields; fields["username"] == "" || fields["password"] == "" {
		t.Errorf("fields = %v", fields)
	}
}

func TestRegister_PasswordByteLimit(t *testing.T) {
	f := newFixture(t)

	// 72 characters but 144 bytes.
	w := f.do(t, http.MethodPost, "/auth/register", "", `{"username":"bob","password":"`+strings.Repeat("é", 72)+`"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("multibyte password status = %d, want 400 (%s)", w.Code, w.Body.String())
	}
	body := decodeError(t, w)
	if body.Code != response.ErrValidation || body.Fields["password"] != "password must be at most 72 bytes" {
		t.Errorf("body = %+v", body)
	}

	// Exactly 72 bytes still registers and logs in.
	f.registerAndLogin(t, "bob", strings.Repeat("é", 36))
}

func TestLogin_FailuresLookTheSame(t *testing.T) {
	f := newFixture(t)
	f.registerAndLogin(t, "erin", "right")

	wrongPassword := f.do(t, http.MethodPost, "/auth/login", "", `{"username":"erin","password":"wrong"}`)
	unknownUser := f.do(t, http.MethodPost, "/auth/login", "", `{"username":"nobody","password":"right"}`)

	for _, w := range []*httptest.ResponseRecorder{wrongPassword, unknownUser} {
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
	}
	if wrongPassword.Body.String() != unknownUser.Body.String() {
		t.Errorf("bodies differ: %s vs %s", wrongPassword.Body.String(), unknownUser.Body.String())
	}
	if decodeError(t, wrongPassword).Error != "Invalid username or password" {
		t.Errorf("message = %s", wrongPassword.Body.String())
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	f := newFixture(t)
	token := f.registerAndLogin(t, "frank", "pw")
	f.store.Err = errors.New("connection refused on 10.0.0.5:5432")

	for _, path := range []string{"/quiz/questions", "/quiz/scoreboard"} {
		w := f.do(t, http.MethodGet, path, token, "")
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("%s status = %d, want 500", path, w.Code)
		}
		if strings.Contains(w.Body.String(), "10.0.0.5") {
			t.Errorf("%s leaks internals: %s", path, w.Body.String())
		}
	}

	w := f.do(t, http.MethodPost, "/auth/login", "", `{"username":"frank","password":"pw"}`)
	if w.Code != http.StatusInternalServerError || decodeError(t, w).Code != response.ErrInternal {
		t.Errorf("login = %d %s", w.Code, w.Body.String())
	}
}

func TestScoreboardStream_SnapshotThenUpdates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := testutil.NewMemoryStore()
	store.AddQuestion(testutil.SeedQuestion)

	cfg := &config.Config{JWTSecret: "ws-secret", BcryptCost: bcrypt.MinCost}
	auth := service.NewAuthService(cfg, store.Users(), nil, zerolog.Nop())
	hub := ws.NewHub(8, nil, zerolog.Nop())
	t.Cleanup(hub.Close)
	quiz := service.NewQuizService(store.Users(), store.Questions(), hub, nil, zerolog.Nop())

	r := gin.New()
	r.GET("/ws/scoreboard", NewWSHandler(hub, quiz, zerolog.Nop(), nil).ScoreboardStream)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	user, err := auth.Register(t.Context(), "grace", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/scoreboard", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() ws.Message {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg struct {
			Event ws.Event           `json:"event"`
			Data  []model.ScoreEntry `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		return ws.Message{Event: msg.Event, Data: msg.Data}
	}

	snapshot := read()
	if snapshot.Event != ws.EventScoreUpdated {
		t.Fatalf("event = %q", snapshot.Event)
	}
	if scores := snapshot.Data.([]model.ScoreEntry); len(scores) != 1 || scores[0].Score != 0 {
		t.Errorf("snapshot = %+v", scores)
	}

	if ok, err := quiz.SubmitAnswer(t.Context(), user.ID, 1, "4"); err != nil || !ok {
		t.Fatalf("SubmitAnswer = %v, %v", ok, err)
	}

	update := read()
	want := model.ScoreEntry{ID: user.ID, Username: "grace", Score: 1}
	if scores := update.Data.([]model.ScoreEntry); len(scores) != 1 || scores[0] != want {
		t.Errorf("update = %+v, want %+v", scores, want)
	}
}

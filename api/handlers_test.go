package api

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/crypto/bcrypt"

	"taskboard-api/auth"
	"taskboard-api/domain"
	"taskboard-api/service"
	"taskboard-api/storage/sqlite"
)

type testServer struct {
	e      *echo.Echo
	tokens *auth.Tokens
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	tokens, err := auth.NewTokens([]byte("api-test-secret"), 30*time.Minute)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	logger, _ := test.NewNullLogger()

	e := echo.New()
	Register(e, Services{
		Boards:      service.NewBoards(store, logger),
		Tasks:       service.NewTasks(store, false, logger),
		Credentials: auth.NewCredentials(store, auth.BcryptHasher{Cost: bcrypt.MinCost}, tokens, logger),
		Auth:        tokens,
		Health:      store,
	}, logger)
	return &testServer{e: e, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, name, email string) (int64, string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/users/", "", map[string]string{"name": name, "email": email, "password": "pw-" + name})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	var u userResponse
	decode(t, rec, &u)

	form := url.Values{"username": {email}, "password": {"pw-" + name}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	login := httptest.NewRecorder()
	s.e.ServeHTTP(login, req)
	if login.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, login.Code, login.Body.String())
	}
	var tok tokenResponse
	decode(t, login, &tok)
	if tok.TokenType != "bearer" || tok.AccessToken == "" {
		t.Fatalf("unexpected token response %#v", tok)
	}
	return u.ID, tok.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := sonic.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("want status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var msg messageResponse
	decode(t, rec, &msg)
	if msg.Message != "Hello , World!" {
		t.Fatalf("unexpected root message %q", msg.Message)
	}

	expectStatus(t, s.do(t, http.MethodGet, "/healthz", "", nil), http.StatusOK)
}

func TestUserEndpoints(t *testing.T) {
	s := newTestServer(t)
	id, token := s.register(t, "ann", "Ann@Example.com")

	rec := s.do(t, http.MethodGet, "/users/"+strconv.FormatInt(id, 10), "", nil)
	expectStatus(t, rec, http.StatusOK)
	var u userResponse
	decode(t, rec, &u)
	if u.Email != "ann@example.com" || u.Name != "ann" {
		t.Fatalf("unexpected user %#v", u)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password leaked: %s", rec.Body.String())
	}

	me := s.do(t, http.MethodGet, "/users/me", token, nil)
	expectStatus(t, me, http.StatusOK)

	expectStatus(t, s.do(t, http.MethodGet, "/users/me", "", nil), http.StatusUnauthorized)
	expectStatus(t, s.do(t, http.MethodGet, "/users/999", "", nil), http.StatusNotFound)
	expectStatus(t, s.do(t, http.MethodGet, "/users/abc", "", nil), http.StatusUnprocessableEntity)

	dup := s.do(t, http.MethodPost, "/users", "", map[string]string{"name": "x", "email": "ann@example.com", "password": "p"})
	expectStatus(t, dup, http.StatusBadRequest)

	bad := s.do(t, http.MethodPost, "/users", "", map[string]string{"name": "x", "email": "nope", "password": "p"})
	expectStatus(t, bad, http.StatusUnprocessableEntity)
}

func TestLoginFailuresShareResponse(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "ann", "ann@example.com")

	wrong := s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "ann@example.com", "password": "nope"})
	unknown := s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "ghost@example.com", "password": "nope"})

	expectStatus(t, wrong, http.StatusForbidden)
	expectStatus(t, unknown, http.StatusForbidden)
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("login failures differ: %s vs %s", wrong.Body.String(), unknown.Body.String())
	}

	ok := s.do(t, http.MethodPost, "/login", "", map[string]string{"username": "ann@example.com", "password": "pw-ann"})
	expectStatus(t, ok, http.StatusOK)
}

func TestBoardsRequireValidToken(t *testing.T) {
	s := newTestServer(t)

	for name, token := range map[string]string{
		"missing":  "",
		"garbage":  "a.b.c",
		"tampered": "eyJhbGciOiJIUzI1NiJ9.eyJ1c2VyX2lkIjoxfQ.c2ln",
	} {
		t.Run(name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/boards/", token, nil)
			expectStatus(t, rec, http.StatusUnauthorized)
			if rec.Header().Get(echo.HeaderWWWAuthenticate) != "Bearer" {
				t.Fatalf("expected WWW-Authenticate header, got %q", rec.Header().Get(echo.HeaderWWWAuthenticate))
			}
			var body errorResponse
			decode(t, rec, &body)
			if body.Detail != domain.ErrInvalidToken.Error() {
				t.Fatalf("unexpected detail %q", body.Detail)
			}
		})
	}
}

func TestBoardLifecycle(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register(t, "ann", "ann@example.com")

	rec := s.do(t, http.MethodPost, "/boards/", token, map[string]string{"title": "Home", "description": "chores"})
	expectStatus(t, rec, http.StatusCreated)
	var board domain.Board
	decode(t, rec, &board)
	if board.ID == 0 || board.Title != "Home" {
		t.Fatalf("unexpected board %#v", board)
	}
	if !strings.Contains(rec.Body.String(), `"tasks":[]`) {
		t.Fatalf("expected empty tasks array, got %s", rec.Body.String())
	}
	path := "/boards/" + strconv.FormatInt(board.ID, 10)

	expectStatus(t, s.do(t, http.MethodPost, "/boards", token, map[string]string{"title": "x"}), http.StatusUnprocessableEntity)

	task := s.do(t, http.MethodPost, path+"/tasks/", token, map[string]any{"title": "dishes", "board_id": 999})
	expectStatus(t, task, http.StatusCreated)
	var created domain.Task
	decode(t, task, &created)
	if created.BoardID != board.ID {
		t.Fatalf("board_id must come from the path, got %d", created.BoardID)
	}

	got := s.do(t, http.MethodGet, path, token, nil)
	expectStatus(t, got, http.StatusOK)
	var withTasks domain.Board
	decode(t, got, &withTasks)
	if len(withTasks.Tasks) != 1 {
		t.Fatalf("expected the task attached, got %#v", withTasks.Tasks)
	}

	list := s.do(t, http.MethodGet, "/boards?search=Ho&limit=5", token, nil)
	expectStatus(t, list, http.StatusOK)
	var boards []domain.Board
	decode(t, list, &boards)
	if len(boards) != 1 {
		t.Fatalf("unexpected boards %#v", boards)
	}
	expectStatus(t, s.do(t, http.MethodGet, "/boards?limit=-1", token, nil), http.StatusUnprocessableEntity)

	upd := s.do(t, http.MethodPut, path, token, map[string]string{"title": "House", "description": "all chores"})
	expectStatus(t, upd, http.StatusOK)
	var updated domain.Board
	decode(t, upd, &updated)
	if updated.Title != "House" || updated.Description != "all chores" {
		t.Fatalf("unexpected update %#v", updated)
	}

	del := s.do(t, http.MethodDelete, path, token, nil)
	expectStatus(t, del, http.StatusNoContent)
	if del.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %s", del.Body.String())
	}
	expectStatus(t, s.do(t, http.MethodGet, path, token, nil), http.StatusNotFound)
	expectStatus(t, s.do(t, http.MethodGet, path+"/tasks/"+strconv.FormatInt(created.ID, 10), token, nil), http.StatusNotFound)
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register(t, "ann", "ann@example.com")

	rec := s.do(t, http.MethodPost, "/boards", token, map[string]string{"title": "Work", "description": "job"})
	var board domain.Board
	decode(t, rec, &board)
	base := "/boards/" + strconv.FormatInt(board.ID, 10) + "/tasks"

	rec = s.do(t, http.MethodPost, base, token, map[string]any{"title": "report", "due_date": "2025-09-30", "tags": "q3"})
	expectStatus(t, rec, http.StatusCreated)
	var task domain.Task
	decode(t, rec, &task)
	if task.Status != domain.StatusToDo || task.Priority != domain.PriorityMedium || task.Description != domain.DefaultDescription {
		t.Fatalf("defaults not applied %#v", task)
	}
	if !strings.Contains(rec.Body.String(), `"due_date":"2025-09-30"`) {
		t.Fatalf("unexpected due_date encoding %s", rec.Body.String())
	}
	taskPath := base + "/" + strconv.FormatInt(task.ID, 10)

	lenient := s.do(t, http.MethodPost, base, token, map[string]any{"title": "vague", "due_date": "someday"})
	expectStatus(t, lenient, http.StatusCreated)
	if !strings.Contains(lenient.Body.String(), `"due_date":null`) {
		t.Fatalf("expected malformed due date stored as null, got %s", lenient.Body.String())
	}

	expectStatus(t, s.do(t, http.MethodPost, base, token, map[string]any{"title": "x", "status": "Blocked"}), http.StatusUnprocessableEntity)

	patch := s.do(t, http.MethodPatch, taskPath, token, map[string]any{"status": "Done"})
	expectStatus(t, patch, http.StatusOK)
	var patched domain.Task
	decode(t, patch, &patched)
	if patched.Status != domain.StatusDone || patched.Title != "report" || patched.Tags != "q3" {
		t.Fatalf("patch changed more than status %#v", patched)
	}

	put := s.do(t, http.MethodPut, taskPath, token, map[string]any{"due_date": nil})
	expectStatus(t, put, http.StatusOK)
	if !strings.Contains(put.Body.String(), `"due_date":null`) {
		t.Fatalf("expected due date cleared, got %s", put.Body.String())
	}
	expectStatus(t, s.do(t, http.MethodPatch, taskPath, token, map[string]any{"title": nil}), http.StatusUnprocessableEntity)

	list := s.do(t, http.MethodGet, base+"?search=rep", token, nil)
	expectStatus(t, list, http.StatusOK)
	var tasks []domain.Task
	decode(t, list, &tasks)
	if len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Fatalf("unexpected search result %#v", tasks)
	}

	expectStatus(t, s.do(t, http.MethodDelete, taskPath, token, nil), http.StatusNoContent)
	expectStatus(t, s.do(t, http.MethodGet, taskPath, token, nil), http.StatusNotFound)
}

// User 1 requests tasks of board 7 owned by user 2, then of board 999 which does not exist.
func TestForeignBoardIsForbiddenMissingBoardIsNotFound(t *testing.T) {
	s := newTestServer(t)
	aliceID, alice := s.register(t, "alice", "alice@example.com")
	_, bob := s.register(t, "bob", "bob@example.com")
	if aliceID != 1 {
		t.Fatalf("expected alice to be user 1, got %d", aliceID)
	}

	var board domain.Board
	for i := 0; i < 7; i++ {
		rec := s.do(t, http.MethodPost, "/boards", bob, map[string]string{"title": "b", "description": "d"})
		decode(t, rec, &board)
	}
	if board.ID != 7 {
		t.Fatalf("expected board 7, got %d", board.ID)
	}

	forbidden := s.do(t, http.MethodGet, "/boards/7/tasks", alice, nil)
	expectStatus(t, forbidden, http.StatusForbidden)
	var body errorResponse
	decode(t, forbidden, &body)
	if body.Detail != domain.ErrForbidden.Error() {
		t.Fatalf("unexpected detail %q", body.Detail)
	}

	expectStatus(t, s.do(t, http.MethodGet, "/boards/999/tasks", alice, nil), http.StatusNotFound)
	expectStatus(t, s.do(t, http.MethodDelete, "/boards/7", alice, nil), http.StatusForbidden)

	// The board is untouched by the rejected delete.
	expectStatus(t, s.do(t, http.MethodGet, "/boards/7", bob, nil), http.StatusOK)
}

func TestTokenForUnknownUser(t *testing.T) {
	s := newTestServer(t)
	token, err := s.tokens.Issue(424242)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	rec := s.do(t, http.MethodPost, "/boards", token, map[string]string{"title": "t", "description": "d"})
	expectStatus(t, rec, http.StatusUnauthorized)
	if rec.Header().Get(echo.HeaderWWWAuthenticate) != "Bearer" {
		t.Fatalf("expected WWW-Authenticate header, got %q", rec.Header().Get(echo.HeaderWWWAuthenticate))
	}
	var body errorResponse
	decode(t, rec, &body)
	if body.Detail != domain.ErrInvalidToken.Error() {
		t.Fatalf("unexpected detail %q", body.Detail)
	}

	expectStatus(t, s.do(t, http.MethodGet, "/boards", token, nil), http.StatusOK)
	expectStatus(t, s.do(t, http.MethodGet, "/users/me", token, nil), http.StatusNotFound)
}

func TestTaskUnderOtherBoardIsNotFound(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register(t, "ann", "ann@example.com")

	var first, second domain.Board
	decode(t, s.do(t, http.MethodPost, "/boards", token, map[string]string{"title": "a", "description": "a"}), &first)
	decode(t, s.do(t, http.MethodPost, "/boards", token, map[string]string{"title": "b", "description": "b"}), &second)

	var task domain.Task
	decode(t, s.do(t, http.MethodPost, "/boards/"+strconv.FormatInt(first.ID, 10)+"/tasks", token, map[string]string{"title": "t"}), &task)

	wrongBoard := "/boards/" + strconv.FormatInt(second.ID, 10) + "/tasks/" + strconv.FormatInt(task.ID, 10)
	expectStatus(t, s.do(t, http.MethodGet, wrongBoard, token, nil), http.StatusNotFound)
	expectStatus(t, s.do(t, http.MethodDelete, wrongBoard, token, nil), http.StatusNotFound)
}

func TestGzipRequestBody(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register(t, "ann", "ann@example.com")

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte(`{"title":"zipped","description":"yes"}`)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/boards", &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusCreated)

	bad := httptest.NewRequest(http.MethodPost, "/boards", strings.NewReader("not gzip"))
	bad.Header.Set(echo.HeaderContentEncoding, "gzip")
	bad.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	badRec := httptest.NewRecorder()
	s.e.ServeHTTP(badRec, bad)
	expectStatus(t, badRec, http.StatusBadRequest)
}

func (s *testServer) raw(t *testing.T, path, token, encoding string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if encoding != "" {
		req.Header.Set(echo.HeaderContentEncoding, encoding)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func TestRequestBodyLimits(t *testing.T) {
	s := newTestServer(t)
	_, token := s.register(t, "ann", "ann@example.com")

	huge := []byte(`{"title":"` + strings.Repeat("a", maxRequestBodySize) + `","description":"d"}`)
	expectStatus(t, s.raw(t, "/boards", token, "", huge), http.StatusRequestEntityTooLarge)

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(huge); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if buf.Len() >= maxRequestBodySize {
		t.Fatalf("compressed payload unexpectedly large: %d", buf.Len())
	}
	expectStatus(t, s.raw(t, "/boards", token, "gzip", buf.Bytes()), http.StatusRequestEntityTooLarge)

	trailing := []byte(`{"title":"a","description":"d"} junk`)
	expectStatus(t, s.raw(t, "/boards", token, "", trailing), http.StatusUnprocessableEntity)

	two := []byte(`{"title":"a","description":"d"}{"title":"b","description":"d"}`)
	expectStatus(t, s.raw(t, "/boards", token, "", two), http.StatusUnprocessableEntity)

	ok := []byte(`{"title":"a","description":"d"}` + "\n")
	expectStatus(t, s.raw(t, "/boards", token, "", ok), http.StatusCreated)

	list := s.do(t, http.MethodGet, "/boards", token, nil)
	var boards []domain.Board
	decode(t, list, &boards)
	if len(boards) != 1 {
		t.Fatalf("rejected bodies must not create boards, got %d", len(boards))
	}
}

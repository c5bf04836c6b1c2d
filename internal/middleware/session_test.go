package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/todoman/internal/model"
)

// --- モック定義 ---

type mockSessionManager struct {
	ensureFn    func(w http.ResponseWriter, r *http.Request) (*model.Session, error)
	unbindFn    func(ctx context.Context, sess *model.Session) error
	addNoticeFn func(ctx context.Context, sess *model.Session, notice model.Notice) error
}

func (m *mockSessionManager) Ensure(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
	if m.ensureFn != nil {
		return m.ensureFn(w, r)
	}
	return &model.Session{ID: "anon"}, nil
}

func (m *mockSessionManager) Unbind(ctx context.Context, sess *model.Session) error {
	if m.unbindFn != nil {
		return m.unbindFn(ctx, sess)
	}
	sess.UserID = 0
	return nil
}

func (m *mockSessionManager) AddNotice(ctx context.Context, sess *model.Session, notice model.Notice) error {
	if m.addNoticeFn != nil {
		return m.addNoticeFn(ctx, sess, notice)
	}
	sess.Data.Notices = append(sess.Data.Notices, notice)
	return nil
}

type mockUserFinder struct {
	findByIDFn func(ctx context.Context, id int64) (*model.User, error)
}

func (m *mockUserFinder) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

// --- compile-time interface checks ---
var _ SessionManager = (*mockSessionManager)(nil)
var _ NoticeAdder = (*mockSessionManager)(nil)
var _ UserFinder = (*mockUserFinder)(nil)

// --- テスト ---

func TestSessionMiddleware_AuthenticatedSession_InjectsUser(t *testing.T) {
	sessions := &mockSessionManager{
		ensureFn: func(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
			return &model.Session{ID: "s1", UserID: 42}, nil
		},
	}
	users := &mockUserFinder{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			if id == 42 {
				return &model.User{ID: 42, Username: "alice"}, nil
			}
			return nil, nil
		},
	}

	var captured *model.User
	var capturedSession *model.Session
	handler := NewSessionMiddleware(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = UserFromContext(r.Context())
		capturedSession = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if captured == nil || captured.Username != "alice" {
		t.Errorf("user = %+v, want alice", captured)
	}
	if capturedSession == nil || capturedSession.ID != "s1" {
		t.Errorf("session = %+v, want s1", capturedSession)
	}
}

func TestSessionMiddleware_AnonymousSession_NoUser(t *testing.T) {
	users := &mockUserFinder{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			t.Fatal("FindByID should not be called for anonymous sessions")
			return nil, nil
		},
	}

	var captured *model.User
	var sessionSeen bool
	handler := NewSessionMiddleware(&mockSessionManager{}, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = UserFromContext(r.Context())
		sessionSeen = SessionFromContext(r.Context()) != nil
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/login", nil))

	if captured != nil {
		t.Errorf("user = %+v, want nil", captured)
	}
	if !sessionSeen {
		t.Error("anonymous requests should still carry a session")
	}
}

// 削除済みユーザーに紐付くセッションは匿名として扱う
func TestSessionMiddleware_DeletedUser_ClearsBinding(t *testing.T) {
	unbound := false
	sessions := &mockSessionManager{
		ensureFn: func(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
			return &model.Session{ID: "s1", UserID: 7}, nil
		},
		unbindFn: func(ctx context.Context, sess *model.Session) error {
			unbound = true
			sess.UserID = 0
			return nil
		},
	}

	var captured *model.User
	var capturedSession *model.Session
	handler := NewSessionMiddleware(sessions, &mockUserFinder{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = UserFromContext(r.Context())
		capturedSession = SessionFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !unbound {
		t.Error("expected session to be unbound")
	}
	if captured != nil {
		t.Errorf("user = %+v, want nil", captured)
	}
	if capturedSession.Authenticated() {
		t.Error("session should be anonymous after unbinding")
	}
}

func TestSessionMiddleware_EnsureError_Returns500(t *testing.T) {
	sessions := &mockSessionManager{
		ensureFn: func(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
			return nil, errors.New("db down")
		},
	}

	handler := NewSessionMiddleware(sessions, &mockUserFinder{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}
}

func TestSessionMiddleware_UserLookupError_Returns500(t *testing.T) {
	sessions := &mockSessionManager{
		ensureFn: func(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
			return &model.Session{ID: "s1", UserID: 7}, nil
		},
	}
	users := &mockUserFinder{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return nil, context.DeadlineExceeded
		},
	}

	handler := NewSessionMiddleware(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}
}

func TestUserFromContext_NoValue_ReturnsNil(t *testing.T) {
	if user := UserFromContext(context.Background()); user != nil {
		t.Errorf("user = %+v, want nil", user)
	}
	if sess := SessionFromContext(context.Background()); sess != nil {
		t.Errorf("session = %+v, want nil", sess)
	}
}

func TestContextWithUser_RoundTrip(t *testing.T) {
	ctx := ContextWithUser(context.Background(), &model.User{ID: 5})
	if user := UserFromContext(ctx); user == nil || user.ID != 5 {
		t.Errorf("user = %+v, want ID 5", user)
	}
}

// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/todoman/internal/auth"
	"github.com/hitoshi/todoman/internal/metrics"
	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
)

// 認証画面の通知メッセージ
const (
	msgRegistered        = "Registration successful! Please log in."
	msgRegisterFailed    = "An error occurred during registration. Please try again."
	msgLoginFailed       = "An error occurred during login. Please try again."
	msgLoggedOut         = "You have been logged out."
	welcomeMessagePrefix = "Welcome back, "
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	Login(ctx context.Context, username, password string) (*model.User, error)
}

// SessionService はハンドラーが必要とするセッション操作。
type SessionService interface {
	NoticePopper
	middleware.SessionManager
	middleware.NoticeAdder
	Login(ctx context.Context, w http.ResponseWriter, current *model.Session, userID int64) (*model.Session, error)
	Logout(ctx context.Context, w http.ResponseWriter, current *model.Session) (*model.Session, error)
}

type registerForm struct {
	Username string
	Email    string
}

type loginForm struct {
	Username string
	Next     string
}

// AuthHandler は登録・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	sessions SessionService
	renderer *Renderer
	metrics  metrics.Recorder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, sessions SessionService, renderer *Renderer, recorder metrics.Recorder) *AuthHandler {
	return &AuthHandler{
		service:  service,
		sessions: sessions,
		renderer: renderer,
		metrics:  recorder,
	}
}

// RegisterForm は登録フォームを表示する。
// GET /register
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, pageRegister, registerForm{})
}

// Register はアカウントを作成し、ログイン画面へリダイレクトする。
// 入力エラーの場合は入力値を残したままフォームを再表示する。
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	in := auth.RegisterInput{
		Username:        r.PostFormValue("username"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	form := registerForm{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.TrimSpace(in.Email),
	}

	if _, err := h.service.Register(r.Context(), in); err != nil {
		h.metrics.RecordAuthEvent("register", metrics.OutcomeFailure)
		if msg, ok := userMessage(err); ok {
			h.renderer.Render(w, r, http.StatusOK, pageRegister, form, model.ErrorNotice(msg))
			return
		}
		logRequestError(r, "registration failed", err)
		h.renderer.Render(w, r, http.StatusInternalServerError, pageRegister, form, model.ErrorNotice(msgRegisterFailed))
		return
	}

	h.metrics.RecordAuthEvent("register", metrics.OutcomeSuccess)
	h.addNotice(r, middleware.SessionFromContext(r.Context()), model.SuccessNotice(msgRegistered))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// LoginForm はログインフォームを表示する。
// GET /login?next=/path
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, pageLogin, loginForm{Next: r.URL.Query().Get("next")})
}

// Login は資格情報を照合してセッションを切り替え、nextまたはトップページへリダイレクトする。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	form := loginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Next:     r.PostFormValue("next"),
	}

	user, err := h.service.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		h.metrics.RecordAuthEvent("login", metrics.OutcomeFailure)
		if msg, ok := userMessage(err); ok {
			h.renderer.Render(w, r, http.StatusOK, pageLogin, form, model.ErrorNotice(msg))
			return
		}
		logRequestError(r, "login failed", err)
		h.renderer.Render(w, r, http.StatusInternalServerError, pageLogin, form, model.ErrorNotice(msgLoginFailed))
		return
	}

	// ログイン時はセッションIDを切り替え、保留中の通知を引き継ぐ
	sess, err := h.sessions.Login(r.Context(), w, middleware.SessionFromContext(r.Context()), user.ID)
	if err != nil {
		h.metrics.RecordAuthEvent("login", metrics.OutcomeFailure)
		logRequestError(r, "failed to start authenticated session", err)
		h.renderer.Render(w, r, http.StatusInternalServerError, pageLogin, form, model.ErrorNotice(msgLoginFailed))
		return
	}

	h.metrics.RecordAuthEvent("login", metrics.OutcomeSuccess)
	h.addNotice(r, sess, model.SuccessNotice(welcomeMessagePrefix+user.Username+"!"))
	http.Redirect(w, r, safeNext(form.Next), http.StatusSeeOther)
}

// Logout はセッションを破棄し、ログイン画面へリダイレクトする。
// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Logout(r.Context(), w, middleware.SessionFromContext(r.Context()))
	if err != nil {
		h.metrics.RecordAuthEvent("logout", metrics.OutcomeFailure)
		logRequestError(r, "logout failed", err)
		h.renderer.Error(w, r, http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAuthEvent("logout", metrics.OutcomeSuccess)
	h.addNotice(r, sess, model.SuccessNotice(msgLoggedOut))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) addNotice(r *http.Request, sess *model.Session, notice model.Notice) {
	addNotice(r, h.sessions, sess, notice)
}

// safeNext はログイン後の遷移先として同一サイト内のパスだけを許可する。
// 条件を満たさない場合はトップページを返す。
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}

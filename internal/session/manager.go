// Package session はCookieとサーバー側セッション行によるセッション管理を提供する。
//
// Cookieには署名付きトークン（sidクレーム）のみを保存し、
// ログイン状態や通知はsessionsテーブルに保持する。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
)

// CookieName はセッションCookieの名前。
const CookieName = "session"

// Config はセッション管理の設定。
type Config struct {
	Secret       string
	MaxAge       int // セッションの有効期間（秒）
	CookieSecure bool
	CookieDomain string
}

// Manager はセッションの開始・読み込み・ログイン状態の切り替えと通知を扱う。
type Manager struct {
	repo   repository.SessionRepository
	config Config
}

// NewManager はManagerを生成する。
func NewManager(repo repository.SessionRepository, config Config) *Manager {
	return &Manager{
		repo:   repo,
		config: config,
	}
}

// Load はCookieのトークンを検証し、有効なセッションを返す。
// Cookieがない・改ざんされている・期限切れの場合はnilを返す。
func (m *Manager) Load(r *http.Request) (*model.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	sessionID, err := parseSessionID(cookie.Value, []byte(m.config.Secret))
	if err != nil {
		slog.Warn("invalid session cookie", slog.String("error", err.Error()))
		return nil, nil
	}

	sess, err := m.repo.FindByID(r.Context(), sessionID, now())
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

// Ensure は有効なセッションを返す。存在しない場合は匿名セッションを開始する。
func (m *Manager) Ensure(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
	sess, err := m.Load(r)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}
	return m.start(r.Context(), w, 0, model.SessionData{})
}

// Login はセッションIDを再発行し、新しいセッションをユーザーに紐付ける。
// 古いセッション行は削除し、未表示の通知は新しいセッションに引き継ぐ。
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, current *model.Session, userID int64) (*model.Session, error) {
	var data model.SessionData
	if current != nil {
		data = current.Data
	}

	sess, err := m.start(ctx, w, userID, data)
	if err != nil {
		return nil, err
	}

	if current != nil {
		if err := m.repo.DeleteByID(ctx, current.ID); err != nil {
			return nil, fmt.Errorf("failed to discard previous session: %w", err)
		}
	}
	return sess, nil
}

// Logout はセッション行を削除し、新しい匿名セッションを開始する。
// 削除したセッションIDのCookieは以後どのユーザーにも解決されない。
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, current *model.Session) (*model.Session, error) {
	if current != nil {
		if err := m.repo.DeleteByID(ctx, current.ID); err != nil {
			return nil, fmt.Errorf("failed to delete session: %w", err)
		}
	}
	return m.start(ctx, w, 0, model.SessionData{})
}

// Unbind はセッションとユーザーの紐付けを解除する。
func (m *Manager) Unbind(ctx context.Context, sess *model.Session) error {
	if err := m.repo.ClearUser(ctx, sess.ID); err != nil {
		return err
	}
	sess.UserID = 0
	return nil
}

// AddNotice は次に描画されるページで表示する通知を追加する。
func (m *Manager) AddNotice(ctx context.Context, sess *model.Session, notice model.Notice) error {
	data := sess.Data
	data.Notices = append(append([]model.Notice(nil), data.Notices...), notice)

	if err := m.repo.UpdateData(ctx, sess.ID, data); err != nil {
		return err
	}
	sess.Data = data
	return nil
}

// PopNotices は未表示の通知を取り出し、セッションから削除する。
func (m *Manager) PopNotices(ctx context.Context, sess *model.Session) ([]model.Notice, error) {
	if sess == nil || len(sess.Data.Notices) == 0 {
		return nil, nil
	}

	notices := sess.Data.Notices
	data := sess.Data
	data.Notices = nil

	if err := m.repo.UpdateData(ctx, sess.ID, data); err != nil {
		return nil, err
	}
	sess.Data = data
	return notices, nil
}

// start は新しいセッション行を作成し、署名付きCookieを発行する。
func (m *Manager) start(ctx context.Context, w http.ResponseWriter, userID int64, data model.SessionData) (*model.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	createdAt := now()
	sess := &model.Session{
		ID:        id,
		UserID:    userID,
		Data:      data,
		ExpiresAt: createdAt.Add(time.Duration(m.config.MaxAge) * time.Second),
		CreatedAt: createdAt,
	}
	if err := m.repo.Create(ctx, sess); err != nil {
		return nil, err
	}

	token, err := signSessionID(sess.ID, []byte(m.config.Secret), sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Domain:   m.config.CookieDomain,
		MaxAge:   m.config.MaxAge,
		HttpOnly: true,
		Secure:   m.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	return sess, nil
}

// generateSessionID は256ビットのランダムなセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

package handler

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// ページテンプレート名
const (
	pageIndex    = "index"
	pageUpdate   = "update"
	pageLogin    = "login"
	pageRegister = "register"
	pageError    = "error"
)

var pageNames = []string{pageIndex, pageUpdate, pageLogin, pageRegister, pageError}

var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04")
	},
	"inc": func(i int) int { return i + 1 },
}

// NoticePopper は描画時に保留中の通知を取り出すインターフェース。
type NoticePopper interface {
	PopNotices(ctx context.Context, sess *model.Session) ([]model.Notice, error)
}

// pageData は全ページ共通のテンプレートデータ。
type pageData struct {
	User      *model.User
	Notices   []model.Notice
	CSRFToken string
	Data      any
}

type errorPage struct {
	Status  int
	Message string
}

// Renderer は埋め込みテンプレートからHTMLページを描画する。
type Renderer struct {
	pages   map[string]*template.Template
	notices NoticePopper
}

// NewRenderer は全ページのテンプレートを解析してRendererを生成する。
func NewRenderer(notices NoticePopper) (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages, notices: notices}, nil
}

// Render はページを描画する。
// セッションに保留された通知はここで取り出され、以後は表示されない。
// extraはセッションを経由せずこの応答だけに表示する通知。
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data any, extra ...model.Notice) {
	tmpl, ok := rd.pages[page]
	if !ok {
		slog.Error("unknown template", slog.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	pd := pageData{
		User:      middleware.UserFromContext(ctx),
		CSRFToken: middleware.CSRFTokenFromContext(ctx),
		Data:      data,
	}

	if sess := middleware.SessionFromContext(ctx); sess != nil {
		notices, err := rd.notices.PopNotices(ctx, sess)
		if err != nil {
			slog.Error("failed to pop notices",
				slog.String("request_id", middleware.RequestIDFromContext(ctx)),
				slog.String("error", err.Error()),
			)
		}
		pd.Notices = notices
	}
	pd.Notices = append(pd.Notices, extra...)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", pd); err != nil {
		slog.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// NotFound は404ページを描画する。
func (rd *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rd.Error(w, r, http.StatusNotFound)
}

// Error はステータスコードに対応するエラーページを描画する。
func (rd *Renderer) Error(w http.ResponseWriter, r *http.Request, status int) {
	rd.Render(w, r, status, pageError, errorPage{Status: status, Message: http.StatusText(status)})
}

package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/todoman/internal/metrics"
	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
)

// タスク操作の通知メッセージ
const (
	msgTodoAdded        = "Todo added successfully!"
	msgTodoAddFailed    = "An error occurred while adding the todo."
	msgTodoUpdated      = "Todo updated successfully!"
	msgTodoUpdateFailed = "An error occurred while updating the todo."
	msgTodoDeleted      = "Todo deleted successfully!"
	msgTodoDeleteFailed = "An error occurred while deleting the todo."
	todoOperationCreate = "create"
	todoOperationUpdate = "update"
	todoOperationDelete = "delete"
)

// TodoServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TodoServiceInterface interface {
	List(ctx context.Context, userID int64) ([]*model.Todo, error)
	Get(ctx context.Context, userID, id int64) (*model.Todo, error)
	Create(ctx context.Context, userID int64, title, description string) (*model.Todo, error)
	Update(ctx context.Context, userID, id int64, title, description string) (*model.Todo, error)
	Delete(ctx context.Context, userID, id int64) error
}

type indexPage struct {
	Todos             []*model.Todo
	TitleMaxLen       int
	DescriptionMaxLen int
}

type updatePage struct {
	Todo              *model.Todo
	TitleMaxLen       int
	DescriptionMaxLen int
}

// TodoHandler はタスク一覧・作成・編集・削除のHTTPハンドラー。
// すべてのルートはログイン済みユーザーを前提とする。
type TodoHandler struct {
	service  TodoServiceInterface
	notices  middleware.NoticeAdder
	renderer *Renderer
	metrics  metrics.Recorder
}

// NewTodoHandler はTodoHandlerを生成する。
func NewTodoHandler(service TodoServiceInterface, notices middleware.NoticeAdder, renderer *Renderer, recorder metrics.Recorder) *TodoHandler {
	return &TodoHandler{
		service:  service,
		notices:  notices,
		renderer: renderer,
		metrics:  recorder,
	}
}

// Index はログインユーザーのタスクを新しい順に表示する。
// GET /
func (h *TodoHandler) Index(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	todos, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		logRequestError(r, "failed to list todos", err)
		h.renderer.Error(w, r, http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, pageIndex, indexPage{
		Todos:             todos,
		TitleMaxLen:       model.TodoTitleMaxLen,
		DescriptionMaxLen: model.TodoDescriptionMaxLen,
	})
}

// Create はタスクを作成し、一覧へリダイレクトする。
// POST /
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	_, err := h.service.Create(r.Context(), user.ID, r.PostFormValue("title"), r.PostFormValue("desc"))
	switch {
	case err == nil:
		h.record(todoOperationCreate, metrics.OutcomeSuccess)
		h.notify(r, model.SuccessNotice(msgTodoAdded))
	case model.IsValidation(err):
		h.record(todoOperationCreate, metrics.OutcomeFailure)
		msg, _ := userMessage(err)
		h.notify(r, model.ErrorNotice(msg))
	default:
		h.record(todoOperationCreate, metrics.OutcomeFailure)
		logRequestError(r, "failed to create todo", err)
		h.notify(r, model.ErrorNotice(msgTodoAddFailed))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Edit は編集フォームを表示する。
// GET /update/{id}
func (h *TodoHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(r)
	if !ok {
		h.renderer.NotFound(w, r)
		return
	}
	user := middleware.UserFromContext(r.Context())

	todo, err := h.service.Get(r.Context(), user.ID, id)
	if err != nil {
		if model.IsNotFound(err) {
			h.renderer.NotFound(w, r)
			return
		}
		logRequestError(r, "failed to get todo", err)
		h.renderer.Error(w, r, http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, pageUpdate, updatePage{
		Todo:              todo,
		TitleMaxLen:       model.TodoTitleMaxLen,
		DescriptionMaxLen: model.TodoDescriptionMaxLen,
	})
}

// Update はタスクを更新する。
// 入力エラーの場合は編集フォームへ、それ以外は一覧へリダイレクトする。
// POST /update/{id}
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(r)
	if !ok {
		h.renderer.NotFound(w, r)
		return
	}
	user := middleware.UserFromContext(r.Context())

	_, err := h.service.Update(r.Context(), user.ID, id, r.PostFormValue("title"), r.PostFormValue("desc"))
	switch {
	case err == nil:
		h.record(todoOperationUpdate, metrics.OutcomeSuccess)
		h.notify(r, model.SuccessNotice(msgTodoUpdated))
	case model.IsNotFound(err):
		h.record(todoOperationUpdate, metrics.OutcomeFailure)
		h.renderer.NotFound(w, r)
		return
	case model.IsValidation(err):
		h.record(todoOperationUpdate, metrics.OutcomeFailure)
		msg, _ := userMessage(err)
		h.notify(r, model.ErrorNotice(msg))
		http.Redirect(w, r, "/update/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
		return
	default:
		h.record(todoOperationUpdate, metrics.OutcomeFailure)
		logRequestError(r, "failed to update todo", err)
		h.notify(r, model.ErrorNotice(msgTodoUpdateFailed))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Delete はタスクを削除し、一覧へリダイレクトする。
// GET /delete/{id}
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(r)
	if !ok {
		h.renderer.NotFound(w, r)
		return
	}
	user := middleware.UserFromContext(r.Context())

	err := h.service.Delete(r.Context(), user.ID, id)
	switch {
	case err == nil:
		h.record(todoOperationDelete, metrics.OutcomeSuccess)
		h.notify(r, model.SuccessNotice(msgTodoDeleted))
	case model.IsNotFound(err):
		h.record(todoOperationDelete, metrics.OutcomeFailure)
		h.renderer.NotFound(w, r)
		return
	default:
		h.record(todoOperationDelete, metrics.OutcomeFailure)
		logRequestError(r, "failed to delete todo", err)
		h.notify(r, model.ErrorNotice(msgTodoDeleteFailed))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *TodoHandler) notify(r *http.Request, notice model.Notice) {
	addNotice(r, h.notices, middleware.SessionFromContext(r.Context()), notice)
}

func (h *TodoHandler) record(operation, outcome string) {
	h.metrics.RecordTodoOperation(operation, outcome)
}

// todoID はURLパスの{id}を正の整数として解析する。
func todoID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

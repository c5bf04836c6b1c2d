package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/testutil"
)

// createTestUser はテスト用のユーザーを作成するヘルパー。
func createTestUser(t *testing.T, repo *SQLUserRepo, username, email string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: "hash-" + username,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create(%q) failed: %v", username, err)
	}
	return user
}

func TestSQLUserRepo_CreateAndFind(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	repo := NewSQLUserRepo(db)
	ctx := context.Background()

	user := createTestUser(t, repo, "alice", "alice@example.com")
	if user.ID == 0 {
		t.Fatal("expected ID to be assigned")
	}

	byID, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if byID == nil || byID.Username != "alice" || byID.Email != "alice@example.com" {
		t.Fatalf("FindByID = %+v, want alice", byID)
	}
	if byID.PasswordHash != "hash-alice" {
		t.Errorf("PasswordHash = %q, want %q", byID.PasswordHash, "hash-alice")
	}
	if !byID.CreatedAt.Equal(user.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", byID.CreatedAt, user.CreatedAt)
	}

	byName, err := repo.FindByUsername(ctx, "alice")
	if err != nil || byName == nil || byName.ID != user.ID {
		t.Errorf("FindByUsername = %+v, %v", byName, err)
	}

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	if err != nil || byEmail == nil || byEmail.ID != user.ID {
		t.Errorf("FindByEmail = %+v, %v", byEmail, err)
	}
}

func TestSQLUserRepo_Find_NotFoundReturnsNil(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	repo := NewSQLUserRepo(db)
	ctx := context.Background()

	user, err := repo.FindByID(ctx, 999)
	if err != nil || user != nil {
		t.Errorf("FindByID(999) = %+v, %v; want nil, nil", user, err)
	}
	user, err = repo.FindByUsername(ctx, "nobody")
	if err != nil || user != nil {
		t.Errorf("FindByUsername = %+v, %v; want nil, nil", user, err)
	}
}

// ユーザー名の検索は大文字小文字を区別する
func TestSQLUserRepo_FindByUsername_CaseSensitive(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	repo := NewSQLUserRepo(db)
	createTestUser(t, repo, "alice", "alice@example.com")

	user, err := repo.FindByUsername(context.Background(), "Alice")
	if err != nil {
		t.Fatalf("FindByUsername failed: %v", err)
	}
	if user != nil {
		t.Errorf("FindByUsername(Alice) = %+v, want nil", user)
	}
}

func TestSQLUserRepo_Create_DuplicateUsername(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	repo := NewSQLUserRepo(db)
	createTestUser(t, repo, "alice", "alice@example.com")

	err := repo.Create(context.Background(), &model.User{
		Username: "alice", Email: "other@example.com", PasswordHash: "x", CreatedAt: time.Now().UTC(),
	})
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("err = %v, want ErrDuplicateUsername", err)
	}
}

func TestSQLUserRepo_Create_DuplicateEmail(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	repo := NewSQLUserRepo(db)
	createTestUser(t, repo, "alice", "alice@example.com")

	err := repo.Create(context.Background(), &model.User{
		Username: "bob", Email: "alice@example.com", PasswordHash: "x", CreatedAt: time.Now().UTC(),
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("err = %v, want ErrDuplicateEmail", err)
	}
}

// 一意制約は大文字小文字を区別する
func TestSQLUserRepo_Create_DifferentCaseIsNotDuplicate(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	repo := NewSQLUserRepo(db)
	createTestUser(t, repo, "alice", "alice@example.com")
	createTestUser(t, repo, "Alice", "Alice@example.com")
}

// ユーザー削除で所有タスクとセッションがCASCADE削除されること
func TestSQLUserRepo_DeleteByID_CascadesTodosAndSessions(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	users := NewSQLUserRepo(db)
	todos := NewSQLTodoRepo(db)
	sessions := NewSQLSessionRepo(db)
	ctx := context.Background()

	alice := createTestUser(t, users, "alice", "alice@example.com")
	bob := createTestUser(t, users, "bob", "bob@example.com")
	createTestTodo(t, todos, alice.ID, "a1", time.Now().UTC())
	createTestTodo(t, todos, alice.ID, "a2", time.Now().UTC())
	createTestTodo(t, todos, bob.ID, "b1", time.Now().UTC())

	now := time.Now().UTC()
	if err := sessions.Create(ctx, &model.Session{
		ID: "alice-session", UserID: alice.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}); err != nil {
		t.Fatalf("session Create failed: %v", err)
	}

	if err := users.DeleteByID(ctx, alice.ID); err != nil {
		t.Fatalf("DeleteByID failed: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM todos WHERE user_id = $1`, alice.ID).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 0 {
		t.Errorf("alice todos = %d, want 0", count)
	}

	bobTodos, err := todos.ListByUser(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(bobTodos) != 1 {
		t.Errorf("bob todos = %d, want 1", len(bobTodos))
	}

	sess, err := sessions.FindByID(ctx, "alice-session", now)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if sess != nil {
		t.Error("expected alice session to be deleted by cascade")
	}
}

func TestSQLUserRepo_DeleteByID_NotFound(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	repo := NewSQLUserRepo(db)

	err := repo.DeleteByID(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

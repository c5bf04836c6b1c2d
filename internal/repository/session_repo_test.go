package repository

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/testutil"
)

func TestSQLSessionRepo_AnonymousSessionRoundTrip(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	repo := NewSQLSessionRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()

	err := repo.Create(ctx, &model.Session{
		ID:        "anon",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	sess, err := repo.FindByID(ctx, "anon", now)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session")
	}
	if sess.UserID != 0 || sess.Authenticated() {
		t.Errorf("UserID = %d, want anonymous", sess.UserID)
	}
	if len(sess.Data.Notices) != 0 {
		t.Errorf("Notices = %v, want none", sess.Data.Notices)
	}
}

func TestSQLSessionRepo_FindByID_ExpiredReturnsNil(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	repo := NewSQLSessionRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, &model.Session{
		ID: "old", ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	sess, err := repo.FindByID(ctx, "old", now)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if sess != nil {
		t.Errorf("expected expired session to be nil, got %+v", sess)
	}
}

func TestSQLSessionRepo_UpdateDataAndClearUser(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	users := NewSQLUserRepo(db)
	repo := NewSQLSessionRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()
	alice := createTestUser(t, users, "alice", "alice@example.com")

	if err := repo.Create(ctx, &model.Session{
		ID: "s1", UserID: alice.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	data := model.SessionData{Notices: []model.Notice{model.SuccessNotice("Todo added successfully!")}}
	if err := repo.UpdateData(ctx, "s1", data); err != nil {
		t.Fatalf("UpdateData failed: %v", err)
	}

	sess, err := repo.FindByID(ctx, "s1", now)
	if err != nil || sess == nil {
		t.Fatalf("FindByID = %+v, %v", sess, err)
	}
	if sess.UserID != alice.ID {
		t.Errorf("UserID = %d, want %d", sess.UserID, alice.ID)
	}
	if len(sess.Data.Notices) != 1 || sess.Data.Notices[0] != data.Notices[0] {
		t.Errorf("Notices = %+v, want %+v", sess.Data.Notices, data.Notices)
	}

	if err := repo.ClearUser(ctx, "s1"); err != nil {
		t.Fatalf("ClearUser failed: %v", err)
	}
	sess, err = repo.FindByID(ctx, "s1", now)
	if err != nil || sess == nil {
		t.Fatalf("FindByID = %+v, %v", sess, err)
	}
	if sess.Authenticated() {
		t.Error("expected session to be anonymous after ClearUser")
	}
}

func TestSQLSessionRepo_DeleteExpired(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	repo := NewSQLSessionRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()

	sessions := []*model.Session{
		{ID: "expired-1", ExpiresAt: now.Add(-2 * time.Hour), CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "expired-2", ExpiresAt: now.Add(-time.Second), CreatedAt: now.Add(-time.Hour)},
		{ID: "alive", ExpiresAt: now.Add(time.Hour), CreatedAt: now},
	}
	for _, s := range sessions {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create(%s) failed: %v", s.ID, err)
		}
	}

	deleted, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	// 冪等: 2回目は0件
	deleted, err = repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("second DeleteExpired failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("second deleted = %d, want 0", deleted)
	}

	if sess, _ := repo.FindByID(ctx, "alive", now); sess == nil {
		t.Error("alive session should remain")
	}
}

func TestSQLSessionRepo_DeleteByIDAndUserID(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	users := NewSQLUserRepo(db)
	repo := NewSQLSessionRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()
	alice := createTestUser(t, users, "alice", "alice@example.com")

	for _, id := range []string{"a", "b", "c"} {
		if err := repo.Create(ctx, &model.Session{ID: id, UserID: alice.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	if err := repo.DeleteByID(ctx, "a"); err != nil {
		t.Fatalf("DeleteByID failed: %v", err)
	}
	if sess, _ := repo.FindByID(ctx, "a", now); sess != nil {
		t.Error("session a should be deleted")
	}

	if err := repo.DeleteByUserID(ctx, alice.ID); err != nil {
		t.Fatalf("DeleteByUserID failed: %v", err)
	}
	for _, id := range []string{"b", "c"} {
		if sess, _ := repo.FindByID(ctx, id, now); sess != nil {
			t.Errorf("session %s should be deleted", id)
		}
	}
}

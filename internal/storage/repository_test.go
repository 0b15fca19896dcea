package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"financas/internal/core"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createTestUser(t *testing.T, repo *SQLiteRepository, email string) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), email, "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	createTestUser(t, repo, "ana@example.com")

	_, err := repo.CreateUser(ctx, "ana@example.com", "otherhash")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created := createTestUser(t, repo, "ana@example.com")

	u, hash, err := repo.GetUserByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if u.ID != created.ID || u.Email != "ana@example.com" || hash != "hash" {
		t.Errorf("got user %+v hash %q", u, hash)
	}

	if _, _, err := repo.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUserEmailConflict(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	createTestUser(t, repo, "ana@example.com")
	other := createTestUser(t, repo, "bia@example.com")

	if err := repo.UpdateUserEmail(ctx, other.ID, "ana@example.com"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
	if err := repo.UpdateUserEmail(ctx, other.ID, "bia2@example.com"); err != nil {
		t.Errorf("UpdateUserEmail: %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	u := createTestUser(t, repo, "ana@example.com")

	if err := repo.CreateSession(ctx, "tok-live", u.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := repo.GetSessionUser(ctx, "tok-live")
	if err != nil {
		t.Fatalf("GetSessionUser: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("session resolved to user %d, want %d", got.ID, u.ID)
	}

	if err := repo.DeleteSession(ctx, "tok-live"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := repo.GetSessionUser(ctx, "tok-live"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestExpiredSessionsAreInvisibleAndSwept(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	u := createTestUser(t, repo, "ana@example.com")

	if err := repo.CreateSession(ctx, "tok-old", u.ID, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := repo.CreateSession(ctx, "tok-new", u.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if _, err := repo.GetSessionUser(ctx, "tok-old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired session resolved, err = %v", err)
	}

	n, err := repo.DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("swept %d sessions, want 1", n)
	}
	if _, err := repo.GetSessionUser(ctx, "tok-new"); err != nil {
		t.Errorf("live session swept: %v", err)
	}
}

func TestCategoryCRUDScopedByUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	owner := createTestUser(t, repo, "ana@example.com")
	stranger := createTestUser(t, repo, "bia@example.com")

	created, err := repo.CreateCategory(ctx, owner.ID, core.Category{
		Name:   "Mercado",
		Budget: core.Money{Cents: 50000},
		Color:  "#2F6F65",
		Icon:   "🛒",
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("created category has no id")
	}

	if err := repo.UpdateCategory(ctx, stranger.ID, created); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user update: expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteCategory(ctx, stranger.ID, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user delete: expected ErrNotFound, got %v", err)
	}

	created.Budget = core.Money{Cents: 60000}
	if err := repo.UpdateCategory(ctx, owner.ID, created); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}

	list, err := repo.ListCategories(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(list) != 1 || list[0].Budget.Cents != 60000 {
		t.Errorf("got categories %+v", list)
	}

	strangerList, err := repo.ListCategories(ctx, stranger.ID)
	if err != nil {
		t.Fatalf("ListCategories(stranger): %v", err)
	}
	if len(strangerList) != 0 {
		t.Errorf("stranger sees %d categories", len(strangerList))
	}

	if err := repo.DeleteCategory(ctx, owner.ID, created.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
}

func TestListCategoriesOrderedByName(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	u := createTestUser(t, repo, "ana@example.com")
	for _, name := range []string{"Transporte", "Alimentação", "Lazer"} {
		if _, err := repo.CreateCategory(ctx, u.ID, core.Category{Name: name}); err != nil {
			t.Fatalf("CreateCategory(%s): %v", name, err)
		}
	}

	list, err := repo.ListCategories(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	want := []string{"Alimentação", "Lazer", "Transporte"}
	for i, name := range want {
		if list[i].Name != name {
			t.Errorf("position %d: got %q, want %q", i, list[i].Name, name)
		}
	}
}

func TestTransactionCRUDScopedByUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	owner := createTestUser(t, repo, "ana@example.com")
	stranger := createTestUser(t, repo, "bia@example.com")

	cat, err := repo.CreateCategory(ctx, owner.ID, core.Category{Name: "Mercado"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	created, err := repo.CreateTransaction(ctx, owner.ID, core.Transaction{
		Type:        core.Expense,
		Amount:      core.Money{Cents: 15000},
		CategoryID:  &cat.ID,
		Description: "Compras da semana",
		Location:    "Supermercado",
		Method:      "pix",
		Date:        core.NewDate(2025, 6, 10),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if created.ID == 0 || created.CreatedAt.IsZero() {
		t.Fatalf("created transaction missing id or timestamp: %+v", created)
	}

	got, err := repo.GetTransaction(ctx, owner.ID, created.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.Description != "Compras da semana" || got.Date.String() != "2025-06-10" {
		t.Errorf("got %+v", got)
	}
	if got.CategoryID == nil || *got.CategoryID != cat.ID {
		t.Errorf("category id not preserved: %+v", got.CategoryID)
	}

	if _, err := repo.GetTransaction(ctx, stranger.ID, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user get: expected ErrNotFound, got %v", err)
	}

	created.Type = core.Income
	created.CategoryID = nil
	created.Description = "Reembolso"
	if err := repo.UpdateTransaction(ctx, owner.ID, created); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}

	updated, err := repo.GetTransaction(ctx, owner.ID, created.ID)
	if err != nil {
		t.Fatalf("GetTransaction after update: %v", err)
	}
	if updated.Type != core.Income || updated.CategoryID != nil {
		t.Errorf("update not applied: %+v", updated)
	}

	if err := repo.DeleteTransaction(ctx, stranger.ID, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user delete: expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteTransaction(ctx, owner.ID, created.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, owner.ID, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	u := createTestUser(t, repo, "ana@example.com")
	dates := []core.Date{
		core.NewDate(2025, 6, 1),
		core.NewDate(2025, 6, 20),
		core.NewDate(2025, 6, 10),
	}
	for _, d := range dates {
		_, err := repo.CreateTransaction(ctx, u.ID, core.Transaction{
			Type:        core.Income,
			Amount:      core.Money{Cents: 1000},
			Description: "Depósito",
			Date:        d,
		})
		if err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	list, err := repo.ListTransactions(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	want := []string{"2025-06-20", "2025-06-10", "2025-06-01"}
	for i, d := range want {
		if list[i].Date.String() != d {
			t.Errorf("position %d: got %s, want %s", i, list[i].Date, d)
		}
	}
}

func TestCountTransactionsByCategory(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	u := createTestUser(t, repo, "ana@example.com")
	cat, err := repo.CreateCategory(ctx, u.ID, core.Category{Name: "Mercado"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	n, err := repo.CountTransactionsByCategory(ctx, u.ID, cat.ID)
	if err != nil {
		t.Fatalf("CountTransactionsByCategory: %v", err)
	}
	if n != 0 {
		t.Errorf("empty category count = %d", n)
	}

	for i := 0; i < 2; i++ {
		_, err := repo.CreateTransaction(ctx, u.ID, core.Transaction{
			Type:        core.Expense,
			Amount:      core.Money{Cents: 500},
			CategoryID:  &cat.ID,
			Description: "Compra",
			Date:        core.NewDate(2025, 6, 10),
		})
		if err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	n, err = repo.CountTransactionsByCategory(ctx, u.ID, cat.ID)
	if err != nil {
		t.Fatalf("CountTransactionsByCategory: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"financas/internal/cache"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/notify"
	"financas/internal/storage"
)

type fakeLedgerStore struct {
	categories   []core.Category
	transactions []core.Transaction
	nextID       int64

	failTransactionList bool
	failCategoryList    bool
}

func (s *fakeLedgerStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeLedgerStore) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	if s.failCategoryList {
		return nil, errors.New("category read failed")
	}
	return append([]core.Category{}, s.categories...), nil
}

func (s *fakeLedgerStore) CreateCategory(ctx context.Context, userID int64, c core.Category) (core.Category, error) {
	c.ID = s.id()
	s.categories = append(s.categories, c)
	return c, nil
}

func (s *fakeLedgerStore) UpdateCategory(ctx context.Context, userID int64, c core.Category) error {
	for i := range s.categories {
		if s.categories[i].ID == c.ID {
			s.categories[i] = c
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *fakeLedgerStore) DeleteCategory(ctx context.Context, userID, id int64) error {
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *fakeLedgerStore) CountTransactionsByCategory(ctx context.Context, userID, categoryID int64) (int64, error) {
	var n int64
	for _, t := range s.transactions {
		if t.CategoryID != nil && *t.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (s *fakeLedgerStore) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	if s.failTransactionList {
		return nil, errors.New("transaction read failed")
	}
	return append([]core.Transaction{}, s.transactions...), nil
}

func (s *fakeLedgerStore) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	for _, t := range s.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, storage.ErrNotFound
}

func (s *fakeLedgerStore) CreateTransaction(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	t.ID = s.id()
	t.CreatedAt = time.Now()
	s.transactions = append(s.transactions, t)
	return t, nil
}

func (s *fakeLedgerStore) UpdateTransaction(ctx context.Context, userID int64, t core.Transaction) error {
	for i := range s.transactions {
		if s.transactions[i].ID == t.ID {
			t.CreatedAt = s.transactions[i].CreatedAt
			s.transactions[i] = t
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *fakeLedgerStore) DeleteTransaction(ctx context.Context, userID, id int64) error {
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

type fakeNotifier struct {
	published []*notify.ChangeMessage
	fail      bool
}

func (n *fakeNotifier) PublishChange(ctx context.Context, msg *notify.ChangeMessage) error {
	if n.fail {
		return errors.New("broker down")
	}
	n.published = append(n.published, msg)
	return nil
}

func testLogger() *log.Logger {
	return log.New(log.ComponentApp, log.Config{Level: slog.LevelError})
}

func newTestLedger(store *fakeLedgerStore, notifier Notifier) *Ledger {
	return NewLedger(store, cache.NewSnapshotCache(10, time.Minute), notifier, testLogger())
}

func TestCreateTransactionParsesCommaAmount(t *testing.T) {
	store := &fakeLedgerStore{}
	ledger := newTestLedger(store, nil)
	ctx := context.Background()

	cat, err := ledger.CreateCategory(ctx, 1, CategoryInput{Name: "Mercado", Budget: "500,00"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	created, err := ledger.CreateTransaction(ctx, 1, TransactionInput{
		Type:        "expense",
		Amount:      "150,00",
		CategoryID:  &cat.ID,
		Description: "Compras",
		Date:        "2025-06-10",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if created.Amount.Cents != 15000 {
		t.Errorf("cents = %d, want 15000", created.Amount.Cents)
	}
}

func TestCreateTransactionIncomeDropsCategory(t *testing.T) {
	store := &fakeLedgerStore{}
	ledger := newTestLedger(store, nil)

	stray := int64(7)
	created, err := ledger.CreateTransaction(context.Background(), 1, TransactionInput{
		Type:        "income",
		Amount:      "1000",
		CategoryID:  &stray,
		Description: "Salário",
		Date:        "2025-06-01",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if created.CategoryID != nil {
		t.Errorf("income kept category %d", *created.CategoryID)
	}
}

func TestCreateTransactionExpenseRequiresCategory(t *testing.T) {
	ledger := newTestLedger(&fakeLedgerStore{}, nil)

	_, err := ledger.CreateTransaction(context.Background(), 1, TransactionInput{
		Type:        "expense",
		Amount:      "50",
		Description: "Lanche",
		Date:        "2025-06-10",
	})
	if !errors.Is(err, core.ErrCategoryRequired) {
		t.Errorf("expected ErrCategoryRequired, got %v", err)
	}
}

func TestCreateTransactionRejectsBadAmount(t *testing.T) {
	ledger := newTestLedger(&fakeLedgerStore{}, nil)

	for _, amount := range []string{"", "abc", "-10", "0"} {
		_, err := ledger.CreateTransaction(context.Background(), 1, TransactionInput{
			Type:        "income",
			Amount:      amount,
			Description: "x",
			Date:        "2025-06-10",
		})
		if !errors.Is(err, core.ErrInvalidAmount) {
			t.Errorf("amount %q: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	store := &fakeLedgerStore{}
	ledger := newTestLedger(store, nil)
	ctx := context.Background()

	cat, err := ledger.CreateCategory(ctx, 1, CategoryInput{Name: "Mercado", Budget: "0"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := ledger.CreateTransaction(ctx, 1, TransactionInput{
		Type: "expense", Amount: "10", CategoryID: &cat.ID, Description: "Pão", Date: "2025-06-10",
	}); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if err := ledger.DeleteCategory(ctx, 1, cat.ID); !errors.Is(err, ErrCategoryInUse) {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}

	// Remove the transaction, then the delete goes through.
	if err := ledger.DeleteTransaction(ctx, 1, store.transactions[0].ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := ledger.DeleteCategory(ctx, 1, cat.ID); err != nil {
		t.Errorf("DeleteCategory after emptying: %v", err)
	}
}

func TestCategoryDefaultsApplied(t *testing.T) {
	ledger := newTestLedger(&fakeLedgerStore{}, nil)

	cat, err := ledger.CreateCategory(context.Background(), 1, CategoryInput{Name: "Outros", Budget: "0"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if cat.Color != defaultCategoryColor || cat.Icon != defaultCategoryIcon {
		t.Errorf("defaults not applied: %+v", cat)
	}
}

func TestSnapshotCachedUntilMutation(t *testing.T) {
	store := &fakeLedgerStore{}
	ledger := newTestLedger(store, nil)
	ctx := context.Background()

	if _, err := ledger.Snapshot(ctx, 1); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	// Writes behind the cache are invisible until something invalidates it.
	store.transactions = append(store.transactions, core.Transaction{ID: 99, Type: core.Income})
	snap, err := ledger.Snapshot(ctx, 1)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Transactions) != 0 {
		t.Fatalf("cache bypassed: %d transactions", len(snap.Transactions))
	}

	if _, err := ledger.CreateTransaction(ctx, 1, TransactionInput{
		Type: "income", Amount: "10", Description: "Pix", Date: "2025-06-10",
	}); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	snap, err = ledger.Snapshot(ctx, 1)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Transactions) != 2 {
		t.Errorf("after invalidation got %d transactions, want 2", len(snap.Transactions))
	}
}

func TestReloadFailsWhole(t *testing.T) {
	store := &fakeLedgerStore{failTransactionList: true}
	ledger := newTestLedger(store, nil)

	if _, err := ledger.Snapshot(context.Background(), 1); err == nil {
		t.Error("expected reload error when transaction read fails")
	}

	store.failTransactionList = false
	store.failCategoryList = true
	if _, err := ledger.Snapshot(context.Background(), 1); err == nil {
		t.Error("expected reload error when category read fails")
	}
}

func TestMutationsPublishChanges(t *testing.T) {
	store := &fakeLedgerStore{}
	notifier := &fakeNotifier{}
	ledger := newTestLedger(store, notifier)
	ctx := context.Background()

	cat, err := ledger.CreateCategory(ctx, 42, CategoryInput{Name: "Mercado", Budget: "0"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := ledger.CreateTransaction(ctx, 42, TransactionInput{
		Type: "expense", Amount: "10", CategoryID: &cat.ID, Description: "Pão", Date: "2025-06-10",
	}); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if len(notifier.published) != 2 {
		t.Fatalf("published %d messages, want 2", len(notifier.published))
	}
	if notifier.published[0].Table != notify.TableCategories || notifier.published[0].Op != notify.OpInsert {
		t.Errorf("first message = %+v", notifier.published[0])
	}
	if notifier.published[1].Table != notify.TableTransactions || notifier.published[1].UserID != 42 {
		t.Errorf("second message = %+v", notifier.published[1])
	}
}

func TestMutationSucceedsWhenNotifierFails(t *testing.T) {
	ledger := newTestLedger(&fakeLedgerStore{}, &fakeNotifier{fail: true})

	if _, err := ledger.CreateTransaction(context.Background(), 1, TransactionInput{
		Type: "income", Amount: "10", Description: "Pix", Date: "2025-06-10",
	}); err != nil {
		t.Errorf("mutation failed on notifier error: %v", err)
	}
}

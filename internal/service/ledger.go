// Package service coordinates storage, caching and change notifications
// behind the HTTP handlers.
package service

import (
	"context"
	"errors"
	"fmt"

	"financas/internal/cache"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/notify"
)

var ErrCategoryInUse = errors.New("category has transactions")

// LedgerStore is the persistence surface the ledger needs.
type LedgerStore interface {
	ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
	CreateCategory(ctx context.Context, userID int64, c core.Category) (core.Category, error)
	UpdateCategory(ctx context.Context, userID int64, c core.Category) error
	DeleteCategory(ctx context.Context, userID, id int64) error
	CountTransactionsByCategory(ctx context.Context, userID, categoryID int64) (int64, error)

	ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
	CreateTransaction(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, userID int64, t core.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id int64) error
}

// Notifier publishes data-change notifications. Optional.
type Notifier interface {
	PublishChange(ctx context.Context, msg *notify.ChangeMessage) error
}

// Ledger owns per-user financial data: categories, transactions and the
// cached snapshot both are served from.
type Ledger struct {
	store    LedgerStore
	cache    *cache.SnapshotCache
	notifier Notifier
	logger   *log.Logger
}

func NewLedger(store LedgerStore, snapshots *cache.SnapshotCache, notifier Notifier, logger *log.Logger) *Ledger {
	return &Ledger{
		store:    store,
		cache:    snapshots,
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentLedger),
	}
}

// Snapshot returns the user's full data set, served from cache when fresh.
func (l *Ledger) Snapshot(ctx context.Context, userID int64) (core.Snapshot, error) {
	if snap, ok := l.cache.Get(userID); ok {
		return snap, nil
	}
	return l.Reload(ctx, userID)
}

// Reload rebuilds the snapshot from storage. Categories and transactions are
// loaded together; if either read fails the whole reload fails and the stale
// cache entry is left untouched.
func (l *Ledger) Reload(ctx context.Context, userID int64) (core.Snapshot, error) {
	categories, err := l.store.ListCategories(ctx, userID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load categories: %w", err)
	}
	transactions, err := l.store.ListTransactions(ctx, userID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load transactions: %w", err)
	}

	snap := core.Snapshot{Categories: categories, Transactions: transactions}
	l.cache.Set(userID, snap)
	return snap, nil
}

// Invalidate drops the user's cached snapshot. Used by the change-notification
// consumer when another instance mutates the user's data.
func (l *Ledger) Invalidate(userID int64) {
	l.cache.Invalidate(userID)
}

// TransactionInput carries user-supplied transaction fields. Amount is the
// raw decimal string as typed, comma or dot separated.
type TransactionInput struct {
	Type        string
	Amount      string
	CategoryID  *int64
	Description string
	Location    string
	Method      string
	Date        string
}

func (l *Ledger) buildTransaction(input TransactionInput) (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(input.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(input.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		Type:        core.TransactionType(input.Type),
		Amount:      core.Money{Cents: cents},
		CategoryID:  input.CategoryID,
		Description: input.Description,
		Location:    input.Location,
		Method:      input.Method,
		Date:        date,
	}
	// Income never carries a category, whatever the client sent.
	if t.Type == core.Income {
		t.CategoryID = nil
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (l *Ledger) CreateTransaction(ctx context.Context, userID int64, input TransactionInput) (core.Transaction, error) {
	t, err := l.buildTransaction(input)
	if err != nil {
		return core.Transaction{}, err
	}

	created, err := l.store.CreateTransaction(ctx, userID, t)
	if err != nil {
		return core.Transaction{}, err
	}

	l.afterMutation(ctx, userID, notify.TableTransactions, notify.OpInsert)
	return created, nil
}

func (l *Ledger) UpdateTransaction(ctx context.Context, userID, id int64, input TransactionInput) (core.Transaction, error) {
	t, err := l.buildTransaction(input)
	if err != nil {
		return core.Transaction{}, err
	}
	t.ID = id

	if err := l.store.UpdateTransaction(ctx, userID, t); err != nil {
		return core.Transaction{}, err
	}

	l.afterMutation(ctx, userID, notify.TableTransactions, notify.OpUpdate)
	return l.store.GetTransaction(ctx, userID, id)
}

func (l *Ledger) DeleteTransaction(ctx context.Context, userID, id int64) error {
	if err := l.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	l.afterMutation(ctx, userID, notify.TableTransactions, notify.OpDelete)
	return nil
}

// CategoryInput carries user-supplied category fields. Budget accepts the
// same decimal forms as transaction amounts, plus zero for "no budget".
type CategoryInput struct {
	Name   string
	Budget string
	Color  string
	Icon   string
}

const (
	defaultCategoryColor = "#2F6F65"
	defaultCategoryIcon  = "💰"
)

func buildCategory(input CategoryInput) (core.Category, error) {
	cents, err := core.ParseBudgetToCents(input.Budget)
	if err != nil {
		return core.Category{}, core.ErrInvalidBudget
	}

	c := core.Category{
		Name:   input.Name,
		Budget: core.Money{Cents: cents},
		Color:  input.Color,
		Icon:   input.Icon,
	}
	if c.Color == "" {
		c.Color = defaultCategoryColor
	}
	if c.Icon == "" {
		c.Icon = defaultCategoryIcon
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (l *Ledger) CreateCategory(ctx context.Context, userID int64, input CategoryInput) (core.Category, error) {
	c, err := buildCategory(input)
	if err != nil {
		return core.Category{}, err
	}

	created, err := l.store.CreateCategory(ctx, userID, c)
	if err != nil {
		return core.Category{}, err
	}

	l.afterMutation(ctx, userID, notify.TableCategories, notify.OpInsert)
	return created, nil
}

func (l *Ledger) UpdateCategory(ctx context.Context, userID, id int64, input CategoryInput) (core.Category, error) {
	c, err := buildCategory(input)
	if err != nil {
		return core.Category{}, err
	}
	c.ID = id

	if err := l.store.UpdateCategory(ctx, userID, c); err != nil {
		return core.Category{}, err
	}

	l.afterMutation(ctx, userID, notify.TableCategories, notify.OpUpdate)
	return c, nil
}

// DeleteCategory refuses to remove a category that still has transactions.
func (l *Ledger) DeleteCategory(ctx context.Context, userID, id int64) error {
	n, err := l.store.CountTransactionsByCategory(ctx, userID, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCategoryInUse
	}

	if err := l.store.DeleteCategory(ctx, userID, id); err != nil {
		return err
	}

	l.afterMutation(ctx, userID, notify.TableCategories, notify.OpDelete)
	return nil
}

// afterMutation drops the cached snapshot and broadcasts the change. The
// notification is best effort; the local invalidation already guarantees the
// next read sees fresh data.
func (l *Ledger) afterMutation(ctx context.Context, userID int64, table, op string) {
	l.cache.Invalidate(userID)

	if l.notifier == nil {
		return
	}
	if err := l.notifier.PublishChange(ctx, notify.NewChangeMessage(table, userID, op)); err != nil {
		l.logger.WarnContext(ctx, "Change notification failed",
			log.FieldError, err,
			log.FieldTable, table,
			log.FieldUserID, userID)
	}
}

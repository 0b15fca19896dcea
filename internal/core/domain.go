package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// Date is a calendar date without time-of-day. The user-asserted
	// transaction date, distinct from the server-side creation timestamp.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          int64
		Type        TransactionType
		Amount      Money
		CategoryID  *int64 // required for expenses, always nil for income
		Description string
		Location    string
		Method      string
		Date        Date
		CreatedAt   time.Time
	}

	Category struct {
		ID     int64
		Name   string
		Budget Money // zero means "no budget tracked"
		Color  string
		Icon   string
	}

	// Snapshot is the full per-user data set the metrics engine consumes:
	// categories ordered by name, transactions ordered by date descending.
	// Both collections are always loaded and swapped together.
	Snapshot struct {
		Categories   []Category
		Transactions []Transaction
	}
)

var (
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidBudget    = errors.New("invalid budget")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyName          = errors.New("empty category name")
	ErrNameTooLong        = errors.New("category name too long (max 100 characters)")
	ErrCategoryRequired   = errors.New("category required for expenses")
)

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Before reports whether d falls strictly before the other date.
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }

// After reports whether d falls strictly after the other date.
func (d Date) After(other Date) bool { return d.Time.After(other.Time) }

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Type == Expense && t.CategoryID == nil {
		return ErrCategoryRequired
	}
	return nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return ErrNameTooLong
	}
	if c.Budget.Cents < 0 {
		return ErrInvalidBudget
	}
	return nil
}

// Package metrics derives dashboard aggregates from an in-memory snapshot.
//
// Every function here is a pure computation over (categories, transactions,
// parameters): no storage access, no hidden state, callable any number of
// times with results depending only on the inputs.
package metrics

import (
	"sort"

	"financas/internal/core"
)

// CategoryStat is a category enriched with its derived lifetime spend.
// Spent is recomputed from the transaction set on every snapshot and is
// never persisted.
type CategoryStat struct {
	core.Category
	Spent core.Money
}

// Totals are the global income/expense aggregates of a transaction set.
type Totals struct {
	Income      core.Money
	Expenses    core.Money
	Balance     core.Money
	SavingsRate float64 // balance / income, 0 when there is no income
}

// SpendingSlice is one entry of the category-spend distribution.
type SpendingSlice struct {
	Name  string
	Value core.Money
	Color string
}

// BudgetStatus classifies how much of a category budget has been used.
type BudgetStatus string

const (
	BudgetWithinRange   BudgetStatus = "within expected range"
	BudgetWatchSpending BudgetStatus = "watch upcoming spend"
	BudgetNearLimit     BudgetStatus = "near limit"
	BudgetLimitExceeded BudgetStatus = "limit exceeded"
)

// BudgetEntry is one row of the budget-control distribution.
type BudgetEntry struct {
	Name   string
	Icon   string
	Spent  core.Money
	Budget core.Money
	Usage  float64 // percent of budget used
	Status BudgetStatus
}

// EnrichCategories computes the lifetime spent total for each category:
// the sum of all expense transactions referencing it, with no time-window
// restriction. Order of the input categories is preserved.
func EnrichCategories(categories []core.Category, transactions []core.Transaction) []CategoryStat {
	spentByID := make(map[int64]int64, len(categories))
	for _, t := range transactions {
		if t.Type == core.Expense && t.CategoryID != nil {
			spentByID[*t.CategoryID] += t.Amount.Cents
		}
	}

	stats := make([]CategoryStat, len(categories))
	for i, c := range categories {
		stats[i] = CategoryStat{
			Category: c,
			Spent:    core.Money{Cents: spentByID[c.ID]},
		}
	}
	return stats
}

// ComputeTotals sums income and expenses over a transaction set. Works on the
// full snapshot for the global cards and on a filtered subset for the
// statement summary.
func ComputeTotals(transactions []core.Transaction) Totals {
	var income, expenses int64
	for _, t := range transactions {
		switch t.Type {
		case core.Income:
			income += t.Amount.Cents
		case core.Expense:
			expenses += t.Amount.Cents
		}
	}

	balance := income - expenses
	rate := 0.0
	if income > 0 {
		rate = float64(balance) / float64(income)
	}
	return Totals{
		Income:      core.Money{Cents: income},
		Expenses:    core.Money{Cents: expenses},
		Balance:     core.Money{Cents: balance},
		SavingsRate: rate,
	}
}

// SpendingDistribution projects categories with spent > 0 to
// (name, value, color) slices ranked by value descending. Feeds both the
// proportion chart and the ranked list.
func SpendingDistribution(stats []CategoryStat) []SpendingSlice {
	slices := make([]SpendingSlice, 0, len(stats))
	for _, s := range stats {
		if s.Spent.Cents > 0 {
			slices = append(slices, SpendingSlice{
				Name:  s.Name,
				Value: s.Spent,
				Color: s.Color,
			})
		}
	}
	sort.SliceStable(slices, func(i, j int) bool {
		return slices[i].Value.Cents > slices[j].Value.Cents
	})
	return slices
}

// BudgetDistribution lists categories with a budget configured, ranked by
// spent descending, each annotated with its usage percentage and status tier.
func BudgetDistribution(stats []CategoryStat) []BudgetEntry {
	entries := make([]BudgetEntry, 0, len(stats))
	for _, s := range stats {
		if s.Budget.Cents <= 0 {
			continue
		}
		usage := float64(s.Spent.Cents) / float64(s.Budget.Cents) * 100
		entries = append(entries, BudgetEntry{
			Name:   s.Name,
			Icon:   s.Icon,
			Spent:  s.Spent,
			Budget: s.Budget,
			Usage:  usage,
			Status: budgetStatus(usage),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Spent.Cents > entries[j].Spent.Cents
	})
	return entries
}

func budgetStatus(usage float64) BudgetStatus {
	switch {
	case usage >= 100:
		return BudgetLimitExceeded
	case usage >= 75:
		return BudgetNearLimit
	case usage >= 50:
		return BudgetWatchSpending
	default:
		return BudgetWithinRange
	}
}

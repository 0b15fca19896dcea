package metrics

import (
	"strings"
	"time"

	"financas/internal/core"
)

// DateFilter selects the date window of the transaction filter.
type DateFilter string

const (
	DateToday    DateFilter = "today"
	Date7Days    DateFilter = "7-days"
	Date30Days   DateFilter = "30-days"
	Date90Days   DateFilter = "90-days"
	DateThisYear DateFilter = "this-year"
	DateCustom   DateFilter = "custom"
)

// TypeFilter restricts the filter to one transaction type. FilterAll matches
// both; the same sentinel is used for the category filter.
type TypeFilter string

const (
	FilterAll     TypeFilter = "all"
	FilterIncome  TypeFilter = TypeFilter(core.Income)
	FilterExpense TypeFilter = TypeFilter(core.Expense)
)

// FilterParams parameterizes the transaction view. The zero value of
// Category means "all"; an empty Search matches everything.
type FilterParams struct {
	Date     DateFilter
	From     core.Date // custom window start, inclusive
	To       core.Date // custom window end, inclusive
	Type     TypeFilter
	Category string // category name, or "all"/"" for no restriction
	Search   string
}

// Filter returns the transactions passing all four predicates (date window,
// type, category name, free-text search) conjunctively. Relative windows are
// half-open: date >= window start, no upper bound. The custom window is
// inclusive on both ends; when either bound is missing the filter degenerates
// to type/category/search only, by design rather than as an error. The
// operation is idempotent: filtering an already-filtered set with the same
// parameters yields the same set.
func Filter(snap core.Snapshot, params FilterParams, now time.Time) []core.Transaction {
	nameByID := make(map[int64]string, len(snap.Categories))
	for _, c := range snap.Categories {
		nameByID[c.ID] = c.Name
	}

	start, end, bounded := resolveWindow(params, now)
	search := strings.ToLower(strings.TrimSpace(params.Search))

	out := make([]core.Transaction, 0, len(snap.Transactions))
	for _, t := range snap.Transactions {
		if bounded {
			if t.Date.Before(start) {
				continue
			}
			if !end.IsZero() && t.Date.After(end) {
				continue
			}
		}
		if params.Type != "" && params.Type != FilterAll && core.TransactionType(params.Type) != t.Type {
			continue
		}
		name := categoryName(t, nameByID)
		if params.Category != "" && params.Category != "all" && params.Category != name {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Description), search) &&
			!strings.Contains(strings.ToLower(name), search) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// resolveWindow maps a DateFilter to its start (and, for custom, end) date.
// Returns bounded=false when no date restriction applies.
func resolveWindow(params FilterParams, now time.Time) (start, end core.Date, bounded bool) {
	today := core.NewDate(now.Year(), int(now.Month()), now.Day())
	switch params.Date {
	case DateToday:
		return today, core.Date{}, true
	case Date7Days:
		return core.Date{Time: today.AddDate(0, 0, -7)}, core.Date{}, true
	case Date30Days:
		return core.Date{Time: today.AddDate(0, 0, -30)}, core.Date{}, true
	case Date90Days:
		return core.Date{Time: today.AddDate(0, 0, -90)}, core.Date{}, true
	case DateThisYear:
		return core.NewDate(now.Year(), 1, 1), core.Date{}, true
	case DateCustom:
		if params.From.IsZero() || params.To.IsZero() {
			return core.Date{}, core.Date{}, false
		}
		return params.From, params.To, true
	default:
		// Unknown or empty selector: default window of the original product.
		return core.Date{Time: today.AddDate(0, 0, -30)}, core.Date{}, true
	}
}

// NoCategoryLabel is displayed for transactions without a category
// association (all income, plus expenses whose category was since renamed
// away underneath them).
const NoCategoryLabel = "Sem categoria"

func categoryName(t core.Transaction, nameByID map[int64]string) string {
	if t.CategoryID == nil {
		return NoCategoryLabel
	}
	if name, ok := nameByID[*t.CategoryID]; ok {
		return name
	}
	return NoCategoryLabel
}

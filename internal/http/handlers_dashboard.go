package http

import (
	"net/http"
	"time"

	"financas/internal/metrics"
)

type totalsJSON struct {
	IncomeCents   int64   `json:"income_cents"`
	ExpensesCents int64   `json:"expenses_cents"`
	BalanceCents  int64   `json:"balance_cents"`
	SavingsRate   float64 `json:"savings_rate"`
}

type spendingSliceJSON struct {
	Name       string `json:"name"`
	ValueCents int64  `json:"value_cents"`
	Color      string `json:"color"`
}

type budgetEntryJSON struct {
	Name        string  `json:"name"`
	Icon        string  `json:"icon"`
	SpentCents  int64   `json:"spent_cents"`
	BudgetCents int64   `json:"budget_cents"`
	Usage       float64 `json:"usage"`
	Status      string  `json:"status"`
}

type monthFlowJSON struct {
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	Label         string `json:"label"`
	IncomeCents   int64  `json:"income_cents"`
	ExpensesCents int64  `json:"expenses_cents"`
}

type dashboardJSON struct {
	Totals               totalsJSON          `json:"totals"`
	Categories           []categoryStatJSON  `json:"categories"`
	SpendingDistribution []spendingSliceJSON `json:"spending_distribution"`
	BudgetDistribution   []budgetEntryJSON   `json:"budget_distribution"`
	MonthlyCashFlow      []monthFlowJSON     `json:"monthly_cash_flow"`
	Transactions         []transactionJSON   `json:"transactions"`
}

// handleDashboard derives every dashboard aggregate from one snapshot read.
// The statement totals and transaction list honor the filter parameters;
// category enrichment, distributions and the cash-flow rollup are computed
// over the full set.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	snap, err := s.ledger.Snapshot(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	now := time.Now()
	filtered := metrics.Filter(snap, parseFilterParams(r), now)
	totals := metrics.ComputeTotals(filtered)
	stats := metrics.EnrichCategories(snap.Categories, snap.Transactions)

	out := dashboardJSON{
		Totals: totalsJSON{
			IncomeCents:   totals.Income.Cents,
			ExpensesCents: totals.Expenses.Cents,
			BalanceCents:  totals.Balance.Cents,
			SavingsRate:   totals.SavingsRate,
		},
		Categories:           make([]categoryStatJSON, 0, len(stats)),
		SpendingDistribution: []spendingSliceJSON{},
		BudgetDistribution:   []budgetEntryJSON{},
		MonthlyCashFlow:      make([]monthFlowJSON, 0, 6),
		Transactions:         toTransactionListJSON(filtered),
	}

	for _, st := range stats {
		out.Categories = append(out.Categories, categoryStatJSON{
			categoryJSON: toCategoryJSON(st.Category),
			SpentCents:   st.Spent.Cents,
		})
	}
	for _, sl := range metrics.SpendingDistribution(stats) {
		out.SpendingDistribution = append(out.SpendingDistribution, spendingSliceJSON{
			Name:       sl.Name,
			ValueCents: sl.Value.Cents,
			Color:      sl.Color,
		})
	}
	for _, e := range metrics.BudgetDistribution(stats) {
		out.BudgetDistribution = append(out.BudgetDistribution, budgetEntryJSON{
			Name:        e.Name,
			Icon:        e.Icon,
			SpentCents:  e.Spent.Cents,
			BudgetCents: e.Budget.Cents,
			Usage:       e.Usage,
			Status:      string(e.Status),
		})
	}
	for _, f := range metrics.MonthlyCashFlow(snap.Transactions, now) {
		out.MonthlyCashFlow = append(out.MonthlyCashFlow, monthFlowJSON{
			Year:          f.Year,
			Month:         int(f.Month),
			Label:         f.Label,
			IncomeCents:   f.Income.Cents,
			ExpensesCents: f.Expenses.Cents,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

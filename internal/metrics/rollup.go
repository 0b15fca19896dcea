package metrics

import (
	"time"

	"financas/internal/core"
)

// MonthFlow is one bucket of the monthly income/expense rollup.
type MonthFlow struct {
	Year     int
	Month    time.Month
	Label    string // pt-BR month abbreviation, e.g. "jan"
	Income   core.Money
	Expenses core.Money
}

var monthLabels = [...]string{
	"jan", "fev", "mar", "abr", "mai", "jun",
	"jul", "ago", "set", "out", "nov", "dez",
}

// MonthlyCashFlow buckets transactions into exactly the 6 calendar months
// ending at the month of now, oldest first. Buckets are keyed by year+month,
// so a transaction from last year's March never lands in this year's March
// bucket; transactions outside the window are dropped.
func MonthlyCashFlow(transactions []core.Transaction, now time.Time) []MonthFlow {
	type key struct {
		year  int
		month time.Month
	}

	flows := make([]MonthFlow, 0, 6)
	index := make(map[key]int, 6)
	for i := 5; i >= 0; i-- {
		d := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		index[key{d.Year(), d.Month()}] = len(flows)
		flows = append(flows, MonthFlow{
			Year:  d.Year(),
			Month: d.Month(),
			Label: monthLabels[d.Month()-1],
		})
	}

	for _, t := range transactions {
		i, ok := index[key{t.Date.Year(), t.Date.Month()}]
		if !ok {
			continue
		}
		switch t.Type {
		case core.Income:
			flows[i].Income.Cents += t.Amount.Cents
		case core.Expense:
			flows[i].Expenses.Cents += t.Amount.Cents
		}
	}
	return flows
}

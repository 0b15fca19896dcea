package metrics

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"financas/internal/core"
)

// ErrNoTransactions is reported when an export is requested for an empty
// filtered set. No artifact is produced in that case.
var ErrNoTransactions = errors.New("no transactions to export")

var exportHeader = []string{
	"Data", "Tipo", "Categoria", "Descrição", "Valor", "Local", "Método", "Horário",
}

// ExportCSV renders the filtered transaction set as a delimited-text
// statement, one row per transaction, in the display formats of the product:
// DD/MM/YYYY dates, Receita/Despesa type labels and R$ amounts. The
// time-of-day column comes from the server-side creation timestamp.
func ExportCSV(filtered []core.Transaction, categories []core.Category) ([]byte, error) {
	if len(filtered) == 0 {
		return nil, ErrNoTransactions
	}

	nameByID := make(map[int64]string, len(categories))
	for _, c := range categories {
		nameByID[c.ID] = c.Name
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("write export header: %w", err)
	}
	for _, t := range filtered {
		row := []string{
			t.Date.Format("02/01/2006"),
			typeLabel(t.Type),
			categoryName(t, nameByID),
			t.Description,
			core.FormatReais(t.Amount.Cents),
			t.Location,
			t.Method,
			timeOfDay(t.CreatedAt),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush export: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFilename stamps the statement artifact with the current date.
func ExportFilename(now time.Time) string {
	return "extrato_" + now.Format("2006-01-02") + ".csv"
}

func typeLabel(t core.TransactionType) string {
	if t == core.Income {
		return "Receita"
	}
	return "Despesa"
}

func timeOfDay(created time.Time) string {
	if created.IsZero() {
		return "--:--"
	}
	return created.Format("15:04")
}

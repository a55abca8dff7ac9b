package sheets

import (
	"context"

	"chatledger/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseWriter appends one expense row to the mirror and returns a
	// reference to where it landed.
	ExpenseWriter interface {
		Append(ctx context.Context, rec core.ExpenseRecord) (rowRef string, err error)
	}
)

// Row lays out a record as it appears in the sheet:
// date, username, category, amount, note.
func Row(rec core.ExpenseRecord) []any {
	note := ""
	if rec.Note != nil {
		note = *rec.Note
	}
	label := rec.CategoryLabel
	if label == "" {
		label = core.UncategorizedLabel
	}
	return []any{rec.Date.String(), rec.Username, label, rec.Amount, note}
}

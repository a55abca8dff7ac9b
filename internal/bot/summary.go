package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"chatledger/internal/core"
	"chatledger/internal/dialog"
)

const msgNoExpenses = "No expenses recorded."

// FormatSummary renders category totals as an aligned table with a total
// line. A non-nil budget adds the budget and what is left of it.
func FormatSummary(title string, rows []core.CategoryTotal, budget *int64) string {
	var b strings.Builder
	if len(rows) == 0 {
		fmt.Fprintf(&b, "📊 %s\n\n%s", dialog.EscapeMarkdown(title), msgNoExpenses)
	} else {
		// Widths are measured on the escaped labels that are actually sent.
		labels := make([]string, len(rows))
		width := utf8.RuneCountInString("Total")
		for i, r := range rows {
			labels[i] = dialog.EscapeMarkdown(r.Label)
			width = max(width, utf8.RuneCountInString(labels[i]))
		}

		fmt.Fprintf(&b, "📊 %s\n", dialog.Bold(title))
		for i, r := range rows {
			fmt.Fprintf(&b, "\n%s   %s", pad(labels[i], width), core.FormatAmount(r.Total))
		}
		fmt.Fprintf(&b, "\n%s", strings.Repeat("─", width+10))
		fmt.Fprintf(&b, "\n%s   %s", pad("Total", width), core.FormatAmount(core.SumTotals(rows)))
	}

	if budget != nil {
		left := *budget - core.SumTotals(rows)
		fmt.Fprintf(&b, "\n\nBudget: %s", core.FormatAmount(*budget))
		if left >= 0 {
			fmt.Fprintf(&b, "\nRemaining: %s", core.FormatAmount(left))
		} else {
			fmt.Fprintf(&b, "\nOver budget by %s", core.FormatAmount(-left))
		}
	}
	return b.String()
}

// pad left-aligns s to width runes.
func pad(s string, width int) string {
	return fmt.Sprintf("%-*s", width, s)
}

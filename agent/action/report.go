package action

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mfigueroa/gastobot/agent/contract"
	"github.com/mfigueroa/gastobot/agent/schema"
)

// PeriodRange computes the deterministic date range for a report period in
// now's location. Weekly starts on the most recent Monday at midnight
// (inclusive: a Monday starts the same day), monthly on the first of the
// month, yearly on January 1st.
func PeriodRange(period contract.ReportPeriod, now time.Time) (contract.Range, error) {
	loc := now.Location()
	switch period {
	case contract.PeriodWeekly:
		back := (int(now.Weekday()) + 6) % 7
		monday := now.AddDate(0, 0, -back)
		return contract.Range{
			From: time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, loc),
			To:   now,
		}, nil
	case contract.PeriodMonthly:
		return contract.Range{
			From: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc),
			To:   now,
		}, nil
	case contract.PeriodYearly:
		return contract.Range{
			From: time.Date(now.Year(), 1, 1, 0, 0, 0, 0, loc),
			To:   now,
		}, nil
	default:
		return contract.Range{}, fmt.Errorf("%w: %q", contract.ErrInvalidPeriod, period)
	}
}

// GenerateReport aggregates the user's transactions over the period and
// renders totals, net balance and a per-category breakdown sorted by
// descending total within each kind.
func (h *Handlers) GenerateReport(ctx context.Context, identifier string, period contract.ReportPeriod) (string, error) {
	rng, err := PeriodRange(period, h.now().In(h.resolver.Location()))
	if err != nil {
		return "", err
	}

	userID, err := h.store.FindOrCreateUser(ctx, identifier)
	if err != nil {
		return "", err
	}

	rows, err := h.store.QueryAggregates(ctx, userID, rng)
	if err != nil {
		return "", err
	}

	return renderReport(period, rng, rows), nil
}

func renderReport(period contract.ReportPeriod, rng contract.Range, rows []contract.AggregateRow) string {
	var incomeRows, expenseRows []contract.AggregateRow
	totalIncome := decimal.Zero
	totalExpense := decimal.Zero

	for _, r := range rows {
		switch r.Kind {
		case schema.KindIncome:
			totalIncome = totalIncome.Add(r.Total)
			incomeRows = append(incomeRows, r)
		case schema.KindExpense:
			totalExpense = totalExpense.Add(r.Total)
			expenseRows = append(expenseRows, r)
		}
	}
	sortByTotalDesc(incomeRows)
	sortByTotalDesc(expenseRows)

	net := totalIncome.Sub(totalExpense)
	netEmoji := "🟢"
	if net.IsNegative() {
		netEmoji = "🔴"
	}

	lines := []string{
		reportTitle(period),
		fmt.Sprintf("📅 %s - %s", rng.From.Format("02/01/2006"), rng.To.Format("02/01/2006")),
		"",
		fmt.Sprintf("💰 Ingresos: S/ %s", totalIncome.StringFixed(2)),
		fmt.Sprintf("💸 Gastos: S/ %s", totalExpense.StringFixed(2)),
		fmt.Sprintf("%s Balance: S/ %s", netEmoji, net.StringFixed(2)),
	}

	if len(incomeRows) > 0 {
		lines = append(lines, "", "📈 Ingresos por categoría:")
		for _, r := range incomeRows {
			lines = append(lines, fmt.Sprintf("  • %s: S/ %s", r.Category, r.Total.StringFixed(2)))
		}
	}
	if len(expenseRows) > 0 {
		lines = append(lines, "", "📉 Gastos por categoría:")
		for _, r := range expenseRows {
			lines = append(lines, fmt.Sprintf("  • %s: S/ %s", r.Category, r.Total.StringFixed(2)))
		}
	}
	if len(rows) == 0 {
		lines = append(lines, "", "ℹ️ No hay transacciones en este período.")
	}

	return strings.Join(lines, "\n")
}

func sortByTotalDesc(rows []contract.AggregateRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Total.Equal(rows[j].Total) {
			return rows[i].Total.GreaterThan(rows[j].Total)
		}
		return rows[i].Category < rows[j].Category
	})
}

func reportTitle(period contract.ReportPeriod) string {
	switch period {
	case contract.PeriodWeekly:
		return "📊 Reporte Semanal"
	case contract.PeriodMonthly:
		return "📊 Reporte Mensual"
	default:
		return "📊 Reporte Anual"
	}
}

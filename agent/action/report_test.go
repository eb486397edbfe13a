package action

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mfigueroa/gastobot/agent/contract"
)

func TestPeriodRangeWeekly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		now      time.Time
		wantFrom time.Time
	}{
		{
			"wednesday goes back to monday",
			time.Date(2024, 11, 13, 15, 0, 0, 0, time.UTC),
			time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			"monday starts the same day",
			time.Date(2024, 11, 11, 8, 0, 0, 0, time.UTC),
			time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			"sunday goes back six days",
			time.Date(2024, 11, 17, 23, 59, 0, 0, time.UTC),
			time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rng, err := PeriodRange(contract.PeriodWeekly, tc.now)
			if err != nil {
				t.Fatalf("PeriodRange() error = %v", err)
			}
			if !rng.From.Equal(tc.wantFrom) {
				t.Fatalf("From = %v, want %v", rng.From, tc.wantFrom)
			}
			if !rng.To.Equal(tc.now) {
				t.Fatalf("To = %v, want now", rng.To)
			}
		})
	}
}

func TestPeriodRangeMonthlyAndYearly(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 11, 13, 15, 0, 0, 0, time.UTC)

	monthly, err := PeriodRange(contract.PeriodMonthly, now)
	if err != nil {
		t.Fatalf("PeriodRange(monthly) error = %v", err)
	}
	if !monthly.From.Equal(time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("monthly From = %v", monthly.From)
	}

	yearly, err := PeriodRange(contract.PeriodYearly, now)
	if err != nil {
		t.Fatalf("PeriodRange(yearly) error = %v", err)
	}
	if !yearly.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("yearly From = %v", yearly.From)
	}
}

func TestPeriodRangeInvalid(t *testing.T) {
	t.Parallel()

	_, err := PeriodRange("quincenal", time.Now())
	if !errors.Is(err, contract.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestGenerateReportBreakdown(t *testing.T) {
	t.Parallel()

	store := newFakeStorage()
	store.aggregates = []contract.AggregateRow{
		{Kind: "gasto", Category: "comida", Total: decimal.NewFromInt(120)},
		{Kind: "gasto", Category: "transporte", Total: decimal.NewFromInt(300)},
		{Kind: "ingreso", Category: "salario", Total: decimal.NewFromInt(3000)},
	}
	h := newTestHandlers(t, store)

	report, err := h.GenerateReport(context.Background(), "u", contract.PeriodMonthly)
	if err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	for _, want := range []string{
		"📊 Reporte Mensual",
		"💰 Ingresos: S/ 3000.00",
		"💸 Gastos: S/ 420.00",
		"Balance: S/ 2580.00",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}

	// Expense breakdown sorted by descending total.
	ti := strings.Index(report, "transporte")
	ci := strings.Index(report, "comida")
	if ti == -1 || ci == -1 || ti > ci {
		t.Fatalf("expense breakdown not sorted by descending total:\n%s", report)
	}
}

func TestGenerateReportEmpty(t *testing.T) {
	t.Parallel()

	h := newTestHandlers(t, newFakeStorage())

	report, err := h.GenerateReport(context.Background(), "u", contract.PeriodWeekly)
	if err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}
	if !strings.Contains(report, "No hay transacciones en este período") {
		t.Fatalf("empty range must produce explicit notice:\n%s", report)
	}
	if !strings.Contains(report, "S/ 0.00") {
		t.Fatalf("empty report must still show zero totals:\n%s", report)
	}
}

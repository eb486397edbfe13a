package contract

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mfigueroa/gastobot/agent/schema"
)

// Profile is a user's registration record, keyed by channel address.
type Profile struct {
	Identifier string
	Name       string
	Contact    string
}

// Complete reports whether registration finished. Both fields must be present;
// the registration gate keys off this.
func (p *Profile) Complete() bool {
	return p != nil &&
		strings.TrimSpace(p.Name) != "" &&
		strings.TrimSpace(p.Contact) != ""
}

// Transaction is an immutable, validated financial record. Category is always
// a member of the set associated with Kind by the time one of these exists.
type Transaction struct {
	ID          string
	Kind        schema.Kind
	Amount      decimal.Decimal
	Currency    schema.Currency
	Category    schema.Category
	Description string
	OccurredAt  time.Time
}

// Range is the half-open [From, To) date range report aggregation queries
// over; storage matches occurred_at >= From and occurred_at < To.
type Range struct {
	From time.Time
	To   time.Time
}

// AggregateRow is one kind+category total over a range.
type AggregateRow struct {
	Kind     schema.Kind
	Category schema.Category
	Total    decimal.Decimal
}

// Action is the closed set of things a turn can resolve to. The decision
// function produces exactly one of these; the generation backend is a hint
// source, never the dispatcher.
type Action string

const (
	ActionCommitTransaction Action = "commit_transaction"
	ActionGenerateReport    Action = "generate_report"
	ActionIssueCredential   Action = "issue_credential"
	ActionRegisterProfile   Action = "register_profile"
	ActionShowHelp          Action = "show_help"
	ActionAskClarification  Action = "ask_clarification"
)

// ReportPeriod values accepted by GenerateReport.
type ReportPeriod string

const (
	PeriodWeekly  ReportPeriod = "semanal"
	PeriodMonthly ReportPeriod = "mensual"
	PeriodYearly  ReportPeriod = "anual"
)

// ParsePeriod clamps raw period text to the closed period set.
func ParsePeriod(raw string) (ReportPeriod, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "semanal", "semana", "weekly":
		return PeriodWeekly, true
	case "mensual", "mes", "monthly":
		return PeriodMonthly, true
	case "anual", "año", "ano", "yearly":
		return PeriodYearly, true
	default:
		return "", false
	}
}

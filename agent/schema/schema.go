// Package schema holds the closed vocabularies every other component validates
// against: transaction kinds, currencies, and the per-kind category sets. The
// sets are fixed at compile time; values observed outside a set collapse to
// their sentinel deterministically.
package schema

import "strings"

type Kind string

const (
	KindExpense Kind = "gasto"
	KindIncome  Kind = "ingreso"
	KindUnknown Kind = ""
)

type Currency string

const (
	CurrencyPEN     Currency = "PEN"
	CurrencyOther   Currency = "OTHER"
	CurrencyUnknown Currency = "UNKNOWN"
)

type Category string

const CategoryOther Category = "otros"

// ExpenseCategories is the closed, ordered expense set. CategoryOther is the
// sentinel member shared with IncomeCategories.
var ExpenseCategories = []Category{
	"comida", "diversión", "ropa", "transporte", "salud",
	"vivienda", "servicios", "educación", "ahorro", CategoryOther,
}

var IncomeCategories = []Category{
	"salario", "freelance", "regalos", CategoryOther,
}

// CategoriesFor returns the category set associated with a kind. Unknown kinds
// get the expense set, which is the larger of the two; callers that care about
// kind validity must check it first.
func CategoriesFor(kind Kind) []Category {
	if kind == KindIncome {
		return IncomeCategories
	}
	return ExpenseCategories
}

// NormalizeCategory maps raw category text onto the kind's closed set. The
// match is case-insensitive after trimming; anything outside the set becomes
// CategoryOther. The mapping is idempotent.
func NormalizeCategory(kind Kind, raw string) Category {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	for _, c := range CategoriesFor(kind) {
		if cleaned == string(c) {
			return c
		}
	}
	return CategoryOther
}

// ParseKind recognizes the two transaction kinds plus a few aliases the model
// tends to emit. Everything else is KindUnknown.
func ParseKind(raw string) Kind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gasto", "expense", "egreso":
		return KindExpense
	case "ingreso", "income":
		return KindIncome
	default:
		return KindUnknown
	}
}

// ParseCurrency clamps raw currency text to the currency enum.
func ParseCurrency(raw string) Currency {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(CurrencyPEN):
		return CurrencyPEN
	case string(CurrencyOther):
		return CurrencyOther
	default:
		return CurrencyUnknown
	}
}

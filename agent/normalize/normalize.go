// Package normalize prepares one conversational turn for extraction: case
// folding, whitespace collapse, and annotation of Peruvian slang with
// canonical domain concepts. The original text is always preserved; hints
// bias the extractor, they never replace user words.
package normalize

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mfigueroa/gastobot/agent/schema"
)

// SlangTableVersion identifies the slang mapping below. Normalization is
// deterministic for a fixed version.
const SlangTableVersion = 3

type Concept string

const (
	ConceptClothing  Concept = "ropa"
	ConceptFood      Concept = "comida"
	ConceptTransport Concept = "transporte"
	ConceptSalary    Concept = "salario"
	ConceptFreelance Concept = "freelance"
	ConceptSoles     Concept = "soles"
)

// Hint ties a token observed in the turn to a canonical concept.
type Hint struct {
	Token   string
	Concept Concept
}

// Normalized is the output of Normalize. Folded is the lowercased,
// whitespace-collapsed form used for keyword checks and prompts; Original is
// kept verbatim for the final transaction description.
type Normalized struct {
	Original string
	Folded   string
	Hints    []Hint
}

var slangTable = map[string]Concept{
	"tabas":      ConceptClothing,
	"zapatillas": ConceptClothing,
	"polos":      ConceptClothing,
	"polo":       ConceptClothing,

	"chifa":    ConceptFood,
	"chifita":  ConceptFood,
	"ceviche":  ConceptFood,
	"menú":     ConceptFood,
	"menu":     ConceptFood,
	"almuerzo": ConceptFood,
	"desayuno": ConceptFood,
	"cena":     ConceptFood,

	"combi": ConceptTransport,
	"micro": ConceptTransport,
	"taxi":  ConceptTransport,
	"uber":  ConceptTransport,

	"sueldo":   ConceptSalary,
	"quincena": ConceptSalary,

	"web":     ConceptFreelance,
	"página":  ConceptFreelance,
	"pagina":  ConceptFreelance,
	"app":     ConceptFreelance,
	"sistema": ConceptFreelance,

	"lucas": ConceptSoles,
	"cocos": ConceptSoles,
	"soles": ConceptSoles,
}

// Normalize is a pure function over one turn of user text.
func Normalize(text string) Normalized {
	folded := strings.Join(strings.Fields(strings.ToLower(text)), " ")

	var hints []Hint
	seen := make(map[Concept]bool, 4)
	for _, token := range strings.Fields(folded) {
		token = strings.Trim(token, ".,;:!?¡¿\"'()")
		concept, ok := slangTable[token]
		if !ok || seen[concept] {
			continue
		}
		seen[concept] = true
		hints = append(hints, Hint{Token: token, Concept: concept})
	}

	return Normalized{
		Original: text,
		Folded:   folded,
		Hints:    hints,
	}
}

// HintLine renders the hints as a short Spanish annotation for the extraction
// prompt. Empty when the turn carried no slang.
func (n Normalized) HintLine() string {
	if len(n.Hints) == 0 {
		return ""
	}
	parts := make([]string, 0, len(n.Hints))
	for _, h := range n.Hints {
		parts = append(parts, h.Token+"="+string(h.Concept))
	}
	return "Pistas de jerga: " + strings.Join(parts, ", ")
}

// CategoryHint maps the strongest concept hint to a category for the given
// kind, or the sentinel when no hint applies.
func (n Normalized) CategoryHint(kind schema.Kind) schema.Category {
	for _, h := range n.Hints {
		switch h.Concept {
		case ConceptClothing, ConceptFood, ConceptTransport:
			if kind != schema.KindIncome {
				return schema.NormalizeCategory(schema.KindExpense, string(h.Concept))
			}
		case ConceptSalary, ConceptFreelance:
			if kind != schema.KindExpense {
				return schema.NormalizeCategory(schema.KindIncome, string(h.Concept))
			}
		}
	}
	return schema.CategoryOther
}

// BareAmount reports whether the turn is nothing but a monetary magnitude
// (optionally prefixed with s/ or followed by "soles"), the shape of an
// amount-only follow-up to a clarifying question.
func BareAmount(folded string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(folded)
	s = strings.TrimPrefix(s, "s/.")
	s = strings.TrimPrefix(s, "s/")
	s = strings.TrimSuffix(s, "soles")
	s = strings.TrimSuffix(s, "lucas")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Decimal{}, false
	}
	return d, true
}

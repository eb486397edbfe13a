package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/mfigueroa/gastobot/agent/contract"
	"github.com/mfigueroa/gastobot/agent/memory"
	"github.com/mfigueroa/gastobot/agent/normalize"
	"github.com/mfigueroa/gastobot/agent/schema"
)

type fakeGenerator struct {
	response string
	err      error
	calls    int
	lastUser string
}

func (f *fakeGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	f.calls++
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestExtractWellFormed(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		response: `{"type":"gasto","amount":50,"currency":"PEN","category":"transporte","description":"taxi","date_text":"ayer"}`,
	}
	e := New(gen, "prompt")

	res := e.Extract(context.Background(), normalize.Normalize("gasté 50 en el taxi ayer"), nil)

	if res.Kind != schema.KindExpense {
		t.Fatalf("kind = %q, want expense", res.Kind)
	}
	if !res.HasAmount() || res.Amount.String() != "50" {
		t.Fatalf("amount = %v, want 50", res.Amount)
	}
	if res.Category != "transporte" {
		t.Fatalf("category = %q, want transporte", res.Category)
	}
	if res.DateRef != "ayer" {
		t.Fatalf("date ref = %q, want ayer", res.DateRef)
	}
}

func TestExtractStripsMarkdownFences(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		response: "```json\n{\"type\":\"ingreso\",\"amount\":\"1500,50\",\"currency\":\"PEN\",\"category\":\"freelance\",\"description\":\"pago web\"}\n```",
	}
	e := New(gen, "prompt")

	res := e.Extract(context.Background(), normalize.Normalize("me pagaron"), nil)
	if res.Kind != schema.KindIncome {
		t.Fatalf("kind = %q, want income", res.Kind)
	}
	if !res.HasAmount() || res.Amount.String() != "1500.5" {
		t.Fatalf("amount = %v, want 1500.5 (comma decimal coerced)", res.Amount)
	}
}

func TestExtractMalformedFallsBack(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		response string
	}{
		{"free prose", "Claro, he registrado tu gasto de 50 soles."},
		{"truncated json", `{"type":"gasto","amount":`},
		{"empty", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e := New(&fakeGenerator{response: tc.response}, "prompt")
			res := e.Extract(context.Background(), normalize.Normalize("gasté 50"), nil)

			if res.Kind != schema.KindUnknown {
				t.Fatalf("fallback kind = %q, want unknown", res.Kind)
			}
			if res.HasAmount() {
				t.Fatalf("fallback must not carry an amount, got %v", res.Amount)
			}
			if res.Description != "gasté 50" {
				t.Fatalf("fallback description = %q, want original text", res.Description)
			}
			if res.Currency != schema.CurrencyUnknown || res.Category != schema.CategoryOther {
				t.Fatalf("fallback not minimal: %+v", res)
			}
		})
	}
}

func TestExtractGeneratorFailureFallsBack(t *testing.T) {
	t.Parallel()

	e := New(&fakeGenerator{err: contract.ErrUnavailable}, "prompt")
	res := e.Extract(context.Background(), normalize.Normalize("gasté 50 en comida"), nil)
	if res.Kind != schema.KindUnknown || res.HasAmount() {
		t.Fatalf("expected fallback on generator failure, got %+v", res)
	}
}

func TestExtractClampsInvalidValues(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{
		response: `{"type":"gasto","amount":"no sé","currency":"USD","category":"mascotas","description":"x"}`,
	}
	e := New(gen, "prompt")

	res := e.Extract(context.Background(), normalize.Normalize("compré algo"), nil)
	if res.Category != schema.CategoryOther {
		t.Fatalf("category = %q, want sentinel", res.Category)
	}
	if res.Currency != schema.CurrencyUnknown {
		t.Fatalf("currency = %q, want UNKNOWN", res.Currency)
	}
	if res.Amount != nil {
		t.Fatalf("uncoercible amount must be absent, got %v", res.Amount)
	}
}

func TestExtractIncludesContextWindow(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{response: `{"type":null,"amount":null,"currency":"UNKNOWN","category":"otros","description":"1500"}`}
	e := New(gen, "prompt", WithContextTurns(2))

	history := []memory.Turn{
		{Role: memory.RoleUser, Content: "viejo mensaje"},
		{Role: memory.RoleUser, Content: "me pagaron por una web"},
		{Role: memory.RoleAgent, Content: "¿Cuánto te pagaron?"},
	}
	e.Extract(context.Background(), normalize.Normalize("1500"), history)

	if !strings.Contains(gen.lastUser, "me pagaron por una web") {
		t.Fatalf("prompt missing recent context: %q", gen.lastUser)
	}
	if strings.Contains(gen.lastUser, "viejo mensaje") {
		t.Fatalf("prompt includes turns beyond the context window: %q", gen.lastUser)
	}
}

package schema

import "testing"

func TestNormalizeCategory(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		kind Kind
		raw  string
		want Category
	}{
		{"exact expense member", KindExpense, "comida", "comida"},
		{"case folded", KindExpense, "  TRANSPORTE ", "transporte"},
		{"income member", KindIncome, "Freelance", "freelance"},
		{"expense member invalid for income", KindIncome, "comida", CategoryOther},
		{"free text collapses", KindExpense, "mascotas", CategoryOther},
		{"empty collapses", KindExpense, "", CategoryOther},
		{"unknown kind uses expense set", KindUnknown, "salud", "salud"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := NormalizeCategory(tc.kind, tc.raw)
			if got != tc.want {
				t.Fatalf("NormalizeCategory(%q, %q) = %q, want %q", tc.kind, tc.raw, got, tc.want)
			}
		})
	}
}

func TestNormalizeCategoryIdempotent(t *testing.T) {
	t.Parallel()

	for _, kind := range []Kind{KindExpense, KindIncome} {
		for _, c := range CategoriesFor(kind) {
			once := NormalizeCategory(kind, string(c))
			twice := NormalizeCategory(kind, string(once))
			if once != twice {
				t.Fatalf("normalization not idempotent for kind=%s category=%s", kind, c)
			}
		}
	}
	// Out-of-set input normalizes to the sentinel, which is itself stable.
	if NormalizeCategory(KindExpense, string(NormalizeCategory(KindExpense, "criptomonedas"))) != CategoryOther {
		t.Fatal("sentinel category must be a fixed point")
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	if ParseKind("Gasto") != KindExpense {
		t.Fatal("expected gasto to parse as expense")
	}
	if ParseKind("INGRESO") != KindIncome {
		t.Fatal("expected ingreso to parse as income")
	}
	if ParseKind("prestamo") != KindUnknown {
		t.Fatal("expected unsupported kind to be unknown")
	}
}

func TestParseCurrency(t *testing.T) {
	t.Parallel()

	if ParseCurrency("pen") != CurrencyPEN {
		t.Fatal("expected pen to clamp to PEN")
	}
	if ParseCurrency("USD") != CurrencyUnknown {
		t.Fatal("expected unsupported currency to clamp to UNKNOWN")
	}
	if ParseCurrency("other") != CurrencyOther {
		t.Fatal("expected other to clamp to OTHER")
	}
}

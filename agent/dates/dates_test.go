package dates

import (
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	r := NewResolver(DefaultLocation)
	now := time.Date(2024, 11, 15, 10, 30, 0, 0, r.Location()) // a Friday

	cases := []struct {
		name string
		ref  string
		want time.Time
	}{
		{"empty defaults to now", "", now},
		{"hoy", "hoy", now},
		{"ayer", "ayer", now.AddDate(0, 0, -1)},
		{"anteayer", "anteayer", now.AddDate(0, 0, -2)},
		{"hace n dias", "hace 3 días", now.AddDate(0, 0, -3)},
		{"dmy without year", "12/11", time.Date(2024, 11, 12, 0, 0, 0, 0, r.Location())},
		{"dmy with year", "05/07/2023", time.Date(2023, 7, 5, 0, 0, 0, 0, r.Location())},
		{"dmy short year", "01/02/24", time.Date(2024, 2, 1, 0, 0, 0, 0, r.Location())},
		{"garbage defaults to now", "el otro día", now},
		{"impossible date defaults to now", "31/02", now},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := r.Resolve(tc.ref, now)
			if !got.Equal(tc.want) {
				t.Fatalf("Resolve(%q) = %v, want %v", tc.ref, got, tc.want)
			}
		})
	}
}

func TestResolverUnknownZoneFallsBack(t *testing.T) {
	t.Parallel()

	r := NewResolver("Mars/Olympus")
	if r.Location() != time.UTC {
		t.Fatalf("expected UTC fallback, got %v", r.Location())
	}
}

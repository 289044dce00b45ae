package core

import "testing"

func TestFrequencyNext(t *testing.T) {
	cases := []struct {
		freq Frequency
		in   Date
		want Date
	}{
		{Daily, NewDate(2025, 8, 1), NewDate(2025, 8, 2)},
		{Daily, NewDate(2025, 12, 31), NewDate(2026, 1, 1)},
		{Weekly, NewDate(2025, 8, 1), NewDate(2025, 8, 8)},
		{Biweekly, NewDate(2025, 8, 1), NewDate(2025, 8, 16)},
		{Biweekly, NewDate(2025, 8, 25), NewDate(2025, 9, 9)},
		{Monthly, NewDate(2025, 8, 1), NewDate(2025, 9, 1)},
		{Monthly, NewDate(2025, 1, 31), NewDate(2025, 2, 28)}, // clamped
		{Monthly, NewDate(2024, 1, 31), NewDate(2024, 2, 29)}, // leap year
		{Monthly, NewDate(2025, 3, 31), NewDate(2025, 4, 30)},
		{Semiannual, NewDate(2025, 8, 31), NewDate(2026, 2, 28)},
		{Annual, NewDate(2024, 2, 29), NewDate(2025, 2, 28)},
		{Annual, NewDate(2025, 8, 1), NewDate(2026, 8, 1)},
	}
	for i, tc := range cases {
		got := tc.freq.Next(tc.in)
		if !got.Equal(tc.want) {
			t.Errorf("case %d: %s.Next(%s) = %s, want %s", i, tc.freq, tc.in, got, tc.want)
		}
	}
}

func TestFrequencyNextPanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown frequency")
		}
	}()
	Frequency("HOURLY").Next(NewDate(2025, 1, 1))
}

func TestFrequencyValid(t *testing.T) {
	for _, f := range Frequencies {
		if !f.Valid() {
			t.Errorf("%s should be valid", f)
		}
	}
	if Frequency("").Valid() {
		t.Error("empty frequency should be invalid")
	}
	if Frequency("HOURLY").Valid() {
		t.Error("unknown frequency should be invalid")
	}
}

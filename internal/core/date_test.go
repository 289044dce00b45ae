package core

import (
	"testing"
	"time"
)

func TestAddMonthsClampsDay(t *testing.T) {
	cases := []struct {
		in     Date
		months int
		want   Date
	}{
		{NewDate(2025, 1, 15), 1, NewDate(2025, 2, 15)},
		{NewDate(2025, 1, 31), 1, NewDate(2025, 2, 28)},
		{NewDate(2024, 1, 31), 1, NewDate(2024, 2, 29)},
		{NewDate(2025, 1, 31), 2, NewDate(2025, 3, 31)},
		{NewDate(2025, 10, 31), 3, NewDate(2026, 1, 31)},
		{NewDate(2025, 8, 31), 13, NewDate(2026, 9, 30)},
	}
	for i, tc := range cases {
		got := tc.in.AddMonths(tc.months)
		if !got.Equal(tc.want) {
			t.Errorf("case %d: %s + %d months = %s, want %s", i, tc.in, tc.months, got, tc.want)
		}
	}
}

func TestMonthBounds(t *testing.T) {
	first, last := MonthBounds(2025, 2)
	if !first.Equal(NewDate(2025, 2, 1)) || !last.Equal(NewDate(2025, 2, 28)) {
		t.Fatalf("got [%s, %s]", first, last)
	}
	first, last = MonthBounds(2024, 2)
	if !last.Equal(NewDate(2024, 2, 29)) {
		t.Fatalf("leap february should end on the 29th, got %s", last)
	}
	_, last = MonthBounds(2025, 12)
	if !last.Equal(NewDate(2025, 12, 31)) {
		t.Fatalf("december should end on the 31st, got %s", last)
	}
}

func TestDateOfNormalizes(t *testing.T) {
	loc := time.FixedZone("X", -3*3600)
	d := DateOf(time.Date(2025, 8, 1, 23, 30, 0, 0, loc))
	if !d.Equal(NewDate(2025, 8, 2)) {
		t.Fatalf("expected UTC date 2025-08-02, got %s", d)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-08-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Equal(NewDate(2025, 8, 1)) {
		t.Fatalf("got %s", d)
	}
	if _, err := ParseDate("01/08/2025"); err == nil {
		t.Fatal("expected error for wrong format")
	}
}

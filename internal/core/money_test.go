package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"150,00", 15000, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0,00", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseBudgetToCents(t *testing.T) {
	// Budgets accept zero, unlike transaction amounts.
	got, err := ParseBudgetToCents("0")
	if err != nil || got != 0 {
		t.Fatalf("expected 0, got %d (err=%v)", got, err)
	}
	got, err = ParseBudgetToCents("500,00")
	if err != nil || got != 50000 {
		t.Fatalf("expected 50000, got %d (err=%v)", got, err)
	}
	if _, err := ParseBudgetToCents("-5"); err == nil {
		t.Fatalf("expected error for negative budget")
	}
	if _, err := ParseBudgetToCents("x"); err == nil {
		t.Fatalf("expected error for garbage")
	}
}

func TestFormatReais(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "R$ 0,00"},
		{1, "R$ 0,01"},
		{15000, "R$ 150,00"},
		{123456, "R$ 1.234,56"},
		{100000000, "R$ 1.000.000,00"},
		{-9950, "-R$ 99,50"},
	}
	for _, tc := range cases {
		if got := FormatReais(tc.cents); got != tc.want {
			t.Fatalf("FormatReais(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

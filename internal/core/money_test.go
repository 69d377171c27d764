package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{input: "12.34", want: 1234},
		{input: "12,34", want: 1234},
		{input: "12", want: 1200},
		{input: "0.5", want: 50},
		{input: ".75", want: 75},
		{input: "12.345", want: 1234}, // third decimal below 5 rounds down
		{input: "12.346", want: 1235}, // third decimal 5+ rounds up
		{input: "", wantErr: true},
		{input: "-3.00", wantErr: true},
		{input: "+3.00", wantErr: true},
		{input: "0", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Errorf("ParseDecimalToCents(%q) error = %v, want ErrInvalidAmount", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCentsFromDecimal(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{input: "100.00", want: 10000},
		{input: "0.01", want: 1},
		{input: "10.005", want: 1001}, // half rounds away from zero
		{input: "33.333", want: 3333},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := CentsFromDecimal(decimal.RequireFromString(tt.input))
			if got.Cents != tt.want {
				t.Errorf("CentsFromDecimal(%s) = %d, want %d", tt.input, got.Cents, tt.want)
			}
		})
	}
}

func TestMoneyDecimalRoundTrip(t *testing.T) {
	m := Money{Cents: 1234}
	if got := m.Decimal().String(); got != "12.34" {
		t.Errorf("Decimal() = %s, want 12.34", got)
	}
	if got := m.Units(); got != 12.34 {
		t.Errorf("Units() = %v, want 12.34", got)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 150}
	b := Money{Cents: 60}
	if got := a.Add(b); got.Cents != 210 {
		t.Errorf("Add = %d, want 210", got.Cents)
	}
	if got := b.Sub(a); got.Cents != -90 {
		t.Errorf("Sub = %d, want -90", got.Cents)
	}
}

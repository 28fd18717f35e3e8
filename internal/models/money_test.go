// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"testing"
)

func TestMoneyJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Money
		out  string
	}{
		{name: "whole pesos", in: `100`, want: 10000, out: `100.00`},
		{name: "centavos", in: `1299.99`, want: 129999, out: `1299.99`},
		{name: "rounding", in: `0.105`, want: 11, out: `0.11`},
		{name: "numeric string", in: `"50"`, want: 5000, out: `50.00`},
		{name: "zero", in: `0`, want: 0, out: `0.00`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Money
			if err := json.Unmarshal([]byte(tt.in), &m); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tt.in, err)
			}
			if m != tt.want {
				t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, m, tt.want)
			}
			b, err := json.Marshal(m)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(b) != tt.out {
				t.Errorf("Marshal = %s, want %s", b, tt.out)
			}
		})
	}
}

func TestMoneyRejectsGarbage(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`"cheap"`), &m); err == nil {
		t.Error("expected error for non-numeric amount")
	}
}

func TestMoneyBounds(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`1000000000`), &m); err != nil {
		t.Fatalf("Unmarshal(max): %v", err)
	}
	if m != MaxMoney || !m.Valid() {
		t.Errorf("Unmarshal(max) = %d, want %d", m, MaxMoney)
	}

	for _, in := range []string{`1000000000.01`, `92233720368547758.07`, `-1e300`} {
		if err := json.Unmarshal([]byte(in), &m); err == nil {
			t.Errorf("Unmarshal(%s): expected out of range error", in)
		}
	}

	if Money(-1).Valid() || (MaxMoney + 1).Valid() {
		t.Error("Valid accepted an out of range amount")
	}
}

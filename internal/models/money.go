// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Money is an amount in Mexican pesos stored as integer centavos, so that
// sums are exact and independent of iteration order. It encodes to JSON as
// a decimal number with two fraction digits.
type Money int64

// MaxMoney is the largest accepted amount, one billion pesos. Summing
// fewer than 90 million maximal amounts cannot overflow int64.
const MaxMoney Money = 100_000_000_000

// Pesos builds a Money value from a whole-peso amount.
func Pesos(p int64) Money {
	return Money(p * 100)
}

// Valid reports whether the amount is within [0, MaxMoney].
func (m Money) Valid() bool {
	return m >= 0 && m <= MaxMoney
}

// String renders the amount as "1234.50".
func (m Money) String() string {
	return strconv.FormatFloat(float64(m)/100, 'f', 2, 64)
}

// MarshalJSON encodes the amount as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number (or numeric string) in pesos.
func (m *Money) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("money: %w", err)
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("money: invalid amount %q", n)
	}
	c := math.Round(f * 100)
	if math.Abs(c) > float64(MaxMoney) {
		return fmt.Errorf("money: amount %q exceeds %s", n, MaxMoney)
	}
	*m = Money(c)
	return nil
}

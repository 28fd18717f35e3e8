// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package collection

import (
	"sort"
	"strings"

	"figdex/internal/models"
)

// TBA is the month key for preorders with no known month.
const TBA = "TBA"

// CalendarEntry is a preorder with its resolved month and price.
type CalendarEntry struct {
	models.CollectionEntry
	EffectiveMonth string       `json:"effective_month"`
	EffectivePrice models.Money `json:"effective_price"`
}

// MonthBucket groups the preorders due in one month.
type MonthBucket struct {
	Month   string          `json:"month"`
	Entries []CalendarEntry `json:"entries"`
	Total   models.Money    `json:"total"`
}

// Calendar is the preorder aggregate of one user.
type Calendar struct {
	Months     []MonthBucket `json:"months"`
	GrandTotal models.Money  `json:"grand_total"`
	Count      int           `json:"count"`
}

// EffectiveMonth is the entry's preorder month, else the figure's release
// date, else TBA.
func EffectiveMonth(e models.CollectionEntry) string {
	if v := nonBlank(e.PreorderMonth); v != "" {
		return v
	}
	if e.Figure != nil {
		if v := nonBlank(e.Figure.ReleaseDate); v != "" {
			return v
		}
	}
	return TBA
}

// EffectivePrice is the price the user entered, else the figure's list
// price, else zero.
func EffectivePrice(e models.CollectionEntry) models.Money {
	if e.UserPrice != nil {
		return *e.UserPrice
	}
	if e.Figure != nil && e.Figure.PriceMXN != nil {
		return *e.Figure.PriceMXN
	}
	return 0
}

// AggregateByMonth groups PREORDER entries by effective month. Buckets are
// sorted ascending with TBA last; entries within a bucket are ordered by
// figure name. Totals are integer centavo sums, so the result does not
// depend on input order.
func AggregateByMonth(entries []models.CollectionEntry, monthFilter string) *Calendar {
	monthFilter = strings.TrimSpace(monthFilter)

	buckets := map[string]*MonthBucket{}
	cal := &Calendar{Months: []MonthBucket{}}
	for _, e := range entries {
		if e.Status != models.CollectionPreorder {
			continue
		}
		month := EffectiveMonth(e)
		if monthFilter != "" && month != monthFilter {
			continue
		}
		price := EffectivePrice(e)

		b, ok := buckets[month]
		if !ok {
			b = &MonthBucket{Month: month}
			buckets[month] = b
		}
		b.Entries = append(b.Entries, CalendarEntry{CollectionEntry: e, EffectiveMonth: month, EffectivePrice: price})
		b.Total += price
		cal.GrandTotal += price
		cal.Count++
	}

	for _, b := range buckets {
		sort.Slice(b.Entries, func(i, j int) bool {
			ni, nj := figureName(b.Entries[i]), figureName(b.Entries[j])
			if ni != nj {
				return ni < nj
			}
			return b.Entries[i].ID.String() < b.Entries[j].ID.String()
		})
		cal.Months = append(cal.Months, *b)
	}
	sort.Slice(cal.Months, func(i, j int) bool {
		return monthLess(cal.Months[i].Month, cal.Months[j].Month)
	})
	return cal
}

func monthLess(a, b string) bool {
	if a == TBA || b == TBA {
		return b == TBA && a != TBA
	}
	return a < b
}

func figureName(e CalendarEntry) string {
	if e.Figure == nil {
		return ""
	}
	return e.Figure.Name
}

func nonBlank(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

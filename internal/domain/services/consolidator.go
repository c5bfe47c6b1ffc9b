package services

import (
	"encoding/json"
	"strconv"
	"strings"

	"honeypot-lab/internal/domain/models"
)

var currencyMarkers = []string{"₹", "rs", "$"}

// Consolidate merges this turn's regex output, this turn's model-reported
// extraction, and the historical session aggregate into one record. The
// aggregate is always one of the inputs, so the result for every category is
// a superset (post-canonicalization) of the prior turn's record; intelligence
// is monotonically non-decreasing across a session.
//
// The model-reported map is untrusted: unknown keys are dropped, and only
// scalar string/number values are accepted per entry.
func Consolidate(regex models.EntityRecord, reported map[string]any, aggregate models.EntityRecord) models.EntityRecord {
	merged := make(models.EntityRecord, len(models.Categories))

	for _, cat := range models.Categories {
		combined := make([]string, 0)
		seen := make(map[string]bool)
		add := func(v string) {
			if !seen[v] {
				seen[v] = true
				combined = append(combined, v)
			}
		}

		for _, v := range regex.Get(cat) {
			add(v)
		}
		for _, v := range scalarStrings(reported[string(cat)]) {
			add(v)
		}
		for _, v := range aggregate.Get(cat) {
			add(v)
		}

		if cat == models.CategoryAmounts {
			combined = canonicalizeAmounts(combined)
		}

		merged[cat] = combined
	}

	return merged
}

// AggregateRecords unions per-turn extraction snapshots into one record.
func AggregateRecords(records []models.EntityRecord) models.EntityRecord {
	aggregate := make(models.EntityRecord)
	for _, rec := range records {
		for _, cat := range models.Categories {
			for _, v := range rec.Get(cat) {
				aggregate.Add(cat, v)
			}
		}
	}
	return aggregate
}

// scalarStrings stringifies a reported category value, accepting only a list
// of scalars. Nested objects, lists, and other structurally invalid entries
// are discarded silently rather than failing the turn.
func scalarStrings(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		case int:
			out = append(out, strconv.Itoa(v))
		case json.Number:
			out = append(out, v.String())
		}
	}
	return out
}

// canonicalizeAmounts groups amount renderings by their digit-only projection
// and keeps one representative per group, preferring a currency-marked form
// ("Rs 5000" over "5000"). Idempotent: canonicalizing a canonical set again
// yields the same set.
func canonicalizeAmounts(amounts []string) []string {
	type group struct {
		value  string
		marked bool
	}
	order := make([]string, 0, len(amounts))
	groups := make(map[string]group)

	for _, amt := range amounts {
		digits := digitProjection(amt)
		if digits == "" {
			continue
		}
		marked := hasCurrencyMarker(amt)
		g, exists := groups[digits]
		if !exists {
			groups[digits] = group{value: amt, marked: marked}
			order = append(order, digits)
			continue
		}
		if marked && !g.marked {
			groups[digits] = group{value: amt, marked: true}
		}
	}

	out := make([]string, 0, len(order))
	for _, digits := range order {
		out = append(out, groups[digits].value)
	}
	return out
}

func digitProjection(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hasCurrencyMarker(s string) bool {
	lower := strings.ToLower(s)
	for _, m := range currencyMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

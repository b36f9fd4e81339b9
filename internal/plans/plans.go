// Package plans holds the static mapping from provider price identifiers to
// internal plan tiers. The mapping is the only source of truth for which plan
// a subscription entitles its owner to; plans are never inferred from price
// amounts.
package plans

import "github.com/fournil-app/fournil/internal/domain"

type Entry struct {
	Plan     domain.Plan
	Interval domain.BillingInterval
}

type Table struct {
	byPriceID map[string]Entry
}

// PriceIDs carries the provider price identifiers the deployment is
// configured with, one per paid plan/interval pair.
type PriceIDs struct {
	ArtisanMonthly string
	ArtisanYearly  string
	MaisonMonthly  string
	MaisonYearly   string
}

func New(ids PriceIDs) *Table {
	m := make(map[string]Entry, 4)

	add := func(priceID string, plan domain.Plan, interval domain.BillingInterval) {
		if priceID != "" {
			m[priceID] = Entry{Plan: plan, Interval: interval}
		}
	}

	add(ids.ArtisanMonthly, domain.PlanArtisan, domain.IntervalMonth)
	add(ids.ArtisanYearly, domain.PlanArtisan, domain.IntervalYear)
	add(ids.MaisonMonthly, domain.PlanMaison, domain.IntervalMonth)
	add(ids.MaisonYearly, domain.PlanMaison, domain.IntervalYear)

	return &Table{byPriceID: m}
}

// Lookup resolves a provider price id to a plan entry. Unknown price ids
// report ok=false; callers must treat that as "leave local state unchanged".
func (t *Table) Lookup(priceID string) (Entry, bool) {
	e, ok := t.byPriceID[priceID]
	return e, ok
}

// PriceID is the reverse lookup used when opening an upgrade checkout.
func (t *Table) PriceID(plan domain.Plan, interval domain.BillingInterval) (string, bool) {
	for id, e := range t.byPriceID {
		if e.Plan == plan && e.Interval == interval {
			return id, true
		}
	}
	return "", false
}

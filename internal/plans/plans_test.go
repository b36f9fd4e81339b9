package plans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fournil-app/fournil/internal/domain"
)

func newTestTable() *Table {
	return New(PriceIDs{
		ArtisanMonthly: "price_artisan_m",
		ArtisanYearly:  "price_artisan_y",
		MaisonMonthly:  "price_maison_m",
		MaisonYearly:   "price_maison_y",
	})
}

func TestLookup(t *testing.T) {
	table := newTestTable()

	e, ok := table.Lookup("price_maison_y")
	require.True(t, ok)
	assert.Equal(t, domain.PlanMaison, e.Plan)
	assert.Equal(t, domain.IntervalYear, e.Interval)

	e, ok = table.Lookup("price_artisan_m")
	require.True(t, ok)
	assert.Equal(t, domain.PlanArtisan, e.Plan)
	assert.Equal(t, domain.IntervalMonth, e.Interval)
}

func TestLookupUnknownPrice(t *testing.T) {
	table := newTestTable()

	_, ok := table.Lookup("price_from_another_deployment")
	assert.False(t, ok)

	_, ok = table.Lookup("")
	assert.False(t, ok)
}

func TestEmptyPriceIDsAreSkipped(t *testing.T) {
	table := New(PriceIDs{ArtisanMonthly: "price_only"})

	_, ok := table.Lookup("")
	assert.False(t, ok, "unset price ids must not map the empty string")

	_, ok = table.Lookup("price_only")
	assert.True(t, ok)
}

func TestPriceIDReverseLookup(t *testing.T) {
	table := newTestTable()

	id, ok := table.PriceID(domain.PlanArtisan, domain.IntervalYear)
	require.True(t, ok)
	assert.Equal(t, "price_artisan_y", id)

	_, ok = table.PriceID(domain.PlanFree, domain.IntervalMonth)
	assert.False(t, ok, "free tier has no provider price")
}

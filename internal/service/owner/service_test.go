package owner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fournil-app/fournil/internal/domain"
)

func TestValidateWorkshop(t *testing.T) {
	valid := CreateWorkshopInput{
		Title:          "Sourdough basics",
		Starts:         time.Date(2026, 9, 12, 9, 0, 0, 0, time.UTC),
		UnitPriceCents: 8500,
		DepositPercent: 30,
		Capacity:       8,
	}

	assert.NoError(t, validateWorkshop(valid))

	cases := []struct {
		name   string
		mutate func(*CreateWorkshopInput)
	}{
		{"missing title", func(in *CreateWorkshopInput) { in.Title = "" }},
		{"zero start time", func(in *CreateWorkshopInput) { in.Starts = time.Time{} }},
		{"zero capacity", func(in *CreateWorkshopInput) { in.Capacity = 0 }},
		{"negative price", func(in *CreateWorkshopInput) { in.UnitPriceCents = -1 }},
		{"negative deposit percent", func(in *CreateWorkshopInput) { in.DepositPercent = -5 }},
		{"deposit percent over 100", func(in *CreateWorkshopInput) { in.DepositPercent = 101 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			assert.Error(t, validateWorkshop(in))
		})
	}
}

func TestStatusChangeAllowed(t *testing.T) {
	allowed := []struct {
		from, to domain.WorkshopStatus
	}{
		{domain.WorkshopDraft, domain.WorkshopPublished},
		{domain.WorkshopDraft, domain.WorkshopCancelled},
		{domain.WorkshopPublished, domain.WorkshopCancelled},
		{domain.WorkshopFull, domain.WorkshopCancelled},
		{domain.WorkshopPublished, domain.WorkshopCompleted},
		{domain.WorkshopFull, domain.WorkshopCompleted},
	}
	for _, tc := range allowed {
		assert.True(t, statusChangeAllowed(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	denied := []struct {
		from, to domain.WorkshopStatus
	}{
		{domain.WorkshopPublished, domain.WorkshopPublished},
		{domain.WorkshopFull, domain.WorkshopPublished},
		{domain.WorkshopCancelled, domain.WorkshopPublished},
		{domain.WorkshopCancelled, domain.WorkshopCancelled},
		{domain.WorkshopCompleted, domain.WorkshopCancelled},
		{domain.WorkshopDraft, domain.WorkshopCompleted},
		{domain.WorkshopDraft, domain.WorkshopFull},
		{domain.WorkshopDraft, domain.WorkshopDraft},
	}
	for _, tc := range denied {
		assert.False(t, statusChangeAllowed(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type updateDTO struct {
	Name   *string  `json:"name"`
	Markup *float64 `json:"agency_markup"`
	Hidden *string  `json:"-"`
	Notes  *string  `json:"notes"`
}

func TestUpdatesFromPtrDTO(t *testing.T) {
	name := "Acme Travel"
	hidden := "nope"
	updates := UpdatesFromPtrDTO(&updateDTO{Name: &name, Hidden: &hidden}, nil)

	assert.Equal(t, map[string]any{"name": "Acme Travel"}, updates)
}

func TestUpdatesFromPtrDTORenames(t *testing.T) {
	markup := 12.5
	updates := UpdatesFromPtrDTO(&updateDTO{Markup: &markup}, map[string]string{"agency_markup": "markup_pct"})

	assert.Equal(t, map[string]any{"markup_pct": 12.5}, updates)
}

func TestNormalizePtrDTO(t *testing.T) {
	name := "  Acme Travel  "
	markup := 12.3456
	dto := updateDTO{Name: &name, Markup: &markup}
	NormalizePtrDTO(&dto)

	assert.Equal(t, "Acme Travel", *dto.Name)
	assert.Equal(t, 12.35, *dto.Markup)
	assert.Nil(t, dto.Notes)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.01, Round2(10.006))
	assert.Equal(t, 99.99, Round2(99.994))
	assert.Equal(t, 0.0, Round2(0))
}

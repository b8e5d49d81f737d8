package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementsNewestFirst(t *testing.T) {
	p := Process{Movimentos: []Movement{
		{Codigo: 1, DataHora: "2020-01-01T00:00:00Z"},
		{Codigo: 2, DataHora: "2021-01-01T00:00:00Z"},
		{Codigo: 3, DataHora: "2022-01-01T00:00:00Z"},
	}}

	got := p.MovementsNewestFirst()
	require.Len(t, got, 3)
	assert.Equal(t, 3, got[0].Codigo)
	assert.Equal(t, 1, got[2].Codigo)
	assert.Equal(t, 1, p.Movimentos[0].Codigo, "stored order must not change")

	last, ok := p.LastMovement()
	require.True(t, ok)
	assert.Equal(t, 3, last.Codigo)

	_, ok = (&Process{}).LastMovement()
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	results := []CourtResult{
		{Tribunal: "A", Processos: []Process{{NumeroProcesso: "1"}, {NumeroProcesso: "2"}}},
		{Tribunal: "B"},
		{Tribunal: "C", Processos: []Process{{NumeroProcesso: "3"}}},
	}

	s := Summarize(results)
	assert.Equal(t, 3, s.TotalProcessos)
	assert.Equal(t, 3, s.TribunaisConsultados)
	assert.Equal(t, 2, s.TribunaisComResultados)
	assert.Equal(t, []CourtTotal{{Nome: "A", Total: 2}, {Nome: "C", Total: 1}}, s.PorTribunal)
}

func TestNoResults(t *testing.T) {
	empty := &SearchOutcome{Summary: Summarize(nil)}
	assert.True(t, empty.NoResults())

	failed := &SearchOutcome{Summary: Summarize(nil), Errors: []string{"TRF1: down"}}
	assert.False(t, failed.NoResults())
}

func TestFlexString(t *testing.T) {
	var body struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
	}
	err := json.Unmarshal([]byte(`{"a": 3550308, "b": "3550308", "c": null}`), &body)
	require.NoError(t, err)
	assert.Equal(t, FlexString("3550308"), body.A)
	assert.Equal(t, FlexString("3550308"), body.B)
	assert.Equal(t, FlexString(""), body.C)
}

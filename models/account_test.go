package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAccountNumber(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"plain string", "4220", "4220"},
		{"padded string", " 4220 ", "4220"},
		{"float coerced", 4220.0, "4220"},
		{"float with fraction kept", 4220.5, "4220.5"},
		{"json number", json.Number("15000.0"), "15000"},
		{"int", 15000, "15000"},
		{"nil", nil, ""},
		{"alphanumeric untouched", "4220-A", "4220-A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAccountNumber(tt.input))
		})
	}
}

func TestNormalizeAccountNumbers(t *testing.T) {
	got := NormalizeAccountNumbers([]interface{}{"4220", 15000.0, nil, "  "})
	assert.Equal(t, []string{"4220", "15000"}, got)
}

func TestIsMatching(t *testing.T) {
	assert.True(t, Account{SpecialTag: "MatchingAP"}.IsMatching())
	assert.True(t, Account{SpecialTag: "Matching"}.IsMatching())
	assert.False(t, Account{SpecialTag: ""}.IsMatching())
	assert.False(t, Account{SpecialTag: "DeferRev"}.IsMatching())
}

func TestBalanceResultZeroFill(t *testing.T) {
	r := make(BalanceResult)
	r.Set("4220", "Jan 2025", 100)
	r.ZeroFill([]string{"4220", "9999"}, []string{"Jan 2025", "Feb 2025"})

	v, ok := r.Get("4220", "Jan 2025")
	assert.True(t, ok)
	assert.Equal(t, 100.0, v)
	for _, cell := range [][2]string{{"4220", "Feb 2025"}, {"9999", "Jan 2025"}, {"9999", "Feb 2025"}} {
		v, ok := r.Get(cell[0], cell[1])
		assert.True(t, ok, "cell %v", cell)
		assert.Zero(t, v, "cell %v", cell)
	}
}

func TestBalanceResultMergeAccumulates(t *testing.T) {
	a := make(BalanceResult)
	a.Set("4220", "Jan 2025", 100)
	b := make(BalanceResult)
	b.Set("4220", "Jan 2025", 25)
	b.Set("5000", "Jan 2025", -5)

	a.Merge(b)
	v, _ := a.Get("4220", "Jan 2025")
	assert.Equal(t, 125.0, v)
	v, _ = a.Get("5000", "Jan 2025")
	assert.Equal(t, -5.0, v)
}

func TestBalanceResultShapedRestrictsToRequest(t *testing.T) {
	r := make(BalanceResult)
	r.Set("4220", "Jan 2025", 100)
	r.Set("4220", "Feb 2025", 50)
	r.Set("5000", "Jan 2025", -5)

	out := r.Shaped([]string{"4220"}, []string{"Jan 2025"})
	v, ok := out.Get("4220", "Jan 2025")
	assert.True(t, ok)
	assert.Equal(t, 100.0, v)
	_, ok = out.Get("4220", "Feb 2025")
	assert.False(t, ok)
	_, ok = out.Get("5000", "Jan 2025")
	assert.False(t, ok)
}

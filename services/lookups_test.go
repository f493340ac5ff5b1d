package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsuite-gateway/models"
	"netsuite-gateway/netsuite"
)

func lookupHandler(sql string) ([]netsuite.Row, error) {
	switch {
	case strings.Contains(sql, "ROWNUM"):
		return []netsuite.Row{{"id": float64(5), "name": "Holding Co"}}, nil
	case strings.Contains(sql, "FROM subsidiary"):
		return []netsuite.Row{
			{"id": float64(5), "name": "Holding Co", "parent": nil, "isinactive": "F", "iselimination": "F"},
			{"id": float64(6), "name": "US Sub", "parent": float64(5), "isinactive": "F", "iselimination": "F"},
			{"id": float64(7), "name": "Retired Sub", "parent": float64(5), "isinactive": "T", "iselimination": "F"},
		}, nil
	case strings.Contains(sql, "FROM classification"):
		return []netsuite.Row{{"id": float64(11), "name": "Software"}}, nil
	case strings.Contains(sql, "FROM department"):
		return []netsuite.Row{{"id": float64(21), "name": "Engineering"}}, nil
	case strings.Contains(sql, "FROM location"):
		return []netsuite.Row{{"id": float64(31), "name": "Berlin"}}, nil
	case strings.Contains(sql, "FROM accountingbook"):
		return []netsuite.Row{{"id": float64(1), "name": "Primary"}, {"id": float64(2), "name": "IFRS"}}, nil
	default:
		return nil, nil
	}
}

func bootstrappedLookups(t *testing.T) *LookupService {
	t.Helper()
	s := NewLookupService(&stubExecutor{handler: lookupHandler})
	s.Bootstrap(context.Background())
	return s
}

func TestBootstrapAndAll(t *testing.T) {
	s := bootstrappedLookups(t)

	assert.EqualValues(t, 5, s.ConsolidationRoot())
	assert.Equal(t, 3, s.SubsidiaryCount())

	all := s.All()
	// The parent appears plain and with the display suffix; the inactive
	// subsidiary is dropped.
	assert.Equal(t, []models.LookupItem{
		{ID: 5, Name: "Holding Co"},
		{ID: 5, Name: "Holding Co (Consolidated)"},
		{ID: 6, Name: "US Sub"},
	}, all.Subsidiaries)
	assert.Equal(t, []models.LookupItem{{ID: 21, Name: "Engineering"}}, all.Departments)
	assert.Equal(t, []models.LookupItem{{ID: 1, Name: "Primary"}, {ID: 2, Name: "IFRS"}}, all.AccountingBooks)
}

func TestBootstrapToleratesPartialFailure(t *testing.T) {
	exec := &stubExecutor{handler: func(sql string) ([]netsuite.Row, error) {
		if strings.Contains(sql, "FROM classification") {
			return nil, models.NewAppError(models.ErrBackend, "boom")
		}
		return lookupHandler(sql)
	}}
	s := NewLookupService(exec)
	s.Bootstrap(context.Background())

	assert.Empty(t, s.All().Classes)
	assert.Equal(t, 3, s.SubsidiaryCount())
}

func TestConsolidationRootFallback(t *testing.T) {
	exec := &stubExecutor{handler: func(sql string) ([]netsuite.Row, error) {
		if strings.Contains(sql, "ROWNUM") {
			return nil, models.NewAppError(models.ErrBackend, "boom")
		}
		return lookupHandler(sql)
	}}
	s := NewLookupService(exec)
	s.Bootstrap(context.Background())
	assert.EqualValues(t, 1, s.ConsolidationRoot())
}

func TestResolveFilters(t *testing.T) {
	s := bootstrappedLookups(t)

	tests := []struct {
		name string
		in   FilterInput
		want models.FilterBundle
	}{
		{
			"exact names",
			FilterInput{Subsidiary: "US Sub", Department: "Engineering", Class: "Software", Location: "Berlin"},
			models.FilterBundle{SubsidiaryID: 6, DepartmentID: 21, ClassID: 11, LocationID: 31, AccountingBook: 1},
		},
		{
			"case insensitive",
			FilterInput{Subsidiary: "us sub"},
			models.FilterBundle{SubsidiaryID: 6, AccountingBook: 1},
		},
		{
			"consolidated suffix stripped",
			FilterInput{Subsidiary: "Holding Co (Consolidated)"},
			models.FilterBundle{SubsidiaryID: 5, AccountingBook: 1},
		},
		{
			"numeric ids",
			FilterInput{Subsidiary: "6", AccountingBook: "2"},
			models.FilterBundle{SubsidiaryID: 6, AccountingBook: 2},
		},
		{
			"unresolvable stays unset",
			FilterInput{Department: "No Such Dept"},
			models.FilterBundle{AccountingBook: 1},
		},
		{
			"empty input",
			FilterInput{},
			models.FilterBundle{AccountingBook: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.ResolveFilters(tt.in))
		})
	}
}

func TestResolveAgainstLadder(t *testing.T) {
	items := []models.LookupItem{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "beta"}}

	id, ok := resolveAgainst(items, "Alpha")
	require.True(t, ok)
	assert.EqualValues(t, 1, id)

	id, ok = resolveAgainst(items, "BETA")
	require.True(t, ok)
	assert.EqualValues(t, 2, id)

	id, ok = resolveAgainst(items, "Alpha (Consolidated)")
	require.True(t, ok)
	assert.EqualValues(t, 1, id)

	id, ok = resolveAgainst(items, "42")
	require.True(t, ok)
	assert.EqualValues(t, 42, id)

	_, ok = resolveAgainst(items, "")
	assert.False(t, ok)
	_, ok = resolveAgainst(items, "gamma")
	assert.False(t, ok)
}

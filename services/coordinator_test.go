package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"netsuite-gateway/models"
	"netsuite-gateway/netsuite"
)

// stubExecutor answers queries from a handler and records every statement
type stubExecutor struct {
	mu      sync.Mutex
	calls   []string
	handler func(sql string) ([]netsuite.Row, error)
}

func (s *stubExecutor) Query(ctx context.Context, sql string, opts ...netsuite.QueryOption) ([]netsuite.Row, error) {
	s.mu.Lock()
	s.calls = append(s.calls, sql)
	s.mu.Unlock()
	if s.handler != nil {
		return s.handler(sql)
	}
	return nil, nil
}

func (s *stubExecutor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubExecutor) callsMatching(substr string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sql := range s.calls {
		if strings.Contains(sql, substr) {
			n++
		}
	}
	return n
}

func metaRow(number, accttype string) netsuite.Row {
	return netsuite.Row{
		"id":         float64(1),
		"acctnumber": number,
		"fullname":   "Account " + number,
		"accttype":   accttype,
		"eliminate":  "F",
		"sspecacct":  "",
	}
}

// balanceHandler serves account metadata plus canned pivot rows
func balanceHandler(meta []netsuite.Row, pl, bs []netsuite.Row) func(sql string) ([]netsuite.Row, error) {
	return func(sql string) ([]netsuite.Row, error) {
		switch {
		case strings.Contains(sql, "LEFT JOIN account pa"):
			return meta, nil
		case strings.Contains(sql, "period_month"):
			return pl, nil
		default:
			return bs, nil
		}
	}
}

func newTestCoordinator(exec netsuite.Executor) *BalanceCoordinator {
	lookups := NewLookupService(exec)
	accounts := NewAccountService(exec)
	cache := NewCache(time.Minute)
	sem := semaphore.NewWeighted(3)
	return NewBalanceCoordinator(exec, accounts, lookups, cache, sem)
}

func TestBalancesCoversEveryRequestedCell(t *testing.T) {
	exec := &stubExecutor{handler: balanceHandler(
		[]netsuite.Row{metaRow("4220", "Income"), metaRow("1000", "Bank")},
		[]netsuite.Row{{"account_number": "4220", "account_type": "Income", "bal_2025_01": 150.0}},
		[]netsuite.Row{{"account_number": "1000", "account_type": "Bank", "bal_2025_01": 9000.0}},
	)}
	c := newTestCoordinator(exec)

	accounts := []string{"4220", "1000", "9999"}
	periods := []string{"Jan 2025"}
	result, err := c.Balances(context.Background(), accounts, periods, models.FilterBundle{}, false)
	require.NoError(t, err)

	// dom = A x P: every requested cell is present, including the account the
	// ERP does not know.
	for _, account := range accounts {
		for _, period := range periods {
			_, ok := result.Get(account, period)
			assert.True(t, ok, "cell %s/%s", account, period)
		}
	}
	v, _ := result.Get("4220", "Jan 2025")
	assert.Equal(t, 150.0, v)
	v, _ = result.Get("9999", "Jan 2025")
	assert.Zero(t, v)

	// One metadata resolution, one P&L pivot, one balance-sheet pivot.
	assert.Equal(t, 3, exec.callCount())
}

func TestBalancesEmptyRequestIssuesNoQueries(t *testing.T) {
	exec := &stubExecutor{}
	c := newTestCoordinator(exec)

	result, err := c.Balances(context.Background(), nil, []string{"Jan 2025"}, models.FilterBundle{}, false)
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.Zero(t, exec.callCount())
}

func TestSingleCellPLIssuesOneFullYearQuery(t *testing.T) {
	exec := &stubExecutor{handler: balanceHandler(
		[]netsuite.Row{metaRow("4220", "Income")},
		[]netsuite.Row{{"account_number": "4220", "account_type": "Income", "bal_2025_01": 10.0, "bal_2025_02": 20.0}},
		nil,
	)}
	c := newTestCoordinator(exec)

	v, err := c.SingleBalance(context.Background(), "4220", "Jan 2025", "Jan 2025", models.FilterBundle{})
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)

	// Exactly one balance query, the full-year pivot; no balance-sheet query
	// and no second fiscal year dragged in by prefetch widening.
	assert.Equal(t, 1, exec.callsMatching("period_month"))
	assert.Equal(t, 1, exec.callsMatching("TO_CHAR(ap.startdate, 'YYYY') = '2025'"))
	assert.Zero(t, exec.callsMatching("'2024'"))
	assert.Equal(t, 2, exec.callCount()) // metadata + pivot

	// The full-year pivot warmed the cell cache: another month of the same
	// year costs nothing.
	before := exec.callCount()
	v, err = c.SingleBalance(context.Background(), "4220", "Feb 2025", "Feb 2025", models.FilterBundle{})
	require.NoError(t, err)
	assert.Equal(t, 20.0, v)
	assert.Equal(t, before, exec.callCount())
}

func TestBalancesSplitsProfitLossByFiscalYear(t *testing.T) {
	exec := &stubExecutor{handler: balanceHandler(
		[]netsuite.Row{metaRow("4220", "Income")},
		[]netsuite.Row{{"account_number": "4220", "account_type": "Income"}},
		nil,
	)}
	c := newTestCoordinator(exec)

	_, err := c.Balances(context.Background(), []string{"4220"}, []string{"Dec 2024", "Jan 2025"}, models.FilterBundle{}, true)
	require.NoError(t, err)

	// Refresh forces the full-year pivot, one per fiscal year touched.
	assert.Equal(t, 1, exec.callsMatching("TO_CHAR(ap.startdate, 'YYYY') = '2024'"))
	assert.Equal(t, 1, exec.callsMatching("TO_CHAR(ap.startdate, 'YYYY') = '2025'"))
	assert.Equal(t, 3, exec.callCount())
}

func TestBalanceSheetSingleCellReportsLatestMonth(t *testing.T) {
	exec := &stubExecutor{handler: balanceHandler(
		[]netsuite.Row{metaRow("1000", "Bank")},
		nil,
		[]netsuite.Row{{"account_number": "1000", "account_type": "Bank", "bal_2025_01": 70.0, "bal_2025_03": 90.0}},
	)}
	c := newTestCoordinator(exec)

	// A balance-sheet account over a range answers with the cumulative balance
	// at the latest month, not the sum of months.
	v, err := c.SingleBalance(context.Background(), "1000", "Jan 2025", "Mar 2025", models.FilterBundle{})
	require.NoError(t, err)
	assert.Equal(t, 90.0, v)
}

func TestUnknownAccountResolvedOnce(t *testing.T) {
	exec := &stubExecutor{handler: balanceHandler(nil, nil, nil)}
	c := newTestCoordinator(exec)

	result, err := c.Balances(context.Background(), []string{"9999"}, []string{"Jan 2025"}, models.FilterBundle{}, false)
	require.NoError(t, err)
	v, ok := result.Get("9999", "Jan 2025")
	assert.True(t, ok)
	assert.Zero(t, v)
	assert.Equal(t, 1, exec.callCount()) // metadata only, nothing to fetch

	// The miss is remembered; a repeat costs no ERP round trip at all.
	_, err = c.Balances(context.Background(), []string{"9999"}, []string{"Jan 2025"}, models.FilterBundle{}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, exec.callCount())
}

func TestBalancesFailsWholeFanOut(t *testing.T) {
	exec := &stubExecutor{handler: func(sql string) ([]netsuite.Row, error) {
		if strings.Contains(sql, "LEFT JOIN account pa") {
			return []netsuite.Row{metaRow("4220", "Income"), metaRow("1000", "Bank")}, nil
		}
		if strings.Contains(sql, "period_month") {
			return nil, models.NewAppError(models.ErrBackend, "boom")
		}
		return []netsuite.Row{{"account_number": "1000", "account_type": "Bank"}}, nil
	}}
	c := newTestCoordinator(exec)

	_, err := c.Balances(context.Background(), []string{"4220", "1000"}, []string{"Jan 2025"}, models.FilterBundle{}, false)
	require.Error(t, err)
	assert.Equal(t, models.ErrBackend, models.KindOf(err))
}

func TestFullYearRefreshSecondCallServedFromCache(t *testing.T) {
	exec := &stubExecutor{handler: balanceHandler(
		nil,
		[]netsuite.Row{{"account_number": "4220", "account_type": "Income", "bal_2025_03": 33.0}},
		[]netsuite.Row{{"account_number": "1000", "account_type": "Bank", "bal_2025_03": 44.0}},
	)}
	c := newTestCoordinator(exec)
	f := models.FilterBundle{SubsidiaryID: 1}

	first, err := c.FullYearRefresh(context.Background(), 2025, false, f)
	require.NoError(t, err)
	queries := exec.callCount()
	assert.Equal(t, 2, queries) // one P&L pivot, one balance-sheet pivot

	second, err := c.FullYearRefresh(context.Background(), 2025, false, f)
	require.NoError(t, err)
	assert.Equal(t, queries, exec.callCount())
	assert.Equal(t, first, second)

	assert.Equal(t, "Income", first.AccountTypes["4220"])
	assert.Equal(t, "Bank", first.AccountTypes["1000"])
	v, _ := first.Balances.Get("4220", "Mar 2025")
	assert.Equal(t, 33.0, v)
}

func TestBSPeriodsPopulatesCellCache(t *testing.T) {
	exec := &stubExecutor{handler: balanceHandler(
		[]netsuite.Row{metaRow("1000", "Bank")},
		nil,
		[]netsuite.Row{{"account_number": "1000", "account_type": "Bank", "bal_2025_01": 11.0, "bal_2025_02": 22.0}},
	)}
	c := newTestCoordinator(exec)

	_, err := c.BSPeriods(context.Background(), []string{"Feb 2025", "Jan 2025"}, models.FilterBundle{})
	require.NoError(t, err)

	// The warmed cells serve single-cell requests; metadata resolution aside,
	// no new pivot is issued.
	v, err := c.SingleBalance(context.Background(), "1000", "Feb 2025", "Feb 2025", models.FilterBundle{})
	require.NoError(t, err)
	assert.Equal(t, 22.0, v)
	assert.Equal(t, 1, exec.callsMatching("p_2025_02"))
}

package services

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"netsuite-gateway/models"
	"netsuite-gateway/netsuite"
	"netsuite-gateway/sqlbuilder"
)

const (
	plQueryTimeout = 90 * time.Second
	bsQueryTimeout = 120 * time.Second

	// fullYearThreshold is the month count above which a fiscal year's P&L
	// request switches to the full-year pivot; the pivot costs barely more
	// than seven targeted months and warms the whole year.
	fullYearThreshold = 6
)

// BalanceCoordinator fans one client request into the minimum set of ERP
// queries: split by account class and fiscal year, expanded for prefetch,
// coalesced and cached per query, zero-filled per cell.
type BalanceCoordinator struct {
	exec     netsuite.Executor
	accounts *AccountService
	lookups  *LookupService
	cache    *Cache
	sem      *semaphore.Weighted
	log      *logrus.Entry
}

// NewBalanceCoordinator wires the coordinator. The semaphore caps concurrent
// outbound ERP queries process-wide and is shared with the equity engine.
func NewBalanceCoordinator(exec netsuite.Executor, accounts *AccountService, lookups *LookupService, cache *Cache, sem *semaphore.Weighted) *BalanceCoordinator {
	return &BalanceCoordinator{
		exec:     exec,
		accounts: accounts,
		lookups:  lookups,
		cache:    cache,
		sem:      sem,
		log:      logrus.WithField("component", "coordinator"),
	}
}

// Semaphore exposes the shared outbound-concurrency cap
func (c *BalanceCoordinator) Semaphore() *semaphore.Weighted { return c.sem }

// Executor exposes the underlying ERP executor for sibling services
func (c *BalanceCoordinator) Executor() netsuite.Executor { return c.exec }

// targetSubsidiary picks the consolidation target: the filter's subsidiary or
// the detected consolidation root.
func (c *BalanceCoordinator) targetSubsidiary(f models.FilterBundle) int64 {
	if f.SubsidiaryID > 0 {
		return f.SubsidiaryID
	}
	return c.lookups.ConsolidationRoot()
}

// cellKey is the per-cell cache key; prefetch populates these so later
// single-cell requests cost nothing.
func cellKey(account, period string, f models.FilterBundle) string {
	p := FilterKeyParams(f)
	p.Accounts = []string{account}
	p.Periods = []string{period}
	return CacheKey("balance", p)
}

// balanceQuery is one planned ERP round trip
type balanceQuery struct {
	key      string
	accounts []string
	periods  []string
	timeout  time.Duration
	build    func() (string, error)
}

// Balances produces the requested account x period grid. Every requested cell
// is present in the result; a cell the ERP returned no row for is an explicit
// zero. Any single query failure fails the whole fan-out.
func (c *BalanceCoordinator) Balances(ctx context.Context, accounts, periods []string, f models.FilterBundle, refresh bool) (models.BalanceResult, error) {
	result := make(models.BalanceResult)
	if len(accounts) == 0 || len(periods) == 0 {
		return result, nil
	}

	// Serve what the cell cache already has.
	missingAccounts := make(map[string]bool)
	missingPeriods := make(map[string]bool)
	for _, account := range accounts {
		for _, period := range periods {
			if v, ok := c.cache.Get(cellKey(account, period, f)); ok {
				result.Set(account, period, v.(float64))
			} else {
				missingAccounts[account] = true
				missingPeriods[period] = true
			}
		}
	}
	if len(missingAccounts) == 0 {
		return result, nil
	}

	qAccounts := sortedKeys(missingAccounts)
	qPeriods := sortedPeriods(missingPeriods)

	merged, err := c.fetch(ctx, qAccounts, qPeriods, f, refresh)
	if err != nil {
		return nil, err
	}

	// Prefetch may have widened the fetch; shape back to the request.
	for account, row := range merged.Shaped(accounts, periods) {
		for period, v := range row {
			if _, ok := result.Get(account, period); !ok {
				result.Set(account, period, v)
			}
		}
	}
	return result, nil
}

// fetch plans and runs the ERP queries for the given accounts and periods,
// returning the merged, zero-filled, cache-populated superset.
func (c *BalanceCoordinator) fetch(ctx context.Context, qAccounts, qPeriods []string, f models.FilterBundle, refresh bool) (models.BalanceResult, error) {
	meta, err := c.accounts.Resolve(ctx, qAccounts)
	if err != nil {
		return nil, err
	}
	var plAccounts, bsAccounts []string
	for _, account := range qAccounts {
		acct, ok := meta[account]
		if !ok {
			continue // unknown to the ERP; zero-fill covers it
		}
		switch {
		case models.IsProfitLossType(acct.Type):
			plAccounts = append(plAccounts, account)
		case models.IsBalanceSheetType(acct.Type):
			bsAccounts = append(bsAccounts, account)
		}
	}

	// Smart prefetch: a single-month request outside refresh mode widens to
	// the surrounding months; the response is still shaped to the original.
	prefetch := len(qPeriods) == 1 && !refresh
	expanded := qPeriods
	if prefetch {
		expanded = surroundingMonths(qPeriods[0])
	}

	target := c.targetSubsidiary(f)
	queries, err := c.plan(plAccounts, bsAccounts, qPeriods, expanded, f, target, refresh, prefetch)
	if err != nil {
		return nil, err
	}

	merged := make(models.BalanceResult)
	if len(queries) == 0 {
		merged.ZeroFill(qAccounts, qPeriods)
		c.populateCells(merged, f)
		return merged, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	partials := make([]models.BalanceResult, len(queries))
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			part, err := c.runQuery(gctx, q, f)
			if err != nil {
				return err
			}
			partials[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, part := range partials {
		merged.Merge(part)
	}
	merged.ZeroFill(qAccounts, qPeriods)
	c.populateCells(merged, f)
	return merged, nil
}

// plan builds the minimal query set: P&L split per fiscal year with the
// full-year pivot when it pays off, one cumulative balance-sheet pivot.
func (c *BalanceCoordinator) plan(plAccounts, bsAccounts, requested, expanded []string, f models.FilterBundle, target int64, refresh, prefetch bool) ([]balanceQuery, error) {
	var queries []balanceQuery

	if len(plAccounts) > 0 {
		// The P&L path expands to whole fiscal years instead of the ±1
		// month widening; grouping the widened set would drag a second
		// year (and a second pivot) into a single-cell request.
		byYear, err := models.GroupPeriodsByYear(requested)
		if err != nil {
			return nil, err
		}
		years := make([]int, 0, len(byYear))
		for year := range byYear {
			years = append(years, year)
		}
		sort.Ints(years)
		for _, year := range years {
			year := year
			yearPeriods := byYear[year]
			fullYear := refresh || prefetch || len(yearPeriods) > fullYearThreshold
			queryPeriods := yearPeriods
			if fullYear {
				queryPeriods = models.MonthsOfYear(year)
			}
			params := FilterKeyParams(f)
			params.Accounts = plAccounts
			params.Periods = queryPeriods
			params.Extra = "pl"
			q := balanceQuery{
				key:      CacheKey("balance", params),
				accounts: plAccounts,
				periods:  queryPeriods,
				timeout:  plQueryTimeout,
			}
			if fullYear {
				q.build = func() (string, error) { return sqlbuilder.PLFullYear(year, plAccounts, f, target) }
			} else {
				q.build = func() (string, error) { return sqlbuilder.PLMonths(yearPeriods, plAccounts, f, target) }
			}
			queries = append(queries, q)
		}
	}

	if len(bsAccounts) > 0 {
		// No expansion to a full year here: every extra month-end column
		// costs another cumulative scan.
		bsPeriods := expanded
		params := FilterKeyParams(f)
		params.Accounts = bsAccounts
		params.Periods = bsPeriods
		params.Extra = "bs"
		queries = append(queries, balanceQuery{
			key:      CacheKey("balance", params),
			accounts: bsAccounts,
			periods:  bsPeriods,
			timeout:  bsQueryTimeout,
			build:    func() (string, error) { return sqlbuilder.BalanceSheetPeriods(bsPeriods, bsAccounts, f, target) },
		})
	}
	return queries, nil
}

// runQuery executes one planned query under the concurrency cap, coalescing
// concurrent identical work through the cache.
func (c *BalanceCoordinator) runQuery(ctx context.Context, q balanceQuery, f models.FilterBundle) (models.BalanceResult, error) {
	v, err := c.cache.Do(ctx, q.key, func(ctx context.Context) (interface{}, error) {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, models.WrapError(models.ErrTimeout, err, "cancelled waiting for query slot")
		}
		defer c.sem.Release(1)

		sql, err := q.build()
		if err != nil {
			return nil, err
		}
		started := time.Now()
		rows, err := c.exec.Query(ctx, sql, netsuite.WithTimeout(q.timeout))
		if err != nil {
			return nil, err
		}
		c.log.WithFields(logrus.Fields{
			"accounts":    len(q.accounts),
			"periods":     len(q.periods),
			"rows":        len(rows),
			"duration_ms": time.Since(started).Milliseconds(),
		}).Debug("balance query complete")

		part, err := parsePivotRows(rows, q.periods)
		if err != nil {
			return nil, err
		}
		part.ZeroFill(q.accounts, q.periods)
		return part, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(models.BalanceResult), nil
}

// populateCells writes every produced cell into the cell cache under its own
// key, so prefetch-expanded supersets serve later requests directly.
func (c *BalanceCoordinator) populateCells(result models.BalanceResult, f models.FilterBundle) {
	for account, row := range result {
		for period, amount := range row {
			c.cache.Put(cellKey(account, period, f), amount)
		}
	}
}

// parsePivotRows maps pivot-column rows into a BalanceResult
func parsePivotRows(rows []netsuite.Row, periods []string) (models.BalanceResult, error) {
	out := make(models.BalanceResult)
	cols := make(map[string]string, len(periods)) // column name -> period
	for _, period := range periods {
		suffix, err := models.PeriodColumnSuffix(period)
		if err != nil {
			return nil, err
		}
		cols["bal_"+suffix] = period
	}
	for _, row := range rows {
		account := models.NormalizeAccountNumber(row.String("account_number"))
		if account == "" {
			continue
		}
		for col, period := range cols {
			out.Set(account, period, row.Float(col))
		}
	}
	return out, nil
}

// surroundingMonths widens a single month to itself plus its neighbors
func surroundingMonths(period string) []string {
	t, err := models.PeriodStart(period)
	if err != nil {
		return []string{period}
	}
	return []string{
		t.AddDate(0, -1, 0).Format(models.PeriodLayout),
		period,
		t.AddDate(0, 1, 0).Format(models.PeriodLayout),
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedPeriods(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	models.SortPeriods(out)
	return out
}

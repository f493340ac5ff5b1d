package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"netsuite-gateway/models"
	"netsuite-gateway/netsuite"
	"netsuite-gateway/sqlbuilder"
)

// SingleBalance answers the add-in's BALANCE(account, from, to) cell. P&L
// accounts sum activity across the range; balance-sheet accounts report the
// cumulative balance at the latest month of the range.
func (c *BalanceCoordinator) SingleBalance(ctx context.Context, account, from, to string, f models.FilterBundle) (float64, error) {
	periods, err := models.PeriodRange(from, to)
	if err != nil {
		return 0, err
	}
	balances, err := c.Balances(ctx, []string{account}, periods, f, false)
	if err != nil {
		return 0, err
	}

	meta, err := c.accounts.Resolve(ctx, []string{account})
	if err != nil {
		return 0, err
	}
	if acct, ok := meta[account]; ok && models.IsBalanceSheetType(acct.Type) {
		latest, err := models.LatestPeriod(periods)
		if err != nil {
			return 0, err
		}
		v, _ := balances.Get(account, latest)
		return v, nil
	}

	var sum float64
	for _, period := range periods {
		v, _ := balances.Get(account, period)
		sum += v
	}
	return sum, nil
}

// RefreshResult is the payload of a full-year refresh
type RefreshResult struct {
	Balances     models.BalanceResult `json:"balances"`
	AccountTypes map[string]string    `json:"account_types"`
}

// FullYearRefresh warms an entire fiscal year in one P&L pivot (plus one
// balance-sheet pivot unless skipped), returning every account the ERP knows
// activity for. Identical calls within the TTL share the cached payload.
func (c *BalanceCoordinator) FullYearRefresh(ctx context.Context, year int, skipBS bool, f models.FilterBundle) (*RefreshResult, error) {
	params := FilterKeyParams(f)
	params.Periods = models.MonthsOfYear(year)
	if skipBS {
		params.Extra = "skip_bs"
	}
	key := CacheKey("full_year_refresh", params)

	v, err := c.cache.Do(ctx, key, func(ctx context.Context) (interface{}, error) {
		target := c.targetSubsidiary(f)
		months := models.MonthsOfYear(year)

		type pivotOut struct {
			balances models.BalanceResult
			types    map[string]string
		}
		g, gctx := errgroup.WithContext(ctx)
		runPivot := func(build func() (string, error), timeout time.Duration) (*pivotOut, error) {
			if err := c.sem.Acquire(gctx, 1); err != nil {
				return nil, models.WrapError(models.ErrTimeout, err, "cancelled waiting for query slot")
			}
			defer c.sem.Release(1)
			sql, err := build()
			if err != nil {
				return nil, err
			}
			rows, err := c.exec.Query(gctx, sql, netsuite.WithTimeout(timeout))
			if err != nil {
				return nil, err
			}
			balances, types, err := parsePivotRowsWithTypes(rows, months)
			if err != nil {
				return nil, err
			}
			return &pivotOut{balances: balances, types: types}, nil
		}

		var pl, bs *pivotOut
		g.Go(func() error {
			out, err := runPivot(func() (string, error) {
				return sqlbuilder.PLFullYear(year, nil, f, target)
			}, plQueryTimeout)
			if err != nil {
				return err
			}
			pl = out
			return nil
		})
		if !skipBS {
			g.Go(func() error {
				out, err := runPivot(func() (string, error) {
					return sqlbuilder.BalanceSheetPeriods(months, nil, f, target)
				}, bsQueryTimeout)
				if err != nil {
					return err
				}
				bs = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		out := &RefreshResult{
			Balances:     make(models.BalanceResult),
			AccountTypes: make(map[string]string),
		}
		for _, part := range []*pivotOut{pl, bs} {
			if part == nil {
				continue
			}
			out.Balances.Merge(part.balances)
			for account, accttype := range part.types {
				out.AccountTypes[account] = accttype
			}
		}
		c.populateCells(out.Balances, f)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*RefreshResult), nil
}

// BSPeriods warms the balance sheet for an explicit list of month-ends across
// all balance-sheet accounts. Columns key by exact period name regardless of
// the input order.
func (c *BalanceCoordinator) BSPeriods(ctx context.Context, periods []string, f models.FilterBundle) (models.BalanceResult, error) {
	if len(periods) == 0 {
		return make(models.BalanceResult), nil
	}
	sorted := make([]string, len(periods))
	copy(sorted, periods)
	models.SortPeriods(sorted)

	params := FilterKeyParams(f)
	params.Periods = sorted
	key := CacheKey("bs_periods", params)

	v, err := c.cache.Do(ctx, key, func(ctx context.Context) (interface{}, error) {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, models.WrapError(models.ErrTimeout, err, "cancelled waiting for query slot")
		}
		defer c.sem.Release(1)

		target := c.targetSubsidiary(f)
		sql, err := sqlbuilder.BalanceSheetPeriods(sorted, nil, f, target)
		if err != nil {
			return nil, err
		}
		rows, err := c.exec.Query(ctx, sql, netsuite.WithTimeout(bsQueryTimeout))
		if err != nil {
			return nil, err
		}
		balances, err := parsePivotRows(rows, sorted)
		if err != nil {
			return nil, err
		}
		c.populateCells(balances, f)
		return balances, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(models.BalanceResult), nil
}

// SingleBudget answers the add-in's BUDGET(account, from, to) cell by summing
// budget amounts across the period range.
func (c *BalanceCoordinator) SingleBudget(ctx context.Context, account, from, to string, f models.FilterBundle) (float64, error) {
	periods, err := models.PeriodRange(from, to)
	if err != nil {
		return 0, err
	}

	params := FilterKeyParams(f)
	params.Accounts = []string{account}
	params.Periods = periods
	key := CacheKey("budget", params)

	v, err := c.cache.Do(ctx, key, func(ctx context.Context) (interface{}, error) {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, models.WrapError(models.ErrTimeout, err, "cancelled waiting for query slot")
		}
		defer c.sem.Release(1)

		sql, err := sqlbuilder.Budget([]string{account}, periods, f)
		if err != nil {
			return nil, err
		}
		rows, err := c.exec.Query(ctx, sql)
		if err != nil {
			return nil, err
		}
		var sum float64
		for _, row := range rows {
			sum += row.Float("amount")
		}
		return sum, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// parsePivotRowsWithTypes also captures the account_type column
func parsePivotRowsWithTypes(rows []netsuite.Row, periods []string) (models.BalanceResult, map[string]string, error) {
	balances, err := parsePivotRows(rows, periods)
	if err != nil {
		return nil, nil, err
	}
	types := make(map[string]string, len(rows))
	for _, row := range rows {
		account := models.NormalizeAccountNumber(row.String("account_number"))
		if account == "" {
			continue
		}
		if accttype := row.String("account_type"); accttype != "" {
			types[account] = accttype
		}
	}
	return balances, types, nil
}

package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"netsuite-gateway/models"
	"netsuite-gateway/netsuite"
	"netsuite-gateway/sqlbuilder"
)

const (
	equityOuterTimeout = 300 * time.Second
	equitySubTimeout   = 120 * time.Second
)

// EquityService computes the synthesized equity quantities the ERP never
// posts: retained earnings, net income, and the translation-adjustment plug.
// Each sub-amount is cached and coalesced individually, so a cold CTA issues
// up to five ERP queries and a warm one issues none.
type EquityService struct {
	exec    netsuite.Executor
	lookups *LookupService
	cache   *Cache
	sem     *semaphore.Weighted
	log     *logrus.Entry

	// reNamePattern identifies manual retained-earnings journals by account
	// name substring; tenant-configurable because chart naming varies.
	reNamePattern string
}

// NewEquityService wires the derived-equity engine
func NewEquityService(exec netsuite.Executor, lookups *LookupService, cache *Cache, sem *semaphore.Weighted, reNamePattern string) *EquityService {
	if reNamePattern == "" {
		reNamePattern = "retained earnings"
	}
	return &EquityService{
		exec:          exec,
		lookups:       lookups,
		cache:         cache,
		sem:           sem,
		log:           logrus.WithField("component", "equity"),
		reNamePattern: reNamePattern,
	}
}

func (s *EquityService) target(f models.FilterBundle) int64 {
	if f.SubsidiaryID > 0 {
		return f.SubsidiaryID
	}
	return s.lookups.ConsolidationRoot()
}

// sum runs one single-amount sub-query under the shared concurrency cap,
// cached and coalesced by operation tag.
func (s *EquityService) sum(ctx context.Context, op, period string, f models.FilterBundle, build func(target int64) (string, error)) (decimal.Decimal, error) {
	params := FilterKeyParams(f)
	params.Periods = []string{period}
	key := CacheKey(op, params)

	v, err := s.cache.Do(ctx, key, func(ctx context.Context) (interface{}, error) {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return nil, models.WrapError(models.ErrTimeout, err, "cancelled waiting for query slot")
		}
		defer s.sem.Release(1)

		sql, err := build(s.target(f))
		if err != nil {
			return nil, err
		}
		started := time.Now()
		rows, err := s.exec.Query(ctx, sql, netsuite.WithTimeout(equitySubTimeout))
		if err != nil {
			return nil, err
		}
		var amount float64
		if len(rows) > 0 {
			amount = rows[0].Float("amount")
		}
		s.log.WithFields(logrus.Fields{
			"op":          op,
			"period":      period,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Debug("equity sub-query complete")
		return amount, nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(v.(float64)), nil
}

// RetainedEarnings is the P&L roll-forward through the prior fiscal year end
// plus journals posted directly to retained-earnings accounts.
func (s *EquityService) RetainedEarnings(ctx context.Context, period string, f models.FilterBundle) (float64, error) {
	d, err := s.retainedEarnings(ctx, period, f)
	if err != nil {
		return 0, err
	}
	v, _ := d.Float64()
	return v, nil
}

func (s *EquityService) retainedEarnings(ctx context.Context, period string, f models.FilterBundle) (decimal.Decimal, error) {
	return s.sum(ctx, "retained_earnings", period, f, func(target int64) (string, error) {
		return sqlbuilder.RetainedEarnings(period, s.reNamePattern, f, target)
	})
}

// NetIncome sums P&L activity from fiscal-year start through the target month
func (s *EquityService) NetIncome(ctx context.Context, period string, f models.FilterBundle) (float64, error) {
	d, err := s.netIncome(ctx, period, f)
	if err != nil {
		return 0, err
	}
	v, _ := d.Float64()
	return v, nil
}

func (s *EquityService) netIncome(ctx context.Context, period string, f models.FilterBundle) (decimal.Decimal, error) {
	return s.sum(ctx, "net_income", period, f, func(target int64) (string, error) {
		return sqlbuilder.NetIncome(period, f, target)
	})
}

// CTA computes the cumulative translation adjustment by the plug method:
// the residual that makes the balance sheet balance. Translation the ERP
// computes at report time is never posted anywhere, so no summing of posted
// entries can reproduce it.
func (s *EquityService) CTA(ctx context.Context, period string, f models.FilterBundle) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, equityOuterTimeout)
	defer cancel()

	assets, err := s.sum(ctx, "cta_assets", period, f, func(target int64) (string, error) {
		return sqlbuilder.AssetsCumulative(period, f, target)
	})
	if err != nil {
		return 0, err
	}
	liabilities, err := s.sum(ctx, "cta_liabilities", period, f, func(target int64) (string, error) {
		return sqlbuilder.LiabilitiesCumulative(period, f, target)
	})
	if err != nil {
		return 0, err
	}
	postedEquity, err := s.sum(ctx, "cta_posted_equity", period, f, func(target int64) (string, error) {
		return sqlbuilder.PostedEquity(period, f, target)
	})
	if err != nil {
		return 0, err
	}
	re, err := s.retainedEarnings(ctx, period, f)
	if err != nil {
		return 0, err
	}
	ni, err := s.netIncome(ctx, period, f)
	if err != nil {
		return 0, err
	}

	cta := assets.Sub(liabilities).Sub(postedEquity).Sub(re).Sub(ni)
	v, _ := cta.Round(2).Float64()
	return v, nil
}

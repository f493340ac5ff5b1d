package sqlbuilder

import (
	"fmt"
	"strings"

	"netsuite-gateway/models"
)

// EquityNameExclusions are the full-name substrings that identify synthesized
// equity accounts. Posted equity must exclude them or the CTA plug would count
// retained earnings and translation balances twice.
var EquityNameExclusions = []string{
	"retained earnings",
	"translation",
	"cta",
	"net income",
	"cumulative translation",
}

// derivedSum builds the single-amount roll-up every derived-equity sub-query
// shares: per-line consolidation at one rate period, both sign flips, and the
// elimination accounts excluded.
func derivedSum(types []string, rateMonthKey string, conds []string, f models.FilterBundle, target int64) string {
	all := baseConditions(f)
	all = append(all, excludeEliminationCondition)
	all = append(all, fmt.Sprintf("a.accttype IN (%s)", quoteList(types)))
	all = append(all, conds...)

	return fmt.Sprintf(`SELECT
  SUM(%s * %s * %s) AS amount
%s
%s
%s
%s`,
		consolidatedAmount("tal.amount", target, "rp.id"),
		typeSignFlip("a.accttype"),
		matchingSignFlip("a.sspecacct"),
		baseJoins,
		ratePeriodJoin("rp", rateMonthKey),
		subsidiaryCountJoin,
		whereClause(all))
}

// RetainedEarnings sums all P&L activity through the end of the prior fiscal
// year and unions in journal entries posted directly to retained-earnings
// accounts over the same window, as one statement. Both halves translate at
// the prior year's closing month rate. The name substring is a tenant
// configuration point; "retained earnings" is the default.
func RetainedEarnings(period, namePattern string, f models.FilterBundle, target int64) (string, error) {
	priorEnd, err := models.PriorYearEnd(period)
	if err != nil {
		return "", err
	}
	escaped, err := EscapeString(strings.ToLower(namePattern))
	if err != nil {
		return "", err
	}
	rateKey := priorEnd.Format("2006-01")
	bound := fmt.Sprintf("ap.enddate <= %s", dateLiteral(models.SQLDate(priorEnd)))

	roll := derivedSum(models.ProfitLossTypes(), rateKey, []string{bound}, f, target)
	manual := derivedSum([]string{"RetainedEarnings"}, rateKey, []string{
		bound,
		"t.type = 'Journal'",
		fmt.Sprintf("LOWER(a.fullname) LIKE '%%%s%%'", escaped),
	}, f, target)

	return fmt.Sprintf(`SELECT SUM(amount) AS amount
FROM (
%s
UNION ALL
%s
)`, roll, manual), nil
}

// NetIncome sums P&L activity from the fiscal year start through the target
// month, translated at the target month's rate.
func NetIncome(period string, f models.FilterBundle, target int64) (string, error) {
	fyStart, err := models.FiscalYearStart(period)
	if err != nil {
		return "", err
	}
	monthEnd, err := models.PeriodEndDate(period)
	if err != nil {
		return "", err
	}
	rateKey, err := models.PeriodMonthKey(period)
	if err != nil {
		return "", err
	}
	conds := []string{
		fmt.Sprintf("ap.startdate >= %s", dateLiteral(models.SQLDate(fyStart))),
		fmt.Sprintf("ap.enddate <= %s", dateLiteral(models.SQLDate(monthEnd))),
	}
	return derivedSum(models.ProfitLossTypes(), rateKey, conds, f, target), nil
}

// AssetsCumulative sums balance-sheet assets through the target month
func AssetsCumulative(period string, f models.FilterBundle, target int64) (string, error) {
	return cumulativeThrough(period, models.AssetTypes(), nil, f, target)
}

// LiabilitiesCumulative sums balance-sheet liabilities through the target
// month; the type flip makes the credit balance read positive.
func LiabilitiesCumulative(period string, f models.FilterBundle, target int64) (string, error) {
	return cumulativeThrough(period, models.LiabilityTypes(), nil, f, target)
}

// PostedEquity sums ordinary posted equity through the target month,
// excluding every account whose full name marks it as synthesized.
func PostedEquity(period string, f models.FilterBundle, target int64) (string, error) {
	var conds []string
	for _, pattern := range EquityNameExclusions {
		escaped, err := EscapeString(pattern)
		if err != nil {
			return "", err
		}
		conds = append(conds, fmt.Sprintf("LOWER(a.fullname) NOT LIKE '%%%s%%'", escaped))
	}
	return cumulativeThrough(period, []string{"Equity"}, conds, f, target)
}

func cumulativeThrough(period string, types []string, extra []string, f models.FilterBundle, target int64) (string, error) {
	monthEnd, err := models.PeriodEndDate(period)
	if err != nil {
		return "", err
	}
	rateKey, err := models.PeriodMonthKey(period)
	if err != nil {
		return "", err
	}
	conds := []string{fmt.Sprintf("ap.enddate <= %s", dateLiteral(models.SQLDate(monthEnd)))}
	conds = append(conds, extra...)
	return derivedSum(types, rateKey, conds, f, target), nil
}

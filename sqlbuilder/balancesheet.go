package sqlbuilder

import (
	"fmt"
	"strings"

	"netsuite-gateway/models"
)

// BalanceSheetPeriods builds the cumulative multi-period balance-sheet pivot.
// Each target month gets its own rate-period alias so every historical line is
// translated at that month's rate, which is what makes the sheet balance.
// The outer cumulative bound uses the chronologically latest requested month;
// using the last listed month instead silently truncates the larger ones.
func BalanceSheetPeriods(periods []string, accounts []string, f models.FilterBundle, target int64) (string, error) {
	if len(periods) == 0 {
		return "", models.NewAppError(models.ErrValidation, "no periods for balance-sheet query")
	}
	normalized := make([]string, len(periods))
	copy(normalized, periods)
	models.SortPeriods(normalized)

	latest, err := models.LatestPeriod(normalized)
	if err != nil {
		return "", err
	}
	latestEnd, err := models.PeriodEndDate(latest)
	if err != nil {
		return "", err
	}

	var (
		pivots []string
		joins  []string
	)
	for _, period := range normalized {
		suffix, err := models.PeriodColumnSuffix(period)
		if err != nil {
			return "", err
		}
		monthKey, err := models.PeriodMonthKey(period)
		if err != nil {
			return "", err
		}
		alias := "p_" + suffix
		joins = append(joins, ratePeriodJoin(alias, monthKey))
		pivots = append(pivots, fmt.Sprintf(
			"  SUM(CASE WHEN ap.startdate <= %s.enddate THEN %s ELSE 0 END) * %s * %s AS bal_%s",
			alias,
			consolidatedAmount("tal.amount", target, alias+".id"),
			typeSignFlip("a.accttype"),
			matchingSignFlip("a.sspecacct"),
			suffix))
	}

	conds := baseConditions(f)
	conds = append(conds, fmt.Sprintf("a.accttype IN (%s)", quoteList(balanceSheetTypes())))
	conds = append(conds, fmt.Sprintf("ap.enddate <= %s", dateLiteral(models.SQLDate(latestEnd))))
	if acctCond, err := accountNumberCondition(accounts); err != nil {
		return "", err
	} else if acctCond != "" {
		conds = append(conds, acctCond)
	}

	sql := fmt.Sprintf(`SELECT
  a.acctnumber AS account_number,
  a.accttype AS account_type,
%s
%s
%s
%s
%s
GROUP BY a.acctnumber, a.accttype, a.sspecacct
ORDER BY a.acctnumber`,
		strings.Join(pivots, ",\n"),
		baseJoins,
		strings.Join(joins, "\n"),
		subsidiaryCountJoin,
		whereClause(conds))
	return sql, nil
}

func balanceSheetTypes() []string {
	types := models.AssetTypes()
	types = append(types, models.LiabilityTypes()...)
	types = append(types, models.EquityTypes()...)
	return types
}

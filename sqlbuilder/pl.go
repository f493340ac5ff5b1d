package sqlbuilder

import (
	"fmt"
	"strings"

	"netsuite-gateway/models"
)

// PLFullYear builds the hot-path income-statement pivot: twelve monthly
// columns for every P&L account of one fiscal year. The consolidation builtin
// runs in the inner subquery, once per raw line rather than once per group;
// on large tenants that is a 10-20x difference.
func PLFullYear(year int, accounts []string, f models.FilterBundle, target int64) (string, error) {
	periodCond := fmt.Sprintf("TO_CHAR(ap.startdate, 'YYYY') = %s", Str(fmt.Sprintf("%d", year)).SQL())
	return plPivot(models.MonthsOfYear(year), periodCond, accounts, f, target)
}

// PLMonths builds a targeted income-statement pivot over just the requested
// months, used when a full-year prefetch is not worth the extra rows.
func PLMonths(periods []string, accounts []string, f models.FilterBundle, target int64) (string, error) {
	if len(periods) == 0 {
		return "", models.NewAppError(models.ErrValidation, "no periods for P&L query")
	}
	normalized := make([]string, len(periods))
	copy(normalized, periods)
	models.SortPeriods(normalized)
	periodCond := fmt.Sprintf("ap.periodname IN (%s)", quoteList(normalized))
	return plPivot(normalized, periodCond, accounts, f, target)
}

func plPivot(periods []string, periodCond string, accounts []string, f models.FilterBundle, target int64) (string, error) {
	pivots := make([]string, 0, len(periods))
	for _, period := range periods {
		suffix, err := models.PeriodColumnSuffix(period)
		if err != nil {
			return "", err
		}
		monthKey, err := models.PeriodMonthKey(period)
		if err != nil {
			return "", err
		}
		pivots = append(pivots, fmt.Sprintf(
			"  SUM(CASE WHEN x.period_month = %s THEN x.amt ELSE 0 END) * %s * %s AS bal_%s",
			Str(monthKey).SQL(),
			typeSignFlip("x.accttype"),
			matchingSignFlip("x.sspecacct"),
			suffix))
	}

	conds := baseConditions(f)
	conds = append(conds, fmt.Sprintf("a.accttype IN (%s)", quoteList(models.ProfitLossTypes())))
	conds = append(conds, periodCond)
	if acctCond, err := accountNumberCondition(accounts); err != nil {
		return "", err
	} else if acctCond != "" {
		conds = append(conds, acctCond)
	}

	inner := fmt.Sprintf(`SELECT
    a.acctnumber,
    a.accttype,
    a.sspecacct,
    TO_CHAR(ap.startdate, 'YYYY-MM') AS period_month,
    %s AS amt
  %s
  %s
  %s`,
		consolidatedAmount("tal.amount", target, "t.postingperiod"),
		baseJoins,
		subsidiaryCountJoin,
		whereClause(conds))

	sql := fmt.Sprintf(`SELECT
  x.acctnumber AS account_number,
  x.accttype AS account_type,
%s
FROM (
  %s
) x
GROUP BY x.acctnumber, x.accttype, x.sspecacct
ORDER BY x.acctnumber`,
		strings.Join(pivots, ",\n"),
		inner)
	return sql, nil
}

package sqlbuilder

import (
	"fmt"
	"strings"

	"netsuite-gateway/models"
)

// AccountMeta resolves number, name, type, parent, elimination flag and
// special tag for a set of account numbers in one round trip.
func AccountMeta(accounts []string) (string, error) {
	if len(accounts) == 0 {
		return "", models.NewAppError(models.ErrValidation, "no accounts to resolve")
	}
	for _, acct := range accounts {
		if _, err := EscapeString(acct); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf(`SELECT
  a.id,
  a.acctnumber,
  a.fullname,
  a.accttype,
  a.eliminate,
  a.sspecacct,
  pa.acctnumber AS parentnumber
FROM account a
LEFT JOIN account pa ON pa.id = a.parent
WHERE a.acctnumber IN (%s)
ORDER BY a.acctnumber`, quoteList(accounts)), nil
}

// AccountSearch finds accounts by number or name pattern. A '*' in the input
// converts to SQL '%' with the remainder left literal; without one, '%' and
// '_' are escaped so they match themselves.
func AccountSearch(pattern string, activeOnly bool) (string, error) {
	escaped, err := EscapeString(pattern)
	if err != nil {
		return "", err
	}
	// A literal backslash is the ESCAPE character; double it first.
	escaped = strings.ReplaceAll(escaped, `\`, `\\`)
	var like string
	if strings.Contains(escaped, "*") {
		like = strings.ReplaceAll(escaped, "*", "%")
	} else {
		like = strings.ReplaceAll(escaped, "%", `\%`)
		like = strings.ReplaceAll(like, "_", `\_`)
		like = "%" + like + "%"
	}

	conds := []string{fmt.Sprintf("(a.acctnumber LIKE '%s' ESCAPE '\\' OR UPPER(a.fullname) LIKE UPPER('%s') ESCAPE '\\')", like, like)}
	if activeOnly {
		conds = append(conds, "a.isinactive = 'F'")
	}
	return fmt.Sprintf(`SELECT
  a.id,
  a.acctnumber,
  a.fullname AS accountname,
  a.accttype
FROM account a
%s
ORDER BY a.acctnumber`, whereClause(conds)), nil
}

// Budget sums budget amounts per account and period from the legacy budget
// machine, the only budget store SuiteQL exposes.
func Budget(accounts, periods []string, f models.FilterBundle) (string, error) {
	if len(periods) == 0 {
		return "", models.NewAppError(models.ErrValidation, "no periods for budget query")
	}
	for _, acct := range accounts {
		if _, err := EscapeString(acct); err != nil {
			return "", err
		}
	}
	normalized := make([]string, len(periods))
	copy(normalized, periods)
	models.SortPeriods(normalized)

	conds := []string{
		fmt.Sprintf("bp.periodname IN (%s)", quoteList(normalized)),
		monthlyPeriodOnly("bp"),
	}
	if len(accounts) > 0 {
		conds = append(conds, fmt.Sprintf("a.acctnumber IN (%s)", quoteList(accounts)))
	}
	if f.SubsidiaryID > 0 {
		conds = append(conds, fmt.Sprintf("b.subsidiary = %s", Int(f.SubsidiaryID).SQL()))
	}
	if f.ClassID > 0 {
		conds = append(conds, fmt.Sprintf("b.class = %s", Int(f.ClassID).SQL()))
	}
	if f.DepartmentID > 0 {
		conds = append(conds, fmt.Sprintf("b.department = %s", Int(f.DepartmentID).SQL()))
	}
	if f.LocationID > 0 {
		conds = append(conds, fmt.Sprintf("b.location = %s", Int(f.LocationID).SQL()))
	}

	return fmt.Sprintf(`SELECT
  a.acctnumber AS account_number,
  bp.periodname AS period_name,
  SUM(TO_NUMBER(b.amount)) AS amount
FROM budgetlegacy b
JOIN account a ON a.id = b.account
JOIN accountingperiod bp ON bp.id = b.period
%s
GROUP BY a.acctnumber, bp.periodname
ORDER BY a.acctnumber`, whereClause(conds)), nil
}

// Transactions builds the drill-down listing for one account and period
func Transactions(account, period string, f models.FilterBundle) (string, error) {
	if _, err := EscapeString(account); err != nil {
		return "", err
	}
	conds := []string{
		"t.posting = 'T'",
		"tal.posting = 'T'",
		fmt.Sprintf("tal.accountingbook = %s", Int(f.Book()).SQL()),
		monthlyPeriodOnly("ap"),
		fmt.Sprintf("a.acctnumber = %s", Str(account).SQL()),
		fmt.Sprintf("ap.periodname = %s", Str(period).SQL()),
	}
	conds = append(conds, segmentConditions(f)...)

	return fmt.Sprintf(`SELECT
  t.id AS transaction_id,
  t.trandate AS transaction_date,
  t.type AS transaction_type,
  t.tranid AS transaction_number,
  BUILTIN.DF(t.entity) AS entity_name,
  t.memo AS memo,
  CASE WHEN tal.amount > 0 THEN tal.amount ELSE 0 END AS debit,
  CASE WHEN tal.amount < 0 THEN -tal.amount ELSE 0 END AS credit,
  tal.amount AS net_amount,
  a.acctnumber AS account_number
%s
%s
ORDER BY t.trandate, t.id`, baseJoins, whereClause(conds)), nil
}

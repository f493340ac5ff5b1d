// Package sqlbuilder composes parameter-free SuiteQL statements tuned to the
// ERP's analytical dialect. Common table expressions exist in newer patch
// levels but inline subqueries and cross joins work everywhere, so the
// builder prefers those.
package sqlbuilder

import (
	"fmt"
	"strings"

	"netsuite-gateway/models"
)

// subsidiaryCountJoin inlines the active-subsidiary count so the consolidation
// call can be elided server-side when only one subsidiary exists.
const subsidiaryCountJoin = "CROSS JOIN (SELECT COUNT(*) AS cnt FROM subsidiary WHERE isinactive = 'F') sub"

// consolidatedAmount wraps a raw amount in the consolidation builtin when more
// than one active subsidiary exists. ratePeriod selects the translation rate:
// the transaction's own posting period for P&L activity, the reporting
// period's id for balance-sheet balances.
func consolidatedAmount(amountExpr string, target int64, ratePeriodExpr string) string {
	return fmt.Sprintf(
		"CASE WHEN sub.cnt > 1 THEN BUILTIN.CONSOLIDATE(%s, 'LEDGER', 'DEFAULT', 'DEFAULT', %s, %s, 'DEFAULT') ELSE %s END",
		amountExpr, Int(target).SQL(), ratePeriodExpr, amountExpr)
}

// typeSignFlip multiplies by -1 for credit-balance display types
func typeSignFlip(typeCol string) string {
	return fmt.Sprintf("CASE WHEN %s IN (%s) THEN -1 ELSE 1 END", typeCol, quoteList(models.FlippedTypes()))
}

// matchingSignFlip multiplies by -1 again for FX matching contra accounts.
// Both multipliers compose; that is the only correct treatment.
func matchingSignFlip(specCol string) string {
	return fmt.Sprintf("CASE WHEN COALESCE(%s, '') LIKE 'Matching%%' THEN -1 ELSE 1 END", specCol)
}

// monthlyPeriodOnly restricts an accountingperiod alias to fiscal months
func monthlyPeriodOnly(alias string) string {
	return fmt.Sprintf("%s.isyear = 'F' AND %s.isquarter = 'F'", alias, alias)
}

// baseJoins is the fact-table join spine shared by every balance query.
// Segment filters join through transactionline, never the accounting line;
// joining them on transactionaccountingline drops rows silently.
const baseJoins = `FROM transactionaccountingline tal
JOIN transaction t ON t.id = tal.transaction
JOIN transactionline tl ON tl.transaction = tal.transaction AND tl.id = tal.transactionline
JOIN account a ON a.id = tal.account
JOIN accountingperiod ap ON ap.id = t.postingperiod`

// baseConditions are the predicates every balance query carries
func baseConditions(f models.FilterBundle) []string {
	conds := []string{
		"t.posting = 'T'",
		"tal.posting = 'T'",
		fmt.Sprintf("tal.accountingbook = %s", Int(f.Book()).SQL()),
		monthlyPeriodOnly("ap"),
	}
	conds = append(conds, segmentConditions(f)...)
	return conds
}

// segmentConditions renders the optional dimension filters. Subsidiary lives
// on the transaction; class, department and location on the transaction line.
func segmentConditions(f models.FilterBundle) []string {
	var conds []string
	if f.SubsidiaryID > 0 {
		conds = append(conds, fmt.Sprintf("t.subsidiary = %s", Int(f.SubsidiaryID).SQL()))
	}
	if f.ClassID > 0 {
		conds = append(conds, fmt.Sprintf("tl.class = %s", Int(f.ClassID).SQL()))
	}
	if f.DepartmentID > 0 {
		conds = append(conds, fmt.Sprintf("tl.department = %s", Int(f.DepartmentID).SQL()))
	}
	if f.LocationID > 0 {
		conds = append(conds, fmt.Sprintf("tl.location = %s", Int(f.LocationID).SQL()))
	}
	return conds
}

// accountNumberCondition restricts to an explicit account set when non-empty
func accountNumberCondition(accounts []string) (string, error) {
	if len(accounts) == 0 {
		return "", nil
	}
	for _, acct := range accounts {
		if _, err := EscapeString(acct); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("a.acctnumber IN (%s)", quoteList(accounts)), nil
}

// excludeEliminationCondition drops elimination accounts; derived-equity
// roll-ups use it, ordinary balance queries keep those accounts in.
const excludeEliminationCondition = "COALESCE(a.eliminate, 'F') = 'F'"

// whereClause joins predicates into a WHERE clause
func whereClause(conds []string) string {
	return "WHERE " + strings.Join(conds, "\n  AND ")
}

// ratePeriodJoin cross joins the accounting period providing the consolidation
// rate for a reporting month, aliased so several months can coexist.
func ratePeriodJoin(alias, monthKey string) string {
	return fmt.Sprintf(
		"CROSS JOIN (SELECT id, enddate FROM accountingperiod WHERE isyear = 'F' AND isquarter = 'F' AND TO_CHAR(startdate, 'YYYY-MM') = %s) %s",
		Str(monthKey).SQL(), alias)
}

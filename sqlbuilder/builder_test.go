package sqlbuilder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsuite-gateway/models"
)

func TestEscapeString(t *testing.T) {
	escaped, err := EscapeString("O'Brien's")
	require.NoError(t, err)
	assert.Equal(t, "O''Brien''s", escaped)

	_, err = EscapeString("bad\x00input")
	require.Error(t, err)
	assert.Equal(t, models.ErrValidation, models.KindOf(err))
}

func TestLiterals(t *testing.T) {
	assert.Equal(t, "42", Int(42).SQL())
	assert.Equal(t, "-1", Int(-1).SQL())
	assert.Equal(t, "'a''b'", Str("a'b").SQL())
	assert.Equal(t, "t.id", Raw("t.id").SQL())
	assert.Equal(t, "'ab'", Str("a\x00b").SQL())
}

func TestQuoteListSorted(t *testing.T) {
	assert.Equal(t, "'4220', '5000', '6100'", quoteList([]string{"6100", "4220", "5000"}))
}

func TestPLFullYearShape(t *testing.T) {
	f := models.FilterBundle{SubsidiaryID: 1}
	sql, err := PLFullYear(2025, []string{"4220"}, f, 1)
	require.NoError(t, err)

	// Year filter on the posting period, not a month list.
	assert.Contains(t, sql, "TO_CHAR(ap.startdate, 'YYYY') = '2025'")

	// Consolidation runs inside the inner subquery, once per raw line.
	inner := sql[strings.Index(sql, "FROM ("):]
	assert.Contains(t, inner, "BUILTIN.CONSOLIDATE(tal.amount, 'LEDGER', 'DEFAULT', 'DEFAULT', 1, t.postingperiod, 'DEFAULT')")
	assert.Contains(t, sql, "CASE WHEN sub.cnt > 1 THEN")

	// Twelve pivot columns.
	for _, col := range []string{"bal_2025_01", "bal_2025_06", "bal_2025_12"} {
		assert.Contains(t, sql, col)
	}
	assert.Equal(t, 12, strings.Count(sql, "AS bal_"))

	// Both sign multipliers compose on every column.
	assert.Contains(t, sql, "CASE WHEN COALESCE(x.sspecacct, '') LIKE 'Matching%' THEN -1 ELSE 1 END")
	assert.Contains(t, sql, "CASE WHEN x.accttype IN (")

	// Scoping.
	assert.Contains(t, sql, "a.acctnumber IN ('4220')")
	assert.Contains(t, sql, "t.subsidiary = 1")
	assert.Contains(t, sql, "tal.accountingbook = 1")
	assert.Contains(t, sql, "t.posting = 'T'")
	assert.Contains(t, sql, "ap.isyear = 'F' AND ap.isquarter = 'F'")
}

func TestPLMonthsTargetsRequestedPeriods(t *testing.T) {
	sql, err := PLMonths([]string{"Feb 2025", "Jan 2025"}, nil, models.FilterBundle{}, 1)
	require.NoError(t, err)

	assert.Contains(t, sql, "ap.periodname IN ('Feb 2025', 'Jan 2025')")
	assert.Equal(t, 2, strings.Count(sql, "AS bal_"))
	assert.NotContains(t, sql, "TO_CHAR(ap.startdate, 'YYYY') =")
	// No explicit account list means no acctnumber predicate.
	assert.NotContains(t, sql, "a.acctnumber IN")
}

func TestBalanceSheetCumulativeBoundIsLatestPeriod(t *testing.T) {
	// Chronologically latest is Feb 2025 even though Dec 2024 is listed last.
	sql, err := BalanceSheetPeriods([]string{"Jan 2025", "Feb 2025", "Dec 2024"}, nil, models.FilterBundle{SubsidiaryID: 1}, 1)
	require.NoError(t, err)

	assert.Contains(t, sql, "ap.enddate <= TO_DATE('2025-02-28', 'YYYY-MM-DD')")
	assert.NotContains(t, sql, "TO_DATE('2024-12-31', 'YYYY-MM-DD')")

	// One rate-period alias and one cumulative pivot column per month.
	for _, suffix := range []string{"2024_12", "2025_01", "2025_02"} {
		assert.Contains(t, sql, "p_"+suffix)
		assert.Contains(t, sql, "AS bal_"+suffix)
	}
	assert.Contains(t, sql, "TO_CHAR(startdate, 'YYYY-MM') = '2024-12'")

	// Each column translates at its own month's rate and bounds at its own end.
	assert.Contains(t, sql, "CASE WHEN ap.startdate <= p_2024_12.enddate THEN")
	assert.Contains(t, sql, "p_2024_12.id, 'DEFAULT')")
	assert.Contains(t, sql, "p_2025_02.id, 'DEFAULT')")

	// Only balance-sheet types participate.
	assert.Contains(t, sql, "a.accttype IN ('AcctPay', 'AcctRec', 'Bank', 'CredCard', 'DeferExpense', 'DeferRevenue', 'Equity', 'FixedAsset', 'LongTermLiab', 'OthAsset', 'OthCurrAsset', 'OthCurrLiab', 'RetainedEarnings', 'UnbilledRec')")
	assert.NotContains(t, sql, "'Expense'")
	assert.NotContains(t, sql, "'COGS'")
}

func TestRetainedEarningsUnionsRollAndManual(t *testing.T) {
	sql, err := RetainedEarnings("Jun 2025", "Retained Earnings", models.FilterBundle{}, 1)
	require.NoError(t, err)

	// One statement: the P&L roll and the manual journals union together
	// under a single outer sum.
	assert.True(t, strings.HasPrefix(sql, "SELECT SUM(amount) AS amount"))
	assert.Equal(t, 1, strings.Count(sql, "UNION ALL"))

	// The roll half covers all P&L activity through the prior year end.
	assert.Contains(t, sql, "ap.enddate <= TO_DATE('2024-12-31', 'YYYY-MM-DD')")
	assert.Contains(t, sql, "TO_CHAR(startdate, 'YYYY-MM') = '2024-12'")
	assert.Contains(t, sql, "COALESCE(a.eliminate, 'F') = 'F'")
	assert.Contains(t, sql, "'COGS', 'Cost of Goods Sold'")

	// The manual half is journals posted straight to retained earnings.
	assert.Contains(t, sql, "t.type = 'Journal'")
	assert.Contains(t, sql, "LOWER(a.fullname) LIKE '%retained earnings%'")
	assert.Contains(t, sql, "a.accttype IN ('RetainedEarnings')")
}

func TestNetIncomeWindow(t *testing.T) {
	sql, err := NetIncome("Mar 2025", models.FilterBundle{}, 1)
	require.NoError(t, err)

	assert.Contains(t, sql, "ap.startdate >= TO_DATE('2025-01-01', 'YYYY-MM-DD')")
	assert.Contains(t, sql, "ap.enddate <= TO_DATE('2025-03-31', 'YYYY-MM-DD')")
	assert.Contains(t, sql, "TO_CHAR(startdate, 'YYYY-MM') = '2025-03'")
}

func TestPostedEquityExcludesSynthesizedNames(t *testing.T) {
	sql, err := PostedEquity("Dec 2024", models.FilterBundle{}, 1)
	require.NoError(t, err)

	assert.Contains(t, sql, "a.accttype IN ('Equity')")
	for _, pattern := range EquityNameExclusions {
		assert.Contains(t, sql, "LOWER(a.fullname) NOT LIKE '%"+pattern+"%'")
	}
}

func TestAccountSearchWildcards(t *testing.T) {
	// '*' becomes '%', the remainder stays literal.
	sql, err := AccountSearch("42*", true)
	require.NoError(t, err)
	assert.Contains(t, sql, "LIKE '42%' ESCAPE")
	assert.Contains(t, sql, "a.isinactive = 'F'")

	// Without '*', special characters are escaped and the term is wrapped.
	sql, err = AccountSearch("100_0", false)
	require.NoError(t, err)
	assert.Contains(t, sql, `LIKE '%100\_0%' ESCAPE`)
	assert.NotContains(t, sql, "isinactive")

	// A literal backslash doubles so it cannot open an escape sequence.
	sql, err = AccountSearch(`4\2`, false)
	require.NoError(t, err)
	assert.Contains(t, sql, `LIKE '%4\\2%' ESCAPE`)

	sql, err = AccountSearch(`4\2*`, false)
	require.NoError(t, err)
	assert.Contains(t, sql, `LIKE '4\\2%' ESCAPE`)
}

func TestTransactionsQuery(t *testing.T) {
	f := models.FilterBundle{ClassID: 7}
	sql, err := Transactions("4220", "Jan 2025", f)
	require.NoError(t, err)

	assert.Contains(t, sql, "a.acctnumber = '4220'")
	assert.Contains(t, sql, "ap.periodname = 'Jan 2025'")
	assert.Contains(t, sql, "tl.class = 7")
	assert.Contains(t, sql, "BUILTIN.DF(t.entity)")
	assert.Contains(t, sql, "ORDER BY t.trandate, t.id")
}

func TestBudgetQuery(t *testing.T) {
	f := models.FilterBundle{SubsidiaryID: 2}
	sql, err := Budget([]string{"4220"}, []string{"Jan 2025", "Feb 2025"}, f)
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM budgetlegacy b")
	assert.Contains(t, sql, "bp.periodname IN ('Feb 2025', 'Jan 2025')")
	assert.Contains(t, sql, "b.subsidiary = 2")
	assert.Contains(t, sql, "SUM(TO_NUMBER(b.amount))")
}

func TestAccountMetaRejectsBadLiterals(t *testing.T) {
	_, err := AccountMeta([]string{"4220", "x\x00y"})
	require.Error(t, err)
	assert.Equal(t, models.ErrValidation, models.KindOf(err))
}

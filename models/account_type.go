package models

// AccountClass groups NetSuite account types into reporting classes
type AccountClass int

const (
	ClassUnknown AccountClass = iota
	ClassAsset
	ClassLiability
	ClassEquity
	ClassIncome
	ClassExpense
	ClassExcluded
)

// typeInfo holds the class and display-sign convention of an account type.
// flip means the raw debit-positive sum is multiplied by -1 so credit-balance
// accounts (liabilities, equity, income) read positive in the spreadsheet.
type typeInfo struct {
	class AccountClass
	flip  bool
}

// accountTypes is the canonical NetSuite account-type table. Tag spellings are
// case-sensitive and must match the ERP exactly; an unlisted or misspelled tag
// drops the account from every aggregate.
var accountTypes = map[string]typeInfo{
	// Balance-sheet assets (debit natural, no flip)
	"Bank":         {ClassAsset, false},
	"AcctRec":      {ClassAsset, false},
	"OthCurrAsset": {ClassAsset, false},
	"FixedAsset":   {ClassAsset, false},
	"OthAsset":     {ClassAsset, false},
	"DeferExpense": {ClassAsset, false},
	"UnbilledRec":  {ClassAsset, false},

	// Balance-sheet liabilities (credit natural, flipped)
	"AcctPay":      {ClassLiability, true},
	"CredCard":     {ClassLiability, true},
	"OthCurrLiab":  {ClassLiability, true},
	"LongTermLiab": {ClassLiability, true},
	"DeferRevenue": {ClassLiability, true},

	// Equity (credit natural, flipped)
	"Equity":           {ClassEquity, true},
	"RetainedEarnings": {ClassEquity, true},

	// P&L income (credit natural, flipped)
	"Income":    {ClassIncome, true},
	"OthIncome": {ClassIncome, true},

	// P&L expense (debit natural, no flip). NetSuite emits both spellings
	// for cost of goods sold depending on endpoint.
	"COGS":               {ClassExpense, false},
	"Cost of Goods Sold": {ClassExpense, false},
	"Expense":            {ClassExpense, false},
	"OthExpense":         {ClassExpense, false},

	// Excluded from all balances
	"NonPosting": {ClassExcluded, false},
	"Stat":       {ClassExcluded, false},
}

// ClassOf returns the reporting class for an account type tag
func ClassOf(accountType string) AccountClass {
	if info, ok := accountTypes[accountType]; ok {
		return info.class
	}
	return ClassUnknown
}

// IsProfitLossType reports whether the type belongs to the income statement
func IsProfitLossType(accountType string) bool {
	switch ClassOf(accountType) {
	case ClassIncome, ClassExpense:
		return true
	}
	return false
}

// IsBalanceSheetType reports whether the type belongs to the balance sheet
func IsBalanceSheetType(accountType string) bool {
	switch ClassOf(accountType) {
	case ClassAsset, ClassLiability, ClassEquity:
		return true
	}
	return false
}

// SignFlips reports whether the display sign is inverted for the type
func SignFlips(accountType string) bool {
	if info, ok := accountTypes[accountType]; ok {
		return info.flip
	}
	return false
}

// ProfitLossTypes returns all income-statement type tags, for SQL IN lists
func ProfitLossTypes() []string {
	return typesOfClasses(ClassIncome, ClassExpense)
}

// FlippedTypes returns every tag whose display sign inverts
func FlippedTypes() []string {
	out := make([]string, 0, len(accountTypes))
	for tag, info := range accountTypes {
		if info.flip {
			out = append(out, tag)
		}
	}
	return out
}

// AssetTypes returns the balance-sheet asset tags
func AssetTypes() []string { return typesOfClasses(ClassAsset) }

// LiabilityTypes returns the balance-sheet liability tags
func LiabilityTypes() []string { return typesOfClasses(ClassLiability) }

// EquityTypes returns the equity tags
func EquityTypes() []string { return typesOfClasses(ClassEquity) }

// ExcludedTypes returns the non-posting tags never included in balances
func ExcludedTypes() []string { return typesOfClasses(ClassExcluded) }

func typesOfClasses(classes ...AccountClass) []string {
	var out []string
	for tag, info := range accountTypes {
		for _, c := range classes {
			if info.class == c {
				out = append(out, tag)
				break
			}
		}
	}
	return out
}

package models

// DefaultAccountingBook is NetSuite's primary book id
const DefaultAccountingBook int64 = 1

// FilterBundle carries the resolved dimension ids a query is scoped to.
// Zero means unset for every dimension except the accounting book.
type FilterBundle struct {
	SubsidiaryID   int64 `json:"subsidiary,omitempty"`
	DepartmentID   int64 `json:"department,omitempty"`
	LocationID     int64 `json:"location,omitempty"`
	ClassID        int64 `json:"class,omitempty"`
	AccountingBook int64 `json:"accountingBook,omitempty"`
}

// Book returns the accounting book id, defaulting to the primary book
func (f FilterBundle) Book() int64 {
	if f.AccountingBook <= 0 {
		return DefaultAccountingBook
	}
	return f.AccountingBook
}

// BalanceResult maps account number to period name to amount. Every requested
// cell is present after zero-fill; an absent key means the cell was never
// requested, not that it is zero.
type BalanceResult map[string]map[string]float64

// Set writes one cell, allocating the account row on first touch
func (r BalanceResult) Set(account, period string, amount float64) {
	row, ok := r[account]
	if !ok {
		row = make(map[string]float64)
		r[account] = row
	}
	row[period] = amount
}

// Add accumulates into one cell
func (r BalanceResult) Add(account, period string, amount float64) {
	row, ok := r[account]
	if !ok {
		row = make(map[string]float64)
		r[account] = row
	}
	row[period] += amount
}

// Get reads one cell; the second return reports whether it was populated
func (r BalanceResult) Get(account, period string) (float64, bool) {
	row, ok := r[account]
	if !ok {
		return 0, false
	}
	v, ok := row[period]
	return v, ok
}

// Merge folds another result into this one; overlapping cells accumulate
func (r BalanceResult) Merge(other BalanceResult) {
	for account, row := range other {
		for period, amount := range row {
			r.Add(account, period, amount)
		}
	}
}

// ZeroFill writes an explicit zero into every requested cell the ERP did not
// return, so the add-in can cache legitimate zeros.
func (r BalanceResult) ZeroFill(accounts, periods []string) {
	for _, account := range accounts {
		for _, period := range periods {
			if _, ok := r.Get(account, period); !ok {
				r.Set(account, period, 0)
			}
		}
	}
}

// Shaped returns a copy restricted to the requested accounts and periods,
// used when prefetch expansion pulled a superset.
func (r BalanceResult) Shaped(accounts, periods []string) BalanceResult {
	out := make(BalanceResult, len(accounts))
	for _, account := range accounts {
		for _, period := range periods {
			if v, ok := r.Get(account, period); ok {
				out.Set(account, period, v)
			}
		}
	}
	return out
}

package sqlbuilder

// Bootstrap lookup statements. These run once at startup; each tolerates
// failure independently, so they stay deliberately simple.

// Classes lists active classification dimensions
func Classes() string {
	return "SELECT id, name FROM classification WHERE isinactive = 'F' ORDER BY name"
}

// Departments lists active departments
func Departments() string {
	return "SELECT id, name FROM department WHERE isinactive = 'F' ORDER BY name"
}

// Locations lists active locations
func Locations() string {
	return "SELECT id, name FROM location WHERE isinactive = 'F' ORDER BY name"
}

// Subsidiaries lists the whole legal-entity tree, inactive rows included so
// parent links resolve even when a parent was retired.
func Subsidiaries() string {
	return "SELECT id, name, parent, isinactive, iselimination FROM subsidiary ORDER BY id"
}

// AccountingBooks lists the configured books; id 1 is the primary book
func AccountingBooks() string {
	return "SELECT id, name FROM accountingbook ORDER BY id"
}

// ConsolidationRoot finds the first active top-level subsidiary, the default
// consolidation target when the caller does not name one.
func ConsolidationRoot() string {
	return "SELECT id, name FROM subsidiary WHERE parent IS NULL AND isinactive = 'F' AND ROWNUM = 1 ORDER BY id"
}

// AccountTitles loads the acctnumber to name map for all active accounts
func AccountTitles() string {
	return "SELECT acctnumber, fullname FROM account WHERE isinactive = 'F' ORDER BY acctnumber"
}

// ActiveAccountCount backs the connectivity probe
func ActiveAccountCount() string {
	return "SELECT COUNT(*) AS cnt FROM account WHERE isinactive = 'F'"
}

package sqlbuilder

import (
	"sort"
	"strconv"
	"strings"

	"netsuite-gateway/models"
)

// Literal is a value rendered into a SuiteQL statement. The builder never
// interpolates raw user input; everything goes through one of these.
type Literal interface {
	SQL() string
}

// Int renders an integer literal
type Int int64

func (i Int) SQL() string { return strconv.FormatInt(int64(i), 10) }

// Str renders a single-quoted string literal with quotes doubled.
// Callers validate with EscapeString first; NUL bytes are stripped here as a
// second line of defense.
type Str string

func (s Str) SQL() string {
	clean := strings.ReplaceAll(string(s), "\x00", "")
	return "'" + strings.ReplaceAll(clean, "'", "''") + "'"
}

// Raw renders a trusted fragment verbatim. Only builder-owned constants and
// fully composed sub-expressions belong here.
type Raw string

func (r Raw) SQL() string { return string(r) }

// EscapeString validates and escapes a user-derived literal for embedding.
// Strings containing NUL are rejected outright.
func EscapeString(s string) (string, error) {
	if strings.ContainsRune(s, 0) {
		return "", models.NewAppError(models.ErrValidation, "string literal contains NUL")
	}
	return strings.ReplaceAll(s, "'", "''"), nil
}

// quoteList renders a sorted SQL IN list from strings. Sorting keeps the
// generated statement stable for identical inputs.
func quoteList(values []string) string {
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = Str(v).SQL()
	}
	return strings.Join(parts, ", ")
}

// dateLiteral renders a TO_DATE expression for an ISO date string
func dateLiteral(iso string) string {
	return "TO_DATE(" + Str(iso).SQL() + ", 'YYYY-MM-DD')"
}

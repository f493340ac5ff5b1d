package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MatchingTagPrefix marks FX revaluation contra accounts whose display sign
// inverts a second time on top of the type flip.
const MatchingTagPrefix = "Matching"

// Account is a general-ledger account. The public identity is the account
// number string; the internal id appears only in joins.
type Account struct {
	Number       string `json:"accountnumber"`
	InternalID   int64  `json:"id"`
	Name         string `json:"accountname"`
	Type         string `json:"accttype"`
	ParentNumber string `json:"parentnumber,omitempty"`
	IsEliminate  bool   `json:"iseliminate,omitempty"`
	SpecialTag   string `json:"sspecacct,omitempty"`
}

// IsMatching reports whether the account is an FX matching contra account
func (a Account) IsMatching() bool {
	return strings.HasPrefix(a.SpecialTag, MatchingTagPrefix)
}

// NormalizeAccountNumber coerces any transport representation of an account
// number back to its canonical string form. JSON layers between the add-in and
// the gateway turn "4220" into the number 4220 (and "15000" into 15000.0);
// that coercion must be reversed here, never interpreted as arithmetic.
func NormalizeAccountNumber(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(n)
	case json.Number:
		return trimFloatSuffix(n.String())
	case float64:
		if n == float64(int64(n)) {
			return strconv.FormatInt(int64(n), 10)
		}
		return trimFloatSuffix(strconv.FormatFloat(n, 'f', -1, 64))
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", n))
	}
}

// trimFloatSuffix strips a spurious ".0" that float coercion appends
func trimFloatSuffix(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ".0") {
		return s[:len(s)-2]
	}
	return s
}

// NormalizeAccountNumbers normalizes a slice, dropping empties
func NormalizeAccountNumbers(in []interface{}) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if num := NormalizeAccountNumber(v); num != "" {
			out = append(out, num)
		}
	}
	return out
}

package phone

import (
	"slices"
	"strings"
)

// Rule is one guard + rewrite pair of the normalization heuristic. Rules see
// the digit-only form of the input.
type Rule struct {
	Name    string
	Applies func(digits string, d Defaults) bool
	Rewrite func(digits string, d Defaults) string
}

// Evaluation order matters: the length branches overlap once the country
// code prefix is taken into account.
var rules = []Rule{
	{
		// 55 31 87654321 -> 55 31 9 87654321
		Name: "country-code-missing-mobile-9",
		Applies: func(digits string, d Defaults) bool {
			return len(digits) == 12 && strings.HasPrefix(digits, d.CountryCode)
		},
		Rewrite: func(digits string, d Defaults) string {
			return digits[:4] + mobilePrefix + digits[4:]
		},
	},
	{
		// 31 87654321 -> 55 31 9 87654321
		Name: "area-code-missing-country-and-mobile-9",
		Applies: func(digits string, _ Defaults) bool {
			return len(digits) == 10
		},
		Rewrite: func(digits string, d Defaults) string {
			return d.CountryCode + digits[:2] + mobilePrefix + digits[2:]
		},
	},
	{
		// Local numbers; the mobile 9 is not inferred here.
		Name: "local-number",
		Applies: func(digits string, _ Defaults) bool {
			return len(digits) == 8 || len(digits) == 9
		},
		Rewrite: func(digits string, d Defaults) string {
			return d.CountryCode + d.AreaCode + digits
		},
	},
	{
		// The leading area code is not compared with the default area.
		Name: "area-code-present",
		Applies: func(digits string, _ Defaults) bool {
			return len(digits) == 11
		},
		Rewrite: func(digits string, d Defaults) string {
			return d.CountryCode + digits
		},
	},
	{
		Name: "fully-qualified",
		Applies: func(digits string, d Defaults) bool {
			return len(digits) == 13 && strings.HasPrefix(digits, d.CountryCode)
		},
		Rewrite: func(digits string, _ Defaults) string {
			return digits
		},
	},
}

// Rules returns the ordered rule list.
func Rules() []Rule {
	return slices.Clone(rules)
}

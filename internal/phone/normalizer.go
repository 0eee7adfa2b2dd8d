// Package phone turns spreadsheet phone values into canonical dialable
// numbers: country code + area code + subscriber number, digits only.
package phone

import (
	"fmt"
	"strings"
)

const (
	fallbackCountryCode = "55"
	fallbackAreaCode    = "31"
	mobilePrefix        = "9"
	suffixDigits        = 4
)

// Reason classifies why a raw value could not be normalized.
type Reason string

const (
	ReasonEmpty             Reason = "empty_input"
	ReasonHyphenCount       Reason = "hyphen_count"
	ReasonHyphenSuffix      Reason = "hyphen_suffix_digits"
	ReasonTooShort          Reason = "too_short"
	ReasonTooLong           Reason = "too_long_without_country_code"
	ReasonUnsupportedLength Reason = "unsupported_length"
)

// Error is returned by Normalize for every rejected value. Digits holds the
// digit count the decision was based on.
type Error struct {
	Reason Reason
	Digits int
}

func (e *Error) Error() string {
	switch e.Reason {
	case ReasonEmpty:
		return "empty input"
	case ReasonHyphenCount:
		return "invalid hyphen format: expected exactly one hyphen"
	case ReasonHyphenSuffix:
		return fmt.Sprintf("segment after the hyphen must contain exactly %d digits, found %d", suffixDigits, e.Digits)
	case ReasonTooShort:
		return fmt.Sprintf("number too short (%d digits)", e.Digits)
	case ReasonTooLong:
		return fmt.Sprintf("number too long without country code (%d digits)", e.Digits)
	default:
		return fmt.Sprintf("invalid or non-standardizable length (%d digits)", e.Digits)
	}
}

// Defaults supplies the country and area code used when a raw number omits
// them.
type Defaults struct {
	CountryCode string
	AreaCode    string
}

// ParseDefaults splits a combined default such as "5531" into its country
// code (first 2 digits) and area code (next 2 digits). Non-digits are ignored;
// missing parts fall back to 55 and 31.
func ParseDefaults(countryArea string) Defaults {
	digits := Digits(countryArea)
	d := Defaults{CountryCode: fallbackCountryCode, AreaCode: fallbackAreaCode}
	if len(digits) >= 2 {
		d.CountryCode = digits[:2]
	}
	if len(digits) >= 4 {
		d.AreaCode = digits[2:4]
	}
	return d
}

// String returns the combined country+area form.
func (d Defaults) String() string {
	return d.CountryCode + d.AreaCode
}

// Normalize converts raw into a canonical number using the combined
// country+area default.
func Normalize(raw, defaultCountryArea string) (string, error) {
	return ParseDefaults(defaultCountryArea).Normalize(raw)
}

// Normalize runs the pre-checks, then the ordered rule list, then the
// rejection classifier. The first matching rule wins. Only "" is empty input;
// blank or digitless values fall through to the classifier.
func (d Defaults) Normalize(raw string) (string, error) {
	if raw == "" {
		return "", &Error{Reason: ReasonEmpty}
	}
	if err := checkHyphen(raw); err != nil {
		return "", err
	}

	digits := Digits(raw)
	for _, rule := range rules {
		if rule.Applies(digits, d) {
			return rule.Rewrite(digits, d), nil
		}
	}
	return "", classify(digits, d)
}

// checkHyphen rejects extension-style suffixes: a value with a hyphen must
// have exactly one, followed by exactly four digits.
func checkHyphen(raw string) error {
	if !strings.Contains(raw, "-") {
		return nil
	}
	parts := strings.Split(raw, "-")
	if len(parts) != 2 {
		return &Error{Reason: ReasonHyphenCount, Digits: len(Digits(raw))}
	}
	if n := len(Digits(parts[1])); n != suffixDigits {
		return &Error{Reason: ReasonHyphenSuffix, Digits: n}
	}
	return nil
}

func classify(digits string, d Defaults) error {
	n := len(digits)
	switch {
	case n < 8:
		return &Error{Reason: ReasonTooShort, Digits: n}
	case n > 13 && !strings.HasPrefix(digits, d.CountryCode):
		return &Error{Reason: ReasonTooLong, Digits: n}
	default:
		return &Error{Reason: ReasonUnsupportedLength, Digits: n}
	}
}

// Digits strips every non-digit character.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

package phone

import (
	"fmt"

	"github.com/nyaruka/phonenumbers"
)

// FormatDisplay renders a 13-digit canonical number as +CC (AA) 9XXXX-XXXX.
// Any other value is returned unchanged.
func FormatDisplay(canonical string) string {
	if len(canonical) != 13 || Digits(canonical) != canonical {
		return canonical
	}
	return fmt.Sprintf("+%s (%s) %s-%s", canonical[0:2], canonical[2:4], canonical[4:9], canonical[9:13])
}

// Region returns the ISO 3166-1 alpha-2 region of a canonical number, or ""
// when libphonenumber cannot place it.
func Region(canonical string) string {
	if canonical == "" {
		return ""
	}
	num, err := phonenumbers.Parse("+"+canonical, "")
	if err != nil {
		return ""
	}
	region := phonenumbers.GetRegionCodeForNumber(num)
	if region == "ZZ" {
		return ""
	}
	return region
}

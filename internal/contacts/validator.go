// Package contacts validates spreadsheet rows into dialable contacts and
// assembles the success/failure report used by both the contacts-file and the
// dispatch paths.
package contacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wolfman30/contact-dispatch/internal/dispatch"
	"github.com/wolfman30/contact-dispatch/internal/phone"
)

const (
	// CodeMissingName marks rows whose phone normalized but carry no
	// responsible name.
	CodeMissingName = "missing_name"

	missingNameReason = "missing responsible name"
	manualHint        = "The number could not be standardized. Check that it includes the area code and, for mobiles, the leading 9."
)

// Row is one spreadsheet row keyed by column name. Values are strings or
// numbers as produced by ingestion.
type Row map[string]any

// ColumnMapping selects which columns carry each field.
type ColumnMapping struct {
	ResponsibleName string `json:"responsibleName"`
	ContactName     string `json:"contactName"`
	Group           string `json:"group"`
	Phone           string `json:"phone"`
}

// Validate checks the mapping names the required columns.
func (m ColumnMapping) Validate() error {
	var missing []string
	if strings.TrimSpace(m.ResponsibleName) == "" {
		missing = append(missing, "responsibleName")
	}
	if strings.TrimSpace(m.Phone) == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return fmt.Errorf("contacts: column mapping missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Outcome is the per-row result of a validation pass. It is never mutated
// after Validate returns it.
type Outcome struct {
	RowIndex        int    `json:"rowIndex"`
	ResponsibleName string `json:"responsibleName"`
	ContactName     string `json:"contactName"`
	Group           string `json:"group"`
	OriginalPhone   string `json:"originalPhone"`
	Phone           string `json:"phone,omitempty"`
	Display         string `json:"display,omitempty"`
	Region          string `json:"region,omitempty"`
	Reason          string `json:"reason,omitempty"`
	Code            string `json:"code,omitempty"`
	Hint            string `json:"hint,omitempty"`
	Row             Row    `json:"row,omitempty"`
}

// Valid reports whether the row produced a canonical phone and a name.
func (o Outcome) Valid() bool {
	return o.Phone != "" && o.ResponsibleName != "" && o.Reason == ""
}

// Fields merges the original row with the derived fields and the failure
// reason for manual diagnosis. Derived keys win over row columns of the same
// name.
func (o Outcome) Fields() map[string]any {
	out := make(map[string]any, len(o.Row)+7)
	for k, v := range o.Row {
		out[k] = v
	}
	out["rowIndex"] = o.RowIndex
	out["responsibleName"] = o.ResponsibleName
	out["contactName"] = o.ContactName
	out["group"] = o.Group
	out["originalPhone"] = o.OriginalPhone
	if o.Reason != "" {
		out["reason"] = o.Reason
		out["hint"] = o.Hint
	} else {
		out["phone"] = o.Phone
		out["display"] = o.Display
	}
	return out
}

// DisplayName is the name a contacts file shows: "responsible - contact",
// or just the responsible name when there is no contact name.
func (o Outcome) DisplayName() string {
	if o.ContactName == "" {
		return o.ResponsibleName
	}
	return o.ResponsibleName + " - " + o.ContactName
}

// DispatchContact converts a successful outcome into a dispatch contact. The
// contact name fills the {name} placeholder, falling back to the responsible
// name.
func (o Outcome) DispatchContact() dispatch.Contact {
	name := o.ContactName
	if name == "" {
		name = o.ResponsibleName
	}
	return dispatch.Contact{
		ID:           dispatch.NumericContactID(int64(o.RowIndex)),
		Name:         name,
		Phone:        o.OriginalPhone,
		CleanedPhone: o.Phone,
	}
}

// Summary counts a validation pass.
type Summary struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// Report partitions outcomes in original row order.
type Report struct {
	Successes []Outcome `json:"successes"`
	Failures  []Outcome `json:"failures"`
	Summary   Summary   `json:"summary"`
}

// DispatchContacts returns the dispatch view of every success.
func (r Report) DispatchContacts() []dispatch.Contact {
	out := make([]dispatch.Contact, 0, len(r.Successes))
	for _, o := range r.Successes {
		out = append(out, o.DispatchContact())
	}
	return out
}

// Validate normalizes every row's phone and partitions the rows into
// successes and failures. Row indexes are 1-based.
func Validate(rows []Row, mapping ColumnMapping, defaultCountryArea string) Report {
	defaults := phone.ParseDefaults(defaultCountryArea)
	report := Report{
		Successes: make([]Outcome, 0, len(rows)),
		Failures:  []Outcome{},
	}
	for i, row := range rows {
		o := validateRow(i+1, row, mapping, defaults)
		if o.Valid() {
			report.Successes = append(report.Successes, o)
		} else {
			report.Failures = append(report.Failures, o)
		}
	}
	report.Summary = Summary{
		Total:   len(rows),
		Valid:   len(report.Successes),
		Invalid: len(report.Failures),
	}
	return report
}

func validateRow(index int, row Row, mapping ColumnMapping, defaults phone.Defaults) Outcome {
	o := Outcome{
		RowIndex:        index,
		ResponsibleName: cell(row, mapping.ResponsibleName),
		ContactName:     cell(row, mapping.ContactName),
		Group:           cell(row, mapping.Group),
		OriginalPhone:   cell(row, mapping.Phone),
		Row:             row,
	}

	canonical, err := defaults.Normalize(o.OriginalPhone)
	switch {
	case err != nil:
		o.Reason = err.Error()
		o.Code = string(phone.ReasonUnsupportedLength)
		var perr *phone.Error
		if errors.As(err, &perr) {
			o.Code = string(perr.Reason)
		}
		o.Hint = manualHint
	case o.ResponsibleName == "":
		o.Reason = missingNameReason
		o.Code = CodeMissingName
		o.Hint = manualHint
	default:
		o.Phone = canonical
		o.Display = phone.FormatDisplay(canonical)
		o.Region = phone.Region(canonical)
	}
	return o
}

func cell(row Row, column string) string {
	if column == "" || row == nil {
		return ""
	}
	return cellString(row[column])
}

// cellString renders a spreadsheet value. Whole floats lose their ".0" so a
// numeric phone column does not grow an extra digit.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return strings.TrimSpace(x.String())
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return cellString(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

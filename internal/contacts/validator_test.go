package contacts

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/contact-dispatch/internal/phone"
)

var schoolMapping = ColumnMapping{
	ResponsibleName: "Responsável",
	ContactName:     "Aluno",
	Group:           "Turma",
	Phone:           "Telefone",
}

func TestValidate_PartitionsRowsInOrder(t *testing.T) {
	rows := []Row{
		{"Responsável": "Maria Souza", "Aluno": "Ana", "Turma": "3A", "Telefone": "98765-4321"},
		{"Responsável": "João", "Aluno": "Pedro", "Turma": "3B", "Telefone": "12-34-5678"},
		{"Responsável": "", "Aluno": "Lia", "Turma": "3C", "Telefone": "31987654321"},
		{"Responsável": "Carla", "Aluno": "", "Turma": "3A", "Telefone": float64(5531987654321)},
	}

	report := Validate(rows, schoolMapping, "5531")

	require.Len(t, report.Successes, 2)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, Summary{Total: 4, Valid: 2, Invalid: 2}, report.Summary)

	first := report.Successes[0]
	assert.Equal(t, 1, first.RowIndex)
	assert.Equal(t, "5531987654321", first.Phone)
	assert.Equal(t, "+55 (31) 98765-4321", first.Display)
	assert.Equal(t, "BR", first.Region)
	assert.Equal(t, "Maria Souza - Ana", first.DisplayName())

	numeric := report.Successes[1]
	assert.Equal(t, 4, numeric.RowIndex)
	assert.Equal(t, "5531987654321", numeric.OriginalPhone)
	assert.Equal(t, "Carla", numeric.DisplayName())

	hyphens := report.Failures[0]
	assert.Equal(t, 2, hyphens.RowIndex)
	assert.Equal(t, string(phone.ReasonHyphenCount), hyphens.Code)
	assert.Equal(t, "invalid hyphen format: expected exactly one hyphen", hyphens.Reason)
	assert.NotEmpty(t, hyphens.Hint)
	assert.False(t, hyphens.Valid())

	noName := report.Failures[1]
	assert.Equal(t, 3, noName.RowIndex)
	assert.Equal(t, CodeMissingName, noName.Code)
	assert.Empty(t, noName.Phone)
}

func TestValidate_EmptyInput(t *testing.T) {
	report := Validate(nil, schoolMapping, "5531")
	assert.Empty(t, report.Successes)
	assert.Empty(t, report.Failures)
	assert.Equal(t, Summary{}, report.Summary)

	raw, err := json.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t, `{"successes":[],"failures":[],"summary":{"total":0,"valid":0,"invalid":0}}`, string(raw))
}

func TestValidate_MissingPhoneColumnValue(t *testing.T) {
	report := Validate([]Row{{"Responsável": "Maria"}}, schoolMapping, "5531")
	require.Len(t, report.Failures, 1)
	assert.Equal(t, string(phone.ReasonEmpty), report.Failures[0].Code)
}

func TestValidate_BlankPhoneCellIsEmpty(t *testing.T) {
	report := Validate([]Row{{"Responsável": "Maria", "Telefone": "   "}}, schoolMapping, "5531")
	require.Len(t, report.Failures, 1)
	assert.Equal(t, string(phone.ReasonEmpty), report.Failures[0].Code)
}

func TestValidate_UsesConfiguredDefaults(t *testing.T) {
	report := Validate([]Row{{"Responsável": "Maria", "Telefone": "8765-4321"}}, schoolMapping, "4420")
	require.Len(t, report.Successes, 1)
	assert.Equal(t, "442087654321", report.Successes[0].Phone)
}

func TestOutcome_Fields(t *testing.T) {
	report := Validate([]Row{
		{"Responsável": "Maria", "Telefone": "12-34-5678", "phone": "spreadsheet value"},
		{"Responsável": "Rita", "Telefone": "98765-4321", "phone": "spreadsheet value"},
	}, schoolMapping, "5531")
	require.Len(t, report.Failures, 1)
	require.Len(t, report.Successes, 1)

	failed := report.Failures[0].Fields()
	assert.Equal(t, "12-34-5678", failed["Telefone"])
	assert.Equal(t, "invalid hyphen format: expected exactly one hyphen", failed["reason"])
	assert.Equal(t, "spreadsheet value", failed["phone"])

	ok := report.Successes[0].Fields()
	assert.Equal(t, "5531987654321", ok["phone"])
	assert.Equal(t, "+55 (31) 98765-4321", ok["display"])
	assert.NotContains(t, ok, "reason")
}

func TestReport_DispatchContacts(t *testing.T) {
	report := Validate([]Row{
		{"Responsável": "Maria", "Aluno": "Ana", "Telefone": "+55 31 98765-4321"},
		{"Responsável": "Carla", "Telefone": "98765-1234"},
	}, schoolMapping, "5531")
	require.Len(t, report.Successes, 2)

	contacts := report.DispatchContacts()
	require.Len(t, contacts, 2)
	assert.Equal(t, "1", contacts[0].ID.String())
	assert.True(t, contacts[0].ID.IsNumeric())
	assert.Equal(t, "Ana", contacts[0].Name)
	assert.Equal(t, "+55 31 98765-4321", contacts[0].Phone)
	assert.Equal(t, "5531987654321", contacts[0].CleanedPhone)
	assert.Equal(t, "Carla", contacts[1].Name)
	assert.Equal(t, "5531987651234", contacts[1].CleanedPhone)
}

func TestColumnMapping_Validate(t *testing.T) {
	require.NoError(t, schoolMapping.Validate())

	err := ColumnMapping{ContactName: "Aluno"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "responsibleName")
	assert.Contains(t, err.Error(), "phone")
}

func TestCellString(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"  Maria  ", "Maria"},
		{float64(31987654321), "31987654321"},
		{float64(1.5), "1.5"},
		{math.NaN(), ""},
		{float32(12), "12"},
		{42, "42"},
		{int64(5531987654321), "5531987654321"},
		{json.Number("98765"), "98765"},
		{true, "true"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cellString(tc.in), "input %v", tc.in)
	}
}

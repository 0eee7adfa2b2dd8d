package contacts

import "strings"

var (
	namePatterns = []string{
		"aluno", "nome aluno", "nome_aluno", "name", "nome", "full_name", "full name",
		"customer_name", "customer name", "contact_name", "contact name",
	}
	phonePatterns = []string{
		"phone", "telefone", "mobile", "cell", "whatsapp", "phone_number", "phone number", "celular",
	}

	// Header hints used to pre-select a mapping.
	responsibleHint = "Responsável"
	contactHint     = "Aluno"
	groupHint       = "Turma"
	phoneHint       = "Telefone"
)

// ColumnGuess is the result of header auto-detection. Empty keys mean no
// confident match.
type ColumnGuess struct {
	NameKey   string `json:"name_key"`
	NumberKey string `json:"number_key"`
}

// DetectColumns guesses the primary name column and the phone column from
// the headers alone. Exact matches are tried in pattern priority order, then
// substring matches in header order.
func DetectColumns(headers []string) ColumnGuess {
	guess := ColumnGuess{
		NameKey:   exactMatch(headers, namePatterns),
		NumberKey: exactMatch(headers, phonePatterns),
	}
	if guess.NameKey == "" {
		guess.NameKey = substringMatch(headers, namePatterns)
	}
	if guess.NumberKey == "" {
		guess.NumberKey = substringMatch(headers, phonePatterns)
	}
	return guess
}

func exactMatch(headers, patterns []string) string {
	for _, pattern := range patterns {
		for _, header := range headers {
			if strings.ReplaceAll(strings.ToLower(header), "_", " ") == pattern {
				return header
			}
		}
	}
	return ""
}

func substringMatch(headers, patterns []string) string {
	for _, header := range headers {
		lower := strings.ToLower(header)
		for _, pattern := range patterns {
			if strings.Contains(lower, pattern) {
				return header
			}
		}
	}
	return ""
}

// SuggestMapping pre-selects a column for every mapped field: an exact hint
// match, then a trimmed case-insensitive match, then the first column.
func SuggestMapping(headers []string) ColumnMapping {
	return ColumnMapping{
		ResponsibleName: initialColumn(headers, responsibleHint),
		ContactName:     initialColumn(headers, contactHint),
		Group:           initialColumn(headers, groupHint),
		Phone:           initialColumn(headers, phoneHint),
	}
}

func initialColumn(headers []string, hint string) string {
	for _, h := range headers {
		if h == hint {
			return h
		}
	}
	normalized := strings.ToLower(strings.TrimSpace(hint))
	for _, h := range headers {
		if strings.ToLower(strings.TrimSpace(h)) == normalized {
			return h
		}
	}
	if len(headers) > 0 {
		return headers[0]
	}
	return ""
}

package csvimport

import (
	"strings"

	"fjacquet/fintrack/internal/models"
)

// Header keywords per field, most specific first.
var (
	dateKeywords        = []string{"date", "data", "fecha", "datum", "booking", "posted"}
	descriptionKeywords = []string{"descri", "memo", "histórico", "historico", "libellé", "libelle", "details", "payee", "narrative", "buchungstext", "text", "name"}
	amountKeywords      = []string{"amount", "valor", "value", "montant", "betrag", "importe", "quantia", "sum"}
)

// SuggestMapping guesses the date, description and amount columns from the
// header. Fields without a match are left empty. A column is assigned to at
// most one field.
func SuggestMapping(header []string) models.ColumnMapping {
	taken := make(map[int]bool)
	pick := func(keywords []string) string {
		for _, kw := range keywords {
			for i, h := range header {
				if taken[i] {
					continue
				}
				if strings.Contains(strings.ToLower(strings.TrimSpace(h)), kw) {
					taken[i] = true
					return h
				}
			}
		}
		return ""
	}

	var m models.ColumnMapping
	m.Date = pick(dateKeywords)
	m.Description = pick(descriptionKeywords)
	m.Amount = pick(amountKeywords)
	return m
}

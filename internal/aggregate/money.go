package aggregate

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// The cooperative operates in pt-BR; all money display follows it.
var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL renders an amount as Brazilian reais, e.g. "R$ 1.234,56".
func FormatBRL(v float64) string {
	return ptBR.Sprintf("R$ %v", number.Decimal(v, number.Scale(2)))
}

// FormatDateBR renders an ISO date as dd/mm/yyyy. Unparseable input is
// returned as-is so a bad record never blanks a table cell.
func FormatDateBR(isoDate string) string {
	d, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return isoDate
	}
	return d.Format("02/01/2006")
}

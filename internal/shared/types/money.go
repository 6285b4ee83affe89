package types

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

// FormatMoney formata um valor em centavos com separador de milhar, ex.: "$1,234.56".
// Moedas diferentes de USD usam o código como sufixo.
func FormatMoney(amount decimal.Decimal, currency string) string {
	value := moneyPrinter.Sprintf("%.2f", amount.Round(2).InexactFloat64())
	if currency == "" || currency == "USD" {
		return "$" + value
	}
	return value + " " + currency
}

// FormatPercent formata uma porcentagem com duas casas, ex.: "42.13%".
func FormatPercent(p decimal.Decimal) string {
	return p.StringFixed(2) + "%"
}

// Package money formatea importes y cantidades en la convención brasileña (R$ 1.234,56).
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// BRL formatea con símbolo y dos decimales.
func BRL(v decimal.Decimal) string {
	return "R$ " + Amount(v)
}

// Amount formatea con separador de miles y dos decimales, sin símbolo.
func Amount(v decimal.Decimal) string {
	f, _ := v.Round(2).Float64()
	return printer.Sprint(number.Decimal(f, number.Scale(2)))
}

// Int formatea enteros con separador de miles.
func Int(n int) string {
	return printer.Sprint(number.Decimal(n))
}

package models

import "github.com/shopspring/decimal"

// MoneyScale is the number of fractional digits stored for amounts and limits.
const MoneyScale = 2

// maxMoney is the exclusive upper bound of a DECIMAL(12,2) column.
var maxMoney = decimal.New(1, 10)

// FitsMoney reports whether d can be stored in a money column without
// rounding or overflow.
func FitsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale)) && d.Abs().LessThan(maxMoney)
}

package entity

import "github.com/shopspring/decimal"

func init() {
	// Amounts go over the wire as JSON numbers; decoding still accepts "12.50".
	decimal.MarshalJSONWithoutQuotes = true
}

// MoneyPlaces is the number of decimal places stored for every amount.
const MoneyPlaces = 2

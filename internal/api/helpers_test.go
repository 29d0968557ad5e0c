package api

import "github.com/shopspring/decimal"

func priceOf(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

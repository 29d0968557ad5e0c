// Package model holds the storefront's wire and domain types.
//
// This package contains type definitions and small pure helpers only. Every
// other internal package imports model; model imports nothing internal.
//
// Key conventions:
//   - JSON tags are camelCase, matching the storefront REST API
//   - Money is decimal.Decimal, marshalled as a bare JSON number
//   - A cart line is identified by (PerfumeID, Volume), never by PerfumeID alone
//
// # Decimal encoding
//
// Importing model sets decimal.MarshalJSONWithoutQuotes, a process-wide
// switch in shopspring/decimal. Every decimal.Decimal marshalled anywhere in
// a binary that links model is written as a bare number, including values
// that never pass through these types. Unmarshalling accepts both forms.
package model

import "github.com/shopspring/decimal"

func init() {
	// The API sends and expects prices as numbers, not quoted strings.
	// Global: affects every decimal user in the process.
	decimal.MarshalJSONWithoutQuotes = true
}

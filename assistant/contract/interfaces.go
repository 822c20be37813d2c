package contract

import "context"

// ProductSearcher ranks catalog products against a free-text query and
// returns the best matches, best first. Zero matches is a valid empty result.
type ProductSearcher interface {
	Search(query string) []Product
}

// CurrencyConverter converts an amount between two 3-letter currency codes
// using a live USD-based rate table.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount float64, from, to string) (ConversionResult, error)
}

// ToolGateway executes one tool invocation. The original user query is passed
// alongside the request because the search tool's chaining rule inspects it.
type ToolGateway interface {
	Dispatch(ctx context.Context, userQuery string, req ToolRequest) ToolResult
}

package tool

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/assistant/contract"
)

const (
	ToolSearchProducts    = "searchProducts"
	ToolConvertCurrencies = "convertCurrencies"
)

const conversionFailedMessage = "Currency conversion failed. Please try again."

// Catalog prices are always stored in USD, so chained conversions read from
// the base currency. Mixed-currency catalogs are not supported.
const baseCurrency = "USD"

var (
	// A price-related keyword anywhere in the query...
	priceKeywordPattern = regexp.MustCompile(`(?i)\b(price|cost|costs|expensive|fee|fees|charge|charges)\b`)
	// ...followed eventually by "in <CCY>" with an uppercase 3-letter code.
	targetCurrencyPattern = regexp.MustCompile(`\bin\s+([A-Z]{3})\b`)
)

// Dispatcher routes a tool invocation to the product searcher or the
// currency converter. For search it additionally applies the chaining rule:
// a price-in-currency query converts every returned product's USD price to
// the detected target currency before the result is handed back.
type Dispatcher struct {
	searcher  contractx.ProductSearcher
	converter contractx.CurrencyConverter
}

func NewDispatcher(searcher contractx.ProductSearcher, converter contractx.CurrencyConverter) *Dispatcher {
	return &Dispatcher{
		searcher:  searcher,
		converter: converter,
	}
}

// Dispatch executes one tool invocation. Failures surface as an inline error
// marker inside the ToolResult so the orchestrator can still complete the
// second phase gracefully; Dispatch never aborts the turn.
func (d *Dispatcher) Dispatch(ctx context.Context, userQuery string, req contractx.ToolRequest) contractx.ToolResult {
	switch req.Tool {
	case ToolSearchProducts:
		return d.dispatchSearch(ctx, userQuery, req)
	case ToolConvertCurrencies:
		return d.dispatchConvert(ctx, req)
	default:
		return contractx.ToolResult{
			Tool:  req.Tool,
			Error: "unknown tool: " + req.Tool,
		}
	}
}

func (d *Dispatcher) dispatchSearch(ctx context.Context, userQuery string, req contractx.ToolRequest) contractx.ToolResult {
	query, ok := stringArg(req.Args, "query")
	if !ok {
		return contractx.ToolResult{Tool: req.Tool, Error: "query is required"}
	}

	products := d.searcher.Search(query)
	views := make([]contractx.ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, contractx.ProductView{
			Title:       p.DisplayTitle,
			Price:       p.Price,
			URL:         p.URL,
			ImageURL:    p.ImageURL,
			ProductType: p.ProductType,
			Variants:    p.Variants,
		})
	}

	if target := DetectTargetCurrency(userQuery); target != "" && len(views) > 0 {
		if err := d.attachConvertedPrices(ctx, views, target); err != nil {
			log.Error().Err(err).Str("target", target).Msg("chained currency conversion failed")
			return contractx.ToolResult{Tool: req.Tool, Error: conversionFailedMessage}
		}
	}

	return contractx.ToolResult{Tool: req.Tool, Result: views}
}

// attachConvertedPrices converts each product's base-currency price to the
// target code. The per-product calls are independent and order-insensitive,
// so they run concurrently; the turn waits for all of them.
func (d *Dispatcher) attachConvertedPrices(ctx context.Context, views []contractx.ProductView, target string) error {
	converted := make([]contractx.ConversionResult, len(views))
	errs := make([]error, len(views))

	var wg sync.WaitGroup
	for i := range views {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			converted[i], errs[i] = d.converter.Convert(ctx, views[i].Price, baseCurrency, target)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	for i := range views {
		result := converted[i]
		views[i].ConvertedPrice = &result
	}
	return nil
}

func (d *Dispatcher) dispatchConvert(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	amount, ok := floatArg(req.Args, "amount")
	if !ok {
		return contractx.ToolResult{Tool: req.Tool, Error: "amount is required"}
	}
	from, ok := stringArg(req.Args, "fromCurrency")
	if !ok {
		return contractx.ToolResult{Tool: req.Tool, Error: "fromCurrency is required"}
	}
	to, ok := stringArg(req.Args, "toCurrency")
	if !ok {
		return contractx.ToolResult{Tool: req.Tool, Error: "toCurrency is required"}
	}

	result, err := d.converter.Convert(ctx, amount, from, to)
	if err != nil {
		log.Error().Err(err).Str("from", from).Str("to", to).Msg("currency conversion failed")
		return contractx.ToolResult{Tool: req.Tool, Error: conversionFailedMessage}
	}

	return contractx.ToolResult{Tool: req.Tool, Result: result}
}

// DetectTargetCurrency scans a user query for the price-in-currency pattern
// and returns the target code, or "" when the query does not ask for a price
// in another currency. The currency code must be uppercase; the price
// keyword is matched case-insensitively.
func DetectTargetCurrency(query string) string {
	loc := priceKeywordPattern.FindStringIndex(query)
	if loc == nil {
		return ""
	}
	m := targetCurrencyPattern.FindStringSubmatch(query[loc[1]:])
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

func stringArg(args map[string]any, key string) (string, bool) {
	raw, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func floatArg(args map[string]any, key string) (float64, bool) {
	raw, ok := args[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

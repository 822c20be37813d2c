package contract

// Product is one catalog record. The catalog is loaded once at startup and
// never mutated, so products are shared by value across concurrent turns.
// Prices are stored in USD.
type Product struct {
	DisplayTitle  string  `json:"displayTitle"`
	EmbeddingText string  `json:"embeddingText"`
	URL           string  `json:"url"`
	ImageURL      string  `json:"imageUrl"`
	ProductType   string  `json:"productType"`
	Discount      float64 `json:"discount"`
	Price         float64 `json:"price"`
	Variants      string  `json:"variants"`
	CreateDate    string  `json:"createDate"`
}

// ProductView is the projection of a Product carried inside a search tool
// result. ConvertedPrice is attached only when the chaining rule fires.
type ProductView struct {
	Title          string            `json:"title"`
	Price          float64           `json:"price"`
	URL            string            `json:"url"`
	ImageURL       string            `json:"imageUrl"`
	ProductType    string            `json:"productType"`
	Variants       string            `json:"variants"`
	ConvertedPrice *ConversionResult `json:"convertedPrice,omitempty"`
}

// ConversionResult satisfies convertedAmount == round(amount*rate, 2) within
// rounding tolerance. Codes are uppercased.
type ConversionResult struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	Amount          float64 `json:"amount"`
	ConvertedAmount float64 `json:"convertedAmount"`
	Rate            float64 `json:"rate"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult carries either a result payload or an inline error marker.
// A non-empty Error never aborts the turn; it is serialized into the
// second-phase prompt so the model can still compose a graceful reply.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

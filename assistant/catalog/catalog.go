package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/assistant/contract"
)

// Store holds the product catalog loaded once at startup. It is never
// mutated after construction and is safe to share across concurrent turns.
type Store struct {
	products []contractx.Product
}

// NewStore wraps an already-built product sequence. The store takes
// ownership of the slice; callers must not modify it afterwards.
func NewStore(products []contractx.Product) *Store {
	return &Store{products: products}
}

// Empty returns a store with no products. Used as the explicit fallback when
// the catalog source cannot be read: searches simply return no results.
func Empty() *Store {
	return &Store{}
}

// Load reads a header-named CSV catalog file. Column order does not matter;
// unknown columns are ignored. Numeric fields that fail to parse degrade to
// zero without dropping the row.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()

	store, err := Parse(f)
	if err != nil {
		return nil, err
	}

	log.Info().Int("products", store.Len()).Str("path", path).Msg("catalog loaded")
	return store, nil
}

// Parse reads catalog records from r. Split out of Load so tests can feed
// in-memory CSV content.
func Parse(r io.Reader) (*Store, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	var products []contractx.Product
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog row: %w", err)
		}

		field := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		products = append(products, contractx.Product{
			DisplayTitle:  field("displayTitle"),
			EmbeddingText: field("embeddingText"),
			URL:           field("url"),
			ImageURL:      field("imageUrl"),
			ProductType:   field("productType"),
			Discount:      parseDecimal(field("discount")),
			Price:         parseDecimal(field("price")),
			Variants:      field("variants"),
			CreateDate:    field("createDate"),
		})
	}

	return &Store{products: products}, nil
}

// Products returns the loaded catalog in file order. Callers must not modify
// the returned slice.
func (s *Store) Products() []contractx.Product {
	return s.products
}

func (s *Store) Len() int {
	return len(s.products)
}

func parseDecimal(raw string) float64 {
	raw = strings.TrimPrefix(raw, "$")
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

package catalog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
)

// ErrUnavailable reports that no product catalog could be loaded. Callers
// omit product context instead of failing the request.
var ErrUnavailable = errors.New("product catalog unavailable")

// Product is one catalog entry, decoded from a JSONL line.
type Product struct {
	ProductId   string   `json:"product_id"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Materials   string   `json:"materials"`
	Description string   `json:"description"`
	Care        string   `json:"care"`
	Price       float64  `json:"price"`
	Sizes       []string `json:"sizes"`
	Color       string   `json:"color,omitempty"`
	Tags        []string `json:"tags"`
}

// Summary renders the fixed-field text used as product context during
// answer synthesis.
func (p Product) Summary() string {
	sizes := "N/A"
	if len(p.Sizes) > 0 {
		sizes = strings.Join(p.Sizes, ", ")
	}

	tags := "None"
	if len(p.Tags) > 0 {
		tags = strings.Join(p.Tags, ", ")
	}

	return fmt.Sprintf(
		"Brand: %s; Category: %s; Materials: %s; Care: %s; Sizes: %s; Tags: %s",
		p.Brand, p.Category, p.Materials, p.Care, sizes, tags,
	)
}

func (p Product) haystack() string {
	parts := []string{
		p.Name,
		p.Brand,
		p.Category,
		p.Materials,
		p.Description,
		p.Care,
		strings.Join(p.Tags, " "),
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Filters narrow a catalog search. Every set field must match; an empty
// Filters matches the whole catalog.
type Filters struct {
	Brand    string
	Category string
	Tag      string
	Size     string
	Query    string
}

func (f Filters) Empty() bool {
	return len(f.Brand) == 0 &&
		len(f.Category) == 0 &&
		len(f.Tag) == 0 &&
		len(f.Size) == 0 &&
		len(f.Query) == 0
}

// Catalog is an immutable, in-memory product list in file order.
type Catalog struct {
	products []Product
}

// Load reads one JSON product per line, skipping blank lines. A missing file
// or malformed line wraps ErrUnavailable.
func Load(path string) (*Catalog, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: no product data path configured", ErrUnavailable)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer file.Close()

	var products []Product

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if len(raw) == 0 {
			continue
		}

		var product Product
		if err := json.Unmarshal([]byte(raw), &product); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrUnavailable, line, err)
		}

		products = append(products, product)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &Catalog{products: products}, nil
}

func (c *Catalog) All() []Product {
	return slices.Clone(c.products)
}

func (c *Catalog) Len() int {
	return len(c.products)
}

// Get finds a product by id, case-insensitively. Nil when absent.
func (c *Catalog) Get(productId string) *Product {
	for _, product := range c.products {
		if strings.EqualFold(product.ProductId, productId) {
			p := product
			return &p
		}
	}
	return nil
}

// Search applies exact-match filters in catalog order. The Query filter is a
// case-insensitive substring match over name, description, materials, care,
// and brand.
func (c *Catalog) Search(filters Filters) []Product {
	candidates := c.products

	if len(filters.Brand) > 0 {
		candidates = filterProducts(candidates, func(p Product) bool {
			return strings.EqualFold(p.Brand, filters.Brand)
		})
	}

	if len(filters.Category) > 0 {
		candidates = filterProducts(candidates, func(p Product) bool {
			return strings.EqualFold(p.Category, filters.Category)
		})
	}

	if len(filters.Tag) > 0 {
		candidates = filterProducts(candidates, func(p Product) bool {
			return containsFold(p.Tags, filters.Tag)
		})
	}

	if len(filters.Size) > 0 {
		candidates = filterProducts(candidates, func(p Product) bool {
			return containsFold(p.Sizes, filters.Size)
		})
	}

	if len(filters.Query) > 0 {
		q := strings.ToLower(filters.Query)
		candidates = filterProducts(candidates, func(p Product) bool {
			return strings.Contains(strings.ToLower(p.Name), q) ||
				strings.Contains(strings.ToLower(p.Description), q) ||
				strings.Contains(strings.ToLower(p.Materials), q) ||
				strings.Contains(strings.ToLower(p.Care), q) ||
				strings.Contains(strings.ToLower(p.Brand), q)
		})
	}

	return slices.Clone(candidates)
}

// LookupFromText matches free text against the catalog: every distinct query
// token of three or more characters that appears anywhere in a product's
// fields counts as one hit. Products are ordered by hits, ties keeping
// catalog order.
func (c *Catalog) LookupFromText(text string) []Product {
	tokens := queryTokens(text)
	if len(tokens) == 0 {
		return nil
	}

	type scored struct {
		product Product
		hits    int
	}

	var candidates []scored

	for _, product := range c.products {
		haystack := product.haystack()

		hits := 0
		for _, token := range tokens {
			if strings.Contains(haystack, token) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}

		candidates = append(candidates, scored{product: product, hits: hits})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].hits > candidates[j].hits
	})

	products := make([]Product, 0, len(candidates))
	for _, candidate := range candidates {
		products = append(products, candidate.product)
	}

	return products
}

func filterProducts(products []Product, keep func(Product) bool) []Product {
	var out []Product
	for _, product := range products {
		if keep(product) {
			out = append(out, product)
		}
	}
	return out
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(value, target) {
			return true
		}
	}
	return false
}

// queryTokens returns the distinct lower-cased ASCII alphanumeric runs of
// three or more characters, in first-seen order. Anything outside a-z0-9,
// accented letters included, is a token boundary.
func queryTokens(text string) []string {
	seen := map[string]struct{}{}
	var tokens []string

	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})

	for _, token := range fields {
		if len(token) < 3 {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}

	return tokens
}

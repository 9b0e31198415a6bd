package domain

type (
	Product struct {
		ID          string
		Name        string
		Brand       string
		Model       string
		Description string
		Price       int
		Images      []string
		Specs       ProductSpecs
		Variants    []Variant
		Reviews     []Review
		Rating      float64
	}

	ProductSpecs struct {
		Diameters []string
		Width     string
		PCD       string
		ETs       []string
		DIA       string
	}

	Variant struct {
		ID       string
		Diameter string
		Width    string
		ET       string
		Price    int
		Stock    int
	}
)

// Variant returns the product variant with the given id.
func (p Product) Variant(variantID string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == variantID {
			return v, true
		}
	}
	return Variant{}, false
}

// TotalStock sums the stock of all product variants.
func (p Product) TotalStock() (n int) {
	for _, v := range p.Variants {
		n += v.Stock
	}
	return n
}

// MinPrice returns the cheapest variant price or the base price
// when the product has no variants.
func (p Product) MinPrice() int {
	if len(p.Variants) == 0 {
		return p.Price
	}
	minPrice := p.Variants[0].Price
	for _, v := range p.Variants[1:] {
		minPrice = min(minPrice, v.Price)
	}
	return minPrice
}

type VariantStock struct {
	Variant   Variant
	Reserved  int
	Remaining int
}

type ProductView struct {
	Product     Product
	Variants    []VariantStock
	Remaining   int
	Highlighted bool
}

type ProductSort string

const (
	SortDefault   ProductSort = ""
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortName      ProductSort = "name"
)

type ProductFilter struct {
	Brands    []string
	Diameters []string
	Widths    []string
	PCDs      []string
	ETs       []string
	PriceMin  int
	PriceMax  int
	InStock   bool
	Query     string
	Sort      ProductSort
	Highlight string
}

type Facets struct {
	Brands    []string
	Diameters []string
	Widths    []string
	PCDs      []string
	ETs       []string
	PriceMin  int
	PriceMax  int
}

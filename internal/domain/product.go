package domain

// TopItem is the best-selling item of a category in one store.
type TopItem struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Qty    float64 `json:"qty"`
	Amount float64 `json:"amount"`
}

// CategoryAggregate is the per-store, per-period total of a product category.
type CategoryAggregate struct {
	Category string  `json:"category"`
	Qty      float64 `json:"qty"`
	Amount   float64 `json:"amount"`
	TopItem  TopItem `json:"top_item"`
}

// StoreCategories lists a store's category aggregates for a period.
type StoreCategories struct {
	StoreName  string              `json:"store_name"`
	Categories []CategoryAggregate `json:"categories"`
}

// CatalogItem is one entry of the global category catalog.
type CatalogItem struct {
	Name   string  `json:"name"`
	Qty    float64 `json:"qty"`
	Amount float64 `json:"amount"`
}

// Catalog maps a category to all of its items. It has no store dimension.
type Catalog map[string][]CatalogItem

// BasketPair counts how often two items were bought together.
type BasketPair struct {
	ItemA     string `json:"item_a"`
	ItemB     string `json:"item_b"`
	Frequency int    `json:"frequency"`
}

// BasketAllKey holds the cross-store basket aggregate.
const BasketAllKey = "all"

type MissedItem struct {
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
}

// MissedOpportunity records a sold item whose usual companion was not sold.
type MissedOpportunity struct {
	SoldItem     string       `json:"sold_item"`
	EmployeeName string       `json:"employee_name"`
	MissedItems  []MissedItem `json:"missed_items"`
	TotalCount   int          `json:"total_count"`
}

// FirstMissed returns the name of the leading missed item or "-".
func (m MissedOpportunity) FirstMissed() string {
	if len(m.MissedItems) == 0 || m.MissedItems[0].Name == "" {
		return "-"
	}
	return m.MissedItems[0].Name
}

// ProductPeriod is the product dataset for one period mode (e.g. "mtd").
type ProductPeriod struct {
	Stores              map[string]StoreCategories     `json:"stores"`
	Catalog             Catalog                        `json:"catalog"`
	MissedOpportunities map[string][]MissedOpportunity `json:"missed_opportunities"`
}

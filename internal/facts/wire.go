package facts

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"github.com/goccy/go-json"
)

// flexString accepts JSON strings and bare numbers (ids are exported both ways).
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(v))
		return nil
	}
	*s = flexString(string(b))
	return nil
}

// flexNumber accepts numbers, numeric strings and null (as 0).
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = flexNumber(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = flexNumber(f)
	return nil
}

// tupleWire decodes a [date, entityId, value] array.
type tupleWire domain.FactTuple

func (t *tupleWire) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("fact tuple: %w", err)
	}
	if len(raw) < 3 {
		return fmt.Errorf("fact tuple: expected 3 elements, got %d", len(raw))
	}

	var (
		date  flexString
		id    flexString
		value flexNumber
	)
	if err := json.Unmarshal(raw[0], &date); err != nil {
		return fmt.Errorf("fact tuple date: %w", err)
	}
	if err := json.Unmarshal(raw[1], &id); err != nil {
		return fmt.Errorf("fact tuple entity: %w", err)
	}
	if err := json.Unmarshal(raw[2], &value); err != nil {
		return fmt.Errorf("fact tuple value: %w", err)
	}

	*t = tupleWire{Date: string(date), EntityID: string(id), Value: float64(value)}
	return nil
}

// employeeRecordWire decodes [date, rawKey, sales, transactions, items, reserved?].
type employeeRecordWire domain.EmployeeRecord

func (r *employeeRecordWire) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("employee record: %w", err)
	}
	if len(raw) < 3 {
		return fmt.Errorf("employee record: expected at least 3 elements, got %d", len(raw))
	}

	var (
		date, key          flexString
		sales, trans, item flexNumber
	)
	if err := json.Unmarshal(raw[0], &date); err != nil {
		return fmt.Errorf("employee record date: %w", err)
	}
	if err := json.Unmarshal(raw[1], &key); err != nil {
		return fmt.Errorf("employee record key: %w", err)
	}
	if err := json.Unmarshal(raw[2], &sales); err != nil {
		return fmt.Errorf("employee record sales: %w", err)
	}
	if len(raw) > 3 {
		if err := json.Unmarshal(raw[3], &trans); err != nil {
			return fmt.Errorf("employee record transactions: %w", err)
		}
	}
	if len(raw) > 4 {
		if err := json.Unmarshal(raw[4], &item); err != nil {
			return fmt.Errorf("employee record items: %w", err)
		}
	}

	*r = employeeRecordWire{
		Date:         string(date),
		RawKey:       string(key),
		Sales:        float64(sales),
		Transactions: float64(trans),
		Items:        float64(item),
	}
	return nil
}

type basketPairWire struct {
	ItemA     string     `json:"item_a_name"`
	ItemB     string     `json:"item_b_name"`
	Frequency flexNumber `json:"frequency"`
}

type managementFile struct {
	Sales        []tupleWire                 `json:"sales"`
	Transactions []tupleWire                 `json:"transactions"`
	Visitors     []tupleWire                 `json:"visitors"`
	Targets      []tupleWire                 `json:"targets"`
	Stores       map[string]string           `json:"stores"`
	StoreMeta    map[string]domain.StoreMeta `json:"store_meta"`
	MarketBasket map[string][]basketPairWire `json:"market_basket"`
}

type employeesFile struct {
	History       map[string][]employeeRecordWire `json:"history"`
	EmployeeNames map[string]string               `json:"employee_names"`
	Targets       map[string]flexNumber           `json:"targets"`
}

type categoryWire struct {
	Category      string     `json:"category"`
	Qty           flexNumber `json:"qty"`
	Amount        flexNumber `json:"amount"`
	TopItemID     flexString `json:"top_item_id"`
	TopItemName   string     `json:"top_item_name"`
	TopItemQty    flexNumber `json:"top_item_qty"`
	TopItemAmount flexNumber `json:"top_item_amount"`
}

type storeCategoriesWire struct {
	StoreName  string         `json:"store_name"`
	Categories []categoryWire `json:"categories"`
}

type catalogItemWire struct {
	Name   string     `json:"name"`
	Qty    flexNumber `json:"qty"`
	Amount flexNumber `json:"amount"`
}

type missedItemWire struct {
	Name  string     `json:"name"`
	Count flexNumber `json:"count"`
}

type missedOpportunityWire struct {
	SoldItem     string           `json:"sold_item"`
	EmployeeName string           `json:"employee_name"`
	MissedItems  []missedItemWire `json:"missed_items"`
	TotalCount   flexNumber       `json:"total_count"`
}

type productPeriodWire struct {
	Stores              map[string]storeCategoriesWire     `json:"stores"`
	Catalog             map[string][]catalogItemWire       `json:"catalog"`
	MissedOpportunities map[string][]missedOpportunityWire `json:"missed_opportunities"`
}

type productFile struct {
	Periods      map[string]productPeriodWire `json:"periods"`
	MarketBasket map[string][]basketPairWire  `json:"market_basket"`
}

func decodeManagement(b []byte, ds *Dataset) error {
	var f managementFile
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("decode management data: %w", err)
	}

	ds.Streams = domain.FactStreams{
		Sales:        toTuples(f.Sales),
		Transactions: toTuples(f.Transactions),
		Visitors:     toTuples(f.Visitors),
		Targets:      toTuples(f.Targets),
	}
	ds.Stores = f.Stores
	ds.StoreMeta = f.StoreMeta
	mergeBasket(ds, f.MarketBasket)
	return nil
}

func decodeEmployees(b []byte, ds *Dataset) error {
	var f employeesFile
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("decode employee data: %w", err)
	}

	ds.EmployeeHistory = make(map[string][]domain.EmployeeRecord, len(f.History))
	for storeID, rows := range f.History {
		records := make([]domain.EmployeeRecord, len(rows))
		for i, r := range rows {
			records[i] = domain.EmployeeRecord(r)
		}
		ds.EmployeeHistory[storeID] = records
	}
	ds.EmployeeNames = f.EmployeeNames
	ds.EmployeeTargets = make(map[string]float64, len(f.Targets))
	for id, v := range f.Targets {
		ds.EmployeeTargets[id] = float64(v)
	}
	return nil
}

func decodeProducts(b []byte, ds *Dataset) error {
	var f productFile
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("decode product data: %w", err)
	}

	ds.Products = make(map[string]domain.ProductPeriod, len(f.Periods))
	for mode, p := range f.Periods {
		period := domain.ProductPeriod{
			Stores:              make(map[string]domain.StoreCategories, len(p.Stores)),
			Catalog:             make(domain.Catalog, len(p.Catalog)),
			MissedOpportunities: make(map[string][]domain.MissedOpportunity, len(p.MissedOpportunities)),
		}
		for sid, sc := range p.Stores {
			cats := make([]domain.CategoryAggregate, len(sc.Categories))
			for i, c := range sc.Categories {
				cats[i] = domain.CategoryAggregate{
					Category: c.Category,
					Qty:      float64(c.Qty),
					Amount:   float64(c.Amount),
					TopItem: domain.TopItem{
						ID:     string(c.TopItemID),
						Name:   c.TopItemName,
						Qty:    float64(c.TopItemQty),
						Amount: float64(c.TopItemAmount),
					},
				}
			}
			period.Stores[sid] = domain.StoreCategories{StoreName: sc.StoreName, Categories: cats}
		}
		for cat, items := range p.Catalog {
			out := make([]domain.CatalogItem, len(items))
			for i, it := range items {
				out[i] = domain.CatalogItem{Name: it.Name, Qty: float64(it.Qty), Amount: float64(it.Amount)}
			}
			period.Catalog[cat] = out
		}
		for sid, list := range p.MissedOpportunities {
			out := make([]domain.MissedOpportunity, len(list))
			for i, m := range list {
				missed := make([]domain.MissedItem, len(m.MissedItems))
				for j, it := range m.MissedItems {
					missed[j] = domain.MissedItem{Name: it.Name, Count: int(it.Count)}
				}
				out[i] = domain.MissedOpportunity{
					SoldItem:     m.SoldItem,
					EmployeeName: m.EmployeeName,
					MissedItems:  missed,
					TotalCount:   int(m.TotalCount),
				}
			}
			period.MissedOpportunities[sid] = out
		}
		ds.Products[mode] = period
	}
	mergeBasket(ds, f.MarketBasket)
	return nil
}

func toTuples(in []tupleWire) []domain.FactTuple {
	out := make([]domain.FactTuple, len(in))
	for i, t := range in {
		out[i] = domain.FactTuple(t)
	}
	return out
}

// mergeBasket keeps the first basket seen per key; management data is
// decoded before product data.
func mergeBasket(ds *Dataset, in map[string][]basketPairWire) {
	if len(in) == 0 {
		return
	}
	if ds.MarketBasket == nil {
		ds.MarketBasket = make(map[string][]domain.BasketPair, len(in))
	}
	for key, pairs := range in {
		if _, exists := ds.MarketBasket[key]; exists {
			continue
		}
		out := make([]domain.BasketPair, len(pairs))
		for i, p := range pairs {
			out[i] = domain.BasketPair{ItemA: p.ItemA, ItemB: p.ItemB, Frequency: int(p.Frequency)}
		}
		ds.MarketBasket[key] = out
	}
}

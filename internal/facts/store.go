package facts

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
)

// Dataset is the raw material of a Store. Maps are keyed by store id unless
// noted otherwise.
type Dataset struct {
	Streams         domain.FactStreams
	Stores          map[string]string
	StoreMeta       map[string]domain.StoreMeta
	EmployeeHistory map[string][]domain.EmployeeRecord
	EmployeeNames   map[string]string  // employee id -> canonical name
	EmployeeTargets map[string]float64 // employee id -> monthly target
	MarketBasket    map[string][]domain.BasketPair
	Products        map[string]domain.ProductPeriod // period mode -> data
}

// Store is the normalized, read-only view over a loaded Dataset. It is
// shared by every pass of a report generation and must not be mutated;
// maps returned by accessors are the store's own.
type Store struct {
	ds        Dataset
	storeIDs  []string
	entityIDs []string
	version   string
	loadedAt  time.Time
}

// New wraps ds into a Store. Nil maps are replaced with empty ones.
func New(ds Dataset) *Store {
	if ds.Stores == nil {
		ds.Stores = map[string]string{}
	}
	if ds.StoreMeta == nil {
		ds.StoreMeta = map[string]domain.StoreMeta{}
	}
	if ds.EmployeeHistory == nil {
		ds.EmployeeHistory = map[string][]domain.EmployeeRecord{}
	}
	if ds.EmployeeNames == nil {
		ds.EmployeeNames = map[string]string{}
	}
	if ds.EmployeeTargets == nil {
		ds.EmployeeTargets = map[string]float64{}
	}
	if ds.MarketBasket == nil {
		ds.MarketBasket = map[string][]domain.BasketPair{}
	}
	if ds.Products == nil {
		ds.Products = map[string]domain.ProductPeriod{}
	}

	seen := make(map[string]struct{}, len(ds.StoreMeta)+len(ds.Stores))
	ids := make([]string, 0, len(ds.StoreMeta)+len(ds.Stores))
	for id := range ds.StoreMeta {
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for id := range ds.Stores {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	SortIDs(ids)

	entities := append([]string(nil), ids...)
	addEntity := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			entities = append(entities, id)
		}
	}
	ds.Streams.Each(func(_ domain.Stream, tuples []domain.FactTuple) {
		for _, t := range tuples {
			addEntity(t.EntityID)
		}
	})
	for id := range ds.EmployeeHistory {
		addEntity(id)
	}
	SortIDs(entities)

	return &Store{ds: ds, storeIDs: ids, entityIDs: entities, loadedAt: time.Now()}
}

func (s *Store) withVersion(version string) *Store {
	s.version = version
	return s
}

// Version identifies the loaded content; equal content yields equal versions.
func (s *Store) Version() string { return s.version }

func (s *Store) LoadedAt() time.Time { return s.loadedAt }

func (s *Store) Streams() domain.FactStreams { return s.ds.Streams }

func (s *Store) StoreMeta() map[string]domain.StoreMeta { return s.ds.StoreMeta }

func (s *Store) Meta(id string) (domain.StoreMeta, bool) {
	m, ok := s.ds.StoreMeta[id]
	return m, ok
}

// StoreName resolves a display name: localized metadata name, then metadata
// name, then the stores dictionary, then the id itself.
func (s *Store) StoreName(id string) string {
	if m, ok := s.ds.StoreMeta[id]; ok {
		if name := m.DisplayName(); name != "" {
			return name
		}
	}
	if name, ok := s.ds.Stores[id]; ok && name != "" {
		return name
	}
	return id
}

// EntityIDs returns StoreIDs plus every store id that only appears in the
// fact streams or the employee history, in the same order.
func (s *Store) EntityIDs() []string {
	out := make([]string, len(s.entityIDs))
	copy(out, s.entityIDs)
	return out
}

// StoreIDs returns every known store id in ascending order (numeric ids
// compare numerically). The slice is a copy.
func (s *Store) StoreIDs() []string {
	out := make([]string, len(s.storeIDs))
	copy(out, s.storeIDs)
	return out
}

func (s *Store) EmployeeHistory() map[string][]domain.EmployeeRecord { return s.ds.EmployeeHistory }

func (s *Store) EmployeeNames() map[string]string { return s.ds.EmployeeNames }

func (s *Store) EmployeeTarget(id string) float64 { return s.ds.EmployeeTargets[id] }

// Basket returns the basket pairs stored under key (a store id or BasketAllKey).
func (s *Store) Basket(key string) []domain.BasketPair { return s.ds.MarketBasket[key] }

func (s *Store) ProductPeriod(mode string) (domain.ProductPeriod, bool) {
	p, ok := s.ds.Products[mode]
	return p, ok
}

// ProductModes lists the product period modes present, sorted.
func (s *Store) ProductModes() []string {
	modes := make([]string, 0, len(s.ds.Products))
	for mode := range s.ds.Products {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}

var excludedManagers = map[string]struct{}{
	"unknown": {},
	"online":  {},
}

// Managers lists distinct store managers, skipping placeholder values.
func (s *Store) Managers() []string {
	return s.distinct(func(m domain.StoreMeta) string {
		if _, skip := excludedManagers[strings.ToLower(strings.TrimSpace(m.Manager))]; skip {
			return ""
		}
		return m.Manager
	})
}

func (s *Store) Regions() []string {
	return s.distinct(func(m domain.StoreMeta) string { return m.Region })
}

func (s *Store) Cities() []string {
	return s.distinct(func(m domain.StoreMeta) string { return m.City })
}

func (s *Store) distinct(field func(domain.StoreMeta) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range s.ds.StoreMeta {
		v := strings.TrimSpace(field(m))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// SortIDs orders ids ascending, numerically when both sides are integers.
func SortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })
}

func lessID(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

package analytics

import (
	"sort"
	"strings"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
)

const unknownPrefix = "unknown"

// Identity is the canonical form of an employee raw key.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Malformed is set when no parse rule produced an id and the whole raw
	// key was used instead.
	Malformed bool `json:"-"`
}

// EntityIDResolver turns ambiguous employee keys into canonical identities.
// The name dictionary always wins over names parsed from the key.
type EntityIDResolver struct {
	names       map[string]string
	returnToken string
}

func NewEntityIDResolver(names map[string]string, returnToken string) *EntityIDResolver {
	return &EntityIDResolver{names: names, returnToken: strings.TrimSpace(returnToken)}
}

// Resolve parses rawKey:
//   - "id-name": id before the first '-', name after it (fallback only)
//   - "unknown<suffix>" (any case): id is the raw key, name the suffix
//   - anything else: id and name are the raw key
func (r *EntityIDResolver) Resolve(rawKey string) Identity {
	raw := strings.TrimSpace(rawKey)

	var ident Identity
	switch {
	case strings.Contains(raw, "-"):
		idPart, namePart, _ := strings.Cut(raw, "-")
		ident = Identity{ID: strings.TrimSpace(idPart), Name: strings.TrimSpace(namePart)}
	case len(raw) >= len(unknownPrefix) && strings.EqualFold(raw[:len(unknownPrefix)], unknownPrefix):
		ident = Identity{ID: raw, Name: strings.TrimSpace(raw[len(unknownPrefix):])}
	default:
		ident = Identity{ID: raw, Name: raw}
	}

	if ident.ID == "" {
		ident = Identity{ID: raw, Name: raw, Malformed: true}
	}

	if name, ok := r.names[ident.ID]; ok && strings.TrimSpace(name) != "" {
		ident.Name = strings.TrimSpace(name)
	}
	return ident
}

// IsReturn reports whether ident is the reversal marker rather than a person.
func (r *EntityIDResolver) IsReturn(ident Identity) bool {
	return r.returnToken != "" && ident.Name == r.returnToken
}

// Periods are the windows an employee directory totals over.
type Periods struct {
	Current  Period `json:"current"`
	Previous Period `json:"previous"`
	Latest   Period `json:"latest"`
}

// EmployeeIdentity is a resolved employee with cross-store totals.
type EmployeeIdentity struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PrimaryStore string `json:"primary_store"`
	// PerStore holds current-period sums per store.
	PerStore map[string]Measures `json:"per_store"`
	Current  Measures            `json:"current"`
	Previous Measures            `json:"previous"`
	Latest   Measures            `json:"latest"`

	lastActiveDate  string
	lastActiveStore string
	storeOrder      []string
	lifetime        map[string]float64
}

// Directory is the read-only set of resolved employees for one report
// generation. It is built once over every store.
type Directory struct {
	entries map[string]*EmployeeIdentity
	order   []string
}

// BuildDirectory scans all stores' records. Stores are visited in
// storeOrder first, then any remaining store ids in ascending order; that
// visiting order breaks primary-store ties. Return records are dropped.
func (r *EntityIDResolver) BuildDirectory(history map[string][]domain.EmployeeRecord, storeOrder []string, periods Periods) *Directory {
	d := &Directory{entries: make(map[string]*EmployeeIdentity)}

	for _, storeID := range visitOrder(history, storeOrder) {
		for _, rec := range history[storeID] {
			ident := r.Resolve(rec.RawKey)
			if r.IsReturn(ident) || ident.ID == "" {
				continue
			}

			e := d.entry(ident)
			if _, seen := e.lifetime[storeID]; !seen {
				e.storeOrder = append(e.storeOrder, storeID)
			}
			e.lifetime[storeID] += rec.Sales

			m := Measures{Sales: rec.Sales, Trans: rec.Transactions, Items: rec.Items}
			if periods.Current.Contains(rec.Date) {
				e.Current.Add(m)
				ps := e.PerStore[storeID]
				ps.Add(m)
				e.PerStore[storeID] = ps
				if rec.Active() && rec.Date > e.lastActiveDate {
					e.lastActiveDate = rec.Date
					e.lastActiveStore = storeID
				}
			}
			if periods.Previous.Valid() && periods.Previous.Contains(rec.Date) {
				e.Previous.Add(m)
			}
			if periods.Latest.Valid() && periods.Latest.Contains(rec.Date) {
				e.Latest.Add(m)
			}
		}
	}

	for _, e := range d.entries {
		e.PrimaryStore = e.resolvePrimary()
	}
	return d
}

// resolvePrimary picks the store of the latest positive activity in the
// current period, else the store with the largest accumulated sales.
func (e *EmployeeIdentity) resolvePrimary() string {
	if e.lastActiveStore != "" {
		return e.lastActiveStore
	}
	best := ""
	bestSales := 0.0
	for i, sid := range e.storeOrder {
		if i == 0 || e.lifetime[sid] > bestSales {
			best, bestSales = sid, e.lifetime[sid]
		}
	}
	return best
}

func (d *Directory) entry(ident Identity) *EmployeeIdentity {
	e, ok := d.entries[ident.ID]
	if !ok {
		e = &EmployeeIdentity{
			ID:       ident.ID,
			Name:     ident.Name,
			PerStore: make(map[string]Measures),
			lifetime: make(map[string]float64),
		}
		d.entries[ident.ID] = e
		d.order = append(d.order, ident.ID)
	}
	if e.Name == "" {
		e.Name = ident.Name
	}
	return e
}

func visitOrder(history map[string][]domain.EmployeeRecord, preferred []string) []string {
	seen := make(map[string]struct{}, len(history))
	out := make([]string, 0, len(history))
	for _, id := range preferred {
		if _, ok := history[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	var rest []string
	for id := range history {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func (d *Directory) Len() int { return len(d.entries) }

// Get returns the employee with id.
func (d *Directory) Get(id string) (EmployeeIdentity, bool) {
	e, ok := d.entries[id]
	if !ok {
		return EmployeeIdentity{}, false
	}
	return *e, true
}

// All returns every employee in first-seen order.
func (d *Directory) All() []EmployeeIdentity {
	out := make([]EmployeeIdentity, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, *d.entries[id])
	}
	return out
}

// ForStore returns the employees whose primary store is storeID.
func (d *Directory) ForStore(storeID string) []EmployeeIdentity {
	var out []EmployeeIdentity
	for _, id := range d.order {
		if e := d.entries[id]; e.PrimaryStore == storeID {
			out = append(out, *e)
		}
	}
	return out
}

package domain

// FactTuple is one observation of a fact stream: a value recorded for an
// entity (usually a store id) on an ISO date.
type FactTuple struct {
	Date     string  `json:"date"`
	EntityID string  `json:"entity_id"`
	Value    float64 `json:"value"`
}

// Stream identifies which measure a tuple stream feeds.
type Stream int

const (
	StreamSales Stream = iota
	StreamTransactions
	StreamVisitors
	StreamTargets
)

var streamNames = map[Stream]string{
	StreamSales:        "sales",
	StreamTransactions: "transactions",
	StreamVisitors:     "visitors",
	StreamTargets:      "targets",
}

func (s Stream) String() string {
	if name, ok := streamNames[s]; ok {
		return name
	}
	return "unknown"
}

// FactStreams holds the four parallel tuple streams. Duplicate (date, entity)
// pairs are legal and accumulate additively.
type FactStreams struct {
	Sales        []FactTuple `json:"sales"`
	Transactions []FactTuple `json:"transactions"`
	Visitors     []FactTuple `json:"visitors"`
	Targets      []FactTuple `json:"targets"`
}

// Each calls fn for every stream with its kind.
func (f FactStreams) Each(fn func(Stream, []FactTuple)) {
	fn(StreamSales, f.Sales)
	fn(StreamTransactions, f.Transactions)
	fn(StreamVisitors, f.Visitors)
	fn(StreamTargets, f.Targets)
}

// Len returns the total tuple count across streams.
func (f FactStreams) Len() int {
	return len(f.Sales) + len(f.Transactions) + len(f.Visitors) + len(f.Targets)
}

// StoreTypeShowroom marks retail showrooms in store metadata.
const StoreTypeShowroom = "Showroom"

// StoreMeta is immutable reference data for a store.
type StoreMeta struct {
	Name    string `json:"name"`
	NameAr  string `json:"name_ar,omitempty"`
	Manager string `json:"manager"`
	City    string `json:"city"`
	Type    string `json:"type"`
	Region  string `json:"region"`
}

// DisplayName prefers the localized name.
func (m StoreMeta) DisplayName() string {
	if m.NameAr != "" {
		return m.NameAr
	}
	return m.Name
}

// EmployeeRecord is a single daily row of employee activity in a store.
// RawKey is either a bare id, "id-displayName" or "unknown<suffix>".
type EmployeeRecord struct {
	Date         string  `json:"date"`
	RawKey       string  `json:"raw_key"`
	Sales        float64 `json:"sales"`
	Transactions float64 `json:"transactions"`
	Items        float64 `json:"items"`
}

// Active reports whether the record carries positive sales or transactions.
func (r EmployeeRecord) Active() bool {
	return r.Sales > 0 || r.Transactions > 0
}

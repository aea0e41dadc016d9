package analytics

import (
	"context"
	"time"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Measures are the additive sums a pass accumulates per key.
type Measures struct {
	Sales    float64 `json:"sales"`
	Trans    float64 `json:"trans"`
	Visitors float64 `json:"visitors"`
	Target   float64 `json:"target"`
	Items    float64 `json:"items"`
}

// Add sums o into m field by field.
func (m *Measures) Add(o Measures) {
	m.Sales += o.Sales
	m.Trans += o.Trans
	m.Visitors += o.Visitors
	m.Target += o.Target
	m.Items += o.Items
}

// Plus returns m + o.
func (m Measures) Plus(o Measures) Measures {
	m.Add(o)
	return m
}

// AddStream adds v into the slot fed by stream s.
func (m *Measures) AddStream(s domain.Stream, v float64) {
	switch s {
	case domain.StreamSales:
		m.Sales += v
	case domain.StreamTransactions:
		m.Trans += v
	case domain.StreamVisitors:
		m.Visitors += v
	case domain.StreamTargets:
		m.Target += v
	}
}

// Active reports positive sales or transactions.
func (m Measures) Active() bool {
	return m.Sales > 0 || m.Trans > 0
}

// Accumulator maps keys to measures for a single pass. Entries are created
// on first contribution and never removed. It is not safe for concurrent
// use; every pass owns its own accumulator.
type Accumulator[K comparable] struct {
	entries map[K]*Measures
	order   []K
}

func NewAccumulator[K comparable]() *Accumulator[K] {
	return &Accumulator[K]{entries: make(map[K]*Measures)}
}

func (a *Accumulator[K]) entry(key K) *Measures {
	m, ok := a.entries[key]
	if !ok {
		m = &Measures{}
		a.entries[key] = m
		a.order = append(a.order, key)
	}
	return m
}

// Add accumulates m under key.
func (a *Accumulator[K]) Add(key K, m Measures) {
	a.entry(key).Add(m)
}

// AddStream accumulates a single stream value under key.
func (a *Accumulator[K]) AddStream(key K, s domain.Stream, v float64) {
	a.entry(key).AddStream(s, v)
}

// Get returns the measures for key.
func (a *Accumulator[K]) Get(key K) (Measures, bool) {
	m, ok := a.entries[key]
	if !ok {
		return Measures{}, false
	}
	return *m, true
}

func (a *Accumulator[K]) Len() int { return len(a.entries) }

// Keys returns keys in first-contribution order.
func (a *Accumulator[K]) Keys() []K {
	out := make([]K, len(a.order))
	copy(out, a.order)
	return out
}

// Each visits entries in first-contribution order.
func (a *Accumulator[K]) Each(fn func(K, Measures)) {
	for _, k := range a.order {
		fn(k, *a.entries[k])
	}
}

// Total sums every entry.
func (a *Accumulator[K]) Total() Measures {
	var t Measures
	for _, m := range a.entries {
		t.Add(*m)
	}
	return t
}

// Merge adds every entry of b into a.
func (a *Accumulator[K]) Merge(b *Accumulator[K]) {
	b.Each(func(k K, m Measures) { a.Add(k, m) })
}

// Snapshot copies the entries into a plain map.
func (a *Accumulator[K]) Snapshot() map[K]Measures {
	out := make(map[K]Measures, len(a.entries))
	for k, m := range a.entries {
		out[k] = *m
	}
	return out
}

// KeyFunc maps a fact to its group key.
type KeyFunc[K comparable] func(date, entityID string) K

// Aggregate runs one pass over every stream. Grouping is entirely decided by
// keyFn; a nil predicate accepts everything.
func Aggregate[K comparable](streams domain.FactStreams, keyFn KeyFunc[K], pred Predicate) *Accumulator[K] {
	if pred == nil {
		pred = AcceptAll
	}
	acc := NewAccumulator[K]()
	streams.Each(func(s domain.Stream, tuples []domain.FactTuple) {
		for _, t := range tuples {
			if !pred(t.EntityID, t.Date) {
				continue
			}
			acc.AddStream(keyFn(t.Date, t.EntityID), s, t.Value)
		}
	})
	return acc
}

// RunPasses executes independent passes concurrently. Each pass must write
// only to its own accumulator.
func RunPasses(ctx context.Context, passes ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, pass := range passes {
		if pass == nil {
			continue
		}
		g.Go(func() error { return pass(gctx) })
	}
	return g.Wait()
}

// DateEntity is the date x entity grouping key.
type DateEntity struct {
	Date     string
	EntityID string
}

func ByDateEntity(date, entityID string) DateEntity { return DateEntity{Date: date, EntityID: entityID} }

func ByEntity(_, entityID string) string { return entityID }

func ByDate(date, _ string) string { return date }

// ShiftDate moves an ISO date by whole years, clamping Feb 29 to Feb 28.
func ShiftDate(date string, years int) (string, bool) {
	t, err := time.Parse(isoDate, date)
	if err != nil {
		return "", false
	}
	shifted := t.AddDate(years, 0, 0)
	if shifted.Day() != t.Day() {
		shifted = time.Date(t.Year()+years, t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return shifted.Format(isoDate), true
}

// ShiftedKey re-keys facts from a comparison period onto the current one,
// e.g. ShiftedKey(ByDate, 1) lines last year's dates up with this year's.
func ShiftedKey[K comparable](keyFn KeyFunc[K], years int) KeyFunc[K] {
	return func(date, entityID string) K {
		if shifted, ok := ShiftDate(date, years); ok {
			date = shifted
		}
		return keyFn(date, entityID)
	}
}

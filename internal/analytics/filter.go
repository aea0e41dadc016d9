package analytics

import (
	"strings"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
)

// All is the sentinel selection that disables a filter dimension.
const All = "all"

// FilterSelection is the explicit set of optional filters a report accepts.
// Every dimension defaults to All; Start and End bound an inclusive ISO date
// range and are open when empty.
type FilterSelection struct {
	Branch  string `json:"branch,omitempty"`
	Manager string `json:"manager,omitempty"`
	City    string `json:"city,omitempty"`
	Type    string `json:"type,omitempty"`
	Region  string `json:"region,omitempty"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
}

// Normalize trims every field and maps empty dimensions to All.
func (f FilterSelection) Normalize() FilterSelection {
	norm := func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" || strings.EqualFold(v, All) {
			return All
		}
		return v
	}
	return FilterSelection{
		Branch:  norm(f.Branch),
		Manager: norm(f.Manager),
		City:    norm(f.City),
		Type:    norm(f.Type),
		Region:  norm(f.Region),
		Start:   strings.TrimSpace(f.Start),
		End:     strings.TrimSpace(f.End),
	}
}

// Predicate decides whether a fact for entityID on date takes part in a pass.
type Predicate func(entityID, date string) bool

// EntityPredicate is the date-free part of a Predicate.
type EntityPredicate func(entityID string) bool

// AcceptAll accepts every fact.
func AcceptAll(string, string) bool { return true }

// And combines two predicates.
func (p Predicate) And(q Predicate) Predicate {
	if p == nil {
		return q
	}
	if q == nil {
		return p
	}
	return func(entityID, date string) bool {
		return p(entityID, date) && q(entityID, date)
	}
}

type dimension struct {
	selected string
	value    func(domain.StoreMeta) string
}

// BuildEntityPredicate composes the dimension filters. Entities missing from
// meta have no attributes, so any selected metadata dimension rejects them;
// the branch filter compares the id itself.
func BuildEntityPredicate(sel FilterSelection, meta map[string]domain.StoreMeta) EntityPredicate {
	sel = sel.Normalize()

	var dims []dimension
	add := func(selected string, value func(domain.StoreMeta) string) {
		if selected != All {
			dims = append(dims, dimension{selected: selected, value: value})
		}
	}
	add(sel.Manager, func(m domain.StoreMeta) string { return m.Manager })
	add(sel.City, func(m domain.StoreMeta) string { return m.City })
	add(sel.Type, func(m domain.StoreMeta) string { return m.Type })
	add(sel.Region, func(m domain.StoreMeta) string { return m.Region })

	branch := sel.Branch
	return func(entityID string) bool {
		if branch != All && entityID != branch {
			return false
		}
		if len(dims) == 0 {
			return true
		}
		m, ok := meta[entityID]
		if !ok {
			return false
		}
		for _, d := range dims {
			if d.value(m) != d.selected {
				return false
			}
		}
		return true
	}
}

// DateInRange compares ISO dates as strings; zero-padded ISO dates sort
// lexicographically in chronological order.
func DateInRange(date, start, end string) bool {
	if start != "" && date < start {
		return false
	}
	if end != "" && date > end {
		return false
	}
	return true
}

// BuildPredicate returns accepts(entityID, date) for sel.
func BuildPredicate(sel FilterSelection, meta map[string]domain.StoreMeta) Predicate {
	sel = sel.Normalize()
	entity := BuildEntityPredicate(sel, meta)
	start, end := sel.Start, sel.End
	return func(entityID, date string) bool {
		return DateInRange(date, start, end) && entity(entityID)
	}
}

// FilterEntities keeps the ids accepted by pred, preserving order.
func FilterEntities(ids []string, pred EntityPredicate) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if pred(id) {
			out = append(out, id)
		}
	}
	return out
}

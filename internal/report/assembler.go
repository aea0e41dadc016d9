package report

import (
	"context"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Section is a titled group of tables. Sections whose tables are all empty
// are skipped, so no empty page is ever emitted.
type Section struct {
	Title   string
	Lines   []string
	NewPage bool
	Tables  []TableBuilder
}

// Detail is a per-entity block of sections. Build reports false when the
// entity had no qualifying activity.
type Detail struct {
	EntityID string
	Build    func(ctx context.Context) ([]Section, bool)
}

// Composition is the global summary followed by optional detail pages.
type Composition struct {
	Global      []Section
	Details     []Detail
	SummaryOnly bool
}

type composeState int

const (
	stateGlobalPending composeState = iota
	stateGlobalEmitted
	stateDetail
	stateDone
)

func (s composeState) String() string {
	switch s {
	case stateGlobalPending:
		return "GLOBAL_PENDING"
	case stateGlobalEmitted:
		return "GLOBAL_EMITTED"
	case stateDetail:
		return "DETAIL"
	case stateDone:
		return "DONE"
	}
	return "UNKNOWN"
}

// Assembler turns sections into sink blocks.
type Assembler struct {
	sink    Sink
	log     zerolog.Logger
	state   composeState
	emitted int
}

func NewAssembler(sink Sink) *Assembler {
	return &Assembler{
		sink: sink,
		log:  log.With().Str("component", "assembler").Logger(),
	}
}

// Emitted is the number of sections written so far.
func (a *Assembler) Emitted() int { return a.emitted }

// Assemble emits sections in order. It returns ErrNoMatchingRows when no
// section had rows. A cancelled or expired ctx stops it before the next
// section starts, never inside one.
func (a *Assembler) Assemble(ctx context.Context, sections []Section) error {
	for _, s := range sections {
		if _, err := a.emitSection(ctx, s); err != nil {
			return err
		}
	}
	if a.emitted == 0 {
		return domain.ErrNoMatchingRows
	}
	return nil
}

// Compose runs the GLOBAL_PENDING -> GLOBAL_EMITTED -> DETAIL* -> DONE
// sequence. Detail pages are skipped in summary-only mode and for entities
// without activity.
func (a *Assembler) Compose(ctx context.Context, c Composition) error {
	a.transition(stateGlobalPending, "")
	for _, s := range c.Global {
		if _, err := a.emitSection(ctx, s); err != nil {
			return err
		}
	}
	a.transition(stateGlobalEmitted, "")

	if !c.SummaryOnly {
		for _, d := range c.Details {
			if err := ctx.Err(); err != nil {
				return err
			}
			a.transition(stateDetail, d.EntityID)

			sections, active := d.Build(ctx)
			if !active {
				a.log.Debug().Str("entity", d.EntityID).Msg("no activity, detail skipped")
				continue
			}
			first := true
			for _, s := range sections {
				if first {
					s.NewPage = true
				}
				ok, err := a.emitSection(ctx, s)
				if err != nil {
					return err
				}
				if ok {
					first = false
				}
			}
		}
	}
	a.transition(stateDone, "")

	if a.emitted == 0 {
		return domain.ErrNoMatchingRows
	}
	return nil
}

func (a *Assembler) transition(to composeState, entity string) {
	ev := a.log.Debug().Str("from", a.state.String()).Str("to", to.String())
	if entity != "" {
		ev = ev.Str("entity", entity)
	}
	ev.Msg("compose transition")
	a.state = to
}

func (a *Assembler) emitSection(ctx context.Context, s Section) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	tables := make([]*Table, 0, len(s.Tables))
	for _, b := range s.Tables {
		t, err := b.Build(ctx)
		if err != nil {
			return false, err
		}
		if t != nil {
			tables = append(tables, t)
		}
	}
	if len(tables) == 0 {
		return false, nil
	}

	if (s.NewPage && a.emitted > 0) || a.sink.Overflowed() {
		if err := a.sink.PageBreak(); err != nil {
			return false, err
		}
	}
	if err := a.sink.Heading(Heading{Title: s.Title, Lines: s.Lines}); err != nil {
		return false, err
	}
	for _, t := range tables {
		if a.sink.Overflowed() {
			if err := a.sink.PageBreak(); err != nil {
				return false, err
			}
		}
		if err := a.sink.Table(t); err != nil {
			return false, err
		}
	}
	if a.sink.Overflowed() {
		if err := a.sink.PageBreak(); err != nil {
			return false, err
		}
	}

	a.emitted++
	return true, nil
}

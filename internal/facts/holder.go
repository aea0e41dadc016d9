package facts

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/andresuchdata/storepulse/backend-go/internal/domain"
)

// Holder publishes the current Store. Reports grab a snapshot with Current
// and keep it for the whole generation, so a concurrent Reload never changes
// data under a running pass.
type Holder struct {
	current atomic.Pointer[Store]
	loader  *Loader
	mu      sync.Mutex
}

func NewHolder(loader *Loader) *Holder {
	return &Holder{loader: loader}
}

// Current returns the loaded store or ErrDataUnavailable.
func (h *Holder) Current() (*Store, error) {
	s := h.current.Load()
	if s == nil {
		return nil, domain.ErrDataUnavailable
	}
	return s, nil
}

// Set publishes s directly.
func (h *Holder) Set(s *Store) {
	h.current.Store(s)
}

// Reload loads a fresh store and publishes it. Concurrent reloads are
// serialized; on failure the previous store stays current.
func (h *Holder) Reload(ctx context.Context) (*Store, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.loader == nil {
		return h.Current()
	}
	s, err := h.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	h.current.Store(s)
	return s, nil
}

// Package hooks is a small synchronous event bus. Subscribers declare the
// stage they belong to; Emit runs stages in declaration order and handlers
// within a stage in subscription order.
package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type Event string

const (
	// BeforeTotals fires on every cart recalculation pass. Payload: *TotalsPayload.
	BeforeTotals Event = "before_totals"
	// AdminMenu fires once while the admin server builds its routes. Payload: *MenuPayload.
	AdminMenu Event = "admin_menu"
	// RegisterSettings fires when option keys are declared. Payload: *SettingsPayload.
	RegisterSettings Event = "register_settings"
	// Uninstall fires when the promotion is removed. Payload: nil.
	Uninstall Event = "uninstall"
)

// Stage orders handlers of the same event.
type Stage int

const (
	StageDefault Stage = iota
	// StageReconcile adds and removes free lines.
	StageReconcile
	// StagePricing overrides prices; it must see the lines reconcile produced.
	StagePricing
)

func (s Stage) String() string {
	switch s {
	case StageDefault:
		return "default"
	case StageReconcile:
		return "reconcile"
	case StagePricing:
		return "pricing"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

type Handler func(ctx context.Context, payload any) error

type subscription struct {
	stage   Stage
	seq     int
	name    string
	handler Handler
}

type Bus struct {
	mu   sync.RWMutex
	subs map[Event][]subscription
	seq  int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Event][]subscription)}
}

// Subscribe registers handler for event. name shows up in errors.
func (b *Bus) Subscribe(event Event, stage Stage, name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	subs := append(b.subs[event], subscription{stage: stage, seq: b.seq, name: name, handler: handler})
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].stage != subs[j].stage {
			return subs[i].stage < subs[j].stage
		}
		return subs[i].seq < subs[j].seq
	})
	b.subs[event] = subs
}

// Handlers returns the handler names of event in run order.
func (b *Bus) Handlers(event Event) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.subs[event]))
	for _, s := range b.subs[event] {
		names = append(names, s.name)
	}
	return names
}

// Emit runs every handler of event. The first error stops the chain.
func (b *Bus) Emit(ctx context.Context, event Event, payload any) error {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs[event]))
	copy(subs, b.subs[event])
	b.mu.RUnlock()

	for _, s := range subs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.handler(ctx, payload); err != nil {
			return fmt.Errorf("%s handler %q: %w", event, s.name, err)
		}
	}
	return nil
}

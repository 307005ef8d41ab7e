package promo

import (
	"context"
	"fmt"

	"github.com/acapretti/bogofree/pkg/hooks"
)

const (
	noteResult   = "promo.result"
	noteRepriced = "promo.repriced"
)

// Report is what both BeforeTotals handlers did during one pass.
type Report struct {
	Result
	Skipped  bool
	Repriced []string
}

// ReportFrom collects the annotations left on p by the promo handlers.
func ReportFrom(p *hooks.TotalsPayload) Report {
	var r Report
	if v, ok := p.Annotation(noteResult); ok {
		r.Result = v.(Result)
	}
	if v, ok := p.Annotation(noteRepriced); ok {
		r.Repriced = v.([]string)
	}
	r.Skipped = p.Skip()
	return r
}

// Register subscribes reconciliation and the price override to BeforeTotals.
// The override is declared in the later stage so it always sees added lines.
func (s *Synchronizer) Register(bus *hooks.Bus) {
	bus.Subscribe(hooks.BeforeTotals, hooks.StageReconcile, "promo.reconcile", s.handleReconcile)
	bus.Subscribe(hooks.BeforeTotals, hooks.StagePricing, "promo.free-prices", s.handleFreePrices)
}

func totalsPayload(payload any) (*hooks.TotalsPayload, error) {
	p, ok := payload.(*hooks.TotalsPayload)
	if !ok || p == nil || p.Cart == nil {
		return nil, fmt.Errorf("unexpected payload %T", payload)
	}
	return p, nil
}

func (s *Synchronizer) handleReconcile(ctx context.Context, payload any) error {
	p, err := totalsPayload(payload)
	if err != nil {
		return err
	}
	if p.Skip() {
		return nil
	}
	res, err := s.Reconcile(ctx, p.Cart)
	if err != nil {
		return err
	}
	if res.Changed() {
		s.log.Infof("free gifts reconciled: %d added, %d removed", len(res.Added), len(res.Removed))
	}
	p.Annotate(noteResult, res)
	return nil
}

func (s *Synchronizer) handleFreePrices(_ context.Context, payload any) error {
	p, err := totalsPayload(payload)
	if err != nil {
		return err
	}
	if p.Skip() {
		return nil
	}
	p.Annotate(noteRepriced, ApplyFreePrices(p.Cart))
	return nil
}

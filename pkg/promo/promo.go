// Package promo keeps free gift lines in a cart in step with the configured
// trigger products and categories.
package promo

import (
	"context"
	"fmt"

	"github.com/acapretti/bogofree/pkg/cart"
	"github.com/acapretti/bogofree/pkg/catalog"
	"github.com/acapretti/bogofree/pkg/settings"
	"github.com/shopspring/decimal"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Result describes what one reconcile pass did to a cart.
type Result struct {
	Enabled   bool
	Qualifies bool
	Added     []cart.Line
	Removed   []cart.Line
	// Failed lists free products the cart refused to add.
	Failed []cart.ProductID
}

// Changed reports whether the pass added or removed anything.
func (r Result) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}

type Synchronizer struct {
	repo    settings.Repository
	catalog catalog.Catalog
	log     Logger
}

type Option func(*Synchronizer)

func WithLogger(l Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.log = l
		}
	}
}

// New wires a Synchronizer. cat may be nil when only product ids are used as triggers;
// category triggers then never match.
func New(repo settings.Repository, cat catalog.Catalog, opts ...Option) *Synchronizer {
	s := &Synchronizer{repo: repo, catalog: cat, log: nopLogger{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Reconcile loads the current configuration and applies it to c.
// Only a configuration load failure is returned as an error.
func (s *Synchronizer) Reconcile(ctx context.Context, c cart.Cart) (Result, error) {
	cfg, err := s.repo.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load promotion settings: %w", err)
	}
	return Apply(ctx, c, cfg, s.catalog, s.log), nil
}

// Apply adds one free gift line per configured free product while the cart
// qualifies and removes them once it no longer does. It never fails: catalog
// errors count as "no categories" and refused additions are reported in Result.
func Apply(ctx context.Context, c cart.Cart, cfg settings.Configuration, cat catalog.Catalog, log Logger) Result {
	if log == nil {
		log = nopLogger{}
	}
	if !cfg.Enabled() {
		return Result{}
	}

	res := Result{Enabled: true}
	res.Qualifies = qualifies(ctx, c.Lines(), cfg, cat, log)

	for _, freeID := range cfg.FreeProductIDs {
		existing := freeLines(c.Lines(), freeID)

		switch {
		case res.Qualifies && len(existing) == 0:
			line, err := c.Add(ctx, freeID, 1, true)
			if err != nil {
				log.Warnf("could not add free product %d: %v", freeID, err)
				res.Failed = append(res.Failed, freeID)
				continue
			}
			log.Debugf("added free product %d as line %s", freeID, line.Key)
			res.Added = append(res.Added, line)
		case !res.Qualifies:
			for _, l := range existing {
				if c.Remove(l.Key) {
					log.Debugf("removed free product %d line %s", freeID, l.Key)
					res.Removed = append(res.Removed, l)
				}
			}
		}
	}
	return res
}

// ApplyFreePrices forces every free gift line to a zero unit price and returns
// the keys whose price actually changed. It runs after Apply so new lines are covered.
func ApplyFreePrices(c cart.Cart) []string {
	var changed []string
	for _, l := range c.Lines() {
		if !l.FreeGift {
			continue
		}
		if l.UnitPrice.IsZero() {
			continue
		}
		if c.SetPrice(l.Key, decimal.Zero) {
			changed = append(changed, l.Key)
		}
	}
	return changed
}

func qualifies(ctx context.Context, lines []cart.Line, cfg settings.Configuration, cat catalog.Catalog, log Logger) bool {
	var cached *catalog.Cached
	if cat != nil && len(cfg.TargetCategoryIDs) > 0 {
		cached = catalog.NewCached(cat)
	}

	for _, l := range lines {
		if cfg.IsTargetProduct(l.ProductID) {
			return true
		}
		if cached == nil {
			continue
		}
		cats, err := cached.ProductCategories(ctx, l.ProductID)
		if err != nil {
			log.Warnf("category lookup for product %d failed: %v", l.ProductID, err)
			continue
		}
		if cfg.MatchesCategories(cats) {
			return true
		}
	}
	return false
}

func freeLines(lines []cart.Line, id cart.ProductID) []cart.Line {
	var out []cart.Line
	for _, l := range lines {
		if l.FreeGift && l.ProductID == id {
			out = append(out, l)
		}
	}
	return out
}

package hooks

import "github.com/acapretti/bogofree/pkg/cart"

// TotalsPayload travels with BeforeTotals.
type TotalsPayload struct {
	Cart cart.Cart
	// Admin marks back-office requests; Async marks background (AJAX) calls made from them.
	Admin bool
	Async bool

	notes map[string]any
}

// Annotate attaches a value for later handlers or the emitter to read.
func (p *TotalsPayload) Annotate(key string, v any) {
	if p.notes == nil {
		p.notes = make(map[string]any)
	}
	p.notes[key] = v
}

func (p *TotalsPayload) Annotation(key string) (any, bool) {
	v, ok := p.notes[key]
	return v, ok
}

// Skip reports whether cart rules should leave the cart alone: back-office
// page loads never mutate carts, background calls from the back office do.
func (p *TotalsPayload) Skip() bool {
	return p.Admin && !p.Async
}

// MenuPage is an admin page offered by a subscriber.
type MenuPage struct {
	Slug       string
	Title      string
	Capability string
}

// MenuPayload travels with AdminMenu; subscribers append their pages.
type MenuPayload struct {
	Pages []MenuPage
}

// SettingsPayload travels with RegisterSettings; subscribers declare their option keys per group.
type SettingsPayload struct {
	Groups map[string][]string
}

func (p *SettingsPayload) Register(group string, keys ...string) {
	if p.Groups == nil {
		p.Groups = make(map[string][]string)
	}
	p.Groups[group] = append(p.Groups[group], keys...)
}

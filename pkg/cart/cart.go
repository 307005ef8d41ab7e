// Package cart models the host shopping cart that promotion rules mutate.
package cart

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductID identifies a catalog product. Non-positive values never refer to a real product.
type ProductID int64

func (id ProductID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Line is a single cart row.
type Line struct {
	Key       string          `json:"key" yaml:"key"`
	ProductID ProductID       `json:"product_id" yaml:"product_id"`
	Quantity  int             `json:"quantity" yaml:"quantity"`
	FreeGift  bool            `json:"free_gift,omitempty" yaml:"free_gift,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price" yaml:"unit_price"`
}

// Cart is the mutation API the host exposes to promotion rules.
// Implementations own line identity; rules only add, remove and reprice.
type Cart interface {
	Lines() []Line
	Add(ctx context.Context, productID ProductID, quantity int, freeGift bool) (Line, error)
	Remove(key string) bool
	SetPrice(key string, price decimal.Decimal) bool
}

// Memory is an ordered in-memory Cart. The zero value is ready to use.
type Memory struct {
	lines []Line

	// Prices supplies the list price of products added through Add.
	// Products missing from the map are added at zero.
	Prices map[ProductID]decimal.Decimal
}

// NewMemory returns a cart holding a copy of lines. Lines without a key, or
// repeating a key already taken, get a fresh one.
func NewMemory(lines ...Line) *Memory {
	m := &Memory{}
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if _, dup := seen[l.Key]; l.Key == "" || dup {
			l.Key = uuid.NewString()
		}
		seen[l.Key] = struct{}{}
		if l.Quantity == 0 {
			l.Quantity = 1
		}
		m.lines = append(m.lines, l)
	}
	return m
}

// Lines returns a snapshot; mutating it does not affect the cart.
func (m *Memory) Lines() []Line {
	out := make([]Line, len(m.lines))
	copy(out, m.lines)
	return out
}

func (m *Memory) Add(ctx context.Context, productID ProductID, quantity int, freeGift bool) (Line, error) {
	if err := ctx.Err(); err != nil {
		return Line{}, err
	}
	if productID <= 0 {
		return Line{}, fmt.Errorf("invalid product id %d", productID)
	}
	if quantity <= 0 {
		return Line{}, fmt.Errorf("invalid quantity %d for product %d", quantity, productID)
	}
	l := Line{
		Key:       uuid.NewString(),
		ProductID: productID,
		Quantity:  quantity,
		FreeGift:  freeGift,
		UnitPrice: m.Prices[productID],
	}
	m.lines = append(m.lines, l)
	return l, nil
}

func (m *Memory) Remove(key string) bool {
	for i, l := range m.lines {
		if l.Key == key {
			m.lines = append(m.lines[:i], m.lines[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Memory) SetPrice(key string, price decimal.Decimal) bool {
	for i := range m.lines {
		if m.lines[i].Key == key {
			m.lines[i].UnitPrice = price
			return true
		}
	}
	return false
}

// Total is the sum of quantity * unit price over all lines.
func Total(c Cart) decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines() {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

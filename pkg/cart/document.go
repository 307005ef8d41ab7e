package cart

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk cart format used by the CLI. JSON is accepted too,
// since it is a subset of YAML.
type Document struct {
	Lines []DocumentLine `yaml:"lines"`
}

type DocumentLine struct {
	Key       string    `yaml:"key,omitempty"`
	ProductID ProductID `yaml:"product_id"`
	Quantity  int       `yaml:"quantity,omitempty"`
	FreeGift  bool      `yaml:"free_gift,omitempty"`
	UnitPrice string    `yaml:"unit_price,omitempty"`
}

// Decode reads a cart document and builds a Memory cart from it.
func Decode(r io.Reader) (*Memory, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode cart: %w", err)
	}

	lines := make([]Line, 0, len(doc.Lines))
	keys := make(map[string]int, len(doc.Lines))
	for i, dl := range doc.Lines {
		if dl.Key != "" {
			if first, ok := keys[dl.Key]; ok {
				return nil, fmt.Errorf("line %d: key %q already used by line %d", i, dl.Key, first)
			}
			keys[dl.Key] = i
		}
		price := decimal.Zero
		if dl.UnitPrice != "" {
			p, err := decimal.NewFromString(dl.UnitPrice)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad unit_price %q: %w", i, dl.UnitPrice, err)
			}
			price = p
		}
		lines = append(lines, Line{
			Key:       dl.Key,
			ProductID: dl.ProductID,
			Quantity:  dl.Quantity,
			FreeGift:  dl.FreeGift,
			UnitPrice: price,
		})
	}
	return NewMemory(lines...), nil
}

// Encode writes the cart lines as a YAML document.
func Encode(w io.Writer, c Cart) error {
	var doc Document
	for _, l := range c.Lines() {
		doc.Lines = append(doc.Lines, DocumentLine{
			Key:       l.Key,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			FreeGift:  l.FreeGift,
			UnitPrice: l.UnitPrice.StringFixed(2),
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

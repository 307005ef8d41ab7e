package catalog

import (
	"fmt"
	"os"

	"github.com/acapretti/bogofree/pkg/cart"
	"github.com/tidwall/gjson"
)

// ParseJSON builds a Static catalog from a document shaped like
//
//	{"categories":[{"id":4,"name":"Shoes"}],"products":[{"id":10,"categories":[4]}]}
func ParseJSON(body []byte) (*Static, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("catalog: invalid JSON")
	}
	s := &Static{Products: make(map[cart.ProductID][]CategoryID)}

	gjson.GetBytes(body, "categories").ForEach(func(_, c gjson.Result) bool {
		s.CategoryList = append(s.CategoryList, Category{
			ID:   CategoryID(c.Get("id").Int()),
			Name: c.Get("name").String(),
		})
		return true
	})

	gjson.GetBytes(body, "products").ForEach(func(_, p gjson.Result) bool {
		id := cart.ProductID(p.Get("id").Int())
		if id <= 0 {
			return true
		}
		s.Products[id] = categoryIDs(p.Get("categories"))
		return true
	})
	return s, nil
}

// LoadFile reads a JSON catalog from disk.
func LoadFile(path string) (*Static, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseJSON(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// categoryIDs accepts either bare ids or category objects.
func categoryIDs(r gjson.Result) []CategoryID {
	var out []CategoryID
	for _, c := range r.Array() {
		var id int64
		if c.IsObject() {
			id = c.Get("id").Int()
		} else {
			id = c.Int()
		}
		if id > 0 {
			out = append(out, CategoryID(id))
		}
	}
	return out
}

var (
	_ Catalog = (*Static)(nil)
	_ Catalog = (*HTTP)(nil)
	_ Catalog = (*Cached)(nil)
)

// Package catalog answers which categories a product belongs to and which
// categories exist at all.
package catalog

import (
	"context"
	"sort"
	"strconv"

	"github.com/acapretti/bogofree/pkg/cart"
)

// CategoryID identifies a product category. Non-positive values never match.
type CategoryID int64

func (id CategoryID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

type Category struct {
	ID   CategoryID `json:"id"`
	Name string     `json:"name"`
}

// Catalog is the category-membership service of the host shop.
type Catalog interface {
	ProductCategories(ctx context.Context, id cart.ProductID) ([]CategoryID, error)
	Categories(ctx context.Context) ([]Category, error)
}

// Static is an in-memory Catalog.
type Static struct {
	CategoryList []Category
	Products     map[cart.ProductID][]CategoryID
}

func (s *Static) ProductCategories(_ context.Context, id cart.ProductID) ([]CategoryID, error) {
	return s.Products[id], nil
}

func (s *Static) Categories(context.Context) ([]Category, error) {
	out := make([]Category, len(s.CategoryList))
	copy(out, s.CategoryList)
	sortCategories(out)
	return out, nil
}

func sortCategories(cs []Category) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Name != cs[j].Name {
			return cs[i].Name < cs[j].Name
		}
		return cs[i].ID < cs[j].ID
	})
}

// Cached memoizes ProductCategories answers. It is meant to live for a single
// reconcile pass and is not safe for concurrent use.
type Cached struct {
	Catalog
	seen map[cart.ProductID][]CategoryID
}

func NewCached(c Catalog) *Cached {
	return &Cached{Catalog: c, seen: make(map[cart.ProductID][]CategoryID)}
}

func (c *Cached) ProductCategories(ctx context.Context, id cart.ProductID) ([]CategoryID, error) {
	if cats, ok := c.seen[id]; ok {
		return cats, nil
	}
	cats, err := c.Catalog.ProductCategories(ctx, id)
	if err != nil {
		return nil, err
	}
	c.seen[id] = cats
	return cats, nil
}

package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/acapretti/bogofree/pkg/cart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `{
  "categories": [{"id": 5, "name": "Socks"}, {"id": 4, "name": "Shoes"}],
  "products": [
    {"id": 10, "categories": [4]},
    {"id": 11, "categories": [{"id": 5}, {"id": 0}]},
    {"id": 0, "categories": [4]}
  ]
}`

func TestParseJSON(t *testing.T) {
	s, err := ParseJSON([]byte(sampleCatalog))
	require.NoError(t, err)
	ctx := context.Background()

	cats, err := s.ProductCategories(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []CategoryID{4}, cats)

	cats, err = s.ProductCategories(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, []CategoryID{5}, cats)

	cats, err = s.ProductCategories(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, cats)

	all, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Category{{ID: 4, Name: "Shoes"}, {ID: 5, Name: "Socks"}}, all)
	assert.Len(t, s.Products, 2)
}

func TestParseJSONInvalid(t *testing.T) {
	_, err := ParseJSON([]byte(`{"categories": [`))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, s.CategoryList, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

type countingCatalog struct {
	Static
	calls int
	err   error
}

func (c *countingCatalog) ProductCategories(ctx context.Context, id cart.ProductID) ([]CategoryID, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.Static.ProductCategories(ctx, id)
}

func TestCachedMemoizes(t *testing.T) {
	inner := &countingCatalog{Static: Static{Products: map[cart.ProductID][]CategoryID{1: {4}}}}
	c := NewCached(inner)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cats, err := c.ProductCategories(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []CategoryID{4}, cats)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	inner := &countingCatalog{err: errors.New("down")}
	c := NewCached(inner)

	_, err := c.ProductCategories(context.Background(), 1)
	assert.Error(t, err)
	_, err = c.ProductCategories(context.Background(), 1)
	assert.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestHTTPCatalog(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /products/10/categories", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`[4, 7]`))
	})
	mux.HandleFunc("GET /products/11/categories", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"categories":[{"id":9,"name":"Hats"}]}`))
	})
	mux.HandleFunc("GET /categories", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":9,"name":"Hats"},{"id":4,"name":"Belts"}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	h := NewHTTP(srv.URL+"/", "secret", 0)
	ctx := context.Background()

	cats, err := h.ProductCategories(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []CategoryID{4, 7}, cats)

	cats, err = h.ProductCategories(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, []CategoryID{9}, cats)

	// Unknown products are a 404 from the mux.
	cats, err = h.ProductCategories(ctx, 12)
	require.NoError(t, err)
	assert.Empty(t, cats)

	all, err := h.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Category{{ID: 4, Name: "Belts"}, {ID: 9, Name: "Hats"}}, all)
}

func TestHTTPCatalogRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[3]`))
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, "", 2)
	cats, err := h.ProductCategories(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []CategoryID{3}, cats)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestHTTPCatalogBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL, "", 0).ProductCategories(context.Background(), 1)
	assert.Error(t, err)
}

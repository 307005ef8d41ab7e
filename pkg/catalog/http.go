package catalog

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/acapretti/bogofree/pkg/cart"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

const userAgent = "bogofree-catalog/1.0"

// HTTP queries a remote catalog service:
//
//	GET {BaseURL}/products/{id}/categories -> [4, 7] or {"categories":[{"id":4}]}
//	GET {BaseURL}/categories              -> [{"id":4,"name":"Shoes"}]
type HTTP struct {
	BaseURL string
	Token   string
	client  *retryablehttp.Client
}

// NewHTTP returns a client that retries transient failures up to retryMax times.
func NewHTTP(baseURL, token string, retryMax int) *HTTP {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = log.New(io.Discard, "", 0)
	retryClient.RetryMax = retryMax
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.HTTPClient.Timeout = 10 * time.Second

	return &HTTP{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Token:   token,
		client:  retryClient,
	}
}

func (h *HTTP) ProductCategories(ctx context.Context, id cart.ProductID) ([]CategoryID, error) {
	body, err := h.get(ctx, "/products/"+id.String()+"/categories")
	if err != nil {
		return nil, err
	}
	r := gjson.ParseBytes(body)
	if r.IsObject() {
		r = r.Get("categories")
	}
	return categoryIDs(r), nil
}

func (h *HTTP) Categories(ctx context.Context) ([]Category, error) {
	body, err := h.get(ctx, "/categories")
	if err != nil {
		return nil, err
	}
	r := gjson.ParseBytes(body)
	if r.IsObject() {
		r = r.Get("categories")
	}
	var out []Category
	for _, c := range r.Array() {
		out = append(out, Category{
			ID:   CategoryID(c.Get("id").Int()),
			Name: c.Get("name").String(),
		})
	}
	sortCategories(out)
	return out, nil
}

func (h *HTTP) get(ctx context.Context, path string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		// Unknown product: no categories.
		return []byte("[]"), nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog request %s: unexpected status %d", path, resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("catalog request %s: invalid JSON body", path)
	}
	return body, nil
}

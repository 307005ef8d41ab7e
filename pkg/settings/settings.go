// Package settings persists the promotion configuration in host option storage.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/acapretti/bogofree/pkg/cart"
	"github.com/acapretti/bogofree/pkg/catalog"
	"github.com/acapretti/bogofree/pkg/storage"
)

// Option keys in host storage.
const (
	KeyTargetProductIDs = "bogo_target_product_ids"
	KeyFreeProductIDs   = "bogo_free_product_ids"
	KeyTargetCategories = "bogo_target_categories"
)

// Keys lists every option owned by the promotion, in registration order.
var Keys = []string{KeyTargetProductIDs, KeyFreeProductIDs, KeyTargetCategories}

// Form field names of the admin settings page.
const (
	FieldTargetProductIDs = "target_product_ids"
	FieldFreeProductIDs   = "free_product_ids"
	FieldTargetCategories = "target_categories[]"
)

// Configuration drives the free gift rule.
type Configuration struct {
	TargetProductIDs  []cart.ProductID     `json:"target_product_ids"`
	FreeProductIDs    []cart.ProductID     `json:"free_product_ids"`
	TargetCategoryIDs []catalog.CategoryID `json:"target_category_ids"`
}

// Enabled reports whether the rule can ever fire: it needs at least one
// trigger (product or category) and at least one free product.
func (c Configuration) Enabled() bool {
	if len(c.TargetProductIDs) == 0 && len(c.TargetCategoryIDs) == 0 {
		return false
	}
	return len(c.FreeProductIDs) > 0
}

func (c Configuration) IsTargetProduct(id cart.ProductID) bool {
	for _, t := range c.TargetProductIDs {
		if t == id {
			return true
		}
	}
	return false
}

// MatchesCategories reports whether any of cats is a target category.
func (c Configuration) MatchesCategories(cats []catalog.CategoryID) bool {
	for _, want := range c.TargetCategoryIDs {
		for _, got := range cats {
			if want == got {
				return true
			}
		}
	}
	return false
}

func (c Configuration) HasTargetCategory(id catalog.CategoryID) bool {
	return c.MatchesCategories([]catalog.CategoryID{id})
}

// ValidationError reports a configuration document that could not be read.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Repository loads and stores the configuration.
type Repository interface {
	Load(ctx context.Context) (Configuration, error)
	Save(ctx context.Context, cfg Configuration) error
	Clear(ctx context.Context) error
}

// OptionStore is the host key/value option storage.
type OptionStore interface {
	GetOption(ctx context.Context, key string) (string, error)
	SetOption(ctx context.Context, key, value string) error
	DeleteOption(ctx context.Context, key string) error
}

// Store is a Repository backed by an OptionStore.
type Store struct {
	opts OptionStore
}

func NewStore(opts OptionStore) *Store {
	return &Store{opts: opts}
}

// Load never fails on malformed stored values; they coerce to empty lists.
// Missing keys mean an empty configuration.
func (s *Store) Load(ctx context.Context) (Configuration, error) {
	var cfg Configuration

	raw, err := s.get(ctx, KeyTargetProductIDs)
	if err != nil {
		return cfg, err
	}
	cfg.TargetProductIDs = productIDs(ParseIDList(raw))

	raw, err = s.get(ctx, KeyFreeProductIDs)
	if err != nil {
		return cfg, err
	}
	cfg.FreeProductIDs = productIDs(ParseIDList(raw))

	raw, err = s.get(ctx, KeyTargetCategories)
	if err != nil {
		return cfg, err
	}
	cfg.TargetCategoryIDs = categoryIDs(ParseIDList(raw))

	return cfg, nil
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	v, err := s.opts.GetOption(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load option %s: %w", key, err)
	}
	return v, nil
}

// Save normalizes cfg and writes all three options.
func (s *Store) Save(ctx context.Context, cfg Configuration) error {
	cfg = Normalize(cfg)
	values := map[string]string{
		KeyTargetProductIDs: FormatIDList(fromProductIDs(cfg.TargetProductIDs)),
		KeyFreeProductIDs:   FormatIDList(fromProductIDs(cfg.FreeProductIDs)),
		KeyTargetCategories: FormatIDList(fromCategoryIDs(cfg.TargetCategoryIDs)),
	}

	if batch, ok := s.opts.(interface {
		SetOptions(ctx context.Context, pairs map[string]string) error
	}); ok {
		if err := batch.SetOptions(ctx, values); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		return nil
	}
	for _, key := range Keys {
		if err := s.opts.SetOption(ctx, key, values[key]); err != nil {
			return fmt.Errorf("save option %s: %w", key, err)
		}
	}
	return nil
}

// Clear removes every option; used on uninstall.
func (s *Store) Clear(ctx context.Context) error {
	for _, key := range Keys {
		if err := s.opts.DeleteOption(ctx, key); err != nil {
			return fmt.Errorf("delete option %s: %w", key, err)
		}
	}
	return nil
}

// Normalize drops non-positive ids and duplicates, keeping first-seen order.
func Normalize(cfg Configuration) Configuration {
	return Configuration{
		TargetProductIDs:  productIDs(dedupe(fromProductIDs(cfg.TargetProductIDs))),
		FreeProductIDs:    productIDs(dedupe(fromProductIDs(cfg.FreeProductIDs))),
		TargetCategoryIDs: categoryIDs(dedupe(fromCategoryIDs(cfg.TargetCategoryIDs))),
	}
}

// ParseForm reads the admin settings form. A missing category field means
// no category is selected.
func ParseForm(form url.Values) Configuration {
	var cats []int64
	for _, v := range form[FieldTargetCategories] {
		cats = append(cats, CoerceInt(v))
	}
	return Normalize(Configuration{
		TargetProductIDs:  productIDs(ParseIDList(form.Get(FieldTargetProductIDs))),
		FreeProductIDs:    productIDs(ParseIDList(form.Get(FieldFreeProductIDs))),
		TargetCategoryIDs: categoryIDs(cats),
	})
}

// DecodeJSON reads a configuration document such as the one served by the
// settings API. Ids go through the same normalization as the form.
func DecodeJSON(r io.Reader) (Configuration, error) {
	var cfg Configuration
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return cfg, &ValidationError{Field: typeErr.Field, Reason: "ids must be integers"}
		}
		return cfg, &ValidationError{Field: "body", Reason: err.Error()}
	}
	return Normalize(cfg), nil
}

// FormValues renders cfg back into the text shown in the admin form.
func FormValues(cfg Configuration) (targets, free string) {
	return FormatIDList(fromProductIDs(cfg.TargetProductIDs)), FormatIDList(fromProductIDs(cfg.FreeProductIDs))
}

func dedupe(ids []int64) []int64 {
	var out []int64
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func productIDs(ids []int64) []cart.ProductID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]cart.ProductID, len(ids))
	for i, id := range ids {
		out[i] = cart.ProductID(id)
	}
	return out
}

func categoryIDs(ids []int64) []catalog.CategoryID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]catalog.CategoryID, len(ids))
	for i, id := range ids {
		out[i] = catalog.CategoryID(id)
	}
	return out
}

func fromProductIDs(ids []cart.ProductID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func fromCategoryIDs(ids []catalog.CategoryID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

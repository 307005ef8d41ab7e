package cmd

import (
	"context"
	"fmt"

	"github.com/acapretti/bogofree/internal/utils"
	"github.com/acapretti/bogofree/pkg/catalog"
	"github.com/acapretti/bogofree/pkg/hooks"
	"github.com/acapretti/bogofree/pkg/promo"
	"github.com/acapretti/bogofree/pkg/settings"
	"github.com/acapretti/bogofree/pkg/storage"
	"github.com/spf13/viper"
)

const catalogRetries = 3

func openStore() (*storage.DB, *settings.Store, error) {
	path, err := utils.ResolveDBPath(viper.GetString("db.path"))
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open DB %s: %w", path, err)
	}
	return db, settings.NewStore(db), nil
}

// withWriteLock serializes settings writes across concurrent CLI runs.
func withWriteLock(ctx context.Context, fn func() error) error {
	lock, err := utils.NewDBLock(viper.GetString("db.path"))
	if err != nil {
		return err
	}
	return lock.WithLock(ctx, fn)
}

// loadCatalog picks the catalog source: a JSON file, a remote service, or nothing.
func loadCatalog(file, url string) (catalog.Catalog, error) {
	switch {
	case file != "":
		return catalog.LoadFile(file)
	case url != "":
		return catalog.NewHTTP(url, viper.GetString("catalog.token"), catalogRetries), nil
	default:
		utils.Log.Debug("No catalog configured, category targets will never match")
		return &catalog.Static{}, nil
	}
}

// newBus wires the promotion and the settings lifecycle onto a fresh bus.
func newBus(store settings.Repository, cat catalog.Catalog) *hooks.Bus {
	bus := hooks.NewBus()
	settings.Register(bus, store)
	promo.New(store, cat, promo.WithLogger(utils.Log)).Register(bus)
	return bus
}

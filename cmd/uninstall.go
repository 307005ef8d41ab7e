package cmd

import (
	"context"

	"github.com/acapretti/bogofree/internal/utils"
	"github.com/acapretti/bogofree/pkg/catalog"
	"github.com/acapretti/bogofree/pkg/hooks"
	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Delete every stored free gift option",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, store, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		bus := newBus(store, &catalog.Static{})
		ctx := context.Background()
		err = withWriteLock(ctx, func() error {
			return bus.Emit(ctx, hooks.Uninstall, nil)
		})
		if err != nil {
			return err
		}
		utils.Log.Info("All bogofree options removed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

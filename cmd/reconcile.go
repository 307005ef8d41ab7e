package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/acapretti/bogofree/internal/utils"
	"github.com/acapretti/bogofree/pkg/cart"
	"github.com/acapretti/bogofree/pkg/hooks"
	"github.com/acapretti/bogofree/pkg/promo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one before-totals pass over a cart document and print the result",
	Long: `Reads a YAML or JSON cart document, applies the free gift rule with the stored
settings and writes the resulting cart to stdout.

Cart document:
  lines:
    - product_id: 1
      quantity: 2
      unit_price: "10.00"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cartPath, _ := cmd.Flags().GetString("cart")
		catalogFile, _ := cmd.Flags().GetString("catalog")
		catalogURL, _ := cmd.Flags().GetString("catalog-url")
		admin, _ := cmd.Flags().GetBool("admin")
		async, _ := cmd.Flags().GetBool("async")
		if catalogFile == "" && catalogURL == "" {
			catalogFile = viper.GetString("catalog.file")
			catalogURL = viper.GetString("catalog.url")
		}

		var in io.Reader = cmd.InOrStdin()
		if cartPath != "-" {
			f, err := os.Open(cartPath)
			if err != nil {
				return fmt.Errorf("could not open cart: %w", err)
			}
			defer f.Close()
			in = f
		}
		c, err := cart.Decode(in)
		if err != nil {
			return err
		}

		db, store, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		cat, err := loadCatalog(catalogFile, catalogURL)
		if err != nil {
			return err
		}

		payload := &hooks.TotalsPayload{Cart: c, Admin: admin, Async: async}
		if err := newBus(store, cat).Emit(context.Background(), hooks.BeforeTotals, payload); err != nil {
			return err
		}

		report := promo.ReportFrom(payload)
		switch {
		case report.Skipped:
			utils.Log.Info("Back-office page load, cart left untouched")
		case !report.Enabled:
			utils.Log.Info("Free gift rule disabled")
		default:
			utils.Log.Infof("Qualifies: %t, added %d, removed %d, failed %d, repriced %d",
				report.Qualifies, len(report.Added), len(report.Removed), len(report.Failed), len(report.Repriced))
		}

		return cart.Encode(cmd.OutOrStdout(), c)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().String("cart", "-", "Cart document (YAML or JSON), - for stdin")
	reconcileCmd.Flags().String("catalog", "", "Catalog JSON file (overrides catalog.file)")
	reconcileCmd.Flags().String("catalog-url", "", "Catalog service base URL (overrides catalog.url)")
	reconcileCmd.Flags().Bool("admin", false, "Simulate a back-office request")
	reconcileCmd.Flags().Bool("async", false, "Simulate a background request")
}

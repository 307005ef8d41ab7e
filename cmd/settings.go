package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"text/tabwriter"

	"github.com/acapretti/bogofree/internal/utils"
	"github.com/acapretti/bogofree/pkg/settings"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the free gift configuration",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, store, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		cfg, err := store.Load(context.Background())
		if err != nil {
			return err
		}
		printConfiguration(cmd, cfg)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the configuration. Only the given flags change.",
	Example: `  bogofree settings set --target-products 1,2 --free-products 9
  bogofree settings set --categories 4,5
  bogofree settings set --categories ""`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if !flags.Changed("target-products") && !flags.Changed("free-products") && !flags.Changed("categories") {
			return fmt.Errorf("nothing to set: pass --target-products, --free-products or --categories")
		}

		db, store, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		var saved settings.Configuration
		err = withWriteLock(ctx, func() error {
			cfg, err := store.Load(ctx)
			if err != nil {
				return err
			}
			cfg = applySettingsFlags(cmd, cfg)
			if err := store.Save(ctx, cfg); err != nil {
				return err
			}
			saved, err = store.Load(ctx)
			return err
		})
		if err != nil {
			return err
		}

		utils.Log.Info("Settings saved.")
		printConfiguration(cmd, saved)
		return nil
	},
}

// applySettingsFlags overlays the changed flags on cfg. Lists are read like the admin form.
func applySettingsFlags(cmd *cobra.Command, cfg settings.Configuration) settings.Configuration {
	form := url.Values{}
	targets, free := settings.FormValues(cfg)
	form[settings.FieldTargetProductIDs] = []string{targets}
	form[settings.FieldFreeProductIDs] = []string{free}
	for _, id := range cfg.TargetCategoryIDs {
		form[settings.FieldTargetCategories] = append(form[settings.FieldTargetCategories], id.String())
	}

	if v, _ := cmd.Flags().GetString("target-products"); cmd.Flags().Changed("target-products") {
		form[settings.FieldTargetProductIDs] = []string{v}
	}
	if v, _ := cmd.Flags().GetString("free-products"); cmd.Flags().Changed("free-products") {
		form[settings.FieldFreeProductIDs] = []string{v}
	}
	if cmd.Flags().Changed("categories") {
		v, _ := cmd.Flags().GetString("categories")
		var cats []string
		for _, id := range settings.ParseIDList(v) {
			cats = append(cats, strconv.FormatInt(id, 10))
		}
		form[settings.FieldTargetCategories] = cats
	}
	return settings.ParseForm(form)
}

func printConfiguration(cmd *cobra.Command, cfg settings.Configuration) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "OPTION\tVALUE")
	fmt.Fprintf(w, "%s\t%s\n", settings.KeyTargetProductIDs, utils.JoinInts(cfg.TargetProductIDs))
	fmt.Fprintf(w, "%s\t%s\n", settings.KeyFreeProductIDs, utils.JoinInts(cfg.FreeProductIDs))
	fmt.Fprintf(w, "%s\t%s\n", settings.KeyTargetCategories, utils.JoinInts(cfg.TargetCategoryIDs))
	status := "disabled"
	if cfg.Enabled() {
		status = "enabled"
	}
	fmt.Fprintf(w, "status\t%s\n", status)
	w.Flush()
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsSetCmd.Flags().String("target-products", "", "Comma-separated product ids that trigger the gift")
	settingsSetCmd.Flags().String("free-products", "", "Comma-separated product ids given away")
	settingsSetCmd.Flags().String("categories", "", "Comma-separated category ids that trigger the gift")
}

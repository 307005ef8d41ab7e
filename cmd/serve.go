package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/acapretti/bogofree/internal/server"
	"github.com/acapretti/bogofree/internal/utils"
	"github.com/acapretti/bogofree/pkg/hooks"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin and cart callback server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, store, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		cat, err := loadCatalog(viper.GetString("catalog.file"), viper.GetString("catalog.url"))
		if err != nil {
			return err
		}
		bus := newBus(store, cat)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var declared hooks.SettingsPayload
		if err := bus.Emit(ctx, hooks.RegisterSettings, &declared); err != nil {
			return err
		}
		for group, keys := range declared.Groups {
			utils.Log.Debugf("Settings group %s: %v", group, keys)
		}

		secret := viper.GetString("admin.secret")
		if secret == "" {
			secret = uuid.NewString()
			utils.Log.Warn("admin.secret not set, settings form nonces will not survive a restart")
		}
		insecure := viper.GetBool("admin.insecure")
		if viper.GetString("admin.username") == "" {
			if insecure {
				utils.Log.Warn("admin.username not set and --insecure given, anyone can change settings")
			} else {
				utils.Log.Warn("admin.username not set, settings are read-only until credentials are configured")
			}
		}

		srv := server.New(store, cat, bus,
			viper.GetString("admin.username"),
			viper.GetString("admin.password"),
			secret,
		)
		srv.Insecure = insecure
		return srv.Start(ctx, viper.GetString("server.listen"))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().StringP("username", "u", "", "Username for basic auth (optional)")
	serveCmd.Flags().StringP("password", "p", "", "Password for basic auth (optional)")
	serveCmd.Flags().Bool("insecure", false, "Accept settings changes without admin credentials")
	serveCmd.Flags().String("catalog", "", "Catalog JSON file")
	serveCmd.Flags().String("catalog-url", "", "Catalog service base URL")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("admin.username", serveCmd.Flags().Lookup("username"))
	viper.BindPFlag("admin.password", serveCmd.Flags().Lookup("password"))
	viper.BindPFlag("admin.insecure", serveCmd.Flags().Lookup("insecure"))
	viper.BindPFlag("catalog.file", serveCmd.Flags().Lookup("catalog"))
	viper.BindPFlag("catalog.url", serveCmd.Flags().Lookup("catalog-url"))
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/acapretti/bogofree/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the bogofree settings database",
}

// shellCmd opens sqlite3 on the settings database, or runs a single --query.
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open sqlite3 on the settings database",
	Example: `  bogofree db shell
  bogofree db shell -q "SELECT option_key, option_value FROM options"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := utils.ResolveDBPath(viper.GetString("db.path"))
		if err != nil {
			return err
		}
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", dbPath)
		}
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 not found in PATH, install it to use the db shell")
		}

		if query, _ := cmd.Flags().GetString("query"); query != "" {
			c := exec.CommandContext(cmd.Context(), sqlitePath, "-header", "-column", dbPath, query)
			c.Stdout = cmd.OutOrStdout()
			c.Stderr = cmd.ErrOrStderr()
			return c.Run()
		}

		utils.Log.Infof("Opening %s (table: options), Ctrl+D to exit", dbPath)
		c := exec.CommandContext(cmd.Context(), sqlitePath, "-header", "-column", dbPath)
		c.Stdin = cmd.InOrStdin()
		c.Stdout = cmd.OutOrStdout()
		c.Stderr = cmd.ErrOrStderr()
		return c.Run()
	},
}

// optionsCmd lists the raw option rows.
var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Prints every stored option with its last update time.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		opts, err := db.ListOptions(context.Background())
		if err != nil {
			return err
		}
		if len(opts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No options stored.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "KEY\tVALUE\tUPDATED")
		for _, o := range opts {
			fmt.Fprintf(w, "%s\t%s\t%s\n", o.Key, o.Value, o.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(optionsCmd)
	shellCmd.Flags().StringP("query", "q", "", "Run one SQL statement and exit")
}

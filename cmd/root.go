package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/acapretti/bogofree/internal/utils"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bogofree",
	Short: "Buy one, get one free gift rules for shop carts.",
	Long: `bogofree keeps free gift lines in sync with shopping carts.

Configure which products or categories trigger the gift and which products are
given away, then let the host call the before-totals endpoint (or the reconcile
command) on every cart recalculation.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bogofree.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("dbpath", "", "Path to SQLite settings DB (default is ~/.config/bogofree/bogofree.sqlite)")
	viper.BindPFlag("db.path", rootCmd.PersistentFlags().Lookup("dbpath"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".bogofree")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("bogofree")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default empty values for all keys
	viper.SetDefault("admin.username", "")
	viper.SetDefault("admin.password", "")
	viper.SetDefault("admin.secret", "")
	viper.SetDefault("admin.insecure", false)
	viper.SetDefault("catalog.file", "")
	viper.SetDefault("catalog.url", "")
	viper.SetDefault("catalog.token", "")
	viper.SetDefault("log.file", "")
	viper.SetDefault("server.listen", ":8080")

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.bogofree.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
	if logFile := viper.GetString("log.file"); logFile != "" {
		utils.SetLogFile(logFile, 10, 3)
	}
}

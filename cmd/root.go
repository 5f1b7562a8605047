package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dbmigrate",
	Short: "Online schema changes for MySQL/InnoDB without blocking writes",
	Long: `dbmigrate classifies ALTER TABLE statements and, when a direct ALTER
would lock the table for too long, runs the change through its own
shadow-table engine instead: create a shadow table, mirror live writes to
it with triggers, back-fill existing rows in bounded chunks, then cut over
with an atomic RENAME (or a brief LOCK TABLES fallback).

Know whether your DDL needs the migrate engine before you run it, then run
it without blocking traffic on the table.`,
}

// Execute is called by main.main(). It adds all child commands to the root
// command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dbmigrate/config.yaml)")
	rootCmd.PersistentFlags().StringP("host", "H", "", "MySQL host")
	rootCmd.PersistentFlags().IntP("port", "P", 3306, "MySQL port")
	rootCmd.PersistentFlags().StringP("user", "u", "", "MySQL user")
	rootCmd.PersistentFlags().StringP("password", "p", "", "MySQL password (prompted for when empty; -p needs a value)")
	rootCmd.PersistentFlags().Lookup("password").NoOptDefVal = "" // Empty: -p takes a value; an unset password triggers the prompt
	rootCmd.PersistentFlags().StringP("database", "d", "", "Target database")
	rootCmd.PersistentFlags().StringP("socket", "S", "", "Unix socket path")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "Output format: text, json")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show additional debug info")

	// Bind flags to viper
	viper.BindPFlag("host", rootCmd.PersistentFlags().Lookup("host"))
	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
	viper.BindPFlag("password", rootCmd.PersistentFlags().Lookup("password"))
	viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("database"))
	viper.BindPFlag("socket", rootCmd.PersistentFlags().Lookup("socket"))
	viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		viper.AddConfigPath(home + "/.dbmigrate")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DBMIGRATE")
	viper.AutomaticEnv()

	// Silently ignore missing config file â€” it's optional
	if err := viper.ReadInConfig(); err == nil {
		// Map nested config structure to flat keys that flags expect
		// Only set these if the flags haven't been explicitly set by the user
		if !rootCmd.PersistentFlags().Changed("host") && viper.IsSet("connections.default.host") {
			viper.Set("host", viper.GetString("connections.default.host"))
		}
		if !rootCmd.PersistentFlags().Changed("port") && viper.IsSet("connections.default.port") {
			viper.Set("port", viper.GetInt("connections.default.port"))
		}
		if !rootCmd.PersistentFlags().Changed("user") && viper.IsSet("connections.default.user") {
			viper.Set("user", viper.GetString("connections.default.user"))
		}
		if !rootCmd.PersistentFlags().Changed("database") && viper.IsSet("connections.default.database") {
			viper.Set("database", viper.GetString("connections.default.database"))
		}
		if !rootCmd.PersistentFlags().Changed("format") && viper.IsSet("defaults.format") {
			viper.Set("format", viper.GetString("defaults.format"))
		}
		if viper.IsSet("defaults.stride") {
			viper.SetDefault("stride", viper.GetInt("defaults.stride"))
		}
		if viper.IsSet("defaults.throttle_ms") {
			viper.SetDefault("throttle_ms", viper.GetInt("defaults.throttle_ms"))
		}
		if viper.IsSet("defaults.archive_prefix") {
			viper.SetDefault("archive_prefix", viper.GetString("defaults.archive_prefix"))
		}
	}
}

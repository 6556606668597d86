// Package cmd provides the CLI commands for grd-pricing.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"grd-pricing/internal/config"
	"grd-pricing/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "grd-pricing",
	Short: "Price hospital episodes under GRD payer contracts",
	Long: `grd-pricing resolves contract base prices and computes the full
reimbursement amount for hospital episodes, including technology,
waiting-day and outlier adjustments.

Examples:
  grd-pricing resolve --contract CH0041 --weight 1.2
  grd-pricing calculate EP-2024-0001
  grd-pricing versions EP-2024-0001`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.grd-pricing.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(calculateCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(initdbCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(cfg)
	}

	// Initialize logging
	cfg := config.Get()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("grd-pricing version 0.1.0")
	},
}

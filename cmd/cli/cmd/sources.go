// Package cmd - sources command
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"grd-pricing/internal/config"
)

// sourcesCmd manages the configured tariff sources
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage tariff sources",
	Long: `Inspect and change where tariff data is read from: the attachment
file search paths and the Postgres connection used as primary source.

Examples:
  grd-pricing sources status
  grd-pricing sources activate ./data/precios_convenios_grd.csv
  grd-pricing sources reset`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var sourcesStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configured tariff sources",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()

		fmt.Printf("Database:   %s\n", cfg.Database.URL)
		fmt.Println("Attachment candidates, in probe order:")
		found := false
		for _, path := range cfg.Attachment.CandidatePaths() {
			marker := " "
			if !found {
				if _, err := os.Stat(path); err == nil {
					marker = "*"
					found = true
				}
			}
			fmt.Printf("  %s %s\n", marker, path)
		}
		if !found {
			fmt.Println("No attachment file found; only the database source is usable.")
		}
	},
}

var sourcesActivateCmd = &cobra.Command{
	Use:   "activate [file]",
	Short: "Make a tariff attachment file the preferred one",
	Long: `Validate that the file exists and put its directory first in the
attachment search paths, persisting the change to the config file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("attachment file not usable: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory, expected a tariff file", path)
		}

		cfg := config.Get()
		cfg.Attachment.Filename = filepath.Base(path)
		cfg.Attachment.SearchPaths = append([]string{filepath.Dir(path)}, cfg.Attachment.SearchPaths...)

		if err := saveConfig(cfg); err != nil {
			return err
		}
		fmt.Printf("Attachment %s activated.\n", path)
		return nil
	},
}

var sourcesResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default tariff source configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		defaults := config.Default()
		cfg.Attachment = defaults.Attachment

		if err := saveConfig(cfg); err != nil {
			return err
		}
		fmt.Println("Tariff sources reset to defaults.")
		return nil
	},
}

func saveConfig(cfg *config.Config) error {
	path := cfgFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locate home directory: %w", err)
		}
		path = filepath.Join(home, ".grd-pricing.json")
	}
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("save config %s: %w", path, err)
	}
	config.Set(cfg)
	return nil
}

func init() {
	sourcesCmd.AddCommand(sourcesStatusCmd)
	sourcesCmd.AddCommand(sourcesActivateCmd)
	sourcesCmd.AddCommand(sourcesResetCmd)
}

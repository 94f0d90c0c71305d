package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bulkmsg/bulkmsg/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE:  runConfigValidate,
}

func init() {
	configValidateCmd.Flags().StringVarP(&configFile, "config", "c", "/etc/bulkmsg/web.yaml", "Path to configuration file")
	configCmd.AddCommand(configValidateCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	fmt.Println("Configuration is valid")
	fmt.Printf("  Listen address: %s\n", cfg.Server.ListenAddr)
	fmt.Printf("  Backend URL: %s\n", cfg.Backend.BaseURL)
	fmt.Printf("  Database path: %s\n", cfg.Database.Path)
	fmt.Printf("  Cache path: %s\n", cfg.Cache.Path)
	fmt.Printf("  Import concurrency: %d\n", cfg.Import.Concurrency)
	fmt.Printf("  Import delimiter: %q\n", cfg.Import.Delimiter)

	return nil
}

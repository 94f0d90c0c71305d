package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bulkmsg/bulkmsg/internal/backend"
	"github.com/bulkmsg/bulkmsg/internal/bulk"
	"github.com/bulkmsg/bulkmsg/internal/config"
	"github.com/bulkmsg/bulkmsg/internal/ingest"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import contacts from a delimited file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var importDryRun bool

func init() {
	importCmd.Flags().StringVarP(&configFile, "config", "c", "/etc/bulkmsg/web.yaml", "Path to configuration file")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse and validate without committing")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer file.Close()

	parser := ingest.Parser{Comma: cfg.DelimiterRune()}
	result, err := parser.Parse(file)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	fmt.Printf("Parsed %d rows: %d valid, %d skipped\n",
		result.Total, len(result.Candidates), result.Skipped)

	if importDryRun {
		for _, c := range result.Candidates {
			fmt.Printf("  - %s (email=%q phone=%q)\n", c.Name, c.Email, c.Phone)
		}
		return nil
	}
	if len(result.Candidates) == 0 {
		return fmt.Errorf("no valid contacts found in import file")
	}

	logger := newLogger(cfg)
	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)
	client.SetToken(cfg.Backend.Token)

	summary := bulk.Run(context.Background(), result.Candidates, cfg.Import.Concurrency,
		func(ctx context.Context, c ingest.Candidate) (*backend.Contact, error) {
			return client.CreateContact(ctx, backend.ContactRecord{
				Name:        c.Name,
				Email:       c.Email,
				PhoneNumber: c.Phone,
			})
		})

	for i, outcome := range summary.Outcomes {
		if !outcome.Succeeded() {
			fmt.Printf("  failed: %s: %v\n", result.Candidates[i].Name, outcome.Err)
		}
	}
	fmt.Printf("Imported %d contacts, %d failed\n", summary.Succeeded, summary.Failed)

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d contacts failed to import", summary.Failed, len(result.Candidates))
	}
	return nil
}

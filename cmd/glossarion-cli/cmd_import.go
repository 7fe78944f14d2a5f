package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/glossarion/glossarion/client"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Manage ingestion runs",
	}
	cmd.AddCommand(importStartCmd())
	cmd.AddCommand(importStatusCmd())
	cmd.AddCommand(importListCmd())
	cmd.AddCommand(importCancelCmd())
	return cmd
}

func importStartCmd() *cobra.Command {
	var (
		mode     string
		format   string
		sourceID string
		enrich   bool
		watch    bool
	)
	cmd := &cobra.Command{
		Use:   "start <file>",
		Short: "Start an import run for a file in the server's import directory",
		Long: `Start an import run. The file must already be in the server's import
directory; pass its bare name, not a path.

Full mode wipes the whole catalog first. Incremental mode resumes from
checkpoints, skipping records already imported from the same source.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			run, err := apiClient.StartImport(context.Background(), client.StartImportRequest{
				SourceFile: args[0],
				Format:     format,
				Mode:       mode,
				SourceID:   sourceID,
				Enrichment: client.EnrichmentConfig{Enabled: enrich},
			})
			if err != nil {
				if client.IsConflict(err) {
					fatal("start import", fmt.Errorf("another run is already active"))
				}
				fatal("start import", err)
			}

			if !watch {
				output(run, run.ID)
				return
			}

			final, err := watchRun(context.Background(), run.ID)
			if err != nil {
				fatal("watch import", err)
			}
			output(final, final.ID)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "incremental", "Import mode: full|incremental")
	cmd.Flags().StringVar(&format, "source-format", "", "Source format: csv|json|xlsx (default: sniffed)")
	cmd.Flags().StringVar(&sourceID, "source-id", "", "Checkpoint source ID (default: file name)")
	cmd.Flags().BoolVar(&enrich, "enrich", false, "Enable AI content enrichment")
	cmd.Flags().BoolVar(&watch, "watch", false, "Poll status until the run finishes")
	return cmd
}

// watchRun polls the run until it reaches a terminal state, printing
// progress to stderr along the way.
func watchRun(ctx context.Context, runID string) (*client.ImportRun, error) {
	terminal := map[string]bool{
		"completed":             true,
		"completed_with_errors": true,
		"cancelled":             true,
		"failed":                true,
	}

	for {
		run, err := apiClient.ImportStatus(ctx, runID)
		if err != nil {
			return nil, err
		}

		fmt.Fprintf(os.Stderr, "%s: %d rows, %d imported, %d failed\n",
			run.State, run.RowsProcessed, run.EntitiesImported, run.EntitiesFailed)

		if terminal[run.State] {
			return run, nil
		}

		select {
		case <-ctx.Done():
			return run, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func importStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <run-id>",
		Short: "Show the status of a run",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			run, err := apiClient.ImportStatus(context.Background(), args[0])
			if err != nil {
				fatal("get status", err)
			}
			output(run, run.State)
		},
	}
}

func importListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Run: func(cmd *cobra.Command, args []string) {
			runs, err := apiClient.ListImports(context.Background(), limit)
			if err != nil {
				fatal("list runs", err)
			}

			if flagFmt == "table" {
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{
						r.ID, r.SourceFile, r.Mode, r.State,
						fmt.Sprintf("%d", r.EntitiesImported),
						fmt.Sprintf("%d", r.EntitiesFailed),
					})
				}
				formatTable([]string{"ID", "SOURCE", "MODE", "STATE", "IMPORTED", "FAILED"}, rows)
				return
			}

			output(runs, "")
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	return cmd
}

func importCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <run-id>",
		Short: "Cancel an active run at the next batch boundary",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.CancelImport(context.Background(), args[0]); err != nil {
				fatal("cancel run", err)
			}
			fmt.Fprintln(os.Stderr, "Cancellation requested.")
		},
	}
}

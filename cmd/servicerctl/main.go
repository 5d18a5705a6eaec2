package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/servicer-desk/backend/internal/app"
	"github.com/servicer-desk/backend/internal/config"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "servicerctl",
		Short:   "Query servicer tasks and daily reports from the command line",
		Version: Version,
	}

	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(staleCmd())
	rootCmd.AddCommand(upNextCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func open(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
	return app.New(ctx, cfg, logger)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the daily update report",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")

			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Reports.Daily(cmd.Context(), date)
			if err != nil {
				return fmt.Errorf("daily report: %w", err)
			}
			return printJSON(report)
		},
	}
	cmd.Flags().StringP("date", "d", "", "Report date (YYYY-MM-DD, default today)")
	return cmd
}

func staleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stale",
		Short: "List open tasks not updated within the threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			servicer, _ := cmd.Flags().GetString("servicer")
			if days <= 0 {
				return fmt.Errorf("--days must be positive, got %d", days)
			}

			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			tasks, err := a.Tasks.FetchStaleTasks(cmd.Context(), days, servicer)
			if err != nil {
				return fmt.Errorf("stale tasks: %w", err)
			}
			return printJSON(tasks)
		},
	}
	cmd.Flags().IntP("days", "n", 3, "Staleness threshold in days")
	cmd.Flags().StringP("servicer", "s", "", "Servicer name or id")
	return cmd
}

func upNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up-next",
		Short: "Show the prioritised work queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			servicer, _ := cmd.Flags().GetString("servicer")
			limit, _ := cmd.Flags().GetInt("limit")

			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.Tasks.UpNext(cmd.Context(), servicer, limit)
			if err != nil {
				return fmt.Errorf("up next: %w", err)
			}
			return printJSON(items)
		},
	}
	cmd.Flags().StringP("servicer", "s", "", "Servicer name or id")
	cmd.Flags().Int("limit", 10, "Maximum items")
	return cmd
}

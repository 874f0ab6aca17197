package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jonathan/apply-agent/internal/history"
	"github.com/spf13/cobra"
)

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded application attempts",
}

var historyListCommand = &cobra.Command{
	Use:   "list",
	Short: "Print the most recent application attempts",
	RunE:  runHistoryListCmd,
}

var (
	historyConfigPath string
	historyLimit      int
)

func init() {
	historyCommand.PersistentFlags().StringVar(&historyConfigPath, "config", "", "Path to config file")
	historyListCommand.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of attempts to show")

	historyCommand.AddCommand(historyListCommand)
	rootCmd.AddCommand(historyCommand)
}

func runHistoryListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(historyConfigPath)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var attempts []history.Attempt
	switch cfg.HistoryBackend {
	case "postgres":
		rec, err := history.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer rec.Close()
		attempts, err = rec.Recent(ctx, historyLimit)
		if err != nil {
			return err
		}
	default:
		attempts, err = history.NewFileRecorder(cfg.HistoryPath).Load(ctx)
		if err != nil {
			return err
		}
		attempts = lastAttempts(attempts, historyLimit)
	}

	return printAttempts(cmd.OutOrStdout(), attempts)
}

// lastAttempts returns the newest limit attempts, newest first.
func lastAttempts(attempts []history.Attempt, limit int) []history.Attempt {
	if limit > 0 && len(attempts) > limit {
		attempts = attempts[len(attempts)-limit:]
	}
	out := make([]history.Attempt, 0, len(attempts))
	for i := len(attempts) - 1; i >= 0; i-- {
		out = append(out, attempts[i])
	}
	return out
}

func printAttempts(w io.Writer, attempts []history.Attempt) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tOUTCOME\tSCORE\tSTEPS\tCOMPANY\tTITLE\tREASON")
	for _, a := range attempts {
		score := "-"
		if a.Score != nil {
			score = fmt.Sprintf("%d", *a.Score)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			a.StartedAt.Format(time.DateTime), a.Outcome, score, a.Steps, a.Company, a.Title, a.Reason)
	}
	return tw.Flush()
}

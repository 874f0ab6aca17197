package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jonathan/apply-agent/internal/answers"
	"github.com/jonathan/apply-agent/internal/logging"
	"github.com/jonathan/apply-agent/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var answersCommand = &cobra.Command{
	Use:   "answers",
	Short: "Inspect the answer cache",
}

var answersListCommand = &cobra.Command{
	Use:   "list",
	Short: "Print every cached answer",
	RunE:  runAnswersListCmd,
}

var answersLookupCommand = &cobra.Command{
	Use:   "lookup <question>",
	Short: "Show the cached answer a question would resolve to",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnswersLookupCmd,
}

var (
	answersConfigPath string
	answersType       string
	answersOptions    []string
)

func init() {
	answersCommand.PersistentFlags().StringVar(&answersConfigPath, "config", "", "Path to config file")
	answersLookupCommand.Flags().StringVarP(&answersType, "type", "t", string(types.FieldTextbox), "Field type: radio, textbox, numeric, date, dropdown")
	answersLookupCommand.Flags().StringSliceVarP(&answersOptions, "option", "o", nil, "Offered option (repeatable)")

	answersCommand.AddCommand(answersListCommand, answersLookupCommand)
	rootCmd.AddCommand(answersCommand)
}

func runAnswersListCmd(cmd *cobra.Command, _ []string) error {
	store, closeStore, err := answersStore()
	if err != nil {
		return err
	}
	defer closeStore()
	return listAnswers(cmd.Context(), cmd.OutOrStdout(), store)
}

func runAnswersLookupCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(answersConfigPath)
	if err != nil {
		return err
	}
	store, closeStore, err := openAnswerStore(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer closeStore()

	q := answers.Query{Question: args[0], Type: types.FieldType(answersType), Options: answersOptions}
	return lookupAnswer(cmd.Context(), cmd.OutOrStdout(), store, cfg.SimilarityThreshold, q)
}

func answersStore() (answers.Store, func(), error) {
	cfg, err := resolveConfig(answersConfigPath)
	if err != nil {
		return nil, nil, err
	}
	return openAnswerStore(cfg, zap.NewNop())
}

func listAnswers(ctx context.Context, w io.Writer, store answers.Store) error {
	records, err := store.Load(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TYPE\tQUESTION\tANSWER")
	for _, r := range records {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Type, r.Question, r.Answer)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "%d answers\n", len(records))
	return nil
}

// lookupAnswer reports the best cached match for q without consulting the oracle.
func lookupAnswer(ctx context.Context, w io.Writer, store answers.Store, threshold float64, q answers.Query) error {
	resolver := answers.NewResolver(store, nil, threshold, logging.OrNop(nil))
	match, hit := resolver.Lookup(ctx, q)
	if match.Record.Question == "" {
		_, _ = fmt.Fprintf(w, "no cached %s answers\n", q.Type)
		return nil
	}
	verdict := "miss"
	if hit {
		verdict = "hit"
	}
	_, _ = fmt.Fprintf(w, "%s (score %.2f, threshold %.2f)\n", verdict, match.Score, resolver.Threshold())
	_, _ = fmt.Fprintf(w, "  question: %s\n  answer:   %s\n", match.Record.Question, match.Record.Answer)
	return nil
}

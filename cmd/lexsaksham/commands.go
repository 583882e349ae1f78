package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"lexsaksham-backend/app"
	"lexsaksham-backend/config"
	"lexsaksham-backend/models"
	"lexsaksham-backend/observability"
	"lexsaksham-backend/service"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	jsonOutput bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "lexsaksham",
		Short:        "Analyze contract clauses from the command line",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline progress to stderr")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newSummarizeCmd(opts),
		newSearchCmd(opts),
		newExtractCmd(opts),
	)
	return root
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var single bool
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Segment a contract and analyze every clause",
		Long: `Reads a contract from a file (PDF or text) or from stdin and prints
the clause type, risk level, summary and safer alternative of each clause.

Examples:
  lexsaksham analyze lease.pdf
  cat nda.txt | lexsaksham analyze --json
  echo "The Supplier shall indemnify the Client." | lexsaksham analyze --clause`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			a, err := buildApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			var records []*models.AnalysisRecord
			if single {
				rec, err := a.Analysis.AnalyzeClause(cmd.Context(), text)
				if err != nil {
					return err
				}
				records = []*models.AnalysisRecord{rec}
			} else {
				res, err := a.Analysis.AnalyzeDocument(cmd.Context(), text)
				if err != nil {
					return err
				}
				records = res.Records
			}

			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"analysis_results": records})
			}
			return renderRecords(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().BoolVar(&single, "clause", false, "treat the whole input as a single clause")
	return cmd
}

func newSummarizeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize [file]",
		Short: "Print the plain-language summary of a clause",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			a, err := buildApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.Analysis.Summarize(cmd.Context(), text)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"summary": summary})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), summary)
			return err
		},
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "search <clause text>",
		Short: "Find prior judgments similar to a clause",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Judgments.Search(cmd.Context(), service.SearchJudgmentsRequest{
				ClauseText: strings.Join(args, " "),
				TopK:       topK,
			})
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"results": res.Judgments})
			}
			return renderJudgments(cmd.OutOrStdout(), res.Judgments)
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", service.DefaultJudgmentTopK, "number of judgments to return")
	return cmd
}

func newExtractCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the plain text of a PDF or text contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"extracted_text": text})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
}

func buildApp(ctx context.Context, opts *rootOptions) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// keep the CLI quiet unless asked
	level := "error"
	if opts.verbose {
		level = "debug"
	}
	logger := observability.NewLogger(os.Stderr, "text", level)
	return app.New(ctx, cfg, logger)
}

// readInput returns the text of the named file, or stdin when no file
// is given or the name is "-". PDFs are converted to plain text.
func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(io.LimitReader(stdin, service.MaxUploadSize+1))
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		if len(data) > service.MaxUploadSize {
			return "", service.ErrFileTooLarge
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(string(data), "%PDF-") || strings.EqualFold(filepath.Ext(args[0]), ".pdf") {
		return service.ExtractText("application/pdf", data)
	}
	return string(data), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderRecords(w io.Writer, records []*models.AnalysisRecord) error {
	for i, rec := range records {
		fmt.Fprintf(w, "Clause %d [%s] %s (%.2f%%)\n", i+1, rec.RiskLevel, rec.Label, rec.Confidence)
		fmt.Fprintf(w, "  %s\n", rec.Text)
		fmt.Fprintf(w, "  Summary: %s\n", rec.RuleSummary)
		if rec.SaferAlternative != "" {
			fmt.Fprintf(w, "  Safer alternative: %s\n", rec.SaferAlternative)
		}
		if rec.NeedsReview {
			fmt.Fprintln(w, "  Low confidence: review manually")
		}
		if len(rec.Explanation) > 0 {
			words := make([]string, len(rec.Explanation))
			for j, tw := range rec.Explanation {
				words[j] = fmt.Sprintf("%s(%+.3f)", tw.Word, tw.Weight)
			}
			fmt.Fprintf(w, "  Key words: %s\n", strings.Join(words, " "))
		}
		if len(rec.Degradations) > 0 {
			names := make([]string, len(rec.Degradations))
			for j, d := range rec.Degradations {
				names[j] = string(d)
			}
			fmt.Fprintf(w, "  Fallbacks: %s\n", strings.Join(names, ", "))
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func renderJudgments(w io.Writer, judgments []models.Judgment) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tYEAR\tID\tCASE")
	for _, j := range judgments {
		fmt.Fprintf(tw, "%.3f\t%d\t%s\t%s\n", j.SimilarityScore, j.Year, j.JudgmentID, j.CaseName)
	}
	return tw.Flush()
}

package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/forensic-cli/internal/fetcher"
	"github.com/sells-group/forensic-cli/internal/model"
	"github.com/sells-group/forensic-cli/internal/resolver"
	"github.com/sells-group/forensic-cli/internal/scorer"
	"github.com/sells-group/forensic-cli/internal/store"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a batch of company disclosures",
	Long: `Score a spreadsheet of company disclosures for earnings-manipulation risk.

Column headers are resolved to canonical attributes by fuzzy matching, so
inputs from different data vendors do not need identical schemas. Each row
becomes one company record; rows with missing attributes are scored on the
rules that still apply and flagged incomplete.

The verdict taxonomy adapts to batch size: small batches get a binary
high/low split at the configured threshold, larger batches a traffic-light
split at the empirical tertiles of the batch scores.

Examples:
  # Score an Excel sheet and print a table
  forensic-cli score --input disclosures.xlsx

  # Score a specific sheet and persist the run
  forensic-cli score --input disclosures.xlsx --sheet FY2025 --save

  # CSV input with a semicolon delimiter, CSV output to a file
  forensic-cli score --input data.csv --delimiter ";" --format csv --output scores.csv`,
	RunE: runScoreCmd,
}

func init() {
	f := scoreCmd.Flags()
	f.String("input", "", "input spreadsheet (.xlsx or .csv)")
	f.String("sheet", "", "sheet name for xlsx input (default: first sheet)")
	f.String("delimiter", ",", "field delimiter for csv input")
	f.Int("skip-rows", 0, "data rows to skip after the header")
	f.String("format", "table", "output format: table, csv, or json")
	f.String("output", "", "output file path (default: stdout)")
	f.Bool("save", false, "persist the run to the configured store")
	_ = scoreCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(scoreCmd)
}

func runScoreCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	input, _ := cmd.Flags().GetString("input")
	sheet, _ := cmd.Flags().GetString("sheet")
	delimiter, _ := cmd.Flags().GetString("delimiter")
	skipRows, _ := cmd.Flags().GetInt("skip-rows")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")

	if format != "table" && format != "csv" && format != "json" {
		return eris.Errorf("score: --format must be table, csv, or json (got %q)", format)
	}

	opts := fetcher.Options{
		SheetName: sheet,
		SkipRows:  skipRows,
		Delimiter: delimiterRune(delimiter),
	}

	table, err := fetcher.ReadTable(input, opts)
	if err != nil {
		return err
	}

	res, err := resolver.New(cfg.Resolver)
	if err != nil {
		return err
	}
	resolution := res.Resolve(table.Header)
	for _, h := range resolution.Unmapped {
		fmt.Fprintf(os.Stderr, "warning: unmapped column %q ignored\n", h)
	}

	records, warnings := resolver.BuildRecords(resolution, table.Header, table.Rows)
	for _, w := range warnings {
		zap.L().Warn("score: non-numeric cell skipped",
			zap.Int("row", w.Row),
			zap.String("header", w.Header),
			zap.String("value", w.Value),
		)
	}

	warm := scorer.New(cfg.Scorer)
	batch, err := warm.ScoreBatch(ctx, records, cfg.Batch.MaxConcurrentRecords)
	if err != nil {
		return eris.Wrap(err, "score: batch")
	}

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "score: create %s", outputPath)
		}
		defer f.Close() //nolint:errcheck
		out = f
	}

	switch format {
	case "csv":
		if err := writeScoreCSV(out, batch); err != nil {
			return err
		}
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(batch); err != nil {
			return eris.Wrap(err, "score: encode json")
		}
	default:
		formatScoreTable(out, batch)
	}

	if save {
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run := &model.ScoreRun{
			InputFile:  input,
			Population: len(batch.Results),
			Policy:     batch.Policy,
			Results:    batch.Results,
		}
		if err := st.SaveRun(ctx, run); err != nil {
			return eris.Wrap(err, "score: save run")
		}
		fmt.Fprintf(os.Stderr, "Run saved: %s\n", run.ID)
	}

	return nil
}

// formatScoreTable writes batch results as an aligned table, highest risk
// first, followed by a one-line policy summary.
func formatScoreTable(out io.Writer, batch *scorer.BatchResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COMPANY\tSCORE\tVERDICT\tNARRATIVE\tFINDINGS")
	_, _ = fmt.Fprintln(w, "-------\t-----\t-------\t---------\t--------")

	for _, r := range sortedByScore(batch.Results) {
		_, _ = fmt.Fprintf(w, "%s\t%.0f\t%s\t%s\t%s\n",
			r.CompanyID,
			r.Score,
			r.Verdict,
			scorer.Narrative(r.Score),
			findingsSummary(r),
		)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\n%d companies, grouping: %s\n", len(batch.Results), batch.Policy.Method)
}

// writeScoreCSV writes batch results in a flat CSV shape.
func writeScoreCSV(out io.Writer, batch *scorer.BatchResult) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"company", "score", "verdict", "incomplete", "findings"}); err != nil {
		return eris.Wrap(err, "score: write csv header")
	}
	for _, r := range sortedByScore(batch.Results) {
		row := []string{
			r.CompanyID,
			strconv.FormatFloat(r.Score, 'f', 0, 64),
			string(r.Verdict),
			strconv.FormatBool(r.Incomplete),
			findingsSummary(r),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "score: write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "score: flush csv")
}

// delimiterRune decodes the first rune of the --delimiter flag, so
// multi-byte delimiters are not truncated to their lead byte.
func delimiterRune(s string) rune {
	if s == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// findingsSummary renders a result's triggered rules (and any data gaps)
// as a compact single cell.
func findingsSummary(r model.RiskScoreResult) string {
	parts := make([]string, 0, len(r.Findings)+1)
	for _, f := range r.Findings {
		parts = append(parts, fmt.Sprintf("%s +%.0f", f.Attribute, f.Penalty))
	}
	if r.Incomplete {
		missing := make([]string, len(r.SkippedRules))
		for i, a := range r.SkippedRules {
			missing[i] = string(a)
		}
		parts = append(parts, "incomplete: "+strings.Join(missing, ","))
	}
	if len(parts) == 0 {
		return "clean"
	}
	return strings.Join(parts, "; ")
}

// sortedByScore returns results ordered highest score first, company ID
// breaking ties, without mutating the input.
func sortedByScore(results []model.RiskScoreResult) []model.RiskScoreResult {
	out := make([]model.RiskScoreResult, len(results))
	copy(out, results)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CompanyID < out[j].CompanyID
	})
	return out
}

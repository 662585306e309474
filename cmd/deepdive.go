package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/forensic-cli/internal/extract"
	"github.com/sells-group/forensic-cli/internal/model"
	"github.com/sells-group/forensic-cli/internal/scorer"
	"github.com/sells-group/forensic-cli/internal/sentiment"
)

var deepdiveCmd = &cobra.Command{
	Use:   "deepdive",
	Short: "Extract figures from report text and score one company",
	Long: `Deep dive on a single company from unstructured report text.

Figures are extracted by two independent tiers: a semantic tier backed by
the Anthropic API and a deterministic pattern tier. When both tiers agree
within tolerance the semantic value wins; when they conflict the pattern
value wins and the disagreement is preserved in the audit output. Without
an API key (or when the backend is down) extraction runs pattern-only.

The extracted record is scored against the forensic rule table and the
report tone is checked for divergence: relentlessly upbeat language on a
high-risk score is flagged.

Examples:
  # Extract, score, and tone-check an annual report
  forensic-cli deepdive --text report.txt --company "Acme Industrials"

  # Machine-readable output
  forensic-cli deepdive --text report.txt --company acme --format json`,
	RunE: runDeepdive,
}

func init() {
	f := deepdiveCmd.Flags()
	f.String("text", "", "report text file")
	f.String("company", "", "company identifier for the result")
	f.String("format", "table", "output format: table or json")
	_ = deepdiveCmd.MarkFlagRequired("text")
	_ = deepdiveCmd.MarkFlagRequired("company")

	rootCmd.AddCommand(deepdiveCmd)
}

// deepDiveReport is the JSON output shape of a deep dive.
type deepDiveReport struct {
	Company    string                                            `json:"company"`
	Extraction map[model.Attribute]model.ExtractionCandidate     `json:"extraction"`
	Unresolved []model.Attribute                                 `json:"unresolved,omitempty"`
	Degraded   bool                                              `json:"backend_degraded,omitempty"`
	Result     model.RiskScoreResult                             `json:"result"`
	Narrative  string                                            `json:"narrative"`
	Tone       model.ToneAssessment                              `json:"tone"`
}

func runDeepdive(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	textPath, _ := cmd.Flags().GetString("text")
	company, _ := cmd.Flags().GetString("company")
	format, _ := cmd.Flags().GetString("format")

	if format != "table" && format != "json" {
		return eris.Errorf("deepdive: --format must be table or json (got %q)", format)
	}

	raw, err := os.ReadFile(textPath)
	if err != nil {
		return eris.Wrapf(err, "deepdive: read %s", textPath)
	}
	text := string(raw)

	var backend extract.Backend
	if b := extract.NewAnthropicBackend(cfg.Anthropic, cfg.Extract.BackendTimeoutSecs); b != nil {
		backend = b
	} else {
		fmt.Fprintln(os.Stderr, "warning: no Anthropic API key configured, extraction is pattern-only")
	}

	ext := extract.New(cfg.Extract, backend)
	res := ext.Extract(ctx, text, model.RawAttributes())
	if res.BackendDegraded {
		fmt.Fprintln(os.Stderr, "warning: semantic backend unavailable, degraded to pattern-only")
	}

	rec := extract.BuildRecord(company, res)

	warm := scorer.New(cfg.Scorer)
	result := warm.Score(rec, model.GroupingPolicy{
		BucketCount:       2,
		HighRiskThreshold: cfg.Scorer.HighRiskThreshold,
		Method:            scorer.MethodBinary,
	})

	tone := sentiment.New(cfg.Sentiment, cfg.Scorer.HighRiskThreshold).Assess(text, &result)

	report := deepDiveReport{
		Company:    company,
		Extraction: res.Candidates,
		Unresolved: res.Unresolved,
		Degraded:   res.BackendDegraded,
		Result:     result,
		Narrative:  scorer.Narrative(result.Score),
		Tone:       tone,
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	formatDeepDive(os.Stdout, report)
	return nil
}

// formatDeepDive writes the extraction audit, score, and tone assessment in
// analyst-readable form.
func formatDeepDive(out io.Writer, report deepDiveReport) {
	_, _ = fmt.Fprintf(out, "Company: %s\n\n", report.Company)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ATTRIBUTE\tVALUE\tSOURCE\tCONF\tNOTES")
	_, _ = fmt.Fprintln(w, "---------\t-----\t------\t----\t-----")
	for _, attr := range sortedAttributes(report.Extraction) {
		c := report.Extraction[attr]
		_, _ = fmt.Fprintf(w, "%s\t%.2f\t%s\t%.2f\t%s\n",
			attr, c.Value, c.Source, c.Confidence, candidateNotes(c))
	}
	for _, attr := range report.Unresolved {
		_, _ = fmt.Fprintf(w, "%s\t-\t-\t-\tnot stated\n", attr)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\nScore: %.0f (%s)\n", report.Result.Score, report.Result.Verdict)
	_, _ = fmt.Fprintf(out, "Assessment: %s\n", report.Narrative)
	for _, f := range report.Result.Findings {
		_, _ = fmt.Fprintf(out, "  - %s\n", f.Rationale)
	}
	if report.Result.Incomplete {
		_, _ = fmt.Fprintf(out, "Note: %d rule(s) skipped for missing data\n", len(report.Result.SkippedRules))
	}

	_, _ = fmt.Fprintf(out, "\nTone: %s (polarity %.2f, subjectivity %.2f)\n",
		report.Tone.Verdict, report.Tone.Tone.Polarity, report.Tone.Tone.Subjectivity)
	if report.Tone.Divergence {
		_, _ = fmt.Fprintln(out, "ALERT: report tone diverges from the quantitative risk profile")
	}
}

// candidateNotes summarizes tier agreement for the audit column.
func candidateNotes(c model.ExtractionCandidate) string {
	switch {
	case c.Conflict:
		return fmt.Sprintf("conflict: semantic %.2f vs pattern %.2f", *c.SemanticValue, *c.PatternValue)
	case c.Agreement:
		return "tiers agree"
	default:
		return string(c.Source) + " only"
	}
}

func sortedAttributes(m map[model.Attribute]model.ExtractionCandidate) []model.Attribute {
	attrs := make([]model.Attribute, 0, len(m))
	for a := range m {
		attrs = append(attrs, a)
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i] < attrs[j] })
	return attrs
}

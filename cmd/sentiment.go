package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/forensic-cli/internal/model"
	"github.com/sells-group/forensic-cli/internal/sentiment"
)

var sentimentCmd = &cobra.Command{
	Use:   "sentiment",
	Short: "Assess the tone of report text",
	Long: `Assess the tone of management commentary or report text.

Computes a polarity/subjectivity signature from a financial-domain lexicon
and classifies the tone. With --score, the tone is additionally checked
against that forensic score: highly subjective, optimistic language on a
high-risk score is a divergence alert.

Examples:
  # Classify tone from a file
  forensic-cli sentiment --text mdna.txt

  # Read from stdin and check divergence against a known score
  cat mdna.txt | forensic-cli sentiment --score 72`,
	RunE: runSentiment,
}

func init() {
	f := sentimentCmd.Flags()
	f.String("text", "", "text file to assess (default: stdin)")
	f.Float64("score", -1, "forensic score to check tone divergence against")
	f.String("format", "table", "output format: table or json")

	rootCmd.AddCommand(sentimentCmd)
}

func runSentiment(cmd *cobra.Command, _ []string) error {
	textPath, _ := cmd.Flags().GetString("text")
	score, _ := cmd.Flags().GetFloat64("score")
	format, _ := cmd.Flags().GetString("format")

	if format != "table" && format != "json" {
		return eris.Errorf("sentiment: --format must be table or json (got %q)", format)
	}

	var (
		raw []byte
		err error
	)
	if textPath == "" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(textPath)
	}
	if err != nil {
		return eris.Wrap(err, "sentiment: read text")
	}

	var result *model.RiskScoreResult
	if score >= 0 {
		result = &model.RiskScoreResult{Score: score}
	}

	s := sentiment.New(cfg.Sentiment, cfg.Scorer.HighRiskThreshold)
	assessment := s.Assess(string(raw), result)

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(assessment)
	}

	fmt.Printf("Verdict: %s\n", assessment.Verdict)
	fmt.Printf("Polarity: %.2f\n", assessment.Tone.Polarity)
	fmt.Printf("Subjectivity: %.2f\n", assessment.Tone.Subjectivity)
	if result != nil {
		fmt.Printf("Divergence vs score %.0f: %t\n", score, assessment.Divergence)
	}

	return nil
}

package model

import "time"

// ScoreRun is one persisted batch scoring run: the grouping policy chosen
// for the population plus every company's result under it.
type ScoreRun struct {
	ID         string            `json:"id"`
	InputFile  string            `json:"input_file"`
	Population int               `json:"population"`
	Policy     GroupingPolicy    `json:"policy"`
	Results    []RiskScoreResult `json:"results,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

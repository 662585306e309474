package scorer

// Narrative thresholds for the human-readable verdict line.
const (
	narrativeHighFloor     = 60
	narrativeModerateFloor = 35
)

// Narrative returns the analyst-facing verdict line for a forensic score.
// Independent of the grouping policy buckets: this is interpretation text,
// not taxonomy.
func Narrative(score float64) string {
	switch {
	case score >= narrativeHighFloor:
		return "HIGH PROBABILITY OF MANIPULATION"
	case score >= narrativeModerateFloor:
		return "MODERATE RISK - monitor closely"
	default:
		return "LOW RISK - clean health"
	}
}

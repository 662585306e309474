package sentiment

// Financial sentiment word lists in the Loughran-McDonald style. Narrative
// disclosure text skews positive, so the lists lean on words management
// actually writes in MD&A and director's report sections.

func positiveLexicon() map[string]struct{} {
	return wordSet(
		"achieve", "attain", "benefit", "better", "competitive", "delight",
		"enhance", "excellent", "exceptional", "extraordinary", "favorable",
		"gain", "good", "great", "grew", "growth", "improve", "improved",
		"improvement", "increasing", "innovation", "innovative", "leader",
		"leading", "opportunity", "optimal", "optimistic", "outperform",
		"positive", "profitable", "progress", "prosper", "record", "remarkable",
		"resilient", "robust", "solid", "strength", "strong", "succeed",
		"success", "successful", "superior", "surpass", "tremendous", "upbeat",
		"valuable", "winning",
	)
}

func negativeLexicon() map[string]struct{} {
	return wordSet(
		"abandon", "adverse", "challenge", "challenging", "concern", "concerns",
		"crisis", "damage", "decline", "decrease", "deficit", "deteriorate",
		"difficult", "difficulty", "disappoint", "disappointing",
		"disadvantage", "downturn", "erode", "fail", "failure", "falling",
		"fear", "headwind", "headwinds", "impair", "impairment", "inability",
		"inadequate", "ineffective", "loss", "losses", "negative", "obstacle",
		"poor", "problem", "recession", "restructuring", "slow", "slowdown",
		"stress", "underperform", "unfavorable", "unprofitable", "volatile",
		"volatility", "weak", "weakness", "worse", "worsen", "worst",
	)
}

// subjectiveLexicon captures hedging, speculation, and opinionated language,
// the "vagueness" component of the tone signature.
func subjectiveLexicon() map[string]struct{} {
	return wordSet(
		"almost", "anticipate", "anticipates", "appear", "appears",
		"approximately", "assume", "assumes", "believe", "believes", "could",
		"depend", "depending", "estimate", "estimates", "expect", "expects",
		"exciting", "forecast", "forecasts", "hopeful", "hopefully", "intend",
		"intends", "likely", "may", "maybe", "might", "outlook", "pending",
		"perhaps", "plan", "plans", "poised", "possible", "possibly",
		"potential", "predict", "predicts", "project", "projects", "promising",
		"prospects", "should", "somewhat", "suggest", "suggests", "uncertain",
		"uncertainty", "unclear", "unlikely", "vision", "would",
	)
}

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

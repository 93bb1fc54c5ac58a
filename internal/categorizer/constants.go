package categorizer

// Confidence scores and thresholds.
const (
	// AutoAcceptThreshold is the confidence at or above which a suggestion is
	// pre-selected without user confirmation.
	AutoAcceptThreshold = 0.85
	// ShowThreshold is the confidence a suggestion must exceed to be shown at all.
	ShowThreshold = 0.5
	// DirectMatchConfidence is returned for a rule pattern hit.
	DirectMatchConfidence = 0.9
	// AIConfidence is returned for a model suggestion: shown, never pre-selected.
	AIConfidence = 0.6
)

// Rule learning.
const (
	LearnedRulePriority = 100
	MinTokenLength      = 3
	MaxPatternTokens    = 3
	MinPatternLength    = 3
)

// Strategy names.
const (
	StrategyRule = "Rule"
	StrategyAI   = "AI"
)

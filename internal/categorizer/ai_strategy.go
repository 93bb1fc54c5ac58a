package categorizer

import (
	"context"
	"strings"
	"time"

	"fjacquet/fintrack/internal/logging"
)

// AIStrategy asks an AIClient to choose among the user's categories. Its
// suggestions carry AIConfidence: shown to the user but never pre-selected.
type AIStrategy struct {
	aiClient AIClient
	timeout  time.Duration
	logger   logging.Logger
}

// NewAIStrategy creates a new AIStrategy. A zero timeout disables the per-call deadline.
func NewAIStrategy(aiClient AIClient, timeout time.Duration, logger logging.Logger) *AIStrategy {
	return &AIStrategy{
		aiClient: aiClient,
		timeout:  timeout,
		logger:   logging.OrDefault(logger),
	}
}

// Name returns the name of this strategy for logging and debugging.
func (s *AIStrategy) Name() string {
	return StrategyAI
}

// Categorize implements CategorizationStrategy. Client failures are logged
// and reported as no match.
func (s *AIStrategy) Categorize(ctx context.Context, in Input) (Suggestion, bool, error) {
	if s.aiClient == nil || strings.TrimSpace(in.Description) == "" || len(in.Categories) == 0 {
		return Suggestion{}, false, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	names := make([]string, len(in.Categories))
	for i, c := range in.Categories {
		names[i] = c.Name
	}

	answer, err := s.aiClient.SuggestCategory(ctx, in.Description, names)
	if err != nil {
		s.logger.WithError(err).Warn("AI categorization failed",
			logging.F(logging.FieldStrategy, s.Name()),
			logging.F(logging.FieldUserID, in.UserID))
		return Suggestion{}, false, nil
	}
	if strings.TrimSpace(answer) == "" {
		return Suggestion{}, false, nil
	}

	for _, c := range in.Categories {
		if strings.EqualFold(c.Name, answer) {
			id := c.ID
			return Suggestion{
				CategoryID:   &id,
				CategoryName: c.Name,
				CategoryType: c.Type,
				Confidence:   AIConfidence,
				Strategy:     s.Name(),
			}, true, nil
		}
	}

	s.logger.Debug("AI returned an unknown category",
		logging.F(logging.FieldStrategy, s.Name()),
		logging.F("ai_category", answer))
	return Suggestion{}, false, nil
}

package categorizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fjacquet/fintrack/internal/logging"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

// ErrNoAPIKey is returned when the Gemini client is created without a key.
var ErrNoAPIKey = errors.New("GEMINI_API_KEY not set")

// GeminiClient implements AIClient with the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger logging.Logger
}

// NewGeminiClient connects to Gemini with apiKey.
func NewGeminiClient(ctx context.Context, apiKey, model string, logger logging.Logger) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	m := client.GenerativeModel(model)
	m.SetTemperature(0)

	return &GeminiClient{client: client, model: m, logger: logging.OrDefault(logger)}, nil
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// SuggestCategory implements AIClient.
func (c *GeminiClient) SuggestCategory(ctx context.Context, description string, categories []string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(buildPrompt(description, categories)))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from Gemini API")
	}

	text := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	name := extractCategory(text, categories)

	c.logger.Debug("Gemini suggested category",
		logging.F(logging.FieldOperation, "gemini_categorization"),
		logging.F("category", name))
	return name, nil
}

func buildPrompt(description string, categories []string) string {
	return fmt.Sprintf(`Categorize the following bank transaction description:
%s

Assign it to exactly one of these categories:
%s

Respond in this format:
Category: [Selected Category Name]`, description, strings.Join(categories, ", "))
}

// extractCategory reads the "Category:" line of a model answer and maps it
// onto one of categories. Unknown answers yield "".
func extractCategory(response string, categories []string) string {
	var answer string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(line), "category:") {
			answer = strings.TrimSpace(line[len("category:"):])
			break
		}
	}
	answer = strings.Trim(answer, " .*\"'[]")

	for _, c := range categories {
		if strings.EqualFold(c, answer) {
			return c
		}
	}
	if answer != "" {
		return ""
	}
	// unstructured answer: accept a single category mentioned verbatim
	var match string
	for _, c := range categories {
		if strings.Contains(strings.ToLower(response), strings.ToLower(c)) {
			if match != "" {
				return ""
			}
			match = c
		}
	}
	return match
}

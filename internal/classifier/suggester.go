package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/marosky/timelens/internal/models"
	"github.com/marosky/timelens/internal/registry"
)

// Suggestion is a proposed categorization for an app the rule classifier
// could not match. It is advisory: the management layer decides whether to
// turn it into a mapping.
type Suggestion struct {
	CategoryID models.CategoryID `json:"category_id"`
	Confidence float64           `json:"confidence"`
	Reason     string            `json:"reason"`
}

type gptSuggestion struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// GPTSuggester asks a chat model which existing category an unmatched app
// name most likely belongs to. Failures degrade to an unknown suggestion,
// never an error surfaced to aggregation.
type GPTSuggester struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

func NewGPTSuggester(apiKey string, model string, maxTokens int, temperature float64, logger *zap.Logger) *GPTSuggester {
	return &GPTSuggester{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

// SuggestCategory proposes a category for appName from the snapshot's
// category set.
func (s *GPTSuggester) SuggestCategory(ctx context.Context, appName string, reg *registry.Registry) Suggestion {
	ids := make([]string, 0, len(reg.Categories()))
	for _, c := range reg.Categories() {
		ids = append(ids, string(c.ID))
	}

	prompt := fmt.Sprintf(`The application %q was used on a desktop computer but is not mapped to any productivity category yet.

Pick the single most fitting category id from this list: %s

Return the response as a JSON object with this structure:
{
    "category": "category_id",
    "confidence": 0.0,
    "reason": "one_sentence_reason"
}

Return ONLY the JSON, no other text.`, appName, strings.Join(ids, ", "))

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   s.maxTokens,
			Temperature: float32(s.temperature),
		},
	)
	if err != nil {
		s.logger.Error("Failed to get category suggestion",
			zap.Error(err),
			zap.String("app_name", appName))
		return s.fallbackSuggestion()
	}

	var parsed gptSuggestion
	response := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		s.logger.Error("Failed to parse suggestion response",
			zap.Error(err),
			zap.String("response", response))
		return s.fallbackSuggestion()
	}

	id := models.NormalizeCategoryID(parsed.Category)
	if _, ok := reg.LookupByID(id); !ok {
		s.logger.Warn("Suggested category not in registry",
			zap.String("category", parsed.Category),
			zap.String("app_name", appName))
		return s.fallbackSuggestion()
	}

	return Suggestion{
		CategoryID: id,
		Confidence: parsed.Confidence,
		Reason:     parsed.Reason,
	}
}

// Fallback when the model is unreachable or returns garbage.
func (s *GPTSuggester) fallbackSuggestion() Suggestion {
	return Suggestion{
		CategoryID: models.UnknownCategoryID,
		Confidence: 0,
	}
}

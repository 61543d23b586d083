package classifier

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/marosky/timelens/internal/models"
)

// chatHandler serves a minimal chat completion whose message content is the
// given string.
func chatHandler(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"id": "chatcmpl-test",
			"object": "chat.completion",
			"choices": [
				{
					"index": 0,
					"message": {"role": "assistant", "content": %q},
					"finish_reason": "stop"
				}
			]
		}`, content)
	}
}

func newTestSuggester(t *testing.T, handler http.Handler) *GPTSuggester {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"

	return &GPTSuggester{
		client:      openai.NewClientWithConfig(cfg),
		model:       "gpt-3.5-turbo",
		maxTokens:   150,
		temperature: 0.2,
		logger:      zap.NewNop(),
	}
}

func TestSuggestCategoryResolvesKnownCategory(t *testing.T) {
	s := newTestSuggester(t, chatHandler(`{"category": "Development", "confidence": 0.9, "reason": "it is an IDE"}`))

	got := s.SuggestCategory(context.Background(), "Zed", testRegistry())

	if got.CategoryID != "development" {
		t.Fatalf("want development, got %q", got.CategoryID)
	}
	if got.Confidence != 0.9 || got.Reason != "it is an IDE" {
		t.Fatalf("unexpected suggestion: %#v", got)
	}
}

func TestSuggestCategoryFallsBackOnAPIError(t *testing.T) {
	s := newTestSuggester(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusInternalServerError)
	}))

	got := s.SuggestCategory(context.Background(), "Zed", testRegistry())

	if got.CategoryID != models.UnknownCategoryID || got.Confidence != 0 {
		t.Fatalf("want unknown fallback on API error, got %#v", got)
	}
}

func TestSuggestCategoryFallsBackOnMalformedResponse(t *testing.T) {
	s := newTestSuggester(t, chatHandler("Sure! I'd categorize that as development."))

	got := s.SuggestCategory(context.Background(), "Zed", testRegistry())

	if got.CategoryID != models.UnknownCategoryID {
		t.Fatalf("want unknown fallback on unparseable response, got %#v", got)
	}
}

func TestSuggestCategoryFallsBackOnUnregisteredCategory(t *testing.T) {
	s := newTestSuggester(t, chatHandler(`{"category": "gaming", "confidence": 0.8, "reason": "made up"}`))

	got := s.SuggestCategory(context.Background(), "Zed", testRegistry())

	if got.CategoryID != models.UnknownCategoryID {
		t.Fatalf("want unknown fallback for category outside the registry, got %#v", got)
	}
}

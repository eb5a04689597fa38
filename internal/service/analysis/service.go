package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/avelardi/supportlens/internal/config"
	"github.com/avelardi/supportlens/internal/model/chat"
)

// maxSuggestions caps how many coaching suggestions one message may carry.
const maxSuggestions = 2

// fallbackReason is reported whenever the model could not produce a usable
// judgment within the call budget.
const fallbackReason = "analysis unavailable"

// Analyzer scores a transcript and, when sentiment falls below the
// configured threshold, produces coaching suggestions for the agent.
// Implementations never fail: analysis trouble resolves to fallback values
// so message delivery is never blocked.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string) (chat.SentimentResult, []string)
}

// Service implements Analyzer against a chat completion model.
type Service struct {
	completer Completer
	threshold float64
	timeout   time.Duration
}

// NewService wires the analyzer to a completer. A nil completer is allowed
// and degrades every call to the fallback result, which lets the relay keep
// running when no model is configured.
func NewService(completer Completer, cfg config.AnalysisConfig) *Service {
	return &Service{
		completer: completer,
		threshold: cfg.Threshold,
		timeout:   cfg.Timeout,
	}
}

// Fallback is the well-defined result used when analysis fails.
func Fallback() chat.SentimentResult {
	return chat.SentimentResult{
		Sentiment: chat.SentimentNeutral,
		Score:     0.0,
		Reason:    fallbackReason,
	}
}

// Analyze scores the transcript and requests suggestions when the score is
// below the threshold. Suggestions are always non-nil so they serialize as
// a JSON array.
func (s *Service) Analyze(ctx context.Context, transcript string) (chat.SentimentResult, []string) {
	sentiment := s.ScoreSentiment(ctx, transcript)

	suggestions := []string{}
	if sentiment.Score < s.threshold {
		suggestions = s.Suggest(ctx, transcript, sentiment)
	}
	return sentiment, suggestions
}

// ScoreSentiment judges the whole conversation. Any failure resolves to the
// fallback value rather than propagating.
func (s *Service) ScoreSentiment(ctx context.Context, transcript string) chat.SentimentResult {
	if s.completer == nil {
		return Fallback()
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.completer.Complete(callCtx, fmt.Sprintf(sentimentPrompt, transcript))
	if err != nil {
		log.Printf("[analysis] sentiment call failed: %v", err)
		return Fallback()
	}

	var payload sentimentPayload
	if err := unmarshalModelJSON(raw, &payload); err != nil {
		log.Printf("[analysis] sentiment output parse failed: %v", err)
		return Fallback()
	}

	label, ok := parseSentimentLabel(payload.Sentiment)
	if !ok {
		log.Printf("[analysis] unknown sentiment label %q", payload.Sentiment)
		return Fallback()
	}

	return chat.SentimentResult{
		Sentiment: label,
		Score:     clampScore(payload.Score),
		Reason:    strings.TrimSpace(payload.Reason),
	}
}

// Suggest asks the model for 1-2 tactful improvements for the agent.
// Failures yield an empty set, never an error.
func (s *Service) Suggest(ctx context.Context, transcript string, sentiment chat.SentimentResult) []string {
	if s.completer == nil {
		return []string{}
	}

	sentimentJSON, err := json.Marshal(sentiment)
	if err != nil {
		return []string{}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.completer.Complete(callCtx, fmt.Sprintf(suggestionPrompt, transcript, sentimentJSON))
	if err != nil {
		log.Printf("[analysis] suggestion call failed: %v", err)
		return []string{}
	}

	var payload suggestionPayload
	if err := unmarshalModelJSON(raw, &payload); err != nil {
		log.Printf("[analysis] suggestion output parse failed: %v", err)
		return []string{}
	}

	suggestions := make([]string, 0, maxSuggestions)
	for _, suggestion := range payload.Suggestions {
		trimmed := strings.TrimSpace(suggestion)
		if trimmed == "" {
			continue
		}
		suggestions = append(suggestions, trimmed)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions
}

type sentimentPayload struct {
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason"`
}

type suggestionPayload struct {
	Suggestions []string `json:"suggestions"`
}

// unmarshalModelJSON extracts the JSON object from a raw completion. Models
// wrap their JSON in prose or code fences often enough that a brace scan is
// the reliable option.
func unmarshalModelJSON(content string, out any) error {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("missing json object")
	}
	return json.Unmarshal([]byte(trimmed[start:end+1]), out)
}

func parseSentimentLabel(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case chat.SentimentPositive:
		return chat.SentimentPositive, true
	case chat.SentimentNeutral:
		return chat.SentimentNeutral, true
	case chat.SentimentNegative:
		return chat.SentimentNegative, true
	default:
		return "", false
	}
}

func clampScore(val float64) float64 {
	if val < -1.0 {
		return -1.0
	}
	if val > 1.0 {
		return 1.0
	}
	return val
}

const sentimentPrompt = `You are a sentiment analysis expert. Analyze the following customer support conversation.
Return a JSON with:
1. "sentiment": overall sentiment (positive, neutral, negative)
2. "score": sentiment score from -1.0 (very negative) to 1.0 (very positive)
3. "reason": brief explanation for your analysis

Conversation:
%s

Return only valid JSON without any other text.`

const suggestionPrompt = `You are an expert customer support coach. The following conversation between a support agent and customer shows negative sentiment.

Conversation:
%s

Sentiment analysis: %s

Provide 1-2 specific, tactful suggestions for the support agent to improve the customer's sentiment.
Be concise and practical. Format as JSON with one field: "suggestions" containing an array of suggestion strings.

Return only valid JSON without any other text.`

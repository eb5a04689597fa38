package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/avelardi/supportlens/internal/config"
	"github.com/avelardi/supportlens/internal/model/chat"
)

type stubCompleter struct {
	sentimentJSON  string
	suggestionJSON string
	err            error
	delay          time.Duration
}

func (c *stubCompleter) Complete(ctx context.Context, promptText string) (string, error) {
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if c.err != nil {
		return "", c.err
	}
	if strings.Contains(promptText, "customer support coach") {
		return c.suggestionJSON, nil
	}
	return c.sentimentJSON, nil
}

func testConfig(threshold float64) config.AnalysisConfig {
	return config.AnalysisConfig{Threshold: threshold, Timeout: 5 * time.Second}
}

func TestAnalyzeNegativeSentimentTriggersSuggestions(t *testing.T) {
	completer := &stubCompleter{
		sentimentJSON:  `{"sentiment":"negative","score":-0.6,"reason":"angry tone"}`,
		suggestionJSON: `{"suggestions":["Apologize and offer a fix"]}`,
	}
	svc := NewService(completer, testConfig(-0.2))

	sentiment, suggestions := svc.Analyze(context.Background(), "Customer: This is broken!")

	if sentiment.Sentiment != chat.SentimentNegative {
		t.Fatalf("unexpected sentiment: %s", sentiment.Sentiment)
	}
	if sentiment.Score != -0.6 {
		t.Fatalf("unexpected score: %f", sentiment.Score)
	}
	if sentiment.Reason != "angry tone" {
		t.Fatalf("unexpected reason: %s", sentiment.Reason)
	}
	if len(suggestions) != 1 || suggestions[0] != "Apologize and offer a fix" {
		t.Fatalf("unexpected suggestions: %v", suggestions)
	}
}

func TestAnalyzeAboveThresholdSkipsSuggestions(t *testing.T) {
	completer := &stubCompleter{
		sentimentJSON:  `{"sentiment":"positive","score":0.8,"reason":"grateful customer"}`,
		suggestionJSON: `{"suggestions":["should never be requested"]}`,
	}
	svc := NewService(completer, testConfig(-0.2))

	_, suggestions := svc.Analyze(context.Background(), "Customer: Thanks, that fixed it!")

	if len(suggestions) != 0 {
		t.Fatalf("expected no suggestions, got %v", suggestions)
	}
}

func TestScoreSentimentClampsOutOfRangeScore(t *testing.T) {
	completer := &stubCompleter{sentimentJSON: `{"sentiment":"negative","score":-3.5,"reason":"furious"}`}
	svc := NewService(completer, testConfig(-0.2))

	sentiment := svc.ScoreSentiment(context.Background(), "Customer: !!!")

	if sentiment.Score != -1.0 {
		t.Fatalf("expected score clamped to -1.0, got %f", sentiment.Score)
	}
}

func TestScoreSentimentExtractsWrappedJSON(t *testing.T) {
	completer := &stubCompleter{
		sentimentJSON: "Here is the analysis:\n```json\n{\"sentiment\":\"neutral\",\"score\":0.1,\"reason\":\"calm exchange\"}\n```",
	}
	svc := NewService(completer, testConfig(-0.2))

	sentiment := svc.ScoreSentiment(context.Background(), "Customer: hello")

	if sentiment.Sentiment != chat.SentimentNeutral || sentiment.Score != 0.1 {
		t.Fatalf("failed to extract wrapped json: %+v", sentiment)
	}
}

func TestScoreSentimentFallbacks(t *testing.T) {
	cases := []struct {
		name      string
		completer *stubCompleter
	}{
		{"model error", &stubCompleter{err: errors.New("provider down")}},
		{"no json object", &stubCompleter{sentimentJSON: "the customer sounds upset"}},
		{"unknown label", &stubCompleter{sentimentJSON: `{"sentiment":"furious","score":-0.9,"reason":"x"}`}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(tc.completer, testConfig(-0.2))
			sentiment := svc.ScoreSentiment(context.Background(), "Customer: hello")
			if sentiment != Fallback() {
				t.Fatalf("expected fallback, got %+v", sentiment)
			}
		})
	}
}

func TestScoreSentimentTimeoutFallsBack(t *testing.T) {
	completer := &stubCompleter{
		sentimentJSON: `{"sentiment":"positive","score":0.5,"reason":"late"}`,
		delay:         200 * time.Millisecond,
	}
	svc := NewService(completer, config.AnalysisConfig{Threshold: -0.2, Timeout: 10 * time.Millisecond})

	sentiment := svc.ScoreSentiment(context.Background(), "Customer: hello")

	want := Fallback()
	if sentiment != want {
		t.Fatalf("expected fallback %+v, got %+v", want, sentiment)
	}
	if sentiment.Reason != "analysis unavailable" {
		t.Fatalf("unexpected fallback reason: %s", sentiment.Reason)
	}
}

func TestSuggestCapsAtTwo(t *testing.T) {
	completer := &stubCompleter{
		suggestionJSON: `{"suggestions":["one","two","three","four"]}`,
	}
	svc := NewService(completer, testConfig(-0.2))

	suggestions := svc.Suggest(context.Background(), "transcript", Fallback())

	if len(suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(suggestions))
	}
}

func TestSuggestFailureReturnsEmptySet(t *testing.T) {
	completer := &stubCompleter{err: errors.New("provider down")}
	svc := NewService(completer, testConfig(-0.2))

	suggestions := svc.Suggest(context.Background(), "transcript", Fallback())

	if suggestions == nil || len(suggestions) != 0 {
		t.Fatalf("expected empty non-nil set, got %v", suggestions)
	}
}

func TestNilCompleterDegradesToFallback(t *testing.T) {
	svc := NewService(nil, testConfig(-0.2))

	sentiment, suggestions := svc.Analyze(context.Background(), "Customer: hello")

	if sentiment != Fallback() {
		t.Fatalf("expected fallback, got %+v", sentiment)
	}
	if len(suggestions) != 0 {
		t.Fatalf("expected no suggestions, got %v", suggestions)
	}
}

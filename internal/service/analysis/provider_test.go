package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/avelardi/supportlens/internal/config"
)

func TestNewCompleterFailureYieldsNilInterface(t *testing.T) {
	// Ark without credentials fails at construction. The returned interface
	// must be nil so the service degrades to the fallback instead of
	// dereferencing a nil provider on the first call.
	cfg := config.AnalysisConfig{Provider: config.ProviderArk, Model: "doubao", Timeout: time.Second}

	completer, err := NewCompleter(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error without ark credentials")
	}
	if completer != nil {
		t.Fatalf("expected nil completer on failure, got %T", completer)
	}

	svc := NewService(completer, cfg)
	if sentiment := svc.ScoreSentiment(context.Background(), "Customer: hello"); sentiment != Fallback() {
		t.Fatalf("expected fallback from degraded service, got %+v", sentiment)
	}
}

func TestNewCompleterUnknownProvider(t *testing.T) {
	completer, err := NewCompleter(context.Background(), config.AnalysisConfig{Provider: "openai"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if completer != nil {
		t.Fatalf("expected nil completer, got %T", completer)
	}
}

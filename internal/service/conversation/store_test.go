package conversation

import (
	"fmt"
	"testing"

	"github.com/avelardi/supportlens/internal/model/chat"
)

func customerMessage(id, content string) chat.Message {
	return chat.Message{ID: id, Role: chat.RoleCustomer, Content: content, Timestamp: "10:00:00"}
}

func TestAppendKeepsSubmissionOrder(t *testing.T) {
	store := NewStore()

	for i := 0; i < 5; i++ {
		msg := customerMessage(fmt.Sprintf("m%d", i), fmt.Sprintf("message %d", i))
		if !store.Append("conv-1", msg) {
			t.Fatalf("append %d rejected", i)
		}
	}

	history := store.History("conv-1")
	if len(history) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(history))
	}
	for i, msg := range history {
		if msg.ID != fmt.Sprintf("m%d", i) {
			t.Fatalf("message %d out of order: %s", i, msg.ID)
		}
	}
}

func TestAppendRejectsDuplicateID(t *testing.T) {
	store := NewStore()

	if !store.Append("conv-1", customerMessage("m1", "first")) {
		t.Fatal("first append rejected")
	}
	if store.Append("conv-1", customerMessage("m1", "different content")) {
		t.Fatal("duplicate id accepted")
	}

	history := store.History("conv-1")
	if len(history) != 1 {
		t.Fatalf("expected 1 message, got %d", len(history))
	}
	if history[0].Content != "first" {
		t.Fatalf("history mutated by duplicate: %s", history[0].Content)
	}
}

func TestDuplicateIDAllowedAcrossConversations(t *testing.T) {
	store := NewStore()

	if !store.Append("conv-1", customerMessage("m1", "hello")) {
		t.Fatal("append to conv-1 rejected")
	}
	if !store.Append("conv-2", customerMessage("m1", "hello")) {
		t.Fatal("same id in another conversation rejected")
	}
}

func TestTranscriptRendersRoleLabels(t *testing.T) {
	store := NewStore()

	store.Append("conv-1", chat.Message{ID: "m1", Role: chat.RoleCustomer, Content: "My order never arrived", Timestamp: "10:00:00"})
	store.Append("conv-1", chat.Message{ID: "m2", Role: chat.RoleAgent, Content: "Let me check that for you", Timestamp: "10:00:30"})

	want := "Customer: My order never arrived\nAgent: Let me check that for you"
	if got := store.Transcript("conv-1"); got != want {
		t.Fatalf("unexpected transcript:\n%s", got)
	}
}

func TestTranscriptEmptyForUnknownConversation(t *testing.T) {
	store := NewStore()
	if got := store.Transcript("missing"); got != "" {
		t.Fatalf("expected empty transcript, got %q", got)
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	store := NewStore()
	store.Append("conv-1", customerMessage("m1", "hello"))

	history := store.History("conv-1")
	history[0].Content = "tampered"

	if got := store.History("conv-1")[0].Content; got != "hello" {
		t.Fatalf("store history mutated through returned slice: %s", got)
	}
}

func TestEvictDropsHistory(t *testing.T) {
	store := NewStore()
	store.Append("conv-1", customerMessage("m1", "hello"))

	store.Evict("conv-1")

	if len(store.History("conv-1")) != 0 {
		t.Fatal("expected empty history after evict")
	}
	if !store.Append("conv-1", customerMessage("m1", "hello again")) {
		t.Fatal("expected id to be reusable after evict")
	}

	// Evicting an unknown id is a no-op.
	store.Evict("missing")
}

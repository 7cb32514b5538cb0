package state

import (
	"encoding/json"
	"sync"
	"testing"
)

func TestConversation_AppendAndMessages(t *testing.T) {
	c := NewConversation("user-1")
	c.Append(RoleUser, "hello")
	c.Append(RoleAssistant, "hi there")

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Messages() len = %d, want 2", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant {
		t.Errorf("Messages() = %+v, roles out of order", msgs)
	}
}

func TestConversation_Last(t *testing.T) {
	c := NewConversation("user-1")
	if _, ok := c.Last(); ok {
		t.Error("Last() on empty conversation should report false")
	}
	c.Append(RoleUser, "hello")
	last, ok := c.Last()
	if !ok || last.Content != "hello" {
		t.Errorf("Last() = %+v, %v, want hello, true", last, ok)
	}
}

func TestConversation_ConcurrentAppend(t *testing.T) {
	c := NewConversation("user-1")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Append(RoleUser, "concurrent")
		}()
	}
	wg.Wait()

	if c.Len() != 50 {
		t.Errorf("Len() = %d, want 50", c.Len())
	}
}

func TestConversation_MessagesIsCopy(t *testing.T) {
	c := NewConversation("user-1")
	c.Append(RoleUser, "hello")
	msgs := c.Messages()
	msgs[0].Content = "mutated"

	if got, _ := c.Last(); got.Content != "hello" {
		t.Error("Messages() should return a copy, not the live slice")
	}
}

func TestConversation_JSONRoundTrip(t *testing.T) {
	c := NewConversation("user-1")
	c.Append(RoleUser, "hello")
	c.Append(RoleAssistant, "hi there")

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var round Conversation
	if err := json.Unmarshal(data, &round); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if round.ConversationID != c.ConversationID || round.UserID != c.UserID {
		t.Errorf("round trip lost identity: got %+v", round)
	}
	if round.Len() != 2 {
		t.Errorf("round trip lost messages, Len() = %d, want 2", round.Len())
	}
}

package state

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies the speaker of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn in a Conversation's append-only history.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the Horizon 1, user-scoped history of exchanged messages
// (spec §3). Messages are append-only; the conversation itself is
// deletable by its owning user.
type Conversation struct {
	mu             sync.RWMutex
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	messages       []Message
	CreatedAt      time.Time `json:"created_at"`
}

// NewConversation creates an empty conversation for userID.
func NewConversation(userID string) *Conversation {
	return &Conversation{
		ConversationID: uuid.NewString(),
		UserID:         userID,
		messages:       make([]Message, 0),
		CreatedAt:      time.Now(),
	}
}

// Append adds a message to the conversation's history.
func (c *Conversation) Append(role Role, content string) Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	c.messages = append(c.messages, msg)
	return msg
}

// Messages returns a copy of the history in order.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len reports the number of messages recorded.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Last returns the most recent message and true, or a zero Message and
// false if the conversation is empty.
func (c *Conversation) Last() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// conversationJSON is the exported mirror of Conversation used for
// persistence, bridging its mutex-guarded message slice to the wire
// format the same way workspaceJSON does for Workspace.
type conversationJSON struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Messages       []Message `json:"messages"`
	CreatedAt      time.Time `json:"created_at"`
}

func (c *Conversation) MarshalJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return json.Marshal(conversationJSON{
		ConversationID: c.ConversationID,
		UserID:         c.UserID,
		Messages:       c.messages,
		CreatedAt:      c.CreatedAt,
	})
}

func (c *Conversation) UnmarshalJSON(data []byte) error {
	var cj conversationJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ConversationID = cj.ConversationID
	c.UserID = cj.UserID
	c.messages = cj.Messages
	c.CreatedAt = cj.CreatedAt
	return nil
}

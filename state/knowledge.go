package state

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeArtifact is a piece of durable, retrievable knowledge surfaced
// to Reason when a task's similarity score crosses the configured
// retrieval threshold (spec §3, SPEC_FULL §2.2 chromem-go backing).
type KnowledgeArtifact struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Topic       string    `json:"topic"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	Embedding   []float32 `json:"embedding,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewKnowledgeArtifact constructs an artifact with a generated ID.
func NewKnowledgeArtifact(userID, topic, content, contentType string) *KnowledgeArtifact {
	return &KnowledgeArtifact{
		ID:          uuid.NewString(),
		UserID:      userID,
		Topic:       topic,
		Content:     content,
		ContentType: contentType,
		CreatedAt:   time.Now(),
	}
}

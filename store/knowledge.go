package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/iteebz/cogency-sub003/state"
)

// KnowledgeStore is the similarity-search-capable backing for
// KnowledgeArtifact (spec §4.4's save_knowledge/search_knowledge/
// load_knowledge/delete_knowledge), kept separate from the byte-oriented
// Store above because search_knowledge needs vector similarity, not exact
// key lookup.
type KnowledgeStore interface {
	SaveKnowledge(ctx context.Context, artifact *state.KnowledgeArtifact) error
	SearchKnowledge(ctx context.Context, userID, query string, topK int, threshold float64) ([]*state.KnowledgeArtifact, error)
	LoadKnowledge(ctx context.Context, userID, topic string) (*state.KnowledgeArtifact, error)
	DeleteKnowledge(ctx context.Context, userID, topic string) error
}

// ChromemKnowledgeStore is the reference in-process KnowledgeStore backed
// by github.com/philippgille/chromem-go, an embedded vector database. Each
// user gets its own collection so similarity search never crosses users
// (spec §3 "the core never holds cross-user references").
//
// Embedding computation itself is an external collaborator (spec §1:
// "Embedding providers ... specified only where the core calls them"); the
// caller supplies an EmbeddingFunc at construction.
type ChromemKnowledgeStore struct {
	db        *chromem.DB
	embedFunc chromem.EmbeddingFunc

	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// NewChromemKnowledgeStore creates an in-memory chromem-go backed
// KnowledgeStore using embed to compute document/query embeddings.
func NewChromemKnowledgeStore(embed chromem.EmbeddingFunc) *ChromemKnowledgeStore {
	return &ChromemKnowledgeStore{
		db:          chromem.NewDB(),
		embedFunc:   embed,
		collections: make(map[string]*chromem.Collection),
	}
}

func (s *ChromemKnowledgeStore) collectionFor(userID string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[userID]; ok {
		return c, nil
	}
	c, err := s.db.GetOrCreateCollection(userID, nil, s.embedFunc)
	if err != nil {
		return nil, fmt.Errorf("store: create knowledge collection for %s: %w", userID, err)
	}
	s.collections[userID] = c
	return c, nil
}

func (s *ChromemKnowledgeStore) SaveKnowledge(ctx context.Context, artifact *state.KnowledgeArtifact) error {
	if artifact == nil {
		return fmt.Errorf("store: nil knowledge artifact")
	}
	c, err := s.collectionFor(artifact.UserID)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:      artifact.Topic,
		Content: artifact.Content,
		Metadata: map[string]string{
			"content_type": artifact.ContentType,
			"topic":        artifact.Topic,
		},
	}
	if err := c.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("store: save knowledge %s/%s: %w", artifact.UserID, artifact.Topic, err)
	}
	return nil
}

// SearchKnowledge returns at most topK artifacts for userID whose
// similarity to query meets threshold, ordered by descending similarity.
func (s *ChromemKnowledgeStore) SearchKnowledge(ctx context.Context, userID, query string, topK int, threshold float64) ([]*state.KnowledgeArtifact, error) {
	c, err := s.collectionFor(userID)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 1
	}
	n := topK
	if count := c.Count(); count < n {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	results, err := c.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("store: search knowledge for %s: %w", userID, err)
	}

	out := make([]*state.KnowledgeArtifact, 0, len(results))
	for _, r := range results {
		if float64(r.Similarity) < threshold {
			continue
		}
		out = append(out, &state.KnowledgeArtifact{
			UserID:      userID,
			Topic:       r.ID,
			Content:     r.Content,
			ContentType: r.Metadata["content_type"],
		})
	}
	return out, nil
}

func (s *ChromemKnowledgeStore) LoadKnowledge(ctx context.Context, userID, topic string) (*state.KnowledgeArtifact, error) {
	c, err := s.collectionFor(userID)
	if err != nil {
		return nil, err
	}
	doc, err := c.GetByID(ctx, topic)
	if err != nil {
		return nil, ErrNotFound
	}
	return &state.KnowledgeArtifact{
		UserID:      userID,
		Topic:       topic,
		Content:     doc.Content,
		ContentType: doc.Metadata["content_type"],
	}, nil
}

func (s *ChromemKnowledgeStore) DeleteKnowledge(ctx context.Context, userID, topic string) error {
	c, err := s.collectionFor(userID)
	if err != nil {
		return err
	}
	if err := c.Delete(ctx, nil, nil, topic); err != nil {
		return fmt.Errorf("store: delete knowledge %s/%s: %w", userID, topic, err)
	}
	return nil
}

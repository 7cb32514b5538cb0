package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iteebz/cogency-sub003/state"
)

// profileVersion is the schema version folded into the Profile key (spec
// §6: "Profile: user_id:profile_version"). Bumping it invalidates old
// Profile records rather than requiring an in-place migration.
const profileVersion = "v1"

// Repo is the typed persistence facade over Store (spec §4.4): it
// JSON-encodes/decodes the Horizon-1/2 entities behind the named
// operations the spec lists (save_profile, load_workspace, ...), so
// callers in engine/ never touch raw bytes or Kind/key plumbing directly.
// Every method returns an error rather than panicking, per §4.4's
// "never raises" failure semantics.
type Repo struct {
	Store     Store
	Knowledge KnowledgeStore // nil disables knowledge operations
}

// NewRepo creates a Repo over store, optionally backed by a KnowledgeStore
// for the knowledge operations. knowledge may be nil if the deployment has
// no semantic retrieval configured.
func NewRepo(store Store, knowledge KnowledgeStore) *Repo {
	return &Repo{Store: store, Knowledge: knowledge}
}

func profileKey(userID string) string {
	return userID + ":" + profileVersion
}

func conversationKey(conversationID, userID string) string {
	return conversationID + ":" + userID
}

func workspaceKey(taskID, userID string) string {
	return taskID + ":" + userID
}

// SaveProfile persists p, last-writer-wins on LastUpdated per spec §3 (the
// store itself does not arbitrate; Profile.Merge is the caller's tool for
// that when two loads raced).
func (r *Repo) SaveProfile(ctx context.Context, p *state.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("repo: marshal profile: %w", err)
	}
	return r.Store.Save(ctx, KindProfile, profileKey(p.UserID), data)
}

// LoadProfile returns ErrNotFound if userID has no saved profile yet (spec
// §4.4: "read on task start").
func (r *Repo) LoadProfile(ctx context.Context, userID string) (*state.Profile, error) {
	data, err := r.Store.Load(ctx, KindProfile, profileKey(userID))
	if err != nil {
		return nil, err
	}
	p := &state.Profile{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("repo: unmarshal profile: %w", err)
	}
	return p, nil
}

func (r *Repo) DeleteProfile(ctx context.Context, userID string) error {
	return r.Store.Delete(ctx, KindProfile, profileKey(userID))
}

// SaveConversation persists the full current message history; Conversation
// is append-only so every save is a full overwrite of the latest state.
func (r *Repo) SaveConversation(ctx context.Context, c *state.Conversation) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("repo: marshal conversation: %w", err)
	}
	return r.Store.Save(ctx, KindConversation, conversationKey(c.ConversationID, c.UserID), data)
}

func (r *Repo) LoadConversation(ctx context.Context, conversationID, userID string) (*state.Conversation, error) {
	data, err := r.Store.Load(ctx, KindConversation, conversationKey(conversationID, userID))
	if err != nil {
		return nil, err
	}
	c := &state.Conversation{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("repo: unmarshal conversation: %w", err)
	}
	return c, nil
}

func (r *Repo) DeleteConversation(ctx context.Context, conversationID, userID string) error {
	return r.Store.Delete(ctx, KindConversation, conversationKey(conversationID, userID))
}

// SaveWorkspace persists ws, called after every phase (Reason, Act,
// Respond) per spec §4.4.
func (r *Repo) SaveWorkspace(ctx context.Context, ws *state.Workspace) error {
	data, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("repo: marshal workspace: %w", err)
	}
	return r.Store.Save(ctx, KindWorkspace, workspaceKey(ws.TaskID, ws.UserID), data)
}

func (r *Repo) LoadWorkspace(ctx context.Context, taskID, userID string) (*state.Workspace, error) {
	data, err := r.Store.Load(ctx, KindWorkspace, workspaceKey(taskID, userID))
	if err != nil {
		return nil, err
	}
	ws := &state.Workspace{}
	if err := json.Unmarshal(data, ws); err != nil {
		return nil, fmt.Errorf("repo: unmarshal workspace: %w", err)
	}
	return ws, nil
}

func (r *Repo) DeleteWorkspace(ctx context.Context, taskID, userID string) error {
	return r.Store.Delete(ctx, KindWorkspace, workspaceKey(taskID, userID))
}

// ListWorkspaces returns the task IDs of every workspace belonging to
// userID, for reference backends that support enumeration. The keys are
// stored as "taskID:userID"; only those matching userID are returned.
func (r *Repo) ListWorkspaces(ctx context.Context, userID string) ([]string, error) {
	keys, err := r.Store.List(ctx, KindWorkspace)
	if err != nil {
		return nil, err
	}
	suffix := ":" + userID
	var taskIDs []string
	for _, k := range keys {
		if len(k) > len(suffix) && k[len(k)-len(suffix):] == suffix {
			taskIDs = append(taskIDs, k[:len(k)-len(suffix)])
		}
	}
	return taskIDs, nil
}

// SaveKnowledge, SearchKnowledge, LoadKnowledge, and DeleteKnowledge
// delegate to the configured KnowledgeStore. With none configured,
// SaveKnowledge returns an error, SearchKnowledge returns no results,
// LoadKnowledge returns ErrNotFound, and DeleteKnowledge does nothing.
func (r *Repo) SaveKnowledge(ctx context.Context, artifact *state.KnowledgeArtifact) error {
	if r.Knowledge == nil {
		return fmt.Errorf("repo: no knowledge store configured")
	}
	return r.Knowledge.SaveKnowledge(ctx, artifact)
}

func (r *Repo) SearchKnowledge(ctx context.Context, userID, query string, topK int, threshold float64) ([]*state.KnowledgeArtifact, error) {
	if r.Knowledge == nil {
		return nil, nil
	}
	return r.Knowledge.SearchKnowledge(ctx, userID, query, topK, threshold)
}

func (r *Repo) LoadKnowledge(ctx context.Context, userID, topic string) (*state.KnowledgeArtifact, error) {
	if r.Knowledge == nil {
		return nil, ErrNotFound
	}
	return r.Knowledge.LoadKnowledge(ctx, userID, topic)
}

func (r *Repo) DeleteKnowledge(ctx context.Context, userID, topic string) error {
	if r.Knowledge == nil {
		return nil
	}
	return r.Knowledge.DeleteKnowledge(ctx, userID, topic)
}

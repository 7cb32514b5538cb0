package state

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Mode mirrors config.Mode for the reasoning mode a Workspace is currently
// operating under.
type Mode string

const (
	ModeFast  Mode = "fast"
	ModeDeep  Mode = "deep"
	ModeAdapt Mode = "adapt"
)

// modeRank enforces the monotonic fast->deep transition invariant: a
// Workspace may escalate from fast to deep but never silently downgrade
// except through an explicit new task.
var modeRank = map[Mode]int{ModeFast: 0, ModeAdapt: 0, ModeDeep: 1}

// ActionOutcome summarizes how a thought's tool calls resolved, recorded by
// the Act step once the Scheduler's aggregate is known (spec §4.6 step 4).
type ActionOutcome string

const (
	ActionNone    ActionOutcome = ""
	ActionSuccess ActionOutcome = "success"
	ActionPartial ActionOutcome = "partial"
	ActionFailure ActionOutcome = "failure"
)

// Thought is one append-only entry of a Workspace's reasoning trail (spec
// §3: "iteration index, reasoning text, optional planning, optional
// reflection, tool calls"). Planning and Reflection are copied from the
// Decision, which DecodeDecision leaves empty because the protocol has no
// plan or reflect section; ToolCalls mirrors the batch Reason queued for Act,
// which later stamps ActionOutcome once the batch resolves.
type Thought struct {
	Iteration     int           `json:"iteration"`
	Thinking      string        `json:"thinking"`
	Planning      string        `json:"planning,omitempty"`
	Reflection    string        `json:"reflection,omitempty"`
	Approach      string        `json:"approach,omitempty"`
	ToolCalls     []ToolCall    `json:"tool_calls,omitempty"`
	ActionOutcome ActionOutcome `json:"action_outcome,omitempty"`
}

// Workspace is the Horizon 2, task-scoped, persisted entity (spec §3): the
// accumulated reasoning trail for one task, shared across iterations.
type Workspace struct {
	mu sync.RWMutex

	TaskID         string `json:"task_id"`
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	Objective      string `json:"objective"`
	Mode           Mode   `json:"mode"`
	Approach       string `json:"approach"`

	thoughts []Thought
	insights []string
	facts    map[string]string

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWorkspace creates a Workspace for a new task.
func NewWorkspace(userID, conversationID, objective string) *Workspace {
	now := time.Now()
	return &Workspace{
		TaskID:         uuid.NewString(),
		UserID:         userID,
		ConversationID: conversationID,
		Objective:      objective,
		Mode:           ModeFast,
		thoughts:       make([]Thought, 0),
		insights:       make([]string, 0),
		facts:          make(map[string]string),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AddThought appends one reasoning-turn record to the append-only thought
// trail, stamping its Iteration from the current trail length so the
// invariant `len(thoughts) == iteration` (spec §8) holds by construction.
func (w *Workspace) AddThought(t Thought) Thought {
	w.mu.Lock()
	defer w.mu.Unlock()
	t.Iteration = len(w.thoughts) + 1
	w.thoughts = append(w.thoughts, t)
	w.UpdatedAt = time.Now()
	return t
}

// Thoughts returns a copy of the recorded thought trail.
func (w *Workspace) Thoughts() []Thought {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Thought, len(w.thoughts))
	copy(out, w.thoughts)
	return out
}

// SetLastActionOutcome stamps the ActionOutcome of the most recent thought,
// used by the Act step (spec §4.6 step 4) once a batch's aggregate result
// is known. It is a no-op if no thought has been recorded yet.
func (w *Workspace) SetLastActionOutcome(outcome ActionOutcome) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.thoughts) == 0 {
		return
	}
	w.thoughts[len(w.thoughts)-1].ActionOutcome = outcome
	w.UpdatedAt = time.Now()
}

// LastThought returns the most recently recorded thought and true, or a
// zero Thought and false if the trail is empty.
func (w *Workspace) LastThought() (Thought, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.thoughts) == 0 {
		return Thought{}, false
	}
	return w.thoughts[len(w.thoughts)-1], true
}

// AddInsight records a durable, cross-iteration insight.
func (w *Workspace) AddInsight(insight string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.insights = append(w.insights, insight)
	w.UpdatedAt = time.Now()
}

// Insights returns a copy of the recorded insights.
func (w *Workspace) Insights() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.insights))
	copy(out, w.insights)
	return out
}

// SetFact records a key fact learned during the task.
func (w *Workspace) SetFact(key, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.facts == nil {
		w.facts = make(map[string]string)
	}
	w.facts[key] = value
	w.UpdatedAt = time.Now()
}

// Facts returns a copy of the recorded facts.
func (w *Workspace) Facts() map[string]string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[string]string, len(w.facts))
	for k, v := range w.facts {
		out[k] = v
	}
	return out
}

// SetApproach records the current declared strategy.
func (w *Workspace) SetApproach(approach string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Approach = approach
	w.UpdatedAt = time.Now()
}

// SetMode transitions the workspace's mode, refusing to downgrade from
// deep back to fast within the same task.
func (w *Workspace) SetMode(m Mode) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if modeRank[m] < modeRank[w.Mode] {
		return NewError("workspace", w.TaskID, "set_mode",
			fmt.Sprintf("cannot downgrade mode from %s to %s", w.Mode, m), nil)
	}
	w.Mode = m
	w.UpdatedAt = time.Now()
	return nil
}

// Compressed renders a bounded textual summary of the workspace for
// inclusion in the LLM context window: the objective, approach, all
// insights and facts, and at most the last maxThoughts entries of the
// thought trail.
func (w *Workspace) Compressed(maxThoughts int) string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Objective: %s\n", w.Objective)
	if w.Approach != "" {
		fmt.Fprintf(&b, "Approach: %s\n", w.Approach)
	}

	if len(w.facts) > 0 {
		b.WriteString("Facts:\n")
		for k, v := range w.facts {
			fmt.Fprintf(&b, "- %s: %s\n", k, v)
		}
	}

	if len(w.insights) > 0 {
		b.WriteString("Insights:\n")
		for _, insight := range w.insights {
			fmt.Fprintf(&b, "- %s\n", insight)
		}
	}

	thoughts := w.thoughts
	if maxThoughts > 0 && len(thoughts) > maxThoughts {
		thoughts = thoughts[len(thoughts)-maxThoughts:]
	}
	if len(thoughts) > 0 {
		b.WriteString("Recent thoughts:\n")
		for _, t := range thoughts {
			fmt.Fprintf(&b, "- %s\n", t.Thinking)
			if t.Reflection != "" {
				fmt.Fprintf(&b, "  reflection: %s\n", t.Reflection)
			}
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// workspaceJSON is the exported mirror of Workspace used for persistence:
// Workspace guards its thought/insight/fact fields behind a mutex and
// unexported storage so every mutation goes through its accessor methods,
// so (Un)MarshalJSON bridges that private state to the wire format
// instead of exposing it directly.
type workspaceJSON struct {
	TaskID         string            `json:"task_id"`
	UserID         string            `json:"user_id"`
	ConversationID string            `json:"conversation_id"`
	Objective      string            `json:"objective"`
	Mode           Mode              `json:"mode"`
	Approach       string            `json:"approach"`
	Thoughts       []Thought         `json:"thoughts"`
	Insights       []string          `json:"insights"`
	Facts          map[string]string `json:"facts"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (w *Workspace) MarshalJSON() ([]byte, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return json.Marshal(workspaceJSON{
		TaskID:         w.TaskID,
		UserID:         w.UserID,
		ConversationID: w.ConversationID,
		Objective:      w.Objective,
		Mode:           w.Mode,
		Approach:       w.Approach,
		Thoughts:       w.thoughts,
		Insights:       w.insights,
		Facts:          w.facts,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	})
}

func (w *Workspace) UnmarshalJSON(data []byte) error {
	var wj workspaceJSON
	if err := json.Unmarshal(data, &wj); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.TaskID = wj.TaskID
	w.UserID = wj.UserID
	w.ConversationID = wj.ConversationID
	w.Objective = wj.Objective
	w.Mode = wj.Mode
	w.Approach = wj.Approach
	w.thoughts = wj.Thoughts
	w.insights = wj.Insights
	w.facts = wj.Facts
	if w.facts == nil {
		w.facts = make(map[string]string)
	}
	w.CreatedAt = wj.CreatedAt
	w.UpdatedAt = wj.UpdatedAt
	return nil
}

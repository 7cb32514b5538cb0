package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iteebz/cogency-sub003/llm"
	"github.com/iteebz/cogency-sub003/state"
)

// profileLearnerQueueDepth bounds the ProfileLearner's event channel (spec
// §2.3/§9 "Background profile learning": bounded concurrency, not an
// unbounded goroutine per message).
const profileLearnerQueueDepth = 32

// maybeTriggerProfileLearning submits a cadence-triggered learn request once
// conv has accumulated a multiple of Config.ProfileLearningCadence messages
// (spec §3 Profile lifecycle: "updated by a background profile learner
// after a cadence threshold of new messages"). Submit is fire-and-forget;
// ProfileLearner itself bounds concurrency and drops silently under
// backpressure.
func (e *Engine) maybeTriggerProfileLearning(userID string, conv *state.Conversation) {
	if e.ProfileLearner == nil || e.Config.ProfileLearningCadence <= 0 {
		return
	}
	if n := conv.Len(); n > 0 && n%e.Config.ProfileLearningCadence == 0 {
		e.ProfileLearner.Submit(userID, state.TriggerCadence)
	}
}

// learnProfile is the engine's state.LearnFunc (spec §2.3): it reloads the
// user's Profile and their most recently touched Workspace, asks the LLM to
// extract durable facts from the workspace's reasoning trail, and folds
// them into the Profile before saving. It is always run off the reasoning
// path by ProfileLearner's worker goroutine, so a slow or failing LLM call
// here never blocks Reason/Act/Respond.
func (e *Engine) learnProfile(ctx context.Context, userID string, trigger state.LearnTrigger) error {
	profile, err := e.loadOrCreateProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("engine: learn profile: load profile: %w", err)
	}

	taskIDs, err := e.Repo.ListWorkspaces(ctx, userID)
	if err != nil {
		return fmt.Errorf("engine: learn profile: list workspaces: %w", err)
	}
	if len(taskIDs) == 0 {
		return nil
	}
	var ws *state.Workspace
	for _, id := range taskIDs {
		w, err := e.Repo.LoadWorkspace(ctx, id, userID)
		if err != nil {
			return fmt.Errorf("engine: learn profile: load workspace: %w", err)
		}
		if ws == nil || w.UpdatedAt.After(ws.UpdatedAt) {
			ws = w
		}
	}

	update, err := e.extractProfileUpdate(ctx, ws)
	if err != nil {
		e.Logger.Warn("profile learning extraction failed", "user_id", userID, "trigger", trigger, "error", err)
		return nil
	}
	if update == nil {
		return nil
	}

	applyProfileUpdate(profile, *update)
	profile.LastLearnedAt = time.Now()
	profile.Touch()
	return e.Repo.SaveProfile(ctx, profile)
}

// profileUpdate is the JSON shape the extraction prompt must answer in.
type profileUpdate struct {
	Preferences        map[string]string `json:"preferences"`
	Goals              []string          `json:"goals"`
	Expertise          []string          `json:"expertise"`
	Projects           map[string]string `json:"projects"`
	CommunicationStyle string            `json:"communication_style"`
	Who                string            `json:"who"`
}

const learnSystemPrompt = `Extract durable facts about the user from the task trail below: stable
preferences, goals, areas of expertise, named projects, communication
style (concise, detailed, casual, or formal), and a one-line "who" summary.
Respond with a single JSON object only: {"preferences":{},"goals":[],
"expertise":[],"projects":{},"communication_style":"","who":""}. Omit a
field (empty map/slice/string) if the trail gives no evidence for it.`

// extractProfileUpdate issues a single, non-streamed LLM call over ws's
// compressed reasoning trail, mirroring generateRespond's single-shot
// Generate usage. A malformed response yields (nil, err) and an empty one
// (nil, nil); the caller treats either as "nothing learned this round",
// not a hard failure.
func (e *Engine) extractProfileUpdate(ctx context.Context, ws *state.Workspace) (*profileUpdate, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: learnSystemPrompt},
		{Role: llm.RoleUser, Content: ws.Compressed(deepModeHistoryWindow)},
	}

	text, err := e.LLM.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var update profileUpdate
	if err := json.Unmarshal([]byte(text), &update); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return &update, nil
}

// applyProfileUpdate folds u's extracted facts into p in place: map keys
// overwrite, goals/expertise append with de-duplication, and scalar fields
// (communication style, who) overwrite only when u actually supplied one.
func applyProfileUpdate(p *state.Profile, u profileUpdate) {
	for k, v := range u.Preferences {
		if p.Preferences == nil {
			p.Preferences = make(map[string]string)
		}
		p.Preferences[k] = v
	}
	for _, g := range u.Goals {
		if !containsString(p.Goals, g) {
			p.Goals = append(p.Goals, g)
		}
	}
	for _, tag := range u.Expertise {
		p.AddExpertise(tag)
	}
	for k, v := range u.Projects {
		if p.Projects == nil {
			p.Projects = make(map[string]string)
		}
		p.Projects[k] = v
	}
	if u.CommunicationStyle != "" {
		p.CommunicationStyle = state.CommunicationStyle(u.CommunicationStyle)
	}
	if u.Who != "" {
		p.Who = u.Who
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

package state

import (
	"encoding/json"
	"time"
)

// CommunicationStyle enumerates the profile's learned communication
// preference.
type CommunicationStyle string

const (
	StyleUnset    CommunicationStyle = ""
	StyleConcise  CommunicationStyle = "concise"
	StyleDetailed CommunicationStyle = "detailed"
	StyleCasual   CommunicationStyle = "casual"
	StyleFormal   CommunicationStyle = "formal"
)

// Profile is the Horizon 1, user-scoped, long-lived entity (spec §3).
// Exactly one exists per UserID; concurrent writers resolve by
// last-writer-wins on LastUpdated.
type Profile struct {
	UserID             string                 `json:"user_id"`
	Preferences        map[string]string      `json:"preferences"`
	Goals              []string               `json:"goals"`
	Expertise          map[string]struct{}    `json:"-"`
	ExpertiseList      []string               `json:"expertise"`
	Projects           map[string]string      `json:"projects"`
	CommunicationStyle CommunicationStyle     `json:"communication_style"`
	Who                string                 `json:"who"`
	CreatedAt          time.Time              `json:"created_at"`
	LastUpdated        time.Time              `json:"last_updated"`
	LastLearnedAt      time.Time              `json:"last_learned_at"`
}

// NewProfile creates an empty profile for a new user.
func NewProfile(userID string) *Profile {
	now := time.Now()
	return &Profile{
		UserID:      userID,
		Preferences: make(map[string]string),
		Goals:       make([]string, 0),
		Expertise:   make(map[string]struct{}),
		Projects:    make(map[string]string),
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// Merge applies a last-writer-wins merge of other into p, used when two
// concurrent writers raced on the same UserID: the profile with the later
// LastUpdated wins entirely (the spec does not ask for field-level merge,
// only for the conflict to resolve deterministically).
func (p *Profile) Merge(other *Profile) *Profile {
	if other == nil {
		return p
	}
	if other.LastUpdated.After(p.LastUpdated) {
		return other
	}
	return p
}

// AddExpertise records a learned expertise tag.
func (p *Profile) AddExpertise(tag string) {
	if p.Expertise == nil {
		p.Expertise = make(map[string]struct{})
	}
	if _, ok := p.Expertise[tag]; ok {
		return
	}
	p.Expertise[tag] = struct{}{}
	p.ExpertiseList = append(p.ExpertiseList, tag)
}

// Touch stamps LastUpdated. Mutators such as AddExpertise do not call it;
// the caller stamps the profile once its changes are applied.
func (p *Profile) Touch() {
	p.LastUpdated = time.Now()
}

// profileJSON mirrors Profile's exported fields only; Expertise itself is
// tagged json:"-" because it is a derived set, so UnmarshalJSON rebuilds it
// from ExpertiseList after decoding rather than trying to serialize the set
// directly.
type profileJSON struct {
	UserID             string              `json:"user_id"`
	Preferences        map[string]string   `json:"preferences"`
	Goals              []string            `json:"goals"`
	ExpertiseList      []string            `json:"expertise"`
	Projects           map[string]string   `json:"projects"`
	CommunicationStyle CommunicationStyle  `json:"communication_style"`
	Who                string              `json:"who"`
	CreatedAt          time.Time           `json:"created_at"`
	LastUpdated        time.Time           `json:"last_updated"`
	LastLearnedAt      time.Time           `json:"last_learned_at"`
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	var pj profileJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}
	p.UserID = pj.UserID
	p.Preferences = pj.Preferences
	p.Goals = pj.Goals
	p.Projects = pj.Projects
	p.CommunicationStyle = pj.CommunicationStyle
	p.Who = pj.Who
	p.CreatedAt = pj.CreatedAt
	p.LastUpdated = pj.LastUpdated
	p.LastLearnedAt = pj.LastLearnedAt

	p.Expertise = make(map[string]struct{}, len(pj.ExpertiseList))
	p.ExpertiseList = nil
	for _, tag := range pj.ExpertiseList {
		p.AddExpertise(tag)
	}
	return nil
}

package manuscript

import "time"

// SceneContext is the situational slice of the HUD around the cursor.
type SceneContext struct {
	SceneID       string        `json:"scene_id,omitempty"`
	SceneType     SceneType     `json:"scene_type,omitempty"`
	ParagraphType ParagraphType `json:"paragraph_type,omitempty"`
	POVCharacter  string        `json:"pov_character,omitempty"`
	Location      string        `json:"location,omitempty"`
	Speaker       string        `json:"speaker,omitempty"`
}

// EntityBrief is a compact entity reference for the HUD.
type EntityBrief struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Type         EntityType `json:"type"`
	MentionCount int        `json:"mention_count"`
}

// RelationshipBrief is a compact edge reference for the HUD.
type RelationshipBrief struct {
	Source        string       `json:"source"`
	Target        string       `json:"target"`
	Type          RelationType `json:"type"`
	CoOccurrences int          `json:"co_occurrences"`
}

// PromiseBrief is a compact open-promise reference for the HUD.
type PromiseBrief struct {
	ID          string      `json:"id"`
	Kind        PromiseKind `json:"kind"`
	Description string      `json:"description"`
	ChapterID   string      `json:"chapter_id"`
}

// Issue is one prioritized problem surfaced to the AI layer.
type Issue struct {
	Severity   float64  `json:"severity"`
	Flag       RiskFlag `json:"flag"`
	SectionID  string   `json:"section_id,omitempty"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// HUD is the bounded digest handed across the engine boundary. Every list
// is capped, so serialized size grows sub-linearly with manuscript length.
type HUD struct {
	ChapterID     string              `json:"chapter_id"`
	Tier          Tier                `json:"tier"`
	GeneratedAt   time.Time           `json:"generated_at"`
	Context       SceneContext        `json:"context"`
	Position      float64             `json:"position"`
	TensionLabel  string              `json:"tension_label"`
	PacingLabel   string              `json:"pacing_label"`
	Entities      []EntityBrief       `json:"entities,omitempty"`
	Relationships []RelationshipBrief `json:"relationships,omitempty"`
	OpenPromises  []PromiseBrief      `json:"open_promises,omitempty"`
	Issues        []Issue             `json:"issues,omitempty"`
	RecentChanges []TextChange        `json:"recent_changes,omitempty"`
	StyleAlerts   []string            `json:"style_alerts,omitempty"`
	Stats         Stats               `json:"stats"`
}

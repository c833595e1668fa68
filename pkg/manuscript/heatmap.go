package manuscript

// RiskFlag names one threshold-triggered problem in a section.
type RiskFlag string

const (
	FlagPacingSlow     RiskFlag = "pacing_slow"
	FlagPacingRushed   RiskFlag = "pacing_rushed"
	FlagDialogueHeavy  RiskFlag = "dialogue_heavy"
	FlagUnresolvedArc  RiskFlag = "unresolved_arc"
	FlagProtagonistOff RiskFlag = "protagonist_absent"
	FlagPassiveCluster RiskFlag = "passive_cluster"
	FlagStyleNoise     RiskFlag = "style_noise"
	FlagSettingDrift   RiskFlag = "setting_drift"
	FlagStaleSection   RiskFlag = "stale_section"
)

// RiskScores holds the five sub-scores, each in [0, 1].
type RiskScores struct {
	Plot      float64 `json:"plot"`
	Pacing    float64 `json:"pacing"`
	Character float64 `json:"character"`
	Setting   float64 `json:"setting"`
	Style     float64 `json:"style"`
}

// HeatmapSection scores one structural section of the chapter.
type HeatmapSection struct {
	SectionID   string     `json:"section_id"`
	Span        Span       `json:"span"`
	Risk        RiskScores `json:"risk"`
	OverallRisk float64    `json:"overall_risk"`
	Flags       []RiskFlag `json:"flags,omitempty"`
	Suggestions []string   `json:"suggestions,omitempty"`
}

// HasFlag reports whether the section carries the given flag.
func (s HeatmapSection) HasFlag(flag RiskFlag) bool {
	for _, f := range s.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// AttentionHeatmap is the per-section risk layer for one chapter. Hotspots
// lists the top section ids by overall risk, highest first.
type AttentionHeatmap struct {
	ChapterID string           `json:"chapter_id"`
	Sections  []HeatmapSection `json:"sections"`
	Hotspots  []string         `json:"hotspots,omitempty"`
}

// Section returns the scored section with the given id, or nil.
func (h *AttentionHeatmap) Section(id string) *HeatmapSection {
	if h == nil {
		return nil
	}
	for i := range h.Sections {
		if h.Sections[i].SectionID == id {
			return &h.Sections[i]
		}
	}
	return nil
}

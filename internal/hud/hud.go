// Package hud assembles the bounded digest handed across the engine
// boundary. Every list is capped by configuration, so the digest stays
// flat as the manuscript grows; the consumer formats it into prompt text
// and owns any further truncation.
package hud

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/draftmind/manuscript/internal/config"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

const (
	passiveAlertRatio  = 0.15
	adverbAlertPer100  = 4.0
	filterAlertPer100  = 3.0
	slowSentenceLabel  = 22.0
	briskSentenceLabel = 10.0
	briskDialogueLabel = 0.5
)

// Situation is the caller's editing state the digest is framed around.
// With no valid cursor the digest frames the end of the chapter, where
// drafting usually happens.
type Situation struct {
	Cursor int
	Valid  bool
}

// Builder assembles HUDs. It holds configuration only and is safe for
// concurrent use.
type Builder struct {
	cfg config.HUDConfig
}

// New returns a builder using the HUD caps from cfg.
func New(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg.HUD}
}

// Build assembles the digest for one intelligence snapshot. Missing layers
// leave their fields empty; now is injected so digests are reproducible
// under test.
func (b *Builder) Build(intel *manuscript.Intelligence, sit Situation, tier manuscript.Tier, now time.Time) *manuscript.HUD {
	h := &manuscript.HUD{
		Tier:         tier,
		GeneratedAt:  now,
		TensionLabel: "calm",
		PacingLabel:  "steady",
	}
	if intel == nil {
		return h
	}
	h.ChapterID = intel.ChapterID

	if sf := intel.Structure; sf != nil {
		h.Stats = sf.Stats
		scene, paragraph, cursor, extent := situate(sf, sit)
		if scene != nil {
			h.Context.SceneID = scene.ID
			h.Context.SceneType = scene.Type
			h.Context.POVCharacter = scene.POVCharacter
			h.Context.Location = scene.Location
			h.TensionLabel = tensionLabel(scene.Tension)
		}
		if paragraph != nil {
			h.Context.ParagraphType = paragraph.Type
			h.Context.Speaker = paragraph.Speaker
		}
		if h.Context.Speaker == "" && scene != nil {
			h.Context.Speaker = lastSpeaker(sf, scene.Span, cursor)
		}
		if extent > 0 {
			h.Position = float64(cursor) / float64(extent) * 100
		}
		h.PacingLabel = pacingLabel(sf.Stats)
	}

	if g := intel.Graph; g != nil {
		for _, n := range capNodes(g.NodesByMentions(), b.cfg.TopEntities) {
			h.Entities = append(h.Entities, manuscript.EntityBrief{
				ID:           n.ID,
				Name:         n.Name,
				Type:         n.Type,
				MentionCount: n.MentionCount,
			})
		}
		for _, e := range capEdges(g.EdgesByWeight(), b.cfg.TopRelationships) {
			h.Relationships = append(h.Relationships, manuscript.RelationshipBrief{
				Source:        nameOf(g, e.Source),
				Target:        nameOf(g, e.Target),
				Type:          e.Type,
				CoOccurrences: e.CoOccurrences,
			})
		}
	}

	h.OpenPromises = openPromises(intel.Timeline, b.cfg.TopPromises)
	h.Issues = issues(intel.Heatmap, b.cfg.MaxIssues)
	h.RecentChanges = recentChanges(intel.Delta, b.cfg.MaxRecentChanges)
	if intel.Style != nil {
		h.StyleAlerts = styleAlerts(intel.Style, b.cfg.MaxStyleAlerts)
	}
	return h
}

// situate resolves the cursor to a scene and paragraph. Out-of-range and
// absent cursors clamp to the chapter extent, so the fallback context is
// the final scene.
func situate(sf *manuscript.StructuralFingerprint, sit Situation) (*manuscript.Scene, *manuscript.ClassifiedParagraph, int, int) {
	if len(sf.Scenes) == 0 {
		return nil, nil, 0, 0
	}
	extent := sf.Scenes[len(sf.Scenes)-1].Span.End
	cursor := extent
	if sit.Valid {
		cursor = sit.Cursor
		if cursor < 0 {
			cursor = 0
		}
		if cursor > extent {
			cursor = extent
		}
	}
	scene := sf.SceneAt(cursor)
	if scene == nil {
		scene = &sf.Scenes[len(sf.Scenes)-1]
	}
	paragraph := sf.ParagraphAt(cursor)
	if paragraph == nil && len(sf.Paragraphs) > 0 {
		paragraph = &sf.Paragraphs[len(sf.Paragraphs)-1]
	}
	return scene, paragraph, cursor, extent
}

// lastSpeaker walks the scene's dialogue backwards from the cursor so the
// context names whoever spoke last in the current conversation.
func lastSpeaker(sf *manuscript.StructuralFingerprint, scene manuscript.Span, cursor int) string {
	for i := len(sf.Dialogue) - 1; i >= 0; i-- {
		line := sf.Dialogue[i]
		if line.Span.Start > cursor || !scene.Overlaps(line.Span) {
			continue
		}
		if line.Speaker != "" {
			return line.Speaker
		}
	}
	return ""
}

func tensionLabel(v float64) string {
	switch {
	case v < 0.25:
		return "calm"
	case v < 0.5:
		return "building"
	case v < 0.75:
		return "tense"
	default:
		return "peak"
	}
}

func pacingLabel(stats manuscript.Stats) string {
	switch {
	case stats.WordCount == 0:
		return "steady"
	case stats.AvgSentenceLength > slowSentenceLabel:
		return "slow"
	case stats.AvgSentenceLength < briskSentenceLabel || stats.DialogueRatio > briskDialogueLabel:
		return "brisk"
	default:
		return "steady"
	}
}

// openPromises returns the newest unresolved promises, most recent first.
func openPromises(tl *manuscript.Timeline, limit int) []manuscript.PromiseBrief {
	open := tl.OpenPromises()
	if len(open) == 0 {
		return nil
	}
	sort.SliceStable(open, func(i, j int) bool {
		if open[i].Offset != open[j].Offset {
			return open[i].Offset > open[j].Offset
		}
		return open[i].ID < open[j].ID
	})
	if len(open) > limit {
		open = open[:limit]
	}
	out := make([]manuscript.PromiseBrief, len(open))
	for i, p := range open {
		out[i] = manuscript.PromiseBrief{
			ID:          p.ID,
			Kind:        p.Kind,
			Description: p.Description,
			ChapterID:   p.ChapterID,
		}
	}
	return out
}

// issues flattens heatmap flags into a severity-sorted, capped list. A
// flag inherits its section's overall risk as severity; ties keep section
// and registry order.
func issues(hm *manuscript.AttentionHeatmap, limit int) []manuscript.Issue {
	if hm == nil {
		return nil
	}
	var out []manuscript.Issue
	for _, sec := range hm.Sections {
		for i, flag := range sec.Flags {
			issue := manuscript.Issue{
				Severity:  sec.OverallRisk,
				Flag:      flag,
				SectionID: sec.SectionID,
				Message:   issueMessage(flag, sec.SectionID),
			}
			if i < len(sec.Suggestions) {
				issue.Suggestion = sec.Suggestions[i]
			}
			out = append(out, issue)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity > out[j].Severity
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func issueMessage(flag manuscript.RiskFlag, sectionID string) string {
	label := strings.ReplaceAll(string(flag), "_", " ")
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	return fmt.Sprintf("%s in %s", label, sectionID)
}

// recentChanges keeps the newest changes, which sit at the tail.
func recentChanges(d *manuscript.Delta, limit int) []manuscript.TextChange {
	if d == nil || len(d.Changes) == 0 {
		return nil
	}
	changes := d.Changes
	if len(changes) > limit {
		changes = changes[len(changes)-limit:]
	}
	out := make([]manuscript.TextChange, len(changes))
	copy(out, changes)
	return out
}

// styleAlerts renders the loudest style findings as short strings, in a
// fixed priority order, capped.
func styleAlerts(style *manuscript.StyleFingerprint, limit int) []string {
	f := style.Flags
	var alerts []string
	if f.ClicheCount > 0 && len(f.ClicheInstances) > 0 {
		alerts = append(alerts, fmt.Sprintf("%d clichés, first %q", f.ClicheCount, f.ClicheInstances[0].Text))
	}
	if f.PassiveVoiceRatio >= passiveAlertRatio {
		alerts = append(alerts, fmt.Sprintf("passive voice in %.0f%% of sentences", f.PassiveVoiceRatio*100))
	}
	if len(f.RepeatedPhrases) > 0 {
		rp := f.RepeatedPhrases[0]
		alerts = append(alerts, fmt.Sprintf("phrase %q repeats %d times", rp.Phrase, rp.Count))
	}
	if per100 := f.AdverbDensity * 100; per100 >= adverbAlertPer100 {
		alerts = append(alerts, fmt.Sprintf("%.1f adverbs per 100 words", per100))
	}
	if per100 := f.FilterWordDensity * 100; per100 >= filterAlertPer100 {
		alerts = append(alerts, fmt.Sprintf("%.1f filter words per 100 words", per100))
	}
	if len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts
}

func capNodes(nodes []*manuscript.EntityNode, limit int) []*manuscript.EntityNode {
	if len(nodes) > limit {
		return nodes[:limit]
	}
	return nodes
}

func capEdges(edges []*manuscript.EntityEdge, limit int) []*manuscript.EntityEdge {
	if len(edges) > limit {
		return edges[:limit]
	}
	return edges
}

func nameOf(g *manuscript.EntityGraph, id string) string {
	if n := g.Node(id); n != nil {
		return n.Name
	}
	return id
}

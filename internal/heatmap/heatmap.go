// Package heatmap scores revision risk per structural section. It consumes
// the artifacts of the other analyzers plus two injected signals (an
// external setting/anachronism score and per-section pass counters) and
// produces an AttentionHeatmap: five sub-scores per section, a weighted
// overall score, threshold-triggered flags with canned suggestions, and the
// chapter's hotspot list.
package heatmap

import (
	"sort"

	"github.com/draftmind/manuscript/internal/config"
	"github.com/draftmind/manuscript/internal/text"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

const (
	// riskFlagThreshold is the sub-score a dimension must cross before its
	// flags are considered.
	riskFlagThreshold = 0.6

	slowSentenceWords   = 25.0 // scene average at which the slow signal starts
	rushedSentenceWords = 8.0  // scene average below which the rushed signal starts
	minRushedSentences  = 3    // too few sentences to call a scene rushed
	rushedDialogueGate  = 0.3  // dialogue scenes are short-sentenced by nature
	denseParagraphWords = 160.0
	dialogueHeavyRatio  = 0.7

	openPromiseRisk    = 0.25 // per unresolved promise opened in the section
	touchedPromiseRisk = 0.30 // per promise whose text the last edit touched

	protagonistAbsentRisk = 0.7
	passiveClusterCount   = 3
	passiveClusterShare   = 0.3
	minAbsenceWords       = 80 // scenes shorter than this never flag absence

	settingDriftRisk = 0.3

	// styleSaturation is the flagged-instances-per-word density at which
	// style risk reaches 1.0.
	styleSaturation = 0.08

	maxHotspots = 5
)

// Input bundles everything one scoring pass reads. Chapter and Structure
// are required; every other field degrades to a zero signal when absent.
type Input struct {
	ChapterID string
	Chapter   string
	Structure *manuscript.StructuralFingerprint
	Timeline  *manuscript.Timeline
	Style     *manuscript.StyleFingerprint
	Graph     *manuscript.EntityGraph
	Delta     *manuscript.Delta
	Lore      manuscript.Lore

	// Setting carries the external anachronism score per section id.
	Setting map[string]float64
	// Passes counts accepted passes each section has survived unchanged.
	Passes map[string]int
}

// Analyzer scores attention heatmaps. It holds configuration only, so one
// instance is safe for concurrent use.
type Analyzer struct {
	cfg config.HeatmapConfig
}

// New returns a scorer using the heatmap settings from cfg.
func New(cfg *config.Config) *Analyzer {
	return &Analyzer{cfg: cfg.Heatmap}
}

// Score builds the heatmap for one chapter. Sections map 1:1 onto the
// structural scenes, in order, so section index i covers scene i's span.
func (a *Analyzer) Score(in Input) *manuscript.AttentionHeatmap {
	hm := &manuscript.AttentionHeatmap{ChapterID: in.ChapterID}
	if in.Structure == nil || len(in.Structure.Scenes) == 0 {
		return hm
	}

	sentences := text.Sentences(in.Chapter)
	anchored := chapterAnchorsLocation(in.Structure)
	w := a.cfg.Weights

	for i, scene := range in.Structure.Scenes {
		st := measure(in, scene, sentences)
		sec := manuscript.HeatmapSection{
			SectionID: manuscript.SectionID(in.ChapterID, i),
			Span:      scene.Span,
		}
		sec.Risk = manuscript.RiskScores{
			Plot:      plotRisk(st),
			Pacing:    pacingRisk(st),
			Character: characterRisk(st),
			Setting:   settingRisk(in.Setting[sec.SectionID], scene, anchored),
			Style:     styleRisk(st),
		}
		sec.OverallRisk = clamp01(w.Plot*sec.Risk.Plot +
			w.Pacing*sec.Risk.Pacing +
			w.Character*sec.Risk.Character +
			w.Setting*sec.Risk.Setting +
			w.Style*sec.Risk.Style)
		a.applyFlags(&sec, st, in)
		hm.Sections = append(hm.Sections, sec)
	}

	hm.Hotspots = hotspots(hm.Sections, a.cfg.HotspotThreshold)
	return hm
}

// sectionStats caches the per-scene measurements the risk dimensions and
// flag rules share.
type sectionStats struct {
	scene      manuscript.Scene
	words      int
	sentences  int
	paragraphs int

	avgSentence        float64 // words per sentence within the scene
	avgParagraph       float64 // words per paragraph within the scene
	chapterAvgSentence float64

	passives  int // passive-voice instances inside the span
	styleHits int // adverb + filter + cliché + repeated-phrase hits inside

	openPromises    int // unresolved promises opened in the span
	touchedPromises int // promises whose setup or payoff the delta touched

	protagonistAbsent bool
}

func measure(in Input, scene manuscript.Scene, sentences []text.Sentence) sectionStats {
	st := sectionStats{
		scene:              scene,
		chapterAvgSentence: in.Structure.Stats.AvgSentenceLength,
	}
	span := scene.Span

	// Scenes are paragraph-aligned, so paragraph starts decide membership.
	for _, p := range in.Structure.Paragraphs {
		if p.Span.Start < span.Start || p.Span.Start >= span.End {
			continue
		}
		st.paragraphs++
		st.words += p.WordCount
	}
	for _, s := range sentences {
		if span.Contains(s.Offset) {
			st.sentences++
		}
	}
	if st.sentences > 0 {
		st.avgSentence = float64(st.words) / float64(st.sentences)
	}
	if st.paragraphs > 0 {
		st.avgParagraph = float64(st.words) / float64(st.paragraphs)
	}

	if in.Style != nil {
		st.passives = countIn(span, in.Style.Flags.PassiveInstances)
		st.styleHits = countIn(span, in.Style.Flags.AdverbInstances) +
			countIn(span, in.Style.Flags.FilterInstances) +
			2*countIn(span, in.Style.Flags.ClicheInstances)
		for _, rp := range in.Style.Flags.RepeatedPhrases {
			for _, off := range rp.Offsets {
				if span.Contains(off) {
					st.styleHits++
				}
			}
		}
	}

	if in.Timeline != nil {
		touched := make(map[string]bool, len(in.Timeline.Promises))
		if in.Delta != nil {
			for _, id := range in.Delta.TouchedPromises {
				touched[id] = true
			}
		}
		for i := range in.Timeline.Promises {
			p := &in.Timeline.Promises[i]
			origin := p.ChapterID == in.ChapterID && span.Contains(p.Offset)
			payoff := p.Resolved && p.ResolutionChapter == in.ChapterID &&
				span.Contains(p.ResolutionOffset)
			if origin && !p.Resolved {
				st.openPromises++
			}
			if touched[p.ID] && (origin || payoff) {
				st.touchedPromises++
			}
		}
	}

	st.protagonistAbsent = protagonistAbsent(in, span)
	return st
}

// protagonistAbsent reports whether the lore names at least one lead and
// none of them is mentioned inside the span. Without lore there is no
// expectation to violate, so the signal stays off.
func protagonistAbsent(in Input, span manuscript.Span) bool {
	protos := in.Lore.Protagonists()
	if len(protos) == 0 || in.Graph == nil {
		return false
	}
	for _, pc := range protos {
		node := findByName(in.Graph, pc.Name)
		if node == nil {
			continue
		}
		for _, m := range node.Mentions {
			if m.ChapterID == in.ChapterID && span.Contains(m.Offset) {
				return false
			}
		}
	}
	return true
}

func findByName(g *manuscript.EntityGraph, name string) *manuscript.EntityNode {
	want := manuscript.NormalizeName(name)
	var found *manuscript.EntityNode
	for _, id := range sortedNodeIDs(g) {
		n := g.Nodes[id]
		if manuscript.NormalizeName(n.Name) == want {
			return n
		}
		if found == nil {
			for _, a := range n.Aliases {
				if manuscript.NormalizeName(a) == want {
					found = n
					break
				}
			}
		}
	}
	return found
}

func countIn(span manuscript.Span, instances []manuscript.StyleInstance) int {
	n := 0
	for _, inst := range instances {
		if span.Contains(inst.Offset) {
			n++
		}
	}
	return n
}

func plotRisk(st sectionStats) float64 {
	return clamp01(openPromiseRisk*float64(st.openPromises) +
		touchedPromiseRisk*float64(st.touchedPromises))
}

func pacingRisk(st sectionStats) float64 {
	if st.words == 0 {
		return 0
	}
	var r float64
	if st.avgSentence >= slowSentenceWords {
		r = maxf(r, (st.avgSentence-slowSentenceWords)/slowSentenceWords)
	}
	if st.sentences >= minRushedSentences &&
		st.avgSentence < rushedSentenceWords &&
		st.scene.DialogueRatio < rushedDialogueGate {
		r = maxf(r, (rushedSentenceWords-st.avgSentence)/rushedSentenceWords)
	}
	if st.avgParagraph >= denseParagraphWords {
		r = maxf(r, (st.avgParagraph-denseParagraphWords)/denseParagraphWords)
	}
	if st.chapterAvgSentence > 0 {
		dev := st.avgSentence - st.chapterAvgSentence
		if dev < 0 {
			dev = -dev
		}
		r = maxf(r, dev/st.chapterAvgSentence/2)
	}
	return clamp01(r)
}

func characterRisk(st sectionStats) float64 {
	var r float64
	if st.protagonistAbsent {
		r = protagonistAbsentRisk
	}
	if st.sentences > 0 {
		share := float64(st.passives) / float64(st.sentences)
		r = maxf(r, clamp01(2*share))
	}
	return clamp01(r)
}

func settingRisk(injected float64, scene manuscript.Scene, anchored bool) float64 {
	r := clamp01(injected)
	if scene.Location == "" && anchored {
		r = maxf(r, settingDriftRisk)
	}
	return r
}

func styleRisk(st sectionStats) float64 {
	if st.words == 0 {
		return 0
	}
	density := float64(st.passives+st.styleHits) / float64(st.words)
	return clamp01(density / styleSaturation)
}

// chapterAnchorsLocation reports whether any scene in the chapter names a
// location; drift is only meaningful when the chapter anchors at all.
func chapterAnchorsLocation(sf *manuscript.StructuralFingerprint) bool {
	for _, s := range sf.Scenes {
		if s.Location != "" {
			return true
		}
	}
	return false
}

// hotspots picks the highest-risk sections above the threshold, best first,
// capped at maxHotspots. Ties keep document order.
func hotspots(sections []manuscript.HeatmapSection, threshold float64) []string {
	type cand struct {
		id   string
		risk float64
		idx  int
	}
	var cands []cand
	for i, s := range sections {
		if s.OverallRisk > threshold {
			cands = append(cands, cand{s.SectionID, s.OverallRisk, i})
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].risk != cands[j].risk {
			return cands[i].risk > cands[j].risk
		}
		return cands[i].idx < cands[j].idx
	})
	if len(cands) > maxHotspots {
		cands = cands[:maxHotspots]
	}
	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.id
	}
	return ids
}

func sortedNodeIDs(g *manuscript.EntityGraph) []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

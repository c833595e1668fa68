package heatmap

import (
	"fmt"

	"github.com/draftmind/manuscript/pkg/manuscript"
)

// ruleInput gathers everything one flag rule may inspect.
type ruleInput struct {
	in    Input
	sec   *manuscript.HeatmapSection
	stats sectionStats
	stale int
}

// flagRule pairs a trigger condition with its suggestion template. Rules
// run in registry order for every section, and more than one may fire.
type flagRule struct {
	flag    manuscript.RiskFlag
	when    func(ruleInput) bool
	suggest func(ruleInput) string
}

var flagRules = []flagRule{
	{
		flag: manuscript.FlagPacingSlow,
		when: func(r ruleInput) bool {
			return r.sec.Risk.Pacing > riskFlagThreshold &&
				r.stats.avgSentence >= slowSentenceWords
		},
		suggest: func(r ruleInput) string {
			return fmt.Sprintf("Sentences here average %.0f words; break the longest ones up or trim description to restore momentum.",
				r.stats.avgSentence)
		},
	},
	{
		flag: manuscript.FlagPacingRushed,
		when: func(r ruleInput) bool {
			return r.sec.Risk.Pacing > riskFlagThreshold &&
				r.stats.avgSentence > 0 &&
				r.stats.avgSentence < rushedSentenceWords
		},
		suggest: func(r ruleInput) string {
			return "Beats land very fast in this section; let a moment breathe or vary the sentence rhythm."
		},
	},
	{
		flag: manuscript.FlagDialogueHeavy,
		when: func(r ruleInput) bool {
			return r.stats.scene.DialogueRatio > dialogueHeavyRatio
		},
		suggest: func(r ruleInput) string {
			return "Dialogue carries nearly the whole section; ground the exchange with action beats or interiority."
		},
	},
	{
		flag: manuscript.FlagUnresolvedArc,
		when: func(r ruleInput) bool {
			return r.sec.Risk.Plot > riskFlagThreshold
		},
		suggest: func(r ruleInput) string {
			if r.stats.touchedPromises > 0 {
				return "The last edit touched promise setups or payoffs here; reread the affected arc for contradictions."
			}
			return fmt.Sprintf("%d promises opened in this section are still unresolved; pay one off or move a setup later.",
				r.stats.openPromises)
		},
	},
	{
		flag: manuscript.FlagProtagonistOff,
		when: func(r ruleInput) bool {
			return r.stats.protagonistAbsent && r.stats.words >= minAbsenceWords
		},
		suggest: func(r ruleInput) string {
			return "None of the leads appear in this section; confirm the viewpoint shift is intentional."
		},
	},
	{
		flag: manuscript.FlagPassiveCluster,
		when: func(r ruleInput) bool {
			return r.stats.passives >= passiveClusterCount &&
				r.stats.sentences > 0 &&
				float64(r.stats.passives)/float64(r.stats.sentences) >= passiveClusterShare
		},
		suggest: func(r ruleInput) string {
			return fmt.Sprintf("%d passive constructions cluster in this section; recast the key ones with active subjects.",
				r.stats.passives)
		},
	},
	{
		flag: manuscript.FlagStyleNoise,
		when: func(r ruleInput) bool {
			return r.sec.Risk.Style > riskFlagThreshold
		},
		suggest: func(r ruleInput) string {
			return "Adverbs, filter words, and repeated phrases are dense here; a line-edit pass would quiet the prose."
		},
	},
	{
		flag: manuscript.FlagSettingDrift,
		when: func(r ruleInput) bool {
			if r.sec.Risk.Setting > riskFlagThreshold {
				return true
			}
			return r.stats.scene.Location == "" && r.sec.Risk.Setting >= settingDriftRisk
		},
		suggest: func(r ruleInput) string {
			if r.stats.scene.Location == "" {
				return "No location anchors this section; re-establish where the scene takes place."
			}
			return "External continuity checks flag this section; verify its period and world details."
		},
	},
	{
		flag: manuscript.FlagStaleSection,
		when: func(r ruleInput) bool {
			return r.stale > 0 && r.in.Passes[r.sec.SectionID] >= r.stale
		},
		suggest: func(r ruleInput) string {
			return fmt.Sprintf("Unchanged for %d passes while the chapter moved on around it; reread against the newer material.",
				r.in.Passes[r.sec.SectionID])
		},
	},
}

func (a *Analyzer) applyFlags(sec *manuscript.HeatmapSection, st sectionStats, in Input) {
	r := ruleInput{in: in, sec: sec, stats: st, stale: a.cfg.StaleAfterPasses}
	for _, rule := range flagRules {
		if !rule.when(r) {
			continue
		}
		sec.Flags = append(sec.Flags, rule.flag)
		sec.Suggestions = append(sec.Suggestions, rule.suggest(r))
	}
}

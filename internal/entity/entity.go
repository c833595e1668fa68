// Package entity implements heuristic named-entity extraction and
// relationship graph construction. A fixed registry of extraction passes
// proposes candidates; filtering, consolidation, and alias binding turn
// them into a node arena; co-occurrence and verb-pattern passes connect
// the nodes. Everything derives deterministically from the chapter text,
// so the same input always produces the same graph, node ids included.
package entity

import (
	"github.com/draftmind/manuscript/internal/config"
	"github.com/draftmind/manuscript/internal/text"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

// Analyzer extracts entity graphs from chapter text.
type Analyzer struct {
	limits config.Limits
	stop   text.Set
}

// New builds an analyzer from cfg, extending the candidate stoplist with
// any configured extra stopwords.
func New(cfg *config.Config) *Analyzer {
	return &Analyzer{
		limits: cfg.Limits,
		stop:   stopFor(cfg.Lexicon.ExtraStopwords),
	}
}

// Analyze extracts the entity graph for one chapter. The structural
// fingerprint contributes resolved dialogue speakers when present; a nil
// fingerprint just skips that pass. Analysis is total: any input yields a
// graph, never an error.
func (a *Analyzer) Analyze(chapterID, chapter string, sf *manuscript.StructuralFingerprint) *manuscript.EntityGraph {
	sentences := text.Sentences(chapter)
	in := passInput{
		chapter:   chapter,
		sentences: sentences,
		quotes:    text.Quotes(chapter),
		structure: sf,
		stop:      a.stop,
	}
	var cands []candidate
	for _, p := range extractPasses {
		cands = append(cands, p.run(in)...)
	}
	groups := a.consolidate(cands)
	a.bindAliases(chapter, groups)
	g := a.buildGraph(chapterID, groups)
	a.relate(chapterID, chapter, g, sentences)
	return g
}

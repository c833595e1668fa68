package core

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/draftmind/manuscript/internal/config"
	"github.com/draftmind/manuscript/internal/delta"
	"github.com/draftmind/manuscript/internal/entity"
	"github.com/draftmind/manuscript/internal/heatmap"
	"github.com/draftmind/manuscript/internal/hud"
	"github.com/draftmind/manuscript/internal/structure"
	"github.com/draftmind/manuscript/internal/style"
	"github.com/draftmind/manuscript/internal/timeline"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

// PassRequest carries everything one analysis pass needs. Prior is the
// latest accepted snapshot and supplies carried artifacts for the tiers
// that do not recompute them; Baseline is the last full snapshot and
// anchors the delta. The pipeline may adopt subtrees of Prior into its
// result, so the caller hands in its own copy.
type PassRequest struct {
	ChapterID string
	Text      string
	Tier      manuscript.Tier
	Now       time.Time

	Prior        *manuscript.Intelligence
	Baseline     *manuscript.Intelligence
	BaselineText string
	Delta        *manuscript.Delta // precomputed; nil means derive from Baseline

	Lore       manuscript.Lore
	Continuity map[string]float64
	Passes     map[string]int
}

// Pipeline owns the analyzers and turns a pass request into a snapshot.
// It is stateless between calls and safe for concurrent use.
type Pipeline struct {
	structure *structure.Analyzer
	entity    *entity.Analyzer
	timeline  *timeline.Analyzer
	style     *style.Analyzer
	heatmap   *heatmap.Analyzer
	tracker   *delta.Tracker
	hud       *hud.Builder
	logger    *slog.Logger
}

// NewPipeline builds a pipeline from one configuration.
func NewPipeline(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		structure: structure.New(cfg),
		entity:    entity.New(cfg),
		timeline:  timeline.New(cfg),
		style:     style.New(cfg),
		heatmap:   heatmap.New(cfg),
		tracker:   delta.New(),
		hud:       hud.New(cfg),
		logger:    logger,
	}
}

// tierRank orders tiers by how much they recompute. A snapshot analyzed
// at a higher rank covers every lower one.
func tierRank(t manuscript.Tier) int {
	switch t {
	case manuscript.TierBackground:
		return 2
	case manuscript.TierDebounced:
		return 1
	default:
		return 0
	}
}

// Run executes one pass. The instant tier reclassifies structure only;
// debounced adds entity re-extraction; background recomputes everything
// and rescores the heatmap. Artifacts a tier does not recompute are
// carried from Prior. The only error Run can return is the context's:
// analysis itself is total.
func (p *Pipeline) Run(ctx context.Context, req PassRequest) (*manuscript.Intelligence, error) {
	hash := manuscript.ContentHash(req.Text)

	// Unchanged content already analyzed at this depth or deeper: hand
	// the prior snapshot back without recomputing anything.
	if req.Prior != nil && req.Prior.ContentHash == hash &&
		tierRank(req.Prior.Tier) >= tierRank(req.Tier) {
		p.logger.Debug("content hash unchanged, reusing snapshot",
			"chapter", req.ChapterID,
			"tier", req.Tier,
			"hash", hash)
		return req.Prior, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d := req.Delta
	if d == nil {
		d = p.tracker.Track(req.ChapterID, req.BaselineText, req.Text, req.Baseline)
	}

	snap := &manuscript.Intelligence{
		ChapterID:   req.ChapterID,
		ContentHash: hash,
		Tier:        req.Tier,
		AnalyzedAt:  req.Now,
		Delta:       d,
	}
	snap.Structure = p.structure.Analyze(req.ChapterID, req.Text)

	switch req.Tier {
	case manuscript.TierInstant:
		if req.Prior != nil {
			snap.Graph = req.Prior.Graph
			snap.Timeline = req.Prior.Timeline
			snap.Style = req.Prior.Style
			snap.Heatmap = req.Prior.Heatmap
		}

	case manuscript.TierDebounced:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap.Graph = p.entity.Analyze(req.ChapterID, req.Text, snap.Structure)
		if req.Prior != nil {
			snap.Timeline = req.Prior.Timeline
			snap.Style = req.Prior.Style
			snap.Heatmap = req.Prior.Heatmap
		}

	case manuscript.TierBackground:
		var priorTimeline *manuscript.Timeline
		if req.Prior != nil {
			priorTimeline = req.Prior.Timeline
		}

		var (
			graph *manuscript.EntityGraph
			tl    *manuscript.Timeline
			sf    *manuscript.StyleFingerprint
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			graph = p.entity.Analyze(req.ChapterID, req.Text, snap.Structure)
			return nil
		})
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tl = p.timeline.Analyze(req.ChapterID, req.Text, priorTimeline)
			return nil
		})
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sf = p.style.Analyze(req.ChapterID, req.Text, snap.Structure)
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		snap.Graph = graph
		snap.Timeline = tl
		snap.Style = sf

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap.Heatmap = p.heatmap.Score(heatmap.Input{
			ChapterID: req.ChapterID,
			Chapter:   req.Text,
			Structure: snap.Structure,
			Timeline:  tl,
			Style:     sf,
			Graph:     graph,
			Delta:     d,
			Lore:      req.Lore,
			Setting:   req.Continuity,
			Passes:    req.Passes,
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logger.Debug("analysis pass computed",
		"chapter", req.ChapterID,
		"tier", req.Tier,
		"scenes", snap.Structure.Stats.SceneCount,
		"words", snap.Structure.Stats.WordCount)
	return snap, nil
}

// TrackDelta diffs two versions of a chapter against the given prior
// snapshot. The scheduler uses it ahead of Run so the same delta that
// drives invalidation also advances the stale-section counters.
func (p *Pipeline) TrackDelta(chapterID, prev, curr string, prior *manuscript.Intelligence) *manuscript.Delta {
	return p.tracker.Track(chapterID, prev, curr, prior)
}

// BuildHUD renders the digest for a snapshot at a given cursor situation.
func (p *Pipeline) BuildHUD(in *manuscript.Intelligence, sit hud.Situation, tier manuscript.Tier, now time.Time) *manuscript.HUD {
	return p.hud.Build(in, sit, tier, now)
}

// ResolveCarried scans a chapter's text for payoffs of promises that
// originated in other chapters.
func (p *Pipeline) ResolveCarried(carried []manuscript.PlotPromise, chapterID, text string) []manuscript.PlotPromise {
	return p.timeline.ResolveCarried(carried, chapterID, text)
}

// MergeGraphs folds per-chapter entity graphs into one manuscript-wide
// graph. Inputs must be snapshots the caller owns.
func (p *Pipeline) MergeGraphs(graphs ...*manuscript.EntityGraph) *manuscript.EntityGraph {
	return p.entity.Merge(graphs...)
}

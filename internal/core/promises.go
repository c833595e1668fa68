package core

import (
	"github.com/draftmind/manuscript/pkg/manuscript"
)

// foldPromises walks the manuscript in chapter order carrying forward
// unresolved promises and checking each later chapter for their payoffs.
// Resolutions are written back onto the origin chapter's snapshot, so a
// promise made in chapter 2 and paid off in chapter 7 shows as resolved
// wherever the reader looks.
//
// Only one fold runs at a time. Chapters are locked one at a time and
// never while holding the scheduler lock, so folds cannot deadlock with
// in-flight passes.
func (s *Scheduler) foldPromises() {
	s.foldMu.Lock()
	defer s.foldMu.Unlock()

	var carried []manuscript.PlotPromise
	resolvedByOrigin := make(map[string][]manuscript.PlotPromise)

	for _, id := range s.chapterOrder() {
		snap, ok := s.store.Latest(id)
		if !ok {
			continue
		}
		if len(carried) > 0 {
			text := s.chapterText(id)
			checked := s.pipeline.ResolveCarried(carried, id, text)
			carried = carried[:0]
			for _, p := range checked {
				if p.Resolved {
					resolvedByOrigin[p.ChapterID] = append(resolvedByOrigin[p.ChapterID], p)
				} else {
					carried = append(carried, p)
				}
			}
		}
		carried = append(carried, snap.Timeline.OpenPromises()...)
	}

	for origin, resolved := range resolvedByOrigin {
		s.applyResolutions(origin, resolved)
	}
}

// chapterText returns the current buffer for a chapter, or "" if the
// chapter is unknown.
func (s *Scheduler) chapterText(id string) string {
	st, err := s.chapter(id, false)
	if err != nil {
		return ""
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.text
}

// applyResolutions stamps payoff locations onto the origin chapter's
// snapshot and republishes it. Resolution is monotonic, so a promise
// already resolved by a same-chapter payoff is left alone. The snapshot
// is read and republished under the chapter lock: a pass accepting
// concurrently can never be rolled back by the fold.
func (s *Scheduler) applyResolutions(origin string, resolved []manuscript.PlotPromise) {
	st, err := s.chapter(origin, false)
	if err != nil {
		return
	}

	byID := make(map[string]manuscript.PlotPromise, len(resolved))
	for _, p := range resolved {
		byID[p.ID] = p
	}

	st.mu.Lock()
	snap, ok := s.store.Latest(origin)
	if !ok || snap.Timeline == nil {
		st.mu.Unlock()
		return
	}

	changed := 0
	for i := range snap.Timeline.Promises {
		p := &snap.Timeline.Promises[i]
		if p.Resolved {
			continue
		}
		if up, ok := byID[p.ID]; ok {
			p.Resolve(up.ResolutionOffset, up.ResolutionChapter)
			changed++
		}
	}
	if changed == 0 {
		st.mu.Unlock()
		return
	}

	s.store.Accept(snap)
	st.hud = s.pipeline.BuildHUD(snap, situationFor(snap), snap.Tier, s.clock.Now())
	st.mu.Unlock()

	s.metricsMu.Lock()
	s.metrics.PromisesResolved += int64(changed)
	s.metricsMu.Unlock()

	s.events.Emit(Event{
		Type:      EventHUDUpdated,
		ChapterID: origin,
		Tier:      snap.Tier,
		Timestamp: s.clock.Now(),
	})
	s.logger.Info("promises resolved across chapters",
		"origin", origin,
		"count", changed)
}

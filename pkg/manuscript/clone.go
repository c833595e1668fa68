package manuscript

// Clone helpers produce independent deep copies. Snapshot readers and the
// merge path both rely on them: mutating a clone never disturbs the
// original, so the store can keep handing out the latest snapshot while a
// background pass builds the next one.

// Clone returns a deep copy of the node.
func (n *EntityNode) Clone() *EntityNode {
	if n == nil {
		return nil
	}
	out := *n
	out.Aliases = append([]string(nil), n.Aliases...)
	out.Mentions = append([]Mention(nil), n.Mentions...)
	if n.Attributes != nil {
		out.Attributes = make(map[string][]string, len(n.Attributes))
		for k, v := range n.Attributes {
			out.Attributes[k] = append([]string(nil), v...)
		}
	}
	return &out
}

// Clone returns a deep copy of the edge.
func (e *EntityEdge) Clone() *EntityEdge {
	if e == nil {
		return nil
	}
	out := *e
	out.Chapters = append([]string(nil), e.Chapters...)
	out.Evidence = append([]string(nil), e.Evidence...)
	return &out
}

// Clone returns a deep copy of the graph.
func (g *EntityGraph) Clone() *EntityGraph {
	if g == nil {
		return nil
	}
	out := NewEntityGraph()
	for id, n := range g.Nodes {
		out.Nodes[id] = n.Clone()
	}
	for id, e := range g.Edges {
		out.Edges[id] = e.Clone()
	}
	return out
}

// Clone returns a deep copy of the timeline.
func (t *Timeline) Clone() *Timeline {
	if t == nil {
		return nil
	}
	out := *t
	out.Markers = append([]TemporalMarker(nil), t.Markers...)
	out.Chains = append([]CausalChain(nil), t.Chains...)
	out.Promises = append([]PlotPromise(nil), t.Promises...)
	return &out
}

// Clone returns a deep copy of the fingerprint.
func (f *StructuralFingerprint) Clone() *StructuralFingerprint {
	if f == nil {
		return nil
	}
	out := *f
	out.Scenes = append([]Scene(nil), f.Scenes...)
	out.Paragraphs = append([]ClassifiedParagraph(nil), f.Paragraphs...)
	out.Dialogue = append([]DialogueLine(nil), f.Dialogue...)
	return &out
}

// Clone returns a deep copy of the style fingerprint.
func (f *StyleFingerprint) Clone() *StyleFingerprint {
	if f == nil {
		return nil
	}
	out := *f
	out.Vocabulary.OverusedWords = append([]WordFrequency(nil), f.Vocabulary.OverusedWords...)
	out.Vocabulary.RareWords = append([]string(nil), f.Vocabulary.RareWords...)
	out.Flags.PassiveInstances = append([]StyleInstance(nil), f.Flags.PassiveInstances...)
	out.Flags.AdverbInstances = append([]StyleInstance(nil), f.Flags.AdverbInstances...)
	out.Flags.FilterInstances = append([]StyleInstance(nil), f.Flags.FilterInstances...)
	out.Flags.ClicheInstances = append([]StyleInstance(nil), f.Flags.ClicheInstances...)
	out.Flags.RepeatedPhrases = make([]RepeatedPhrase, len(f.Flags.RepeatedPhrases))
	for i, rp := range f.Flags.RepeatedPhrases {
		cp := rp
		cp.Offsets = append([]int(nil), rp.Offsets...)
		out.Flags.RepeatedPhrases[i] = cp
	}
	return &out
}

// Clone returns a deep copy of the heatmap.
func (h *AttentionHeatmap) Clone() *AttentionHeatmap {
	if h == nil {
		return nil
	}
	out := *h
	out.Sections = make([]HeatmapSection, len(h.Sections))
	for i, s := range h.Sections {
		cp := s
		cp.Flags = append([]RiskFlag(nil), s.Flags...)
		cp.Suggestions = append([]string(nil), s.Suggestions...)
		out.Sections[i] = cp
	}
	out.Hotspots = append([]string(nil), h.Hotspots...)
	return &out
}

// Clone returns a deep copy of the delta.
func (d *Delta) Clone() *Delta {
	if d == nil {
		return nil
	}
	out := *d
	out.Changes = append([]TextChange(nil), d.Changes...)
	out.InvalidatedSections = append([]string(nil), d.InvalidatedSections...)
	out.AffectedEntities = append([]string(nil), d.AffectedEntities...)
	out.TouchedPromises = append([]string(nil), d.TouchedPromises...)
	return &out
}

// Clone returns a deep copy of the full analysis snapshot.
func (in *Intelligence) Clone() *Intelligence {
	if in == nil {
		return nil
	}
	out := *in
	out.Structure = in.Structure.Clone()
	out.Graph = in.Graph.Clone()
	out.Timeline = in.Timeline.Clone()
	out.Style = in.Style.Clone()
	out.Heatmap = in.Heatmap.Clone()
	out.Delta = in.Delta.Clone()
	return &out
}

// Clone returns a deep copy of the digest. Every element type is a plain
// value, so copying the slices is enough.
func (h *HUD) Clone() *HUD {
	if h == nil {
		return nil
	}
	out := *h
	out.Entities = append([]EntityBrief(nil), h.Entities...)
	out.Relationships = append([]RelationshipBrief(nil), h.Relationships...)
	out.OpenPromises = append([]PromiseBrief(nil), h.OpenPromises...)
	out.Issues = append([]Issue(nil), h.Issues...)
	out.RecentChanges = append([]TextChange(nil), h.RecentChanges...)
	out.StyleAlerts = append([]string(nil), h.StyleAlerts...)
	return &out
}

package manuscript

import "testing"

func TestSpan(t *testing.T) {
	s := Span{Start: 10, End: 20}
	if s.Length() != 10 {
		t.Errorf("Length = %d, want 10", s.Length())
	}
	if !s.Contains(10) || s.Contains(20) {
		t.Error("Contains must include Start and exclude End")
	}
	if !s.Overlaps(Span{Start: 19, End: 30}) {
		t.Error("adjacent-overlapping spans should overlap")
	}
	if s.Overlaps(Span{Start: 20, End: 30}) {
		t.Error("touching spans share no byte and must not overlap")
	}
}

func TestSpanClamp(t *testing.T) {
	tests := []struct {
		name    string
		in      Span
		textLen int
		want    Span
	}{
		{name: "inside", in: Span{5, 10}, textLen: 20, want: Span{5, 10}},
		{name: "negative start", in: Span{-3, 10}, textLen: 20, want: Span{0, 10}},
		{name: "end past text", in: Span{5, 99}, textLen: 20, want: Span{5, 20}},
		{name: "fully out of range", in: Span{30, 40}, textLen: 20, want: Span{30, 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Clamp(tt.textLen); got != tt.want {
				t.Errorf("Clamp(%d) = %+v, want %+v", tt.textLen, got, tt.want)
			}
		})
	}
}

func TestGraphCloneIndependence(t *testing.T) {
	g := NewEntityGraph()
	id := EntityID("Voss", EntityCharacter)
	g.Nodes[id] = &EntityNode{ID: id, Name: "Voss", Type: EntityCharacter, MentionCount: 2,
		Aliases: []string{"the detective"}}
	other := EntityID("Harrow", EntityCharacter)
	eid := EdgeID(id, other)
	g.Edges[eid] = &EntityEdge{ID: eid, Source: id, Target: other, Type: RelationInteracts, CoOccurrences: 1}

	cp := g.Clone()
	cp.Nodes[id].MentionCount = 99
	cp.Nodes[id].Aliases[0] = "changed"
	cp.Edges[eid].Upgrade(RelationOpposes)

	if g.Nodes[id].MentionCount != 2 {
		t.Error("clone mutation leaked into original node")
	}
	if g.Nodes[id].Aliases[0] != "the detective" {
		t.Error("clone shares alias backing array with original")
	}
	if g.Edges[eid].Type != RelationInteracts {
		t.Error("clone mutation leaked into original edge")
	}
}

func TestIntelligenceCloneIndependence(t *testing.T) {
	in := &Intelligence{
		ChapterID: "ch1",
		Structure: &StructuralFingerprint{ChapterID: "ch1",
			Scenes: []Scene{{ID: SceneID("ch1", 0), Span: Span{0, 100}}}},
		Graph:    NewEntityGraph(),
		Timeline: &Timeline{ChapterID: "ch1", Promises: []PlotPromise{{ID: "p"}}},
		Heatmap: &AttentionHeatmap{ChapterID: "ch1",
			Sections: []HeatmapSection{{SectionID: SectionID("ch1", 0), Flags: []RiskFlag{FlagPacingSlow}}}},
	}

	cp := in.Clone()
	cp.Structure.Scenes[0].Span.End = 1
	cp.Timeline.Promises[0].Resolve(10, "ch2")
	cp.Heatmap.Sections[0].Flags[0] = FlagStyleNoise

	if in.Structure.Scenes[0].Span.End != 100 {
		t.Error("scene span shared between clone and original")
	}
	if in.Timeline.Promises[0].Resolved {
		t.Error("promise state shared between clone and original")
	}
	if in.Heatmap.Sections[0].Flags[0] != FlagPacingSlow {
		t.Error("heatmap flags shared between clone and original")
	}
	if cp.Style != nil {
		t.Error("nil style should clone to nil")
	}
}

func TestProtagonists(t *testing.T) {
	lore := Lore{Characters: []LoreCharacter{
		{Name: "Voss", Role: "protagonist"},
		{Name: "Harrow", Role: "antagonist"},
		{Name: "Mira", Role: "lead"},
	}}
	got := lore.Protagonists()
	if len(got) != 2 || got[0].Name != "Voss" || got[1].Name != "Mira" {
		t.Errorf("Protagonists = %+v, want Voss and Mira", got)
	}
}

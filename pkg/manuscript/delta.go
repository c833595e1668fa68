package manuscript

// ChangeType classifies one edit between two text snapshots.
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeDelete ChangeType = "delete"
	ChangeModify ChangeType = "modify"
)

// TextChange is one contiguous edit. Offsets refer to the previous snapshot
// for deletes and modifies, and to the new snapshot for inserts.
type TextChange struct {
	Span    Span       `json:"span"`
	Type    ChangeType `json:"type"`
	OldText string     `json:"old_text,omitempty"`
	NewText string     `json:"new_text,omitempty"`
}

// Delta maps text changes to the downstream artifacts they invalidate. The
// tracker performs no recomputation itself; callers use the invalidation
// sets to scope the next pass.
type Delta struct {
	ChapterID           string       `json:"chapter_id"`
	Changes             []TextChange `json:"changes,omitempty"`
	InvalidatedSections []string     `json:"invalidated_sections,omitempty"`
	AffectedEntities    []string     `json:"affected_entities,omitempty"`
	TouchedPromises     []string     `json:"touched_promises,omitempty"`
	ContentHash         string       `json:"content_hash"`
}

// Empty reports whether the two snapshots were identical.
func (d *Delta) Empty() bool {
	return d == nil || len(d.Changes) == 0
}

// Invalidates reports whether the section id is in the invalidated set.
func (d *Delta) Invalidates(sectionID string) bool {
	if d == nil {
		return false
	}
	for _, id := range d.InvalidatedSections {
		if id == sectionID {
			return true
		}
	}
	return false
}

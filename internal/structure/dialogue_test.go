package structure

import (
	"testing"

	"github.com/draftmind/manuscript/pkg/manuscript"
)

func TestAttributeSpeaker(t *testing.T) {
	tests := []struct {
		name   string
		before string
		after  string
		want   string
	}{
		{name: "verb then name", after: ` said Mira.`, want: "Mira"},
		{name: "name then verb", after: ` Voss demanded.`, want: "Voss"},
		{name: "action beat after", after: ` Voss turned away.`, want: "Voss"},
		{name: "tag before quote", before: `Mira said, `, want: "Mira"},
		{name: "beat before quote", before: `Voss crossed the room. `, want: "Voss"},
		{name: "pronoun tag stays open", after: ` she said.`, want: ""},
		{name: "article is not a name", after: ` The door slammed.`, want: ""},
		{name: "nothing", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := attributeSpeaker(tt.before, tt.after); got != tt.want {
				t.Errorf("attributeSpeaker(%q, %q) = %q, want %q", tt.before, tt.after, got, tt.want)
			}
		})
	}
}

func TestLinkConversations(t *testing.T) {
	lines := []manuscript.DialogueLine{
		{ID: 1, Speaker: "Voss"},
		{ID: 2, Speaker: "Mira"},
		{ID: 3},
		{ID: 4, Speaker: "Harrow"},
	}
	// Lines 1-3 sit in adjacent paragraphs; line 4 is far away.
	linkConversations(lines, []int{0, 1, 2, 9})

	if lines[0].ReplyTo != 0 {
		t.Errorf("run opener ReplyTo = %d, want 0", lines[0].ReplyTo)
	}
	if lines[1].ReplyTo != 1 || lines[2].ReplyTo != 2 {
		t.Errorf("chain = %d, %d, want 1, 2", lines[1].ReplyTo, lines[2].ReplyTo)
	}
	if lines[2].Speaker != "Voss" {
		t.Errorf("alternation speaker = %q, want Voss (two lines back)", lines[2].Speaker)
	}
	if lines[3].ReplyTo != 0 {
		t.Errorf("distant line ReplyTo = %d, want new run", lines[3].ReplyTo)
	}
}

func TestLinkConversationsSameParagraphContinuation(t *testing.T) {
	lines := []manuscript.DialogueLine{
		{ID: 1, Speaker: "Mira"},
		{ID: 2},
	}
	linkConversations(lines, []int{3, 3})
	if lines[1].Speaker != "Mira" {
		t.Errorf("same-paragraph continuation speaker = %q, want Mira", lines[1].Speaker)
	}
	if lines[1].ReplyTo != 1 {
		t.Errorf("ReplyTo = %d, want 1", lines[1].ReplyTo)
	}
}

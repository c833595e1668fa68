package core

import (
	"reflect"
	"testing"

	"github.com/draftmind/manuscript/pkg/manuscript"
)

func snapFor(chapterID, text string) *manuscript.Intelligence {
	return &manuscript.Intelligence{
		ChapterID:   chapterID,
		ContentHash: manuscript.ContentHash(text),
		Tier:        manuscript.TierBackground,
		Structure:   &manuscript.StructuralFingerprint{ChapterID: chapterID},
	}
}

func TestStoreAcceptAndLatest(t *testing.T) {
	s := NewSnapshotStore()
	if _, ok := s.Latest("ch1"); ok {
		t.Fatal("empty store reported a snapshot")
	}

	s.Accept(snapFor("ch1", "v1"))
	s.Accept(snapFor("ch1", "v2"))

	got, ok := s.Latest("ch1")
	if !ok {
		t.Fatal("accepted snapshot not found")
	}
	if got.ContentHash != manuscript.ContentHash("v2") {
		t.Errorf("latest hash = %q, want the second accept", got.ContentHash)
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
}

func TestStoreLatestReturnsCopy(t *testing.T) {
	s := NewSnapshotStore()
	s.Accept(snapFor("ch1", "v1"))

	first, _ := s.Latest("ch1")
	first.Structure.Stats.SceneCount = 99
	first.ContentHash = "tampered"

	second, _ := s.Latest("ch1")
	if second.Structure.Stats.SceneCount == 99 || second.ContentHash == "tampered" {
		t.Error("mutating a returned snapshot leaked into the store")
	}
}

func TestStoreIgnoresInvalid(t *testing.T) {
	s := NewSnapshotStore()
	s.Accept(nil)
	s.Accept(&manuscript.Intelligence{})
	if s.Len() != 0 {
		t.Errorf("len = %d after invalid accepts, want 0", s.Len())
	}
}

func TestStoreChaptersSorted(t *testing.T) {
	s := NewSnapshotStore()
	for _, id := range []string{"ch3", "ch1", "ch2"} {
		s.Accept(snapFor(id, id))
	}
	want := []string{"ch1", "ch2", "ch3"}
	if got := s.Chapters(); !reflect.DeepEqual(got, want) {
		t.Errorf("chapters = %v, want %v", got, want)
	}
}

func TestStoreDrop(t *testing.T) {
	s := NewSnapshotStore()
	s.Accept(snapFor("ch1", "v1"))
	s.Accept(snapFor("ch2", "v1"))
	s.Drop("ch1")
	if _, ok := s.Latest("ch1"); ok {
		t.Error("dropped chapter still present")
	}
	if s.Len() != 1 {
		t.Errorf("len = %d after drop, want 1", s.Len())
	}
}

func TestStoreAllIsolated(t *testing.T) {
	s := NewSnapshotStore()
	s.Accept(snapFor("ch1", "v1"))

	all := s.All()
	all["ch1"].Structure.Stats.SceneCount = 7
	delete(all, "ch1")

	got, ok := s.Latest("ch1")
	if !ok || got.Structure.Stats.SceneCount == 7 {
		t.Error("All() shares state with the store")
	}
}

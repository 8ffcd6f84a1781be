package game

import (
	"testing"
	"time"

	"baduk_arena/internal/engine"
)

var snapTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestSnapshotDetachedFromLiveExtensions(t *testing.T) {
	s := NewSession("sess-1", "12345", ModeHidden, DefaultSettings(ModeHidden), "black-user", "white-user")
	s.Start(snapTime)
	s.Ext.HiddenBlack = []engine.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}
	s.Ext.HiddenPlacedBy = map[string]int{"black-user": 3}

	snap := s.Snapshot()

	// The handlers compact hidden lists in place; the snapshot must not
	// see it.
	s.Ext.HiddenBlack = append(s.Ext.HiddenBlack[:0], s.Ext.HiddenBlack[1:]...)
	s.Ext.HiddenPlacedBy["black-user"] = 99

	want := []engine.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}
	if len(snap.Ext.HiddenBlack) != len(want) {
		t.Fatalf("snapshot lost hidden stones, got %v", snap.Ext.HiddenBlack)
	}
	for i, p := range want {
		if !snap.Ext.HiddenBlack[i].Equals(p) {
			t.Fatalf("snapshot hidden stones changed under us, got %v", snap.Ext.HiddenBlack)
		}
	}
	if snap.Ext.HiddenPlacedBy["black-user"] != 3 {
		t.Fatalf("snapshot placement count changed under us, got %d", snap.Ext.HiddenPlacedBy["black-user"])
	}
}

func TestRestoreDetachedFromSnapshotExtensions(t *testing.T) {
	s := NewSession("sess-1", "12345", ModeHidden, DefaultSettings(ModeHidden), "black-user", "white-user")
	s.Start(snapTime)
	s.Ext.HiddenWhite = []engine.Point{{X: 5, Y: 5}, {X: 6, Y: 6}}
	snap := s.Snapshot()

	restored := Restore(snap)
	restored.Ext.HiddenWhite = append(restored.Ext.HiddenWhite[:0], restored.Ext.HiddenWhite[1:]...)

	if len(snap.Ext.HiddenWhite) != 2 || !snap.Ext.HiddenWhite[0].Equals(engine.Point{X: 5, Y: 5}) {
		t.Fatalf("restoring must not alias the stored snapshot, got %v", snap.Ext.HiddenWhite)
	}
}

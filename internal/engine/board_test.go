package engine

import "testing"

func TestNeighborsClippedAtEdges(t *testing.T) {
	b := NewBoard(9)
	if n := len(b.Neighbors(Point{0, 0})); n != 2 {
		t.Fatalf("corner should have 2 neighbors, got %d", n)
	}
	if n := len(b.Neighbors(Point{4, 0})); n != 3 {
		t.Fatalf("edge should have 3 neighbors, got %d", n)
	}
	if n := len(b.Neighbors(Point{4, 4})); n != 4 {
		t.Fatalf("center should have 4 neighbors, got %d", n)
	}
}

func TestGroupAtFindsConnectedStonesAndLiberties(t *testing.T) {
	b := NewBoard(9)
	b.Set(Point{2, 2}, Black)
	b.Set(Point{3, 2}, Black)
	b.Set(Point{3, 3}, Black)
	b.Set(Point{4, 2}, White)

	group := b.GroupAt(Point{2, 2})
	if group.Color != Black {
		t.Fatalf("expected a Black group, got %v", group.Color)
	}
	if len(group.Stones) != 3 {
		t.Fatalf("expected 3 stones in the group, got %d", len(group.Stones))
	}
	// (1,2)(2,1)(2,3)(3,1)(4,3)(3,4); the White stone at (4,2) is not one
	// and (2,3) counts once.
	if len(group.Liberties) != 6 {
		t.Fatalf("expected 7 liberties, got %d (%v)", len(group.Liberties), group.Liberties)
	}
}

func TestGroupAtEmptyPoint(t *testing.T) {
	b := NewBoard(9)
	group := b.GroupAt(Point{5, 5})
	if len(group.Stones) != 0 {
		t.Fatalf("expected no group at an empty point")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := NewBoard(9)
	b.Set(Point{1, 1}, Black)
	clone := b.Clone()
	clone.Set(Point{1, 1}, White)
	if b.At(Point{1, 1}) != Black {
		t.Fatalf("clone mutation leaked into the original board")
	}
}

func TestCellsRoundTrip(t *testing.T) {
	b := NewBoard(9)
	b.Set(Point{0, 8}, Black)
	b.Set(Point{8, 0}, White)

	restored := RestoreCells(b.Cells())
	if restored.Size() != 9 {
		t.Fatalf("expected size 9, got %d", restored.Size())
	}
	if restored.At(Point{0, 8}) != Black || restored.At(Point{8, 0}) != White {
		t.Fatalf("restored board does not match:\n%s", restored)
	}
}

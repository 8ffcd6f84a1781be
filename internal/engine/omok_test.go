package engine

import "testing"

func rowOf(b *Board, color Stone, y, from, to int) {
	for x := from; x <= to; x++ {
		b.Set(Point{x, y}, color)
	}
}

func TestIsRowWinBlackNeedsExactlyFive(t *testing.T) {
	b := NewBoard(15)
	rowOf(&b, Black, 7, 3, 7)
	if !IsRowWin(b, Point{5, 7}, Black) {
		t.Fatalf("expected five in a row to win for Black")
	}

	b2 := NewBoard(15)
	rowOf(&b2, Black, 7, 3, 8)
	if IsRowWin(b2, Point{5, 7}, Black) {
		t.Fatalf("six in a row must not count as a Black win")
	}
}

func TestIsRowWinWhiteAllowsOverline(t *testing.T) {
	b := NewBoard(15)
	rowOf(&b, White, 7, 3, 8)
	if !IsRowWin(b, Point{5, 7}, White) {
		t.Fatalf("expected six in a row to win for White")
	}
}

func TestIsOverlineDetectsSixThroughPlacement(t *testing.T) {
	b := NewBoard(15)
	rowOf(&b, Black, 7, 2, 4)
	rowOf(&b, Black, 7, 6, 7)

	if !IsOverline(&b, Point{5, 7}, Black) {
		t.Fatalf("expected the joining placement to make an overline")
	}
	if b.At(Point{5, 7}) != None {
		t.Fatalf("the overline check must not leave a stone behind")
	}
}

func TestIsDoubleThree(t *testing.T) {
	b := NewBoard(15)
	// Two open pairs through (7,7): horizontal and vertical.
	b.Set(Point{5, 7}, Black)
	b.Set(Point{6, 7}, Black)
	b.Set(Point{7, 5}, Black)
	b.Set(Point{7, 6}, Black)

	if !IsDoubleThree(&b, Point{7, 7}, Black) {
		t.Fatalf("expected a double open three")
	}

	// Block one end of the horizontal three and it stops being open.
	b.Set(Point{4, 7}, White)
	if IsDoubleThree(&b, Point{7, 7}, Black) {
		t.Fatalf("a blocked three must not count toward double three")
	}
}

func TestFindPairCapturesFlanking(t *testing.T) {
	b := NewBoard(15)
	// X O O [X]: placing Black at (6,3) flanks the White pair.
	b.Set(Point{3, 3}, Black)
	b.Set(Point{4, 3}, White)
	b.Set(Point{5, 3}, White)
	b.Set(Point{6, 3}, Black)

	captured := FindPairCaptures(b, Point{6, 3}, Black)
	if len(captured) != 2 {
		t.Fatalf("expected the flanked pair to be captured, got %v", captured)
	}

	// A single flanked stone is safe.
	b2 := NewBoard(15)
	b2.Set(Point{3, 3}, Black)
	b2.Set(Point{4, 3}, White)
	b2.Set(Point{5, 3}, Black)
	if got := FindPairCaptures(b2, Point{5, 3}, Black); len(got) != 0 {
		t.Fatalf("expected no capture of a single stone, got %v", got)
	}
}

func TestFindPairCapturesDiagonal(t *testing.T) {
	b := NewBoard(15)
	b.Set(Point{2, 2}, White)
	b.Set(Point{3, 3}, Black)
	b.Set(Point{4, 4}, Black)
	b.Set(Point{5, 5}, White)

	captured := FindPairCaptures(b, Point{5, 5}, White)
	if len(captured) != 2 {
		t.Fatalf("expected a diagonal pair capture, got %v", captured)
	}
}

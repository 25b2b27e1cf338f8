package geometry

import "testing"

func TestContains(t *testing.T) {
	page := Rect{LLx: 0, LLy: 0, URx: 100, URy: 200}
	imaging := Rect{LLx: 5, LLy: 10, URx: 95, URy: 190}
	if !Contains(page, imaging) {
		t.Errorf("expected imaging bbox to be contained in page box")
	}

	outside := Rect{LLx: -1, LLy: 10, URx: 95, URy: 190}
	if Contains(page, outside) {
		t.Errorf("expected out-of-bounds bbox to not be contained")
	}
}

func TestDxDy(t *testing.T) {
	r := Rect{LLx: 10, LLy: 20, URx: 110, URy: 220}
	if Dx(r) != 100 {
		t.Errorf("Dx = %v, want 100", Dx(r))
	}
	if Dy(r) != 200 {
		t.Errorf("Dy = %v, want 200", Dy(r))
	}
}

func TestTopBottomSkip(t *testing.T) {
	page := Rect{LLx: 0, LLy: 0, URx: 100, URy: 720}
	imaging := Rect{LLx: 0, LLy: 72, URx: 100, URy: 648}
	// gap of 72 points at 360 DPI = 360 rows on each side.
	top, bottom := TopBottomSkip(page, imaging, 360)
	if top != 360 || bottom != 360 {
		t.Errorf("TopBottomSkip = (%d, %d), want (360, 360)", top, bottom)
	}
}

func TestFeedLines(t *testing.T) {
	if got := FeedLines(0, 360); got != 0 {
		t.Errorf("FeedLines(0, 360) = %d, want 0", got)
	}
	if got := FeedLines(36, 720); got != 360 {
		t.Errorf("FeedLines(36, 720) = %d, want 360", got)
	}
}

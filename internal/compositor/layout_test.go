package compositor

import (
	"image"
	"testing"

	"pgregory.net/rapid"
)

func TestLayoutPlacementAtCommonSizes(t *testing.T) {
	sizes := []image.Point{{X: 1024, Y: 1365}, {X: 2048, Y: 2730}}
	for _, size := range sizes {
		t.Run(size.String(), func(t *testing.T) {
			rapid.Check(t, func(rt *rapid.T) {
				logoSrc := image.Pt(rapid.IntRange(1, 4000).Draw(rt, "logoW"), rapid.IntRange(1, 4000).Draw(rt, "logoH"))
				badgeSrc := image.Pt(rapid.IntRange(1, 4000).Draw(rt, "badgeW"), rapid.IntRange(1, 4000).Draw(rt, "badgeH"))
				l := ComputeLayout(size.X, size.Y, logoSrc, badgeSrc)

				marginX := round(float64(size.X) * 0.03)
				marginY := round(float64(size.Y) * 0.03)
				if l.Logo.Min != image.Pt(marginX, marginY) {
					rt.Fatalf("logo origin %v, want (%d,%d)", l.Logo.Min, marginX, marginY)
				}
				if l.Badge.Min.Y != marginY || l.Badge.Max.X != size.X-marginX {
					rt.Fatalf("badge %v not flush with top-right margin", l.Badge)
				}
				logoBox := LogoBox(size.X, size.Y)
				badgeBox := BadgeBox(size.X, size.Y)
				if l.Logo.Dx() > logoBox.X || l.Logo.Dy() > logoBox.Y {
					rt.Fatalf("logo %v exceeds box %v", l.Logo.Size(), logoBox)
				}
				if l.Badge.Dx() > badgeBox.X || l.Badge.Dy() > badgeBox.Y {
					rt.Fatalf("badge %v exceeds box %v", l.Badge.Size(), badgeBox)
				}
				if l.Logo.Dx() > logoSrc.X || l.Logo.Dy() > logoSrc.Y {
					rt.Fatalf("logo enlarged from %v to %v", logoSrc, l.Logo.Size())
				}
				if !l.Logo.In(image.Rect(0, 0, size.X, size.Y)) {
					rt.Fatalf("logo %v outside image", l.Logo)
				}
				if !l.Badge.In(image.Rect(0, 0, size.X, size.Y)) {
					rt.Fatalf("badge %v outside image", l.Badge)
				}
			})
		})
	}
}

func TestBoxes(t *testing.T) {
	if got := LogoBox(1024, 1365); got != image.Pt(154, 137) {
		t.Fatalf("LogoBox = %v", got)
	}
	if got := BadgeBox(1024, 1365); got != image.Pt(184, 164) {
		t.Fatalf("BadgeBox = %v", got)
	}
}

func TestFitInside(t *testing.T) {
	tests := []struct {
		src, box, want image.Point
	}{
		{image.Pt(100, 50), image.Pt(200, 200), image.Pt(100, 50)},
		{image.Pt(400, 200), image.Pt(100, 100), image.Pt(100, 50)},
		{image.Pt(200, 400), image.Pt(100, 100), image.Pt(50, 100)},
		{image.Pt(0, 10), image.Pt(100, 100), image.Point{}},
	}
	for _, tt := range tests {
		if got := FitInside(tt.src, tt.box); got != tt.want {
			t.Errorf("FitInside(%v, %v) = %v, want %v", tt.src, tt.box, got, tt.want)
		}
	}
}

package compositor

import (
	"image"
	"math"
)

// Overlay box proportions relative to the base image.
const (
	marginRatio      = 0.03
	logoWidthRatio   = 0.15
	logoHeightRatio  = 0.10
	badgeWidthRatio  = 0.18
	badgeHeightRatio = 0.12
)

// Layout is the computed placement of both overlays on a base image.
type Layout struct {
	// Logo is the destination rectangle of the top-left logo.
	Logo image.Rectangle
	// Badge is the destination rectangle of the top-right badge.
	Badge image.Rectangle
}

func round(v float64) int {
	return int(math.Round(v))
}

// LogoBox is the maximum logo size for a width×height base image.
func LogoBox(width, height int) image.Point {
	return image.Pt(round(float64(width)*logoWidthRatio), round(float64(height)*logoHeightRatio))
}

// BadgeBox is the maximum badge size for a width×height base image.
func BadgeBox(width, height int) image.Point {
	return image.Pt(round(float64(width)*badgeWidthRatio), round(float64(height)*badgeHeightRatio))
}

// FitInside scales src down to fit within box keeping its aspect ratio.
// Sources already inside the box are returned unchanged.
func FitInside(src, box image.Point) image.Point {
	if src.X <= 0 || src.Y <= 0 || box.X <= 0 || box.Y <= 0 {
		return image.Point{}
	}
	if src.X <= box.X && src.Y <= box.Y {
		return src
	}
	scale := math.Min(float64(box.X)/float64(src.X), float64(box.Y)/float64(src.Y))
	w := max(1, min(box.X, round(float64(src.X)*scale)))
	h := max(1, min(box.Y, round(float64(src.Y)*scale)))
	return image.Pt(w, h)
}

// ComputeLayout places a logo of logoSrc size top-left and a badge of badgeSrc
// size top-right, each fitted inside its box and inset by the margin.
func ComputeLayout(width, height int, logoSrc, badgeSrc image.Point) Layout {
	marginX := round(float64(width) * marginRatio)
	marginY := round(float64(height) * marginRatio)

	logo := FitInside(logoSrc, LogoBox(width, height))
	badge := FitInside(badgeSrc, BadgeBox(width, height))

	logoMin := image.Pt(marginX, marginY)
	badgeMin := image.Pt(width-badge.X-marginX, marginY)
	return Layout{
		Logo:  image.Rectangle{Min: logoMin, Max: logoMin.Add(logo)},
		Badge: image.Rectangle{Min: badgeMin, Max: badgeMin.Add(badge)},
	}
}

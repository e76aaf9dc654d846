package chart

import (
	"fmt"
	"math"

	"github.com/klytics/sheetsight/internal/dataset"
)

// basePalette is handed out in order before any generated color.
var basePalette = []string{
	"rgba(99, 102, 241, 0.8)", // indigo
	"rgba(168, 85, 247, 0.8)", // purple
	"rgba(236, 72, 153, 0.8)", // pink
	"rgba(251, 146, 60, 0.8)", // orange
	"rgba(34, 197, 94, 0.8)",  // green
	"rgba(59, 130, 246, 0.8)", // blue
	"rgba(249, 115, 22, 0.8)", // orange
	"rgba(20, 184, 166, 0.8)", // teal
	"rgba(244, 63, 94, 0.8)",  // rose
	"rgba(132, 204, 22, 0.8)", // lime
}

// goldenAngle spaces generated hues so they do not repeat.
const goldenAngle = 137.5

// BasePalette returns a copy of the fixed palette.
func BasePalette() []string {
	return append([]string(nil), basePalette...)
}

// Colors returns exactly n colors. The first ones come from the base
// palette; the k-th color past it (k counted from 0) gets hue
// (k*137.5) mod 360.
func Colors(n int) []string {
	if n <= 0 {
		return []string{}
	}
	out := make([]string, 0, n)
	for i := 0; i < n && i < len(basePalette); i++ {
		out = append(out, basePalette[i])
	}
	for k := len(basePalette); k < n; k++ {
		hue := math.Mod(float64(k)*goldenAngle, 360)
		out = append(out, fmt.Sprintf("hsla(%s, 70%%, 60%%, 0.8)", dataset.Number(hue).Key()))
	}
	return out
}

package chart

import "testing"

func TestColorsFromBasePalette(t *testing.T) {
	for n := 0; n <= len(basePalette); n++ {
		got := Colors(n)
		if len(got) != n {
			t.Fatalf("Colors(%d) returned %d colors", n, len(got))
		}
		for i := range got {
			if got[i] != basePalette[i] {
				t.Errorf("Colors(%d)[%d] = %q, want %q", n, i, got[i], basePalette[i])
			}
		}
	}
}

func TestColorsGoldenAngle(t *testing.T) {
	got := Colors(12)
	if len(got) != 12 {
		t.Fatalf("len = %d", len(got))
	}
	if got[10] != "hsla(295, 70%, 60%, 0.8)" {
		t.Errorf("Colors(12)[10] = %q", got[10])
	}
	if got[11] != "hsla(72.5, 70%, 60%, 0.8)" {
		t.Errorf("Colors(12)[11] = %q", got[11])
	}
}

func TestColorsDeterministic(t *testing.T) {
	a, b := Colors(40), Colors(40)
	seen := make(map[string]bool)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Colors not deterministic at %d", i)
		}
		if seen[a[i]] && i >= len(basePalette) {
			t.Errorf("generated color %q repeats", a[i])
		}
		seen[a[i]] = true
	}
}

func TestColorsNegative(t *testing.T) {
	if got := Colors(-3); len(got) != 0 {
		t.Errorf("Colors(-3) = %v", got)
	}
}

package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"slicehouse.ai/internal/sim/anatomy"
	"slicehouse.ai/internal/sim/tuning"
)

func TestScore_PerfectPreferredTool(t *testing.T) {
	c := MustDefault()
	p := anatomy.NewPart("B1", anatomy.Cat, anatomy.LeftFoot, anatomy.Perfect, anatomy.Shears, anatomy.Ankle)
	// (100*1.5 + 100*0.2 + 100*0.15) * 1.2 * 1.1 = 244.2
	got := c.Score(p, Requirement{MinQuality: anatomy.QualityNormal}, Archetype{TipMultiplier: 1.2, PrecisionBias: 1.1})
	if got != 244 {
		t.Fatalf("score=%d want 244", got)
	}
}

func TestScore_UnderQualityPenalty(t *testing.T) {
	c := MustDefault()
	p := anatomy.NewPart("B1", anatomy.Dog, anatomy.RightHand, anatomy.MissEarly, anatomy.Knife, anatomy.Wrist)
	got := c.Score(p, Requirement{MinQuality: anatomy.QualityHigh}, Archetype{TipMultiplier: 1, PrecisionBias: 3})
	if got != 70 {
		t.Fatalf("score=%d want 70 (precision bias must not apply)", got)
	}
}

func TestScore_PenaltyNotTunable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("scoring:\n  under_quality_penalty: 0.1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tu, err := tuning.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c, err := New(tu.Scoring)
	if err != nil {
		t.Fatal(err)
	}
	p := anatomy.NewPart("B1", anatomy.Dog, anatomy.RightHand, anatomy.MissEarly, anatomy.Knife, anatomy.Wrist)
	got := c.Score(p, Requirement{MinQuality: anatomy.QualityHigh}, Archetype{TipMultiplier: 1, PrecisionBias: 3})
	if want := int(100 * UnderQualityPenalty); got != want {
		t.Fatalf("score=%d want %d", got, want)
	}
}

func TestScore_RoundsHalfAwayFromZero(t *testing.T) {
	s := tuning.Defaults().Scoring
	s.BaseScore = 3
	c, err := New(s)
	if err != nil {
		t.Fatal(err)
	}
	p := anatomy.NewPart("B1", anatomy.Bunny, anatomy.Head, anatomy.MissLate, anatomy.Knife, anatomy.Neck)
	if got := c.Score(p, Requirement{}, Archetype{TipMultiplier: 0.5, PrecisionBias: 1}); got != 2 {
		t.Fatalf("1.5 must round to 2, got %d", got)
	}
}

func TestScore_Deterministic(t *testing.T) {
	c := MustDefault()
	p := anatomy.NewPart("B1", anatomy.Cat, anatomy.LowerTorso, anatomy.Perfect, anatomy.Cleaver, anatomy.TorsoMiddle)
	req := Requirement{MinQuality: anatomy.QualityPerfect}
	a := Archetype{TipMultiplier: 1.37, PrecisionBias: 0.91}
	first := c.Score(p, req, a)
	for i := 0; i < 100; i++ {
		if got := c.Score(p, req, a); got != first {
			t.Fatalf("run %d: %d != %d", i, got, first)
		}
	}
}

func TestPreferred(t *testing.T) {
	c := MustDefault()
	if !c.Preferred(anatomy.Cleaver, anatomy.Neck) || c.Preferred(anatomy.Cleaver, anatomy.Wrist) {
		t.Fatalf("cleaver table wrong")
	}
}

func TestNew_RejectsUnknownNames(t *testing.T) {
	s := tuning.Defaults().Scoring
	s.PreferredTools = map[string][]string{"SPORK": {"NECK"}}
	if _, err := New(s); err == nil {
		t.Fatalf("expected unknown tool error")
	}
	s.PreferredTools = map[string][]string{"KNIFE": {"ELBOWS"}}
	if _, err := New(s); err == nil {
		t.Fatalf("expected unknown joint error")
	}
}

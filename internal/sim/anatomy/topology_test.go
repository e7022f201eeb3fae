package anatomy

import (
	"errors"
	"testing"
)

func TestDefaultTopology_Shape(t *testing.T) {
	top := DefaultTopology()
	if top.Root() != UpperTorso {
		t.Fatalf("root=%s", top.Root())
	}
	if got := len(top.Segments()); got != NumSegments {
		t.Fatalf("expected %d segments, got %d", NumSegments, got)
	}
	if got := len(top.Cuts()); got != NumSegments-1 {
		t.Fatalf("expected %d cuts, got %d", NumSegments-1, got)
	}
	if _, ok := top.ParentCut(UpperTorso); ok {
		t.Fatalf("root must not have a parent cut")
	}
	for _, s := range top.Segments() {
		if s == top.Root() {
			continue
		}
		if _, ok := top.ParentCut(s); !ok {
			t.Fatalf("%s has no parent cut", s)
		}
	}
	if got := len(top.ChildCuts(UpperTorso)); got != 4 {
		t.Fatalf("upper torso child cuts=%d want 4", got)
	}
	if got := len(top.ChildCuts(LeftHand)); got != 0 {
		t.Fatalf("hand child cuts=%d want 0", got)
	}
}

func TestTopology_Resolve(t *testing.T) {
	top := DefaultTopology()
	e, ok := top.Resolve(RightLeg, Knee)
	if !ok || e.Child != RightShin || e.Parent != RightThigh {
		t.Fatalf("unexpected resolve: %+v ok=%v", e, ok)
	}
	e, ok = top.Resolve(LimbNone, Neck)
	if !ok || e.Child != Head {
		t.Fatalf("neck: %+v ok=%v", e, ok)
	}
	if _, ok := top.Resolve(LimbNone, Wrist); ok {
		t.Fatalf("no-limb wrist must not resolve")
	}
	if _, ok := top.Resolve(LeftArm, Neck); ok {
		t.Fatalf("arm neck must not resolve")
	}
	if _, ok := top.Resolve(Limb(200), Joint(200)); ok {
		t.Fatalf("garbage pair must not resolve")
	}
}

func TestNewTopology_Rejects(t *testing.T) {
	cases := map[string][]Edge{
		"two parents": {
			{Cut: CutID{LimbNone, Neck}, Child: Head, Parent: UpperTorso},
			{Cut: CutID{LimbNone, TorsoMiddle}, Child: Head, Parent: UpperTorso},
		},
		"duplicate cut": {
			{Cut: CutID{LimbNone, Neck}, Child: Head, Parent: UpperTorso},
			{Cut: CutID{LimbNone, Neck}, Child: LowerTorso, Parent: UpperTorso},
		},
		"root as child": {
			{Cut: CutID{LimbNone, Neck}, Child: UpperTorso, Parent: Head},
		},
		"detached": {
			{Cut: CutID{LeftArm, Elbow}, Child: LeftForearm, Parent: LeftUpperArm},
		},
		"cycle": {
			{Cut: CutID{LeftArm, Elbow}, Child: LeftForearm, Parent: LeftHand},
			{Cut: CutID{LeftArm, Wrist}, Child: LeftHand, Parent: LeftForearm},
		},
	}
	for name, edges := range cases {
		if _, err := NewTopology(UpperTorso, edges); !errors.Is(err, ErrBadTopology) {
			t.Fatalf("%s: expected ErrBadTopology, got %v", name, err)
		}
	}
}

func TestGenericPart(t *testing.T) {
	if GenericPart(LeftHand) != Hand || GenericPart(RightHand) != Hand {
		t.Fatalf("hands must collapse to HAND")
	}
	if GenericPart(LeftFoot) != GenericPart(RightFoot) {
		t.Fatalf("feet must collapse")
	}
	if GenericPart(SegmentType(99)) != Scrap {
		t.Fatalf("out of range must be scrap")
	}
	for s := SegmentType(0); int(s) < NumSegments; s++ {
		if GenericPart(s) == Scrap {
			t.Fatalf("%s maps to scrap", s)
		}
	}
}

func TestQualityFor(t *testing.T) {
	if QualityFor(Perfect) != QualityPerfect {
		t.Fatalf("perfect precision must give perfect quality")
	}
	if QualityFor(MissEarly) != QualityNormal || QualityFor(MissLate) != QualityNormal {
		t.Fatalf("misses must give normal quality")
	}
	if !(QualityLow < QualityNormal && QualityNormal < QualityHigh && QualityHigh < QualityPerfect) {
		t.Fatalf("quality order broken")
	}
}

func TestEnumText(t *testing.T) {
	var s Species
	if err := s.UnmarshalText([]byte(" bunny ")); err != nil || s != Bunny {
		t.Fatalf("species parse: %v %v", s, err)
	}
	if _, err := ParseTool("spoon"); err == nil {
		t.Fatalf("expected unknown tool error")
	}
	b, _ := LeftForearm.MarshalText()
	if string(b) != "LEFT_FOREARM" {
		t.Fatalf("segment text=%s", b)
	}
	if Joint(42).String() != "joint(42)" {
		t.Fatalf("out of range name=%s", Joint(42))
	}
}

package anatomy

import (
	"fmt"
	"strings"
)

type Species uint8

const (
	Cat Species = iota
	Dog
	Bunny
	numSpecies
)

var speciesNames = [...]string{"CAT", "DOG", "BUNNY"}

type Limb uint8

const (
	LimbNone Limb = iota
	LeftArm
	RightArm
	LeftLeg
	RightLeg
	numLimbs
)

var limbNames = [...]string{"NONE", "LEFT_ARM", "RIGHT_ARM", "LEFT_LEG", "RIGHT_LEG"}

type Joint uint8

const (
	Neck Joint = iota
	TorsoMiddle
	Shoulder
	Elbow
	Wrist
	Hip
	Knee
	Ankle
	numJoints
)

var jointNames = [...]string{"NECK", "TORSO_MIDDLE", "SHOULDER", "ELBOW", "WRIST", "HIP", "KNEE", "ANKLE"}

// SegmentType is one side-specific anatomical position. Values are dense
// ordinals so per-body state can live in a fixed array.
type SegmentType uint8

const (
	Head SegmentType = iota
	UpperTorso
	LowerTorso
	LeftUpperArm
	LeftForearm
	LeftHand
	RightUpperArm
	RightForearm
	RightHand
	LeftThigh
	LeftShin
	LeftFoot
	RightThigh
	RightShin
	RightFoot
)

const NumSegments = 15

var segmentNames = [NumSegments]string{
	"HEAD", "UPPER_TORSO", "LOWER_TORSO",
	"LEFT_UPPER_ARM", "LEFT_FOREARM", "LEFT_HAND",
	"RIGHT_UPPER_ARM", "RIGHT_FOREARM", "RIGHT_HAND",
	"LEFT_THIGH", "LEFT_SHIN", "LEFT_FOOT",
	"RIGHT_THIGH", "RIGHT_SHIN", "RIGHT_FOOT",
}

// PartType is the side-independent category an order asks for.
type PartType uint8

const (
	Scrap PartType = iota
	PartHead
	Chest
	Belly
	UpperArm
	Forearm
	Hand
	Thigh
	Shin
	Foot
	numParts
)

var partNames = [...]string{"SCRAP", "HEAD", "CHEST", "BELLY", "UPPER_ARM", "FOREARM", "HAND", "THIGH", "SHIN", "FOOT"}

type Precision uint8

const (
	Perfect Precision = iota
	MissEarly
	MissLate
	numPrecisions
)

var precisionNames = [...]string{"PERFECT", "MISS_EARLY", "MISS_LATE"}

func (p Precision) IsPerfect() bool { return p == Perfect }

// Quality tiers are ordered: comparisons with < and >= are meaningful.
type Quality uint8

const (
	QualityLow Quality = iota
	QualityNormal
	QualityHigh
	QualityPerfect
	numQualities
)

var qualityNames = [...]string{"LOW", "NORMAL", "HIGH", "PERFECT"}

// QualityFor derives the tier a cut produces. Only Perfect and Normal are
// reachable from precision; Low and High exist for scoring tables.
func QualityFor(p Precision) Quality {
	if p.IsPerfect() {
		return QualityPerfect
	}
	return QualityNormal
}

type Tool uint8

const (
	Cleaver Tool = iota
	Knife
	Saw
	Shears
	numTools
)

var toolNames = [...]string{"CLEAVER", "KNIFE", "SAW", "SHEARS"}

func name(names []string, v uint8, kind string) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%s(%d)", kind, v)
}

func parse(names []string, s, kind string) (uint8, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}

func (s Species) String() string     { return name(speciesNames[:], uint8(s), "species") }
func (l Limb) String() string        { return name(limbNames[:], uint8(l), "limb") }
func (j Joint) String() string       { return name(jointNames[:], uint8(j), "joint") }
func (s SegmentType) String() string { return name(segmentNames[:], uint8(s), "segment") }
func (p PartType) String() string    { return name(partNames[:], uint8(p), "part") }
func (p Precision) String() string   { return name(precisionNames[:], uint8(p), "precision") }
func (q Quality) String() string     { return name(qualityNames[:], uint8(q), "quality") }
func (t Tool) String() string        { return name(toolNames[:], uint8(t), "tool") }

func ParseSpecies(s string) (Species, error) {
	v, err := parse(speciesNames[:], s, "species")
	return Species(v), err
}

func ParseLimb(s string) (Limb, error) {
	v, err := parse(limbNames[:], s, "limb")
	return Limb(v), err
}

func ParseJoint(s string) (Joint, error) {
	v, err := parse(jointNames[:], s, "joint")
	return Joint(v), err
}

func ParseSegment(s string) (SegmentType, error) {
	v, err := parse(segmentNames[:], s, "segment")
	return SegmentType(v), err
}

func ParsePart(s string) (PartType, error) {
	v, err := parse(partNames[:], s, "part")
	return PartType(v), err
}

func ParsePrecision(s string) (Precision, error) {
	v, err := parse(precisionNames[:], s, "precision")
	return Precision(v), err
}

func ParseQuality(s string) (Quality, error) {
	v, err := parse(qualityNames[:], s, "quality")
	return Quality(v), err
}

func ParseTool(s string) (Tool, error) {
	v, err := parse(toolNames[:], s, "tool")
	return Tool(v), err
}

// Name lists, used by catalogs for suggestions and by schemas.
func SpeciesNames() []string   { return append([]string(nil), speciesNames[:]...) }
func PartNames() []string      { return append([]string(nil), partNames[:]...) }
func QualityNames() []string   { return append([]string(nil), qualityNames[:]...) }
func ToolNames() []string      { return append([]string(nil), toolNames[:]...) }
func JointNames() []string     { return append([]string(nil), jointNames[:]...) }
func LimbNames() []string      { return append([]string(nil), limbNames[:]...) }
func PrecisionNames() []string { return append([]string(nil), precisionNames[:]...) }

func (s Species) MarshalText() ([]byte, error)     { return []byte(s.String()), nil }
func (l Limb) MarshalText() ([]byte, error)        { return []byte(l.String()), nil }
func (j Joint) MarshalText() ([]byte, error)       { return []byte(j.String()), nil }
func (s SegmentType) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (p PartType) MarshalText() ([]byte, error)    { return []byte(p.String()), nil }
func (p Precision) MarshalText() ([]byte, error)   { return []byte(p.String()), nil }
func (q Quality) MarshalText() ([]byte, error)     { return []byte(q.String()), nil }
func (t Tool) MarshalText() ([]byte, error)        { return []byte(t.String()), nil }

func (s *Species) UnmarshalText(b []byte) (err error) {
	*s, err = ParseSpecies(string(b))
	return err
}

func (l *Limb) UnmarshalText(b []byte) (err error) {
	*l, err = ParseLimb(string(b))
	return err
}

func (j *Joint) UnmarshalText(b []byte) (err error) {
	*j, err = ParseJoint(string(b))
	return err
}

func (s *SegmentType) UnmarshalText(b []byte) (err error) {
	*s, err = ParseSegment(string(b))
	return err
}

func (p *PartType) UnmarshalText(b []byte) (err error) {
	*p, err = ParsePart(string(b))
	return err
}

func (p *Precision) UnmarshalText(b []byte) (err error) {
	*p, err = ParsePrecision(string(b))
	return err
}

func (q *Quality) UnmarshalText(b []byte) (err error) {
	*q, err = ParseQuality(string(b))
	return err
}

func (t *Tool) UnmarshalText(b []byte) (err error) {
	*t, err = ParseTool(string(b))
	return err
}

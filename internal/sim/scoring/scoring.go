package scoring

import (
	"fmt"
	"math"

	"slicehouse.ai/internal/sim/anatomy"
	"slicehouse.ai/internal/sim/tuning"
)

// UnderQualityPenalty replaces the precision bias when a part falls below the
// item's minimum quality.
const UnderQualityPenalty = 0.7

// Archetype is the slice of customer modifiers scoring reads.
type Archetype struct {
	TipMultiplier float64
	PrecisionBias float64
}

// Requirement is the slice of an order item scoring reads.
type Requirement struct {
	MinQuality anatomy.Quality
}

// Calculator scores one delivered part. It holds only immutable tables.
type Calculator struct {
	base           float64
	quality        [4]float64
	precisionBonus float64
	toolBonus      float64
	preferred      map[anatomy.Tool]map[anatomy.Joint]bool
}

func New(s tuning.Scoring) (*Calculator, error) {
	c := &Calculator{
		base:           s.BaseScore,
		precisionBonus: s.PrecisionBonusPercent,
		toolBonus:      s.CorrectToolBonusPercent,
		preferred:      map[anatomy.Tool]map[anatomy.Joint]bool{},
	}
	for name, m := range s.QualityMultipliers {
		q, err := anatomy.ParseQuality(name)
		if err != nil {
			return nil, fmt.Errorf("quality_multipliers: %w", err)
		}
		c.quality[q] = m
	}
	for toolName, joints := range s.PreferredTools {
		tool, err := anatomy.ParseTool(toolName)
		if err != nil {
			return nil, fmt.Errorf("preferred_tools: %w", err)
		}
		set := c.preferred[tool]
		if set == nil {
			set = map[anatomy.Joint]bool{}
			c.preferred[tool] = set
		}
		for _, jn := range joints {
			j, err := anatomy.ParseJoint(jn)
			if err != nil {
				return nil, fmt.Errorf("preferred_tools[%s]: %w", toolName, err)
			}
			set[j] = true
		}
	}
	return c, nil
}

// MustDefault builds a calculator from tuning.Defaults.
func MustDefault() *Calculator {
	c, err := New(tuning.Defaults().Scoring)
	if err != nil {
		panic(err)
	}
	return c
}

// Preferred reports whether tool is the right tool for cutting joint.
func (c *Calculator) Preferred(tool anatomy.Tool, joint anatomy.Joint) bool {
	return c.preferred[tool][joint]
}

func (c *Calculator) Base() float64 { return c.base }

// Score is deterministic and side-effect free.
func (c *Calculator) Score(p anatomy.Part, req Requirement, a Archetype) int {
	var mq float64
	if p.Quality.Valid() {
		mq = c.quality[p.Quality]
	}
	score := c.base * mq
	if p.Precision.IsPerfect() {
		score += c.base * c.precisionBonus
	}
	if c.Preferred(p.Tool, p.Joint) {
		score += c.base * c.toolBonus
	}
	mult := a.TipMultiplier
	if p.Quality >= req.MinQuality {
		mult *= a.PrecisionBias
	} else {
		mult *= UnderQualityPenalty
	}
	return int(math.Round(score * mult))
}

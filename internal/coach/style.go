package coach

import (
	"encoding/json"
	"strings"
)

// Style is the communication style a message is rendered in
type Style string

const (
	StyleDirect     Style = "direct_competitive"
	StyleSupportive Style = "supportive_motivational"
	StyleAnalytical Style = "analytical_structured"
	StyleBalanced   Style = "balanced"
)

const (
	discHigh      = 65
	lowMotivation = 5
)

// DISC holds the four communication style scores (0-100).
type DISC struct {
	D float64 `json:"D"`
	I float64 `json:"I"`
	S float64 `json:"S"`
	C float64 `json:"C"`
}

// NeutralDISC is used when the profile has no usable scores
var NeutralDISC = DISC{D: 50, I: 50, S: 50, C: 50}

// ParseDISC decodes a serialized DISC profile. Empty or malformed input yields NeutralDISC.
func ParseDISC(text string) DISC {
	if strings.TrimSpace(text) == "" {
		return NeutralDISC
	}
	var d DISC
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return NeutralDISC
	}
	return d
}

// SelectStyle picks the style from DISC scores, emotional state and momentum.
func SelectStyle(d DISC, emo EmotionalFacet, mom MomentumFacet) Style {
	goodMomentum := mom.Estado == string(TrendAccelerating) || mom.Tendencia == TrendAccelerating
	low := emo.Motivacion < lowMotivation

	switch {
	case d.D > discHigh && goodMomentum && !low:
		return StyleDirect
	case (d.I > discHigh || d.S > discHigh) && (low || !goodMomentum):
		return StyleSupportive
	case d.C > discHigh:
		return StyleAnalytical
	}
	return StyleBalanced
}

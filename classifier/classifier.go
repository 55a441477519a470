// Package classifier scores a prompt's complexity on twelve weighted
// dimensions and produces a tier and a calibrated confidence. It is pure:
// no I/O, no global state after the weights/thresholds are loaded, and
// deterministic for a fixed (text, meta, weights, thresholds).
package classifier

import (
	"math"
	"time"

	"github.com/throttlehq/throttle/catalog"
)

// steepness is the sigmoid's k parameter; higher values make confidence
// swing from ~0 to ~1 faster as the score moves away from a boundary.
const steepness = 10.0

// Dimensions holds the twelve raw per-dimension scores, each in [0,1],
// before weighting.
type Dimensions struct {
	TokenCount         float64
	CodePresence       float64
	ReasoningMarkers   float64
	SimpleIndicators   float64
	MultiStepPatterns  float64
	QuestionCount      float64
	SystemPromptSignal float64
	ConversationDepth  float64
	AgenticTask        float64
	TechnicalTerms     float64
	ConstraintCount    float64
	EscalationSignals  float64
}

// Result is a completed classification.
type Result struct {
	Score      float64
	Tier       catalog.Tier
	Confidence float64
	Dimensions Dimensions
	Took       time.Duration
}

// Classify scores in against weights and thresholds. Safe for concurrent
// use; weights and thresholds are read-only inputs.
func Classify(in Input, weights Weights, thresholds Thresholds) Result {
	start := time.Now()

	dims := Dimensions{
		TokenCount:         dimTokenCount(in),
		CodePresence:       dimCodePresence(in),
		ReasoningMarkers:   dimReasoningMarkers(in),
		SimpleIndicators:   dimSimpleIndicators(in),
		MultiStepPatterns:  dimMultiStepPatterns(in),
		QuestionCount:      dimQuestionCount(in),
		SystemPromptSignal: dimSystemPromptSignals(in),
		ConversationDepth:  dimConversationDepth(in),
		AgenticTask:        dimAgenticTask(in),
		TechnicalTerms:     dimTechnicalTerms(in),
		ConstraintCount:    dimConstraintCount(in),
		EscalationSignals:  dimEscalationSignals(in),
	}

	sum := weights.TokenCount*dims.TokenCount +
		weights.CodePresence*dims.CodePresence +
		weights.ReasoningMarkers*dims.ReasoningMarkers +
		weights.SimpleIndicators*dims.SimpleIndicators +
		weights.MultiStepPatterns*dims.MultiStepPatterns +
		weights.QuestionCount*dims.QuestionCount +
		weights.SystemPromptSignal*dims.SystemPromptSignal +
		weights.ConversationDepth*dims.ConversationDepth +
		weights.AgenticTask*dims.AgenticTask +
		weights.TechnicalTerms*dims.TechnicalTerms +
		weights.ConstraintCount*dims.ConstraintCount +
		weights.EscalationSignals*dims.EscalationSignals

	score := clamp01(sum)
	tier := tierFor(score, thresholds)
	confidence := confidenceFor(score, tier, thresholds)

	return Result{
		Score:      score,
		Tier:       tier,
		Confidence: confidence,
		Dimensions: dims,
		Took:       time.Since(start),
	}
}

func tierFor(score float64, th Thresholds) catalog.Tier {
	switch {
	case score <= th.SimpleMax:
		return catalog.TierSimple
	case score >= th.ComplexMin:
		return catalog.TierComplex
	default:
		return catalog.TierStandard
	}
}

// confidenceFor is the sigmoid of the signed distance from the nearest
// relevant boundary. Scores near a boundary yield confidence near 0.5;
// scores deep inside a tier approach 1.
func confidenceFor(score float64, tier catalog.Tier, th Thresholds) float64 {
	var d float64
	switch tier {
	case catalog.TierSimple:
		d = th.SimpleMax - score
	case catalog.TierComplex:
		d = score - th.ComplexMin
	default:
		d = math.Min(score-th.SimpleMax, th.ComplexMin-score)
	}
	return sigmoid(steepness * d)
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

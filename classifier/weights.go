package classifier

import (
	"encoding/json"
	"fmt"
	"os"
)

// Weights holds one coefficient per dimension. simpleIndicators is
// intentionally negative in the defaults: a prompt rich in greetings and
// trivial affirmations should pull the composite score down, not up.
type Weights struct {
	TokenCount         float64 `json:"tokenCount"`
	CodePresence       float64 `json:"codePresence"`
	ReasoningMarkers   float64 `json:"reasoningMarkers"`
	SimpleIndicators   float64 `json:"simpleIndicators"`
	MultiStepPatterns  float64 `json:"multiStepPatterns"`
	QuestionCount      float64 `json:"questionCount"`
	SystemPromptSignal float64 `json:"systemPromptSignals"`
	ConversationDepth  float64 `json:"conversationDepth"`
	AgenticTask        float64 `json:"agenticTask"`
	TechnicalTerms     float64 `json:"technicalTerms"`
	ConstraintCount    float64 `json:"constraintCount"`
	EscalationSignals  float64 `json:"escalationSignals"`
}

// DefaultWeights is used when no weights file is configured.
func DefaultWeights() Weights {
	return Weights{
		TokenCount:         0.12,
		CodePresence:       0.14,
		ReasoningMarkers:   0.12,
		SimpleIndicators:   -0.20,
		MultiStepPatterns:  0.12,
		QuestionCount:      0.05,
		SystemPromptSignal: 0.08,
		ConversationDepth:  0.06,
		AgenticTask:        0.14,
		TechnicalTerms:     0.10,
		ConstraintCount:    0.08,
		EscalationSignals:  0.08,
	}
}

// Thresholds sets the tier boundaries on the composite score.
type Thresholds struct {
	SimpleMax  float64 `json:"simpleMax"`
	ComplexMin float64 `json:"complexMin"`
}

// DefaultThresholds matches the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{SimpleMax: 0.30, ComplexMin: 0.65}
}

// LoadWeights reads a weights JSON file, applying DefaultWeights for any
// field absent from the file.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	if path == "" {
		return w, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, fmt.Errorf("read classifier weights %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return Weights{}, fmt.Errorf("parse classifier weights %s: %w", path, err)
	}
	return w, nil
}
